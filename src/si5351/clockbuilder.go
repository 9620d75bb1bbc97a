/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package si5351

// Block is a run of register values starting at Start.
type Block struct {
	Start uint8
	Data  []byte
}

// Register map exported by ClockBuilder Desktop for a 25 MHz crystal:
// CLK0 120.00 MHz, CLK1 12.00 MHz, CLK2 13.56 MHz.
var (
	clockBuilder15to92 = [92 - 15 + 1]byte{
		0x00, 0x4F, 0x4F, 0x6F, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00, 0x00, // CLK control
		0x00, 0x05, 0x00, 0x0C, 0x66, 0x00, 0x00, 0x02, // PLL A
		0x02, 0x71, 0x00, 0x0C, 0x1A, 0x00, 0x00, 0x86, // PLL B
		0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x1C, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x01, 0x00, 0x18, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00,
	}
	clockBuilder149to170 = [170 - 149 + 1]byte{}
)

// ClockBuilderDefaults returns the built-in register map. The slices are
// copies and may be modified.
func ClockBuilderDefaults() []Block {
	a := make([]byte, len(clockBuilder15to92))
	copy(a, clockBuilder15to92[:])
	b := make([]byte, len(clockBuilder149to170))
	copy(b, clockBuilder149to170[:])
	return []Block{
		{Start: regPLLInputSource, Data: a},
		{Start: regSpreadSpectrum, Data: b},
	}
}

/*
LoadRegisters writes a precomputed register map. Outputs are disabled while
the blocks go out, then the chip is soft reset and all outputs enabled.

The PLL and R divider bookkeeping is not derived from the blocks, so both
PLLs are marked unconfigured afterwards and the stored R divider bits are
cleared. Use SetupPLL to bring them back under the planner's control.
*/
func (d *Device) LoadRegisters(blocks ...Block) error {
	const op = "load registers"
	if !d.initialised {
		return notReady(op, "device not configured")
	}
	for _, b := range blocks {
		if int(b.Start)+len(b.Data) > 256 {
			return outOfRange(op, "block runs past register 255")
		}
	}
	if err := d.write8(regOutputEnable, 0xFF); err != nil {
		return busError(op, err)
	}
	for _, b := range blocks {
		if len(b.Data) == 0 {
			continue
		}
		if err := d.writeN(b.Start, b.Data); err != nil {
			return busError(op, err)
		}
	}
	if err := d.write8(regPLLReset, softReset); err != nil {
		return busError(op, err)
	}
	d.pll = [2]pllState{}
	d.rdiv = [NumOutputs]uint8{}
	if err := d.write8(regOutputEnable, 0x00); err != nil {
		return busError(op, err)
	}
	return nil
}
