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

// Register access. The chip auto-increments the register pointer, so a block
// of consecutive registers goes out in a single write.

func (d *Device) write8(reg, val uint8) error {
	d.w[0] = reg
	d.w[1] = val
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) read8(reg uint8) (uint8, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) readN(reg uint8, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	d.w[0] = reg
	return d.bus.Tx(d.addr, d.w[:1], buf)
}

func (d *Device) writeBlock(reg uint8, block [8]byte) error {
	d.w[0] = reg
	copy(d.w[1:], block[:])
	return d.bus.Tx(d.addr, d.w[:1+len(block)], nil)
}

// writeN sends an arbitrary length block; used for bulk loads.
func (d *Device) writeN(reg uint8, data []byte) error {
	buf := make([]byte, 1+len(data))
	buf[0] = reg
	copy(buf[1:], data)
	return d.bus.Tx(d.addr, buf, nil)
}

// modify8 is a read-modify-write of one register.
func (d *Device) modify8(reg, set, clear uint8) error {
	v, err := d.read8(reg)
	if err != nil {
		return err
	}
	return d.write8(reg, (v|set)&^clear)
}
