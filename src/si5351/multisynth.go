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

import (
	"si5351/src/support"
)

/*
SetupMultisynth divides the VCO of pll by div + num/den and routes the
result to output ch.

The parameter block goes out as one burst with the R divider bits last set
on this output OR'd into the third byte, since that register is shared. The
output's control register is then written on its own to select the PLL and
integer mode (num == 0).

The PLL must have been set up first; an output can never be pointed at an
unconfigured PLL.
*/
func (d *Device) SetupMultisynth(ch int, pll PLL, div, num, den uint32) error {
	const op = "setup multisynth"
	if !d.initialised {
		return notReady(op, "device not configured")
	}
	if ch < 0 || ch >= NumOutputs {
		return outOfRange(op, "output channel must be 0..2")
	}
	if !pll.valid() {
		return outOfRange(op, "unknown pll")
	}
	if !support.Between(div, MultisynthDivMin, MultisynthDivMax) {
		return outOfRange(op, "divider must be 4..2048")
	}
	if !support.Between(den, 1, MaxFraction) {
		return outOfRange(op, "denominator must be 1..0xFFFFF")
	}
	if num > MaxFraction {
		return outOfRange(op, "numerator must be at most 0xFFFFF")
	}
	if !d.pll[pll].configured {
		return notReady(op, "pll "+pll.String()+" not configured")
	}

	f := encodeMultisynth(Divider{Int: div, Num: num, Den: den})
	if err := d.writeBlock(multisynthBase(ch), f.Pack(d.rdiv[ch])); err != nil {
		return busError(op, err)
	}

	ctrl := uint8(clkControlDefault)
	if pll == PLLB {
		ctrl |= clkSourcePLLB
	}
	if num == 0 {
		ctrl |= clkIntegerMode
	}
	if err := d.write8(clkControl(ch), ctrl); err != nil {
		return busError(op, err)
	}
	return nil
}

// SetupMultisynthInt selects one of the even integer dividers.
func (d *Device) SetupMultisynthInt(ch int, pll PLL, div MultisynthDiv) error {
	return d.SetupMultisynth(ch, pll, uint32(div), 0, 1)
}
