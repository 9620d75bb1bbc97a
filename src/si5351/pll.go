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
	"math"

	"si5351/src/support"
)

/*
SetupPLL programs the feedback divider of a PLL to mult + num/den, so that
the VCO runs at crystal * (mult + num/den).

The divider is written as one 8 register burst and then both PLLs are
reset together. Resetting only the PLL that changed can leave the other
one's outputs glitching, so the reset always covers A and B.

The VCO frequency is recorded (truncated to whole Hz) for the multisynth
stage. Nothing here checks that the result is inside 600..900 MHz; a
multiplier of 15..90 on a 25 or 27 MHz crystal mostly lands there.
*/
func (d *Device) SetupPLL(pll PLL, mult, num, den uint32) error {
	const op = "setup pll"
	if !d.initialised {
		return notReady(op, "device not configured")
	}
	if !pll.valid() {
		return outOfRange(op, "unknown pll")
	}
	if !support.Between(mult, PLLMultMin, PLLMultMax) {
		return outOfRange(op, "multiplier must be 15..90")
	}
	if !support.Between(den, 1, MaxFraction) {
		return outOfRange(op, "denominator must be 1..0xFFFFF")
	}
	if num > MaxFraction {
		return outOfRange(op, "numerator must be at most 0xFFFFF")
	}

	f := Encode(Divider{Int: mult, Num: num, Den: den})
	if err := d.writeBlock(pllBase(pll), f.Pack(0)); err != nil {
		return busError(op, err)
	}
	if err := d.write8(regPLLReset, pllResetA|pllResetB); err != nil {
		return busError(op, err)
	}

	d.pll[pll] = pllState{configured: true, vco: vcoFrequency(d.Crystal(), mult, num, den)}
	return nil
}

// SetupPLLInt programs an integer feedback multiplier.
func (d *Device) SetupPLLInt(pll PLL, mult uint32) error {
	return d.SetupPLL(pll, mult, 0, 1)
}

// vcoFrequency is xtal * (mult + num/den) in whole Hz. An improper fraction
// (num > den) can push this past 32 bits; it saturates rather than wraps.
func vcoFrequency(xtal, mult, num, den uint32) uint32 {
	x := uint64(xtal)
	return uint32(min(x*uint64(mult)+x*uint64(num)/uint64(den), math.MaxUint32))
}
