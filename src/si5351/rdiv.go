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
	"math/bits"
	"strconv"
)

// RDiv is the 3-bit output divider code; the divisor is 1 << code.
type RDiv uint8

const (
	Div1 RDiv = iota
	Div2
	Div4
	Div8
	Div16
	Div32
	Div64
	Div128
)

func (r RDiv) Divisor() uint32 { return 1 << (r & 7) }

func (r RDiv) String() string { return "/" + strconv.Itoa(int(r.Divisor())) }

/*
MinDivider returns the smallest R divider d with d >= excess. Zero is treated
as one. Anything needing more than 128 is out of range.
*/
func MinDivider(excess uint32) (RDiv, error) {
	if excess < 1 {
		excess = 1
	}
	n := bits.Len32(excess - 1)
	if n > 7 {
		return 0, outOfRange("rdiv", "output divider needs more than 128")
	}
	return RDiv(n), nil
}

// SetupRDiv sets the R divider of output ch. The low nibble of the shared
// register belongs to the multisynth and is preserved; the bits written are
// remembered so the next SetupMultisynth puts them back.
func (d *Device) SetupRDiv(ch int, div RDiv) error {
	const op = "setup rdiv"
	if !d.initialised {
		return notReady(op, "device not configured")
	}
	if ch < 0 || ch >= NumOutputs {
		return outOfRange(op, "output channel must be 0..2")
	}
	if div > Div128 {
		return outOfRange(op, "unknown divider code")
	}
	reg := rdivRegister(ch)
	v, err := d.read8(reg)
	if err != nil {
		return busError(op, err)
	}
	code := (uint8(div) & 0x07) << rdivShift
	v = v&p1HighMask | code
	d.rdiv[ch] = code
	if err := d.write8(reg, v); err != nil {
		return busError(op, err)
	}
	return nil
}
