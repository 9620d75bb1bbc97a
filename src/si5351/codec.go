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

// Divider is the rational divider Int + Num/Den used by both the PLL feedback
// path and the output multisynths. Num == 0 selects integer mode.
type Divider struct {
	Int, Num, Den uint32
}

// Fields holds the packed register parameters. P1 is 18 bits, P2 and P3 are
// 20 bits wide.
type Fields struct {
	P1, P2, P3 uint32
}

/*
Encode maps a divider onto the P1/P2/P3 fields of AN619:

	P1 = 128*a + floor(128*b/c) - 512
	P2 = 128*b - c*floor(128*b/c)
	P3 = c

The floor is computed with 64-bit integer division so that numerators and
denominators near the 20-bit limit come out exact. Encode does no range
checking; SetupPLL and SetupMultisynth validate before calling it.
*/
func Encode(d Divider) Fields {
	if d.Num == 0 {
		return Fields{P1: 128*d.Int - 512, P2: 0, P3: d.Den}
	}
	ratio := fractionRatio(d.Num, d.Den)
	return Fields{
		P1: 128*d.Int + ratio - 512,
		P2: 128*d.Num - d.Den*ratio,
		P3: d.Den,
	}
}

/*
encodeMultisynth is Encode with one extra branch. A unit denominator with a
non-zero numerator takes a shortcut that is not the general formula evaluated
at c = 1 (it leaves out the c*ratio term and adds 128*b to P1 directly). The
register image this produces is relied on bit for bit, so the branch is kept
as is.
*/
func encodeMultisynth(d Divider) Fields {
	switch {
	case d.Num == 0:
		return Fields{P1: 128*d.Int - 512, P2: 0, P3: d.Den}
	case d.Den == 1:
		return Fields{P1: 128*d.Int + 128*d.Num - 512, P2: 128*d.Num - 128, P3: 1}
	default:
		return Encode(d)
	}
}

// Decode inverts Encode for fields with a non-zero P3.
func Decode(f Fields) Divider {
	c := uint64(f.P3)
	if c == 0 {
		return Divider{}
	}
	p1 := uint64(f.P1) + 512
	// 128*b = c*ratio + P2 and 128*a + ratio = P1 + 512
	ratio := p1 % 128
	a := p1 / 128
	b := (c*ratio + uint64(f.P2)) / 128
	return Divider{Int: uint32(a), Num: uint32(b), Den: uint32(c)}
}

func fractionRatio(num, den uint32) uint32 {
	return uint32(uint64(num) * 128 / uint64(den))
}

// Pack lays the fields out in bus order for an 8 register block. high is OR'd
// into the byte carrying P1[17:16]; the multisynth path passes the R divider
// bits there.
func (f Fields) Pack(high uint8) [8]byte {
	return [8]byte{
		byte(f.P3 >> 8),
		byte(f.P3),
		byte((f.P1>>16)&0x03) | high,
		byte(f.P1 >> 8),
		byte(f.P1),
		byte((f.P3>>16)&0x0F)<<4 | byte((f.P2>>16)&0x0F),
		byte(f.P2 >> 8),
		byte(f.P2),
	}
}

// Unpack reverses Pack, dropping anything above P1[17:16] in the third byte.
func Unpack(b [8]byte) Fields {
	return Fields{
		P1: uint32(b[2]&0x03)<<16 | uint32(b[3])<<8 | uint32(b[4]),
		P2: uint32(b[5]&0x0F)<<16 | uint32(b[6])<<8 | uint32(b[7]),
		P3: uint32(b[5]>>4)<<16 | uint32(b[0])<<8 | uint32(b[1]),
	}
}
