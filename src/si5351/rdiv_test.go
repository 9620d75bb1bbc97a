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
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestMinDivider(t *testing.T) {
	c := qt.New(t)
	for _, tc := range []struct {
		excess uint32
		want   uint32
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8},
		{64, 64}, {65, 128}, {127, 128}, {128, 128},
	} {
		r, err := MinDivider(tc.excess)
		c.Assert(err, qt.IsNil)
		c.Check(r.Divisor(), qt.Equals, tc.want, qt.Commentf("excess %d", tc.excess))
	}
	for _, x := range []uint32{129, 256, 1 << 20, 0xFFFFFFFF} {
		_, err := MinDivider(x)
		c.Check(errors.Is(err, ParameterOutOfRange), qt.IsTrue, qt.Commentf("excess %d", x))
	}
}

func Test_minDividerMonotonic(t *testing.T) {
	last := uint32(0)
	for x := uint32(0); x <= 128; x++ {
		r, err := MinDivider(x)
		if err != nil {
			t.Fatalf("unexpected error at %d: %s", x, err)
		}
		if r.Divisor() < last {
			t.Errorf("divider went down at %d: %d < %d", x, r.Divisor(), last)
		}
		if r.Divisor() < x {
			t.Errorf("divider %d too small for %d", r.Divisor(), x)
		}
		last = r.Divisor()
	}
}

func TestSetupRDiv(t *testing.T) {
	c := qt.New(t)
	d, chip, rec := newConfigured(c)

	// P1[17:16] and anything else in the low nibble survive
	chip.Registers[rdivRegister(1)] = 0x8B
	c.Assert(d.SetupRDiv(1, Div32), qt.IsNil)
	c.Assert(chip.Registers[rdivRegister(1)], qt.Equals, uint8(0x5B))
	bits, ok := d.RDivBits(1)
	c.Assert(ok, qt.IsTrue)
	c.Assert(bits, qt.Equals, uint8(0x50))

	// one read and one write
	c.Assert(rec.log, qt.HasLen, 2)
	c.Assert(rec.log[0].nread, qt.Equals, 1)
	c.Assert(rec.log[1].w, qt.DeepEquals, []byte{rdivRegister(1), 0x5B})

	c.Assert(d.SetupRDiv(3, Div2), qt.ErrorIs, ParameterOutOfRange)
	for _, ch := range []int{-1, 3} {
		bits, ok := d.RDivBits(ch)
		c.Check(ok, qt.IsFalse, qt.Commentf("channel %d", ch))
		c.Check(bits, qt.Equals, uint8(0))
	}
	c.Assert(d.SetupRDiv(0, RDiv(8)), qt.ErrorIs, ParameterOutOfRange)
}

func TestRDivSurvivesMultisynth(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newConfigured(c)

	c.Assert(d.SetupPLLInt(PLLA, 24), qt.IsNil)
	c.Assert(d.SetupRDiv(2, Div128), qt.IsNil)
	c.Assert(d.SetupMultisynthInt(2, PLLA, MultisynthDiv8), qt.IsNil)

	// P1 = 128*8 - 512 = 0x200, so the high bits are all R divider
	c.Assert(chip.Registers[rdivRegister(2)], qt.Equals, uint8(0x70))
	c.Assert(chip.Registers[multisynthBase(2)+3], qt.Equals, uint8(0x02))
}

func TestRDivNeedsConfigure(t *testing.T) {
	c := qt.New(t)
	d, _, rec := newFake(c)
	c.Assert(d.SetupRDiv(0, Div1), qt.ErrorIs, PrerequisiteNotMet)
	c.Assert(rec.log, qt.HasLen, 0)
}
