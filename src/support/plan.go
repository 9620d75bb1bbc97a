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

package support

import (
	"errors"
	"fmt"
	"math"
)

// maxDenominator is the largest value the 20-bit fraction registers hold.
const maxDenominator = 1<<20 - 1

// Plan is a fully fractional divider chain for one output:
//
//	f = Crystal * (A0 + B0/C0) / (A1 + B1/C1) / R
type Plan struct {
	Crystal, PLL, Freq float64 // crystal, VCO and achieved output frequencies (Hz)
	A0, B0, C0         uint32  // PLL feedback divider
	A1, B1, C1         uint32  // multisynth divider
	R                  uint32  // output divider, a power of two
	Eps                float64 // target minus achieved frequency (Hz)
}

/*
NewPlan computes fractional PLL and multisynth dividers for an Si5351.

The parameter `f0` is the crystal frequency (in Hz, typically 25 or 27MHz), `pll` is
the VCO frequency (in Hz) in the range 600..900MHz and `f` is the desired output
frequency (in Hz). If `pll` is zero a suitable value is chosen: 600MHz below 5MHz and
800MHz otherwise. Above 100MHz the VCO is forced to an even multiple of the output
(6x or 4x) because the multisynth can't divide by less than 8 there unless the ratio
is exactly 4 or 6.

Both ratios are approximated with NearestFraction so the result is typically within a
millihertz of the target instead of the hertz or so that a fixed 0xFFFFF denominator
gives. Once the multisynth ratio passes 2048 the R divider is doubled until it fits;
needing more than 128 is an error, which puts the floor at about 2.3kHz with a 600MHz
VCO.
*/
func NewPlan(f0, pll, f float64) (Plan, error) {
	if f0 < 10e6 || f0 > 27.1e6 {
		return Plan{}, errors.New("plan: invalid crystal frequency")
	}
	if f <= 0 {
		return Plan{}, errors.New("plan: output frequency must be positive")
	}
	if f > 200e6 {
		return Plan{}, errors.New("plan: output frequency > 200MHz")
	}

	switch {
	case f > 150e6:
		pll = 4 * f
	case f >= 100e6:
		pll = 6 * f
	case pll == 0:
		if f < 5e6 {
			pll = 600e6
		} else {
			pll = 800e6
		}
	case pll < 600e6 || pll > 900e6:
		return Plan{}, errors.New("plan: pll is out of range")
	}
	z := pll / f0
	if z < 15 {
		return Plan{}, errors.New("plan: can't happen, feedback ratio too small")
	}
	if z > 90 {
		return Plan{}, errors.New("plan: can't happen, feedback ratio too big")
	}
	b, c, _ := NearestFraction(uint64(z*1e12), 1_000_000_000_000, maxDenominator)
	r := Plan{
		Crystal: f0,
		A0:      uint32(b / c),
		B0:      uint32(b % c),
		C0:      uint32(c),
	}
	r.PLL = f0 * (float64(r.A0) + float64(r.B0)/float64(r.C0))

	z = r.PLL / f
	if !Near(z, 4, 1e-9) && !Near(z, 6, 1e-9) && z < 8 {
		return Plan{}, fmt.Errorf("plan: output multisynth ratio too small: %.5g", z)
	}
	r.R = 1
	for z/float64(r.R) > 2048 && r.R <= 128 {
		r.R *= 2
	}
	if r.R > 128 {
		return Plan{}, errors.New("plan: output divider ratio too big, f_out too low")
	}
	b, c, _ = NearestFraction(uint64(z*1e12/float64(r.R)), 1_000_000_000_000, maxDenominator)
	r.A1 = uint32(b / c)
	r.B1 = uint32(b % c)
	r.C1 = uint32(c)

	r.Freq = r.PLL / (float64(r.A1) + float64(r.B1)/float64(r.C1)) / float64(r.R)
	r.Eps = f - r.Freq
	if math.Abs(r.Eps)/f > 1e-9 {
		return Plan{}, fmt.Errorf("plan: frequency error %.3g Hz is out of range", r.Eps)
	}
	return r, nil
}

func (p Plan) String() string {
	return fmt.Sprintf("pll %d+%d/%d ms %d+%d/%d r %d -> %.4f Hz",
		p.A0, p.B0, p.C0, p.A1, p.B1, p.C1, p.R, p.Freq)
}

// Near reports whether a and b are within eps of each other.
func Near(a, b, eps float64) bool {
	return Abs(a-b) <= eps
}
