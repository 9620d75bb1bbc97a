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
	"math"
	"testing"
)

var seed = int64(1)

func rand() float64 {
	seed = 25214903917*seed + 11
	return float64(seed&0xffff_ffff_ffff) / float64(1<<48)
}

func Test_accuracy(t *testing.T) {
	frequencies := [][]float64{ // multiple test bands
		{1838000, 1838200},
		{3570000, 3570200},
		{5288600, 5288800},
		{7040000, 7040200},
		{10140100, 10140300},
		{14097000, 14097200},
		{18106000, 18106200},
		{21096000, 21096200},
		{24926000, 24926200},
		{28126000, 28126200},
		{50294400, 50294600},
		{144489900, 144490100},
	}
	for i := 0; i < len(frequencies); i++ {
		for f := frequencies[i][0]; f <= frequencies[i][1]; f += rand() * 0.2 {
			p, err := NewPlan(25e6, 0.0, f)
			if err != nil {
				t.Errorf("Error in NewPlan: %s", err)
				continue
			}
			if math.Abs(p.Eps)/f > 1e-9 {
				t.Errorf("Big discrepancy: %.4f, %.2f vs %.2f", p.Eps, p.Freq, f)
			}
		}
	}
}

func Test_range(t *testing.T) {
	for f := 1.0; f < 2300; f += 50 {
		_, err := NewPlan(25e6, 0.0, f)
		if err == nil {
			t.Errorf("Expected error in NewPlan due to low frequency: %.3f", f)
		}
	}
	for f := 2302.0; f < 200e6; f *= 1.2 {
		p, err := NewPlan(25e6, 0.0, f)
		if err != nil {
			t.Errorf("Error in NewPlan: %s", err)
			continue
		}
		if math.Abs(p.Eps) > 1e-3 {
			t.Errorf("Error in NewPlan at %.3f: %.6f", f, p.Eps)
		}
	}
}

// Every field has to fit the chip registers.
func Test_registerLimits(t *testing.T) {
	for f := 2302.0; f < 200e6; f *= 1.05 {
		p, err := NewPlan(27e6, 0, f)
		if err != nil {
			t.Errorf("Error in NewPlan: %s", err)
			continue
		}
		if p.A0 < 15 || p.A0 > 90 || p.C0 < 1 || p.C0 > maxDenominator || p.B0 >= p.C0 {
			t.Errorf("bad PLL divider at %.3f: %v", f, p)
		}
		if p.A1 < 4 || p.A1 > 2048 || p.C1 < 1 || p.C1 > maxDenominator || p.B1 >= p.C1 {
			t.Errorf("bad multisynth divider at %.3f: %v", f, p)
		}
		if p.R&(p.R-1) != 0 || p.R > 128 {
			t.Errorf("bad output divider at %.3f: %v", f, p)
		}
	}
}

func Test_explicitPLL(t *testing.T) {
	p, err := NewPlan(25e6, 750e6, 10e6)
	if err != nil {
		t.Fatalf("Error in NewPlan: %s", err)
	}
	if p.A0 != 30 || p.B0 != 0 || p.A1 != 75 || p.B1 != 0 || p.R != 1 {
		t.Errorf("Expected integer dividers 30 and 75, got %v", p)
	}
	if _, err := NewPlan(25e6, 950e6, 10e6); err == nil {
		t.Errorf("Expected error for a 950MHz VCO")
	}
	if _, err := NewPlan(8e6, 0, 10e6); err == nil {
		t.Errorf("Expected error for an 8MHz crystal")
	}
	if _, err := NewPlan(25e6, 0, 250e6); err == nil {
		t.Errorf("Expected error above 200MHz")
	}
}
