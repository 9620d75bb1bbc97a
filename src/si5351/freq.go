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
	"fmt"

	"si5351/src/support"
)

// FreqPlan is the divider chain PlanFreq picked for one output frequency.
type FreqPlan struct {
	Crystal uint32 // Hz, after correction
	Target  uint32 // Hz

	// PLL feedback divider Mult + Num/Den.
	Mult, Num, Den uint32
	// Integer multisynth divider.
	MS uint32
	R  RDiv
}

/*
PlanFreq picks the divider chain for an output of hz from a crystal of xtal.

The total divider is the largest that keeps the VCO at or below 900 MHz. An
R divider takes whatever the multisynth can't, the multisynth gets an even
integer of at least 6, and the whole fractional remainder goes into the PLL
feedback divider with a denominator of 0xFFFFF. Keeping the multisynth in
integer mode keeps its jitter down.

PlanFreq doesn't touch the hardware. Targets that would leave the PLL
multiplier outside 15..90 are caught by SetupPLL.
*/
func PlanFreq(xtal, hz uint32) (FreqPlan, error) {
	const op = "plan"
	if hz == 0 {
		return FreqPlan{}, outOfRange(op, "frequency must be positive")
	}
	if xtal == 0 {
		return FreqPlan{}, outOfRange(op, "crystal frequency must be positive")
	}
	total := uint32(VCOMax / hz)
	r, err := MinDivider(total / rdivWindow)
	if err != nil {
		return FreqPlan{}, err
	}
	ms := support.Max(msPlanMin, total/(2*r.Divisor())*2)
	if ms > msPlanMax {
		return FreqPlan{}, outOfRange(op, "multisynth divider above 1800")
	}
	pll := uint64(hz) * uint64(ms) * uint64(r.Divisor())
	x := uint64(xtal)
	return FreqPlan{
		Crystal: xtal,
		Target:  hz,
		Mult:    uint32(pll / x),
		Num:     uint32((pll % x) * MaxFraction / x),
		Den:     MaxFraction,
		MS:      ms,
		R:       r,
	}, nil
}

// VCO is the PLL frequency the plan produces, in whole Hz as SetupPLL records it.
func (p FreqPlan) VCO() uint32 {
	return vcoFrequency(p.Crystal, p.Mult, p.Num, p.Den)
}

// Output is the output frequency the plan actually produces.
func (p FreqPlan) Output() float64 {
	vco := float64(p.Crystal) * (float64(p.Mult) + float64(p.Num)/float64(p.Den))
	return vco / float64(p.MS) / float64(p.R.Divisor())
}

func (p FreqPlan) String() string {
	return fmt.Sprintf("pll %d+%d/%d ms %d r %v -> %.3f Hz", p.Mult, p.Num, p.Den, p.MS, p.R, p.Output())
}

/*
SetFreq sets output ch to hz using pll, which it reprograms.

The channel and device state are checked and the plan computed before
anything is written, so a target that can't be reached leaves the chip
alone. After that the PLL, multisynth and R divider are written in that
order and the first bus failure stops the sequence with earlier registers
already written.
*/
func (d *Device) SetFreq(ch int, pll PLL, hz uint32) error {
	const op = "set freq"
	if !d.initialised {
		return notReady(op, "device not configured")
	}
	if ch < 0 || ch >= NumOutputs {
		return outOfRange(op, "output channel must be 0..2")
	}
	if !pll.valid() {
		return outOfRange(op, "unknown pll")
	}
	p, err := PlanFreq(d.Crystal(), hz)
	if err != nil {
		return err
	}
	if !support.Between(p.Mult, PLLMultMin, PLLMultMax) {
		return outOfRange(op, "frequency needs a pll multiplier outside 15..90")
	}
	if err := d.SetupPLL(pll, p.Mult, p.Num, p.Den); err != nil {
		return err
	}
	if err := d.SetupMultisynth(ch, pll, p.MS, 0, 1); err != nil {
		return err
	}
	return d.SetupRDiv(ch, p.R)
}

/*
SetFreqExact sets output ch to hz with both the PLL and the multisynth in
fractional mode. The fractions are chosen by continued fractions, which gets
within a millihertz or so across the range where SetFreq can be off by
around a hertz. The VCO is 600 or 800 MHz for most targets.
*/
func (d *Device) SetFreqExact(ch int, pll PLL, hz float64) error {
	const op = "set freq exact"
	if !d.initialised {
		return notReady(op, "device not configured")
	}
	if ch < 0 || ch >= NumOutputs {
		return outOfRange(op, "output channel must be 0..2")
	}
	if !pll.valid() {
		return outOfRange(op, "unknown pll")
	}
	p, err := support.NewPlan(float64(d.Crystal()), 0, hz)
	if err != nil {
		return &E{C: ParameterOutOfRange, Op: op, Err: err}
	}
	r, err := MinDivider(p.R)
	if err != nil {
		return err
	}
	if err := d.SetupPLL(pll, p.A0, p.B0, p.C0); err != nil {
		return err
	}
	if err := d.SetupMultisynth(ch, pll, p.A1, p.B1, p.C1); err != nil {
		return err
	}
	return d.SetupRDiv(ch, r)
}
