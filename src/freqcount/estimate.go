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

/*
Package freqcount measures an Si5351 output against a GPS pulse-per-second
signal so the crystal error can be found and corrected.

The counting hardware is on the RP2040: one PWM slice counts the clock
edges modulo FastCycle and pulses an output pin on each wrap, which is
jumpered to a second slice counting those wraps modulo SlowCycle. A PIO
state machine flags each PPS edge. The two counters are read high, low,
high, low and combined with support.ReduceObservation.

This file is the arithmetic, which doesn't need the hardware.
*/
package freqcount

import (
	"errors"
	"math"

	"si5351/src/support"
)

const (
	FastCycle = 50_000
	SlowCycle = 50_000

	// CountModulus is where the combined counter wraps.
	CountModulus = FastCycle * SlowCycle

	usPerSecond = 1_000_000
	// A PPS interval measured by the RP2040 timer is off by the RP2040
	// crystal error, a few tens of ppm. Anything further out is a glitch.
	intervalTolerance = 500 // µs
	// The combined counter wraps every 40 s at the 62.5 MHz the PWM input
	// tops out at. A longer gap could hide a whole wrap.
	maxGap = 30 * usPerSecond
)

var (
	ErrGlitch = errors.New("freqcount: pps edge not on a whole second")
	ErrGap    = errors.New("freqcount: pps lost for too long, restarting")
)

// Sample is one reading of the counters taken at a PPS edge.
type Sample struct {
	T     uint64 // µs since power up
	Count uint64 // combined counter, modulo CountModulus
	// Raw counter reads, kept for diagnostics.
	B1, A1, B2, A2 uint32
}

// Reduce fills in Count from the raw reads.
func (s *Sample) Reduce() {
	s.Count = support.ReduceObservation(FastCycle, s.B1, s.A1, s.B2, s.A2)
}

// Estimator accumulates PPS samples into a frequency estimate.
type Estimator struct {
	ext support.Extender

	primed       bool
	t0, c0       uint64 // first accepted sample
	tLast, cLast uint64 // last accepted sample, count extended
	seconds      int64
	rejected     int
}

func NewEstimator() *Estimator {
	return &Estimator{ext: support.Extender{Modulus: CountModulus}}
}

/*
Add feeds the next sample. Samples that don't land on a whole number of
seconds after the last good one are dropped with ErrGlitch, so a noisy PPS
line costs a little gate time and nothing else. A missing edge is fine, the
next one counts as two seconds.
*/
func (e *Estimator) Add(s Sample) error {
	count := e.ext.Update(s.Count)
	if !e.primed {
		e.primed = true
		e.t0, e.c0 = s.T, count
		e.tLast, e.cLast = s.T, count
		return nil
	}
	dt := int64(s.T - e.tLast)
	if dt > maxGap {
		e.Reset()
		e.Add(s)
		return ErrGap
	}
	secs := support.RoundDiv(dt, usPerSecond)
	if secs < 1 || support.Abs(dt-secs*usPerSecond) > intervalTolerance {
		e.rejected++
		return ErrGlitch
	}
	e.tLast, e.cLast = s.T, count
	e.seconds += secs
	return nil
}

// Reset discards everything accumulated.
func (e *Estimator) Reset() {
	e.ext.Reset()
	e.primed = false
	e.seconds = 0
	e.rejected = 0
}

// Seconds is the gate time accumulated so far.
func (e *Estimator) Seconds() int64 { return e.seconds }

// Rejected counts samples dropped as glitches since the last Reset.
func (e *Estimator) Rejected() int { return e.rejected }

// Cycles is the number of clock edges counted over Seconds.
func (e *Estimator) Cycles() uint64 { return e.cLast - e.c0 }

// Frequency is the mean frequency over the gate. It is only available once
// at least one second has been accumulated.
func (e *Estimator) Frequency() (float64, bool) {
	if e.seconds == 0 {
		return 0, false
	}
	return float64(e.Cycles()) / float64(e.seconds), true
}

// Resolution is the frequency quantum of the current gate, one count.
func (e *Estimator) Resolution() float64 {
	if e.seconds == 0 {
		return math.Inf(1)
	}
	return 1 / float64(e.seconds)
}

/*
Correction works out the crystal correction in ppb relative to nominal,
given an output that was planned for target from a crystal figure of assumed
and measured as measured. Target should be what the dividers actually
produce, si5351.FreqPlan.Output, so planning error doesn't leak into the
crystal.
*/
func Correction(target, measured float64, assumed, nominal uint32) int32 {
	crystal := measured / target * float64(assumed)
	return int32(math.Round((crystal/float64(nominal) - 1) * 1e9))
}
