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

/*
ReduceObservation combines a counter split over two registers, a high part that
counts wraps of a low part running modulo scale, into one value.

The two halves can't be read at the same instant, so they are read as high, low,
high, low. If the high part didn't change between its reads the first pair is
consistent. If it did change, the low reads tell us which side of the wrap the
first low read fell on. This assumes the counter advances by much less than
scale/2 during the four reads, which holds with a cascaded PWM pair on the RP2040
even when the input runs at the full 60MHz or so the PWM pins can count.
*/
func ReduceObservation(scale uint64, th1, tl1, th2, tl2 uint32) uint64 {
	if th1 == th2 {
		// any increment of th came after tl1 was read
		return uint64(th1)*scale + uint64(tl1)
	}
	if tl1 < tl2 {
		// no wrap between the low reads, so both came after the increment
		return uint64(th2)*scale + uint64(tl1)
	}
	// tl1 was read before the wrap
	return uint64(th1)*scale + uint64(tl1)
}

// Extender widens a counter that wraps at Modulus into a monotonic 64-bit
// count. It has to be fed at least once per wrap period.
type Extender struct {
	Modulus uint64

	primed bool
	last   uint64
	total  uint64
}

// Update takes a raw reading in [0, Modulus) and returns the extended count.
// The first reading becomes the starting point.
func (x *Extender) Update(raw uint64) uint64 {
	raw %= x.Modulus
	if !x.primed {
		x.primed = true
		x.last = raw
		x.total = raw
		return x.total
	}
	delta := (raw + x.Modulus - x.last) % x.Modulus
	x.last = raw
	x.total += delta
	return x.total
}

// Reset forgets the history so the next Update starts over.
func (x *Extender) Reset() {
	x.primed = false
	x.last, x.total = 0, 0
}
