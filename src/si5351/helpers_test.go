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
	qt "github.com/frankban/quicktest"
	"tinygo.org/x/drivers/tester"
)

// tx is one recorded bus transaction.
type tx struct {
	w     []byte
	nread int
}

func (t tx) isWrite() bool { return t.nread == 0 }

// recorder sits between the Device and the fake bus and keeps every
// transaction in order.
type recorder struct {
	bus *tester.I2CBus
	log []tx
}

func (r *recorder) Tx(addr uint16, w, rd []byte) error {
	r.log = append(r.log, tx{w: append([]byte(nil), w...), nread: len(rd)})
	return r.bus.Tx(addr, w, rd)
}

func (r *recorder) writes() []tx {
	var out []tx
	for _, t := range r.log {
		if t.isWrite() {
			out = append(out, t)
		}
	}
	return out
}

func (r *recorder) reset() { r.log = nil }

func newFake(c *qt.C) (*Device, *tester.I2CDevice8, *recorder) {
	bus := tester.NewI2CBus(c)
	chip := bus.NewDevice(AddressDefault)
	rec := &recorder{bus: bus}
	return New(rec, DefaultConfig()), chip, rec
}

// newConfigured returns a device that has been through bring-up with the
// transaction log cleared.
func newConfigured(c *qt.C) (*Device, *tester.I2CDevice8, *recorder) {
	d, chip, rec := newFake(c)
	c.Assert(d.Configure(), qt.IsNil)
	rec.reset()
	return d, chip, rec
}

var seed = int64(1)

// rand32 is a small LCG so sweeps are repeatable.
func rand32() uint32 {
	seed = 25214903917*seed + 11
	return uint32(seed >> 16)
}
