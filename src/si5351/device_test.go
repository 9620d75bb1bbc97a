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

func TestConfigure(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newFake(c)

	chip.Registers[regSpreadSpectrum] = 0x85
	chip.Registers[regOutputEnable] = 0x00
	c.Assert(d.Initialized(), qt.IsFalse)
	c.Assert(d.Configure(), qt.IsNil)
	c.Assert(d.Initialized(), qt.IsTrue)

	c.Assert(chip.Registers[regOutputEnable], qt.Equals, uint8(0xFF))
	for r := regCLK0Control; r <= regCLK7Control; r++ {
		c.Assert(chip.Registers[r], qt.Equals, uint8(0x80))
	}
	c.Assert(chip.Registers[regCrystalLoad], qt.Equals, uint8(Load10PF))
	c.Assert(chip.Registers[regSpreadSpectrum], qt.Equals, uint8(0x05))
}

func TestConfigureClearsPLLs(t *testing.T) {
	c := qt.New(t)
	d, _, _ := newConfigured(c)
	c.Assert(d.SetupPLLInt(PLLA, 30), qt.IsNil)
	c.Assert(d.Configure(), qt.IsNil)
	_, ok := d.PLLFrequency(PLLA)
	c.Assert(ok, qt.IsFalse)
	c.Assert(d.SetupMultisynthInt(0, PLLA, MultisynthDiv4), qt.ErrorIs, PrerequisiteNotMet)
}

func TestConfigValidate(t *testing.T) {
	c := qt.New(t)
	c.Assert(DefaultConfig().Validate(), qt.IsNil)
	c.Assert(Config{Crystal: 26_000_000}.Validate(), qt.ErrorIs, ParameterOutOfRange)
	c.Assert(Config{Load: 0x12}.Validate(), qt.ErrorIs, ParameterOutOfRange)
	c.Assert(Config{CorrectionPPB: -1_000_001}.Validate(), qt.ErrorIs, ParameterOutOfRange)

	d := New(nil, Config{Crystal: Crystal27MHz, Load: Load6PF, CorrectionPPB: 1000})
	c.Assert(d.Address(), qt.Equals, uint16(AddressDefault))
	c.Assert(d.Crystal(), qt.Equals, uint32(27_000_027))
}

func TestEnableOutputs(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newFake(c)
	c.Assert(d.EnableOutputs(true), qt.ErrorIs, PrerequisiteNotMet)
	c.Assert(d.Configure(), qt.IsNil)

	c.Assert(d.EnableOutputs(true), qt.IsNil)
	c.Assert(d.EnableOutput(1, false), qt.IsNil)
	c.Assert(d.EnableOutput(2, false), qt.IsNil)
	c.Assert(chip.Registers[regOutputEnable], qt.Equals, uint8(0x06))
	c.Assert(d.EnableOutput(2, true), qt.IsNil)
	c.Assert(chip.Registers[regOutputEnable], qt.Equals, uint8(0x02))

	c.Assert(d.EnableOutputs(false), qt.IsNil)
	c.Assert(chip.Registers[regOutputEnable], qt.Equals, uint8(0xFF))
	c.Assert(d.EnableOutputs(true), qt.IsNil)
	c.Assert(chip.Registers[regOutputEnable], qt.Equals, uint8(0x00))

	c.Assert(d.EnableOutput(3, true), qt.ErrorIs, ParameterOutOfRange)
}

func TestSpreadSpectrum(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newConfigured(c)
	chip.Registers[regSpreadSpectrum] = 0x13
	c.Assert(d.EnableSpreadSpectrum(true), qt.IsNil)
	c.Assert(chip.Registers[regSpreadSpectrum], qt.Equals, uint8(0x93))
	c.Assert(d.EnableSpreadSpectrum(false), qt.IsNil)
	c.Assert(chip.Registers[regSpreadSpectrum], qt.Equals, uint8(0x13))
}

func TestStatus(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newFake(c)

	chip.Registers[regDeviceStatus] = 0x80
	ok, err := d.Connected()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	chip.Registers[regDeviceStatus] = 0x20
	ok, err = d.Connected()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	st, err := d.Status()
	c.Assert(err, qt.IsNil)
	c.Assert(st.Has(StatusLOLA), qt.IsTrue)
	c.Assert(st.Has(StatusLOLB), qt.IsFalse)
}

func TestBusErrors(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newConfigured(c)
	c.Assert(d.SetupPLLInt(PLLA, 30), qt.IsNil)

	nack := errors.New("i2c: no ack")
	chip.Err = nack

	for name, err := range map[string]error{
		"pll":        d.SetupPLLInt(PLLB, 30),
		"outputs":    d.EnableOutputs(true),
		"rdiv":       d.SetupRDiv(0, Div4),
		"status":     func() error { _, err := d.Status(); return err }(),
		"registers":  d.ReadRegisters(0, make([]byte, 4)),
		"spread":     d.EnableSpreadSpectrum(true),
		"loadregs":   d.LoadRegisters(ClockBuilderDefaults()...),
		"single out": d.EnableOutput(0, true),
	} {
		c.Check(err, qt.ErrorIs, BusTransactionFailed, qt.Commentf("%s", name))
		c.Check(err, qt.ErrorIs, nack, qt.Commentf("%s", name))
		c.Check(Of(err), qt.Equals, BusTransactionFailed, qt.Commentf("%s", name))
	}

	// a failed bring-up leaves the device unconfigured
	c.Assert(d.Configure(), qt.ErrorIs, BusTransactionFailed)
	c.Assert(d.Initialized(), qt.IsFalse)
}

func TestErrorText(t *testing.T) {
	c := qt.New(t)
	err := outOfRange("setup pll", "multiplier must be 15..90")
	c.Assert(err, qt.ErrorMatches, `si5351: setup pll: parameter_out_of_range: multiplier must be 15..90`)
	c.Assert(Of(nil), qt.Equals, OK)
	c.Assert(Of(PrerequisiteNotMet), qt.Equals, PrerequisiteNotMet)
	c.Assert(Of(errors.New("timeout")), qt.Equals, BusTransactionFailed)
}

func TestReadRegisters(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newFake(c)
	copy(chip.Registers[40:], []byte{1, 2, 3, 4})
	buf := make([]byte, 4)
	c.Assert(d.ReadRegisters(40, buf), qt.IsNil)
	c.Assert(buf, qt.DeepEquals, []byte{1, 2, 3, 4})
	c.Assert(d.ReadRegisters(250, make([]byte, 8)), qt.ErrorIs, ParameterOutOfRange)
}

func TestLoadRegisters(t *testing.T) {
	c := qt.New(t)
	d, chip, rec := newConfigured(c)
	c.Assert(d.SetupPLLInt(PLLA, 30), qt.IsNil)
	c.Assert(d.SetupRDiv(0, Div8), qt.IsNil)
	rec.reset()

	blocks := ClockBuilderDefaults()
	c.Assert(blocks, qt.HasLen, 2)
	c.Assert(blocks[0].Data, qt.HasLen, 78)
	c.Assert(blocks[1].Data, qt.HasLen, 22)
	c.Assert(d.LoadRegisters(blocks...), qt.IsNil)

	w := rec.writes()
	c.Assert(w, qt.HasLen, 5)
	c.Assert(w[0].w, qt.DeepEquals, []byte{regOutputEnable, 0xFF})
	c.Assert(w[1].w[0], qt.Equals, uint8(15))
	c.Assert(w[2].w[0], qt.Equals, uint8(149))
	c.Assert(w[3].w, qt.DeepEquals, []byte{regPLLReset, 0xAC})
	c.Assert(w[4].w, qt.DeepEquals, []byte{regOutputEnable, 0x00})

	c.Assert(chip.Registers[16:19], qt.DeepEquals, []byte{0x4F, 0x4F, 0x6F})
	c.Assert(chip.Registers[regPLLAParameters:regPLLAParameters+8], qt.DeepEquals,
		[]byte{0x00, 0x05, 0x00, 0x0C, 0x66, 0x00, 0x00, 0x02})
	_, ok := d.PLLFrequency(PLLA)
	c.Assert(ok, qt.IsFalse)
	bits, _ := d.RDivBits(0)
	c.Assert(bits, qt.Equals, uint8(0))

	// the built-in tables are not shared
	blocks[0].Data[0] = 0xEE
	c.Assert(ClockBuilderDefaults()[0].Data[0], qt.Equals, uint8(0))

	c.Assert(d.LoadRegisters(Block{Start: 250, Data: make([]byte, 10)}), qt.ErrorIs, ParameterOutOfRange)
}
