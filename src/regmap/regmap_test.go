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

package regmap

import (
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"tinygo.org/x/drivers/tester"

	"si5351/src/si5351"
)

func newDevice(c *qt.C, cfg si5351.Config) (*si5351.Device, *tester.I2CDevice8) {
	bus := tester.NewI2CBus(c)
	chip := bus.NewDevice(si5351.AddressDefault)
	dev := si5351.New(bus, cfg)
	c.Assert(dev.Configure(), qt.IsNil)
	return dev, chip
}

func TestBlocks(t *testing.T) {
	c := qt.New(t)
	p := &Profile{Registers: []Register{
		{Addr: 28, Value: 3}, {Addr: 26, Value: 1}, {Addr: 27, Value: 2},
		{Addr: 149, Value: 9},
	}}
	blocks, err := p.Blocks()
	c.Assert(err, qt.IsNil)
	c.Assert(blocks, qt.DeepEquals, []si5351.Block{
		{Start: 26, Data: []byte{1, 2, 3}},
		{Start: 149, Data: []byte{9}},
	})

	p.Registers = append(p.Registers, Register{Addr: 27, Value: 5})
	_, err = p.Blocks()
	c.Assert(err, qt.ErrorMatches, "register 27 appears more than once")
}

func TestClockBuilderProfile(t *testing.T) {
	c := qt.New(t)
	p := FromClockBuilder()
	c.Assert(p.Registers, qt.HasLen, 78+22)
	blocks, err := p.Blocks()
	c.Assert(err, qt.IsNil)
	c.Assert(blocks, qt.DeepEquals, si5351.ClockBuilderDefaults())
}

func TestDumpApply(t *testing.T) {
	c := qt.New(t)
	src, srcChip := newDevice(c, si5351.DefaultConfig())
	c.Assert(src.SetFreq(0, si5351.PLLA, 12_288_000), qt.IsNil)

	p, err := Dump(src, "audio")
	c.Assert(err, qt.IsNil)
	c.Assert(p.CrystalHz, qt.Equals, uint32(25_000_000))
	c.Assert(p.Registers, qt.HasLen, 78+22)

	path := filepath.Join(c.TempDir(), "profiles", "audio.json")
	c.Assert(SaveToFile(p, path), qt.IsNil)
	back, err := LoadFromFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(back.Name, qt.Equals, "audio")
	c.Assert(back.Registers, qt.DeepEquals, p.Registers)

	dst, dstChip := newDevice(c, si5351.DefaultConfig())
	c.Assert(Apply(dst, back), qt.IsNil)
	c.Assert(dstChip.Registers[15:93], qt.DeepEquals, srcChip.Registers[15:93])
	c.Assert(dstChip.Registers[3], qt.Equals, uint8(0))

	other, _ := newDevice(c, si5351.Config{Crystal: si5351.Crystal27MHz})
	c.Assert(Apply(other, back), qt.ErrorMatches, "profile is for a 25000000 Hz crystal, device has 27000000 Hz")
}

func TestLoadMissing(t *testing.T) {
	c := qt.New(t)
	_, err := LoadFromFile(filepath.Join(c.TempDir(), "nope.json"))
	c.Assert(err, qt.ErrorMatches, "failed to read file: .*")
}
