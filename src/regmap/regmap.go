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

// Package regmap saves and restores complete Si5351 register maps, either
// dumped from a running chip or exported by ClockBuilder Desktop.
package regmap

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"si5351/src/si5351"
)

// Register is one register address and value.
type Register struct {
	Addr  uint8 `json:"addr"`
	Value uint8 `json:"value"`
}

// Profile holds a register map and the crystal it was computed for.
type Profile struct {
	Name          string     `json:"name,omitempty"`
	CrystalHz     uint32     `json:"crystal_hz"`
	CorrectionPPB int32      `json:"correction_ppb,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	Registers     []Register `json:"registers"`
}

// Ranges are the register spans that make up a configuration: clock
// control, PLL and multisynth parameters, then spread spectrum.
var Ranges = [][2]uint8{{15, 92}, {149, 170}}

// FromClockBuilder wraps the built-in ClockBuilder register map.
func FromClockBuilder() *Profile {
	p := &Profile{
		Name:      "clockbuilder",
		CrystalHz: uint32(si5351.Crystal25MHz),
	}
	for _, b := range si5351.ClockBuilderDefaults() {
		p.add(b.Start, b.Data)
	}
	return p
}

// Dump reads the configuration registers from dev.
func Dump(dev *si5351.Device, name string) (*Profile, error) {
	cfg := dev.Config()
	p := &Profile{
		Name:          name,
		CrystalHz:     uint32(cfg.Crystal),
		CorrectionPPB: cfg.CorrectionPPB,
		Timestamp:     time.Now(),
	}
	for _, r := range Ranges {
		buf := make([]byte, int(r[1])-int(r[0])+1)
		if err := dev.ReadRegisters(r[0], buf); err != nil {
			return nil, fmt.Errorf("failed to read registers %d..%d: %w", r[0], r[1], err)
		}
		p.add(r[0], buf)
	}
	return p, nil
}

func (p *Profile) add(start uint8, data []byte) {
	for i, v := range data {
		p.Registers = append(p.Registers, Register{Addr: start + uint8(i), Value: v})
	}
}

// Blocks groups the registers into runs of consecutive addresses.
func (p *Profile) Blocks() ([]si5351.Block, error) {
	regs := append([]Register(nil), p.Registers...)
	sort.Slice(regs, func(i, j int) bool { return regs[i].Addr < regs[j].Addr })

	var blocks []si5351.Block
	for i, r := range regs {
		if i > 0 && regs[i-1].Addr == r.Addr {
			return nil, fmt.Errorf("register %d appears more than once", r.Addr)
		}
		if r.Addr == 255 {
			return nil, errors.New("register 255 is not writable")
		}
		n := len(blocks)
		if n > 0 && int(blocks[n-1].Start)+len(blocks[n-1].Data) == int(r.Addr) {
			blocks[n-1].Data = append(blocks[n-1].Data, r.Value)
			continue
		}
		blocks = append(blocks, si5351.Block{Start: r.Addr, Data: []byte{r.Value}})
	}
	return blocks, nil
}

// Apply writes the profile to dev. The crystal has to match the one the
// device was configured with, since the dividers only make sense for it.
func Apply(dev *si5351.Device, p *Profile) error {
	if want := uint32(dev.Config().Crystal); p.CrystalHz != 0 && p.CrystalHz != want {
		return fmt.Errorf("profile is for a %d Hz crystal, device has %d Hz", p.CrystalHz, want)
	}
	blocks, err := p.Blocks()
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return errors.New("profile has no registers")
	}
	if err := dev.LoadRegisters(blocks...); err != nil {
		return fmt.Errorf("failed to write registers: %w", err)
	}
	return nil
}
