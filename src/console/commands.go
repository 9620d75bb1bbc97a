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

package console

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"si5351/src/regmap"
	"si5351/src/si5351"
)

func (c *Console) cmdInit(args []string) error {
	if len(args) != 0 {
		return usage("init")
	}
	return c.dev.Configure()
}

func (c *Console) cmdFreq(args []string) error {
	if len(args) != 3 {
		return usage("freq")
	}
	ch, pll, err := channelAndPLL(args[0], args[1])
	if err != nil {
		return err
	}
	hz, err := parseWholeHz("freq", args[2])
	if err != nil {
		return err
	}
	if err := c.dev.SetFreq(ch, pll, hz); err != nil {
		return err
	}
	vco, _ := c.dev.PLLFrequency(pll)
	fmt.Fprintf(c.out, "clk%d: %d Hz from PLL %v at %d Hz\n", ch, hz, pll, vco)
	return nil
}

func (c *Console) cmdExact(args []string) error {
	if len(args) != 3 {
		return usage("exact")
	}
	ch, pll, err := channelAndPLL(args[0], args[1])
	if err != nil {
		return err
	}
	hz, err := parseHz(args[2])
	if err != nil {
		return err
	}
	if err := c.dev.SetFreqExact(ch, pll, hz); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "clk%d: %.3f Hz from PLL %v\n", ch, hz, pll)
	return nil
}

func (c *Console) cmdPlan(args []string) error {
	if len(args) != 1 {
		return usage("plan")
	}
	hz, err := parseWholeHz("plan", args[0])
	if err != nil {
		return err
	}
	p, err := si5351.PlanFreq(c.dev.Crystal(), hz)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, p)
	return nil
}

func (c *Console) cmdPLL(args []string) error {
	if len(args) != 2 && len(args) != 4 {
		return usage("pll")
	}
	pll, err := parsePLL(args[0])
	if err != nil {
		return err
	}
	v, err := parseUints(args[1:])
	if err != nil {
		return err
	}
	if len(v) == 1 {
		v = append(v, 0, 1)
	}
	return c.dev.SetupPLL(pll, v[0], v[1], v[2])
}

func (c *Console) cmdMS(args []string) error {
	if len(args) != 3 && len(args) != 5 {
		return usage("ms")
	}
	ch, pll, err := channelAndPLL(args[0], args[1])
	if err != nil {
		return err
	}
	v, err := parseUints(args[2:])
	if err != nil {
		return err
	}
	if len(v) == 1 {
		v = append(v, 0, 1)
	}
	return c.dev.SetupMultisynth(ch, pll, v[0], v[1], v[2])
}

func (c *Console) cmdRDiv(args []string) error {
	if len(args) != 2 {
		return usage("rdiv")
	}
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	v, err := parseUints(args[1:])
	if err != nil {
		return err
	}
	r, err := si5351.MinDivider(v[0])
	if err != nil {
		return err
	}
	if r.Divisor() != v[0] {
		return fmt.Errorf("%w: R divider must be a power of two up to 128, got %d", ErrUsage, v[0])
	}
	return c.dev.SetupRDiv(ch, r)
}

func (c *Console) cmdOutputs(args []string) error {
	if len(args) != 1 {
		return usage("outputs")
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	return c.dev.EnableOutputs(on)
}

func (c *Console) cmdOutput(args []string) error {
	if len(args) != 2 {
		return usage("output")
	}
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	on, err := parseOnOff(args[1])
	if err != nil {
		return err
	}
	return c.dev.EnableOutput(ch, on)
}

func (c *Console) cmdSpread(args []string) error {
	if len(args) != 1 {
		return usage("ss")
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	return c.dev.EnableSpreadSpectrum(on)
}

func (c *Console) cmdStatus(args []string) error {
	st, err := c.dev.Status()
	if err != nil {
		return err
	}
	var flags []string
	for _, f := range []struct {
		bit  si5351.StatusBits
		name string
	}{
		{si5351.StatusSysInit, "SYS_INIT"},
		{si5351.StatusLOLB, "LOL_B"},
		{si5351.StatusLOLA, "LOL_A"},
		{si5351.StatusLOS, "LOS"},
	} {
		if st.Has(f.bit) {
			flags = append(flags, f.name)
		}
	}
	if len(flags) == 0 {
		flags = append(flags, "ok")
	}
	fmt.Fprintf(c.out, "status 0x%02x %s\n", uint8(st), strings.Join(flags, " "))
	for _, p := range []si5351.PLL{si5351.PLLA, si5351.PLLB} {
		if vco, ok := c.dev.PLLFrequency(p); ok {
			fmt.Fprintf(c.out, "pll %v: %d Hz\n", p, vco)
		}
	}
	return nil
}

func (c *Console) cmdDefaults(args []string) error {
	return c.dev.LoadRegisters(si5351.ClockBuilderDefaults()...)
}

func (c *Console) cmdLoad(args []string) error {
	if len(args) != 1 {
		return usage("load")
	}
	p, err := regmap.LoadFromFile(args[0])
	if err != nil {
		return err
	}
	return regmap.Apply(c.dev, p)
}

func (c *Console) cmdDump(args []string) error {
	if len(args) > 1 {
		return usage("dump")
	}
	p, err := regmap.Dump(c.dev, "")
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return regmap.SaveToFile(p, args[0])
	}
	for i, r := range p.Registers {
		if i > 0 && p.Registers[i-1].Addr+1 != r.Addr {
			fmt.Fprintln(c.out)
		}
		fmt.Fprintf(c.out, "%3d: 0x%02x\n", r.Addr, r.Value)
	}
	return nil
}

func (c *Console) cmdPPB(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		ppb, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: bad correction %q", ErrUsage, args[0])
		}
		if err := c.dev.SetCorrection(int32(ppb)); err != nil {
			return err
		}
	default:
		return usage("ppb")
	}
	fmt.Fprintf(c.out, "crystal %d Hz (%+d ppb)\n", c.dev.Crystal(), c.dev.Config().CorrectionPPB)
	return nil
}

func channelAndPLL(ch, pll string) (int, si5351.PLL, error) {
	n, err := parseChannel(ch)
	if err != nil {
		return 0, 0, err
	}
	p, err := parsePLL(pll)
	return n, p, err
}

func parseChannel(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(s), "clk"))
	if err != nil || n < 0 || n >= si5351.NumOutputs {
		return 0, fmt.Errorf("%w: output must be 0, 1 or 2, got %q", ErrUsage, s)
	}
	return n, nil
}

func parsePLL(s string) (si5351.PLL, error) {
	switch strings.ToUpper(s) {
	case "A":
		return si5351.PLLA, nil
	case "B":
		return si5351.PLLB, nil
	}
	return 0, fmt.Errorf("%w: pll must be A or B, got %q", ErrUsage, s)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", ErrUsage, s)
}

func parseUints(args []string) ([]uint32, error) {
	v := make([]uint32, len(args))
	for i, s := range args {
		n, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrUsage, s)
		}
		v[i] = uint32(n)
	}
	return v, nil
}

// parseHz accepts plain Hz or a k, M or G suffix: 12288000, 12.288M, 10kHz.
// parseWholeHz is parseHz for the integer planner.
func parseWholeHz(cmd, s string) (uint32, error) {
	hz, err := parseHz(s)
	if err != nil {
		return 0, err
	}
	if hz != math.Trunc(hz) || hz > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s needs a whole number of Hz, got %s", ErrUsage, cmd, s)
	}
	return uint32(hz), nil
}

func parseHz(s string) (float64, error) {
	num := strings.TrimSuffix(strings.TrimSuffix(s, "Hz"), "hz")
	scale := 1.0
	if n := len(num); n > 0 {
		switch num[n-1] {
		case 'k', 'K':
			scale = 1e3
		case 'M':
			scale = 1e6
		case 'G':
			scale = 1e9
		}
		if scale != 1 {
			num = num[:n-1]
		}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: bad frequency %q", ErrUsage, s)
	}
	return math.Round(v*scale*1000) / 1000, nil
}
