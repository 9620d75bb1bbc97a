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

package main

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"si5351/src/si5351"
)

func TestParseConfig(t *testing.T) {
	c := qt.New(t)
	parm, rest := parseParms([]string{"-bus", "3", "-addr", "0x62", "-xtal", "27000000",
		"-load", "8", "-ppb", "-1500", "freq", "0", "A", "10M"})
	c.Assert(rest, qt.DeepEquals, []string{"freq", "0", "A", "10M"})

	cfg, opt, err := parseConfig(parm)
	c.Assert(err, qt.IsNil)
	c.Assert(opt.bus, qt.Equals, 3)
	c.Assert(cfg, qt.Equals, si5351.Config{
		Address:       0x62,
		Crystal:       si5351.Crystal27MHz,
		Load:          si5351.Load8PF,
		CorrectionPPB: -1500,
	})
}

func TestParseConfigDefaults(t *testing.T) {
	c := qt.New(t)
	parm, _ := parseParms(nil)
	cfg, opt, err := parseConfig(parm)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.Equals, si5351.DefaultConfig())
	c.Assert(opt, qt.Equals, options{})
}

func TestParseConfigErrors(t *testing.T) {
	c := qt.New(t)
	for _, args := range [][]string{
		{"-bus", "x"},
		{"-addr", "0x80"},
		{"-xtal", "lots"},
		{"-xtal", "26000000"},
		{"-load", "7"},
		{"-ppb", "5000000"},
	} {
		parm, _ := parseParms(args)
		_, _, err := parseConfig(parm)
		c.Check(err, qt.Not(qt.IsNil), qt.Commentf("%v", args))
	}
}
