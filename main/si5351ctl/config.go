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
	"fmt"
	"strconv"

	"github.com/platinasystems/parms"

	"si5351/src/si5351"
)

const usage = `usage: si5351ctl [-v] [-usb] [-bus N] [-addr ADDR] [-xtal HZ] [-load PF]
                 [-ppb N] [-f SCRIPT] [COMMAND [ARG]...]

With a COMMAND, run it and exit. With -f, run the script. Otherwise read
commands from stdin. "help" lists the commands.`

// parseParms pulls the options that take a value out of args.
func parseParms(args []string) (*parms.Parms, []string) {
	return parms.New(args, "-bus", "-addr", "-xtal", "-load", "-ppb", "-f")
}

// options is what the command line selects besides the chip configuration.
type options struct {
	bus    int
	script string
}

func parseConfig(parm *parms.Parms) (si5351.Config, options, error) {
	cfg := si5351.DefaultConfig()
	var opt options

	if s := parm.ByName["-bus"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return cfg, opt, fmt.Errorf("-bus %q: not a bus number", s)
		}
		opt.bus = n
	}
	if s := parm.ByName["-addr"]; s != "" {
		n, err := strconv.ParseUint(s, 0, 7)
		if err != nil {
			return cfg, opt, fmt.Errorf("-addr %q: not a 7 bit address", s)
		}
		cfg.Address = uint16(n)
	}
	if s := parm.ByName["-xtal"]; s != "" {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return cfg, opt, fmt.Errorf("-xtal %q: %w", s, err)
		}
		cfg.Crystal = si5351.CrystalFreq(n)
	}
	if s := parm.ByName["-load"]; s != "" {
		switch s {
		case "6":
			cfg.Load = si5351.Load6PF
		case "8":
			cfg.Load = si5351.Load8PF
		case "10":
			cfg.Load = si5351.Load10PF
		default:
			return cfg, opt, fmt.Errorf("-load %q: must be 6, 8 or 10", s)
		}
	}
	if s := parm.ByName["-ppb"]; s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return cfg, opt, fmt.Errorf("-ppb %q: %w", s, err)
		}
		cfg.CorrectionPPB = int32(n)
	}
	opt.script = parm.ByName["-f"]
	return cfg, opt, cfg.Validate()
}
