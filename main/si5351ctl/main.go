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

//go:build linux

// si5351ctl programs an Si5351 from a Linux host, either on an i2c-dev
// adapter or through an MCP2221A USB bridge.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/gousb"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"tinygo.org/x/drivers"

	"si5351/src/console"
	"si5351/src/linuxbus"
	"si5351/src/si5351"
	"si5351/src/usbbridge"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "si5351ctl:", err)
		if errors.Is(err, console.ErrUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	flag, args := flags.New(args, "-v", "-usb", "-h")
	parm, args := parseParms(args)
	if flag.ByName["-h"] {
		fmt.Println(usage)
		return nil
	}
	cfg, opt, err := parseConfig(parm)
	if err != nil {
		return err
	}

	bus, closer, err := openBus(flag.ByName["-usb"], opt.bus)
	if err != nil {
		return err
	}
	defer closer()

	dev := si5351.New(bus, cfg)
	if ok, err := dev.Connected(); err != nil {
		return fmt.Errorf("no answer at 0x%02x: %w", cfg.Address, err)
	} else if !ok {
		log.Print("warn", "si5351 still in power-up calibration")
	}
	if flag.ByName["-v"] {
		log.Printf("info", "si5351 at 0x%02x, crystal %d Hz", cfg.Address, dev.Crystal())
	}

	con := console.New(dev, os.Stdout)
	switch {
	case len(args) > 0:
		return con.Exec(strings.Join(quote(args), " "))
	case opt.script != "":
		f, err := os.Open(opt.script)
		if err != nil {
			return err
		}
		defer f.Close()
		return con.Run(f)
	default:
		return interactive(con, os.Stdin)
	}
}

// openBus returns the transport and a function that releases it.
func openBus(usb bool, index int) (drivers.I2C, func(), error) {
	if usb {
		ctx := gousb.NewContext()
		b, err := usbbridge.Open(ctx, 0, 0)
		if err != nil {
			ctx.Close()
			return nil, nil, err
		}
		return b, func() {
			b.Close()
			ctx.Close()
		}, nil
	}
	b, err := linuxbus.Open(index)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { b.Close() }, nil
}

// interactive keeps going after a failed command, where a script stops.
func interactive(con *console.Console, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if err := con.Exec(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			log.Print("err", line, ": ", err)
		}
	}
	return scanner.Err()
}

// quote puts arguments back together so shlex splits them the same way.
func quote(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"'#") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		out[i] = a
	}
	return out
}
