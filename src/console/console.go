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
Package console runs line oriented commands against an Si5351, either typed
one at a time or from a script:

	init
	freq 0 A 12.288M      # set_freq through PLL A
	exact 1 B 14.0971M    # fractional PLL and multisynth
	outputs on

Lines are split like a shell would split them, so quoting works and
anything after # is ignored.
*/
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/shlex"

	"si5351/src/si5351"
)

// ErrUsage is wrapped by every argument parsing failure.
var ErrUsage = errors.New("usage")

type command struct {
	args string
	help string
	run  func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"init":     {"", "run the bring-up sequence", (*Console).cmdInit},
		"freq":     {"CH PLL HZ", "set an output with an integer multisynth", (*Console).cmdFreq},
		"exact":    {"CH PLL HZ", "set an output with fractional dividers", (*Console).cmdExact},
		"plan":     {"HZ", "show the dividers freq would use", (*Console).cmdPlan},
		"pll":      {"PLL MULT [NUM DEN]", "program a PLL feedback divider", (*Console).cmdPLL},
		"ms":       {"CH PLL DIV [NUM DEN]", "program a multisynth divider", (*Console).cmdMS},
		"rdiv":     {"CH 1|2|4|...|128", "set an output R divider", (*Console).cmdRDiv},
		"outputs":  {"on|off", "enable or disable all outputs", (*Console).cmdOutputs},
		"output":   {"CH on|off", "enable or disable one output", (*Console).cmdOutput},
		"ss":       {"on|off", "spread spectrum enable", (*Console).cmdSpread},
		"status":   {"", "show the status register", (*Console).cmdStatus},
		"defaults": {"", "load the built-in ClockBuilder map", (*Console).cmdDefaults},
		"load":     {"FILE", "load a register map profile", (*Console).cmdLoad},
		"dump":     {"[FILE]", "print or save the register map", (*Console).cmdDump},
		"ppb":      {"[N]", "show or set the crystal correction", (*Console).cmdPPB},
		"help":     {"", "list commands", (*Console).cmdHelp},
	}
}

// Console executes commands against one device. It is not safe for
// concurrent use, same as the Device.
type Console struct {
	dev *si5351.Device
	out io.Writer
}

func New(dev *si5351.Device, out io.Writer) *Console {
	return &Console{dev: dev, out: out}
}

// Exec runs a single line. Blank lines and comments do nothing.
func (c *Console) Exec(line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(words) == 0 {
		return nil
	}
	cmd, ok := commands[strings.ToLower(words[0])]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, words[0])
	}
	return cmd.run(c, words[1:])
}

// Run executes a script, stopping at the first failing line.
func (c *Console) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		if err := c.Exec(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

func (c *Console) cmdHelp(args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(c.out, "%-8s %-22s %s\n", name, cmd.args, cmd.help)
	}
	return nil
}

func usage(name string) error {
	return fmt.Errorf("%w: %s %s", ErrUsage, name, commands[name].args)
}
