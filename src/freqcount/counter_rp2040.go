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

//go:build rp2040

package freqcount

import (
	"device/rp"
	"errors"
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"si5351/src/machine_x"
	"si5351/src/support"
)

/*
Wiring:

	GPIO1  <- Si5351 CLK0          (PWM0 B input, counted)
	GPIO0  -> GPIO3 jumper         (PWM0 A pulses once per wrap into PWM1 B)
	GPIO10 <- GPS PPS
*/
const (
	ClockPin = machine.GPIO1
	WrapPin  = machine.GPIO0
	CarryPin = machine.GPIO3
	PPSPin   = machine.GPIO10
)

var ErrNoPPS = errors.New("freqcount: no pps edge")

// ppsProgram pushes a word into the RX FIFO on each rising PPS edge:
//
//	wait 0 gpio 10
//	wait 1 gpio 10
//	push noblock
var ppsProgram = []uint16{
	0x2000 | uint16(PPSPin),
	0x2080 | uint16(PPSPin),
	0x8000,
}

// Counter reads the cascaded PWM counters at each PPS edge.
type Counter struct {
	sm pio.StateMachine
}

// Setup starts both PWM slices and the PPS state machine.
func Setup() (*Counter, error) {
	setupFrequencyCounters()

	PPSPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	offset, err := pio.PIO0.AddProgram(ppsProgram, -1)
	if err != nil {
		return nil, err
	}
	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(offset, offset+uint8(len(ppsProgram))-1)
	sm.Init(offset, cfg)
	sm.ClearFIFOs()
	sm.SetEnabled(true)
	return &Counter{sm: sm}, nil
}

func setupFrequencyCounters() {
	machine_x.SetEN_CH(machine_x.PWM_CH0|machine_x.PWM_CH1, 0)

	pwm0 := machine_x.PWM0
	WrapPin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	ClockPin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	pwm0.SetDivMode(rp.PWM_CH0_CSR_DIVMODE_RISE)
	pwm0.SetClockDiv(1, 0)
	// the counter runs 0..TOP inclusive
	pwm0.SetTop(FastCycle - 1)
	pwm0.Set(0, 500)
	pwm0.SetCounter(0)

	pwm1 := machine_x.PWM1
	CarryPin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	pwm1.SetDivMode(rp.PWM_CH0_CSR_DIVMODE_RISE)
	pwm1.SetClockDiv(1, 0)
	pwm1.SetTop(SlowCycle - 1)
	pwm1.SetCounter(0)

	// start both in the same cycle
	machine_x.SetEN_CH(machine_x.PWM_CH0|machine_x.PWM_CH1, 1)
}

// Wait blocks until the next PPS edge and samples the counters. The FIFO
// is polled, so the sample lands a few hundred ns after the edge with a
// spread of a microsecond or so when interrupts get in the way.
func (c *Counter) Wait(timeout time.Duration) (Sample, error) {
	deadline := MicroTime() + uint64(timeout.Microseconds())
	for c.sm.IsRxFIFOEmpty() {
		if MicroTime() > deadline {
			return Sample{}, ErrNoPPS
		}
	}
	s := Sample{
		B1: machine_x.PWM1.Counter(),
		A1: machine_x.PWM0.Counter(),
		B2: machine_x.PWM1.Counter(),
		A2: machine_x.PWM0.Counter(),
	}
	s.T = MicroTime()
	c.sm.RxGet()
	// A backlog means edges were missed; the estimator sorts that out by time.
	for !c.sm.IsRxFIFOEmpty() {
		c.sm.RxGet()
	}
	s.Reduce()
	return s, nil
}

// MicroTime reads the 64 bit microsecond timer.
func MicroTime() uint64 {
	tx := rp.TIMER
	th1, tl1, th2, tl2 := tx.TIMERAWH.Get(), tx.TIMERAWL.Get(), tx.TIMERAWH.Get(), tx.TIMERAWL.Get()
	return support.ReduceObservation(1<<32, th1, tl1, th2, tl2)
}
