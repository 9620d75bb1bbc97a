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

// Calibration firmware: put a known frequency on CLK0, count it against GPS
// PPS, work out the crystal error and reprogram with the correction.
package main

import (
	"errors"
	"fmt"
	"machine"
	"time"

	"si5351/src/freqcount"
	"si5351/src/si5351"
)

const (
	target = 10_000_000
	// gate time per round, seconds
	gate   = 20
	rounds = 4
)

func main() {
	time.Sleep(1000 * time.Millisecond)

	dev, err := setupClock()
	if err != nil {
		fmt.Printf("clock setup failed: %v\n", err)
		machine.EnterBootloader()
	}
	counter, err := freqcount.Setup()
	if err != nil {
		fmt.Printf("counter setup failed: %v\n", err)
		machine.EnterBootloader()
	}

	for round := 0; round < rounds; round++ {
		p, err := si5351.PlanFreq(dev.Crystal(), target)
		if err != nil {
			fmt.Printf("plan: %v\n", err)
			break
		}
		fmt.Printf("round %d: crystal %d Hz (%+d ppb), %v\n",
			round, dev.Crystal(), dev.Config().CorrectionPPB, p)

		f, err := measure(counter)
		if err != nil {
			fmt.Printf("measure: %v\n", err)
			continue
		}
		cfg := dev.Config()
		ppb := freqcount.Correction(p.Output(), f, dev.Crystal(), uint32(cfg.Crystal))
		fmt.Printf("   f = %.3f Hz, error %+.3f Hz, crystal correction %+d ppb\n", f, f-p.Output(), ppb)

		if err := dev.SetCorrection(ppb); err != nil {
			fmt.Printf("correction: %v\n", err)
			break
		}
		if err := dev.SetFreq(0, si5351.PLLA, target); err != nil {
			fmt.Printf("set freq: %v\n", err)
			break
		}
	}
	fmt.Printf("final correction %+d ppb\n", dev.Config().CorrectionPPB)
	for {
		time.Sleep(time.Hour)
	}
}

func setupClock() (*si5351.Device, error) {
	err := machine.I2C0.Configure(machine.I2CConfig{})
	if err != nil {
		return nil, err
	}

	dev := si5351.New(machine.I2C0, si5351.DefaultConfig())
	connected, err := dev.Connected()
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, errors.New("si5351 still in power-up calibration")
	}
	if err := dev.Configure(); err != nil {
		return nil, err
	}
	if err := dev.SetFreq(0, si5351.PLLA, target); err != nil {
		return nil, err
	}
	if err := dev.EnableOutputs(true); err != nil {
		return nil, err
	}
	vco, _ := dev.PLLFrequency(si5351.PLLA)
	fmt.Printf("PLL A frequency: %.1f kHz\n", float64(vco)/1e3)
	return dev, nil
}

// measure counts CLK0 over one gate.
func measure(counter *freqcount.Counter) (float64, error) {
	e := freqcount.NewEstimator()
	missedSamples := 0
	for e.Seconds() < gate {
		s, err := counter.Wait(2 * time.Second)
		if err != nil {
			missedSamples++
			if missedSamples > 5 {
				return 0, err
			}
			fmt.Printf("timeout %d\n", missedSamples)
			continue
		}
		missedSamples = 0
		switch err := e.Add(s); err {
		case nil:
		case freqcount.ErrGlitch, freqcount.ErrGap:
			fmt.Printf("   %v\n", err)
		default:
			return 0, err
		}
		if s.B1 != s.B2 {
			fmt.Printf("   b1,a1,b2,a2 = %d, %d, %d, %d\n", s.B1, s.A1, s.B2, s.A2)
		}
	}
	f, _ := e.Frequency()
	return f, nil
}
