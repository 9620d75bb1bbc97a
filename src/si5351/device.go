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
Package si5351 plans output frequencies for an Si5351A clock generator and
programs its registers.

Everything goes through a Device which owns the chip state the planner needs:
whether bring-up has run, which PLLs are configured and at what VCO frequency,
and the R divider bits last written to each output. The bus is any
tinygo.org/x/drivers I2C implementation (machine.I2C0 on a microcontroller,
linuxbus or usbbridge on a host, tester.I2CBus in tests).

A typical session is

	dev := si5351.New(bus, si5351.DefaultConfig())
	err := dev.Configure()
	err = dev.SetFreq(0, si5351.PLLA, 12_288_000)
	err = dev.EnableOutputs(true)

A Device is not safe for concurrent use. Multi-register sequences are not
atomic: a bus failure part way through leaves earlier registers written and
the caller has to run the whole sequence again.
*/
package si5351

import (
	"tinygo.org/x/drivers"
)

// Config holds the board level settings fixed at bring-up.
type Config struct {
	// Address defaults to AddressDefault if zero.
	Address uint16
	// Crystal defaults to 25 MHz if zero.
	Crystal CrystalFreq
	// Load defaults to 10 pF if zero.
	Load CrystalLoad
	// CorrectionPPB is the measured crystal error in parts per billion. The
	// planner works from the corrected crystal frequency.
	CorrectionPPB int32
}

// DefaultConfig matches the common Adafruit breakout.
func DefaultConfig() Config {
	return Config{
		Address: AddressDefault,
		Crystal: Crystal25MHz,
		Load:    Load10PF,
	}
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch c.Crystal {
	case 0, Crystal25MHz, Crystal27MHz:
	default:
		return outOfRange("config", "crystal must be 25 or 27 MHz")
	}
	switch c.Load {
	case 0, Load6PF, Load8PF, Load10PF:
	default:
		return outOfRange("config", "load must be 6, 8 or 10 pF")
	}
	if c.CorrectionPPB > maxCorrectionPPB || c.CorrectionPPB < -maxCorrectionPPB {
		return outOfRange("config", "crystal correction beyond 1000 ppm")
	}
	return nil
}

const maxCorrectionPPB = 1_000_000

type pllState struct {
	configured bool
	vco        uint32
}

// Device is one Si5351 on a bus.
type Device struct {
	bus  drivers.I2C
	addr uint16
	cfg  Config

	initialised bool
	pll         [2]pllState
	// R divider bits last written per output; OR'd back in by SetupMultisynth.
	rdiv [NumOutputs]uint8

	// Fixed buffers to avoid per-call heap allocations.
	w [1 + 2*multisynthBlockSize]byte
	r [1]byte
}

// New constructs a Device. It does not touch the bus; call Configure before
// programming anything.
func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = AddressDefault
	}
	if cfg.Crystal == 0 {
		cfg.Crystal = Crystal25MHz
	}
	if cfg.Load == 0 {
		cfg.Load = Load10PF
	}
	return &Device{
		bus:  bus,
		addr: cfg.Address,
		cfg:  cfg,
	}
}

/*
Configure runs the bring-up sequence: all outputs disabled, all eight output
drivers powered down, crystal load capacitance set, spread spectrum off. It
forgets any PLL configuration so it can be used to start over.
*/
func (d *Device) Configure() error {
	if err := d.cfg.Validate(); err != nil {
		return err
	}
	d.initialised = false
	if err := d.write8(regOutputEnable, 0xFF); err != nil {
		return busError("configure", err)
	}
	for i := 0; i < numClockControlRegister; i++ {
		if err := d.write8(regCLK0Control+uint8(i), clkPoweredDown); err != nil {
			return busError("configure", err)
		}
	}
	if err := d.write8(regCrystalLoad, uint8(d.cfg.Load)); err != nil {
		return busError("configure", err)
	}
	if err := d.setSpreadSpectrum(false); err != nil {
		return busError("configure", err)
	}
	d.pll = [2]pllState{}
	d.initialised = true
	return nil
}

// Introspection.
func (d *Device) Initialized() bool { return d.initialised }
func (d *Device) Address() uint16 { return d.addr }
func (d *Device) Config() Config { return d.cfg }

// Crystal returns the crystal frequency the planner uses, with the
// configured correction applied.
func (d *Device) Crystal() uint32 {
	f := int64(d.cfg.Crystal)
	return uint32(f + f*int64(d.cfg.CorrectionPPB)/1_000_000_000)
}

// SetCorrection changes the crystal correction. Frequencies already
// programmed are not recomputed.
func (d *Device) SetCorrection(ppb int32) error {
	if ppb > maxCorrectionPPB || ppb < -maxCorrectionPPB {
		return outOfRange("correction", "crystal correction beyond 1000 ppm")
	}
	d.cfg.CorrectionPPB = ppb
	return nil
}

// RDivBits reports the R divider bits last applied to an output, as they
// sit in the upper nibble of its R divider register.
func (d *Device) RDivBits(ch int) (uint8, bool) {
	if ch < 0 || ch >= NumOutputs {
		return 0, false
	}
	return d.rdiv[ch], true
}

// PLLFrequency reports the VCO frequency recorded by the last SetupPLL.
func (d *Device) PLLFrequency(p PLL) (uint32, bool) {
	if !p.valid() {
		return 0, false
	}
	s := d.pll[p]
	return s.vco, s.configured
}

// Status reads the device status register.
func (d *Device) Status() (StatusBits, error) {
	v, err := d.read8(regDeviceStatus)
	if err != nil {
		return 0, busError("status", err)
	}
	return StatusBits(v), nil
}

// Connected reports whether the chip answers and has finished its power-up
// calibration.
func (d *Device) Connected() (bool, error) {
	st, err := d.Status()
	if err != nil {
		return false, err
	}
	return !st.Has(StatusSysInit), nil
}

// EnableOutputs enables or disables all clock outputs at once.
func (d *Device) EnableOutputs(enabled bool) error {
	if !d.initialised {
		return notReady("enable outputs", "device not configured")
	}
	v := uint8(0xFF)
	if enabled {
		v = 0x00
	}
	if err := d.write8(regOutputEnable, v); err != nil {
		return busError("enable outputs", err)
	}
	return nil
}

// EnableOutput enables or disables a single output. Register 3 is active low.
func (d *Device) EnableOutput(ch int, enabled bool) error {
	if !d.initialised {
		return notReady("enable output", "device not configured")
	}
	if ch < 0 || ch >= NumOutputs {
		return outOfRange("enable output", "output channel must be 0..2")
	}
	bit := uint8(1) << ch
	var set, clear uint8
	if enabled {
		clear = bit
	} else {
		set = bit
	}
	if err := d.modify8(regOutputEnable, set, clear); err != nil {
		return busError("enable output", err)
	}
	return nil
}

// EnableSpreadSpectrum sets or clears the spread spectrum enable bit. The
// spread parameters themselves are left as loaded.
func (d *Device) EnableSpreadSpectrum(enabled bool) error {
	if !d.initialised {
		return notReady("spread spectrum", "device not configured")
	}
	if err := d.setSpreadSpectrum(enabled); err != nil {
		return busError("spread spectrum", err)
	}
	return nil
}

func (d *Device) setSpreadSpectrum(enabled bool) error {
	if enabled {
		return d.modify8(regSpreadSpectrum, spreadSpectrumOn, 0)
	}
	return d.modify8(regSpreadSpectrum, 0, spreadSpectrumOn)
}

// ReadRegisters fills buf from consecutive registers starting at start.
func (d *Device) ReadRegisters(start uint8, buf []byte) error {
	if int(start)+len(buf) > 256 {
		return outOfRange("read registers", "range runs past register 255")
	}
	if err := d.readN(start, buf); err != nil {
		return busError("read registers", err)
	}
	return nil
}
