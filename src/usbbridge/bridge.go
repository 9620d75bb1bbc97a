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

package usbbridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// exchanger sends one report and returns the reply.
type exchanger interface {
	exchange(cmd, rsp *report) error
}

// hid is the MCP2221A's HID interface.
type hid struct {
	epIn    *gousb.InEndpoint
	epOut   *gousb.OutEndpoint
	timeout time.Duration
}

func (h *hid) exchange(cmd, rsp *report) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if _, err := h.epOut.WriteContext(ctx, cmd[:]); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	n, err := h.epIn.ReadContext(ctx, rsp[:])
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short report: %d bytes", n)
	}
	return nil
}

// Bridge implements tinygo.org/x/drivers.I2C on an MCP2221A.
type Bridge struct {
	x exchanger

	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface

	// Status polls per transfer before giving up.
	Polls int

	cmd, rsp report
}

// Open claims the first MCP2221A with the given ids. Zero ids mean the
// factory defaults.
func Open(ctx *gousb.Context, vid, pid gousb.ID) (*Bridge, error) {
	if vid == 0 {
		vid = VendorID
	}
	if pid == 0 {
		pid = ProductID
	}
	usbDev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open device: %w", err)
	}
	if usbDev == nil {
		return nil, fmt.Errorf("no MCP2221A at %v:%v", vid, pid)
	}

	// The HID interface is normally held by the kernel driver.
	usbDev.SetAutoDetach(true)

	config, err := usbDev.Config(1)
	if err != nil {
		usbDev.Close()
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	// Interfaces 0 and 1 are the CDC serial port.
	iface, err := config.Interface(2, 0)
	if err != nil {
		config.Close()
		usbDev.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}
	epIn, err := iface.InEndpoint(3)
	if err != nil {
		iface.Close()
		config.Close()
		usbDev.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}
	epOut, err := iface.OutEndpoint(3)
	if err != nil {
		iface.Close()
		config.Close()
		usbDev.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	b := newBridge(&hid{epIn: epIn, epOut: epOut, timeout: 500 * time.Millisecond})
	b.usbDevice = usbDev
	b.usbConfig = config
	b.usbInterface = iface

	// A transfer aborted by a previous session leaves the engine stuck.
	if err := b.cancel(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func newBridge(x exchanger) *Bridge {
	return &Bridge{x: x, Polls: 50}
}

func (b *Bridge) Close() error {
	if b.usbInterface != nil {
		b.usbInterface.Close()
	}
	if b.usbConfig != nil {
		b.usbConfig.Close()
	}
	if b.usbDevice != nil {
		return b.usbDevice.Close()
	}
	return nil
}

// SetSpeed sets the I2C clock. The chip powers up at 100 kHz.
func (b *Bridge) SetSpeed(hz uint32) error {
	div, err := speedDivider(hz)
	if err != nil {
		return err
	}
	b.cmd = statusCommand(false, div)
	return b.exchange()
}

/*
Tx writes w to addr and then, if r is not empty, reads len(r) bytes with a
repeated start. The first byte of w is the register address. Transfers
longer than one report are split with the register address advanced.
*/
func (b *Bridge) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 {
		return errors.New("usbbridge: transaction needs a register address")
	}
	if len(r) == 0 {
		return b.write(addr, w[0], w[1:])
	}
	if len(w) != 1 {
		return errors.New("usbbridge: combined write and read must write only the register address")
	}
	return b.read(addr, w[0], r)
}

func (b *Bridge) write(addr uint16, reg uint8, data []byte) error {
	var buf [chunkSize]byte
	for {
		n := min(len(data), chunkSize-1)
		buf[0] = reg
		copy(buf[1:], data[:n])
		b.cmd = transferCommand(cmdWrite, addr, n+1, buf[:n+1])
		if err := b.transfer(); err != nil {
			return err
		}
		reg += uint8(n)
		data = data[n:]
		if len(data) == 0 {
			return nil
		}
	}
}

func (b *Bridge) read(addr uint16, reg uint8, buf []byte) error {
	for len(buf) > 0 {
		n := min(len(buf), chunkSize)
		b.cmd = transferCommand(cmdWriteNoStop, addr, 1, []byte{reg})
		if err := b.transfer(); err != nil {
			return err
		}
		b.cmd = transferCommand(cmdReadRepeatStart, addr, n, nil)
		if err := b.exchange(); err != nil {
			return err
		}
		if err := b.getData(buf[:n]); err != nil {
			return err
		}
		reg += uint8(n)
		buf = buf[n:]
	}
	return nil
}

func (b *Bridge) getData(buf []byte) error {
	for i := 0; i < b.Polls; i++ {
		b.cmd = report{cmdGetData}
		if err := b.x.exchange(&b.cmd, &b.rsp); err != nil {
			return err
		}
		if b.rsp[1] == getDataError || b.rsp[3] == readLengthBad {
			// Data not ready yet, or the read was refused.
			if err := b.status(); err != nil {
				return err
			}
			continue
		}
		if int(b.rsp[3]) != len(buf) {
			return fmt.Errorf("usbbridge: read returned %d bytes, wanted %d", b.rsp[3], len(buf))
		}
		copy(buf, b.rsp[4:4+len(buf)])
		return nil
	}
	return ErrTimeout
}

// transfer sends b.cmd and waits for the I2C engine to finish with it.
func (b *Bridge) transfer() error {
	if err := b.exchange(); err != nil {
		return err
	}
	for i := 0; i < b.Polls; i++ {
		b.cmd = statusCommand(false, 0)
		if err := b.exchange(); err != nil {
			return err
		}
		if nacked(&b.rsp) {
			if err := b.cancel(); err != nil {
				return err
			}
			return ErrNACK
		}
		if b.rsp[8] == stateIdle {
			return nil
		}
	}
	b.cancel()
	return ErrTimeout
}

// status polls the engine, failing on a NACK.
func (b *Bridge) status() error {
	b.cmd = statusCommand(false, 0)
	if err := b.exchange(); err != nil {
		return err
	}
	if nacked(&b.rsp) {
		if err := b.cancel(); err != nil {
			return err
		}
		return ErrNACK
	}
	return nil
}

func (b *Bridge) cancel() error {
	b.cmd = statusCommand(true, 0)
	return b.exchange()
}

func (b *Bridge) exchange() error {
	if err := b.x.exchange(&b.cmd, &b.rsp); err != nil {
		return err
	}
	return checkEcho(&b.cmd, &b.rsp)
}
