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

/*
Package linuxbus drives an I2C device through a Linux /dev/i2c-N adapter,
for an Si5351 wired to a Raspberry Pi header or similar.

Transfers go through the SMBus ioctl, so a transaction is always a register
address followed by data. Anything longer than an SMBus block is split into
blockMax byte chunks with the register address advanced, which is fine for chips that
auto-increment like the Si5351 does.
*/
package linuxbus

import (
	"errors"
	"fmt"

	"github.com/platinasystems/i2c"
)

// blockMax is the largest block that fits in SMBusData after its length byte.
const blockMax = len(i2c.SMBusData{}) - 1

// smbus is the part of i2c.Bus this package uses.
type smbus interface {
	ForceSlaveAddress(addr int) error
	Do(rw i2c.RW, command uint8, size i2c.SMBusSize, data *i2c.SMBusData) error
	Close() error
}

// Bus implements tinygo.org/x/drivers.I2C on a Linux adapter.
type Bus struct {
	bus   smbus
	index int
	addr  int // slave address currently selected, -1 for none
	data  i2c.SMBusData
	// the kernel's i2c_smbus_data is 34 bytes and block transfers copy all of it
	_ [34 - len(i2c.SMBusData{})]byte
}

// Open opens /dev/i2c-<index>.
func Open(index int) (*Bus, error) {
	b := &i2c.Bus{}
	if err := b.Open(index); err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %d: %w", index, err)
	}
	return newBus(b, index), nil
}

func newBus(b smbus, index int) *Bus {
	return &Bus{bus: b, index: index, addr: -1}
}

func (b *Bus) Close() error {
	return b.bus.Close()
}

func (b *Bus) String() string {
	return fmt.Sprintf("/dev/i2c-%d", b.index)
}

/*
Tx writes w and then reads into r. A write is a register address and
zero or more data bytes. A read needs exactly the register address in w.
*/
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 {
		return errors.New("linuxbus: transaction needs a register address")
	}
	if err := b.selectAddress(int(addr)); err != nil {
		return err
	}
	if len(r) == 0 {
		return b.write(w[0], w[1:])
	}
	if len(w) != 1 {
		return errors.New("linuxbus: combined write and read must write only the register address")
	}
	return b.read(w[0], r)
}

func (b *Bus) selectAddress(addr int) error {
	if addr == b.addr {
		return nil
	}
	if err := b.bus.ForceSlaveAddress(addr); err != nil {
		b.addr = -1
		return fmt.Errorf("linuxbus: address 0x%02x: %w", addr, err)
	}
	b.addr = addr
	return nil
}

func (b *Bus) write(reg uint8, data []byte) error {
	switch len(data) {
	case 0:
		return b.do(i2c.Write, reg, i2c.Byte)
	case 1:
		b.data[0] = data[0]
		return b.do(i2c.Write, reg, i2c.ByteData)
	}
	for len(data) > 0 {
		n := min(len(data), blockMax)
		b.data[0] = uint8(n)
		copy(b.data[1:], data[:n])
		if err := b.do(i2c.Write, reg, i2c.I2CBlockData); err != nil {
			return err
		}
		reg += uint8(n)
		data = data[n:]
	}
	return nil
}

func (b *Bus) read(reg uint8, buf []byte) error {
	if len(buf) == 1 {
		if err := b.do(i2c.Read, reg, i2c.ByteData); err != nil {
			return err
		}
		buf[0] = b.data[0]
		return nil
	}
	for len(buf) > 0 {
		n := min(len(buf), blockMax)
		b.data[0] = uint8(n)
		if err := b.do(i2c.Read, reg, i2c.I2CBlockData); err != nil {
			return err
		}
		copy(buf[:n], b.data[1:1+n])
		reg += uint8(n)
		buf = buf[n:]
	}
	return nil
}

func (b *Bus) do(rw i2c.RW, reg uint8, size i2c.SMBusSize) error {
	if err := b.bus.Do(rw, reg, size, &b.data); err != nil {
		return fmt.Errorf("linuxbus: register %d: %w", reg, err)
	}
	return nil
}
