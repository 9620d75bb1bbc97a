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
Package usbbridge talks I2C through a Microchip MCP2221A USB bridge so an
Si5351 breakout can be driven from any host with a USB port.

The MCP2221A speaks 64 byte HID reports. Every command gets exactly one
report back. I2C transfers are started by one command and finish in the
background, so a write is followed by status polls until the engine goes
idle, and a read is followed by a get-data command that returns the bytes.
*/
package usbbridge

import (
	"errors"
	"fmt"
)

const (
	VendorID  = 0x04D8
	ProductID = 0x00DD

	reportSize = 64
	// Data bytes that fit in one report after the 4 byte header.
	chunkSize = 60
)

// Command codes.
const (
	cmdStatus          = 0x10
	cmdWrite           = 0x90
	cmdWriteNoStop     = 0x94
	cmdRead            = 0x91
	cmdReadRepeatStart = 0x93
	cmdGetData         = 0x40
)

const (
	statusCancel   = 0x10 // byte 2 of a status command
	statusSetSpeed = 0x20 // byte 3 of a status command

	stateIdle = 0x00
	stateNACK = 0x25

	ackBit        = 0x40 // byte 20 of a status response, set on NACK
	getDataError  = 0x41
	readLengthBad = 0x7F
)

var (
	ErrNACK    = errors.New("usbbridge: address not acknowledged")
	ErrBusy    = errors.New("usbbridge: i2c engine busy")
	ErrTimeout = errors.New("usbbridge: transfer did not finish")
)

type report = [reportSize]byte

// transferCommand builds a write or read command for n bytes to the 7 bit
// address addr. For writes data holds the n bytes to send.
func transferCommand(op byte, addr uint16, n int, data []byte) report {
	var cmd report
	cmd[0] = op
	cmd[1] = byte(n)
	cmd[2] = byte(n >> 8)
	cmd[3] = byte(addr << 1)
	if op == cmdRead || op == cmdReadRepeatStart {
		cmd[3] |= 1
	}
	copy(cmd[4:], data)
	return cmd
}

func statusCommand(cancel bool, divider byte) report {
	var cmd report
	cmd[0] = cmdStatus
	if cancel {
		cmd[2] = statusCancel
	}
	if divider != 0 {
		cmd[3] = statusSetSpeed
		cmd[4] = divider
	}
	return cmd
}

// speedDivider converts an I2C clock rate to the MCP2221A's divider byte.
func speedDivider(hz uint32) (byte, error) {
	if hz < 50_000 || hz > 400_000 {
		return 0, fmt.Errorf("usbbridge: i2c speed %d Hz outside 50 kHz..400 kHz", hz)
	}
	return byte(12_000_000/hz - 3), nil
}

// checkEcho verifies the response belongs to cmd and the command was taken.
func checkEcho(cmd, rsp *report) error {
	if rsp[0] != cmd[0] {
		return fmt.Errorf("usbbridge: response 0x%02x to command 0x%02x", rsp[0], cmd[0])
	}
	if rsp[1] != 0 {
		return fmt.Errorf("%w (command 0x%02x)", ErrBusy, cmd[0])
	}
	return nil
}

// nacked reports whether a status response shows the slave didn't answer.
func nacked(rsp *report) bool {
	return rsp[8] == stateNACK || rsp[20]&ackBit != 0
}
