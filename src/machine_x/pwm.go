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

// Package machine_x reaches the parts of the RP2040 PWM block that the
// machine package keeps to itself, mainly counting edges on the B pin.
package machine_x

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"
)

// Slice overlays the five registers of one PWM slice.
type Slice struct {
	CSR volatile.Register32
	DIV volatile.Register32
	CTR volatile.Register32
	CC  volatile.Register32
	TOP volatile.Register32
}

const sliceStride = unsafe.Sizeof(Slice{})

var (
	PWM0 = slice(0)
	PWM1 = slice(1)
)

// Masks for SetEN_CH.
const (
	PWM_CH0 = 1 << 0
	PWM_CH1 = 1 << 1
)

func slice(n uintptr) *Slice {
	return (*Slice)(unsafe.Add(unsafe.Pointer(&rp.PWM.CH0_CSR), n*sliceStride))
}

// SetEN_CH enables or disables the slices in mask in the same cycle.
func SetEN_CH(mask uint32, on uint32) {
	if on != 0 {
		rp.PWM.EN.SetBits(mask)
	} else {
		rp.PWM.EN.ClearBits(mask)
	}
}

// SetDivMode picks what advances the counter, one of the
// rp.PWM_CH0_CSR_DIVMODE values.
func (s *Slice) SetDivMode(mode uint32) {
	s.CSR.ReplaceBits(mode, rp.PWM_CH0_CSR_DIVMODE_Msk>>rp.PWM_CH0_CSR_DIVMODE_Pos, rp.PWM_CH0_CSR_DIVMODE_Pos)
}

// SetClockDiv sets the 8.4 fixed point clock divider. An integer part of
// zero means 256 to the hardware, so it is raised to one.
func (s *Slice) SetClockDiv(integer, frac uint8) {
	i := u32max(uint32(integer), 1)
	s.DIV.Set(i<<rp.PWM_CH0_DIV_INT_Pos | uint32(frac&0xF))
}

func (s *Slice) SetTop(top uint32) { s.TOP.Set(top & 0xFFFF) }

// Set sets the compare level of channel 0 (A) or 1 (B).
func (s *Slice) Set(ch uint8, level uint32) {
	shift := 16 * uint8(boolToBit(ch != 0))
	s.CC.ReplaceBits(level, 0xFFFF, shift)
}

func (s *Slice) Counter() uint32 { return s.CTR.Get() & 0xFFFF }

func (s *Slice) SetCounter(v uint32) { s.CTR.Set(v & 0xFFFF) }

func boolToBit(a bool) uint32 {
	if a {
		return 1
	}
	return 0
}

func u32max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
