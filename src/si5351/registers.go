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

package si5351

// AddressDefault is the fixed I2C address of the Si5351A.
const AddressDefault = 0x60

// Register map (AN619).
const (
	regDeviceStatus         = 0
	regInterruptStatus      = 1
	regInterruptMask        = 2
	regOutputEnable         = 3
	regPLLInputSource       = 15
	regCLK0Control          = 16
	regCLK7Control          = 23
	regPLLAParameters       = 26
	regPLLBParameters       = 34
	regMultisynth0          = 42
	regMultisynth1          = 50
	regMultisynth2          = 58
	regSpreadSpectrum       = 149
	regPLLReset             = 177
	regCrystalLoad          = 183
	multisynthBlockSize     = 8
	numClockControlRegister = regCLK7Control - regCLK0Control + 1
)

// Bit fields.
const (
	pllResetA         = 1 << 5
	pllResetB         = 1 << 7
	softReset         = 0xAC
	spreadSpectrumOn  = 0x80
	clkPoweredDown    = 0x80
	clkControlDefault = 0x0F // 8mA drive, MSx as source, not inverted, powered up
	clkSourcePLLB     = 1 << 5
	clkIntegerMode    = 1 << 6
	rdivMask          = 0x70
	rdivShift         = 4
	p1HighMask        = 0x0F
)

// Parameter limits.
const (
	NumOutputs = 3

	MaxFraction = 0xFFFFF // 20-bit numerator/denominator

	PLLMultMin = 15
	PLLMultMax = 90

	MultisynthDivMin = 4
	MultisynthDivMax = 2048

	// VCOMax is the top of the VCO range; PlanFreq divides down from here.
	VCOMax = 900_000_000
	// msPlanMax keeps planned multisynth dividers well inside the register field.
	msPlanMax = 1800
	msPlanMin = 6
	// rdivWindow is the largest total divider handled by the multisynth alone.
	rdivWindow = 900
)

// PLL selects one of the two phase locked loops.
type PLL uint8

const (
	PLLA PLL = iota
	PLLB
)

func (p PLL) String() string {
	switch p {
	case PLLA:
		return "A"
	case PLLB:
		return "B"
	default:
		return "?"
	}
}

func (p PLL) valid() bool { return p == PLLA || p == PLLB }

// CrystalFreq is the reference crystal frequency in Hz.
type CrystalFreq uint32

const (
	Crystal25MHz CrystalFreq = 25_000_000
	Crystal27MHz CrystalFreq = 27_000_000
)

// CrystalLoad is the internal load capacitance code for register 183.
type CrystalLoad uint8

const (
	Load6PF  CrystalLoad = 1 << 6
	Load8PF  CrystalLoad = 2 << 6
	Load10PF CrystalLoad = 3 << 6
)

// MultisynthDiv enumerates the even integer dividers usable without a fraction.
type MultisynthDiv uint8

const (
	MultisynthDiv4 MultisynthDiv = 4
	MultisynthDiv6 MultisynthDiv = 6
	MultisynthDiv8 MultisynthDiv = 8
)

// StatusBits mirrors register 0.
type StatusBits uint8

const (
	StatusSysInit StatusBits = 1 << 7 // device still calibrating
	StatusLOLB    StatusBits = 1 << 6 // PLL B loss of lock
	StatusLOLA    StatusBits = 1 << 5 // PLL A loss of lock
	StatusLOS     StatusBits = 1 << 4 // loss of CLKIN signal
)

func (b StatusBits) Has(flag StatusBits) bool { return b&flag != 0 }

func pllBase(p PLL) uint8 {
	if p == PLLB {
		return regPLLBParameters
	}
	return regPLLAParameters
}

func multisynthBase(ch int) uint8 {
	return regMultisynth0 + uint8(ch)*multisynthBlockSize
}

// The R divider shares the third multisynth register with P1[17:16].
func rdivRegister(ch int) uint8 {
	return multisynthBase(ch) + 2
}

func clkControl(ch int) uint8 {
	return regCLK0Control + uint8(ch)
}
