// Package amd64 describes the allocatable register file of an amd64 target.
// Register encodings are positions within each bank, derived from the
// assembler's register constants.
package amd64

import (
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/regalloc"
)

var (
	// R13-R15 are not handed to the allocator; they are conventionally
	// reserved by the code generator (engine pointer, stack base, memory
	// base).
	unreservedGeneralPurposeIntRegisters = []int16{
		x86.REG_AX, x86.REG_CX, x86.REG_DX, x86.REG_BX,
		x86.REG_SI, x86.REG_DI, x86.REG_R8, x86.REG_R9,
		x86.REG_R10, x86.REG_R11, x86.REG_R12,
	}
	generalPurposeFloatRegisters = []int16{
		x86.REG_X0, x86.REG_X1, x86.REG_X2, x86.REG_X3,
		x86.REG_X4, x86.REG_X5, x86.REG_X6, x86.REG_X7,
		x86.REG_X8, x86.REG_X9, x86.REG_X10, x86.REG_X11,
		x86.REG_X12, x86.REG_X13, x86.REG_X14, x86.REG_X15,
	}
)

// ISA returns the amd64 register file. Scalar floats and vectors share the
// XMM bank, so the float and vector classes carry the same encodings.
func ISA() *regalloc.TargetISA {
	isa := &regalloc.TargetISA{}
	for _, r := range unreservedGeneralPurposeIntRegisters {
		isa.Registers[regalloc.RegClassInt] = append(isa.Registers[regalloc.RegClassInt],
			regalloc.Register{Class: regalloc.RegClassInt, Encoding: byte(r - x86.REG_AX)})
	}
	for _, r := range generalPurposeFloatRegisters {
		enc := byte(r - x86.REG_X0)
		isa.Registers[regalloc.RegClassFloat] = append(isa.Registers[regalloc.RegClassFloat],
			regalloc.Register{Class: regalloc.RegClassFloat, Encoding: enc})
		isa.Registers[regalloc.RegClassVector] = append(isa.Registers[regalloc.RegClassVector],
			regalloc.Register{Class: regalloc.RegClassVector, Encoding: enc})
	}
	return isa
}
