// Package arm64 describes the allocatable register file of an arm64 target.
package arm64

import (
	"github.com/twitchyliquid64/golang-asm/obj/arm64"

	"github.com/tetratelabs/regalloc"
)

var (
	// R0-R3 are conventionally reserved by the code generator and R31 is
	// the zero/stack register, so neither is handed to the allocator.
	unreservedGeneralPurposeIntRegisters = []int16{
		arm64.REG_R4, arm64.REG_R5, arm64.REG_R6, arm64.REG_R7, arm64.REG_R8,
		arm64.REG_R9, arm64.REG_R10, arm64.REG_R11, arm64.REG_R12, arm64.REG_R13,
		arm64.REG_R14, arm64.REG_R15, arm64.REG_R16, arm64.REG_R17, arm64.REG_R18,
		arm64.REG_R19, arm64.REG_R20, arm64.REG_R21, arm64.REG_R22, arm64.REG_R23,
		arm64.REG_R24, arm64.REG_R25, arm64.REG_R26, arm64.REG_R27, arm64.REG_R28,
		arm64.REG_R29, arm64.REG_R30,
	}
	generalPurposeFloatRegisters = []int16{
		arm64.REG_F0, arm64.REG_F1, arm64.REG_F2, arm64.REG_F3,
		arm64.REG_F4, arm64.REG_F5, arm64.REG_F6, arm64.REG_F7, arm64.REG_F8,
		arm64.REG_F9, arm64.REG_F10, arm64.REG_F11, arm64.REG_F12, arm64.REG_F13,
		arm64.REG_F14, arm64.REG_F15, arm64.REG_F16, arm64.REG_F17, arm64.REG_F18,
		arm64.REG_F19, arm64.REG_F20, arm64.REG_F21, arm64.REG_F22, arm64.REG_F23,
		arm64.REG_F24, arm64.REG_F25, arm64.REG_F26, arm64.REG_F27, arm64.REG_F28,
		arm64.REG_F29, arm64.REG_F30, arm64.REG_F31,
	}
)

// ISA returns the arm64 register file. The SIMD bank doubles as the scalar
// float bank, so the float and vector classes carry the same encodings.
func ISA() *regalloc.TargetISA {
	isa := &regalloc.TargetISA{}
	for _, r := range unreservedGeneralPurposeIntRegisters {
		isa.Registers[regalloc.RegClassInt] = append(isa.Registers[regalloc.RegClassInt],
			regalloc.Register{Class: regalloc.RegClassInt, Encoding: byte(r - arm64.REG_R0)})
	}
	for _, r := range generalPurposeFloatRegisters {
		enc := byte(r - arm64.REG_F0)
		isa.Registers[regalloc.RegClassFloat] = append(isa.Registers[regalloc.RegClassFloat],
			regalloc.Register{Class: regalloc.RegClassFloat, Encoding: enc})
		isa.Registers[regalloc.RegClassVector] = append(isa.Registers[regalloc.RegClassVector],
			regalloc.Register{Class: regalloc.RegClassVector, Encoding: enc})
	}
	return isa
}
