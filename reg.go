package regalloc

import "fmt"

// RegClass is the physical register class a value type maps to.
type RegClass byte

const (
	RegClassInt RegClass = iota
	RegClassFloat
	RegClassVector
	NumRegClass
)

// String implements fmt.Stringer.
func (rc RegClass) String() string {
	switch rc {
	case RegClassInt:
		return "int"
	case RegClassFloat:
		return "float"
	case RegClassVector:
		return "vector"
	default:
		return "invalid"
	}
}

// Register is a physical register: a class plus the ISA-specific 8-bit
// encoding within that class's bank.
type Register struct {
	Class    RegClass
	Encoding byte
}

// String implements fmt.Stringer.
func (r Register) String() string {
	return fmt.Sprintf("%s%d", r.Class, r.Encoding)
}

// TypeBase is the base class of a value type.
type TypeBase byte

const (
	TypeBaseVoid TypeBase = iota
	TypeBaseInt
	TypeBaseFloat
	TypeBasePtr
	TypeBaseVector
)

// Type is a packed value type descriptor:
//
//	+------+---------------------+-------------+
//	| 0-2  | 3-5                 | 6-8         |
//	+------+---------------------+-------------+
//	| base | log2(bitsize) - 3   | log2(lanes) |
//	+------+---------------------+-------------+
//
// The zero value is void. Equality is bitwise.
type Type uint16

// NewType packs base, the log2 of the per-lane size in bytes (0 for 8-bit up
// to 7 for 1024-bit), and the log2 of the lane count (0 for scalar up to 7
// for 128 lanes).
func NewType(base TypeBase, sizeLog2, lanesLog2 uint8) Type {
	if base > TypeBaseVector || sizeLog2 > 7 || lanesLog2 > 7 {
		panic("BUG: type descriptor field out of range")
	}
	return Type(base) | Type(sizeLog2)<<3 | Type(lanesLog2)<<6
}

// Common scalar and vector types.
var (
	TypeI32  = NewType(TypeBaseInt, 2, 0)
	TypeI64  = NewType(TypeBaseInt, 3, 0)
	TypeF32  = NewType(TypeBaseFloat, 2, 0)
	TypeF64  = NewType(TypeBaseFloat, 3, 0)
	TypePtr  = NewType(TypeBasePtr, 3, 0)
	TypeV128 = NewType(TypeBaseVector, 3, 1)
)

// Base returns the base class of t.
func (t Type) Base() TypeBase { return TypeBase(t & 0x7) }

func (t Type) sizeLog2() uint8  { return uint8(t>>3) & 0x7 }
func (t Type) lanesLog2() uint8 { return uint8(t>>6) & 0x7 }

// Lanes returns the lane count of t.
func (t Type) Lanes() int { return 1 << t.lanesLog2() }

// SizeBytes returns the total byte size of a value of this type, lanes
// included. This is the amount of stack a spill of the value occupies.
func (t Type) SizeBytes() int {
	return (1 << t.sizeLog2()) << t.lanesLog2()
}

// IsVoid returns true if t is the void type.
func (t Type) IsVoid() bool { return t == 0 }

// RegClass returns the register class values of this type are allocated in.
func (t Type) RegClass() RegClass {
	switch t.Base() {
	case TypeBaseInt, TypeBasePtr:
		return RegClassInt
	case TypeBaseFloat:
		return RegClassFloat
	case TypeBaseVector:
		return RegClassVector
	default:
		panic("BUG: void type has no register class")
	}
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if t.IsVoid() {
		return "void"
	}
	var base string
	switch t.Base() {
	case TypeBaseInt:
		base = "i"
	case TypeBaseFloat:
		base = "f"
	case TypeBasePtr:
		base = "p"
	case TypeBaseVector:
		base = "v"
	}
	bits := 8 << t.sizeLog2()
	if lanes := t.Lanes(); lanes > 1 {
		return fmt.Sprintf("%s%dx%d", base, bits, lanes)
	}
	return fmt.Sprintf("%s%d", base, bits)
}

// VReg is a virtual register: a dense identifier plus the value type it
// carries. The type determines which register class the vreg is allocated
// in.
type VReg struct {
	ID   uint32
	Type Type
}

// String implements fmt.Stringer.
func (v VReg) String() string {
	return fmt.Sprintf("v%d", v.ID)
}

// Allocation is the location assigned to a bundle: none, a physical
// register, or a stack spill slot. It is packed into a single integer so
// that comparing two allocations is a single comparison:
//
//	bits 0-1:  0 = none, 1 = register, 2 = spill
//	bits 2-3:  register class, if register
//	bits 8-15: register encoding, if register
//	bits 8-23: spill slot byte offset, if spill
//
// The zero value is the "none" allocation.
type Allocation uint32

const (
	allocationKindMask = 0x3
	allocationKindNone = 0x0
	allocationKindReg  = 0x1
	// allocationKindSpill differs from allocationKindReg in the kind bits, so
	// a packed spill never equals a packed register.
	allocationKindSpill = 0x2

	// SpillSlotUnassigned marks a spill whose concrete slot has not been
	// chosen yet. The post-processor replaces it with a real offset.
	SpillSlotUnassigned uint16 = 0xffff
)

// AllocationNone is the unassigned allocation.
const AllocationNone Allocation = allocationKindNone

// AllocReg returns the allocation for the given physical register.
func AllocReg(r Register) Allocation {
	return allocationKindReg | Allocation(r.Class)<<2 | Allocation(r.Encoding)<<8
}

// AllocSpill returns the allocation for a stack spill slot at the given byte
// offset.
func AllocSpill(slot uint16) Allocation {
	return allocationKindSpill | Allocation(slot)<<8
}

// AllocSpillUnassigned returns a spill allocation whose slot is not chosen
// yet.
func AllocSpillUnassigned() Allocation {
	return AllocSpill(SpillSlotUnassigned)
}

// IsNone returns true if no location has been assigned.
func (a Allocation) IsNone() bool { return a == AllocationNone }

// IsReg returns true if a physical register has been assigned.
func (a Allocation) IsReg() bool { return a&allocationKindMask == allocationKindReg }

// IsSpill returns true if a stack slot has been assigned.
func (a Allocation) IsSpill() bool { return a&allocationKindMask == allocationKindSpill }

// IsUnassignedSpill returns true if this is a spill whose slot is still the
// sentinel.
func (a Allocation) IsUnassignedSpill() bool {
	return a.IsSpill() && a.SpillSlot() == SpillSlotUnassigned
}

// Reg returns the assigned register.
func (a Allocation) Reg() Register {
	if !a.IsReg() {
		panic("BUG: allocation is not a register")
	}
	return Register{
		Class:    RegClass(a >> 2 & 0x3),
		Encoding: byte(a >> 8),
	}
}

// SpillSlot returns the assigned spill slot byte offset.
func (a Allocation) SpillSlot() uint16 {
	if !a.IsSpill() {
		panic("BUG: allocation is not a spill")
	}
	return uint16(a >> 8)
}

// String implements fmt.Stringer.
func (a Allocation) String() string {
	switch {
	case a.IsReg():
		return a.Reg().String()
	case a.IsUnassignedSpill():
		return "spill(?)"
	case a.IsSpill():
		return fmt.Sprintf("spill(%d)", a.SpillSlot())
	default:
		return "none"
	}
}

// TargetISA describes the physical register file of the target machine.
type TargetISA struct {
	// Registers lists the allocatable registers per class, duplicate-free.
	// The order matters: the first element is the most preferred one when
	// allocating.
	Registers [NumRegClass][]Register
}
