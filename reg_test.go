package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestType_packing(t *testing.T) {
	for _, tc := range []struct {
		name  string
		typ   Type
		base  TypeBase
		size  int
		lanes int
		class RegClass
		str   string
	}{
		{name: "i32", typ: TypeI32, base: TypeBaseInt, size: 4, lanes: 1, class: RegClassInt, str: "i32"},
		{name: "i64", typ: TypeI64, base: TypeBaseInt, size: 8, lanes: 1, class: RegClassInt, str: "i64"},
		{name: "f32", typ: TypeF32, base: TypeBaseFloat, size: 4, lanes: 1, class: RegClassFloat, str: "f32"},
		{name: "f64", typ: TypeF64, base: TypeBaseFloat, size: 8, lanes: 1, class: RegClassFloat, str: "f64"},
		{name: "ptr", typ: TypePtr, base: TypeBasePtr, size: 8, lanes: 1, class: RegClassInt, str: "p64"},
		{name: "v128", typ: TypeV128, base: TypeBaseVector, size: 16, lanes: 2, class: RegClassVector, str: "v64x2"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.base, tc.typ.Base())
			require.Equal(t, tc.size, tc.typ.SizeBytes())
			require.Equal(t, tc.lanes, tc.typ.Lanes())
			require.Equal(t, tc.class, tc.typ.RegClass())
			require.Equal(t, tc.str, tc.typ.String())
		})
	}
}

func TestType_void(t *testing.T) {
	var void Type
	require.True(t, void.IsVoid())
	require.Equal(t, "void", void.String())
	require.Panics(t, func() { void.RegClass() })
}

func TestType_newTypeRange(t *testing.T) {
	require.Panics(t, func() { NewType(TypeBaseInt, 8, 0) })
	require.Panics(t, func() { NewType(TypeBaseInt, 0, 8) })
	require.Panics(t, func() { NewType(TypeBaseVector+1, 0, 0) })
}

func TestType_equalityIsBitwise(t *testing.T) {
	require.Equal(t, TypeI32, NewType(TypeBaseInt, 2, 0))
	require.NotEqual(t, TypeI32, TypeF32)
	require.NotEqual(t, TypeI32, TypeI64)
}

func TestAllocation_variants(t *testing.T) {
	none := AllocationNone
	require.True(t, none.IsNone())
	require.False(t, none.IsReg())
	require.False(t, none.IsSpill())
	require.Equal(t, "none", none.String())

	r := Register{Class: RegClassFloat, Encoding: 7}
	reg := AllocReg(r)
	require.True(t, reg.IsReg())
	require.False(t, reg.IsNone())
	require.False(t, reg.IsSpill())
	require.Equal(t, r, reg.Reg())
	require.Equal(t, "float7", reg.String())

	sp := AllocSpill(24)
	require.True(t, sp.IsSpill())
	require.False(t, sp.IsUnassignedSpill())
	require.Equal(t, uint16(24), sp.SpillSlot())
	require.Equal(t, "spill(24)", sp.String())

	unassigned := AllocSpillUnassigned()
	require.True(t, unassigned.IsSpill())
	require.True(t, unassigned.IsUnassignedSpill())
	require.Equal(t, "spill(?)", unassigned.String())
}

func TestAllocation_equalityIsStructural(t *testing.T) {
	r := Register{Class: RegClassInt, Encoding: 3}
	require.Equal(t, AllocReg(r), AllocReg(r))
	require.NotEqual(t, AllocReg(r), AllocReg(Register{Class: RegClassInt, Encoding: 4}))
	require.NotEqual(t, AllocReg(r), AllocReg(Register{Class: RegClassFloat, Encoding: 3}))
	require.Equal(t, AllocSpill(0), AllocSpill(0))
	require.NotEqual(t, AllocSpill(0), AllocSpill(8))
	// A register encoding must never collide with a spill slot.
	require.NotEqual(t, AllocReg(Register{Class: RegClassInt, Encoding: 0}), AllocSpill(0))
}

func TestAllocation_accessorPanics(t *testing.T) {
	require.Panics(t, func() { AllocationNone.Reg() })
	require.Panics(t, func() { AllocSpill(0).Reg() })
	require.Panics(t, func() { AllocReg(Register{}).SpillSlot() })
}
