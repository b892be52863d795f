package regalloc

import (
	"fmt"
	"sort"
)

// Stitch is a move operation inserted between allocation boundaries: the
// value of VReg moves from From to To immediately before the instruction at
// At.
type Stitch struct {
	VReg     VReg
	From, To Allocation
	At       CodePoint
}

// String implements fmt.Stringer.
func (s Stitch) String() string {
	return fmt.Sprintf("%s: %s -> %s @%s", s.VReg, s.From, s.To, s.At)
}

// Output is the result of a run: the finalized ranges, each resolved to a
// register or a concrete spill slot, and the stitch list.
type Output struct {
	// Allocations is sorted by start, then end, then vreg.
	Allocations []*LiveRange
	Stitches    []Stitch
}

func outputFromRanges(ranges []*LiveRange) Output {
	return Output{Allocations: ranges, Stitches: patchLiveRanges(ranges)}
}

// spillSlotAlignment caps a slot's natural alignment. Wider types are still
// laid out contiguously, just not padded past this boundary.
const spillSlotAlignment = 16

// patchLiveRanges walks the final ranges in code order, resolving sentinel
// spill slots to concrete byte offsets and emitting a stitch wherever two
// consecutive ranges of the same vreg live in different locations. Slot
// resolution happens before stitch emission so stitches only ever carry
// concrete allocations.
func patchLiveRanges(ranges []*LiveRange) []Stitch {
	sort.Slice(ranges, func(i, j int) bool {
		a, b := ranges[i], ranges[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.VReg.ID < b.VReg.ID
	})

	var stitches []Stitch
	lastSeen := map[VReg]*LiveRange{}
	slots := map[VReg]uint16{}
	delta := 0

	for _, r := range ranges {
		vreg := r.VReg

		if r.Allocation().IsSpill() {
			slot, ok := slots[vreg]
			if !ok {
				align := min(vreg.Type.SizeBytes(), spillSlotAlignment)
				delta = (delta + align - 1) &^ (align - 1)
				if delta >= int(SpillSlotUnassigned) {
					panic("BUG: spill area exceeds the representable slot range")
				}
				slot = uint16(delta)
				slots[vreg] = slot
				delta += vreg.Type.SizeBytes()
			}
			r.parent.allocation = AllocSpill(slot)
		}

		if prev, ok := lastSeen[vreg]; ok && prev.Allocation() != r.Allocation() {
			stitches = append(stitches, Stitch{
				VReg: vreg,
				From: prev.Allocation(),
				To:   r.Allocation(),
				At:   prev.End.NextInst(),
			})
		}

		lastSeen[vreg] = r
	}
	return stitches
}
