package regalloc

import (
	"fmt"

	"github.com/tetratelabs/regalloc/internal/buildoptions"
)

// LiveRange records where a single virtual register holds a meaningful value
// and where it is used. Start and End are closed bounds; Start must be an
// early slot.
type LiveRange struct {
	Start, End CodePoint
	// SpillCost is the penalty of forcing this range to memory. Higher
	// values bind the range more strongly to a register.
	SpillCost uint64
	// Uses are the code points in [Start, End] at which the value is read,
	// in ascending order.
	Uses []CodePoint
	VReg VReg

	// parent is the bundle currently owning this range. It is maintained by
	// NewLiveBundle and by splitting; a range whose bundle has been retired
	// must never be observed with the stale parent.
	parent *LiveBundle
}

// Interval returns the closed interval this range lives over.
func (r *LiveRange) Interval() Interval {
	return Interval{Low: r.Start, High: r.End}
}

// IsMinimal returns true if the range spans exactly one instruction.
func (r *LiveRange) IsMinimal() bool {
	return r.Interval().IsMinimal()
}

// Bundle returns the bundle currently owning this range.
func (r *LiveRange) Bundle() *LiveBundle {
	return r.parent
}

// Allocation returns the location assigned to this range's bundle.
func (r *LiveRange) Allocation() Allocation {
	return r.parent.allocation
}

// String implements fmt.Stringer.
func (r *LiveRange) String() string {
	return fmt.Sprintf("%s%s cost=%d", r.VReg, r.Interval(), r.SpillCost)
}

func resetLiveRange(r *LiveRange) {
	r.Start, r.End = 0, 0
	r.SpillCost = 0
	r.Uses = r.Uses[:0]
	r.VReg = VReg{}
	r.parent = nil
}

// LiveBundle is a non-empty set of non-intersecting live ranges, sorted by
// Start, that share a single allocation.
type LiveBundle struct {
	ranges     []*LiveRange
	allocation Allocation
}

// NewLiveBundle creates a bundle over the given ranges and re-parents each
// of them to it. The ranges must be sorted by Start and pairwise disjoint.
func NewLiveBundle(ranges []*LiveRange, allocation Allocation) *LiveBundle {
	if len(ranges) == 0 {
		panic("BUG: live bundle must not be empty")
	}
	b := &LiveBundle{ranges: ranges, allocation: allocation}
	for _, r := range ranges {
		r.parent = b
	}
	if buildoptions.RegAllocValidationEnabled {
		b.validate()
	}
	return b
}

func (b *LiveBundle) validate() {
	for i, r := range b.ranges {
		if r.Start > r.End {
			panic(fmt.Sprintf("BUG: inverted range %s", r))
		}
		if r.Start.Early() != r.Start {
			panic(fmt.Sprintf("BUG: range %s does not start on an early slot", r))
		}
		if i > 0 && b.ranges[i-1].End >= r.Start {
			panic(fmt.Sprintf("BUG: bundle ranges intersect: %s, %s", b.ranges[i-1], r))
		}
		for j, u := range r.Uses {
			if u < r.Start || u > r.End {
				panic(fmt.Sprintf("BUG: use %s outside range %s", u, r))
			}
			if j > 0 && r.Uses[j-1] > u {
				panic(fmt.Sprintf("BUG: uses of %s not ascending", r))
			}
		}
	}
}

// Ranges returns the bundle's ranges, sorted by Start.
func (b *LiveBundle) Ranges() []*LiveRange { return b.ranges }

// NumRanges returns the number of ranges in the bundle.
func (b *LiveBundle) NumRanges() int { return len(b.ranges) }

// Allocation returns the location shared by all ranges of the bundle.
func (b *LiveBundle) Allocation() Allocation { return b.allocation }

// SetAllocation sets the location shared by all ranges of the bundle.
// Callers use this to pre-assign a bundle to a concrete register before
// allocation begins.
func (b *LiveBundle) SetAllocation(a Allocation) { b.allocation = a }

// Start returns the first code point covered by the bundle.
func (b *LiveBundle) Start() CodePoint { return b.ranges[0].Start }

// End returns the last code point covered by the bundle.
func (b *LiveBundle) End() CodePoint { return b.ranges[len(b.ranges)-1].End }

// FirstRange returns the earliest range of the bundle.
func (b *LiveBundle) FirstRange() *LiveRange { return b.ranges[0] }

// LastRange returns the latest range of the bundle.
func (b *LiveBundle) LastRange() *LiveRange { return b.ranges[len(b.ranges)-1] }

// IsMinimal returns true if the bundle consists of a single range spanning
// exactly one instruction. Minimal bundles cannot be split.
func (b *LiveBundle) IsMinimal() bool {
	return len(b.ranges) == 1 && b.ranges[0].IsMinimal()
}

// String implements fmt.Stringer.
func (b *LiveBundle) String() string {
	return fmt.Sprintf("bundle%s ranges=%d alloc=%s",
		Interval{b.Start(), b.End()}, len(b.ranges), b.allocation)
}

func resetLiveBundle(b *LiveBundle) {
	b.ranges = b.ranges[:0]
	b.allocation = AllocationNone
}

// truncated returns a new bundle holding b's ranges restricted to interval,
// or nil when nothing of b survives. Ranges fully inside the interval are
// carried over as-is; ranges crossing an end of the interval are cloned and
// clipped, with their uses filtered to the clipped interval. The returned
// bundle's ranges still point at b as their parent; the caller re-parents
// them once it commits to the split.
func (b *LiveBundle) truncated(a *Allocator, interval Interval) *LiveBundle {
	if interval.Low > interval.High {
		return nil
	}

	var nb *LiveBundle
	for _, r := range b.ranges {
		live := r.Interval()
		if !interval.Overlaps(live) {
			continue
		}
		if nb == nil {
			nb = a.bundlePool.Allocate()
			nb.allocation = b.allocation
		}
		if live.FullyWithin(interval) {
			nb.ranges = append(nb.ranges, r)
			continue
		}

		newStart := r.Start.Max(interval.Low)
		newEnd := min(r.End, interval.High)

		nr := a.rangePool.Allocate()
		nr.Start, nr.End = newStart, newEnd
		nr.SpillCost = r.SpillCost
		nr.VReg = r.VReg
		nr.parent = b
		for _, u := range r.Uses {
			if u >= newStart && u <= newEnd {
				nr.Uses = append(nr.Uses, u)
			}
		}
		nb.ranges = append(nb.ranges, nr)
	}
	return nb
}
