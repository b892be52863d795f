// Package regalloc assigns physical registers to virtual-register live
// ranges over a linearized instruction sequence. Given a set of live bundles
// and a description of the target register file, it assigns each live range
// a register or a stack spill slot, splitting ranges where the register
// pressure demands it, and emits the stitches (move operations) that carry a
// virtual register's value across allocation changes.
package regalloc

// References:
// * https://web.stanford.edu/class/archive/cs/cs143/cs143.1128/lectures/17/Slides17.pdf
// * https://llvm.org/ProjectsWithLLVM/2004-Fall-CS426-LS.pdf
// * https://docs.rs/regalloc2/latest/regalloc2/ for the bundle/second-chance vocabulary.

import (
	"fmt"
	"math"

	"github.com/tetratelabs/regalloc/internal/buildoptions"
	"github.com/tetratelabs/regalloc/internal/pool"
)

// Allocator is a register allocator for one target register file. It is
// reusable: call Reset between runs. It is not safe for concurrent use.
type Allocator struct {
	isa *TargetISA
	// trees index the currently-assigned ranges, one per register class.
	trees [NumRegClass]intervalTree
	// pending holds ranges awaiting their first placement attempt;
	// secondChance holds ranges that failed it and are retried after
	// everything with a higher spill cost has been placed.
	pending, secondChance rangeQueue
	// spilled collects ranges whose bundles were spilled in the second
	// chance phase. They live in no tree, so the final range set is the
	// drained trees plus this list.
	spilled []*LiveRange

	rangePool  pool.Pool[LiveRange]
	bundlePool pool.Pool[LiveBundle]

	// regPos maps a register encoding to its position in the ISA's
	// declaration order, per class; -1 for encodings outside the
	// allocatable set.
	regPos [NumRegClass][256]int16

	// Scratch reused across queries.
	interferences []*LiveRange
	costs         []uint64
}

// NewAllocator returns an allocator for the given register file.
func NewAllocator(isa *TargetISA) *Allocator {
	a := &Allocator{
		isa:        isa,
		rangePool:  pool.NewPool[LiveRange](resetLiveRange),
		bundlePool: pool.NewPool[LiveBundle](resetLiveBundle),
	}
	for class := range a.trees {
		a.trees[class] = newIntervalTree()
	}
	for class := RegClass(0); class < NumRegClass; class++ {
		for enc := range a.regPos[class] {
			a.regPos[class][enc] = -1
		}
		for i, reg := range isa.Registers[class] {
			if reg.Class != class {
				panic(fmt.Sprintf("BUG: register %s listed under class %s", reg, class))
			}
			if a.regPos[class][reg.Encoding] >= 0 {
				panic(fmt.Sprintf("BUG: register %s listed twice", reg))
			}
			a.regPos[class][reg.Encoding] = int16(i)
		}
	}
	return a
}

// Reset returns the allocator to its initial state so it can be reused.
// Ranges and bundles created by a previous run (including those referenced
// by its Output) must not be used afterwards.
func (a *Allocator) Reset() {
	for class := range a.trees {
		a.trees[class].reset()
	}
	a.pending.reset()
	a.secondChance.reset()
	a.spilled = a.spilled[:0]
	a.rangePool.Reset()
	a.bundlePool.Reset()
	a.interferences = a.interferences[:0]
}

// Run allocates every range of the given bundles and returns the finalized
// range set together with the stitches. The allocator takes ownership of
// the bundles and the ranges they contain; bundles may be retired and
// replaced by splitting, so callers must only inspect the result through
// the returned Output.
//
// The only input error is ErrDuplicateRange; every other condition is
// recovered internally by splitting, the second-chance queue, or a final
// spill.
func (a *Allocator) Run(bundles []*LiveBundle) (Output, error) {
	if err := a.ingest(bundles); err != nil {
		return Output{}, err
	}
	a.runPending()
	a.runSecondChance()
	return outputFromRanges(a.extractRanges()), nil
}

// ingest validates the input and distributes the ranges: pre-assigned
// bundles go straight into the interval indices so later queries observe
// their claims, everything else enters the pending queue.
func (a *Allocator) ingest(bundles []*LiveBundle) error {
	var seen [NumRegClass]map[Interval]struct{}
	for class := range seen {
		seen[class] = map[Interval]struct{}{}
	}
	for _, b := range bundles {
		if buildoptions.RegAllocValidationEnabled {
			b.validate()
		}
		for _, r := range b.Ranges() {
			class := r.VReg.Type.RegClass()
			if _, ok := seen[class][r.Interval()]; ok {
				return fmt.Errorf("%s over %s: %w", r.VReg, r.Interval(), ErrDuplicateRange)
			}
			seen[class][r.Interval()] = struct{}{}
		}
	}

	for _, b := range bundles {
		preAssigned := b.Allocation().IsReg()
		for _, r := range b.Ranges() {
			if preAssigned {
				class := r.VReg.Type.RegClass()
				if !a.trees[class].insert(r.Interval(), r) {
					panic(fmt.Sprintf("BUG: validated range %s not insertable", r))
				}
			} else {
				a.pending.push(r)
			}
		}
	}
	return nil
}

// runPending is phase 1: place ranges in priority order, splitting or
// deferring to the second chance queue on failure.
func (a *Allocator) runPending() {
	for !a.pending.empty() {
		r := a.pending.pop()
		if buildoptions.RegAllocLoggingEnabled {
			fmt.Printf("pending: popped %s\n", r)
		}
		if preg, ok := a.runOnce(r); ok {
			a.assign(r, preg)
		}
	}
}

// runSecondChance is phase 2: one more placement attempt per deferred
// range; failure here is final and spills the range's bundle.
func (a *Allocator) runSecondChance() {
	for !a.secondChance.empty() {
		r := a.secondChance.pop()
		if buildoptions.RegAllocLoggingEnabled {
			fmt.Printf("second chance: popped %s\n", r)
		}
		class := r.VReg.Type.RegClass()
		a.trees[class].overlap(r.Interval(), &a.interferences)
		if !hasIdenticalResident(r, a.interferences) {
			if preg, ok := a.tryAssignMightEvict(r, a.interferences); ok {
				a.assign(r, preg)
				continue
			}
		}
		if buildoptions.RegAllocLoggingEnabled {
			fmt.Printf("spilling %s\n", r)
		}
		r.parent.allocation = AllocSpillUnassigned()
		a.spilled = append(a.spilled, r)
	}
}

func (a *Allocator) assign(r *LiveRange, preg Register) {
	r.parent.allocation = AllocReg(preg)
	class := r.VReg.Type.RegClass()
	if !a.trees[class].insert(r.Interval(), r) {
		panic(fmt.Sprintf("BUG: assigned range %s collides in the %s index", r, class))
	}
	if buildoptions.RegAllocLoggingEnabled {
		fmt.Printf("assigned %s to %s\n%s", preg, r, a.trees[class].dump())
	}
}

// runOnce makes one placement attempt for r: assign (evicting if
// profitable), else split, else defer to the second chance queue.
func (a *Allocator) runOnce(r *LiveRange) (Register, bool) {
	class := r.VReg.Type.RegClass()
	a.trees[class].overlap(r.Interval(), &a.interferences)

	// A resident range over the exact same interval cannot share the index
	// with r, so r must be reshaped or deferred regardless of free
	// registers.
	if !hasIdenticalResident(r, a.interferences) {
		if preg, ok := a.tryAssignMightEvict(r, a.interferences); ok {
			return preg, true
		}
	}

	at, ok := findSplitSpot(r, a.interferences)
	if !ok || !a.trySplit(r, at) {
		a.secondChance.push(r)
	}
	return Register{}, false
}

func hasIdenticalResident(r *LiveRange, interferences []*LiveRange) bool {
	for _, intf := range interferences {
		if intf.Interval() == r.Interval() {
			return true
		}
	}
	return false
}

// unusedReg scans the class's register list in declaration order and
// returns the first register not claimed by any interference.
func (a *Allocator) unusedReg(class RegClass, interferences []*LiveRange) (Register, bool) {
	var claimed regSet
	for _, intf := range interferences {
		if alloc := intf.Allocation(); alloc.IsReg() {
			claimed.add(alloc.Reg().Encoding)
		}
	}
	for _, reg := range a.isa.Registers[class] {
		if !claimed.has(reg.Encoding) {
			return reg, true
		}
	}
	return Register{}, false
}

// evictionCosts tallies, per register in declaration order, the summed
// spill cost of the interferences assigned to it.
func (a *Allocator) evictionCosts(class RegClass, interferences []*LiveRange) []uint64 {
	costs := a.costs[:0]
	for range a.isa.Registers[class] {
		costs = append(costs, 0)
	}
	for _, intf := range interferences {
		alloc := intf.Allocation()
		if !alloc.IsReg() {
			continue
		}
		pos := a.regPos[class][alloc.Reg().Encoding]
		if pos < 0 {
			// Pre-assigned to a register outside the allocatable set; it
			// can never be an eviction candidate.
			continue
		}
		costs[pos] += intf.SpillCost
	}
	a.costs = costs
	return costs
}

// tryAssignMightEvict returns a register for r, either a free one or the
// cheapest occupied one when evicting its occupants costs strictly less
// than spilling r. Evicted ranges are removed from the index and re-queued
// on the second chance queue.
func (a *Allocator) tryAssignMightEvict(r *LiveRange, interferences []*LiveRange) (Register, bool) {
	class := r.VReg.Type.RegClass()
	if preg, ok := a.unusedReg(class, interferences); ok {
		return preg, true
	}

	costs := a.evictionCosts(class, interferences)
	best, bestCost := -1, uint64(math.MaxUint64)
	for i, cost := range costs {
		if cost < bestCost {
			best, bestCost = i, cost
		}
	}
	if best < 0 {
		return Register{}, false
	}

	if bestCost < r.SpillCost {
		reg := a.isa.Registers[class][best]
		a.evictFor(reg, interferences)
		return reg, true
	}
	return Register{}, false
}

// evictFor removes from the index every interference assigned to reg. The
// evicted bundles keep their stale register allocation; the re-queued
// ranges either win a register again or are spilled in the second chance
// phase.
func (a *Allocator) evictFor(reg Register, interferences []*LiveRange) {
	for _, intf := range interferences {
		if alloc := intf.Allocation(); alloc.IsReg() && alloc.Reg() == reg {
			if buildoptions.RegAllocLoggingEnabled {
				fmt.Printf("evicting %s from %s\n", intf, reg)
			}
			a.trees[reg.Class].remove(intf.Interval())
			a.secondChance.push(intf)
		}
	}
}

// findSplitSpot returns the code point at which r should be split: the
// first point where an interference begins inside r, or, when the
// interference already covers r's start, the first point that separates
// r's start from its remaining uses.
func findSplitSpot(r *LiveRange, interferences []*LiveRange) (CodePoint, bool) {
	first := CodePointInvalid
	for _, intf := range interferences {
		if at := intf.Start.Max(r.Start); at < first {
			first = at
		}
	}
	if first == CodePointInvalid {
		return 0, false
	}
	if first != r.Start {
		return first, true
	}
	if len(r.Uses) == 0 || r.Uses[0] == r.Start || r.Uses[0] == r.End {
		return r.Start.NextInst(), true
	}
	return r.Uses[0], true
}

// trySplit splits r's bundle at the given point into two new bundles,
// retiring the original. When the split cut a range mid-interval, the two
// fresh edge ranges re-enter the pending queue; ranges carried over intact
// keep whatever index entries they already had.
func (a *Allocator) trySplit(r *LiveRange, at CodePoint) bool {
	b := r.parent
	if b.IsMinimal() {
		return false
	}
	// No room for a left half (also keeps PrevInst from underflowing).
	if at.Early() <= b.Start().Early() || at > b.End() {
		return false
	}

	left := b.truncated(a, Interval{b.Start(), at.PrevInst().Late()})
	right := b.truncated(a, Interval{at, b.End()})
	if left == nil || right == nil {
		return false
	}

	if buildoptions.RegAllocLoggingEnabled {
		fmt.Printf("split %s at %s\n", b, at)
	}

	if left.NumRanges()+right.NumRanges() != b.NumRanges() {
		a.pending.push(left.LastRange())
		a.pending.push(right.FirstRange())
	}

	// b is retired from here on; every surviving range must point at its
	// new owner before anyone can observe it.
	for _, lr := range left.ranges {
		lr.parent = left
	}
	for _, rr := range right.ranges {
		rr.parent = right
	}
	return true
}

// extractRanges drains the per-class indices (ascending interval order,
// classes in declaration order) and appends the spilled ranges.
func (a *Allocator) extractRanges() []*LiveRange {
	var out []*LiveRange
	for class := range a.trees {
		out = a.trees[class].extractAll(out)
	}
	return append(out, a.spilled...)
}
