package regalloc

import "container/heap"

// rangeQueue is a max-priority queue of live ranges ordered by spill cost,
// most expensive first. Ties are broken by (vreg ID, start) so that a run is
// fully deterministic. Based on the example in container/heap; the heap
// interface methods are hidden behind the wrapper as in the usual pattern.
type rangeQueue struct {
	h rangeHeap
}

func (q *rangeQueue) push(r *LiveRange) {
	heap.Push(&q.h, r)
}

func (q *rangeQueue) pop() *LiveRange {
	return heap.Pop(&q.h).(*LiveRange)
}

func (q *rangeQueue) empty() bool {
	return len(q.h) == 0
}

func (q *rangeQueue) reset() {
	q.h = q.h[:0]
}

type rangeHeap []*LiveRange

func (h rangeHeap) Len() int { return len(h) }

func (h rangeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.SpillCost != b.SpillCost {
		return a.SpillCost > b.SpillCost
	}
	if a.VReg.ID != b.VReg.ID {
		return a.VReg.ID < b.VReg.ID
	}
	return a.Start < b.Start
}

func (h rangeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *rangeHeap) Push(x any) {
	*h = append(*h, x.(*LiveRange))
}

func (h *rangeHeap) Pop() any {
	old := *h
	n := len(old) - 1
	r := old[n]
	old[n] = nil
	*h = old[:n]
	return r
}
