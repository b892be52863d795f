package regalloc

import (
	"github.com/xlab/treeprint"

	"github.com/tetratelabs/regalloc/internal/pool"
)

// intervalTree is the per-register-class index of currently-assigned live
// ranges. It is a binary search tree keyed by interval (Low, then High),
// with each node augmented by the maximum High in its subtree so that
// overlap queries can prune whole subtrees.
type intervalTree struct {
	root      *intervalTreeNode
	allocator pool.Pool[intervalTreeNode]
	size      int
}

type intervalTreeNode struct {
	interval    Interval
	value       *LiveRange
	maxHigh     CodePoint
	left, right *intervalTreeNode
}

func newIntervalTree() intervalTree {
	return intervalTree{allocator: pool.NewPool[intervalTreeNode](resetIntervalTreeNode)}
}

func resetIntervalTreeNode(n *intervalTreeNode) {
	n.interval = Interval{}
	n.value = nil
	n.maxHigh = 0
	n.left, n.right = nil, nil
}

// insert adds an entry for the given interval. An entry whose interval
// exactly coincides with an existing one is rejected, and insert returns
// false.
func (t *intervalTree) insert(interval Interval, value *LiveRange) bool {
	root, inserted := t.insertAt(t.root, interval, value)
	t.root = root
	if inserted {
		t.size++
	}
	return inserted
}

func (t *intervalTree) insertAt(n *intervalTreeNode, interval Interval, value *LiveRange) (*intervalTreeNode, bool) {
	if n == nil {
		nn := t.allocator.Allocate()
		nn.interval = interval
		nn.value = value
		nn.maxHigh = interval.High
		return nn, true
	}
	var inserted bool
	switch cmp := interval.compare(n.interval); {
	case cmp < 0:
		n.left, inserted = t.insertAt(n.left, interval, value)
	case cmp > 0:
		n.right, inserted = t.insertAt(n.right, interval, value)
	default:
		return n, false
	}
	if inserted && n.maxHigh < interval.High {
		n.maxHigh = interval.High
	}
	return n, inserted
}

// overlap appends to *out every stored range whose interval overlaps the
// argument, in ascending order of the stored interval's low end. *out is
// reset first so callers can reuse the same scratch slice across queries.
func (t *intervalTree) overlap(interval Interval, out *[]*LiveRange) {
	*out = (*out)[:0]
	t.root.collectOverlaps(interval, out)
}

func (n *intervalTreeNode) collectOverlaps(interval Interval, out *[]*LiveRange) {
	if n == nil {
		return
	}
	// Anything in this subtree ends before the query starts; skip it all.
	if n.maxHigh < interval.Low {
		return
	}
	n.left.collectOverlaps(interval, out)
	if n.interval.Overlaps(interval) {
		*out = append(*out, n.value)
	}
	// Keys to the right start at or after n's low; once that is beyond the
	// query's high bound nothing there can overlap.
	if n.interval.Low <= interval.High {
		n.right.collectOverlaps(interval, out)
	}
}

// remove deletes the entry whose interval exactly matches the argument. It
// is a no-op when no such entry exists.
func (t *intervalTree) remove(interval Interval) {
	root, removed := t.removeAt(t.root, interval)
	t.root = root
	if removed {
		t.size--
	}
}

func (t *intervalTree) removeAt(n *intervalTreeNode, interval Interval) (*intervalTreeNode, bool) {
	if n == nil {
		return nil, false
	}
	var removed bool
	switch cmp := interval.compare(n.interval); {
	case cmp < 0:
		n.left, removed = t.removeAt(n.left, interval)
	case cmp > 0:
		n.right, removed = t.removeAt(n.right, interval)
	default:
		switch {
		case n.left == nil:
			return n.right, true
		case n.right == nil:
			return n.left, true
		default:
			// Two children: take over the in-order successor's entry, then
			// delete that entry from the right subtree.
			succ := n.right
			for succ.left != nil {
				succ = succ.left
			}
			n.interval, n.value = succ.interval, succ.value
			n.right, _ = t.removeAt(n.right, succ.interval)
			n.recomputeMaxHigh()
			return n, true
		}
	}
	if removed {
		n.recomputeMaxHigh()
	}
	return n, removed
}

func (n *intervalTreeNode) recomputeMaxHigh() {
	m := n.interval.High
	if n.left != nil && n.left.maxHigh > m {
		m = n.left.maxHigh
	}
	if n.right != nil && n.right.maxHigh > m {
		m = n.right.maxHigh
	}
	n.maxHigh = m
}

// eraseIntersecting removes every entry overlapping the argument.
func (t *intervalTree) eraseIntersecting(interval Interval) {
	var doomed []Interval
	t.root.collectOverlapIntervals(interval, &doomed)
	for _, iv := range doomed {
		t.remove(iv)
	}
}

func (n *intervalTreeNode) collectOverlapIntervals(interval Interval, out *[]Interval) {
	if n == nil || n.maxHigh < interval.Low {
		return
	}
	n.left.collectOverlapIntervals(interval, out)
	if n.interval.Overlaps(interval) {
		*out = append(*out, n.interval)
	}
	if n.interval.Low <= interval.High {
		n.right.collectOverlapIntervals(interval, out)
	}
}

// extractAll drains the index, appending the stored ranges to out in
// ascending interval order, and returns the extended slice.
func (t *intervalTree) extractAll(out []*LiveRange) []*LiveRange {
	out = t.root.appendInOrder(out)
	t.reset()
	return out
}

func (n *intervalTreeNode) appendInOrder(out []*LiveRange) []*LiveRange {
	if n == nil {
		return out
	}
	out = n.left.appendInOrder(out)
	out = append(out, n.value)
	return n.right.appendInOrder(out)
}

func (t *intervalTree) reset() {
	t.root = nil
	t.allocator.Reset()
	t.size = 0
}

// dump renders the index as a tree for debug logging.
func (t *intervalTree) dump() string {
	tree := treeprint.New()
	tree.SetValue("interval index")
	t.root.dumpInto(tree)
	return tree.String()
}

func (n *intervalTreeNode) dumpInto(tree treeprint.Tree) {
	if n == nil {
		return
	}
	branch := tree.AddMetaBranch(n.interval.String(), n.value.String())
	n.left.dumpInto(branch)
	n.right.dumpInto(branch)
}
