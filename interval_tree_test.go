package regalloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func treeRange(id uint32, iv Interval) *LiveRange {
	return &LiveRange{Start: iv.Low, End: iv.High, VReg: VReg{ID: id, Type: TypeI64}}
}

func TestIntervalTree_insertRejectsDuplicates(t *testing.T) {
	tree := newIntervalTree()
	require.True(t, tree.insert(Interval{0, 4}, treeRange(0, Interval{0, 4})))
	require.True(t, tree.insert(Interval{6, 10}, treeRange(1, Interval{6, 10})))
	require.False(t, tree.insert(Interval{0, 4}, treeRange(2, Interval{0, 4})))
	require.Equal(t, 2, tree.size)
}

func TestIntervalTree_overlapAscending(t *testing.T) {
	tree := newIntervalTree()
	intervals := []Interval{{8, 12}, {0, 4}, {2, 20}, {14, 16}, {6, 7}, {0, 1}}
	for i, iv := range intervals {
		require.True(t, tree.insert(iv, treeRange(uint32(i), iv)))
	}

	for _, tc := range []struct {
		name  string
		query Interval
		exp   []Interval
	}{
		{name: "all", query: Interval{0, 20}, exp: []Interval{{0, 1}, {0, 4}, {2, 20}, {6, 7}, {8, 12}, {14, 16}}},
		{name: "point-like", query: Interval{3, 3}, exp: []Interval{{0, 4}, {2, 20}}},
		{name: "right half", query: Interval{13, 20}, exp: []Interval{{2, 20}, {14, 16}}},
		{name: "gap", query: Interval{5, 5}, exp: []Interval{{2, 20}}},
		{name: "beyond", query: Interval{30, 40}, exp: nil},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var out []*LiveRange
			tree.overlap(tc.query, &out)
			var got []Interval
			for _, r := range out {
				got = append(got, r.Interval())
			}
			require.Equal(t, tc.exp, got)
		})
	}
}

func TestIntervalTree_remove(t *testing.T) {
	tree := newIntervalTree()
	intervals := []Interval{{8, 12}, {0, 4}, {2, 20}, {14, 16}, {6, 7}}
	for i, iv := range intervals {
		require.True(t, tree.insert(iv, treeRange(uint32(i), iv)))
	}

	tree.remove(Interval{2, 20})
	require.Equal(t, 4, tree.size)
	// Removing a missing interval is a no-op.
	tree.remove(Interval{2, 20})
	tree.remove(Interval{100, 110})
	require.Equal(t, 4, tree.size)

	var out []*LiveRange
	tree.overlap(Interval{0, 20}, &out)
	var got []Interval
	for _, r := range out {
		got = append(got, r.Interval())
	}
	require.Equal(t, []Interval{{0, 4}, {6, 7}, {8, 12}, {14, 16}}, got)
}

func TestIntervalTree_eraseIntersecting(t *testing.T) {
	tree := newIntervalTree()
	intervals := []Interval{{0, 4}, {2, 20}, {6, 7}, {8, 12}, {14, 16}, {22, 24}}
	for i, iv := range intervals {
		require.True(t, tree.insert(iv, treeRange(uint32(i), iv)))
	}

	tree.eraseIntersecting(Interval{6, 14})

	var out []*LiveRange
	tree.overlap(Interval{0, 30}, &out)
	var got []Interval
	for _, r := range out {
		got = append(got, r.Interval())
	}
	require.Equal(t, []Interval{{0, 4}, {22, 24}}, got)
}

func TestIntervalTree_extractAll(t *testing.T) {
	tree := newIntervalTree()
	intervals := []Interval{{8, 12}, {0, 4}, {14, 16}, {6, 7}}
	for i, iv := range intervals {
		require.True(t, tree.insert(iv, treeRange(uint32(i), iv)))
	}

	var got []Interval
	for _, r := range tree.extractAll(nil) {
		got = append(got, r.Interval())
	}
	require.Equal(t, []Interval{{0, 4}, {6, 7}, {8, 12}, {14, 16}}, got)

	// Drained: empty and reusable.
	require.Equal(t, 0, tree.size)
	require.Nil(t, tree.extractAll(nil))
	require.True(t, tree.insert(Interval{0, 2}, treeRange(9, Interval{0, 2})))
}

// TestIntervalTree_bruteForce cross-checks overlap and removal against a
// naive map-based implementation over a randomized workload.
func TestIntervalTree_bruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := newIntervalTree()
	naive := map[Interval]*LiveRange{}

	for i := 0; i < 500; i++ {
		low := CodePoint(rng.Intn(200)) * 2
		iv := Interval{low, low + CodePoint(rng.Intn(20))*2}
		r := treeRange(uint32(i), iv)
		_, dup := naive[iv]
		require.Equal(t, !dup, tree.insert(iv, r))
		if !dup {
			naive[iv] = r
		}
	}

	check := func() {
		for q := 0; q < 50; q++ {
			low := CodePoint(rng.Intn(220)) * 2
			query := Interval{low, low + CodePoint(rng.Intn(30))*2}

			var exp []Interval
			for iv := range naive {
				if iv.Overlaps(query) {
					exp = append(exp, iv)
				}
			}
			sortIntervals(exp)

			var out []*LiveRange
			tree.overlap(query, &out)
			var got []Interval
			for _, r := range out {
				got = append(got, r.Interval())
			}
			require.Equal(t, exp, got, "query %s", query)
		}
	}

	check()

	// Remove half the entries and re-check.
	var all []Interval
	for iv := range naive {
		all = append(all, iv)
	}
	sortIntervals(all)
	for i, iv := range all {
		if i%2 == 0 {
			tree.remove(iv)
			delete(naive, iv)
		}
	}
	check()
}

func sortIntervals(ivs []Interval) {
	for i := 1; i < len(ivs); i++ {
		for j := i; j > 0 && ivs[j].compare(ivs[j-1]) < 0; j-- {
			ivs[j], ivs[j-1] = ivs[j-1], ivs[j]
		}
	}
}

func TestIntervalTree_dump(t *testing.T) {
	tree := newIntervalTree()
	require.True(t, tree.insert(Interval{0, 4}, treeRange(0, Interval{0, 4})))
	require.True(t, tree.insert(Interval{6, 10}, treeRange(1, Interval{6, 10})))

	dump := tree.dump()
	require.Contains(t, dump, "[0, 4]")
	require.Contains(t, dump, "[6, 10]")
}
