// Package bipart decides whether two unrooted binary topologies over the
// same object set are the same tree, independent of which leaf each was
// rooted at and independent of the arbitrary branch numbering either arena
// happens to use. Two trees are equal iff they induce the same set of
// bipartitions (equivalently, the same set of "object ids below this
// internal branch" sets, once both are viewed from a common root).
package bipart

import (
	"sort"

	"golang.org/x/exp/slices"

	"github.com/lvb-project/lvb/tree"
)

// Comparator owns reusable scratch storage for one object/character count,
// mirroring the reference implementation's lazily-allocated, reused
// sset_1/sset_2 arrays — but scoped to a value instead of file statics, so
// independent comparators (e.g. on different goroutines) never collide.
type Comparator struct {
	n, m    int
	scratch *tree.Tree
	sets1   [][]int
	sets2   [][]int
}

// New returns a Comparator with no scratch storage allocated yet; it is
// sized lazily on first use.
func New() *Comparator { return &Comparator{} }

func (c *Comparator) ensure(n, m int) {
	if c.scratch != nil && c.n == n && c.m == m {
		return
	}
	c.n, c.m = n, m
	c.scratch = tree.Alloc(n, m)

	nsets := n - 3
	maxPerSet := n - 2
	c.sets1 = make([][]int, nsets)
	c.sets2 = make([][]int, nsets)
	for i := 0; i < nsets; i++ {
		c.sets1[i] = make([]int, 0, maxPerSet)
		c.sets2[i] = make([]int, 0, maxPerSet)
	}
}

// Equal reports whether t1 and t2 represent the same unrooted topology. t1
// and t2 must describe the same object count and character count.
func (c *Comparator) Equal(t1, t2 *tree.Tree) bool {
	if t1.N != t2.N || t1.M != t2.M {
		tree.Fatalf("bipart: cannot compare trees of sizes (N=%d,M=%d) and (N=%d,M=%d)", t1.N, t1.M, t2.N, t2.M)
	}
	c.ensure(t1.N, t1.M)

	t2.CopyInto(c.scratch)
	root1 := int(t1.Root)
	root2 := int(c.scratch.Root)
	if root1 != root2 {
		tree.Reroot(c.scratch, root2, root1)
	}

	fillSets(t1, root1, c.sets1)
	fillSets(c.scratch, root1, c.sets2)

	return setsEqual(c.sets1, c.sets2)
}

// fillSets extracts, into dest, the object-id set below each internal,
// non-root branch of t (rooted at root), in traversal order; setsEqual does
// the sorting. dest must already be
// sized to exactly t.N-3 rows with enough capacity per row; each row is
// reset before being refilled.
func fillSets(t *tree.Tree, root int, dest [][]int) {
	idx := 0
	var walk func(branch int)
	walk = func(branch int) {
		if t.Branches[branch].Left == tree.Unset {
			return // leaf: contributes no set of its own
		}
		dest[idx] = dest[idx][:0]
		getObjs(t, branch, &dest[idx])
		idx++
		walk(int(t.Branches[branch].Left))
		walk(int(t.Branches[branch].Right))
	}
	walk(int(t.Branches[root].Left))
	walk(int(t.Branches[root].Right))
}

// getObjs appends every object id in branch's subtree to out.
func getObjs(t *tree.Tree, branch int, out *[]int) {
	left := t.Branches[branch].Left
	if left == tree.Unset {
		*out = append(*out, int(t.Branches[branch].ObjNo))
		return
	}
	getObjs(t, int(left), out)
	getObjs(t, int(t.Branches[branch].Right), out)
}

// setsEqual sorts both signatures into a canonical order (each row
// ascending, rows ordered by length then lexicographically) and compares
// them row by row.
func setsEqual(a, b [][]int) bool {
	sortSignature(a)
	sortSignature(b)

	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func sortSignature(sets [][]int) {
	for i := range sets {
		slices.Sort(sets[i])
	}
	sort.Slice(sets, func(i, j int) bool {
		if len(sets[i]) != len(sets[j]) {
			return len(sets[i]) < len(sets[j])
		}
		for k := range sets[i] {
			if sets[i][k] != sets[j][k] {
				return sets[i][k] < sets[j][k]
			}
		}
		return false
	})
}
