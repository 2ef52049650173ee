package tree

import "github.com/lvb-project/lvb/rng"

// RandTopology grows t from a 3-leaf star into a random fully-resolved
// binary topology on t.N leaves: branch 0 is the root and always starts
// with both children set to the first two leaves allocated; the tree then
// grows one cherry at a time by picking a uniformly random current leaf
// (never the root itself) and sprouting two new leaves under it. It returns
// a mask identifying which branch indices are leaves at the point growth
// stops, for RandLeaf to assign object ids over.
func RandTopology(r *rng.Source, t *Tree) []bool {
	n, b := t.N, t.B
	isLeaf := make([]bool, b)

	t.Branches[0].Parent = Unset
	isLeaf[0] = true
	nextfree := 1

	t.Branches[0].Left = Index(nextfree)
	t.Branches[nextfree].Parent = 0
	isLeaf[nextfree] = true
	nextfree++

	t.Branches[0].Right = Index(nextfree)
	t.Branches[nextfree].Parent = 0
	isLeaf[nextfree] = true
	nextfree++

	leaves := 3
	for leaves < n {
		var togrow int
		for {
			togrow = 1 + r.IntN(nextfree-2)
			if isLeaf[togrow] {
				break
			}
		}

		t.Branches[togrow].Left = Index(nextfree)
		t.Branches[nextfree].Parent = Index(togrow)
		isLeaf[nextfree] = true
		nextfree++

		t.Branches[togrow].Right = Index(nextfree)
		t.Branches[nextfree].Parent = Index(togrow)
		isLeaf[nextfree] = true
		nextfree++

		isLeaf[togrow] = false
		leaves++
	}

	if nextfree != b {
		Fatalf("tree %s: RandTopology allocated %d branches, want %d", t.ID, nextfree, b)
	}
	t.Root = 0
	return isLeaf
}

// RandLeaf assigns each leaf branch named in isLeaf a distinct object id in
// [0, t.N), chosen by rejection sampling, mirroring randleaf.
func RandLeaf(r *rng.Source, t *Tree, isLeaf []bool) {
	n := t.N
	used := make([]bool, n)
	for i := range t.Branches {
		t.Branches[i].ObjNo = Unset
	}

	assigned := 0
	for i := 0; i < t.B; i++ {
		if !isLeaf[i] {
			continue
		}
		var obj int
		for {
			obj = r.IntN(n - 1)
			if !used[obj] {
				break
			}
		}
		t.Branches[i].ObjNo = Index(obj)
		used[obj] = true
		assigned++
	}
	if assigned != n {
		Fatalf("tree %s: RandLeaf assigned %d of %d leaves", t.ID, assigned, n)
	}
}

// rewriteRefs replaces every occurrence of was with now across every
// branch's Parent/Left/Right fields.
func rewriteRefs(t *Tree, was, now Index) {
	for i := range t.Branches {
		if t.Branches[i].Parent == was {
			t.Branches[i].Parent = now
		}
		if t.Branches[i].Left == was {
			t.Branches[i].Left = now
		}
		if t.Branches[i].Right == was {
			t.Branches[i].Right = now
		}
	}
}

// Canonicalize relabels branches in place so that leaf branch i always
// carries object id i, by repeatedly swapping a leaf's branch record with
// whichever branch currently holds its object id, until no swap is needed.
// Two out-of-range sentinels stand in for "the other side of the swap"
// while references are being rewritten, so that a branch referencing both
// sides of a swap is never aliased mid-rewrite. Once relabelling settles,
// it re-homes every branch's SSet view (swapping whole Branch values moved
// SSet slice headers along for the ride) and reroots the tree to branch 0
// if construction didn't already leave the root there.
func Canonicalize(t *Tree) {
	n, b := t.N, t.B
	impossible1 := Index(b)
	impossible2 := Index(b + 1)

	for {
		swapped := false
		for i := 0; i < b; i++ {
			objNo := t.Branches[i].ObjNo
			if objNo == Unset || int(objNo) == i {
				continue
			}
			obj := int(objNo)

			tmp1 := t.Branches[obj]
			rewriteRefs(t, Index(obj), impossible1)
			tmp2 := t.Branches[i]
			rewriteRefs(t, Index(i), impossible2)

			if tmp1.Parent == Index(i) {
				tmp1.Parent = impossible2
			}
			if tmp1.Left == Index(i) {
				tmp1.Left = impossible2
			}
			if tmp1.Right == Index(i) {
				tmp1.Right = impossible2
			}
			if tmp2.Parent == objNo {
				tmp2.Parent = impossible1
			}
			if tmp2.Left == objNo {
				tmp2.Left = impossible1
			}
			if tmp2.Right == objNo {
				tmp2.Right = impossible1
			}

			t.Branches[i] = tmp1
			t.Branches[obj] = tmp2
			rewriteRefs(t, impossible1, Index(i))
			rewriteRefs(t, impossible2, Index(obj))
			swapped = true
		}
		if !swapped {
			break
		}
	}

	for i := range t.Branches {
		t.Branches[i].SSet = t.ssets[i*t.M : (i+1)*t.M]
	}

	root := Unset
	for i := 0; i < n; i++ {
		if t.Branches[i].Parent == Unset {
			if root != Unset {
				Fatalf("tree %s: canonicalization found more than one root candidate (%d and %d)", t.ID, root, i)
			}
			root = Index(i)
		}
	}
	if root == Unset {
		Fatalf("tree %s: canonicalization found no root", t.ID)
	}

	if root != 0 {
		Reroot(t, int(root), 0)
	} else {
		t.Root = 0
	}

	for i := 0; i < n; i++ {
		if t.Branches[i].ObjNo != Index(i) {
			Fatalf("tree %s: canonicalization left leaf branch %d holding object %d", t.ID, i, t.Branches[i].ObjNo)
		}
	}
	for i := n; i < b; i++ {
		if t.Branches[i].ObjNo != Unset {
			Fatalf("tree %s: canonicalization left internal branch %d holding object %d", t.ID, i, t.Branches[i].ObjNo)
		}
	}
}

// RandTree builds a random, canonical starting topology over n objects of m
// characters: RandTopology grows the shape, RandLeaf assigns object
// identities, and Canonicalize relabels and reroots so leaf branch i always
// holds object i and the root is branch 0. Shapes follow RandTopology's
// leaf-by-leaf growth, which is not uniform over unrooted topologies.
func RandTree(r *rng.Source, n, m int) *Tree {
	t := Alloc(n, m)
	isLeaf := RandTopology(r, t)
	RandLeaf(r, t, isLeaf)
	Canonicalize(t)
	return t
}
