package tree

import "github.com/lvb-project/lvb/rng"

// Reroot moves the root from oldRoot to newRoot, which must be a leaf
// branch other than the current root. It walks the original parent chain
// from newRoot up to oldRoot, reversing each edge as it goes (the walk
// reads oldParent throughout, since Parent fields are being rewritten
// underfoot), then leaves oldRoot as a plain leaf with both child slots
// empty and newRoot holding the two children a root always has. Every internal
// branch is marked dirty, since the reversal changes which branch is
// "above" which all along the reversed path. It returns oldRoot, matching
// the original's return convention.
func Reroot(t *Tree, oldRoot, newRoot int) Index {
	if newRoot >= t.N {
		Fatalf("tree %s: reroot target %d is not a leaf", t.ID, newRoot)
	}
	if newRoot == oldRoot {
		Fatalf("tree %s: reroot target %d is already the root", t.ID, newRoot)
	}

	oldParent := make([]Index, t.B)
	for i := range t.Branches {
		oldParent[i] = t.Branches[i].Parent
	}

	current := Index(newRoot)
	previous := Unset
	for int(current) != oldRoot {
		if current == Unset {
			Fatalf("tree %s: reroot walk from %d never reached old root %d", t.ID, newRoot, oldRoot)
		}
		parent := oldParent[current]
		var sister Index
		switch current {
		case t.Branches[parent].Left:
			sister = t.Branches[parent].Right
		case t.Branches[parent].Right:
			sister = t.Branches[parent].Left
		default:
			Fatalf("tree %s: branch %d claims parent %d, which does not claim it as a child", t.ID, current, parent)
		}

		t.Branches[current].Parent = previous
		t.Branches[current].Left = parent
		t.Branches[current].Right = sister
		t.Branches[parent].Parent = current
		t.Branches[sister].Parent = current

		previous = current
		current = parent
	}

	t.Branches[oldRoot].Left = Unset
	t.Branches[oldRoot].Right = Unset

	for i := t.N; i < t.B; i++ {
		t.MarkDirty(Index(i))
	}

	t.Root = Index(newRoot)
	return Index(oldRoot)
}

// ArbReroot rerolls the root to a uniformly random leaf other than
// oldRoot and returns the new root's index.
func ArbReroot(r *rng.Source, t *Tree, oldRoot int) Index {
	var newRoot int
	for {
		newRoot = r.IntN(t.N - 1)
		if newRoot != oldRoot {
			break
		}
	}
	Reroot(t, oldRoot, newRoot)
	return Index(newRoot)
}
