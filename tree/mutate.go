package tree

import "github.com/lvb-project/lvb/rng"

// applyNNI performs the local rearrangement at internal, non-root branch u
// in place: u's parent v has another child c (u's sister); u itself has
// children a (Left) and b (Right). The "heads" rearrangement swaps b and c
// between u and v; "tails" swaps a and c instead. Exactly one of u's former
// children keeps its place under u; the other trades places with its aunt.
// u itself is then re-marked dirty, along with every ancestor up to (not
// including) the root.
func applyNNI(t *Tree, u int, heads bool) {
	uIdx := Index(u)
	v := t.Branches[uIdx].Parent
	a := t.Branches[uIdx].Left
	b := t.Branches[uIdx].Right

	var c Index
	vLeftIsU := t.Branches[v].Left == uIdx
	if vLeftIsU {
		c = t.Branches[v].Right
	} else {
		c = t.Branches[v].Left
	}

	if heads {
		if vLeftIsU {
			t.Branches[v].Right = b
		} else {
			t.Branches[v].Left = b
		}
		t.Branches[uIdx].Left = a
		t.Branches[uIdx].Right = c
		t.Branches[a].Parent = uIdx
		t.Branches[c].Parent = uIdx
		t.Branches[b].Parent = v
	} else {
		if vLeftIsU {
			t.Branches[v].Right = a
		} else {
			t.Branches[v].Left = a
		}
		t.Branches[uIdx].Left = b
		t.Branches[uIdx].Right = c
		t.Branches[b].Parent = uIdx
		t.Branches[c].Parent = uIdx
		t.Branches[a].Parent = v
	}

	t.MarkDirtyBelow(uIdx)
}

// NNIDeterministic copies src into dst and applies a nearest-neighbour
// interchange at branch u, with heads/tails chosen explicitly by the
// caller. u must be an internal, non-root branch. It is mainly useful for
// tests that need a reproducible rearrangement.
func NNIDeterministic(dst, src *Tree, u int, heads bool) {
	if u < src.N {
		Fatalf("tree %s: NNI requires an internal branch, got leaf %d", src.ID, u)
	}
	if Index(u) == src.Root {
		Fatalf("tree %s: NNI branch %d must not be the root", src.ID, u)
	}
	src.CopyInto(dst)
	applyNNI(dst, u, heads)
}

// NNI copies src into dst and applies a random nearest-neighbour
// interchange: a uniformly random internal branch (the root is never an
// internal branch, so no exclusion is needed beyond the index range) and a
// coin flip for heads vs. tails. src must have at least 4 leaves, since
// with only 3 there is no internal branch to pick.
func NNI(r *rng.Source, dst, src *Tree) {
	if src.N < 4 {
		Fatalf("tree %s: NNI requires at least 4 leaves, got %d", src.ID, src.N)
	}
	u := r.IntN(src.B-src.N-1) + src.N
	heads := r.Float64() < 0.5
	src.CopyInto(dst)
	applyNNI(dst, u, heads)
}

// clearBranch resets a branch to its just-allocated state: unlinked and
// dirty. Used to recycle a freed internal branch during SPR.
func clearBranch(t *Tree, b Index) {
	t.Branches[b].Parent = Unset
	t.Branches[b].Left = Unset
	t.Branches[b].Right = Unset
	t.Branches[b].Changes = Unset
	t.MarkDirty(b)
}

// isDescendant reports whether ancestor lies on candidate's parent chain,
// i.e. whether candidate is a proper descendant of ancestor, so that
// re-attaching ancestor at candidate would attach it beneath itself.
func isDescendant(t *Tree, ancestor, candidate int) bool {
	p := t.Branches[candidate].Parent
	for p != Unset {
		if int(p) == ancestor {
			return true
		}
		p = t.Branches[p].Parent
	}
	return false
}

// maxSPRAttempts bounds the rejection-sampling loops in SPR. The valid
// destination set can be empty for very small trees; without a bound the
// loop would spin forever instead of falling back to a no-op.
const maxSPRAttempts = 10000

// SPR copies src into dst and applies a random subtree prune-and-regraft:
// a branch src_ (never the root or either of its two children) is excised
// together with its parent, its sister is spliced up to close the gap, and
// the freed parent branch is reused as the new internal node inserted
// above a randomly chosen destination branch (never src_ itself, its old
// parent or sister, the root, or any of src_'s own descendants). If no
// valid source or destination can be found within the attempt budget (only
// possible for very small trees), dst is left as an unmutated copy of src.
func SPR(r *rng.Source, dst, src *Tree) {
	if src.N < 4 {
		Fatalf("tree %s: SPR requires at least 4 leaves, got %d", src.ID, src.N)
	}
	src.CopyInto(dst)
	t := dst

	root := int(t.Root)
	rootLeft := int(t.Branches[root].Left)
	rootRight := int(t.Branches[root].Right)

	srcBranch := -1
	for attempt := 0; attempt < maxSPRAttempts; attempt++ {
		cand := r.IntN(t.B - 1)
		if cand != root && cand != rootLeft && cand != rootRight {
			srcBranch = cand
			break
		}
	}
	if srcBranch == -1 {
		return
	}

	srcParent := int(t.Branches[srcBranch].Parent)
	srcSister := int(sibling(t, Index(srcBranch)))
	if srcParent == int(Unset) || srcSister == int(Unset) {
		Fatalf("tree %s: SPR source %d has no parent/sister", t.ID, srcBranch)
	}

	dest := -1
	for attempt := 0; attempt < maxSPRAttempts; attempt++ {
		cand := r.IntN(t.B - 1)
		if cand == srcBranch || cand == srcParent || cand == srcSister || cand == root {
			continue
		}
		if isDescendant(t, srcBranch, cand) {
			continue
		}
		dest = cand
		break
	}
	if dest == -1 {
		return
	}

	// Excise srcBranch and its parent; splice srcSister up to parentsPar.
	switch srcBranch {
	case int(t.Branches[srcParent].Left):
		t.Branches[srcParent].Left = Unset
	case int(t.Branches[srcParent].Right):
		t.Branches[srcParent].Right = Unset
	default:
		Fatalf("tree %s: branch %d is not a child of its claimed parent %d", t.ID, srcBranch, srcParent)
	}
	t.Branches[srcBranch].Parent = Unset

	parentsPar := int(t.Branches[srcParent].Parent)
	if parentsPar == int(Unset) {
		Fatalf("tree %s: SPR excised parent %d has no parent", t.ID, srcParent)
	}
	if int(t.Branches[parentsPar].Left) == srcParent {
		t.Branches[parentsPar].Left = Index(srcSister)
	} else {
		t.Branches[parentsPar].Right = Index(srcSister)
	}
	t.Branches[srcSister].Parent = Index(parentsPar)

	excessBr := Index(srcParent)
	clearBranch(t, excessBr)

	// Reinsert excessBr above dest.
	destParent := int(t.Branches[dest].Parent)
	switch dest {
	case int(t.Branches[destParent].Left):
		t.Branches[destParent].Left = excessBr
	case int(t.Branches[destParent].Right):
		t.Branches[destParent].Right = excessBr
	default:
		Fatalf("tree %s: destination %d is not a child of its parent %d", t.ID, dest, destParent)
	}
	t.Branches[excessBr].Parent = Index(destParent)
	t.Branches[excessBr].Left = Index(dest)
	t.Branches[dest].Parent = excessBr
	t.Branches[excessBr].Right = Index(srcBranch)
	t.Branches[srcBranch].Parent = excessBr

	t.MarkDirtyBelow(excessBr)
	if parentsPar != root {
		t.MarkDirtyBelow(Index(parentsPar))
	}
}
