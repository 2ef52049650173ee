// Package tree implements LVB's arena-backed, pointer-free binary tree
// representation: one contiguous allocation holding every branch record and
// the character-stateset bytes that follow them, so that copying a whole
// topology is two memcpys rather than a pointer-graph walk.
package tree

import "github.com/google/uuid"

// Index is a branch id: an offset into a Tree's Branches slice. Unset stands
// in for a null pointer everywhere a C implementation would use -1.
type Index int32

// Unset marks an absent parent/child/object link.
const Unset Index = -1

// Size limits the arena accepts. These bound both allocation size and the
// range the mutators assume when picking random branches.
const (
	MinN = 3
	MaxN = 4096
	MinM = 1
	MaxM = 1 << 20
)

// Branch is one node of the tree: an internal branch if Left/Right are set,
// a leaf (carrying an object id) otherwise. SSet views into the arena's
// stateset region; its first byte doubles as the dirty flag (0 == dirty),
// per IsDirty/MarkDirty — never test or set SSet[0] directly outside those
// two helpers.
type Branch struct {
	Parent  Index
	Left    Index
	Right   Index
	Changes Index // number of character changes reconstructed on this branch, or Unset if not yet scored
	ObjNo   Index // object id for a leaf branch, Unset for internal branches
	SSet    []byte
}

// Tree is one arena: N objects, M characters per object, B = 2N-3 branches.
// Root names the branch whose Parent is Unset; it is tracked explicitly
// rather than re-derived by a scan, since every operation that changes the
// root already knows the new value.
type Tree struct {
	N, M, B int
	ID      uuid.UUID
	Root    Index
	Branches []Branch
	ssets    []byte
}

// BranchCount returns the number of branches a tree of n objects needs.
func BranchCount(n int) int { return 2*n - 3 }

// Alloc allocates a fresh arena for n objects of m characters each. Every
// branch starts fully dirty, unlinked (Parent/Left/Right/Changes == Unset)
// and object-less (ObjNo == Unset); Root is Unset until a builder sets it.
func Alloc(n, m int) *Tree {
	if n < MinN || n > MaxN {
		Fatalf("tree: object count %d out of range [%d, %d]", n, MinN, MaxN)
	}
	if m < MinM || m > MaxM {
		Fatalf("tree: character count %d out of range [%d, %d]", m, MinM, MaxM)
	}

	b := BranchCount(n)
	t := &Tree{
		N:    n,
		M:    m,
		B:    b,
		ID:   uuid.New(),
		Root: Unset,
	}
	t.Branches = make([]Branch, b)
	t.ssets = make([]byte, b*m) // zero-valued: every branch starts dirty
	for i := range t.Branches {
		t.Branches[i] = Branch{
			Parent:  Unset,
			Left:    Unset,
			Right:   Unset,
			Changes: Unset,
			ObjNo:   Unset,
			SSet:    t.ssets[i*m : (i+1)*m],
		}
	}
	return t
}

// IsDirty reports whether branch b's cached stateset is stale.
func (t *Tree) IsDirty(b Index) bool { return t.Branches[b].SSet[0] == 0 }

// MarkDirty invalidates branch b's cached stateset.
func (t *Tree) MarkDirty(b Index) { t.Branches[b].SSet[0] = 0 }

// MarkAllDirty invalidates every branch in the tree, as a freshly allocated
// or freshly copied arena already is.
func (t *Tree) MarkAllDirty() {
	for i := range t.Branches {
		t.Branches[i].SSet[0] = 0
	}
}

// MarkDirtyBelow marks branch and every ancestor up to, but not including,
// the root as dirty. The root's own stateset is never touched here: it is
// conceptually always stale, since it has no parent to ever be "caught up"
// against, so no caller needs to test it.
func (t *Tree) MarkDirtyBelow(branch Index) {
	if t.Branches[branch].Parent == Unset {
		Fatalf("tree %s: MarkDirtyBelow called on root branch %d", t.ID, branch)
	}
	cur := branch
	for {
		t.MarkDirty(cur)
		cur = t.Branches[cur].Parent
		if t.Branches[cur].Parent == Unset {
			break
		}
	}
}

// CopyInto copies t's full topology and stateset bytes into dst, which must
// already be allocated at the same size. dst's own SSet slices are kept
// (they still point at dst's arena region); only the scalar branch fields
// and the raw stateset bytes move.
func (t *Tree) CopyInto(dst *Tree) {
	if dst.B != t.B || dst.M != t.M {
		Fatalf("tree %s: CopyInto size mismatch (src B=%d M=%d, dst B=%d M=%d)", t.ID, t.B, t.M, dst.B, dst.M)
	}
	for i := range t.Branches {
		sset := dst.Branches[i].SSet
		dst.Branches[i] = t.Branches[i]
		dst.Branches[i].SSet = sset
	}
	copy(dst.ssets, t.ssets)
	dst.Root = t.Root
}

// Clone allocates a new arena the same size as t and copies t into it.
func (t *Tree) Clone() *Tree {
	dst := Alloc(t.N, t.M)
	t.CopyInto(dst)
	return dst
}

// sibling returns the other child of branch's parent, or Unset if branch is
// the root.
func sibling(t *Tree, branch Index) Index {
	p := t.Branches[branch].Parent
	if p == Unset {
		return Unset
	}
	switch branch {
	case t.Branches[p].Left:
		return t.Branches[p].Right
	case t.Branches[p].Right:
		return t.Branches[p].Left
	default:
		Fatalf("tree %s: branch %d claims parent %d, which does not claim it as a child", t.ID, branch, p)
		return Unset
	}
}
