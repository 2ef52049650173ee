package tree

import (
	"strings"
	"testing"

	"github.com/lvb-project/lvb/rng"
)

// walkStructure validates the shape every valid canonical tree must have:
// every leaf branch [0,N) reached exactly once with a distinct object id
// covering [0,N), every internal branch [N,B) reached exactly once with
// two children, and Parent/Left/Right mutually consistent throughout.
func walkStructure(t *testing.T, tr *Tree) {
	t.Helper()
	seenLeaf := make([]bool, tr.N)
	seenObj := make([]bool, tr.N)
	seenInternal := make([]bool, tr.B)

	var walk func(branch, parent Index)
	walk = func(branch, parent Index) {
		if tr.Branches[branch].Parent != parent {
			t.Fatalf("branch %d: parent = %d, want %d", branch, tr.Branches[branch].Parent, parent)
		}
		if int(branch) < tr.N {
			if seenLeaf[branch] {
				t.Fatalf("leaf branch %d visited twice", branch)
			}
			seenLeaf[branch] = true
			obj := int(tr.Branches[branch].ObjNo)
			if obj < 0 || obj >= tr.N {
				t.Fatalf("leaf branch %d has object id %d out of range", branch, obj)
			}
			if seenObj[obj] {
				t.Fatalf("object id %d assigned to more than one leaf", obj)
			}
			seenObj[obj] = true
			return
		}
		if seenInternal[branch] {
			t.Fatalf("internal branch %d visited twice", branch)
		}
		seenInternal[branch] = true
		left := tr.Branches[branch].Left
		right := tr.Branches[branch].Right
		if left == Unset || right == Unset {
			t.Fatalf("internal branch %d missing a child", branch)
		}
		walk(left, branch)
		walk(right, branch)
	}

	root := tr.Root
	if tr.Branches[root].Parent != Unset {
		t.Fatalf("root branch %d has non-Unset parent %d", root, tr.Branches[root].Parent)
	}
	seenLeaf[root] = true
	rootObj := int(tr.Branches[root].ObjNo)
	if rootObj < 0 || rootObj >= tr.N {
		t.Fatalf("root branch %d has object id %d out of range", root, rootObj)
	}
	seenObj[rootObj] = true

	walk(tr.Branches[root].Left, root)
	walk(tr.Branches[root].Right, root)

	for i, ok := range seenLeaf {
		if !ok {
			t.Fatalf("leaf branch %d never reached from root %d", i, root)
		}
	}
	for i, ok := range seenObj {
		if !ok {
			t.Fatalf("object id %d never assigned to any leaf", i)
		}
	}
}

func TestBranchCount(t *testing.T) {
	cases := []struct{ n, b int }{{3, 3}, {4, 5}, {10, 17}, {100, 197}}
	for _, c := range cases {
		if got := BranchCount(c.n); got != c.b {
			t.Errorf("BranchCount(%d) = %d, want %d", c.n, got, c.b)
		}
	}
}

func TestRandTreeProducesValidCanonicalTree(t *testing.T) {
	r := rng.New(99)
	for _, n := range []int{3, 4, 5, 10, 25} {
		tr := RandTree(r, n, 8)
		if tr.Root != 0 {
			t.Errorf("n=%d: Root = %d, want 0", n, tr.Root)
		}
		if tr.Branches[0].Left == Unset || tr.Branches[0].Right == Unset {
			t.Errorf("n=%d: root does not have both children set", n)
		}
		walkStructure(t, tr)
		for i := 0; i < n; i++ {
			if tr.Branches[i].ObjNo != Index(i) {
				t.Errorf("n=%d: leaf branch %d holds object %d, want %d", n, i, tr.Branches[i].ObjNo, i)
			}
		}
		internalCount := 0
		for i := n; i < tr.B; i++ {
			if tr.Branches[i].ObjNo != Unset {
				t.Errorf("n=%d: internal branch %d holds object %d, want Unset", n, i, tr.Branches[i].ObjNo)
			}
			internalCount++
		}
		if want := n - 3; internalCount != want {
			t.Errorf("n=%d: %d internal non-root branches, want %d", n, internalCount, want)
		}
	}
}

func TestCloneIsIndependentCopy(t *testing.T) {
	r := rng.New(5)
	src := RandTree(r, 12, 4)
	dst := src.Clone()

	for i := range src.Branches {
		if src.Branches[i].Parent != dst.Branches[i].Parent ||
			src.Branches[i].Left != dst.Branches[i].Left ||
			src.Branches[i].Right != dst.Branches[i].Right ||
			src.Branches[i].ObjNo != dst.Branches[i].ObjNo {
			t.Fatalf("branch %d differs after Clone", i)
		}
	}
	if dst.Root != src.Root {
		t.Fatalf("Root not copied: %d != %d", dst.Root, src.Root)
	}

	// Mutating dst must not affect src: arenas are fully independent.
	dst.Branches[5].SSet[0] = 1
	if src.Branches[5].SSet[0] == 1 {
		t.Fatalf("mutating dst's stateset bytes affected src")
	}
}

func TestMarkDirtyBelowStopsBeforeRoot(t *testing.T) {
	r := rng.New(11)
	tr := RandTree(r, 8, 4)

	for i := range tr.Branches {
		tr.Branches[i].SSet[0] = 1 // pretend everything is clean
	}

	leaf := Index(1)
	tr.MarkDirtyBelow(leaf)

	if !tr.IsDirty(leaf) {
		t.Errorf("branch %d should be dirty after MarkDirtyBelow", leaf)
	}
	cur := tr.Branches[leaf].Parent
	for tr.Branches[cur].Parent != Unset {
		if !tr.IsDirty(cur) {
			t.Errorf("ancestor %d should be dirty", cur)
		}
		cur = tr.Branches[cur].Parent
	}
	// cur is now the root; it must not have been touched by MarkDirtyBelow.
	if tr.IsDirty(cur) {
		t.Errorf("root branch %d should not be marked by MarkDirtyBelow", cur)
	}
}

func TestMarkDirtyBelowOnRootPanics(t *testing.T) {
	r := rng.New(11)
	tr := RandTree(r, 8, 4)
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic calling MarkDirtyBelow on the root")
		}
	}()
	tr.MarkDirtyBelow(tr.Root)
}

func TestRerootRoundTrip(t *testing.T) {
	r := rng.New(21)
	original := RandTree(r, 10, 4)
	oldRoot := int(original.Root)

	work := original.Clone()
	newRoot := 3
	if newRoot == oldRoot {
		newRoot = 4
	}
	Reroot(work, oldRoot, newRoot)
	walkStructure(t, work)
	if int(work.Root) != newRoot {
		t.Fatalf("Root = %d, want %d", work.Root, newRoot)
	}

	Reroot(work, newRoot, oldRoot)
	walkStructure(t, work)
	if int(work.Root) != oldRoot {
		t.Fatalf("Root after round trip = %d, want %d", work.Root, oldRoot)
	}

	// Reroot stores the child on the walked path in Left, so the round trip
	// restores every branch's parent and pair of children, but not
	// necessarily which child sits in Left and which in Right.
	for i := range original.Branches {
		o, w := original.Branches[i], work.Branches[i]
		sameChildren := (o.Left == w.Left && o.Right == w.Right) ||
			(o.Left == w.Right && o.Right == w.Left)
		if o.Parent != w.Parent || !sameChildren {
			t.Fatalf("branch %d: reroot round trip did not restore original structure (got %+v, want %+v)",
				i, work.Branches[i], original.Branches[i])
		}
	}
}

func TestNNIHeadsIsSelfInverse(t *testing.T) {
	r := rng.New(17)
	original := RandTree(r, 9, 4)

	u := -1
	for i := original.N; i < original.B; i++ {
		u = i
		break
	}
	if u == -1 {
		t.Fatal("no internal branch available")
	}

	once := Alloc(original.N, original.M)
	twice := Alloc(original.N, original.M)
	NNIDeterministic(once, original, u, true)
	walkStructure(t, once)
	NNIDeterministic(twice, once, u, true)
	walkStructure(t, twice)

	for i := range original.Branches {
		if original.Branches[i].Parent != twice.Branches[i].Parent ||
			original.Branches[i].Left != twice.Branches[i].Left ||
			original.Branches[i].Right != twice.Branches[i].Right {
			t.Fatalf("branch %d: double heads-NNI did not restore original (got %+v, want %+v)",
				i, twice.Branches[i], original.Branches[i])
		}
	}
}

func TestNNIChangesTopology(t *testing.T) {
	r := rng.New(31)
	original := RandTree(r, 12, 4)
	mutated := Alloc(original.N, original.M)
	NNI(r, mutated, original)
	walkStructure(t, mutated)

	identical := true
	for i := range original.Branches {
		if original.Branches[i].Parent != mutated.Branches[i].Parent ||
			original.Branches[i].Left != mutated.Branches[i].Left ||
			original.Branches[i].Right != mutated.Branches[i].Right {
			identical = false
			break
		}
	}
	if identical {
		t.Errorf("NNI left the topology byte-for-byte identical")
	}
}

func TestNNIRequiresFourLeaves(t *testing.T) {
	r := rng.New(3)
	tr := RandTree(r, 3, 4)
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic calling NNI on a 3-leaf tree")
		}
	}()
	NNI(r, Alloc(3, 4), tr)
}

func TestSPRProducesValidTree(t *testing.T) {
	r := rng.New(41)
	for _, n := range []int{4, 5, 10, 30} {
		original := RandTree(r, n, 4)
		mutated := Alloc(n, 4)
		SPR(r, mutated, original)
		walkStructure(t, mutated)
	}
}

// TestSPRIteratedInvariants applies 1000 random SPRs in sequence, each
// starting from the previous step's result, and re-validates the full
// structural invariant after every single step — not just on the final
// tree — so a mutator that only corrupts structure on some intermediate
// topology (rather than the starting one) would still be caught.
func TestSPRIteratedInvariants(t *testing.T) {
	r := rng.New(61)
	n, m := 15, 4
	cur := RandTree(r, n, m)
	for i := 0; i < 1000; i++ {
		next := Alloc(n, m)
		SPR(r, next, cur)
		walkStructure(t, next)
		cur = next
	}
}

func TestPrintProducesNewick(t *testing.T) {
	r := rng.New(51)
	tr := RandTree(r, 6, 4)
	titles := []string{"a", "b", "c", "d", "e", "f"}

	var sb strings.Builder
	Print(&sb, tr, titles)
	out := sb.String()

	if !strings.HasPrefix(out, "(") {
		t.Errorf("Print output does not start with '(': %q", out)
	}
	if !strings.HasSuffix(out, ");\n") {
		t.Errorf("Print output does not end with ');\\n': %q", out)
	}
	for _, title := range titles {
		if !strings.Contains(out, title) {
			t.Errorf("Print output missing title %q: %q", title, out)
		}
	}
}
