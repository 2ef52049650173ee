package tree

import (
	"io"
	"strings"
)

// printState carries the "do we need a leading comma" flag across the
// recursive descent. The original threaded this through a module-level
// static; here it is just a field on a value passed down the call stack,
// so two prints (even concurrent ones) never share state.
type printState struct {
	usecomma bool
}

// Print writes t as a Newick tree to w, using titles[objno] as each leaf's
// label (titles is indexed by object id, so titles[t.Branches[i].ObjNo] for
// leaf branch i). A write failure is fatal: there is no meaningful partial
// output to hand back, so Print panics via Fatalf rather than returning an
// error.
func Print(w io.Writer, t *Tree, titles []string) {
	root := int(t.Root)
	writeOrDie(t, w, "(")
	writeOrDie(t, w, label(t, root, titles))

	st := &printState{usecomma: true}
	printClade(w, t, int(t.Branches[root].Left), titles, st)
	printClade(w, t, int(t.Branches[root].Right), titles, st)

	writeOrDie(t, w, ");\n")
}

func printClade(w io.Writer, t *Tree, branch int, titles []string, st *printState) {
	if st.usecomma {
		writeOrDie(t, w, ",")
	}

	if branch < t.N {
		writeOrDie(t, w, label(t, branch, titles))
		st.usecomma = true
		return
	}

	writeOrDie(t, w, "(")
	st.usecomma = false
	printClade(w, t, int(t.Branches[branch].Left), titles, st)
	printClade(w, t, int(t.Branches[branch].Right), titles, st)
	writeOrDie(t, w, ")")
	st.usecomma = true
}

func label(t *Tree, leafBranch int, titles []string) string {
	obj := int(t.Branches[leafBranch].ObjNo)
	if obj < 0 || obj >= len(titles) {
		Fatalf("tree %s: leaf branch %d has no title for object %d", t.ID, leafBranch, obj)
	}
	return strings.TrimRight(titles[obj], " ")
}

func writeOrDie(t *Tree, w io.Writer, s string) {
	if _, err := io.WriteString(w, s); err != nil {
		Fatalf("tree %s: Newick write failed: %v", t.ID, err)
	}
}
