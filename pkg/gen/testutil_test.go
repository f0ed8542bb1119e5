package gen

import (
	"testing"

	"src.weft.sh/pkg/change"
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/state"
	"src.weft.sh/pkg/vals"
)

// Aliases for building templates.
var (
	L    = eval.L
	I    = eval.I
	D    = eval.D
	Ls   = eval.Ls
	Text = eval.Text
)

type testWidget struct {
	tag     string
	text    string
	attrs   map[string]any
	updates int
}

func (w *testWidget) Kind() string { return w.tag }

func (w *testWidget) Update(fc *FactoryContext) {
	w.text, w.attrs = fc.Text, fc.Attributes
	w.updates++
}

// Makes testWidget's, counting how many were made for each tag. The "fail" tag
// never fits.
type testFactory struct {
	made map[string]int
}

func newTestFactory() *testFactory {
	return &testFactory{made: make(map[string]int)}
}

func (f *testFactory) Make(fc *FactoryContext) (Widget, error) {
	f.made[fc.Tag]++
	if fc.Tag == "fail" {
		return nil, ErrInsufficientSpace
	}
	return &testWidget{fc.Tag, fc.Text, fc.Attributes, 0}, nil
}

func newTestState(t *testing.T, m map[string]any) (*state.MapState, *change.Queue) {
	t.Helper()
	q := change.NewQueue()
	st, err := state.FromMap(m, q)
	if err != nil {
		t.Fatal(err)
	}
	return st, q
}

func newTestTree(st eval.State, exprs ...Expression) (*Tree, *testFactory) {
	f := newTestFactory()
	return NewTree(exprs, eval.NewContext(st, nil), f, nil), f
}

// Starts a new pass and returns the texts of all single nodes.
func pass(t *testing.T, tree *Tree) []string {
	t.Helper()
	tree.Root().ResetCache()
	var texts []string
	err := tree.Root().Walk(func(s *Single) error {
		texts = append(texts, s.TextValue())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return texts
}

// Like pass, but returns the IDs.
func passIDs(t *testing.T, tree *Tree) []string {
	t.Helper()
	tree.Root().ResetCache()
	var ids []string
	err := tree.Root().Walk(func(s *Single) error {
		ids = append(ids, string(s.ID()))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return ids
}

func lookup[T Kind](t *testing.T, tree *Tree, id string) T {
	t.Helper()
	node, ok := tree.Lookup(vals.NodeID(id))
	if !ok {
		t.Fatalf("no node %s", id)
	}
	k, ok := node.Kind().(T)
	if !ok {
		t.Fatalf("node %s is %T", id, node.Kind())
	}
	return k
}
