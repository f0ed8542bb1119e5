package gen

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

type templateView []Expression

func (v templateView) Template() []Expression { return v }

type statefulView struct {
	templateView
	st eval.State
}

func (v statefulView) State() eval.State { return v.st }

func newTestViews(t *testing.T, views map[string]ViewFactory) *Views {
	t.Helper()
	vs := NewViews()
	for name, f := range views {
		if err := vs.Register(name, f); err != nil {
			t.Fatal(err)
		}
	}
	return vs
}

func staticView(exprs ...Expression) ViewFactory {
	return func() (View, error) { return templateView(exprs), nil }
}

func TestView_SeesPartOfState(t *testing.T) {
	st, q := newTestState(t, map[string]any{
		"left":  map[string]any{"n": 1},
		"right": map[string]any{"n": 2},
	})
	views := newTestViews(t, map[string]ViewFactory{
		"counter": staticView(Elem("text", I("n"))),
	})
	tree := NewTree([]Expression{
		ViewOf("counter", I("left")),
		ViewOf("counter", I("right")),
	}, eval.NewContext(st, nil), newTestFactory(), views)

	if diff := cmp.Diff([]string{"1", "2"}, pass(t, tree)); diff != "" {
		t.Errorf("texts (-want +got):\n%s", diff)
	}
	st.Set(vals.ParsePath("right.n"), 5)
	tree.Dispatch(q.Drain())
	if diff := cmp.Diff([]string{"1", "5"}, pass(t, tree)); diff != "" {
		t.Errorf("texts after set (-want +got):\n%s", diff)
	}
	if v := lookup[*ViewNode](t, tree, "1"); v.Name != "counter" || v.Body().Len() != 1 {
		t.Errorf("view node = %+v", v)
	}
}

func TestView_IsolatedScope(t *testing.T) {
	views := newTestViews(t, map[string]ViewFactory{
		"show": staticView(Elem("text", Text("<", I("item"), ">"))),
	})
	tree := NewTree([]Expression{
		For("item", Ls(L("x")), ViewOf("show", nil)),
	}, nil, newTestFactory(), views)
	if diff := cmp.Diff([]string{"<>"}, pass(t, tree)); diff != "" {
		t.Errorf("texts (-want +got):\n%s", diff)
	}
}

func TestView_OwnState(t *testing.T) {
	own, _ := newTestState(t, map[string]any{"name": "own"})
	outer, _ := newTestState(t, map[string]any{"name": "outer"})
	views := newTestViews(t, map[string]ViewFactory{
		"own": func() (View, error) {
			return statefulView{templateView{Elem("text", I("name"))}, own}, nil
		},
	})
	tree := NewTree([]Expression{ViewOf("own", nil)},
		eval.NewContext(outer, nil), newTestFactory(), views)
	if diff := cmp.Diff([]string{"own"}, pass(t, tree)); diff != "" {
		t.Errorf("texts (-want +got):\n%s", diff)
	}
}

func TestView_Errors(t *testing.T) {
	errBoom := errors.New("boom")
	views := newTestViews(t, map[string]ViewFactory{
		"broken": func() (View, error) { return nil, errBoom },
	})
	if err := views.Register("broken", staticView()); err == nil {
		t.Errorf("registering twice returns no error")
	}

	tree := NewTree([]Expression{ViewOf("missing", nil)}, nil, newTestFactory(), views)
	err := tree.Root().PullAll()
	var notFound *ViewNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "missing" {
		t.Errorf("PullAll returns %v, want ViewNotFoundError", err)
	}

	tree = NewTree([]Expression{ViewOf("broken", nil)}, nil, newTestFactory(), views)
	if err := tree.Root().PullAll(); !errors.Is(err, errBoom) {
		t.Errorf("PullAll returns %v, want boom", err)
	}
}

func TestViews_TabOrder(t *testing.T) {
	st, q := newTestState(t, map[string]any{"panes": []any{"a", "b", "c"}})
	views := newTestViews(t, map[string]ViewFactory{
		"pane": staticView(Elem("text", L("pane"))),
	})
	tree := NewTree([]Expression{
		For("p", I("panes"), ViewOf("pane", nil)),
	}, eval.NewContext(st, nil), newTestFactory(), views)

	if _, ok := views.Current(); ok {
		t.Errorf("Current before any view exists")
	}
	pass(t, tree)
	if diff := cmp.Diff([]vals.NodeID{"0.0.0", "0.1.0", "0.2.0"}, views.Instances()); diff != "" {
		t.Errorf("Instances (-want +got):\n%s", diff)
	}

	steps := []struct {
		move func() (vals.NodeID, bool)
		want vals.NodeID
	}{
		{views.Current, "0.0.0"},
		{views.Next, "0.1.0"},
		{views.Next, "0.2.0"},
		{views.Next, "0.0.0"},
		{views.Prev, "0.2.0"},
	}
	for i, step := range steps {
		if id, ok := step.move(); !ok || id != step.want {
			t.Errorf("step %d: got %v, %v, want %v", i, id, ok, step.want)
		}
	}

	// Removing the focused view moves the focus to a neighbor.
	st.Remove(vals.Key("panes"), 2)
	tree.Dispatch(q.Drain())
	if diff := cmp.Diff([]vals.NodeID{"0.0.0", "0.1.0"}, views.Instances()); diff != "" {
		t.Errorf("Instances after remove (-want +got):\n%s", diff)
	}
	if id, _ := views.Current(); id != "0.1.0" {
		t.Errorf("Current after remove = %v", id)
	}
	if diff := cmp.Diff([]string{"pane"}, views.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
}

func TestViews_ConcurrentRegister(t *testing.T) {
	views := NewViews()
	done := make(chan error)
	names := []string{"a", "b", "c", "d"}
	for _, name := range names {
		go func(name string) { done <- views.Register(name, staticView()) }(name)
	}
	for range names {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
	if diff := cmp.Diff(names, views.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
}
