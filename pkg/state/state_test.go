package state

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"src.weft.sh/pkg/change"
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

var (
	pathItems = vals.Key("items")
	pathTitle = vals.Key("title")
)

func newState(t *testing.T, m map[string]any) (*MapState, *change.Queue) {
	t.Helper()
	q := change.NewQueue()
	s, err := FromMap(m, q)
	if err != nil {
		t.Fatal(err)
	}
	return s, q
}

func TestGet(t *testing.T) {
	s, _ := newState(t, map[string]any{
		"title": "todo",
		"items": []any{map[string]any{"done": true}},
		"link":  map[string]any{aliasKey: "title"},
	})
	tests := []struct {
		path string
		want eval.Ref
	}{
		{"title", eval.Concrete("todo")},
		{"items[0].done", eval.Concrete(true)},
		{"items[1]", eval.Empty},
		{"items.done", eval.Empty},
		{"title.x", eval.Empty},
		{"link", eval.Deferred(pathTitle)},
	}
	for _, test := range tests {
		if got := s.Get(vals.ParsePath(test.path), vals.NoNode); got != test.want {
			t.Errorf("Get(%s) = %v, want %v", test.path, got, test.want)
		}
	}
	if subs := s.Subscribers(pathTitle); len(subs) != 0 {
		t.Errorf("Get without subscriber subscribed %v", subs)
	}
}

func TestSubscriptions(t *testing.T) {
	s, q := newState(t, map[string]any{"title": "a"})
	s.Get(pathTitle, "1")
	s.Get(pathTitle, "0.2")
	s.Get(pathTitle, "1")

	if diff := cmp.Diff([]vals.NodeID{"0.2", "1"}, s.Subscribers(pathTitle)); diff != "" {
		t.Errorf("Subscribers (-want +got):\n%s", diff)
	}
	if err := s.Set(pathTitle, "b"); err != nil {
		t.Fatal(err)
	}
	want := []change.Entry{{ID: "0.2", Change: change.UpdateChange}, {ID: "1", Change: change.UpdateChange}}
	if diff := cmp.Diff(want, q.Drain()); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}

	s.Unsubscribe("0")
	if diff := cmp.Diff([]vals.NodeID{"1"}, s.Subscribers(pathTitle)); diff != "" {
		t.Errorf("Subscribers after Unsubscribe (-want +got):\n%s", diff)
	}
}

func TestSet_NotifiesDescendants(t *testing.T) {
	s, q := newState(t, map[string]any{"user": map[string]any{"name": "ann"}})
	s.Get(vals.ParsePath("user.name"), "3")
	s.Set(vals.Key("user"), map[string]any{"name": "bob"})
	want := []change.Entry{{ID: "3", Change: change.UpdateChange}}
	if diff := cmp.Diff(want, q.Drain()); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
	if v, _ := s.Value(vals.ParsePath("user.name")); v != "bob" {
		t.Errorf("user.name = %v", v)
	}
}

func TestSet_ListReplacement(t *testing.T) {
	s, q := newState(t, map[string]any{"items": []any{"a", "b"}})
	s.Get(pathItems, "0")
	s.Set(pathItems, []any{"x", "y", "z"})
	want := []change.Entry{
		{ID: "0", Change: change.Remove(1)},
		{ID: "0", Change: change.Remove(0)},
		{ID: "0", Change: change.PushChange},
		{ID: "0", Change: change.PushChange},
		{ID: "0", Change: change.PushChange},
	}
	if diff := cmp.Diff(want, q.Drain()); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
}

func TestSet_ReplacesListBelow(t *testing.T) {
	s, q := newState(t, map[string]any{
		"data": map[string]any{"items": []any{"a"}, "name": "n"}})
	s.Get(vals.ParsePath("data.items"), "0")
	s.Get(vals.ParsePath("data.items[0]"), "0.0.0")
	s.Get(vals.ParsePath("data.name"), "1")
	s.Set(vals.Key("data"), map[string]any{"items": []any{"x", "y"}, "name": "m"})
	want := []change.Entry{
		{ID: "0", Change: change.Remove(0)},
		{ID: "0", Change: change.PushChange},
		{ID: "0", Change: change.PushChange},
		{ID: "0.0.0", Change: change.UpdateChange},
		{ID: "1", Change: change.UpdateChange},
	}
	if diff := cmp.Diff(want, q.Drain()); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
}

func TestSet_CreatesMaps(t *testing.T) {
	s, _ := newState(t, map[string]any{})
	if err := s.Set(vals.ParsePath("a.b.c"), 1); err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Value(vals.ParsePath("a.b.c")); !ok || v != 1 {
		t.Errorf("a.b.c = %v, %v", v, ok)
	}
	if err := s.Set(vals.Path{}, 1); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Set(empty) returns %v", err)
	}
	if err := s.Set(vals.ParsePath("missing[0]"), 1); !errors.Is(err, ErrNotContainer) {
		t.Errorf("Set(missing[0]) returns %v", err)
	}
}

func TestListMutations(t *testing.T) {
	s, q := newState(t, map[string]any{"items": []any{"a", "b", "c"}})
	s.Get(pathItems, "0")
	s.Get(vals.ParsePath("items[1]"), "0.1")
	s.Get(vals.ParsePath("items[2]"), "0.2")

	if err := s.Push(pathItems, "d"); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(pathItems, 1, "new"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(pathItems, 0); err != nil {
		t.Fatal(err)
	}
	want := []change.Entry{
		{ID: "0", Change: change.PushChange},
		{ID: "0", Change: change.Insert(1)},
		{ID: "0.1", Change: change.UpdateChange},
		{ID: "0.2", Change: change.UpdateChange},
		{ID: "0", Change: change.Remove(0)},
		{ID: "0.1", Change: change.UpdateChange},
		{ID: "0.2", Change: change.UpdateChange},
	}
	if diff := cmp.Diff(want, q.Drain()); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
	got := s.Snapshot()["items"]
	if diff := cmp.Diff([]any{"new", "b", "c", "d"}, got); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
}

func TestListMutations_Errors(t *testing.T) {
	s, q := newState(t, map[string]any{"items": []any{"a"}, "title": "t"})
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"insert past end", s.Insert(pathItems, 2, "x"), ErrOutOfRange},
		{"remove negative", s.Remove(pathItems, -1), ErrOutOfRange},
		{"remove past end", s.Remove(pathItems, 1), ErrOutOfRange},
		{"push to string", s.Push(pathTitle, "x"), ErrNotList},
	}
	for _, test := range tests {
		if !errors.Is(test.err, test.want) {
			t.Errorf("%s: got %v, want %v", test.name, test.err, test.want)
		}
	}
	if n := q.Len(); n != 0 {
		t.Errorf("failed mutations queued %d changes", n)
	}
	// Pushing to a missing path creates the list.
	if err := s.Push(vals.Key("new"), 1); err != nil {
		t.Errorf("Push to missing path: %v", err)
	}
}

func TestNilQueue(t *testing.T) {
	s := New(nil)
	s.Get(pathTitle, "0")
	if err := s.Set(pathTitle, "x"); err != nil {
		t.Errorf("Set with nil queue: %v", err)
	}
}

func TestSnapshotRestore_Aliases(t *testing.T) {
	m := map[string]any{
		"name": "x",
		"link": map[string]any{aliasKey: "a.b[1]"},
	}
	s, _ := newState(t, m)
	got := s.Snapshot()
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("Snapshot (-want +got):\n%s", diff)
	}
	if err := s.Set(vals.Key("link2"), Alias{vals.Key("name")}); err != nil {
		t.Fatal(err)
	}
	if ref := s.Get(vals.Key("link2"), vals.NoNode); ref != eval.Deferred(vals.Key("name")) {
		t.Errorf("Get(link2) = %v", ref)
	}
}

func TestYAML(t *testing.T) {
	s, err := FromYAML([]byte(`
title: todo
items:
  - title: a
    done: true
count: 2
ratio: 0.5
`), nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want any
	}{
		{"title", "todo"},
		{"items[0].done", true},
		{"count", 2},
		{"ratio", 0.5},
	}
	for _, test := range tests {
		if v, _ := s.Value(vals.ParsePath(test.path)); v != test.want {
			t.Errorf("%s = %#v, want %#v", test.path, v, test.want)
		}
	}

	if err := s.LoadYAML(strings.NewReader("")); err != nil {
		t.Errorf("LoadYAML of empty document: %v", err)
	}
	if _, ok := s.Value(pathTitle); ok {
		t.Errorf("LoadYAML did not replace content")
	}
	if _, err := FromYAML([]byte("- a list"), nil); err == nil {
		t.Errorf("FromYAML of a list returns no error")
	}
}
