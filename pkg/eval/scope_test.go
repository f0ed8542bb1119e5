package eval

import (
	"testing"

	"src.weft.sh/pkg/vals"
)

var (
	pathX = vals.Key("x")
	pathY = vals.Key("y")
)

func TestScope_LookupInnermost(t *testing.T) {
	sc := NewScope()
	sc.Bind(pathX, vals.Static("outer"))
	sc.Push()
	sc.Bind(pathX, vals.Static("inner"))
	if v, _ := sc.Lookup(pathX); v.Text() != "inner" {
		t.Errorf("Lookup after Push = %v, want inner", v)
	}
	sc.Pop()
	if v, _ := sc.Lookup(pathX); v.Text() != "outer" {
		t.Errorf("Lookup after Pop = %v, want outer", v)
	}
	if _, ok := sc.Lookup(pathY); ok {
		t.Errorf("Lookup of unbound path found something")
	}
}

func TestScope_ForkSharesFrames(t *testing.T) {
	sc := NewScope()
	sc.Push()
	fork := sc.Fork()
	fork.Push()
	fork.Bind(pathY, vals.Static("only in fork"))
	if fork.Depth() != 3 || sc.Depth() != 2 {
		t.Errorf("Depth = %d, %d, want 3, 2", fork.Depth(), sc.Depth())
	}
	if _, ok := sc.Lookup(pathY); ok {
		t.Errorf("binding in pushed frame of fork visible in original")
	}
	// Rebinding a shared frame is visible through every fork.
	sc.Bind(pathX, vals.Static("rebound"))
	if v, _ := fork.Lookup(pathX); v.Text() != "rebound" {
		t.Errorf("fork sees %v, want rebound", v)
	}
}

func TestScope_LookupList(t *testing.T) {
	sc := NewScope()
	sc.Bind(pathX, vals.List(vals.Static("a")))
	sc.Push()
	sc.Bind(pathX, vals.Static("shadow"))
	v, ok := sc.LookupList(pathX)
	if !ok || v.Len() != 1 {
		t.Errorf("LookupList = %v, %v", v, ok)
	}
}

func TestScope_PopRootPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Pop of root frame did not panic")
		}
	}()
	NewScope().Pop()
}

func TestContext_Resolve(t *testing.T) {
	ctx := NewContext(nil, nil)
	ctx.Scope.Bind(pathX, vals.Dyn(pathY))
	ctx.Scope.Bind(pathY, vals.Static("y"))

	got := ctx.Resolve(vals.List(vals.Dyn(pathX), vals.Dyn(vals.Key("z"))))
	want := vals.List(vals.Static("y"), vals.Dyn(vals.Key("z")))
	if !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestContext_Get(t *testing.T) {
	st := newTestState("name", "weft", "n", 2)
	st.aliases[vals.Key("alias")] = vals.Key("name")
	ctx := NewContext(st, nil)
	ctx.Scope.Bind(pathX, vals.Dyn(vals.Key("n")))
	ctx.Scope.Bind(pathY, vals.List(vals.Static("a"), vals.Dyn(vals.Key("name"))))

	tests := []struct {
		path  vals.Path
		value any
		ok    bool
		text  string
	}{
		{vals.Key("name"), "weft", true, "weft"},
		{vals.Key("alias"), "weft", true, "weft"},
		{pathX, 2, true, "2"},
		{pathY, nil, false, "aweft"},
		{vals.Key("missing"), nil, false, ""},
	}
	for _, test := range tests {
		v, ok := ctx.Get(test.path, "0")
		if v != test.value || ok != test.ok {
			t.Errorf("Get(%v) = %v, %v, want %v, %v", test.path, v, ok, test.value, test.ok)
		}
		if s := ctx.GetString(test.path, "0"); s != test.text {
			t.Errorf("GetString(%v) = %q, want %q", test.path, s, test.text)
		}
	}
}

func TestPrefixed(t *testing.T) {
	st := newTestState("stats.done", 1, "other", 2)
	st.aliases[vals.ParsePath("stats.link")] = vals.Key("other")
	p := Prefixed(st, vals.Key("stats"))
	if ref := p.Get(vals.Key("done"), vals.NoNode); ref != Concrete(1) {
		t.Errorf("Get(done) = %v", ref)
	}
	if ref := p.Get(vals.Key("link"), vals.NoNode); ref != Concrete(2) {
		t.Errorf("Get(link) = %v, want the aliased value", ref)
	}
	if Prefixed(st, vals.Path{}) != State(st) {
		t.Errorf("Prefixed with empty path wraps the state")
	}
}
