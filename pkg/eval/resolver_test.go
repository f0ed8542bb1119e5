package eval

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"src.weft.sh/pkg/tt"
	"src.weft.sh/pkg/vals"
)

func TestExpr_String(t *testing.T) {
	tt.Test(t, tt.Fn("Expr.String", Expr.String), tt.Table{
		tt.Args(L("a")).Rets(`"a"`),
		tt.Args(L(1.5)).Rets("1.5"),
		tt.Args(D(I("item"), "title")).Rets("item.title"),
		tt.Args(Idx(I("items"), L(0))).Rets("items[0]"),
		tt.Args(Text("n = ", I("n"))).Rets(`["n = ", n]`),
		tt.Args(&Unary{Not, I("x")}).Rets("!x"),
		tt.Args(Op(I("a"), Add, L(1))).Rets("(a + 1)"),
	})
}

func evalValue(ctx *Context) func(Expr) (any, bool) {
	return func(e Expr) (any, bool) {
		r := NewResolver(ctx, "0")
		return r.Value(r.Eval(e)), r.IsDeferred()
	}
}

func TestResolver_Value(t *testing.T) {
	st := newTestState(
		"n", 3, "s", "text", "f", 0.5,
		"items", list("a", "b"),
		"user.name", "ann")
	ctx := NewContext(st, nil)
	ctx.Scope.Bind(vals.Key("it"), vals.Dyn(vals.Key("user")))
	ctx.Scope.Bind(vals.Key("lit"), vals.Static("bound"))
	ctx.Scope.Bind(vals.Key("ls"), vals.List(vals.Static("x"), vals.Dyn(vals.Key("n"))))

	tt.Test(t, tt.Fn("evalValue", evalValue(ctx)), tt.Table{
		// Literals and scope values do not touch the state.
		tt.Args(L(1)).Rets(1, false),
		tt.Args(I("lit")).Rets("bound", false),
		tt.Args(Idx(I("ls"), L(0))).Rets("x", false),
		tt.Args(Ls(L("a"), L(2))).Rets(list("a", 2), false),
		tt.Args(Op(L(7), Div, L(2))).Rets(3, false),
		tt.Args(Op(L(7), Div, L(0))).Rets(nil, false),
		tt.Args(Op(L(7), Mod, L(4))).Rets(3, false),
		tt.Args(Op(L(1), Add, L(0.5))).Rets(1.5, false),
		tt.Args(Op(L("a"), Add, L(1))).Rets("a1", false),
		tt.Args(Op(L("10"), Eq, L(10))).Rets(true, false),
		tt.Args(Op(L("b"), Less, L("a"))).Rets(false, false),
		tt.Args(Op(L(2), GreaterEq, L(2.0))).Rets(true, false),
		tt.Args(&Unary{Neg, L(2)}).Rets(-2, false),
		tt.Args(&Unary{Not, L("")}).Rets(true, false),
		tt.Args(Op(L(false), And, I("n"))).Rets(false, false),

		// Everything else does.
		tt.Args(I("n")).Rets(3, true),
		tt.Args(D(I("it"), "name")).Rets("ann", true),
		tt.Args(Idx(I("items"), L(1))).Rets("b", true),
		tt.Args(Idx(I("ls"), L(1))).Rets(3, true),
		tt.Args(Op(I("n"), Mul, I("f"))).Rets(1.5, true),
		tt.Args(Op(L(true), And, I("n"))).Rets(true, true),
		tt.Args(I("missing")).Rets(nil, true),
	})
}

func TestResolver_SubscribesOnlyOnStateAccess(t *testing.T) {
	st := newTestState("n", 1)
	ctx := NewContext(st, nil)
	r := NewResolver(ctx, "4.2")
	r.Eval(L(1))
	if len(st.subs) != 0 {
		t.Errorf("literal subscribed %v", st.subs)
	}
	r.Eval(I("n"))
	if diff := cmp.Diff([]vals.NodeID{"4.2"}, st.subs); diff != "" {
		t.Errorf("subscriptions (-want +got):\n%s", diff)
	}
}

func TestResolver_FollowsDeferredRefs(t *testing.T) {
	st := newTestState("real", "value")
	st.aliases[vals.Key("alias")] = vals.Key("real")
	r := NewResolver(NewContext(st, nil), vals.NoNode)
	if v := r.Value(r.Eval(I("alias"))); v != "value" {
		t.Errorf("alias resolves to %v", v)
	}
}

func TestNewDeferred(t *testing.T) {
	st := newTestState("items", list(1))
	ctx := NewContext(st, nil)
	ctx.Scope.Bind(vals.Key("item"), vals.Dyn(vals.ParsePath("items[0]")))
	r := NewDeferred(ctx)

	res := r.Eval(I("items"))
	if res.Kind() != ResultDeferred || res.Path() != vals.Key("items") {
		t.Errorf("Eval(items) = %v %v, want deferred items", res.Kind(), res.Path())
	}
	res = r.Eval(D(I("item"), "title"))
	if want := vals.ParsePath("items[0].title"); res.Path() != want {
		t.Errorf("Eval(item.title) has path %v, want %v", res.Path(), want)
	}
	if len(st.subs) != 0 {
		t.Errorf("deferred resolver read the state")
	}
	if !r.IsDeferred() {
		t.Errorf("IsDeferred = false")
	}
}

func TestResolver_Path(t *testing.T) {
	ctx := NewContext(nil, nil)
	ctx.Scope.Bind(vals.Key("item"), vals.Dyn(vals.ParsePath("items[2]")))
	ctx.Scope.Bind(vals.Key("lit"), vals.Static("x"))
	r := NewResolver(ctx, vals.NoNode)

	tests := []struct {
		expr Expr
		path vals.Path
		ok   bool
	}{
		{D(I("item"), "done"), vals.ParsePath("items[2].done"), true},
		{Idx(I("rows"), Op(L(1), Add, L(1))), vals.ParsePath("rows[2]"), true},
		{I("lit"), vals.Path{}, false},
		{L(1), vals.Path{}, false},
	}
	for _, test := range tests {
		p, ok := r.Path(test.expr)
		if p != test.path || ok != test.ok {
			t.Errorf("Path(%v) = %v, %v, want %v, %v", test.expr, p, ok, test.path, test.ok)
		}
	}
}

func TestResolver_String(t *testing.T) {
	st := newTestState("name", "weft", "n", 2)
	ctx := NewContext(st, nil)
	ctx.Scope.Bind(vals.Key("parts"), vals.List(vals.Static("<"), vals.Dyn(vals.Key("n")), vals.Static(">")))
	r := NewResolver(ctx, vals.NoNode)

	tt.Test(t, tt.Fn("Resolver.String", r.String), tt.Table{
		tt.Args(Text("hello ", I("name"))).Rets("hello weft", true),
		tt.Args(I("parts")).Rets("<2>", true),
		tt.Args(Text("missing: ", I("none"))).Rets("missing: ", true),
		tt.Args(I("none")).Rets("", false),
	})
}
