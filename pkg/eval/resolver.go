package eval

import (
	"strings"

	"github.com/xiaq/persistent/vector"

	"src.weft.sh/pkg/vals"
)

// ResultKind is the tag of a Result.
type ResultKind uint8

// Possible values of ResultKind.
const (
	// Nothing could be resolved.
	ResultEmpty ResultKind = iota
	// A concrete value.
	ResultValue
	// A literal list of expressions, not yet resolved.
	ResultExprs
	// A list bound in the scope.
	ResultList
	// A path into the state that was not looked up.
	ResultDeferred
)

// Result is the outcome of evaluating an Expr with a Resolver.
type Result struct {
	kind  ResultKind
	value any
	exprs []Expr
	list  vals.BoundValue
	path  vals.Path
}

// Kind returns the tag of the result.
func (r Result) Kind() ResultKind { return r.kind }

// Value returns the concrete value of a ResultValue.
func (r Result) Value() any { return r.value }

// Exprs returns the expressions of a ResultExprs.
func (r Result) Exprs() []Expr { return r.exprs }

// List returns the list of a ResultList.
func (r Result) List() vals.BoundValue { return r.list }

// Path returns the path of a ResultDeferred.
func (r Result) Path() vals.Path { return r.path }

func valueResult(v any) Result {
	if v == nil {
		return Result{}
	}
	return Result{kind: ResultValue, value: v}
}

// Resolver evaluates expressions against a Context. It records whether any
// part of the evaluation depended on the state, in which case the result may
// change later and must be tracked dynamically.
type Resolver struct {
	ctx *Context
	sub vals.NodeID
	// When set, paths not bound in the scope are returned as ResultDeferred
	// instead of being looked up in the state.
	lazy     bool
	deferred bool
}

// NewResolver creates a Resolver that looks up state values on behalf of the
// subscriber sub.
func NewResolver(ctx *Context, sub vals.NodeID) *Resolver {
	return &Resolver{ctx: ctx, sub: sub}
}

// NewDeferred creates a Resolver that never reads the state: expressions that
// would need the state evaluate to a ResultDeferred carrying the path.
func NewDeferred(ctx *Context) *Resolver {
	return &Resolver{ctx: ctx, lazy: true}
}

// IsDeferred reports whether any evaluation so far touched the state.
func (r *Resolver) IsDeferred() bool { return r.deferred }

// Eval evaluates an expression.
func (r *Resolver) Eval(e Expr) Result {
	switch e := e.(type) {
	case nil:
		return Result{}
	case *Lit:
		return valueResult(e.Value)
	case *List:
		return Result{kind: ResultExprs, exprs: e.Items}
	case *Ident, *Dot, *Index:
		p, res, ok := r.path(e)
		if !ok {
			return res
		}
		return r.lookup(p)
	case *Unary:
		return r.unary(e)
	case *Binary:
		return r.binary(e)
	default:
		return Result{}
	}
}

// Path evaluates a path-like expression to the path it refers to, following
// references bound in the scope. It reports false if the expression does not
// denote a path.
func (r *Resolver) Path(e Expr) (vals.Path, bool) {
	p, _, ok := r.path(e)
	if !ok {
		return vals.Path{}, false
	}
	p, _, bound := r.canon(p)
	if bound {
		return vals.Path{}, false
	}
	return p, true
}

// Returns either the path e refers to, or, if e refers to something that is
// not addressable by a path, the evaluation result.
func (r *Resolver) path(e Expr) (vals.Path, Result, bool) {
	switch e := e.(type) {
	case *Ident:
		return vals.Key(e.Name), Result{}, true
	case *Dot:
		base, _, ok := r.path(e.LHS)
		if !ok {
			return vals.Path{}, Result{}, false
		}
		base, _, bound := r.canon(base)
		if bound {
			return vals.Path{}, Result{}, false
		}
		return base.Compose(vals.Key(e.Name)), Result{}, true
	case *Index:
		var i int
		if err := vals.Scan(r.Value(r.Eval(e.Index)), &i); err != nil {
			return vals.Path{}, Result{}, false
		}
		base, res, ok := r.path(e.LHS)
		if ok {
			var bv vals.BoundValue
			var bound bool
			base, bv, bound = r.canon(base)
			if !bound {
				return base.Compose(vals.Index(i)), Result{}, true
			}
			res = boundResult(bv)
		} else {
			res = r.Eval(e.LHS)
		}
		return vals.Path{}, r.index(res, i), false
	default:
		return vals.Path{}, r.Eval(e), false
	}
}

func (r *Resolver) index(res Result, i int) Result {
	switch res.kind {
	case ResultExprs:
		if i < 0 || i >= len(res.exprs) {
			return Result{}
		}
		return r.Eval(res.exprs[i])
	case ResultList:
		item, ok := res.list.Item(i)
		if !ok {
			return Result{}
		}
		return r.bound(item)
	case ResultValue:
		if list, ok := res.value.(vector.Vector); ok {
			item, _ := list.Index(i)
			return valueResult(item)
		}
	}
	return Result{}
}

// Follows references bound in the scope, starting from p. Returns the final
// path, and if it is bound to a non-reference, that value.
func (r *Resolver) canon(p vals.Path) (vals.Path, vals.BoundValue, bool) {
	for {
		bv, ok := r.ctx.Scope.Lookup(p)
		if !ok {
			return p, vals.BoundValue{}, false
		}
		if bv.Kind() != vals.BoundDyn {
			return p, bv, true
		}
		p = bv.Path()
	}
}

func (r *Resolver) lookup(p vals.Path) Result {
	p, bv, bound := r.canon(p)
	if bound {
		return boundResult(bv)
	}
	r.deferred = true
	if r.lazy {
		return Result{kind: ResultDeferred, path: p}
	}
	ref := r.ctx.State.Get(p, r.sub)
	for ref.Kind == RefDeferred {
		ref = r.ctx.State.Get(ref.Path, r.sub)
	}
	if ref.Kind == RefConcrete {
		return valueResult(ref.Value)
	}
	return Result{}
}

// Resolves a value bound in the scope.
func (r *Resolver) bound(v vals.BoundValue) Result {
	if v.Kind() == vals.BoundDyn {
		return r.lookup(v.Path())
	}
	return boundResult(v)
}

func boundResult(v vals.BoundValue) Result {
	if v.Kind() == vals.BoundList {
		return Result{kind: ResultList, list: v}
	}
	return valueResult(v.Text())
}

// Value converts a result to a concrete value. Lists are resolved into
// vectors; deferred and empty results become nil.
func (r *Resolver) Value(res Result) any {
	switch res.kind {
	case ResultValue:
		return res.value
	case ResultExprs:
		list := vector.Empty
		for _, e := range res.exprs {
			list = list.Cons(r.Value(r.Eval(e)))
		}
		return list
	case ResultList:
		list := vector.Empty
		for _, item := range res.list.Items() {
			list = list.Cons(r.Value(r.bound(item)))
		}
		return list
	default:
		return nil
	}
}

// String evaluates an expression as text. Literal lists, including those
// bound in the scope, are resolved recursively and concatenated. It reports
// false if nothing could be resolved.
func (r *Resolver) String(e Expr) (string, bool) {
	var sb strings.Builder
	ok := r.writeResult(&sb, r.Eval(e))
	return sb.String(), ok
}

func (r *Resolver) writeResult(sb *strings.Builder, res Result) bool {
	switch res.kind {
	case ResultValue:
		sb.WriteString(vals.ToString(res.value))
		return true
	case ResultExprs:
		for _, e := range res.exprs {
			r.writeResult(sb, r.Eval(e))
		}
		return true
	case ResultList:
		for _, item := range res.list.Items() {
			r.writeResult(sb, r.bound(item))
		}
		return true
	default:
		return false
	}
}

func (r *Resolver) unary(e *Unary) Result {
	v := r.Value(r.Eval(e.Operand))
	switch e.Op {
	case Not:
		return valueResult(!vals.Truthy(v))
	case Neg:
		switch n, _ := vals.ToNumber(v); n := n.(type) {
		case int:
			return valueResult(-n)
		case float64:
			return valueResult(-n)
		}
	}
	return Result{}
}

func (r *Resolver) binary(e *Binary) Result {
	switch e.Op {
	case And:
		lhs := r.Value(r.Eval(e.LHS))
		if !vals.Truthy(lhs) {
			return valueResult(false)
		}
		return valueResult(vals.Truthy(r.Value(r.Eval(e.RHS))))
	case Or:
		lhs := r.Value(r.Eval(e.LHS))
		if vals.Truthy(lhs) {
			return valueResult(true)
		}
		return valueResult(vals.Truthy(r.Value(r.Eval(e.RHS))))
	}
	lhs := r.Value(r.Eval(e.LHS))
	rhs := r.Value(r.Eval(e.RHS))
	switch e.Op {
	case Eq:
		return valueResult(looseEqual(lhs, rhs))
	case NotEq:
		return valueResult(!looseEqual(lhs, rhs))
	case Less, LessEq, Greater, GreaterEq:
		c, ok := compare(lhs, rhs)
		if !ok {
			return valueResult(false)
		}
		switch e.Op {
		case Less:
			return valueResult(c < 0)
		case LessEq:
			return valueResult(c <= 0)
		case Greater:
			return valueResult(c > 0)
		default:
			return valueResult(c >= 0)
		}
	default:
		return arith(e.Op, lhs, rhs)
	}
}

// Numbers compare by value regardless of whether they came in as text.
func looseEqual(a, b any) bool {
	if na, ok := vals.ToNumber(a); ok {
		if nb, ok := vals.ToNumber(b); ok {
			return vals.Equal(na, nb)
		}
	}
	return vals.Equal(a, b)
}

func compare(a, b any) (int, bool) {
	na, okA := vals.ToNumber(a)
	nb, okB := vals.ToNumber(b)
	if okA && okB {
		var fa, fb float64
		vals.Scan(na, &fa)
		vals.Scan(nb, &fb)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func arith(op BinaryOp, a, b any) Result {
	na, okA := vals.ToNumber(a)
	nb, okB := vals.ToNumber(b)
	if !okA || !okB {
		if op == Add && a != nil && b != nil {
			return valueResult(vals.ToString(a) + vals.ToString(b))
		}
		return Result{}
	}
	ia, intA := na.(int)
	ib, intB := nb.(int)
	if intA && intB {
		switch op {
		case Add:
			return valueResult(ia + ib)
		case Sub:
			return valueResult(ia - ib)
		case Mul:
			return valueResult(ia * ib)
		case Div:
			if ib == 0 {
				return Result{}
			}
			return valueResult(ia / ib)
		case Mod:
			if ib == 0 {
				return Result{}
			}
			return valueResult(ia % ib)
		}
		return Result{}
	}
	var fa, fb float64
	vals.Scan(na, &fa)
	vals.Scan(nb, &fb)
	switch op {
	case Add:
		return valueResult(fa + fb)
	case Sub:
		return valueResult(fa - fb)
	case Mul:
		return valueResult(fa * fb)
	case Div:
		if fb == 0 {
			return Result{}
		}
		return valueResult(fa / fb)
	}
	return Result{}
}
