package eval

import "src.weft.sh/pkg/vals"

// ValueKind is the kind of a Value.
type ValueKind uint8

// Possible values of ValueKind.
const (
	// Resolution failed or produced nothing.
	ValueEmpty ValueKind = iota
	// Resolved once, never changes.
	ValueStatic
	// Depends on the state; re-resolved on demand.
	ValueDynamic
)

func (k ValueKind) String() string {
	switch k {
	case ValueStatic:
		return "static"
	case ValueDynamic:
		return "dynamic"
	default:
		return "empty"
	}
}

// Value is a cached typed value bound to one expression. Whether it is static
// or dynamic is decided at creation; a dynamic value keeps the expression and
// only re-resolves it when Resolve is called.
type Value[T any] struct {
	kind    ValueKind
	inner   T
	ok      bool
	expr    Expr
	resolve func(*Resolver, Expr) (T, bool)
}

func newValue[T any](e Expr, ctx *Context, sub vals.NodeID, resolve func(*Resolver, Expr) (T, bool)) *Value[T] {
	v := &Value[T]{expr: e, resolve: resolve}
	if e == nil {
		return v
	}
	r := NewResolver(ctx, sub)
	inner, ok := resolve(r, e)
	switch {
	case r.IsDeferred():
		v.kind, v.inner, v.ok = ValueDynamic, inner, ok
	case ok:
		v.kind, v.inner, v.ok = ValueStatic, inner, true
	}
	return v
}

// NewValue resolves e for the first time and converts the result to T with
// vals.Scan.
func NewValue[T any](e Expr, ctx *Context, sub vals.NodeID) *Value[T] {
	return newValue(e, ctx, sub, scanValue[T])
}

// NewString resolves e as text. Literal lists are concatenated.
func NewString(e Expr, ctx *Context, sub vals.NodeID) *Value[string] {
	return newValue(e, ctx, sub, (*Resolver).String)
}

// NewCond resolves e as a condition. A condition that cannot be resolved is
// false.
func NewCond(e Expr, ctx *Context, sub vals.NodeID) *Value[bool] {
	return newValue(e, ctx, sub, truthy)
}

// StaticValue returns a static Value holding v.
func StaticValue[T any](v T) *Value[T] {
	return &Value[T]{kind: ValueStatic, inner: v, ok: true}
}

func scanValue[T any](r *Resolver, e Expr) (T, bool) {
	var t T
	v := r.Value(r.Eval(e))
	if v == nil {
		return t, false
	}
	if err := vals.Scan(v, &t); err != nil {
		return t, false
	}
	return t, true
}

func truthy(r *Resolver, e Expr) (bool, bool) {
	res := r.Eval(e)
	return vals.Truthy(r.Value(res)), true
}

// Kind returns the kind of the value.
func (v *Value[T]) Kind() ValueKind { return v.kind }

// Expr returns the expression the value was created from.
func (v *Value[T]) Expr() Expr { return v.expr }

// Get returns the cached value, and whether there is one.
func (v *Value[T]) Get() (T, bool) {
	return v.inner, v.ok
}

// Or returns the cached value, or def if there is none.
func (v *Value[T]) Or(def T) T {
	if v.ok {
		return v.inner
	}
	return def
}

// Resolve re-resolves a dynamic value against ctx. Static and empty values are
// left alone. It reports whether the value was re-resolved.
func (v *Value[T]) Resolve(ctx *Context, sub vals.NodeID) bool {
	if v.kind != ValueDynamic {
		return false
	}
	v.inner, v.ok = v.resolve(NewResolver(ctx, sub), v.expr)
	return true
}

// IsTrue reports whether a condition value holds true.
func IsTrue(v *Value[bool]) bool {
	b, ok := v.Get()
	return ok && b
}
