package gen

import (
	"github.com/xiaq/persistent/vector"

	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

// CollectionKind is the kind of a Collection.
type CollectionKind uint8

// Possible values of CollectionKind.
const (
	CollectionEmpty CollectionKind = iota
	// A list whose items are known when the loop is created.
	CollectionStatic
	// A list in the state, with its length mirrored locally.
	CollectionState
)

func (k CollectionKind) String() string {
	switch k {
	case CollectionStatic:
		return "static"
	case CollectionState:
		return "state"
	default:
		return "empty"
	}
}

// Collection is what a loop iterates over.
//
// The length of a state-backed collection is only changed by Push, Insert and
// Remove, which are called when changes are dispatched to the loop; the state
// is queried once when the collection is created.
type Collection struct {
	kind CollectionKind
	// Static collections: either literal expressions, or a list bound in the
	// scope.
	exprs []eval.Expr
	items []vals.BoundValue
	// State collections.
	path vals.Path
	n    int
}

// NewCollection classifies the collection expression of a loop. Looking up the
// length of a state-backed collection subscribes sub to it. A collection that
// cannot be resolved is empty.
func NewCollection(e eval.Expr, ctx *eval.Context, sub vals.NodeID) Collection {
	res := eval.NewDeferred(ctx).Eval(e)
	switch res.Kind() {
	case eval.ResultExprs:
		return Collection{kind: CollectionStatic, exprs: res.Exprs()}
	case eval.ResultList:
		return Collection{kind: CollectionStatic, items: ctx.Resolve(res.List()).Items()}
	case eval.ResultDeferred:
		p := res.Path()
		ref := ctx.State.Get(p, sub)
		for ref.Kind == eval.RefDeferred {
			p = ref.Path
			ref = ctx.State.Get(p, sub)
		}
		n := 0
		if ref.Kind == eval.RefConcrete {
			n, _ = vals.Len(ref.Value)
		}
		return Collection{kind: CollectionState, path: p, n: n}
	case eval.ResultValue:
		if list, ok := res.Value().(vector.Vector); ok {
			var items []vals.BoundValue
			for it := list.Iterator(); it.HasElem(); it.Next() {
				items = append(items, vals.Static(vals.ToString(it.Elem())))
			}
			return Collection{kind: CollectionStatic, items: items}
		}
	}
	return Collection{}
}

// Kind returns the kind of the collection.
func (c *Collection) Kind() CollectionKind { return c.kind }

// Path returns the state path of a state-backed collection.
func (c *Collection) Path() vals.Path { return c.path }

// Len returns the number of items.
func (c *Collection) Len() int {
	switch c.kind {
	case CollectionStatic:
		if c.exprs != nil {
			return len(c.exprs)
		}
		return len(c.items)
	case CollectionState:
		return c.n
	default:
		return 0
	}
}

// Push records that an item was appended.
func (c *Collection) Push() {
	if c.kind == CollectionState {
		c.n++
	}
}

// Insert records that an item was inserted at index i.
func (c *Collection) Insert(i int) {
	if c.kind == CollectionState {
		c.n++
	}
}

// Remove records that the item at index i was removed.
func (c *Collection) Remove(i int) {
	if c.kind == CollectionState && c.n > 0 {
		c.n--
	}
}

// Item returns the value to bind for the item at index i. It reports false if
// the item resolves to nothing.
func (c *Collection) Item(i int, ctx *eval.Context) (vals.BoundValue, bool) {
	if i < 0 || i >= c.Len() {
		return vals.BoundValue{}, false
	}
	switch {
	case c.kind == CollectionState:
		return vals.Dyn(c.path.Compose(vals.Index(i))), true
	case c.exprs != nil:
		return bindExpr(c.exprs[i], ctx)
	default:
		return c.items[i], true
	}
}

// Converts an expression to a value that can be bound in a scope, without
// reading the state.
func bindExpr(e eval.Expr, ctx *eval.Context) (vals.BoundValue, bool) {
	r := eval.NewDeferred(ctx)
	return bindResult(r, r.Eval(e), ctx)
}

func bindResult(r *eval.Resolver, res eval.Result, ctx *eval.Context) (vals.BoundValue, bool) {
	switch res.Kind() {
	case eval.ResultValue:
		return vals.Static(vals.ToString(res.Value())), true
	case eval.ResultDeferred:
		return vals.Dyn(res.Path()), true
	case eval.ResultList:
		return ctx.Resolve(res.List()), true
	case eval.ResultExprs:
		items := make([]vals.BoundValue, 0, len(res.Exprs()))
		for _, e := range res.Exprs() {
			if item, ok := bindResult(r, r.Eval(e), ctx); ok {
				items = append(items, item)
			}
		}
		return vals.List(items...), true
	default:
		return vals.BoundValue{}, false
	}
}
