package eval

import (
	"strings"

	"src.weft.sh/pkg/vals"
)

// Context pairs a Scope with a State. It is what values are resolved against.
type Context struct {
	Scope *Scope
	State State
}

// NewContext creates a new Context. A nil State is replaced with NoState and
// a nil Scope with a fresh one.
func NewContext(st State, sc *Scope) *Context {
	if st == nil {
		st = NoState
	}
	if sc == nil {
		sc = NewScope()
	}
	return &Context{sc, st}
}

// WithScope returns a Context with the same State and the given Scope.
func (c *Context) WithScope(sc *Scope) *Context { return &Context{sc, c.State} }

// WithState returns a Context with the same Scope and the given State.
func (c *Context) WithState(st State) *Context { return &Context{c.Scope, st} }

// Fork returns a Context whose Scope is a fork of the receiver's.
func (c *Context) Fork() *Context { return &Context{c.Scope.Fork(), c.State} }

// Resolve follows dynamic references through the scope until reaching a
// literal, a list or a path that is not bound in the scope. Lists are resolved
// element by element. The result no longer depends on any frame of the scope.
//
// Reference chains are expected to be acyclic; this is not checked.
func (c *Context) Resolve(v vals.BoundValue) vals.BoundValue {
	switch v.Kind() {
	case vals.BoundDyn:
		if bound, ok := c.Scope.Lookup(v.Path()); ok {
			return c.Resolve(bound)
		}
		return v
	case vals.BoundList:
		items := v.Items()
		for i, item := range items {
			items[i] = c.Resolve(item)
		}
		return vals.List(items...)
	default:
		return v
	}
}

// Get finds the value at p, first in the scope and then in the state,
// following dynamic references.
func (c *Context) Get(p vals.Path, sub vals.NodeID) (any, bool) {
	if bound, ok := c.Scope.Lookup(p); ok {
		switch bound.Kind() {
		case vals.BoundDyn:
			return c.Get(bound.Path(), sub)
		case vals.BoundStatic:
			return bound.Text(), true
		default:
			return nil, false
		}
	}
	ref := c.State.Get(p, sub)
	for ref.Kind == RefDeferred {
		ref = c.State.Get(ref.Path, sub)
	}
	if ref.Kind == RefConcrete {
		return ref.Value, true
	}
	return nil, false
}

// GetString is like Get, but converts the value to a string. Lists bound in
// the scope are resolved and concatenated; missing values become "".
func (c *Context) GetString(p vals.Path, sub vals.NodeID) string {
	if bound, ok := c.Scope.Lookup(p); ok {
		var sb strings.Builder
		c.writeBound(&sb, bound, sub)
		return sb.String()
	}
	v, _ := c.Get(p, sub)
	return vals.ToString(v)
}

func (c *Context) writeBound(sb *strings.Builder, v vals.BoundValue, sub vals.NodeID) {
	switch v.Kind() {
	case vals.BoundStatic:
		sb.WriteString(v.Text())
	case vals.BoundDyn:
		sb.WriteString(c.GetString(v.Path(), sub))
	case vals.BoundList:
		for _, item := range v.Items() {
			c.writeBound(sb, item, sub)
		}
	}
}
