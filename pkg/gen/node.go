package gen

import (
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

// Node is the materialized result of evaluating one Expression.
type Node struct {
	id  vals.NodeID
	ctx *eval.Context
	// One of *Single, *Loop, *ControlFlow and *ViewNode.
	kind Kind
}

// Kind is the variant part of a Node. The set of implementations is closed:
// *Single, *Loop, *ControlFlow and *ViewNode.
type Kind interface {
	nodeKind()
}

func (*Single) nodeKind()      {}
func (*Loop) nodeKind()        {}
func (*ControlFlow) nodeKind() {}
func (*ViewNode) nodeKind()    {}

// ID returns the identity of the node.
func (n *Node) ID() vals.NodeID { return n.id }

// Context returns the context the node resolves its values against.
func (n *Node) Context() *eval.Context { return n.ctx }

// Kind returns the variant of the node.
func (n *Node) Kind() Kind { return n.kind }

// genState is the state of a resumable generator.
type genState uint8

const (
	notStarted genState = iota
	inProgress
	exhausted
)

// Single is a node holding one widget, and the children of that widget.
type Single struct {
	node       *Node
	Tag        string
	Widget     Widget
	Text       *eval.Value[string]
	Attributes map[string]*eval.Value[any]
	Children   *Nodes
	state      genState
}

// ID returns the identity of the node.
func (s *Single) ID() vals.NodeID { return s.node.id }

// Context returns the context of the node.
func (s *Single) Context() *eval.Context { return s.node.ctx }

// Attr returns the current value of an attribute.
func (s *Single) Attr(key string) (any, bool) {
	v, ok := s.Attributes[key]
	if !ok {
		return nil, false
	}
	return v.Get()
}

// TextValue returns the current text, or "" if there is none.
func (s *Single) TextValue() string { return s.Text.Or("") }

func (s *Single) factoryContext() *FactoryContext {
	attrs := make(map[string]any, len(s.Attributes))
	for k, v := range s.Attributes {
		if value, ok := v.Get(); ok {
			attrs[k] = value
		}
	}
	return &FactoryContext{s.Tag, s.node.id, s.TextValue(), attrs}
}

// Re-resolves dynamic values. Reports whether anything was re-resolved.
func (s *Single) resolve() bool {
	ctx, id := s.node.ctx, s.node.id
	changed := s.Text.Resolve(ctx, id)
	for _, v := range s.Attributes {
		if v.Resolve(ctx, id) {
			changed = true
		}
	}
	if changed {
		if u, ok := s.Widget.(Updater); ok {
			u.Update(s.factoryContext())
		}
	}
	return changed
}

// The operations below switch exhaustively over the variants of Kind.

// Returns the next single node for the current pass, or nil if the node has
// nothing more to yield.
func (n *Node) next(t *Tree) (*Single, error) {
	switch k := n.kind.(type) {
	case *Single:
		if k.state == exhausted {
			return nil, nil
		}
		k.state = exhausted
		return k, nil
	case *Loop:
		return k.next(t)
	case *ControlFlow:
		return k.next(t)
	case *ViewNode:
		return k.body.Next()
	default:
		panic("unreachable")
	}
}

// Rewinds all cursors, so that the next pass replays materialized nodes.
func (n *Node) reset() {
	switch k := n.kind.(type) {
	case *Single:
		k.state = notStarted
	case *Loop:
		k.reset()
	case *ControlFlow:
		k.reset()
	case *ViewNode:
	default:
		panic("unreachable")
	}
	n.eachNodes(func(ns *Nodes) { ns.ResetCache() })
}

// Calls f with every materialized child sequence of the node.
func (n *Node) eachNodes(f func(*Nodes)) {
	switch k := n.kind.(type) {
	case *Single:
		f(k.Children)
	case *Loop:
		for _, it := range k.iters {
			f(it.body)
		}
	case *ControlFlow:
		if k.body != nil {
			f(k.body)
		}
	case *ViewNode:
		f(k.body)
	default:
		panic("unreachable")
	}
}

// Re-resolves everything that depends on the scope of the node, after a
// binding it depends on has changed.
func (n *Node) refresh(t *Tree) {
	switch k := n.kind.(type) {
	case *Single:
		k.resolve()
	case *Loop:
		k.refresh(t)
	case *ControlFlow, *ViewNode:
	default:
		panic("unreachable")
	}
	n.eachNodes(func(ns *Nodes) {
		for _, child := range ns.inner {
			child.refresh(t)
		}
	})
}

// Calls f with the node and all its materialized descendants, in document
// order.
func (n *Node) walk(f func(*Node)) {
	f(n)
	n.eachNodes(func(ns *Nodes) {
		for _, child := range ns.inner {
			child.walk(f)
		}
	})
}
