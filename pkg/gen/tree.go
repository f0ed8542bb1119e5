package gen

import (
	"src.weft.sh/pkg/change"
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/logutil"
	"src.weft.sh/pkg/vals"
)

var logger = logutil.GetLogger("[gen] ")

// Tree owns the nodes materialized from a template, and an index of all of
// them by ID, through which changes are delivered.
type Tree struct {
	root    *Nodes
	index   map[vals.NodeID]*Node
	factory Factory
	views   *Views
}

// NewTree creates a Tree for a template. Nothing is evaluated until nodes are
// pulled from Root. A nil ctx is replaced with an empty context, and a nil
// views with an empty registry.
func NewTree(exprs []Expression, ctx *eval.Context, f Factory, views *Views) *Tree {
	if ctx == nil {
		ctx = eval.NewContext(nil, nil)
	}
	if views == nil {
		views = NewViews()
	}
	t := &Tree{index: make(map[vals.NodeID]*Node), factory: f, views: views}
	t.root = newNodes(t, vals.NoNode, ctx, exprs)
	return t
}

// Root returns the top-level nodes.
func (t *Tree) Root() *Nodes { return t.root }

// Views returns the view registry of the tree.
func (t *Tree) Views() *Views { return t.views }

// Lookup finds a live node by ID.
func (t *Tree) Lookup(id vals.NodeID) (*Node, bool) {
	node, ok := t.index[id]
	return node, ok
}

// Size returns the number of live nodes of all kinds.
func (t *Tree) Size() int { return len(t.index) }

// Apply delivers one change to the node with the given ID. Changes to nodes
// that no longer exist are dropped. It reports whether the change was
// applied.
func (t *Tree) Apply(id vals.NodeID, c change.Change) bool {
	node, ok := t.index[id]
	if !ok {
		logger.Printf("dropping %s for missing node %q", c, id)
		return false
	}
	switch k := node.kind.(type) {
	case *Single:
		k.resolve()
	case *Loop:
		k.apply(t, c)
	case *ControlFlow, *ViewNode:
		// These hold no values of their own; their contents subscribe
		// themselves.
		logger.Printf("ignoring %s for node %q", c, id)
		return false
	default:
		panic("unreachable")
	}
	return true
}

// Dispatch applies entries in order, and returns the number of applied
// changes.
func (t *Tree) Dispatch(entries []change.Entry) int {
	n := 0
	for _, e := range entries {
		if t.Apply(e.ID, e.Change) {
			n++
		}
	}
	return n
}

// Evaluates an expression into a node with a new scope frame.
func (t *Tree) eval(e Expression, ctx *eval.Context, id vals.NodeID) (*Node, error) {
	ctx = ctx.Fork()
	ctx.Scope.Push()
	node := &Node{id: id, ctx: ctx}
	switch e := e.(type) {
	case *SingleExpr:
		s, err := t.newSingle(e, node)
		if err != nil {
			return nil, err
		}
		node.kind = s
	case *LoopExpr:
		node.kind = newLoop(e, node)
	case *ControlFlowExpr:
		node.kind = newControlFlow(e, node)
	case *ViewExpr:
		v, err := t.newViewNode(e, node)
		if err != nil {
			return nil, err
		}
		node.kind = v
	default:
		panic("unreachable")
	}
	t.index[id] = node
	return node, nil
}

func (t *Tree) newSingle(e *SingleExpr, node *Node) (*Single, error) {
	s := &Single{
		node:       node,
		Tag:        e.Tag,
		Text:       eval.NewString(e.Text, node.ctx, node.id),
		Attributes: make(map[string]*eval.Value[any], len(e.Attributes)),
	}
	for k, v := range e.Attributes {
		s.Attributes[k] = eval.NewValue[any](v, node.ctx, node.id)
	}
	w, err := t.factory.Make(s.factoryContext())
	if err != nil {
		if _, ok := err.(*FactoryError); !ok {
			err = &FactoryError{e.Tag, err}
		}
		return nil, err
	}
	s.Widget = w
	s.Children = newNodes(t, node.id, node.ctx, e.Children)
	return s, nil
}

// Unregisters a node and all its descendants.
func (t *Tree) drop(node *Node) {
	node.walk(func(n *Node) {
		delete(t.index, n.id)
		if _, ok := n.kind.(*ViewNode); ok {
			t.views.removeInstance(n.id)
		}
	})
}
