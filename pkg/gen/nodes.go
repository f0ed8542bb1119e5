package gen

import (
	"errors"

	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

// Nodes is an ordered sequence of nodes, materialized from a slice of
// expressions as they are pulled.
//
// Nodes before exprIndex in the expression slice have been evaluated and live
// in inner. Within one pass, cursor marks the cached node the next pull
// resumes from.
type Nodes struct {
	tree      *Tree
	parent    vals.NodeID
	ctx       *eval.Context
	exprs     []Expression
	inner     []*Node
	exprIndex int
	cursor    int
}

func newNodes(t *Tree, parent vals.NodeID, ctx *eval.Context, exprs []Expression) *Nodes {
	return &Nodes{tree: t, parent: parent, ctx: ctx, exprs: exprs}
}

// Next returns the next single node in document order, evaluating further
// expressions only when the cached nodes are used up. It returns nil when the
// sequence is exhausted for the current pass.
func (ns *Nodes) Next() (*Single, error) {
	for {
		if ns.cursor < len(ns.inner) {
			s, err := ns.inner[ns.cursor].next(ns.tree)
			if err != nil || s != nil {
				return s, err
			}
			ns.cursor++
			continue
		}
		if ns.exprIndex >= len(ns.exprs) {
			return nil, nil
		}
		node, err := ns.tree.eval(ns.exprs[ns.exprIndex], ns.ctx, ns.parent.Child(ns.exprIndex))
		if err != nil {
			return nil, err
		}
		ns.exprIndex++
		ns.inner = append(ns.inner, node)
	}
}

// Visitor is called for every single node in document order, with the
// node's children and context. Visiting the children is up to the visitor.
type Visitor func(s *Single, children *Nodes, ctx *eval.Context) error

// ErrStop can be returned from a Visitor to stop ForEach without an error.
var ErrStop = errors.New("stop")

// ForEach pulls all remaining single nodes of the sequence and calls f with
// each. It stops at the first error, which it returns unless it is ErrStop.
func (ns *Nodes) ForEach(f Visitor) error {
	for {
		s, err := ns.Next()
		if err != nil {
			return err
		}
		if s == nil {
			return nil
		}
		if err := f(s, s.Children, s.node.ctx); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// Walk pulls every node of the sequence and their children, recursively,
// calling f with each single node in document order.
func (ns *Nodes) Walk(f func(*Single) error) error {
	var visit Visitor
	visit = func(s *Single, children *Nodes, _ *eval.Context) error {
		if err := f(s); err != nil {
			return err
		}
		return children.ForEach(visit)
	}
	return ns.ForEach(visit)
}

// PullAll materializes the whole sequence, including all children.
func (ns *Nodes) PullAll() error {
	return ns.Walk(func(*Single) error { return nil })
}

// ResetCache rewinds all cursors, so that the next pass starts from the first
// node again. Materialized nodes are kept.
func (ns *Nodes) ResetCache() {
	ns.cursor = 0
	for _, node := range ns.inner {
		node.reset()
	}
}

// Count returns the number of materialized single nodes, including all
// descendants.
func (ns *Nodes) Count() int {
	n := 0
	ns.walkNodes(func(node *Node) {
		if _, ok := node.kind.(*Single); ok {
			n++
		}
	})
	return n
}

// Singles returns all materialized single nodes in document order.
func (ns *Nodes) Singles() []*Single {
	var singles []*Single
	ns.walkNodes(func(node *Node) {
		if s, ok := node.kind.(*Single); ok {
			singles = append(singles, s)
		}
	})
	return singles
}

// First returns the first materialized single node, or nil.
func (ns *Nodes) First() *Single {
	for _, node := range ns.inner {
		var first *Single
		node.walk(func(n *Node) {
			if s, ok := n.kind.(*Single); ok && first == nil {
				first = s
			}
		})
		if first != nil {
			return first
		}
	}
	return nil
}

// Len returns the number of materialized nodes in the sequence itself.
func (ns *Nodes) Len() int { return len(ns.inner) }

// Node returns the i-th materialized node.
func (ns *Nodes) Node(i int) *Node { return ns.inner[i] }

func (ns *Nodes) walkNodes(f func(*Node)) {
	for _, node := range ns.inner {
		node.walk(f)
	}
}

// Removes the i-th materialized node and unregisters it with all its
// descendants. The expression it came from is not evaluated again.
func (ns *Nodes) remove(i int) {
	node := ns.inner[i]
	ns.inner = append(ns.inner[:i], ns.inner[i+1:]...)
	if i < ns.cursor {
		ns.cursor--
	}
	ns.tree.drop(node)
}
