package gen

import "src.weft.sh/pkg/vals"

// Query selects materialized single nodes anywhere below a Nodes. Conditions
// added with ByTag, ByAttribute and Filter must all hold.
type Query struct {
	nodes *Nodes
	preds []func(*Single) bool
}

// Query starts a query over the sequence and all its descendants.
func (ns *Nodes) Query() *Query { return &Query{nodes: ns} }

// ByTag selects single nodes with the given tag.
func (q *Query) ByTag(tag string) *Query {
	return q.Filter(func(s *Single) bool { return s.Tag == tag })
}

// ByAttribute selects single nodes with an attribute equal to value.
func (q *Query) ByAttribute(key string, value any) *Query {
	return q.Filter(func(s *Single) bool {
		v, ok := s.Attr(key)
		return ok && vals.Equal(v, value)
	})
}

// Filter selects single nodes for which f returns true.
func (q *Query) Filter(f func(*Single) bool) *Query {
	preds := append(q.preds[:len(q.preds):len(q.preds)], f)
	return &Query{q.nodes, preds}
}

func (q *Query) match(s *Single) bool {
	for _, pred := range q.preds {
		if !pred(s) {
			return false
		}
	}
	return true
}

// ForEach calls f with each matching node in document order. It stops at the
// first error and returns it.
func (q *Query) ForEach(f func(*Single) error) error {
	for _, s := range q.nodes.Singles() {
		if q.match(s) {
			if err := f(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Remove removes all matching nodes, together with their children, and
// returns how many were removed. Removed nodes are not generated again.
func (q *Query) Remove() int {
	return q.remove(q.nodes)
}

func (q *Query) remove(ns *Nodes) int {
	n := 0
	for i := 0; i < len(ns.inner); {
		node := ns.inner[i]
		if s, ok := node.kind.(*Single); ok && q.match(s) {
			ns.remove(i)
			n++
			continue
		}
		node.eachNodes(func(child *Nodes) { n += q.remove(child) })
		i++
	}
	return n
}
