package gen

import (
	"src.weft.sh/pkg/change"
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

// Loop is the runtime of a loop node. Iterations are materialized one at a
// time, only when the consumer pulls past the last materialized one.
//
// Every iteration has an ID fixed at creation, and an index into the
// collection that shifts as items are inserted and removed before it.
// Materialized iterations always cover the indices 0 to len(iters)-1.
type Loop struct {
	node       *Node
	binding    vals.Path
	expr       *LoopExpr
	collection Collection
	iters      []*iteration
	cursor     int
	state      genState
	nextSeq    int
}

type iteration struct {
	id    vals.NodeID
	index int
	ctx   *eval.Context
	body  *Nodes
}

func newLoop(e *LoopExpr, node *Node) *Loop {
	return &Loop{
		node:       node,
		binding:    vals.Key(e.Binding),
		expr:       e,
		collection: NewCollection(e.Collection, node.ctx, node.id),
	}
}

// Collection returns the collection the loop iterates over.
func (l *Loop) Collection() *Collection { return &l.collection }

// Iterations returns the number of materialized iterations.
func (l *Loop) Iterations() int { return len(l.iters) }

// Body returns the nodes of the i-th materialized iteration.
func (l *Loop) Body(i int) *Nodes { return l.iters[i].body }

func (l *Loop) next(t *Tree) (*Single, error) {
	if l.state == notStarted {
		l.state = inProgress
	}
	for {
		if l.cursor < len(l.iters) {
			s, err := l.iters[l.cursor].body.Next()
			if err != nil || s != nil {
				return s, err
			}
			l.cursor++
			continue
		}
		if l.state == exhausted {
			return nil, nil
		}
		if len(l.iters) >= l.collection.Len() {
			l.state = exhausted
			return nil, nil
		}
		l.iters = append(l.iters, l.newIteration(t, len(l.iters)))
	}
}

func (l *Loop) newIteration(t *Tree, index int) *iteration {
	id := l.node.id.Child(l.nextSeq)
	l.nextSeq++
	ctx := l.node.ctx.Fork()
	ctx.Scope.Push()
	it := &iteration{id: id, index: index, ctx: ctx}
	l.bind(it)
	it.body = newNodes(t, id, ctx, l.expr.Body)
	return it
}

func (l *Loop) bind(it *iteration) {
	if v, ok := l.collection.Item(it.index, l.node.ctx); ok {
		it.ctx.Scope.Bind(l.binding, v)
	} else {
		it.ctx.Scope.Bind(l.binding, vals.List())
	}
}

func (l *Loop) reset() {
	l.cursor = 0
	if l.state == exhausted {
		l.state = inProgress
	}
}

// Applies a change addressed to the loop.
func (l *Loop) apply(t *Tree, c change.Change) {
	if c.Kind != change.Update && l.collection.kind != CollectionState {
		logger.Printf("%s change to loop %s over %s collection ignored", c, l.node.id, l.collection.kind)
		return
	}
	switch c.Kind {
	case change.Push:
		l.collection.Push()
		l.reopen()
	case change.InsertIndex:
		l.collection.Insert(c.Index)
		l.reopen()
		if c.Index < 0 || c.Index > len(l.iters) || c.Index >= l.collection.Len() {
			return
		}
		if c.Index == len(l.iters) {
			// Will be materialized by the next pull past the end.
			return
		}
		it := l.newIteration(t, c.Index)
		l.iters = append(l.iters, nil)
		copy(l.iters[c.Index+1:], l.iters[c.Index:])
		l.iters[c.Index] = it
		if c.Index < l.cursor {
			l.cursor++
		}
		l.shift(t, c.Index+1)
	case change.RemoveIndex:
		l.collection.Remove(c.Index)
		if c.Index < 0 || c.Index >= len(l.iters) {
			return
		}
		it := l.iters[c.Index]
		l.iters = append(l.iters[:c.Index], l.iters[c.Index+1:]...)
		if c.Index < l.cursor {
			l.cursor--
		}
		for _, node := range it.body.inner {
			t.drop(node)
		}
		l.shift(t, c.Index)
	case change.Update:
		l.refresh(t)
	}
}

// Makes the loop generate iterations again if the collection has grown.
func (l *Loop) reopen() {
	if l.state == exhausted {
		l.state = inProgress
	}
}

// Brings the indices of iterations from position from onwards in line with
// their positions, rebinding and refreshing the ones that moved.
func (l *Loop) shift(t *Tree, from int) {
	for i := from; i < len(l.iters); i++ {
		it := l.iters[i]
		if it.index == i {
			continue
		}
		it.index = i
		l.bind(it)
		for _, node := range it.body.inner {
			node.refresh(t)
		}
	}
}

// Reclassifies the collection after the scope it was resolved in has changed.
// Iterations past the new length are dropped; the others are rebound.
func (l *Loop) refresh(t *Tree) {
	old := l.collection
	l.collection = NewCollection(l.expr.Collection, l.node.ctx, l.node.id)
	if old.kind == CollectionState && l.collection.kind == CollectionState && old.path == l.collection.path {
		// The mirrored length only changes through Push, Insert and Remove.
		l.collection.n = old.n
		return
	}
	for len(l.iters) > l.collection.Len() {
		last := l.iters[len(l.iters)-1]
		l.iters = l.iters[:len(l.iters)-1]
		for _, node := range last.body.inner {
			t.drop(node)
		}
	}
	if l.cursor > len(l.iters) {
		l.cursor = len(l.iters)
	}
	l.reopen()
	for _, it := range l.iters {
		l.bind(it)
	}
}
