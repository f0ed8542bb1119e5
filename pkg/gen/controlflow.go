package gen

import (
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

// ControlFlow is the runtime of an if/else node. The conditions are tested
// when the first node is pulled, and the first branch that holds is selected
// for as long as the node lives. When no branch holds, nothing is yielded and
// the conditions are tested again in the next pass.
type ControlFlow struct {
	node     *Node
	expr     *ControlFlowExpr
	selected int
	body     *Nodes
	state    genState
}

func newControlFlow(e *ControlFlowExpr, node *Node) *ControlFlow {
	return &ControlFlow{node: node, expr: e, selected: -1}
}

// Selected returns the index of the selected branch: 0 for the if branch, and
// i+1 for the i-th else branch. It returns -1 if no branch has been selected.
func (cf *ControlFlow) Selected() int { return cf.selected }

// Body returns the nodes of the selected branch, or nil.
func (cf *ControlFlow) Body() *Nodes { return cf.body }

func (cf *ControlFlow) next(t *Tree) (*Single, error) {
	switch cf.state {
	case notStarted:
		body, i := cf.selectBranch()
		if i == -1 {
			cf.state = exhausted
			return nil, nil
		}
		cf.selected = i
		cf.body = newNodes(t, cf.node.id, cf.node.ctx, body)
		cf.state = inProgress
		return cf.body.Next()
	case inProgress:
		return cf.body.Next()
	default:
		return nil, nil
	}
}

// Conditions do not subscribe the node: a selected branch never changes.
func (cf *ControlFlow) selectBranch() ([]Expression, int) {
	ctx := cf.node.ctx
	if eval.IsTrue(eval.NewCond(cf.expr.If.Cond, ctx, vals.NoNode)) {
		return cf.expr.If.Body, 0
	}
	for i, b := range cf.expr.Elses {
		if b.Cond == nil || eval.IsTrue(eval.NewCond(b.Cond, ctx, vals.NoNode)) {
			return b.Body, i + 1
		}
	}
	return nil, -1
}

func (cf *ControlFlow) reset() {
	if cf.state == exhausted {
		cf.state = notStarted
	}
}
