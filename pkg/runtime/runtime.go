// Package runtime drives a node tree: it delivers queued changes to the tree
// and runs render passes over it.
package runtime

import (
	"errors"
	"fmt"

	"src.weft.sh/pkg/change"
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/gen"
	"src.weft.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[runtime] ")

// Visitor is called with every single node visited by a pass, in document
// order, with its depth below the root.
type Visitor func(s *gen.Single, depth int) error

// Stats describes one pass.
type Stats struct {
	// Changes applied to live nodes.
	Applied int
	// Changes dropped because their node no longer exists, or because it has
	// nothing to update.
	Dropped int
	// Single nodes visited.
	Visited int
	// Whether the pass stopped at the frame budget.
	Partial bool
}

// Runtime owns a tree and the queue its state reports changes to.
type Runtime struct {
	tree   *gen.Tree
	queue  *change.Queue
	cfg    Config
	passes int
}

// New creates a Runtime.
func New(tree *gen.Tree, q *change.Queue, cfg Config) *Runtime {
	return &Runtime{tree: tree, queue: q, cfg: cfg}
}

// Tree returns the tree driven by the runtime.
func (rt *Runtime) Tree() *gen.Tree { return rt.tree }

// Queue returns the change queue drained by the runtime.
func (rt *Runtime) Queue() *change.Queue { return rt.queue }

var errBudget = errors.New("frame budget reached")

// Pass drains the change queue and applies the changes to the tree, then
// visits the single nodes of the tree in document order, materializing nodes
// as needed. At most Config.FrameBudget nodes are visited if it is positive.
//
// Errors from materializing nodes or from visit end the pass and are
// returned wrapped.
func (rt *Runtime) Pass(visit Visitor) (Stats, error) {
	rt.passes++
	var stats Stats
	entries := rt.queue.Drain()
	stats.Applied = rt.tree.Dispatch(entries)
	stats.Dropped = len(entries) - stats.Applied

	root := rt.tree.Root()
	root.ResetCache()
	budget := rt.cfg.FrameBudget
	var walk func(depth int) gen.Visitor
	walk = func(depth int) gen.Visitor {
		return func(s *gen.Single, children *gen.Nodes, _ *eval.Context) error {
			if budget > 0 && stats.Visited >= budget {
				return errBudget
			}
			stats.Visited++
			if visit != nil {
				if err := visit(s, depth); err != nil {
					return err
				}
			}
			return children.ForEach(walk(depth + 1))
		}
	}
	err := root.ForEach(walk(0))
	if errors.Is(err, errBudget) {
		stats.Partial = true
		err = nil
	}
	logger.Printf("pass %d: %d changes applied, %d dropped, %d nodes visited",
		rt.passes, stats.Applied, stats.Dropped, stats.Visited)
	if err != nil {
		return stats, fmt.Errorf("pass %d: %w", rt.passes, err)
	}
	return stats, nil
}
