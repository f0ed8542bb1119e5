package gen

import (
	"fmt"
	"sync"

	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/vals"
)

// View is a user-defined sub-tree. Each view node gets its own View from the
// registered ViewFactory.
type View interface {
	Template() []Expression
}

// StatefulView is implemented by views that own their state. Other views see
// the part of the enclosing state named by the view expression, or all of it.
type StatefulView interface {
	View
	State() eval.State
}

// ViewFactory creates a View instance.
type ViewFactory func() (View, error)

// ViewNotFoundError is returned when a view expression names an unregistered
// view.
type ViewNotFoundError struct {
	Name string
}

func (e *ViewNotFoundError) Error() string {
	return fmt.Sprintf("view not found: %s", e.Name)
}

// ViewNode is a node holding an instantiated view.
type ViewNode struct {
	node *Node
	Name string
	View View
	body *Nodes
}

// Body returns the nodes of the view's template.
func (v *ViewNode) Body() *Nodes { return v.body }

// Views is the registry of view factories, and of the live view instances in
// tab order. It is safe for concurrent use; registrations are serialized.
type Views struct {
	mutex     sync.RWMutex
	factories map[string]ViewFactory
	// Live instances, in creation order.
	tabOrder []vals.NodeID
	tabIndex int
}

// NewViews creates an empty registry.
func NewViews() *Views {
	return &Views{factories: make(map[string]ViewFactory)}
}

// Register registers a view factory. It is an error to register a name twice.
func (vs *Views) Register(name string, f ViewFactory) error {
	vs.mutex.Lock()
	defer vs.mutex.Unlock()
	if _, exists := vs.factories[name]; exists {
		return fmt.Errorf("view %q already registered", name)
	}
	vs.factories[name] = f
	return nil
}

// New creates an instance of the named view.
func (vs *Views) New(name string) (View, error) {
	vs.mutex.RLock()
	f, ok := vs.factories[name]
	vs.mutex.RUnlock()
	if !ok {
		return nil, &ViewNotFoundError{name}
	}
	return f()
}

// Names returns the registered view names in sorted order.
func (vs *Views) Names() []string {
	vs.mutex.RLock()
	defer vs.mutex.RUnlock()
	return sortedKeys(vs.factories)
}

func (vs *Views) addInstance(id vals.NodeID) {
	vs.mutex.Lock()
	defer vs.mutex.Unlock()
	vs.tabOrder = append(vs.tabOrder, id)
}

func (vs *Views) removeInstance(id vals.NodeID) {
	vs.mutex.Lock()
	defer vs.mutex.Unlock()
	for i, instance := range vs.tabOrder {
		if instance == id {
			vs.tabOrder = append(vs.tabOrder[:i], vs.tabOrder[i+1:]...)
			if i < vs.tabIndex || vs.tabIndex >= len(vs.tabOrder) {
				vs.tabIndex--
			}
			if vs.tabIndex < 0 {
				vs.tabIndex = 0
			}
			return
		}
	}
}

// Current returns the ID of the view instance that has focus. It reports false
// if there are no view instances.
func (vs *Views) Current() (vals.NodeID, bool) {
	vs.mutex.RLock()
	defer vs.mutex.RUnlock()
	if len(vs.tabOrder) == 0 {
		return vals.NoNode, false
	}
	return vs.tabOrder[vs.tabIndex], true
}

// Next moves the focus to the next view instance, wrapping around, and returns
// its ID.
func (vs *Views) Next() (vals.NodeID, bool) { return vs.move(1) }

// Prev moves the focus to the previous view instance, wrapping around, and
// returns its ID.
func (vs *Views) Prev() (vals.NodeID, bool) { return vs.move(-1) }

func (vs *Views) move(delta int) (vals.NodeID, bool) {
	vs.mutex.Lock()
	defer vs.mutex.Unlock()
	n := len(vs.tabOrder)
	if n == 0 {
		return vals.NoNode, false
	}
	vs.tabIndex = ((vs.tabIndex+delta)%n + n) % n
	return vs.tabOrder[vs.tabIndex], true
}

// Instances returns the IDs of the live view instances in tab order.
func (vs *Views) Instances() []vals.NodeID {
	vs.mutex.RLock()
	defer vs.mutex.RUnlock()
	return append([]vals.NodeID(nil), vs.tabOrder...)
}

func (t *Tree) newViewNode(e *ViewExpr, node *Node) (*ViewNode, error) {
	view, err := t.views.New(e.Name)
	if err != nil {
		logger.Printf("view %q at %s: %v", e.Name, node.id, err)
		return nil, err
	}
	var st eval.State
	if sv, ok := view.(StatefulView); ok {
		st = sv.State()
	} else {
		st = node.ctx.State
		if e.State != nil {
			if p, ok := eval.NewDeferred(node.ctx).Path(e.State); ok {
				st = eval.Prefixed(st, p)
			}
		}
	}
	// Views do not see the bindings of the template they are used in.
	ctx := eval.NewContext(st, nil)
	t.views.addInstance(node.id)
	return &ViewNode{node, e.Name, view, newNodes(t, node.id, ctx, view.Template())}, nil
}
