// Package state provides a State backed by persistent maps and lists, which
// remembers which nodes read which paths and tells them about changes through
// a change.Queue.
package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/xiaq/persistent/hashmap"
	"github.com/xiaq/persistent/vector"

	"src.weft.sh/pkg/change"
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/logutil"
	"src.weft.sh/pkg/vals"
)

var logger = logutil.GetLogger("[state] ")

// Alias can be stored as a value to make a path refer to another one.
type Alias struct {
	Path vals.Path
}

// Errors returned by mutation methods.
var (
	ErrNotList      = errors.New("not a list")
	ErrNotContainer = errors.New("not a map or list")
	ErrOutOfRange   = errors.New("index out of range")
	ErrEmptyPath    = errors.New("empty path")
)

// MapState is an eval.State holding a tree of maps and lists. It is safe for
// concurrent use.
//
// Get records the subscriber for the path it looks up. Mutations enqueue
// changes to the subscribers of the affected paths, each path's subscribers in
// sorted order.
type MapState struct {
	mutex sync.Mutex
	root  hashmap.Map
	subs  map[vals.Path]map[vals.NodeID]struct{}
	queue *change.Queue
}

var _ eval.State = (*MapState)(nil)

// New creates an empty MapState delivering changes to q. If q is nil, changes
// are discarded.
func New(q *change.Queue) *MapState {
	return &MapState{root: vals.EmptyMap, subs: make(map[vals.Path]map[vals.NodeID]struct{}), queue: q}
}

// FromMap creates a MapState with the content of m.
func FromMap(m map[string]any, q *change.Queue) (*MapState, error) {
	s := New(q)
	if err := s.Restore(m); err != nil {
		return nil, err
	}
	return s, nil
}

// Get implements eval.State.
func (s *MapState) Get(p vals.Path, sub vals.NodeID) eval.Ref {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if sub != vals.NoNode {
		s.subscribe(p, sub)
	}
	v, ok := get(s.root, p)
	if !ok {
		return eval.Empty
	}
	if alias, ok := v.(Alias); ok {
		return eval.Deferred(alias.Path)
	}
	return eval.Concrete(v)
}

// Value returns the value at p without subscribing to it.
func (s *MapState) Value(p vals.Path) (any, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return get(s.root, p)
}

func (s *MapState) subscribe(p vals.Path, sub vals.NodeID) {
	m, ok := s.subs[p]
	if !ok {
		m = make(map[vals.NodeID]struct{})
		s.subs[p] = m
	}
	m[sub] = struct{}{}
}

// Unsubscribe forgets all subscriptions of sub and its descendants.
func (s *MapState) Unsubscribe(sub vals.NodeID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for p, m := range s.subs {
		for id := range m {
			if sub.Contains(id) {
				delete(m, id)
			}
		}
		if len(m) == 0 {
			delete(s.subs, p)
		}
	}
}

// Subscribers returns the subscribers of p in sorted order.
func (s *MapState) Subscribers(p vals.Path) []vals.NodeID {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.subscribers(p)
}

func (s *MapState) subscribers(p vals.Path) []vals.NodeID {
	m := s.subs[p]
	ids := make([]vals.NodeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *MapState) notify(p vals.Path, c change.Change) {
	if s.queue == nil {
		return
	}
	for _, id := range s.subscribers(p) {
		s.queue.Enqueue(id, c)
	}
}

// Notifies subscribers of strict descendants of p, in sorted path order, of
// the difference between their values under oldRoot and under the current
// root.
func (s *MapState) notifyBelow(p vals.Path, oldRoot hashmap.Map) {
	var paths []vals.Path
	for q := range s.subs {
		if q != p && q.HasPrefix(p) {
			paths = append(paths, q)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	for _, q := range paths {
		old, _ := get(oldRoot, q)
		v, _ := get(s.root, q)
		s.notifyReplaced(q, old, v)
	}
}

// Notifies subscribers of p that its value changed from old to v. When either
// is a list, they are told about the removal of every old item followed by a
// push of every new one; otherwise they get an update.
func (s *MapState) notifyReplaced(p vals.Path, old, v any) {
	oldList, oldIsList := old.(vector.Vector)
	newList, newIsList := v.(vector.Vector)
	if !oldIsList && !newIsList {
		s.notify(p, change.UpdateChange)
		return
	}
	if oldIsList {
		for i := oldList.Len() - 1; i >= 0; i-- {
			s.notify(p, change.Remove(i))
		}
	}
	if newIsList {
		for i := 0; i < newList.Len(); i++ {
			s.notify(p, change.PushChange)
		}
	}
}

// Set sets the value at p, creating intermediate maps as needed. Subscribers
// of p and of paths below it are notified. A list replaced directly or through
// an ancestor is reported as the removal of every old item followed by a push
// of every new one.
func (s *MapState) Set(p vals.Path, v any) error {
	v, err := fromGo(v)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	oldRoot := s.root
	old, _ := get(oldRoot, p)
	root, err := assoc(s.root, p.Segments(), v, true)
	if err != nil {
		return fmt.Errorf("set %s: %w", p, err)
	}
	s.root = root
	s.notifyReplaced(p, old, v)
	s.notifyBelow(p, oldRoot)
	return nil
}

// Push appends v to the list at p. A missing list is created.
func (s *MapState) Push(p vals.Path, v any) error {
	v, err := fromGo(v)
	if err != nil {
		return err
	}
	return s.modifyList(p, func(list vector.Vector) (vector.Vector, change.Change, int, error) {
		return list.Cons(v), change.PushChange, list.Len(), nil
	})
}

// Insert inserts v into the list at p before index i. An index equal to the
// length of the list appends.
func (s *MapState) Insert(p vals.Path, i int, v any) error {
	v, err := fromGo(v)
	if err != nil {
		return err
	}
	return s.modifyList(p, func(list vector.Vector) (vector.Vector, change.Change, int, error) {
		if i < 0 || i > list.Len() {
			return nil, change.Change{}, 0, ErrOutOfRange
		}
		items := listItems(list)
		items = append(items[:i], append([]any{v}, items[i:]...)...)
		return listOf(items), change.Insert(i), i, nil
	})
}

// Remove removes the item at index i from the list at p.
func (s *MapState) Remove(p vals.Path, i int) error {
	return s.modifyList(p, func(list vector.Vector) (vector.Vector, change.Change, int, error) {
		if i < 0 || i >= list.Len() {
			return nil, change.Change{}, 0, ErrOutOfRange
		}
		items := listItems(list)
		items = append(items[:i], items[i+1:]...)
		return listOf(items), change.Remove(i), i, nil
	})
}

// Runs f on the list at p and stores the result. Subscribers of p get the
// change returned by f; subscribers of items from index shifted onwards get
// updates.
func (s *MapState) modifyList(p vals.Path, f func(vector.Vector) (vector.Vector, change.Change, int, error)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	old, ok := get(s.root, p)
	if !ok {
		old = vector.Empty
	}
	list, ok := old.(vector.Vector)
	if !ok {
		return fmt.Errorf("%s: %w", p, ErrNotList)
	}
	list, c, shifted, err := f(list)
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	root, err := assoc(s.root, p.Segments(), list, true)
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	s.root = root
	s.notify(p, c)
	if c.Kind != change.Push {
		for i := shifted; i <= list.Len(); i++ {
			q := p.Compose(vals.Index(i))
			s.notify(q, change.UpdateChange)
		}
	}
	logger.Printf("%s %s, length now %d", p, c, list.Len())
	return nil
}

// Snapshot returns the content of the state as plain Go values.
func (s *MapState) Snapshot() map[string]any {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return toGo(s.root).(map[string]any)
}

// Restore replaces the content of the state with m. Subscriptions are kept but
// not notified.
func (s *MapState) Restore(m map[string]any) error {
	v, err := fromGo(m)
	if err != nil {
		return err
	}
	root, ok := v.(hashmap.Map)
	if !ok {
		return ErrNotContainer
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.root = root
	return nil
}

// In plain Go data, an Alias is a map with aliasKey as its only key.
const aliasKey = "$alias"

// Like vals.FromGo, but also converts aliases.
func fromGo(v any) (any, error) {
	switch v := v.(type) {
	case Alias:
		return v, nil
	case []any:
		list := vector.Empty
		for _, elem := range v {
			conv, err := fromGo(elem)
			if err != nil {
				return nil, err
			}
			list = list.Cons(conv)
		}
		return list, nil
	case map[string]any:
		if target, ok := v[aliasKey].(string); ok && len(v) == 1 {
			return Alias{vals.ParsePath(target)}, nil
		}
		m := vals.EmptyMap
		for k, elem := range v {
			conv, err := fromGo(elem)
			if err != nil {
				return nil, err
			}
			m = m.Assoc(k, conv)
		}
		return m, nil
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, elem := range v {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("map key must be string, got %s", vals.Kind(k))
			}
			m[ks] = elem
		}
		return fromGo(m)
	default:
		return vals.FromGo(v)
	}
}

// Like vals.ToGo, but also converts aliases.
func toGo(v any) any {
	switch v := v.(type) {
	case Alias:
		return map[string]any{aliasKey: v.Path.String()}
	case vector.Vector:
		s := make([]any, 0, v.Len())
		for it := v.Iterator(); it.HasElem(); it.Next() {
			s = append(s, toGo(it.Elem()))
		}
		return s
	case hashmap.Map:
		m := make(map[string]any, v.Len())
		for it := v.Iterator(); it.HasElem(); it.Next() {
			k, elem := it.Elem()
			m[k.(string)] = toGo(elem)
		}
		return m
	default:
		return v
	}
}

func get(v any, p vals.Path) (any, bool) {
	for _, seg := range p.Segments() {
		switch c := v.(type) {
		case hashmap.Map:
			if seg.IsIndex {
				return nil, false
			}
			var ok bool
			if v, ok = c.Index(seg.Key); !ok {
				return nil, false
			}
		case vector.Vector:
			if !seg.IsIndex {
				return nil, false
			}
			var ok bool
			if v, ok = c.Index(seg.Index); !ok {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return v, true
}

// Returns container with the value at segs replaced by v. When create is true,
// missing map entries on the way are created.
func assoc(container any, segs []vals.Segment, v any, create bool) (hashmap.Map, error) {
	if len(segs) == 0 {
		return nil, ErrEmptyPath
	}
	m, ok := container.(hashmap.Map)
	if !ok {
		return nil, ErrNotContainer
	}
	result, err := assocIn(m, segs, v, create)
	if err != nil {
		return nil, err
	}
	return result.(hashmap.Map), nil
}

func assocIn(container any, segs []vals.Segment, v any, create bool) (any, error) {
	if len(segs) == 0 {
		return v, nil
	}
	seg := segs[0]
	switch c := container.(type) {
	case hashmap.Map:
		if seg.IsIndex {
			return nil, ErrNotList
		}
		child, ok := c.Index(seg.Key)
		if !ok {
			if !create || len(segs) > 1 && segs[1].IsIndex {
				return nil, ErrNotContainer
			}
			child = vals.EmptyMap
		}
		newChild, err := assocIn(child, segs[1:], v, create)
		if err != nil {
			return nil, err
		}
		return c.Assoc(seg.Key, newChild), nil
	case vector.Vector:
		if !seg.IsIndex {
			return nil, ErrNotContainer
		}
		child, ok := c.Index(seg.Index)
		if !ok {
			return nil, ErrOutOfRange
		}
		newChild, err := assocIn(child, segs[1:], v, create)
		if err != nil {
			return nil, err
		}
		return c.Assoc(seg.Index, newChild), nil
	default:
		return nil, ErrNotContainer
	}
}

func listItems(list vector.Vector) []any {
	items := make([]any, 0, list.Len())
	for it := list.Iterator(); it.HasElem(); it.Next() {
		items = append(items, it.Elem())
	}
	return items
}

func listOf(items []any) vector.Vector {
	list := vector.Empty
	for _, item := range items {
		list = list.Cons(item)
	}
	return list
}
