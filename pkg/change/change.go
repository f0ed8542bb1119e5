// Package change defines the events that describe state mutations relevant to
// a node tree, and the queue they are delivered through.
package change

import (
	"fmt"
	"sync"

	"src.weft.sh/pkg/vals"
)

// Kind is the kind of a Change.
type Kind uint8

// Possible values of Kind.
const (
	// A leaf value changed.
	Update Kind = iota
	// One item was appended to a collection.
	Push
	// One item was inserted into a collection at Index.
	InsertIndex
	// The item at Index was removed from a collection.
	RemoveIndex
)

var kindNames = [...]string{"update", "push", "insert", "remove"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("!(bad change kind %d)", int(k))
}

// Change describes one state mutation.
type Change struct {
	Kind  Kind
	Index int
}

// Constructors for the different kinds of changes.
var (
	UpdateChange = Change{Kind: Update}
	PushChange   = Change{Kind: Push}
)

// Insert returns an InsertIndex change.
func Insert(i int) Change { return Change{InsertIndex, i} }

// Remove returns a RemoveIndex change.
func Remove(i int) Change { return Change{RemoveIndex, i} }

func (c Change) String() string {
	switch c.Kind {
	case InsertIndex, RemoveIndex:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Index)
	default:
		return c.Kind.String()
	}
}

// Entry is a Change addressed to a node.
type Entry struct {
	ID     vals.NodeID
	Change Change
}

// Queue collects changes from state mutation sites until they are drained by
// the dispatcher. It is safe for concurrent use.
type Queue struct {
	mutex   sync.Mutex
	entries []Entry
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue { return &Queue{} }

// Enqueue records a change addressed to a node.
func (q *Queue) Enqueue(id vals.NodeID, c Change) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.entries = append(q.entries, Entry{id, c})
}

// Drain atomically removes and returns all queued entries in the order they
// were enqueued. Entries enqueued after Drain returns are kept for the next
// call.
func (q *Queue) Drain() []Entry {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	entries := q.entries
	q.entries = nil
	return entries
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.entries)
}
