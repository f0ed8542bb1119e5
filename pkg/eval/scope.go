package eval

import (
	"github.com/xiaq/persistent/hashmap"

	"src.weft.sh/pkg/vals"
)

var emptyFrame = hashmap.New(equalPath, hashPath)

func equalPath(k1, k2 any) bool { return k1.(vals.Path) == k2.(vals.Path) }
func hashPath(k any) uint32     { return k.(vals.Path).Hash() }

// Scope is a stack of lexical binding frames. Lookups walk from the innermost
// frame outward.
//
// Frames are linked to their parents, so a Scope can be forked cheaply: nodes
// keep a fork of the scope they were created in, sharing the frames with the
// scope it was forked from. A frame is only bound to by its creator, and only
// while it is the innermost frame.
type Scope struct {
	top *frame
}

type frame struct {
	parent *frame
	vars   hashmap.Map
}

// NewScope creates a Scope with one empty root frame.
func NewScope() *Scope { return &Scope{&frame{nil, emptyFrame}} }

// Push pushes a new empty frame. Every Push must be paired with a Pop.
func (s *Scope) Push() { s.top = &frame{s.top, emptyFrame} }

// Pop discards the innermost frame. Nodes that forked the scope while the
// frame was live keep it.
func (s *Scope) Pop() {
	if s.top.parent == nil {
		panic("pop of root scope frame")
	}
	s.top = s.top.parent
}

// Fork returns a Scope sharing all current frames with s. Subsequent Push and
// Pop calls on either one do not affect the other.
func (s *Scope) Fork() *Scope { return &Scope{s.top} }

// Bind binds a value in the innermost frame.
func (s *Scope) Bind(p vals.Path, v vals.BoundValue) {
	s.top.vars = s.top.vars.Assoc(p, v)
}

// Lookup finds the innermost binding of p.
func (s *Scope) Lookup(p vals.Path) (vals.BoundValue, bool) {
	for f := s.top; f != nil; f = f.parent {
		if v, ok := f.vars.Index(p); ok {
			return v.(vals.BoundValue), true
		}
	}
	return vals.BoundValue{}, false
}

// LookupList finds the innermost binding of p that is a list.
func (s *Scope) LookupList(p vals.Path) (vals.BoundValue, bool) {
	for f := s.top; f != nil; f = f.parent {
		if v, ok := f.vars.Index(p); ok && v.(vals.BoundValue).Kind() == vals.BoundList {
			return v.(vals.BoundValue), true
		}
	}
	return vals.BoundValue{}, false
}

// Depth returns the number of frames.
func (s *Scope) Depth() int {
	n := 0
	for f := s.top; f != nil; f = f.parent {
		n++
	}
	return n
}
