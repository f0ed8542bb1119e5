package vals

import (
	"strconv"
	"strings"
)

// NodeID is the hierarchical identity of a materialized node. The ID of a node
// is always a strict extension of the ID of its parent, so every node has a
// stable address that does not depend on the order nodes were generated in.
//
// The empty NodeID is the root; no node carries it, and it also means "no
// subscriber" when passed to State.
type NodeID string

// NoNode is the empty NodeID.
const NoNode NodeID = ""

// Child returns the ID of the i-th child of id.
func (id NodeID) Child(i int) NodeID {
	if id == NoNode {
		return NodeID(strconv.Itoa(i))
	}
	return NodeID(string(id) + "." + strconv.Itoa(i))
}

// Parent returns the ID of the parent of id. The parent of a top-level ID is
// the root.
func (id NodeID) Parent() NodeID {
	i := strings.LastIndexByte(string(id), '.')
	if i == -1 {
		return NoNode
	}
	return id[:i]
}

// Contains reports whether other is id itself or a descendant of id.
func (id NodeID) Contains(other NodeID) bool {
	if id == NoNode || id == other {
		return true
	}
	return strings.HasPrefix(string(other), string(id)+".")
}

// Depth returns the number of components in id.
func (id NodeID) Depth() int {
	if id == NoNode {
		return 0
	}
	return strings.Count(string(id), ".") + 1
}

// Indices returns the components of id.
func (id NodeID) Indices() []int {
	if id == NoNode {
		return nil
	}
	parts := strings.Split(string(id), ".")
	indices := make([]int, len(parts))
	for i, part := range parts {
		indices[i], _ = strconv.Atoi(part)
	}
	return indices
}
