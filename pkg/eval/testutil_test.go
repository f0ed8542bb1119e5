package eval

import (
	"github.com/xiaq/persistent/vector"

	"src.weft.sh/pkg/vals"
)

// A State backed by a flat map, recording every subscription.
type testState struct {
	values  map[vals.Path]any
	aliases map[vals.Path]vals.Path
	subs    []vals.NodeID
}

func newTestState(kvs ...any) *testState {
	st := &testState{values: make(map[vals.Path]any), aliases: make(map[vals.Path]vals.Path)}
	for i := 0; i+1 < len(kvs); i += 2 {
		st.values[vals.ParsePath(kvs[i].(string))] = kvs[i+1]
	}
	return st
}

func (st *testState) Get(p vals.Path, sub vals.NodeID) Ref {
	if sub != vals.NoNode {
		st.subs = append(st.subs, sub)
	}
	if to, ok := st.aliases[p]; ok {
		return Deferred(to)
	}
	// Find the longest stored prefix and index into it.
	segs := p.Segments()
	for i := len(segs); i > 0; i-- {
		var prefix vals.Path
		for _, seg := range segs[:i] {
			prefix = prefix.Compose(segPath(seg))
		}
		if v, ok := st.values[prefix]; ok {
			for _, seg := range segs[i:] {
				list, isList := v.(vector.Vector)
				if !seg.IsIndex || !isList {
					return Empty
				}
				if v, ok = list.Index(seg.Index); !ok {
					return Empty
				}
			}
			return Concrete(v)
		}
	}
	return Empty
}

func segPath(seg vals.Segment) vals.Path {
	if seg.IsIndex {
		return vals.Index(seg.Index)
	}
	return vals.Key(seg.Key)
}

func list(items ...any) vector.Vector {
	v := vector.Empty
	for _, item := range items {
		v = v.Cons(item)
	}
	return v
}
