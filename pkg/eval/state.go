package eval

import "src.weft.sh/pkg/vals"

// RefKind is the tag of a Ref.
type RefKind uint8

// Possible values of RefKind.
const (
	RefEmpty RefKind = iota
	RefConcrete
	RefDeferred
)

// Ref is the result of querying a State.
type Ref struct {
	Kind RefKind
	// Set when Kind is RefConcrete.
	Value any
	// Set when Kind is RefDeferred: the path the value must be looked up at
	// instead.
	Path vals.Path
}

// Empty is the Ref for a missing value.
var Empty = Ref{}

// Concrete returns a Ref holding a value snapshot.
func Concrete(v any) Ref { return Ref{Kind: RefConcrete, Value: v} }

// Deferred returns a Ref redirecting to another path.
func Deferred(p vals.Path) Ref { return Ref{Kind: RefDeferred, Path: p} }

// State is the capability over externally owned application data. Get is
// called on every dynamic resolution, so it must be cheap and safe to call
// repeatedly. When sub is not vals.NoNode, the State may remember it as a
// subscriber of path and address future changes of path to it.
type State interface {
	Get(path vals.Path, sub vals.NodeID) Ref
}

// NoState is a State without any values.
var NoState State = noState{}

type noState struct{}

func (noState) Get(vals.Path, vals.NodeID) Ref { return Empty }

// Prefixed returns a State that looks up paths relative to prefix in st.
// Deferred refs of st are followed in st, since their paths are not relative
// to prefix.
func Prefixed(st State, prefix vals.Path) State {
	if prefix.IsZero() {
		return st
	}
	return prefixed{st, prefix}
}

type prefixed struct {
	st     State
	prefix vals.Path
}

func (p prefixed) Get(path vals.Path, sub vals.NodeID) Ref {
	ref := p.st.Get(p.prefix.Compose(path), sub)
	for ref.Kind == RefDeferred {
		ref = p.st.Get(ref.Path, sub)
	}
	return ref
}
