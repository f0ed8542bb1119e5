package vals

import (
	"fmt"
	"strings"

	"github.com/xiaq/persistent/vector"
)

// BoundKind is the tag of a BoundValue.
type BoundKind uint8

// Possible values of BoundKind.
const (
	// A literal text value.
	BoundStatic BoundKind = iota
	// A read-only list of BoundValue's.
	BoundList
	// A reference to a Path that is resolved later.
	BoundDyn
)

// BoundValue is a value bound into a lexical scope. Static values and lists
// are immutable and can be shared freely; a dynamic reference only names the
// Path it refers to.
type BoundValue struct {
	kind BoundKind
	text string
	list vector.Vector
	path Path
}

// Static returns a BoundValue holding a literal text.
func Static(s string) BoundValue { return BoundValue{kind: BoundStatic, text: s} }

// List returns a BoundValue holding a list of the given values.
func List(items ...BoundValue) BoundValue {
	v := vector.Empty
	for _, item := range items {
		v = v.Cons(item)
	}
	return BoundValue{kind: BoundList, list: v}
}

// ListOf returns a BoundValue wrapping an existing vector, which must only
// contain BoundValue elements.
func ListOf(v vector.Vector) BoundValue { return BoundValue{kind: BoundList, list: v} }

// Dyn returns a BoundValue referring to p.
func Dyn(p Path) BoundValue { return BoundValue{kind: BoundDyn, path: p} }

// Kind returns the tag of the value.
func (v BoundValue) Kind() BoundKind { return v.kind }

// Text returns the text of a static value.
func (v BoundValue) Text() string { return v.text }

// Path returns the path of a dynamic reference.
func (v BoundValue) Path() Path { return v.path }

// Len returns the length of a list value, and 0 for other kinds.
func (v BoundValue) Len() int {
	if v.kind != BoundList {
		return 0
	}
	return v.list.Len()
}

// Item returns the i-th element of a list value.
func (v BoundValue) Item(i int) (BoundValue, bool) {
	if v.kind != BoundList {
		return BoundValue{}, false
	}
	item, ok := v.list.Index(i)
	if !ok {
		return BoundValue{}, false
	}
	return item.(BoundValue), true
}

// Items returns the elements of a list value.
func (v BoundValue) Items() []BoundValue {
	if v.kind != BoundList {
		return nil
	}
	items := make([]BoundValue, 0, v.list.Len())
	for it := v.list.Iterator(); it.HasElem(); it.Next() {
		items = append(items, it.Elem().(BoundValue))
	}
	return items
}

// Equal reports whether two bound values are structurally equal.
func (v BoundValue) Equal(w BoundValue) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case BoundStatic:
		return v.text == w.text
	case BoundDyn:
		return v.path == w.path
	default:
		if v.list.Len() != w.list.Len() {
			return false
		}
		for i := 0; i < v.list.Len(); i++ {
			a, _ := v.Item(i)
			b, _ := w.Item(i)
			if !a.Equal(b) {
				return false
			}
		}
		return true
	}
}

func (v BoundValue) String() string {
	switch v.kind {
	case BoundStatic:
		return fmt.Sprintf("%q", v.text)
	case BoundDyn:
		return "$" + v.path.String()
	default:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(item.String())
		}
		sb.WriteByte(']')
		return sb.String()
	}
}
