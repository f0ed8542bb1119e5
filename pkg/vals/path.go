package vals

import (
	"strconv"
	"strings"

	"github.com/xiaq/persistent/hash"
)

// Path is an address into state or scope data. It is either a named key, an
// integer index, or the composition of two paths, as in a.b or a[0].
//
// Paths are immutable and comparable with ==, so they can be used directly as
// Go map keys. The zero value is the empty path, which addresses nothing.
type Path struct {
	// Segments are stored encoded, each prefixed by a tag byte and joined by
	// pathSep. Identifiers never contain pathSep.
	enc string
}

const (
	pathSep  = "\x1f"
	keyTag   = 'k'
	indexTag = 'i'
)

// Key returns a Path consisting of a single named key.
func Key(name string) Path { return Path{string(keyTag) + name} }

// Index returns a Path consisting of a single integer index.
func Index(i int) Path { return Path{string(indexTag) + strconv.Itoa(i)} }

// ParsePath parses a path written as a.b[0].c. It is intended for tests and
// command-line use; it does not validate identifiers.
func ParsePath(s string) Path {
	var p Path
	for _, part := range strings.Split(s, ".") {
		name, rest, _ := strings.Cut(part, "[")
		if name != "" {
			p = p.Compose(Key(name))
		}
		for rest != "" {
			num, after, _ := strings.Cut(rest, "]")
			i, err := strconv.Atoi(num)
			if err != nil {
				p = p.Compose(Key(num))
			} else {
				p = p.Compose(Index(i))
			}
			rest = strings.TrimPrefix(after, "[")
		}
	}
	return p
}

// Compose returns the path formed by appending q to p.
func (p Path) Compose(q Path) Path {
	switch {
	case p.enc == "":
		return q
	case q.enc == "":
		return p
	}
	return Path{p.enc + pathSep + q.enc}
}

// IsZero reports whether p is the empty path.
func (p Path) IsZero() bool { return p.enc == "" }

// HasPrefix reports whether q is p itself or one of its ancestors.
func (p Path) HasPrefix(q Path) bool {
	if q.enc == "" || p.enc == q.enc {
		return true
	}
	return strings.HasPrefix(p.enc, q.enc+pathSep)
}

// Segment is one component of a Path.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Segments returns the components of the path.
func (p Path) Segments() []Segment {
	if p.enc == "" {
		return nil
	}
	parts := strings.Split(p.enc, pathSep)
	segs := make([]Segment, len(parts))
	for i, part := range parts {
		if part[0] == indexTag {
			n, _ := strconv.Atoi(part[1:])
			segs[i] = Segment{Index: n, IsIndex: true}
		} else {
			segs[i] = Segment{Key: part[1:]}
		}
	}
	return segs
}

// Hash implements the Hasher interface expected by persistent maps.
func (p Path) Hash() uint32 { return hash.String(p.enc) }

// String returns the path in a.b[0] notation.
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p.Segments() {
		if seg.IsIndex {
			sb.WriteString("[" + strconv.Itoa(seg.Index) + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.Key)
	}
	return sb.String()
}
