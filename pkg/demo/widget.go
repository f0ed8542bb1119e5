package demo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"src.weft.sh/pkg/gen"
	"src.weft.sh/pkg/vals"
)

// A widget that only remembers what it was created with; the demo prints
// outlines instead of painting.
type widget struct {
	kind  string
	text  string
	attrs map[string]any
	// Number of times the widget was updated after creation.
	updates int
}

func (w *widget) Kind() string { return w.kind }

func (w *widget) Update(fc *gen.FactoryContext) {
	w.text, w.attrs = fc.Text, fc.Attributes
	w.updates++
}

func (w *widget) String() string {
	var sb strings.Builder
	sb.WriteString(w.kind)
	if len(w.attrs) > 0 {
		keys := make([]string, 0, len(w.attrs))
		for k := range w.attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%s=%s", k, vals.ToString(w.attrs[k]))
		}
		sb.WriteString("]")
	}
	if w.text != "" {
		sb.WriteString(" " + w.text)
	}
	return sb.String()
}

var widgetKinds = []string{"vstack", "border", "text"}

var errTextAttributes = errors.New("text takes no attributes")

func newFactories() *gen.Factories {
	fs := gen.NewFactories()
	for _, kind := range widgetKinds {
		kind := kind
		fs.Register(kind, gen.FactoryFunc(func(fc *gen.FactoryContext) (gen.Widget, error) {
			if kind == "text" && len(fc.Attributes) > 0 {
				return nil, errTextAttributes
			}
			return &widget{kind, fc.Text, fc.Attributes, 0}, nil
		}))
	}
	return fs
}
