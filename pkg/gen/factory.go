package gen

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"src.weft.sh/pkg/vals"
)

// Widget is a concrete renderable produced by a Factory. Its behavior belongs
// to the layout and paint collaborators; this package only stores it.
type Widget interface {
	Kind() string
}

// Updater is implemented by widgets that want to be told when the values they
// were created from have been re-resolved.
type Updater interface {
	Update(fc *FactoryContext)
}

// FactoryContext carries the resolved values of a single node to a Factory.
type FactoryContext struct {
	Tag        string
	ID         vals.NodeID
	Text       string
	Attributes map[string]any
}

// Attr returns the attribute with the given key, converted to the type ptr
// points to. It reports false if the attribute is missing or cannot be
// converted.
func (fc *FactoryContext) Attr(key string, ptr any) bool {
	v, ok := fc.Attributes[key]
	if !ok {
		return false
	}
	return vals.Scan(v, ptr) == nil
}

// Factory creates widgets.
type Factory interface {
	Make(fc *FactoryContext) (Widget, error)
}

// FactoryFunc adapts a function to a Factory.
type FactoryFunc func(fc *FactoryContext) (Widget, error)

// Make calls f.
func (f FactoryFunc) Make(fc *FactoryContext) (Widget, error) { return f(fc) }

// ErrUnknownWidget is wrapped in a FactoryError when no factory is registered
// for a tag.
var ErrUnknownWidget = errors.New("no such widget")

// ErrInsufficientSpace is returned by layout collaborators when a widget does
// not fit. It is never generated by this package, and is passed on unchanged.
var ErrInsufficientSpace = errors.New("insufficient space")

// FactoryError is returned when a widget could not be constructed.
type FactoryError struct {
	Tag string
	Err error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("cannot create widget %q: %v", e.Tag, e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }

// Factories is a Factory dispatching on the tag. It is safe for concurrent
// use.
type Factories struct {
	mutex sync.RWMutex
	m     map[string]Factory
}

// NewFactories creates an empty Factories.
func NewFactories() *Factories {
	return &Factories{m: make(map[string]Factory)}
}

// Register registers the factory for a tag. It is an error to register a tag
// twice.
func (fs *Factories) Register(tag string, f Factory) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	if _, exists := fs.m[tag]; exists {
		return fmt.Errorf("factory for %q already registered", tag)
	}
	fs.m[tag] = f
	return nil
}

// Tags returns the registered tags in sorted order.
func (fs *Factories) Tags() []string {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()
	return sortedKeys(fs.m)
}

// Make creates a widget with the factory registered for fc.Tag. Errors are
// always of type *FactoryError.
func (fs *Factories) Make(fc *FactoryContext) (Widget, error) {
	fs.mutex.RLock()
	f, ok := fs.m[fc.Tag]
	fs.mutex.RUnlock()
	if !ok {
		return nil, &FactoryError{fc.Tag, ErrUnknownWidget}
	}
	w, err := f.Make(fc)
	if err != nil {
		var ferr *FactoryError
		if errors.As(err, &ferr) {
			return nil, err
		}
		return nil, &FactoryError{fc.Tag, err}
	}
	return w, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
