package state

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"src.weft.sh/pkg/change"
)

// FromYAML creates a MapState from a YAML document, which must be a mapping.
func FromYAML(data []byte, q *change.Queue) (*MapState, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return FromMap(m, q)
}

// LoadYAML reads a YAML document from r and replaces the content of s with
// it.
func (s *MapState) LoadYAML(r io.Reader) error {
	var m map[string]any
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && err != io.EOF {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	return s.Restore(m)
}

// LoadYAMLFile is like LoadYAML, but reads the named file.
func (s *MapState) LoadYAMLFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := s.LoadYAML(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
