// Package storedefs contains definitions of the store API.
//
// It is a separate package so that packages that only depend on the store API
// does not need to depend on the concrete implementation.
package storedefs

import (
	"errors"
	"time"
)

// ErrNoSnapshot is returned when a snapshot query completes with no result.
var ErrNoSnapshot = errors.New("no such snapshot")

// ErrNoMeta is returned by Store.Meta when there is no such key.
var ErrNoMeta = errors.New("no such key")

// Store is an interface satisfied by the storage service.
type Store interface {
	NextSnapshotSeq() (int, error)
	AddSnapshot(name string, doc map[string]any) (int, error)
	DelSnapshot(seq int) error
	Snapshot(seq int) (Snapshot, error)
	LastSnapshot(name string) (Snapshot, error)
	Snapshots(from, upto int) ([]Snapshot, error)

	Meta(key string) (string, error)
	SetMeta(key, value string) error
	DelMeta(key string) error

	Close() error
}

// Snapshot is a saved copy of application state.
type Snapshot struct {
	Seq  int
	Name string
	Time time.Time
	Doc  map[string]any
}
