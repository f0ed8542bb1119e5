// Package store is the storage layer: it keeps snapshots of application state
// and a few string settings in a bolt database.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"src.weft.sh/pkg/logutil"
	. "src.weft.sh/pkg/store/storedefs"
)

var logger = logutil.GetLogger("[store] ")

const (
	bucketSnapshot = "snapshot"
	bucketMeta     = "meta"
)

var initDB = map[string](func(*bolt.Tx) error){}

// DBStore is the permanent storage backend for weft. It is not thread-safe.
// In particular, the store may be closed while another goroutine is still
// accessing the store. To prevent bad things from happening, every time the
// main goroutine spawns a new goroutine to operate on the store, it should
// call wg.Add(1) and the spawned goroutine should call wg.Done() when it
// finishes.
type DBStore interface {
	Store
}

type dbStore struct {
	db *bolt.DB
}

func dbWithDefaultOptions(dbname string) (*bolt.DB, error) {
	db, err := bolt.Open(dbname, 0644, &bolt.Options{Timeout: time.Second})
	return db, err
}

// NewStore creates a new Store from the given file.
func NewStore(dbname string) (DBStore, error) {
	db, err := dbWithDefaultOptions(dbname)
	if err != nil {
		return nil, err
	}
	logger.Println("opened", dbname)
	return NewStoreFromDB(db)
}

// NewStoreFromDB creates a new Store from a bolt DB.
func NewStoreFromDB(db *bolt.DB) (DBStore, error) {
	st := &dbStore{db}
	err := db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err == nil {
		err = st.checkSchema()
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

// Close closes the database.
func (s *dbStore) Close() error {
	logger.Println("closing", s.db.Path())
	return s.db.Close()
}
