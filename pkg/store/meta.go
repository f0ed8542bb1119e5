package store

import (
	"fmt"
	"strconv"

	bolt "go.etcd.io/bbolt"

	. "src.weft.sh/pkg/store/storedefs"
)

func init() {
	initDB["initialize meta table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
		return err
	}
}

// SchemaVersion is the layout version of the database. It is recorded in the
// meta bucket of new databases.
const SchemaVersion = 1

const metaSchema = "schema-version"

func (s *dbStore) checkSchema() error {
	v, err := s.Meta(metaSchema)
	if err == ErrNoMeta {
		return s.SetMeta(metaSchema, strconv.Itoa(SchemaVersion))
	} else if err != nil {
		return err
	}
	if n, err := strconv.Atoi(v); err != nil || n > SchemaVersion {
		return fmt.Errorf("unsupported schema version %q", v)
	}
	return nil
}

// Meta gets the value of a setting.
func (s *dbStore) Meta(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketMeta))
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNoMeta
		}
		value = string(v)
		return nil
	})
	return value, err
}

// SetMeta sets the value of a setting.
func (s *dbStore) SetMeta(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketMeta))
		return b.Put([]byte(key), []byte(value))
	})
}

// DelMeta deletes a setting.
func (s *dbStore) DelMeta(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketMeta))
		return b.Delete([]byte(key))
	})
}
