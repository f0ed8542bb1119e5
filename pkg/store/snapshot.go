package store

import (
	"encoding/binary"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	. "src.weft.sh/pkg/store/storedefs"
)

func init() {
	initDB["initialize snapshot table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshot))
		return err
	}
}

// The encoded form of a snapshot.
type record struct {
	Name string         `cbor:"1,keyasint"`
	Time int64          `cbor:"2,keyasint"`
	Doc  map[string]any `cbor:"3,keyasint"`
}

var decMode = mustDecMode(cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]any(nil)),
})

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// Map keys are sorted, so the same document always encodes the same way.
var encMode = mustEncMode(cbor.CanonicalEncOptions())

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// NextSnapshotSeq returns the next sequence number of the snapshot history.
func (s *dbStore) NextSnapshotSeq() (int, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshot))
		seq = b.Sequence() + 1
		return nil
	})
	return int(seq), err
}

// AddSnapshot saves a new snapshot, and returns its sequence number.
func (s *dbStore) AddSnapshot(name string, doc map[string]any) (int, error) {
	data, err := encMode.Marshal(record{name, time.Now().UnixNano(), doc})
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshot))
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	return int(seq), err
}

// DelSnapshot deletes the snapshot with the given sequence number.
func (s *dbStore) DelSnapshot(seq int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshot))
		return b.Delete(marshalSeq(uint64(seq)))
	})
}

// Snapshot queries the snapshot with the given sequence number.
func (s *dbStore) Snapshot(seq int) (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshot))
		v := b.Get(marshalSeq(uint64(seq)))
		if v == nil {
			return ErrNoSnapshot
		}
		var err error
		snap, err = unmarshalSnapshot(uint64(seq), v)
		return err
	})
	return snap, err
}

// LastSnapshot finds the most recent snapshot with the given name.
func (s *dbStore) LastSnapshot(name string) (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshot))
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			sn, err := unmarshalSnapshot(unmarshalSeq(k), v)
			if err != nil {
				return err
			}
			if sn.Name == name {
				snap = sn
				return nil
			}
		}
		return ErrNoSnapshot
	})
	return snap, err
}

// IterateSnapshots iterates all the snapshots in the specified range, and
// calls the callback with each of them sequentially.
func (s *dbStore) IterateSnapshots(from, upto int, f func(Snapshot)) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshot))
		c := b.Cursor()
		for k, v := c.Seek(marshalSeq(uint64(from))); k != nil && unmarshalSeq(k) < uint64(upto); k, v = c.Next() {
			snap, err := unmarshalSnapshot(unmarshalSeq(k), v)
			if err != nil {
				return err
			}
			f(snap)
		}
		return nil
	})
}

// Snapshots returns all snapshots within the specified range.
func (s *dbStore) Snapshots(from, upto int) ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.IterateSnapshots(from, upto, func(snap Snapshot) {
		snaps = append(snaps, snap)
	})
	return snaps, err
}

func unmarshalSnapshot(seq uint64, data []byte) (Snapshot, error) {
	var r record
	if err := decMode.Unmarshal(data, &r); err != nil {
		return Snapshot{}, err
	}
	if r.Doc == nil {
		r.Doc = map[string]any{}
	}
	return Snapshot{Seq: int(seq), Name: r.Name, Time: time.Unix(0, r.Time), Doc: r.Doc}, nil
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
