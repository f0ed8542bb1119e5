package runtime

import (
	"errors"

	"src.weft.sh/pkg/state"
	"src.weft.sh/pkg/store/storedefs"
)

// Save saves the content of s as a snapshot with the given name, and returns
// its sequence number.
func Save(st storedefs.Store, name string, s *state.MapState) (int, error) {
	seq, err := st.AddSnapshot(name, s.Snapshot())
	if err == nil {
		logger.Printf("saved snapshot %q as %d", name, seq)
	}
	return seq, err
}

// Restore replaces the content of s with the last snapshot with the given
// name. It reports false if there is no such snapshot.
func Restore(st storedefs.Store, name string, s *state.MapState) (bool, error) {
	snap, err := st.LastSnapshot(name)
	if errors.Is(err, storedefs.ErrNoSnapshot) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := s.Restore(snap.Doc); err != nil {
		return false, err
	}
	logger.Printf("restored snapshot %q from %d", name, snap.Seq)
	return true, nil
}
