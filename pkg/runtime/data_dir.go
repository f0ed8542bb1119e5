package runtime

import (
	"os"
	"path/filepath"
)

// Ensures weft's data directory exists, creating it if necessary. It returns
// the path to the data directory (never with a trailing slash) and possible
// error.
func ensureDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	ddir := filepath.Join(home, ".weft")
	return ddir, os.MkdirAll(ddir, 0700)
}

// DefaultDBPath returns the path of the database in the data directory,
// creating the directory if needed.
func DefaultDBPath() (string, error) {
	ddir, err := ensureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(ddir, "db.bolt"), nil
}

// DBPath returns the database path to use, or "" for no persistence. The
// value "default" selects DefaultDBPath.
func (cfg Config) DBPath() (string, error) {
	if cfg.DB == "default" {
		return DefaultDBPath()
	}
	return cfg.DB, nil
}
