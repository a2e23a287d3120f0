// Package metafile persists secret metadata to a single JSON file,
// written atomically so that readers never observe a partial write. The
// file is the durability boundary of the engine: the atomic rename in
// Save is the only point requiring OS-level atomicity guarantees.
package metafile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	lberrors "github.com/systmms/lockbox/internal/errors"
	"github.com/systmms/lockbox/internal/logging"
	"github.com/systmms/lockbox/internal/secret"
)

// FileName is the fixed metadata file name inside the data directory.
const FileName = "secrets.json"

// EnvDataDir overrides the data directory, primarily for tests.
const EnvDataDir = "LOCKBOX_DATA_DIR"

// Store reads and writes the metadata file for a single data directory.
type Store struct {
	dir    string
	logger *logging.Logger
	mu     sync.Mutex
}

// NewStore creates a metadata file store. An empty dir selects the
// platform default directory (see DefaultDir).
func NewStore(dir string, logger *logging.Logger) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir, logger: logger}
}

// DefaultDir returns the default data directory.
func DefaultDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lockbox")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "lockbox")
	}

	// Last resort: use temp directory
	return filepath.Join(os.TempDir(), "lockbox")
}

// Path returns the full path of the metadata file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load reads the metadata file and returns the ordered sequence of
// entries. A missing file yields an empty sequence. A file that cannot
// be read or parsed, or whose top level is not an array, is also treated
// as empty: a corrupted cache must not block startup. The original bytes
// are left untouched either way.
func (s *Store) Load() ([]secret.Metadata, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.logger.Warn("could not read metadata file %s (%v); starting empty", s.Path(), err)
		return nil, nil
	}

	var entries []secret.Metadata
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("metadata file %s is corrupted (%v); starting empty", s.Path(), err)
		return nil, nil
	}

	return entries, nil
}

// Save atomically replaces the metadata file with the given sequence.
// The data is serialized to a uniquely named temporary file in the same
// directory with owner-only permissions, then renamed over the target in
// a single atomic step. At no observable point does the target path
// contain a partially written file. Failures are returned as
// *errors.PersistError so callers can roll back.
func (s *Store) Save(entries []secret.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		// The on-disk shape is always an array, never null.
		entries = []secret.Metadata{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &lberrors.PersistError{Path: s.Path(), Err: err}
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return &lberrors.PersistError{Path: s.Path(), Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, ".secrets-*.json.tmp")
	if err != nil {
		return &lberrors.PersistError{Path: s.Path(), Err: err}
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &lberrors.PersistError{Path: s.Path(), Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &lberrors.PersistError{Path: s.Path(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &lberrors.PersistError{Path: s.Path(), Err: err}
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return &lberrors.PersistError{Path: s.Path(), Err: err}
	}

	// Re-assert owner-only permissions on the target. The data is
	// already durable at this point, so a failure here is not fatal.
	if err := os.Chmod(s.Path(), 0o600); err != nil {
		s.logger.Warn("could not restrict permissions on %s: %v", s.Path(), err)
	}

	return nil
}
