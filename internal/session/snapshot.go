package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

// SnapshotNamespace is the fixed key under which the serialized session
// collection is stored. It becomes the snapshot file name.
const SnapshotNamespace = "hybrid-chat-sessions"

// FileSnapshot stores the session collection as one JSON blob in a file,
// using atomic writes (temp file + rename) guarded by an advisory lock so
// concurrent processes cannot interleave partial writes.
type FileSnapshot struct {
	path   string
	lock   *flock.Flock
	logger log.Logger
}

// NewFileSnapshot creates a snapshot rooted at dir. The directory must
// already exist.
func NewFileSnapshot(dir string, logger log.Logger) *FileSnapshot {
	if logger == nil {
		logger = log.NewNop()
	}
	path := filepath.Join(dir, SnapshotNamespace+".json")
	return &FileSnapshot{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the snapshot file location.
func (f *FileSnapshot) Path() string { return f.path }

// Save rewrites the snapshot with the full collection.
func (f *FileSnapshot) Save(sessions []Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("marshaling session snapshot: %w", err)
	}

	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("locking session snapshot: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	// Write to a temp file in the same directory, then rename. Rename is
	// atomic on POSIX filesystems, so readers never see a torn snapshot.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), SnapshotNamespace+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. A missing file and unparseable content are both
// treated as absence: the store starts empty rather than crashing on a
// corrupt snapshot.
func (f *FileSnapshot) Load() ([]Session, error) {
	if err := f.lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking session snapshot: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session snapshot: %w", err)
	}

	var sessions []Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		f.logger.Warn("malformed session snapshot, starting empty",
			"path", f.path, "error", err)
		return nil, nil
	}
	return sessions, nil
}

// Clear removes the snapshot file. Idempotent.
func (f *FileSnapshot) Clear() error {
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("locking session snapshot: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session snapshot: %w", err)
	}
	return nil
}
