package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/logger"
	"github.com/agentx-labs/agentq/internal/platform"
	"github.com/gofrs/flock"
)

const (
	// DefaultLockTimeout bounds how long Update waits for another writer.
	DefaultLockTimeout = 10 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// Store persists a History as one JSON document. Writers serialize on an
// advisory lock next to the file; readers never block because every save
// replaces the file with a single rename.
type Store struct {
	path        string
	lockTimeout time.Duration
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path, lockTimeout: DefaultLockTimeout}
}

// Path returns the history file location.
func (s *Store) Path() string { return s.path }

// Load reads the history. A file that does not exist yet is an empty
// history; a file that does not decode is a ParseError.
func (s *Store) Load() (History, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return History{}, errs.IO(err, "reading history", s.path)
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}, errs.Parse(err, "decoding history", s.path)
	}
	if h.Versions == nil {
		h.Versions = []VersionRecord{}
	}
	if h.Usage == nil {
		h.Usage = map[string]Usage{}
	}
	return h, nil
}

// Save writes h atomically so a concurrent Load sees either the previous
// or the new history.
func (s *Store) Save(h History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	data = append(data, '\n')
	if err := platform.WriteFileAtomic(s.path, data, 0644); err != nil {
		return errs.IO(err, "saving history", s.path)
	}
	return nil
}

// Update runs fn inside the writer critical section: lock, load, apply,
// save, unlock. If fn returns an error nothing is written.
func (s *Store) Update(ctx context.Context, fn func(History) (History, error)) (History, error) {
	log := logger.Named("history")
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return History{}, errs.IO(err, "creating history directory", dir)
	}

	lock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return History{}, errs.IO(err, "acquiring history lock", lock.Path())
	}
	if !locked {
		return History{}, errs.Newf(errs.KindIO, "history lock %s is held by another process", lock.Path())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Str("lock", lock.Path()).Msg("releasing history lock")
		}
	}()

	h, err := s.Load()
	if err != nil {
		return History{}, err
	}
	next, err := fn(h)
	if err != nil {
		return h, err
	}
	if err := s.Save(next); err != nil {
		return h, err
	}
	log.Debug().Str("path", s.path).Int("versions", len(next.Versions)).Msg("history saved")
	return next, nil
}
