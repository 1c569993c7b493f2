package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"

	"punchout/internal/config"
	"punchout/internal/logging"
)

// Keys used in the store.
const (
	KeyCurrentDay = "current_day"
	KeyHistory    = "history"
	KeyUx         = "ux_state"
	KeyDeviceID   = "device_id"
)

// HistoryLimit caps the number of locked days kept.
const HistoryLimit = 90

const lockFileName = "punchout.lock"

// Store is the diskv-backed key/value persistence layer.
type Store struct {
	mu     sync.Mutex
	d      *diskv.Diskv
	lock   *flock.Flock
	dir    string
	logger *slog.Logger
}

// Open opens the store under cfg.Paths.DataDir.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("storage: config is required")
	}
	return OpenDir(cfg.Paths.DataDir, logger)
}

// OpenDir opens the store rooted at dir and takes the process lock.
func OpenDir(dir string, logger *slog.Logger) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: data directory is required")
	}
	stateDir := filepath.Join(dir, "state")
	tempDir := filepath.Join(dir, "tmp")
	for _, path := range []string{stateDir, tempDir} {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", path, err)
		}
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("storage: acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	d := diskv.New(diskv.Options{
		BasePath:     stateDir,
		TempDir:      tempDir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 256 * 1024,
		FilePerm:     0o644,
		PathPerm:     0o755,
	})
	return &Store{
		d:      d,
		lock:   lock,
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "storage"),
	}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the process lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

func (s *Store) writeJSON(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.d.Write(key, payload); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) erase(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("erase %s: %w", key, err)
	}
	return nil
}

// DeviceID returns the persistent device identifier, creating it on first use.
func (s *Store) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.Has(KeyDeviceID) {
		raw, err := s.d.Read(KeyDeviceID)
		if err == nil {
			if id := strings.TrimSpace(string(raw)); id != "" {
				return id, nil
			}
		}
	}
	id := uuid.NewString()
	if err := s.d.Write(KeyDeviceID, []byte(id)); err != nil {
		return "", fmt.Errorf("write %s: %w", KeyDeviceID, err)
	}
	return id, nil
}
