package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"punchout/internal/config"
	"punchout/internal/logging"
	"punchout/internal/outbox"
	"punchout/internal/storage"
)

// MustOpenStorage opens the day store under the config data dir and
// registers cleanup.
func MustOpenStorage(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenOutbox opens the outbox database under the config data dir. now
// may be nil.
func MustOpenOutbox(t testing.TB, cfg *config.Config, now func() time.Time) *outbox.Store {
	t.Helper()

	store, err := outbox.OpenPath(filepath.Join(cfg.Paths.DataDir, outbox.DatabaseFileName), outbox.Options{
		Logger:        logging.NewNop(),
		WarnQueueSize: cfg.Export.WarnQueueSize,
		Now:           now,
	})
	if err != nil {
		t.Fatalf("outbox.OpenPath: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
