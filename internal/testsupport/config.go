package testsupport

import (
	"path/filepath"
	"testing"

	"punchout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Export stays disabled unless WithExportEndpoint is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Admin.UserID = "test-user"
	cfgVal.Export.Endpoint = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithExportEndpoint enables export against url.
func WithExportEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Endpoint = url
	}
}

// WithUserID overrides the admin user id. An empty id disables enqueueing.
func WithUserID(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Admin.UserID = id
	}
}

// WithRequiredSchemas marks the given schema types as always required.
func WithRequiredSchemas(types ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, typ := range types {
			b.cfg.Admin.RequiredSchemas = append(b.cfg.Admin.RequiredSchemas, config.RequiredSchema{Schema: typ})
		}
	}
}

// WithAdmin applies an arbitrary mutation to the admin section.
func WithAdmin(fn func(*config.Admin)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Admin)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
