package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"punchout/internal/rules"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// RequiredSchema marks a schema type as mandatory before work starts. A nil
// When means the schema is always required.
type RequiredSchema struct {
	Schema string           `toml:"schema" yaml:"schema"`
	When   *rules.Condition `toml:"when,omitempty" yaml:"when,omitempty"`

	// Predicate overrides When for deployments that configure rules in code.
	Predicate rules.Predicate `toml:"-" yaml:"-"`
}

// Holds reports whether the requirement applies in ctx.
func (r RequiredSchema) Holds(ctx rules.Context) bool {
	if r.Predicate != nil {
		return r.Predicate.Match(ctx)
	}
	return r.When.Match(ctx)
}

// ConditionalSchema suggests a follow-up schema when When holds.
type ConditionalSchema struct {
	Schema    string           `toml:"schema" yaml:"schema"`
	Question  string           `toml:"question" yaml:"question"`
	YesSchema string           `toml:"yes_schema" yaml:"yes_schema"`
	NoSchema  string           `toml:"no_schema" yaml:"no_schema"`
	When      *rules.Condition `toml:"when,omitempty" yaml:"when,omitempty"`
	Predicate rules.Predicate  `toml:"-" yaml:"-"`
}

// Holds reports whether the suggestion applies in ctx. A suggestion without
// any condition never fires.
func (c ConditionalSchema) Holds(ctx rules.Context) bool {
	if c.Predicate != nil {
		return c.Predicate.Match(ctx)
	}
	if c.When == nil {
		return false
	}
	return c.When.Match(ctx)
}

// ExternalSystem is a system Punchout may open for the user but never writes to.
type ExternalSystem struct {
	ID           string `toml:"id" yaml:"id"`
	BaseURL      string `toml:"base_url" yaml:"base_url"`
	Instructions string `toml:"instructions" yaml:"instructions"`
}

// Admin contains read-only rule data supplied by an administrator.
type Admin struct {
	UserID                 string              `toml:"user_id"`
	HovedOrdre             string              `toml:"hovedordre"`
	IsWinter               bool                `toml:"is_winter"`
	Lonnskoder             []string            `toml:"lonnskoder"`
	Vehicles               []string            `toml:"vehicles"`
	RulesFile              string              `toml:"rules_file"`
	RequiredSchemas        []RequiredSchema    `toml:"required_schemas"`
	ConditionalSchemas     []ConditionalSchema `toml:"conditional_schemas"`
	AvailablePreDaySchemas []string            `toml:"available_pre_day_schemas"`
	RUHTriggerTypes        []string            `toml:"ruh_trigger_types"`
	ImmediateConfirmTypes  []string            `toml:"immediate_confirm_types"`
	EndOfDayConfirmTypes   []string            `toml:"end_of_day_confirm_types"`
	NoteConversionTargets  []string            `toml:"note_conversion_targets"`
	ExternalSystems        []ExternalSystem    `toml:"external_systems"`
}

// Export contains delivery settings for locked days.
type Export struct {
	Endpoint       string   `toml:"endpoint"`
	HMACSecret     string   `toml:"hmac_secret"`
	BearerToken    string   `toml:"bearer_token"`
	TokenURL       string   `toml:"token_url"`
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	Scopes         []string `toml:"scopes"`
	RequestTimeout int      `toml:"request_timeout"`
	SyncInterval   int      `toml:"sync_interval"`
	MaxRetries     int      `toml:"max_retries"`
	StuckAfter     int      `toml:"stuck_after"`
	RetentionDays  int      `toml:"retention_days"`
	WarnQueueSize  int      `toml:"warn_queue_size"`
	BaseBackoff    int      `toml:"base_backoff"`
	MaxBackoff     int      `toml:"max_backoff"`
}

// Voice contains speech session timing.
type Voice struct {
	Language         string `toml:"language"`
	SessionTimeoutMS int    `toml:"session_timeout_ms"`
	ErrorClearMS     int    `toml:"error_clear_ms"`
	MinSilenceMS     int    `toml:"min_silence_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Punchout.
//
// Configuration sections:
//   - Paths: data and log directories
//   - Admin: wage codes, vehicles, required/conditional schema rules
//   - Export: endpoint, signing secret, auth, retry and retention policy
//   - Voice: speech session timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Admin   Admin   `toml:"admin"`
	Export  Export  `toml:"export"`
	Voice   Voice   `toml:"voice"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/punchout/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized, and any admin rules file merged in.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if cfg.Admin.RulesFile != "" {
		if err := cfg.applyRulesFile(cfg.Admin.RulesFile); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("punchout.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExportEnabled reports whether an export endpoint is configured.
func (c *Config) ExportEnabled() bool {
	return strings.TrimSpace(c.Export.Endpoint) != ""
}

// RequestTimeout returns the export HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Export.RequestTimeout) * time.Second
}

// SyncInterval returns the periodic export sync interval.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Export.SyncInterval) * time.Second
}

// StuckAfter returns how long an item may stay in sending before it is reset.
func (c *Config) StuckAfter() time.Duration {
	return time.Duration(c.Export.StuckAfter) * time.Second
}

// SentRetention returns how long delivered items are kept.
func (c *Config) SentRetention() time.Duration {
	return time.Duration(c.Export.RetentionDays) * 24 * time.Hour
}

// Backoff returns the base and maximum retry delay.
func (c *Config) Backoff() (time.Duration, time.Duration) {
	return time.Duration(c.Export.BaseBackoff) * time.Second, time.Duration(c.Export.MaxBackoff) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
