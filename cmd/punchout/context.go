package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"punchout/internal/config"
	"punchout/internal/export"
	"punchout/internal/exportsync"
	"punchout/internal/logging"
	"punchout/internal/motor"
	"punchout/internal/outbox"
	"punchout/internal/storage"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// commandLogger writes to the log file only so command output stays clean.
// Old rotated logs are pruned the first time it is built.
func (c *commandContext) commandLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil || cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		opts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
		if cfg.Paths.LogDir != "" {
			opts.OutputPaths = []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)}
		}
		logger, err := logging.New(opts)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logging.PruneLogDir(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)
		c.logger = logger
	})
	return c.logger
}

// session is one opened set of stores plus the motor over them.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.Store
	box    *outbox.Store
	motor  *motor.Motor

	syncRequested bool
}

func (c *commandContext) openSession() (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := c.commandLogger()

	store, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open day store: %w", err)
	}
	box, err := outbox.Open(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open outbox: %w", err)
	}

	s := &session{cfg: cfg, logger: logger, store: store, box: box}
	m, err := motor.New(motor.Options{
		Storage: store,
		Outbox:  box,
		Rules:   cfg,
		Logger:  logger,
		Syncer:  motor.SyncFunc(func() { s.syncRequested = true }),
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("init motor: %w", err)
	}
	s.motor = m
	return s, nil
}

func (s *session) close() {
	if s.box != nil {
		_ = s.box.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

// withMotor runs fn against a fresh session, drains deferred orchestration
// and, when a lock queued an export, attempts one delivery before closing.
func (c *commandContext) withMotor(cmd *cobra.Command, fn func(*session) error) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer s.close()

	runErr := fn(s)
	s.motor.Flush()
	if s.syncRequested {
		s.syncOnce(cmd.Context())
	}
	return runErr
}

// syncOnce is the post-lock nudge. Failures stay in the outbox for the
// next "export sync" or "export run".
func (s *session) syncOnce(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	engine, err := s.engine(ctx)
	if err != nil {
		logging.WarnWithContext(s.logger, "export nudge skipped", "export_transport",
			logging.Error(err),
		)
		return
	}
	syncCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout()+5*time.Second)
	defer cancel()
	if _, err := engine.SyncOnce(syncCtx); err != nil {
		logging.WarnWithContext(s.logger, "export nudge failed", "export_sync", logging.Error(err))
	}
}

func (s *session) engine(ctx context.Context) (*exportsync.Engine, error) {
	deviceID, err := s.store.DeviceID()
	if err != nil {
		return nil, fmt.Errorf("device id: %w", err)
	}
	transport, err := export.NewHTTPTransport(ctx, s.cfg, deviceID, s.logger)
	if err != nil {
		return nil, err
	}
	return exportsync.NewEngine(s.box, transport, exportsync.PolicyFromConfig(s.cfg), time.Now, s.logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
