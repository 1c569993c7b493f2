package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"punchout/internal/config"
	"punchout/internal/export"
	"punchout/internal/exportsync"
	"punchout/internal/logging"
	"punchout/internal/outbox"
	"punchout/internal/storage"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Inspect and deliver queued day exports",
	}

	exportCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show export status of the current day and the outbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				snap := s.motor.Snapshot(cmd.Context())
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"enabled": snap.ExportEnabled,
						"status":  snap.ExportStatus,
						"outbox":  snap.OutboxStatus,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Export:  %s\n", snap.ExportStatus)
				fmt.Fprintf(out, "Pending: %d\nSent:    %d\nFailed:  %d\n",
					snap.OutboxStatus.Pending, snap.OutboxStatus.Sent, snap.OutboxStatus.Failed)
				return nil
			})
		},
	})

	exportCmd.AddCommand(newExportListCommand(ctx))
	exportCmd.AddCommand(newExportSyncCommand(ctx))
	exportCmd.AddCommand(newExportRetryCommand(ctx))
	exportCmd.AddCommand(newExportRunCommand(ctx))

	return exportCmd
}

// withOutbox opens only the outbox database.
func (c *commandContext) withOutbox(fn func(*config.Config, *outbox.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	box, err := outbox.Open(cfg, c.commandLogger())
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer box.Close()
	return fn(cfg, box)
}

func newExportListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List outbox items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]outbox.Status, 0, len(statusFlags))
			for _, raw := range statusFlags {
				statuses = append(statuses, outbox.Status(raw))
			}
			return ctx.withOutbox(func(_ *config.Config, box *outbox.Store) error {
				items, err := box.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					next := "-"
					if item.NextAttempt != nil {
						next = item.NextAttempt.Local().Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						item.ExportID,
						item.DayID,
						string(item.Status),
						strconv.Itoa(item.Retries),
						next,
						orDash(item.Error),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Export ID", "Day", "Status", "Retries", "Next attempt", "Error"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (pending, sending, sent, failed)")
	return cmd
}

func newExportSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one delivery pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, box, err := ctx.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer box.Close()
			result, err := engine.SyncOnce(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			switch result.Outcome {
			case exportsync.OutcomeIdle:
				fmt.Fprintln(out, "Nothing to send")
			case exportsync.OutcomeSent:
				fmt.Fprintf(out, "Sent %s\n", result.ExportID)
			case exportsync.OutcomeRetry:
				fmt.Fprintf(out, "Delivery of %s failed (%s), retry %d scheduled\n", result.ExportID, result.Error, result.Retries)
			case exportsync.OutcomePermanent:
				fmt.Fprintf(out, "Delivery of %s rejected: %s\n", result.ExportID, result.Error)
			default:
				fmt.Fprintln(out, string(result.Outcome))
			}
			return nil
		},
	}
}

func newExportRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [export-id...]",
		Short: "Give failed exports a fresh retry budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOutbox(func(_ *config.Config, box *outbox.Store) error {
				count, err := box.RetryFailed(cmd.Context(), args...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int64{"retried": count})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retrying %d export(s)\n", count)
				return nil
			})
		},
	}
}

func newExportRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Deliver exports periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			engine, box, err := ctx.openEngine(signalCtx)
			if err != nil {
				return err
			}
			defer box.Close()

			runner := exportsync.NewRunner(engine, cfg.SyncInterval(), logger)
			if err := runner.Start(signalCtx); err != nil {
				return err
			}
			logger.Info("export runner started",
				logging.String("endpoint", cfg.Export.Endpoint),
				logging.Duration("interval", cfg.SyncInterval()),
			)
			<-signalCtx.Done()
			runner.Stop()
			logger.Info("export runner stopped")
			return nil
		},
	}
}

// openEngine reads the device id from the day store, releases it again so
// the day can still be edited, and builds an engine over the outbox.
func (c *commandContext) openEngine(ctx context.Context) (*exportsync.Engine, *outbox.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.ExportEnabled() {
		return nil, nil, errors.New("export is disabled (set export.endpoint)")
	}
	logger := c.commandLogger()

	store, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open day store: %w", err)
	}
	deviceID, err := store.DeviceID()
	_ = store.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("device id: %w", err)
	}

	transport, err := export.NewHTTPTransport(ctx, cfg, deviceID, logger)
	if err != nil {
		return nil, nil, err
	}
	box, err := outbox.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open outbox: %w", err)
	}
	engine := exportsync.NewEngine(box, transport, exportsync.PolicyFromConfig(cfg), time.Now, logger)
	return engine, box, nil
}
