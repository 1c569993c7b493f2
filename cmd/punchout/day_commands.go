package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"punchout/internal/daylog"
	"punchout/internal/motor"
)

func newDayCommand(ctx *commandContext) *cobra.Command {
	dayCmd := &cobra.Command{
		Use:   "day",
		Short: "Start, end and lock the work day",
	}

	dayCmd.AddCommand(&cobra.Command{
		Use:   "start [text]",
		Short: "Start the day, optionally with a first utterance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("day start", s.motor.StartDay(strings.Join(args, " "))); err != nil {
					return err
				}
				return done(cmd, ctx, s, "Day started")
			})
		},
	})

	dayCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of the current day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				snap := s.motor.Snapshot(cmd.Context())
				if ctx.jsonOutput() {
					return writeJSON(cmd, snap)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, strings.Join(renderDayStatus(snap, shouldColorize(out)), "\n"))
				return nil
			})
		},
	})

	dayCmd.AddCommand(&cobra.Command{
		Use:   "confirm-start HH:MM",
		Short: "Confirm the start time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("confirm start", s.motor.ConfirmStartTime(args[0])); err != nil {
					return err
				}
				return done(cmd, ctx, s, "Start time confirmed")
			})
		},
	})

	dayCmd.AddCommand(&cobra.Command{
		Use:   "end",
		Short: "End the day and begin resolving open items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("day end", s.motor.EndDay()); err != nil {
					return err
				}
				count := len(s.motor.UnresolvedItems())
				return done(cmd, ctx, s, fmt.Sprintf("Day ended, %d item(s) to resolve", count))
			})
		},
	})

	dayCmd.AddCommand(&cobra.Command{
		Use:   "lock",
		Short: "Lock the day and queue its export",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("day lock", s.motor.LockDay(cmd.Context())); err != nil {
					return err
				}
				return done(cmd, ctx, s, "Day locked")
			})
		},
	})

	dayCmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Clear a locked day so a new one can start",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("day new", s.motor.StartNewDay()); err != nil {
					return err
				}
				return done(cmd, ctx, s, "Ready for a new day")
			})
		},
	})

	dayCmd.AddCommand(newDayStaleCommand(ctx))
	dayCmd.AddCommand(newDayRecoverCommand(ctx))

	return dayCmd
}

func newDayStaleCommand(ctx *commandContext) *cobra.Command {
	staleCmd := &cobra.Command{
		Use:   "stale",
		Short: "Handle a day left over from an earlier date",
	}
	actions := []struct {
		use, short, message string
		run                 func(*motor.Motor) motor.Result
	}{
		{"continue", "Keep working on the stale day", "Continuing stale day", (*motor.Motor).ContinueStaleDay},
		{"end", "End the stale day", "Stale day ended", (*motor.Motor).EndStaleDay},
		{"discard", "Throw the stale day away", "Stale day discarded", (*motor.Motor).DiscardStaleDay},
	}
	for _, action := range actions {
		staleCmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withMotor(cmd, func(s *session) error {
					if err := check("stale "+action.use, action.run(s.motor)); err != nil {
						return err
					}
					return done(cmd, ctx, s, action.message)
				})
			},
		})
	}
	return staleCmd
}

func newDayRecoverCommand(ctx *commandContext) *cobra.Command {
	recoverCmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover from an unreadable day file",
	}
	recoverCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the current day, keeping history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("recover reset", s.motor.ResetCurrentDayOnly()); err != nil {
					return err
				}
				return done(cmd, ctx, s, "Current day reset")
			})
		},
	})
	recoverCmd.AddCommand(&cobra.Command{
		Use:   "ignore",
		Short: "Dismiss the storage error",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("recover ignore", s.motor.TryIgnoreError()); err != nil {
					return err
				}
				return done(cmd, ctx, s, "Storage error dismissed")
			})
		},
	})
	return recoverCmd
}

func renderDayStatus(snap motor.Snapshot, colorize bool) []string {
	lines := []string{renderSectionHeader("Day", colorize)}
	stateKind := statusInfo
	switch snap.AppState {
	case daylog.Active:
		stateKind = statusOK
	case daylog.Locked:
		stateKind = statusWarn
	}
	lines = append(lines, renderStatusLine("State", stateKind, string(snap.AppState), colorize))

	if snap.StorageError != nil {
		lines = append(lines, renderStatusLine("Storage", statusError, snap.StorageError.Message, colorize))
	}
	if day := snap.DayLog; day != nil {
		lines = append(lines,
			renderStatusLine("Date", statusInfo, day.Date, colorize),
			renderStatusLine("Phase", statusInfo, string(day.Phase), colorize),
			renderStatusLine("Start", statusInfo, fmt.Sprintf("%s (%s)", orDash(day.StartTime), day.StartTimeSource), colorize),
			renderStatusLine("End", statusInfo, orDash(day.EndTime), colorize),
			renderStatusLine("Entries", statusInfo, fmt.Sprintf("%d", len(day.Entries)), colorize),
		)
		if snap.IsStaleDay {
			lines = append(lines, renderStatusLine("Stale", statusWarn, "day is from an earlier date", colorize))
		}
		if day.Phase == daylog.PhaseEnding {
			kind := statusWarn
			if snap.ReadyToLock {
				kind = statusOK
			}
			lines = append(lines, renderStatusLine("Unresolved", kind, fmt.Sprintf("%d (ready to lock: %s)", snap.UnresolvedCount, yesNo(snap.ReadyToLock)), colorize))
		}
	}
	if snap.UxState.ActiveOverlay != "" {
		lines = append(lines, renderStatusLine("Overlay", statusInfo, string(snap.UxState.ActiveOverlay), colorize))
	}

	lines = append(lines, "", renderSectionHeader("Export", colorize))
	exportKind := statusInfo
	switch snap.ExportStatus {
	case motor.ExportSent:
		exportKind = statusOK
	case motor.ExportFailed:
		exportKind = statusError
	case motor.ExportSending:
		exportKind = statusWarn
	}
	lines = append(lines,
		renderStatusLine("Status", exportKind, snap.ExportStatus, colorize),
		renderStatusLine("Outbox", statusInfo, fmt.Sprintf("%d pending, %d sent, %d failed",
			snap.OutboxStatus.Pending, snap.OutboxStatus.Sent, snap.OutboxStatus.Failed), colorize),
	)
	return lines
}
