package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"punchout/internal/daylog"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the human-readable report of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				var day *daylog.DayLog
				if date := strings.TrimSpace(dateFlag); date != "" {
					day = s.motor.FindHistory(date)
					if day == nil {
						return fmt.Errorf("no locked day for %s", date)
					}
				} else {
					day = s.motor.Snapshot(cmd.Context()).DayLog
					if day == nil {
						if history := s.motor.History(); len(history) > 0 {
							day = history[0]
						}
					}
				}
				if day == nil {
					return errors.New("no day to report")
				}
				report := s.motor.BuildHumanReadableReport(cmd.Context(), day)
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"date": day.Date, "report": report})
				}
				fmt.Fprintln(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Report a locked day (YYYY-MM-DD) instead of the current one")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse locked days",
	}
	historyCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List locked days, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				days := s.motor.History()
				if ctx.jsonOutput() {
					return writeJSON(cmd, days)
				}
				rows := make([][]string, 0, len(days))
				for _, day := range days {
					rows = append(rows, []string{
						day.Date,
						orDash(day.StartTime),
						orDash(day.EndTime),
						fmt.Sprintf("%d", len(day.Entries)),
						orDash(day.ExportID),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Date", "Start", "End", "Entries", "Export ID"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	})
	return historyCmd
}
