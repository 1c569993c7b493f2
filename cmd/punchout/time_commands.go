package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"punchout/internal/daylog"
)

func newTimeCommand(ctx *commandContext) *cobra.Command {
	timeCmd := &cobra.Command{
		Use:   "time",
		Short: "Register wage codes and machine hours per order",
	}

	timeCmd.AddCommand(newTimeListCommand(ctx))
	timeCmd.AddCommand(newTimeAddCommand(ctx))
	timeCmd.AddCommand(newTimeMachineCommand(ctx))

	timeCmd.AddCommand(&cobra.Command{
		Use:   "confirm <ordre>",
		Short: "Confirm the hours of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("time confirm", s.motor.OpenTimeEntry(args[0])); err != nil {
					return err
				}
				if err := check("time confirm", s.motor.ConfirmTimeEntry()); err != nil {
					s.motor.CloseTimeEntry()
					return err
				}
				return done(cmd, ctx, s, fmt.Sprintf("Hours for %s confirmed", args[0]))
			})
		},
	})

	return timeCmd
}

func newTimeListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List order drafts and their lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				day := s.motor.Snapshot(cmd.Context()).DayLog
				if day == nil {
					return errors.New("no day in progress")
				}
				hours := s.motor.LockedHoursFromTillegg()
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"drafts": day.Drafts, "lockedHours": hours})
				}
				rows := [][]string{}
				for _, ordre := range day.DraftOrdres() {
					d := day.Drafts[ordre]
					var wage []string
					for _, line := range d.Lonnskoder {
						wage = append(wage, fmt.Sprintf("%s %s-%s", line.Kode, orDash(line.Fra), orDash(line.Til)))
					}
					var machines []string
					for _, line := range d.Maskintimer {
						machines = append(machines, fmt.Sprintf("%s %st", line.Maskin, strconv.FormatFloat(line.Timer, 'f', -1, 64)))
					}
					rows = append(rows, []string{
						d.Ordre,
						fmt.Sprintf("%s-%s", orDash(d.FraTid), orDash(d.TilTid)),
						string(d.Status),
						orDash(strings.Join(wage, ", ")),
						orDash(strings.Join(machines, ", ")),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"Ordre", "Tid", "Status", "Lønnskoder", "Maskintimer"}, rows, nil))
				fmt.Fprintf(out, "Confirmed side-order hours: %s\n", strconv.FormatFloat(hours.TotalHours, 'f', 2, 64))
				return nil
			})
		},
	}
}

func newTimeAddCommand(ctx *commandContext) *cobra.Command {
	var kode, fra, til string
	cmd := &cobra.Command{
		Use:   "add <ordre>",
		Short: "Add a wage line to an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ordre := args[0]
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("time add", s.motor.OpenTimeEntry(ordre)); err != nil {
					return err
				}
				defer s.motor.CloseTimeEntry()
				if err := check("time add", s.motor.AddLonnskode()); err != nil {
					return err
				}
				draft := currentDraft(cmd, s, ordre)
				if draft == nil {
					return fmt.Errorf("order %s has no draft", ordre)
				}
				last := len(draft.Lonnskoder) - 1
				line := draft.Lonnskoder[last]
				if kode != "" {
					line.Kode = kode
				}
				if cmd.Flags().Changed("fra") {
					line.Fra = fra
				}
				if cmd.Flags().Changed("til") {
					line.Til = til
				}
				if err := check("time add", s.motor.UpdateLonnskode(last, line.Kode, line.Fra, line.Til)); err != nil {
					s.motor.RemoveLonnskode(last)
					return err
				}
				return done(cmd, ctx, s, fmt.Sprintf("Added %s %s-%s to %s", line.Kode, orDash(line.Fra), orDash(line.Til), ordre))
			})
		},
	}
	cmd.Flags().StringVar(&kode, "kode", "", "Wage code (default: first configured code)")
	cmd.Flags().StringVar(&fra, "fra", "", "Start time HH:MM (default: draft start)")
	cmd.Flags().StringVar(&til, "til", "", "End time HH:MM (default: draft end)")
	return cmd
}

func newTimeMachineCommand(ctx *commandContext) *cobra.Command {
	var maskin string
	var timer float64
	cmd := &cobra.Command{
		Use:   "machine <ordre>",
		Short: "Add machine hours to an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ordre := args[0]
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("time machine", s.motor.OpenTimeEntry(ordre)); err != nil {
					return err
				}
				defer s.motor.CloseTimeEntry()
				if err := check("time machine", s.motor.AddMaskintime()); err != nil {
					return err
				}
				draft := currentDraft(cmd, s, ordre)
				if draft == nil {
					return fmt.Errorf("order %s has no draft", ordre)
				}
				last := len(draft.Maskintimer) - 1
				if err := check("time machine", s.motor.UpdateMaskintime(last, maskin, timer)); err != nil {
					s.motor.RemoveMaskintime(last)
					return err
				}
				return done(cmd, ctx, s, fmt.Sprintf("Added %s %st to %s", maskin, strconv.FormatFloat(timer, 'f', -1, 64), ordre))
			})
		},
	}
	cmd.Flags().StringVar(&maskin, "maskin", "", "Machine name")
	cmd.Flags().Float64Var(&timer, "timer", 0, "Hours")
	return cmd
}

func currentDraft(cmd *cobra.Command, s *session, ordre string) *daylog.Draft {
	day := s.motor.Snapshot(cmd.Context()).DayLog
	if day == nil {
		return nil
	}
	return day.Draft(ordre)
}
