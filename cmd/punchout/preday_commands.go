package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"punchout/internal/daylog"
	"punchout/internal/motor"
	"punchout/internal/schema"
)

func newPreDayCommand(ctx *commandContext) *cobra.Command {
	predayCmd := &cobra.Command{
		Use:   "preday",
		Short: "Handle the forms due before work starts",
	}

	predayCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pre-day forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				day := s.motor.Snapshot(cmd.Context()).DayLog
				if day == nil {
					return errors.New("no day in progress")
				}
				var forms []*daylog.SchemaInstance
				for _, inst := range day.Schemas {
					if inst.Origin == daylog.OriginPreDay {
						forms = append(forms, inst)
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, forms)
				}
				rows := make([][]string, 0, len(forms))
				for _, inst := range forms {
					rows = append(rows, []string{inst.ID, schema.Label(inst.Type), string(inst.Status), yesNo(s.motor.IsSchemaRequired(inst.Type))})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Form", "Status", "Required"}, rows, nil))
				return nil
			})
		},
	})

	predayCmd.AddCommand(predayAction(ctx, "continue", "Start work once required forms are confirmed", "Work started", (*motor.Motor).ContinueFromPreDay))
	predayCmd.AddCommand(predayAction(ctx, "force", "Start work, marking required forms as force-skipped", "Work started with skipped forms", (*motor.Motor).ForceStartDay))
	predayCmd.AddCommand(predayAction(ctx, "skip-all", "Skip every optional pre-day form", "Optional forms skipped", (*motor.Motor).SkipAllPreDay))

	predayCmd.AddCommand(predayIDAction(ctx, "skip", "Skip an optional form", "Form skipped", (*motor.Motor).SkipPreDaySchema))
	predayCmd.AddCommand(predayIDAction(ctx, "defer", "Defer an optional form until later", "Form deferred", (*motor.Motor).DeferPreDaySchema))

	return predayCmd
}

func predayAction(ctx *commandContext, use, short, message string, run func(*motor.Motor) motor.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("preday "+use, run(s.motor)); err != nil {
					return err
				}
				return done(cmd, ctx, s, message)
			})
		},
	}
}

func predayIDAction(ctx *commandContext, use, short, message string, run func(*motor.Motor, string) motor.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("preday "+use, run(s.motor, args[0])); err != nil {
					return err
				}
				return done(cmd, ctx, s, message)
			})
		},
	}
}
