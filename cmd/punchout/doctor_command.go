package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"punchout/internal/outbox"
	"punchout/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, rules, outbox and export endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var checker preflight.HealthChecker
			box, openErr := outbox.Open(cfg, ctx.commandLogger())
			if openErr == nil {
				defer box.Close()
				checker = box
			}

			results := preflight.RunAll(cmd.Context(), cfg, checker)
			if ctx.jsonOutput() {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderSectionHeader("Punchout doctor", colorize))
			failed := 0
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if openErr != nil {
				fmt.Fprintln(out, renderStatusLine("Outbox open", statusError, openErr.Error(), colorize))
			}
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
