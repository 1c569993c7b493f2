package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExternalCommand(ctx *commandContext) *cobra.Command {
	externalCmd := &cobra.Command{
		Use:   "external",
		Short: "Open external systems that need manual registration",
	}

	externalCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured external systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			systems := cfg.Admin.ExternalSystems
			if ctx.jsonOutput() {
				return writeJSON(cmd, systems)
			}
			rows := make([][]string, 0, len(systems))
			for _, sys := range systems {
				rows = append(rows, []string{sys.ID, sys.BaseURL, sys.Instructions})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "URL", "Instructions"}, rows, nil))
			return nil
		},
	})

	var ordreFlag string
	openCmd := &cobra.Command{
		Use:   "open <system>",
		Short: "Record a visit and print the link to open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				params := map[string]string{}
				if ordreFlag != "" {
					params["ordre"] = ordreFlag
				}
				link, res := s.motor.OpenExternalSystem(args[0], params)
				if err := check("external open", res); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"system": args[0], "url": link})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, link)
				if instructions := s.motor.Snapshot(cmd.Context()).UxState.ExternalInstructions; instructions != "" {
					fmt.Fprintln(out, instructions)
				}
				return nil
			})
		},
	}
	openCmd.Flags().StringVar(&ordreFlag, "ordre", "", "Order number to pass to the system")
	externalCmd.AddCommand(openCmd)

	externalCmd.AddCommand(&cobra.Command{
		Use:   "confirm <system>",
		Short: "Mark the latest visit to a system as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("external confirm", s.motor.ConfirmExternalTask(args[0])); err != nil {
					return err
				}
				return done(cmd, ctx, s, fmt.Sprintf("%s registration confirmed", args[0]))
			})
		},
	})

	return externalCmd
}
