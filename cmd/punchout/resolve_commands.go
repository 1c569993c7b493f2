package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"punchout/internal/motor"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the open items of an ended day",
	}

	resolveCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List unresolved items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				items := s.motor.UnresolvedItems()
				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Nothing to resolve")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{item.ID, item.Kind, item.Label})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Kind", "Item"}, rows, nil))
				return nil
			})
		},
	})

	var fieldFlags []string
	confirmCmd := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseAssignments(fieldFlags)
			if err != nil {
				return err
			}
			data := motor.ResolveData{}
			if len(pairs) > 0 {
				data.Fields = make(map[string]string, len(pairs))
				for _, pair := range pairs {
					data.Fields[pair[0]] = pair[1]
				}
			}
			return resolveItem(cmd, ctx, args[0], motor.ActionConfirm, data)
		},
	}
	confirmCmd.Flags().StringArrayVarP(&fieldFlags, "field", "f", nil, "Form field to set before confirming (key=value)")
	resolveCmd.AddCommand(confirmCmd)

	var reasonFlag string
	discardCmd := &cobra.Command{
		Use:   "discard <id>",
		Short: "Discard an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveItem(cmd, ctx, args[0], motor.ActionDiscard, motor.ResolveData{Reason: reasonFlag})
		},
	}
	discardCmd.Flags().StringVar(&reasonFlag, "reason", "", "Reason for discarding main time (no_work_done, logged_elsewhere)")
	resolveCmd.AddCommand(discardCmd)

	return resolveCmd
}

func resolveItem(cmd *cobra.Command, ctx *commandContext, id, action string, data motor.ResolveData) error {
	return ctx.withMotor(cmd, func(s *session) error {
		if err := check("resolve "+action, s.motor.ResolveItem(id, action, data)); err != nil {
			return err
		}
		remaining := len(s.motor.UnresolvedItems())
		message := fmt.Sprintf("Resolved %s, %d item(s) left", id, remaining)
		if remaining == 0 {
			message = fmt.Sprintf("Resolved %s, day is ready to lock", id)
		}
		return done(cmd, ctx, s, message)
	})
}
