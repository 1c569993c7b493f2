package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"punchout/internal/schema"
)

func newSchemaCommand(ctx *commandContext) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Fill in the day's forms",
	}

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every form of the day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				day := s.motor.Snapshot(cmd.Context()).DayLog
				if day == nil {
					return errors.New("no day in progress")
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, day.Schemas)
				}
				rows := make([][]string, 0, len(day.Schemas))
				for _, inst := range day.Schemas {
					rows = append(rows, []string{
						inst.ID,
						schema.Label(inst.Type),
						string(inst.Origin),
						string(inst.Status),
						formatFields(inst.Fields),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Form", "Origin", "Status", "Fields"}, rows, nil))
				return nil
			})
		},
	})

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "set <id> key=value...",
		Short: "Set fields on a form; an empty value clears the field",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("schema set", s.motor.OpenSchemaEdit(args[0])); err != nil {
					return err
				}
				for _, pair := range pairs {
					if err := check("schema set "+pair[0], s.motor.SetSchemaField(pair[0], pair[1])); err != nil {
						return err
					}
				}
				return done(cmd, ctx, s, fmt.Sprintf("Updated %d field(s)", len(pairs)))
			})
		},
	})

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "save <id>",
		Short: "Save a form and close its editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("schema save", s.motor.OpenSchemaEdit(args[0])); err != nil {
					return err
				}
				if err := check("schema save", s.motor.SaveSchemaEdit()); err != nil {
					return err
				}
				return done(cmd, ctx, s, "Form saved")
			})
		},
	})

	return schemaCmd
}

func parseAssignments(args []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", arg)
		}
		pairs = append(pairs, [2]string{key, value})
	}
	return pairs, nil
}

func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if value == nil || value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, fields[key]))
	}
	return strings.Join(parts, " ")
}
