package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"punchout/internal/daylog"
	"punchout/internal/extract"
	"punchout/internal/motor"
)

func newEntryCommand(ctx *commandContext) *cobra.Command {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Add, review and edit day entries",
	}

	entryCmd.AddCommand(newEntryAddCommand(ctx))
	entryCmd.AddCommand(newEntryListCommand(ctx))
	entryCmd.AddCommand(newEntryParseCommand(ctx))
	entryCmd.AddCommand(newEntryConfirmCommand(ctx))
	entryCmd.AddCommand(newEntryEditCommand(ctx))
	entryCmd.AddCommand(newEntryConvertCommand(ctx))

	return entryCmd
}

func newEntryAddCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Log an entry; the type is guessed when --type is omitted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			typ := daylog.EntryType(strings.TrimSpace(typeFlag))
			if typ == "" {
				typ = extract.GuessEntryType(text)
			}
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("entry add", s.motor.SubmitEntry(text, typ)); err != nil {
					return err
				}
				return done(cmd, ctx, s, fmt.Sprintf("Logged %s entry", typ))
			})
		},
	}
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Entry type (notat, hendelse, vaktlogg, friksjon, pause, kjoring, ordre)")
	return cmd
}

func newEntryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List today's entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				day := s.motor.Snapshot(cmd.Context()).DayLog
				if day == nil {
					return errors.New("no day in progress")
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, day.Entries)
				}
				rows := make([][]string, 0, len(day.Entries))
				for i, e := range day.Entries {
					rows = append(rows, []string{strconv.Itoa(i + 1), e.Time, string(e.Type), e.Text, entryFlags(e)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Time", "Type", "Text", "Flags"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func entryFlags(e daylog.Entry) string {
	var flags []string
	if e.Verified {
		flags = append(flags, "verified")
	}
	if e.VaktloggConfirmed {
		flags = append(flags, "vaktlogg confirmed")
	}
	if e.VaktloggDiscarded {
		flags = append(flags, "vaktlogg discarded")
	}
	if e.RUHDecision != "" {
		flags = append(flags, "ruh "+e.RUHDecision)
	}
	if e.Converted {
		flags = append(flags, "converted")
	}
	return strings.Join(flags, ", ")
}

func newEntryParseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Show what would be extracted from text without logging it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				parsed := s.motor.ParseEntry(strings.Join(args, " "))
				if ctx.jsonOutput() {
					return writeJSON(cmd, parsed)
				}
				out := cmd.OutOrStdout()
				if parsed == nil {
					fmt.Fprintln(out, "No order number found")
					return nil
				}
				fmt.Fprintf(out, "Ordre:     %s\n", parsed.Ordre)
				fmt.Fprintf(out, "Fra:       %s\n", orDash(parsed.Fra))
				fmt.Fprintf(out, "Til:       %s\n", orDash(parsed.Til))
				fmt.Fprintf(out, "Ressurser: %s\n", orDash(strings.Join(parsed.Ressurser, ", ")))
				return nil
			})
		},
	}
}

func newEntryConfirmCommand(ctx *commandContext) *cobra.Command {
	var typeFlag, ordreFlag, fraFlag, tilFlag string
	var ressurser []string
	cmd := &cobra.Command{
		Use:   "confirm <text>",
		Short: "Log a verified entry and confirm its order draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return ctx.withMotor(cmd, func(s *session) error {
				parsed := s.motor.ParseEntry(text)
				if parsed == nil {
					parsed = &motor.ParsedEntry{RawText: text}
				}
				if v := strings.TrimSpace(ordreFlag); v != "" {
					parsed.Ordre = v
				}
				if cmd.Flags().Changed("fra") {
					parsed.Fra = strings.TrimSpace(fraFlag)
				}
				if cmd.Flags().Changed("til") {
					parsed.Til = strings.TrimSpace(tilFlag)
				}
				if cmd.Flags().Changed("ressurs") {
					parsed.Ressurser = ressurser
				}
				if parsed.Ordre == "" {
					return errors.New("no order number found; pass --ordre")
				}
				typ := daylog.EntryType(strings.TrimSpace(typeFlag))
				if typ == "" {
					typ = daylog.TypeOrdre
				}
				if err := check("entry confirm", s.motor.ConfirmStructuredEntry(text, typ, parsed)); err != nil {
					return err
				}
				return done(cmd, ctx, s, fmt.Sprintf("Confirmed %s", parsed.Ordre))
			})
		},
	}
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Entry type (default ordre)")
	cmd.Flags().StringVar(&ordreFlag, "ordre", "", "Order number, overrides extraction")
	cmd.Flags().StringVar(&fraFlag, "fra", "", "Start time HH:MM, overrides extraction")
	cmd.Flags().StringVar(&tilFlag, "til", "", "End time HH:MM, overrides extraction")
	cmd.Flags().StringSliceVar(&ressurser, "ressurs", nil, "Resources, overrides extraction")
	return cmd
}

func newEntryEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <number> <text>",
		Short: "Replace the text of an entry",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseEntryNumber(args[0])
			if err != nil {
				return err
			}
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("entry edit", s.motor.OpenEdit(index)); err != nil {
					return err
				}
				if err := check("entry edit", s.motor.SaveEdit(strings.Join(args[1:], " "))); err != nil {
					s.motor.CancelEdit()
					return err
				}
				return done(cmd, ctx, s, fmt.Sprintf("Entry %d updated", index+1))
			})
		},
	}
}

func newEntryConvertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <number> <form>",
		Short: "Turn a note into a form such as forbedringsforslag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseEntryNumber(args[0])
			if err != nil {
				return err
			}
			return ctx.withMotor(cmd, func(s *session) error {
				if err := check("entry convert", s.motor.ConvertNote(index, args[1])); err != nil {
					return err
				}
				id := s.motor.Snapshot(cmd.Context()).UxState.SchemaID
				return done(cmd, ctx, s, fmt.Sprintf("Created %s form %s", args[1], id))
			})
		},
	}
}

// parseEntryNumber converts a 1-based entry number to an index.
func parseEntryNumber(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid entry number %q", raw)
	}
	return n - 1, nil
}
