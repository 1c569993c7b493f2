package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"punchout/internal/voice"
)

// newListenCommand feeds stdin through the voice manager, one line per
// utterance, so transcripts take the same path as live speech.
func newListenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Read transcripts from stdin as spoken input",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMotor(cmd, func(s *session) error {
				lines := voice.NewLineRecognizer(cmd.InOrStdin())
				lines.Attach(s.motor.Voice())

				out := cmd.OutOrStdout()
				handled := 0
				for !lines.EOF() {
					before := s.motor.Revision()
					s.motor.ToggleVoice()
					s.motor.Flush()
					if status := s.motor.Voice().Status(); status.Error != "" {
						fmt.Fprintln(cmd.ErrOrStderr(), status.Error)
						continue
					}
					if s.motor.Revision() != before {
						handled++
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, s.motor.Snapshot(cmd.Context()))
				}
				fmt.Fprintf(out, "Handled %d transcript(s)\n", handled)
				return nil
			})
		},
	}
}
