package main

import (
	"fmt"

	"github.com/phrazzld/scry-notes/internal/platform/notesapi"
	"github.com/spf13/cobra"
)

func newListCmd(load appLoader) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validOutput(output) {
				return fmt.Errorf("invalid --output %q: must be table, json or yaml", output)
			}

			app, err := load(cmd)
			if err != nil {
				return err
			}
			defer app.cleanup()

			notes, err := app.notes.FetchNotes(cmd.Context())
			if err != nil {
				app.notifier.Error(cmd.Context(), notesapi.UserMessage(err, "Failed to load notes"))
				return fmt.Errorf("failed to fetch notes: %w", err)
			}

			return renderNotes(app.out, output, notes)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	return cmd
}
