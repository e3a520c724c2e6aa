package main

import (
	"fmt"
	"strconv"

	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/platform/notesapi"
	"github.com/spf13/cobra"
)

func newEditCmd(load appLoader) *cobra.Command {
	var (
		summary     string
		content     string
		readingTime float64
		topicID     int64
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a note",
		Long: `Edit changes the summary, content, reading time or topic of a note.
Only the flags that are given are sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID, err := parseNoteID(args[0])
			if err != nil {
				return err
			}

			var update domain.NoteUpdate
			flags := cmd.Flags()
			if flags.Changed("summary") {
				update.Summary = domain.StringPtr(summary)
			}
			if flags.Changed("content") {
				update.Content = domain.StringPtr(content)
			}
			if flags.Changed("reading-time") {
				update.ReadingTimeMinutes = domain.Float64Ptr(readingTime)
			}
			if flags.Changed("topic") {
				update.TopicID = domain.Int64Ptr(topicID)
			}
			if err := update.Validate(); err != nil {
				return fmt.Errorf("invalid edit: %w", err)
			}

			app, err := load(cmd)
			if err != nil {
				return err
			}
			defer app.cleanup()

			note, err := app.editor.UpdateNote(cmd.Context(), noteID, update)
			if err != nil {
				app.notifier.Error(cmd.Context(), notesapi.UserMessage(err, "Failed to update note"))
				return fmt.Errorf("failed to update note %d: %w", noteID, err)
			}

			title := fmt.Sprintf("note %d", noteID)
			if note != nil {
				title = note.Title()
			}
			app.logger.Info("note updated", "note_id", noteID)
			app.notifier.Success(cmd.Context(), fmt.Sprintf("Note %q updated", title))
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "new summary")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().Float64Var(&readingTime, "reading-time", 0, "new estimated reading time in minutes")
	cmd.Flags().Int64Var(&topicID, "topic", 0, "ID of the topic the note belongs to")

	return cmd
}

func newDeleteCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID, err := parseNoteID(args[0])
			if err != nil {
				return err
			}

			app, err := load(cmd)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if err := app.editor.DeleteNote(cmd.Context(), noteID); err != nil {
				app.notifier.Error(cmd.Context(), notesapi.UserMessage(err, "Failed to delete note"))
				return fmt.Errorf("failed to delete note %d: %w", noteID, err)
			}

			app.logger.Info("note deleted", "note_id", noteID)
			app.notifier.Success(cmd.Context(), fmt.Sprintf("Note %d deleted", noteID))
			return nil
		},
	}
}

func parseNoteID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidNoteID, arg)
	}
	return id, nil
}
