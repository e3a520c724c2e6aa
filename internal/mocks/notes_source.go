package mocks

import (
	"context"

	"github.com/phrazzld/scry-notes/internal/domain"
)

// MockNotesClient implements the notes source and editor interfaces used by
// the CLI for testing
type MockNotesClient struct {
	FetchNotesFn func(ctx context.Context) ([]domain.Note, error)
	UpdateNoteFn func(ctx context.Context, noteID int64, update domain.NoteUpdate) (*domain.Note, error)
	DeleteNoteFn func(ctx context.Context, noteID int64) error

	// Default return values
	Notes        []domain.Note
	DefaultError error
}

// FetchNotes implements the NotesSource.FetchNotes method
func (m *MockNotesClient) FetchNotes(ctx context.Context) ([]domain.Note, error) {
	if m.FetchNotesFn != nil {
		return m.FetchNotesFn(ctx)
	}
	return m.Notes, m.DefaultError
}

// UpdateNote implements the NoteEditor.UpdateNote method
func (m *MockNotesClient) UpdateNote(ctx context.Context, noteID int64, update domain.NoteUpdate) (*domain.Note, error) {
	if m.UpdateNoteFn != nil {
		return m.UpdateNoteFn(ctx, noteID, update)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &domain.Note{ID: noteID}, nil
}

// DeleteNote implements the NoteEditor.DeleteNote method
func (m *MockNotesClient) DeleteNote(ctx context.Context, noteID int64) error {
	if m.DeleteNoteFn != nil {
		return m.DeleteNoteFn(ctx, noteID)
	}
	return m.DefaultError
}
