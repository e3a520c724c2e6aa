package notesapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/scry-notes/internal/domain"
)

// notePage is one page of a paginated list response.
type notePage struct {
	Results *[]domain.Note `json:"results"`
	Next    *string        `json:"next"`
}

// decodeNoteList accepts either a bare JSON array of notes or an object with a
// "results" array. It returns the notes and the next-page URL, if any.
func decodeNoteList(data []byte) ([]domain.Note, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, "", fmt.Errorf("%w: empty body", ErrUnexpectedPayload)
	}

	switch trimmed[0] {
	case '[':
		var notes []domain.Note
		if err := json.Unmarshal(trimmed, &notes); err != nil {
			return nil, "", fmt.Errorf("failed to decode note list: %w", err)
		}
		return notes, "", nil

	case '{':
		var page notePage
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, "", fmt.Errorf("failed to decode note page: %w", err)
		}
		if page.Results == nil {
			return nil, "", fmt.Errorf("%w: object without results field", ErrUnexpectedPayload)
		}
		next := ""
		if page.Next != nil {
			next = *page.Next
		}
		return *page.Results, next, nil

	default:
		return nil, "", fmt.Errorf("%w: starts with %q", ErrUnexpectedPayload, trimmed[0])
	}
}
