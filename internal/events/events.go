package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the reading scheduler
const (
	// TypeTopicCompleted is emitted after a topic was marked completed and the
	// local note mirror was updated. Payload: TopicCompletedPayload.
	TypeTopicCompleted = "topic.completed"

	// TypeNotesReconciled is emitted after the tracked note list was replaced.
	// Payload: NotesReconciledPayload.
	TypeNotesReconciled = "notes.reconciled"
)

// Event represents something that happened inside the application.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// TopicCompletedPayload describes a topic that was auto-completed.
type TopicCompletedPayload struct {
	NoteID     int64  `json:"note_id"`
	TopicID    int64  `json:"topic_id"`
	TopicTitle string `json:"topic_title"`
}

// NotesReconciledPayload summarizes one reconciliation.
type NotesReconciledPayload struct {
	NoteCount int `json:"note_count"`
	Scheduled int `json:"scheduled"`
	Cancelled int `json:"cancelled"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a plain function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
