package api

import (
	"time"

	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/task"
)

// NoteResponse is the status endpoint view of a tracked note
type NoteResponse struct {
	ID                 int64     `json:"id"`
	TopicID            *int64    `json:"topic,omitempty"`
	TopicTitle         string    `json:"topic_title,omitempty"`
	TopicStatus        string    `json:"topic_status,omitempty"`
	ReadingTimeMinutes *float64  `json:"reading_time_minutes,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	Eligible           bool      `json:"eligible"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// TimerResponse is the status endpoint view of a reading timer
type TimerResponse struct {
	NoteID           int64   `json:"note_id"`
	TopicID          int64   `json:"topic_id"`
	Status           string  `json:"status"`
	DueAt            string  `json:"due_at"`
	DurationSeconds  float64 `json:"duration_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

func noteToResponse(n domain.Note) NoteResponse {
	return NoteResponse{
		ID:                 n.ID,
		TopicID:            n.TopicID,
		TopicTitle:         n.TopicTitle,
		TopicStatus:        string(n.TopicStatus),
		ReadingTimeMinutes: n.ReadingTimeMinutes,
		Summary:            n.Summary,
		Eligible:           n.Eligible(),
		UpdatedAt:          n.UpdatedAt,
	}
}

func timerToResponse(p task.PendingTask, now time.Time) TimerResponse {
	remaining := p.DueAt.Sub(now)
	if remaining < 0 || p.Status != task.TaskStatusScheduled {
		remaining = 0
	}

	return TimerResponse{
		NoteID:           p.NoteID,
		TopicID:          p.TopicID,
		Status:           string(p.Status),
		DueAt:            p.DueAt.UTC().Format(time.RFC3339),
		DurationSeconds:  p.Delay.Seconds(),
		RemainingSeconds: remaining.Seconds(),
	}
}
