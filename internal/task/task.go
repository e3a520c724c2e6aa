package task

import (
	"context"
	"time"

	"github.com/phrazzld/scry-notes/internal/domain"
)

// TaskStatus represents the current state of a scheduled reading task
type TaskStatus string

// Possible task status values
const (
	// TaskStatusScheduled means the timer is armed and has not fired.
	TaskStatusScheduled TaskStatus = "scheduled"
	// TaskStatusProcessing means the timer fired and the topic update is in flight.
	TaskStatusProcessing TaskStatus = "processing"
	// TaskStatusCompleted means the topic was marked completed.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed means the topic update failed. Failed tasks are not retried.
	TaskStatusFailed TaskStatus = "failed"
)

// TopicUpdater is the sink that persists topic status changes.
type TopicUpdater interface {
	UpdateTopicStatus(ctx context.Context, topicID int64, status domain.TopicStatus) error
}

// PendingTask is a read-only view of a task tracked by the scheduler.
type PendingTask struct {
	NoteID  int64         `json:"note_id"`
	TopicID int64         `json:"topic_id"`
	Delay   time.Duration `json:"delay"`
	DueAt   time.Time     `json:"due_at"`
	Status  TaskStatus    `json:"status"`
}
