package domain

import (
	"fmt"
	"math"
	"time"
)

// Note is a study note as returned by the notes API. Only ID, TopicID,
// TopicTitle, TopicStatus and ReadingTimeMinutes drive behavior; the rest is
// carried for display.
type Note struct {
	ID                 int64       `json:"id"                             yaml:"id"`
	TopicID            *int64      `json:"topic,omitempty"                yaml:"topic,omitempty"`
	TopicTitle         string      `json:"topic_title,omitempty"          yaml:"topic_title,omitempty"`
	TopicStatus        TopicStatus `json:"topic_status,omitempty"         yaml:"topic_status,omitempty"`
	ReadingTimeMinutes *float64    `json:"reading_time_minutes,omitempty" yaml:"reading_time_minutes,omitempty"`
	Summary            string      `json:"summary,omitempty"              yaml:"summary,omitempty"`
	Content            string      `json:"content,omitempty"              yaml:"content,omitempty"`
	KeyPoints          []string    `json:"key_points,omitempty"           yaml:"key_points,omitempty"`
	WordCount          int         `json:"word_count,omitempty"           yaml:"word_count,omitempty"`
	CreatedAt          time.Time   `json:"created_at,omitempty"           yaml:"created_at,omitempty"`
	UpdatedAt          time.Time   `json:"updated_at,omitempty"           yaml:"updated_at,omitempty"`
}

// Eligible reports whether the note can be auto-completed: it must belong to
// a topic and carry a positive reading time.
func (n Note) Eligible() bool {
	return n.TopicID != nil && n.ReadingTimeMinutes != nil && *n.ReadingTimeMinutes > 0
}

// MaxReadingDuration is the longest delay ReadingDuration returns.
const MaxReadingDuration = time.Duration(math.MaxInt64)

// ReadingDuration converts the note's reading time into wall time, where
// minute is the length of one reading minute (normally time.Minute).
// It returns 0 for notes without a reading time. Reading times too long for a
// time.Duration are clamped to MaxReadingDuration.
func (n Note) ReadingDuration(minute time.Duration) time.Duration {
	if n.ReadingTimeMinutes == nil || !(*n.ReadingTimeMinutes > 0) {
		return 0
	}

	d := *n.ReadingTimeMinutes * float64(minute)
	if d >= float64(MaxReadingDuration) {
		return MaxReadingDuration
	}
	return time.Duration(d)
}

// Title returns the topic title, falling back to a generic label.
func (n Note) Title() string {
	if n.TopicTitle != "" {
		return n.TopicTitle
	}
	return fmt.Sprintf("note %d", n.ID)
}

// Clone returns a deep copy of the note so callers can hand it out without
// sharing pointer fields.
func (n Note) Clone() Note {
	c := n
	if n.TopicID != nil {
		v := *n.TopicID
		c.TopicID = &v
	}
	if n.ReadingTimeMinutes != nil {
		v := *n.ReadingTimeMinutes
		c.ReadingTimeMinutes = &v
	}
	if n.KeyPoints != nil {
		c.KeyPoints = append([]string(nil), n.KeyPoints...)
	}
	return c
}

// NoteUpdate is a partial edit of a note. Nil fields are left unchanged.
type NoteUpdate struct {
	Summary            *string  `json:"summary,omitempty"`
	Content            *string  `json:"content,omitempty"`
	ReadingTimeMinutes *float64 `json:"reading_time_minutes,omitempty"`
	TopicID            *int64   `json:"topic,omitempty"`
}

// Validate checks that the update changes something and that its values are
// acceptable to the API.
func (u NoteUpdate) Validate() error {
	if u.Summary == nil && u.Content == nil && u.ReadingTimeMinutes == nil && u.TopicID == nil {
		return ErrEmptyNoteUpdate
	}
	if u.ReadingTimeMinutes != nil && *u.ReadingTimeMinutes < 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrNegativeReadingTime)
	}
	if u.TopicID != nil && *u.TopicID <= 0 {
		return fmt.Errorf("%w: topic ID must be positive", ErrValidation)
	}
	return nil
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
