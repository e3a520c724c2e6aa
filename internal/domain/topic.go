package domain

// TopicStatus represents the processing state of a study topic as reported
// by the notes API. The zero value means the API did not report a status.
type TopicStatus string

// Possible topic status values
const (
	TopicStatusUnset      TopicStatus = ""
	TopicStatusPending    TopicStatus = "pending"
	TopicStatusProcessing TopicStatus = "processing"
	TopicStatusCompleted  TopicStatus = "completed"
	TopicStatusFailed     TopicStatus = "failed"
)

// IsValid reports whether s is one of the known topic statuses, including unset.
func (s TopicStatus) IsValid() bool {
	switch s {
	case TopicStatusUnset, TopicStatusPending, TopicStatusProcessing,
		TopicStatusCompleted, TopicStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the status, or "unset" for the zero value.
func (s TopicStatus) String() string {
	if s == TopicStatusUnset {
		return "unset"
	}
	return string(s)
}
