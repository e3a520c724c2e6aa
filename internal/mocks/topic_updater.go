package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-notes/internal/domain"
)

// TopicUpdateCall records one UpdateTopicStatus invocation.
type TopicUpdateCall struct {
	TopicID int64
	Status  domain.TopicStatus
}

// MockTopicUpdater implements task.TopicUpdater for testing
type MockTopicUpdater struct {
	// Custom behavior function; nil means succeed
	UpdateTopicStatusFn func(ctx context.Context, topicID int64, status domain.TopicStatus) error

	// Calls receives every invocation, in call order
	Calls chan TopicUpdateCall

	mu       sync.Mutex
	recorded []TopicUpdateCall
}

// NewMockTopicUpdater creates a MockTopicUpdater whose Calls channel can
// buffer a generous number of invocations.
func NewMockTopicUpdater() *MockTopicUpdater {
	return &MockTopicUpdater{Calls: make(chan TopicUpdateCall, 64)}
}

// UpdateTopicStatus implements the TopicUpdater.UpdateTopicStatus method
func (m *MockTopicUpdater) UpdateTopicStatus(ctx context.Context, topicID int64, status domain.TopicStatus) error {
	call := TopicUpdateCall{TopicID: topicID, Status: status}

	m.mu.Lock()
	m.recorded = append(m.recorded, call)
	m.mu.Unlock()

	if m.Calls != nil {
		select {
		case m.Calls <- call:
		default:
		}
	}

	if m.UpdateTopicStatusFn != nil {
		return m.UpdateTopicStatusFn(ctx, topicID, status)
	}
	return nil
}

// Recorded returns a copy of every call seen so far.
func (m *MockTopicUpdater) Recorded() []TopicUpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TopicUpdateCall(nil), m.recorded...)
}
