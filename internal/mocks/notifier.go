package mocks

import (
	"context"
	"sync"
)

// Notification is one message received by MockNotifier.
type Notification struct {
	Kind    string // "success" or "error"
	Message string
}

// MockNotifier implements notify.Notifier for testing
type MockNotifier struct {
	// Received gets every notification, in order
	Received chan Notification

	mu  sync.Mutex
	all []Notification
}

// NewMockNotifier creates a MockNotifier with a buffered Received channel.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Received: make(chan Notification, 64)}
}

// Success implements notify.Notifier.
func (m *MockNotifier) Success(_ context.Context, message string) {
	m.record(Notification{Kind: "success", Message: message})
}

// Error implements notify.Notifier.
func (m *MockNotifier) Error(_ context.Context, message string) {
	m.record(Notification{Kind: "error", Message: message})
}

// All returns a copy of every notification seen so far.
func (m *MockNotifier) All() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.all...)
}

func (m *MockNotifier) record(n Notification) {
	m.mu.Lock()
	m.all = append(m.all, n)
	m.mu.Unlock()

	if m.Received != nil {
		select {
		case m.Received <- n:
		default:
		}
	}
}
