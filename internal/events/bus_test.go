package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(t *testing.T, eventType string) *Event {
	t.Helper()
	event, err := NewEvent(eventType, struct{}{})
	require.NoError(t, err)
	return event
}

func TestBus_DeliversByType(t *testing.T) {
	tests := []struct {
		name      string
		types     []string
		emit      string
		delivered bool
	}{
		{name: "no filter receives completions", emit: TypeTopicCompleted, delivered: true},
		{name: "no filter receives reconciliations", emit: TypeNotesReconciled, delivered: true},
		{name: "matching filter", types: []string{TypeTopicCompleted}, emit: TypeTopicCompleted, delivered: true},
		{name: "other type filtered out", types: []string{TypeTopicCompleted}, emit: TypeNotesReconciled},
		{name: "any of several types", types: []string{TypeNotesReconciled, TypeTopicCompleted}, emit: TypeNotesReconciled, delivered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus()
			handler := &MockEventHandler{}
			bus.Subscribe(handler, tt.types...)

			event := newTestEvent(t, tt.emit)
			require.NoError(t, bus.EmitEvent(context.Background(), event))

			if tt.delivered {
				assert.Equal(t, 1, handler.HandledCount)
				assert.Same(t, event, handler.LastEvent)
			} else {
				assert.Zero(t, handler.HandledCount)
			}
		})
	}
}

func TestBus_EmitWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewBus().EmitEvent(context.Background(), newTestEvent(t, TypeNotesReconciled)))
}

func TestBus_FailuresDoNotStopDelivery(t *testing.T) {
	bus := NewBus()
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	var order []string
	record := func(name string, err error) EventHandler {
		return EventHandlerFunc(func(context.Context, *Event) error {
			order = append(order, name)
			return err
		})
	}
	bus.Subscribe(record("a", errFirst))
	bus.Subscribe(record("b", nil))
	bus.Subscribe(record("c", errSecond))

	err := bus.EmitEvent(context.Background(), newTestEvent(t, TypeTopicCompleted))

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
	assert.Contains(t, err.Error(), TypeTopicCompleted)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	kept := &MockEventHandler{}
	dropped := &MockEventHandler{}

	bus.Subscribe(kept)
	unsubscribe := bus.Subscribe(dropped)

	require.NoError(t, bus.EmitEvent(context.Background(), newTestEvent(t, TypeTopicCompleted)))
	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.EmitEvent(context.Background(), newTestEvent(t, TypeTopicCompleted)))

	assert.Equal(t, 2, kept.HandledCount)
	assert.Equal(t, 1, dropped.HandledCount)
}

func TestBus_UnsubscribeDuringEmit(t *testing.T) {
	bus := NewBus()
	later := &MockEventHandler{}

	var unsubscribeLater func()
	bus.Subscribe(EventHandlerFunc(func(context.Context, *Event) error {
		unsubscribeLater()
		return nil
	}))
	unsubscribeLater = bus.Subscribe(later)

	require.NoError(t, bus.EmitEvent(context.Background(), newTestEvent(t, TypeTopicCompleted)))
	require.NoError(t, bus.EmitEvent(context.Background(), newTestEvent(t, TypeTopicCompleted)))

	assert.Equal(t, 1, later.HandledCount, "removal applies from the next emit")
}
