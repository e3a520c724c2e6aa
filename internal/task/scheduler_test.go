package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/events"
	"github.com/phrazzld/scry-notes/internal/mocks"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// fixture bundles a started scheduler with its fakes.
type fixture struct {
	s        *Scheduler
	clock    *clockwork.FakeClock
	start    time.Time
	updater  *mocks.MockTopicUpdater
	notifier *mocks.MockNotifier
	logs     *logger.TestLogBuffer
	events   *eventRecorder
}

type eventRecorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *eventRecorder) HandleEvent(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(eventType string) []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	l, logs := logger.NewTestLogger()
	f := &fixture{
		clock:    clockwork.NewFakeClock(),
		updater:  mocks.NewMockTopicUpdater(),
		notifier: mocks.NewMockNotifier(),
		logs:     logs,
		events:   &eventRecorder{},
	}
	f.start = f.clock.Now()

	bus := events.NewBus()
	bus.Subscribe(f.events)

	all := append([]Option{
		WithClock(f.clock),
		WithNotifier(f.notifier),
		WithEmitter(bus),
		WithLogger(l),
	}, opts...)
	f.s = New(f.updater, all...)
	require.NoError(t, f.s.Start())
	t.Cleanup(f.s.Stop)

	return f
}

func (f *fixture) waitCall(t *testing.T) mocks.TopicUpdateCall {
	t.Helper()
	select {
	case call := <-f.updater.Calls:
		return call
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for topic update")
		return mocks.TopicUpdateCall{}
	}
}

func (f *fixture) expectNoCall(t *testing.T) {
	t.Helper()
	assert.Never(t, func() bool {
		return len(f.updater.Recorded()) > 0
	}, 100*time.Millisecond, 10*time.Millisecond, "topic update should not have been called")
}

func (f *fixture) waitNotification(t *testing.T) mocks.Notification {
	t.Helper()
	select {
	case n := <-f.notifier.Received:
		return n
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for notification")
		return mocks.Notification{}
	}
}

func (f *fixture) waitLog(t *testing.T, msg string) {
	t.Helper()
	require.Eventually(t, func() bool {
		entries, err := f.logs.GetLogEntries()
		if err != nil {
			return false
		}
		for _, e := range entries {
			if e["msg"] == msg {
				return true
			}
		}
		return false
	}, waitTimeout, 5*time.Millisecond, "expected log message %q", msg)
}

func eligibleNote(id, topicID int64, minutes float64, title string) domain.Note {
	return domain.Note{
		ID:                 id,
		TopicID:            domain.Int64Ptr(topicID),
		TopicTitle:         title,
		TopicStatus:        domain.TopicStatusPending,
		ReadingTimeMinutes: domain.Float64Ptr(minutes),
	}
}

func TestScheduler_FiresAfterReadingDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	note := eligibleNote(1, 5, 1, "Recursion")
	note.Summary = "Base cases first"
	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{note}))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, PendingTask{
		NoteID:  1,
		TopicID: 5,
		Delay:   60 * time.Second,
		DueAt:   f.start.Add(60 * time.Second),
		Status:  TaskStatusScheduled,
	}, pending[0])

	f.clock.Advance(59 * time.Second)
	f.expectNoCall(t)

	f.clock.Advance(time.Second)
	call := f.waitCall(t)
	assert.Equal(t, mocks.TopicUpdateCall{TopicID: 5, Status: domain.TopicStatusCompleted}, call)

	n := f.waitNotification(t)
	assert.Equal(t, "success", n.Kind)
	assert.Contains(t, n.Message, "Recursion")

	notes, err := f.s.Notes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.TopicStatusCompleted, notes[0].TopicStatus)

	// Everything but the mirrored status is untouched
	want := note.Clone()
	want.TopicStatus = domain.TopicStatusCompleted
	assert.Equal(t, want, notes[0])

	pending, err = f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, TaskStatusCompleted, pending[0].Status)
}

func TestScheduler_ReplacedListNeverFires(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{eligibleNote(1, 5, 1, "Recursion")}))
	f.clock.Advance(30 * time.Second)

	other := domain.Note{ID: 2, TopicTitle: "Graphs"}
	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{other}))

	f.clock.Advance(5 * time.Minute)
	f.expectNoCall(t)

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	reconciled := f.events.ofType(events.TypeNotesReconciled)
	require.Len(t, reconciled, 2)
	var payload events.NotesReconciledPayload
	require.NoError(t, reconciled[1].UnmarshalPayload(&payload))
	assert.Equal(t, events.NotesReconciledPayload{NoteCount: 1, Scheduled: 0, Cancelled: 1}, payload)
}

func TestScheduler_CompletionFailureIsSilent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.updater.UpdateTopicStatusFn = func(ctx context.Context, topicID int64, status domain.TopicStatus) error {
		if topicID == 6 {
			return errors.New("rejected Authorization: Bearer abcdefghijklmnop")
		}
		return nil
	}

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{
		eligibleNote(1, 5, 1, "Recursion"),
		eligibleNote(2, 6, 1, "Dynamic Programming"),
	}))

	f.clock.Advance(time.Minute)

	calls := []mocks.TopicUpdateCall{f.waitCall(t), f.waitCall(t)}
	assert.ElementsMatch(t, []mocks.TopicUpdateCall{
		{TopicID: 5, Status: domain.TopicStatusCompleted},
		{TopicID: 6, Status: domain.TopicStatusCompleted},
	}, calls)

	f.waitNotification(t)
	f.waitLog(t, "failed to mark topic as completed")

	notes, err := f.s.Notes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, domain.TopicStatusCompleted, notes[0].TopicStatus)
	assert.Equal(t, domain.TopicStatusPending, notes[1].TopicStatus, "failed note keeps its status")

	// Only the successful note produced a notification
	all := f.notifier.All()
	require.Len(t, all, 1)
	assert.Equal(t, "success", all[0].Kind)
	assert.Contains(t, all[0].Message, "Recursion")

	assert.NotContains(t, f.logs.String(), "abcdefghijklmnop", "tokens must be redacted from logs")

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	statuses := map[int64]TaskStatus{}
	for _, p := range pending {
		statuses[p.NoteID] = p.Status
	}
	assert.Equal(t, TaskStatusFailed, statuses[2])

	// No retry
	f.clock.Advance(10 * time.Minute)
	assert.Never(t, func() bool { return len(f.updater.Recorded()) > 2 },
		100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_IndependentNotes(t *testing.T) {
	t.Parallel()

	t.Run("same duration fire in any order", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.s.Reconcile(context.Background(), []domain.Note{
			eligibleNote(1, 5, 1, "Recursion"),
			eligibleNote(2, 6, 1, "Graphs"),
		}))

		f.clock.Advance(time.Minute)

		calls := []mocks.TopicUpdateCall{f.waitCall(t), f.waitCall(t)}
		assert.ElementsMatch(t, []mocks.TopicUpdateCall{
			{TopicID: 5, Status: domain.TopicStatusCompleted},
			{TopicID: 6, Status: domain.TopicStatusCompleted},
		}, calls)
	})

	t.Run("different durations fire separately", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.s.Reconcile(context.Background(), []domain.Note{
			eligibleNote(1, 5, 1, "Recursion"),
			eligibleNote(2, 6, 2, "Graphs"),
		}))

		f.clock.Advance(time.Minute)
		assert.Equal(t, int64(5), f.waitCall(t).TopicID)

		f.clock.Advance(time.Minute)
		assert.Equal(t, int64(6), f.waitCall(t).TopicID)
	})
}

func TestScheduler_SkipsIneligibleNotes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	notes := []domain.Note{
		{ID: 1, ReadingTimeMinutes: domain.Float64Ptr(3)},
		{ID: 2, TopicID: domain.Int64Ptr(5)},
		{ID: 3, TopicID: domain.Int64Ptr(5), ReadingTimeMinutes: domain.Float64Ptr(0)},
		{ID: 4, TopicID: domain.Int64Ptr(5), ReadingTimeMinutes: domain.Float64Ptr(-1)},
	}
	require.NoError(t, f.s.Reconcile(ctx, notes))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	tracked, err := f.s.Notes(ctx)
	require.NoError(t, err)
	assert.Len(t, tracked, 4, "ineligible notes are still tracked")

	f.clock.Advance(time.Hour)
	f.expectNoCall(t)
}

func TestScheduler_HugeReadingTimeDoesNotFireEarly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{eligibleNote(1, 5, 3e11, "Huge")}))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.MaxReadingDuration, pending[0].Delay)
	assert.True(t, pending[0].DueAt.After(f.start), "due time must lie in the future")

	f.clock.Advance(0)
	f.expectNoCall(t)

	f.clock.Advance(24 * time.Hour)
	f.expectNoCall(t)
	f.waitLog(t, "reading time too long, clamping timer")
}

func TestScheduler_UnchangedNoteKeepsItsTimer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	note := eligibleNote(1, 5, 1, "Recursion")

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{note}))
	f.clock.Advance(30 * time.Second)

	// Display-only edits do not restart the timer
	edited := note.Clone()
	edited.Summary = "new summary"
	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{edited, eligibleNote(2, 6, 5, "Graphs")}))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(1), pending[0].NoteID)
	assert.Equal(t, f.start.Add(time.Minute), pending[0].DueAt)

	f.clock.Advance(30 * time.Second)
	assert.Equal(t, int64(5), f.waitCall(t).TopicID)
}

func TestScheduler_ChangedReadingTimeRestartsWithFullDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{eligibleNote(1, 5, 1, "Recursion")}))
	f.clock.Advance(30 * time.Second)

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{eligibleNote(1, 5, 2, "Recursion")}))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2*time.Minute, pending[0].Delay)
	assert.Equal(t, f.start.Add(30*time.Second+2*time.Minute), pending[0].DueAt)

	// The old timer would have fired at 60s
	f.clock.Advance(90 * time.Second)
	f.expectNoCall(t)

	f.clock.Advance(30 * time.Second)
	assert.Equal(t, int64(5), f.waitCall(t).TopicID)
}

func TestScheduler_RemovingTopicCancelsTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	note := eligibleNote(1, 5, 1, "Recursion")
	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{note}))

	note.TopicID = nil
	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{note}))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	f.clock.Advance(time.Hour)
	f.expectNoCall(t)
}

func TestScheduler_DuplicateNoteIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{
		eligibleNote(1, 5, 1, "Recursion"),
		eligibleNote(1, 9, 1, "Duplicate"),
	}))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(5), pending[0].TopicID, "first occurrence wins")

	notes, err := f.s.Notes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	f.waitLog(t, "ignoring duplicate note in list")
}

func TestScheduler_CompletedNoteDoesNotFireAgain(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	note := eligibleNote(1, 5, 1, "Recursion")

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{note}))
	f.clock.Advance(time.Minute)
	f.waitCall(t)
	f.waitNotification(t)

	// A refetch that still reports the old status
	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{note}))

	notes, err := f.s.Notes(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TopicStatusCompleted, notes[0].TopicStatus)

	f.clock.Advance(10 * time.Minute)
	assert.Never(t, func() bool { return len(f.updater.Recorded()) > 1 },
		100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_StaleCompletionIsDiscarded(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	release := make(chan struct{})
	f.updater.UpdateTopicStatusFn = func(ctx context.Context, topicID int64, status domain.TopicStatus) error {
		if topicID != 5 {
			return nil
		}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{eligibleNote(1, 5, 1, "Recursion")}))
	f.clock.Advance(time.Minute)
	assert.Equal(t, int64(5), f.waitCall(t).TopicID)

	// While the update is in flight the note moves to another topic
	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{eligibleNote(1, 7, 1, "Trees")}))
	close(release)

	f.waitLog(t, "discarding completion for a note that was replaced")

	notes, err := f.s.Notes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.TopicStatusPending, notes[0].TopicStatus)
	assert.Empty(t, f.notifier.All())
	assert.Empty(t, f.events.ofType(events.TypeTopicCompleted))

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(7), pending[0].TopicID)
	assert.Equal(t, TaskStatusScheduled, pending[0].Status)
}

func TestScheduler_StopCancelsEverything(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.s.Reconcile(ctx, []domain.Note{eligibleNote(1, 5, 1, "Recursion")}))

	f.s.Stop()
	f.s.Stop() // idempotent

	f.clock.Advance(time.Hour)
	f.expectNoCall(t)

	assert.ErrorIs(t, f.s.Reconcile(ctx, nil), ErrStopped)
	_, err := f.s.Notes(ctx)
	assert.ErrorIs(t, err, ErrStopped)
	_, err = f.s.Schedule(ctx, eligibleNote(2, 6, 1, "Graphs"))
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, f.s.Start(), ErrStopped)
}

func TestScheduler_StopAbortsInFlightUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.updater.UpdateTopicStatusFn = func(ctx context.Context, topicID int64, status domain.TopicStatus) error {
		<-ctx.Done()
		return ctx.Err()
	}

	require.NoError(t, f.s.Reconcile(context.Background(), []domain.Note{eligibleNote(1, 5, 1, "Recursion")}))
	f.clock.Advance(time.Minute)
	f.waitCall(t)

	stopped := make(chan struct{})
	go func() {
		f.s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(waitTimeout):
		t.Fatal("Stop did not return while an update was in flight")
	}
	assert.Empty(t, f.notifier.All())
}

func TestScheduler_ScheduleAndCancelAll(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	scheduled, err := f.s.Schedule(ctx, eligibleNote(1, 5, 1, "Recursion"))
	require.NoError(t, err)
	assert.True(t, scheduled)

	scheduled, err = f.s.Schedule(ctx, domain.Note{ID: 2, TopicTitle: "No timer"})
	require.NoError(t, err)
	assert.False(t, scheduled)

	f.clock.Advance(30 * time.Second)

	// Scheduling the same note again starts over
	scheduled, err = f.s.Schedule(ctx, eligibleNote(1, 5, 2, "Recursion"))
	require.NoError(t, err)
	assert.True(t, scheduled)

	pending, err := f.s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.start.Add(30*time.Second+2*time.Minute), pending[0].DueAt)

	notes, err := f.s.Notes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	require.NoError(t, f.s.CancelAll(ctx))

	pending, err = f.s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	notes, err = f.s.Notes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 2, "CancelAll keeps the tracked notes")

	f.clock.Advance(time.Hour)
	f.expectNoCall(t)
}

func TestScheduler_EmitsTopicCompletedEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	require.NoError(t, f.s.Reconcile(context.Background(), []domain.Note{eligibleNote(1, 5, 1, "Recursion")}))
	f.clock.Advance(time.Minute)
	f.waitNotification(t)

	require.Eventually(t, func() bool {
		return len(f.events.ofType(events.TypeTopicCompleted)) == 1
	}, waitTimeout, 5*time.Millisecond)

	var payload events.TopicCompletedPayload
	require.NoError(t, f.events.ofType(events.TypeTopicCompleted)[0].UnmarshalPayload(&payload))
	assert.Equal(t, events.TopicCompletedPayload{NoteID: 1, TopicID: 5, TopicTitle: "Recursion"}, payload)
}

func TestScheduler_MinuteDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t, WithConfig(SchedulerConfig{MinuteDuration: time.Second}))

	require.NoError(t, f.s.Reconcile(context.Background(), []domain.Note{eligibleNote(1, 5, 3, "Recursion")}))

	f.clock.Advance(3 * time.Second)
	assert.Equal(t, int64(5), f.waitCall(t).TopicID)
}

func TestScheduler_NotStarted(t *testing.T) {
	t.Parallel()

	s := New(mocks.NewMockTopicUpdater())
	defer s.Stop()

	assert.ErrorIs(t, s.Reconcile(context.Background(), nil), ErrNotStarted)
	_, err := s.Pending(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestDefaultSchedulerConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Minute, DefaultSchedulerConfig().MinuteDuration)

	s := New(mocks.NewMockTopicUpdater(), WithConfig(SchedulerConfig{}))
	assert.Equal(t, time.Minute, s.config.MinuteDuration, "zero minute length falls back to default")
}
