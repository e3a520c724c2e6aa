package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/events"
	"github.com/phrazzld/scry-notes/internal/notify"
	"github.com/phrazzld/scry-notes/internal/redact"
)

// Common errors returned by the Scheduler
var (
	ErrNotStarted = errors.New("reading scheduler is not started")
	ErrStopped    = errors.New("reading scheduler is stopped")
)

// SchedulerConfig holds configuration for the reading scheduler
type SchedulerConfig struct {
	// MinuteDuration is the wall-clock length of one reading minute.
	// If zero, defaults to time.Minute
	MinuteDuration time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MinuteDuration: time.Minute,
	}
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithNotifier sets where completion notifications go.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithEmitter sets the emitter for topic.completed and notes.reconciled events.
// Handlers run on the scheduler goroutine and must not call back into the
// Scheduler.
func WithEmitter(e events.EventEmitter) Option {
	return func(s *Scheduler) { s.emitter = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithConfig sets the scheduler configuration.
func WithConfig(cfg SchedulerConfig) Option {
	return func(s *Scheduler) { s.config = cfg }
}

// Scheduler keeps one reading timer per eligible note of the tracked note
// list and marks the note's topic completed when its timer fires.
type Scheduler struct {
	updater  TopicUpdater
	clock    clockwork.Clock
	notifier notify.Notifier
	emitter  events.EventEmitter
	logger   *slog.Logger
	config   SchedulerConfig

	cmds     chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	inFlight sync.WaitGroup
	started  atomic.Bool
	stopOnce sync.Once

	// Owned by the loop goroutine
	notes   []domain.Note
	tasks   map[int64]*scheduledTask
	seq     uint64
	stopped bool
}

// scheduledTask is one armed (or fired) reading timer. seq identifies the
// task; a continuation only applies its result while the task is still the
// one registered for its note.
type scheduledTask struct {
	seq     uint64
	noteID  int64
	topicID int64
	minutes float64
	delay   time.Duration
	dueAt   time.Time
	timer   clockwork.Timer
	status  TaskStatus
}

// New creates a Scheduler that marks topics completed through updater.
// Call Start before using it and Stop to tear it down.
func New(updater TopicUpdater, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		updater:  updater,
		clock:    clockwork.NewRealClock(),
		notifier: notify.Discard{},
		logger:   slog.Default(),
		config:   DefaultSchedulerConfig(),
		cmds:     make(chan func()),
		ctx:      ctx,
		cancel:   cancel,
		loopDone: make(chan struct{}),
		tasks:    make(map[int64]*scheduledTask),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Apply default minute length if not specified
	if s.config.MinuteDuration <= 0 {
		s.config.MinuteDuration = time.Minute
	}
	s.logger = s.logger.With("component", "reading_scheduler")

	return s
}

// Start launches the scheduler goroutine.
func (s *Scheduler) Start() error {
	if s.ctx.Err() != nil {
		return ErrStopped
	}
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	go s.loop()

	s.logger.Debug("reading scheduler started",
		"minute_duration", s.config.MinuteDuration)
	return nil
}

// Stop cancels every task, aborts in-flight topic updates and waits for all
// scheduler goroutines to exit. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.started.Load() {
			_ = s.call(context.Background(), func() error {
				s.stopped = true
				s.cancelAll("scheduler stopped")
				return nil
			})
		}

		s.cancel()
		if s.started.Load() {
			<-s.loopDone
		}
		s.inFlight.Wait()

		s.logger.Debug("reading scheduler stopped")
	})
}

// Reconcile replaces the tracked note list. Tasks of notes that vanished,
// became ineligible, or changed topic or reading time are cancelled first;
// then every eligible note without a surviving task gets a fresh task with
// its full reading duration. Tasks of unchanged notes are kept as they are.
func (s *Scheduler) Reconcile(ctx context.Context, notes []domain.Note) error {
	snapshot := make([]domain.Note, len(notes))
	for i, n := range notes {
		snapshot[i] = n.Clone()
	}

	return s.call(ctx, func() error {
		return s.reconcile(snapshot)
	})
}

// Schedule adds or replaces a single note in the tracked list and restarts
// its task. It reports whether a task was scheduled, which is false for
// ineligible notes.
func (s *Scheduler) Schedule(ctx context.Context, note domain.Note) (bool, error) {
	n := note.Clone()
	var scheduled bool

	err := s.call(ctx, func() error {
		if s.stopped {
			return ErrStopped
		}

		s.upsertNote(n)
		if _, ok := s.tasks[n.ID]; ok {
			s.cancelTask(n.ID, "rescheduled")
		}
		if n.Eligible() {
			s.scheduleTask(n)
			scheduled = true
		}
		return nil
	})

	return scheduled, err
}

// CancelAll cancels every task. The tracked notes are kept.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.cancelAll("cancel all")
		return nil
	})
}

// Notes returns a copy of the tracked notes, including mirrored topic statuses.
func (s *Scheduler) Notes(ctx context.Context) ([]domain.Note, error) {
	var out []domain.Note

	err := s.call(ctx, func() error {
		out = make([]domain.Note, len(s.notes))
		for i, n := range s.notes {
			out[i] = n.Clone()
		}
		return nil
	})

	return out, err
}

// Pending returns the tracked tasks ordered by due time.
func (s *Scheduler) Pending(ctx context.Context) ([]PendingTask, error) {
	var out []PendingTask

	err := s.call(ctx, func() error {
		out = make([]PendingTask, 0, len(s.tasks))
		for _, t := range s.tasks {
			out = append(out, PendingTask{
				NoteID:  t.noteID,
				TopicID: t.topicID,
				Delay:   t.delay,
				DueAt:   t.dueAt,
				Status:  t.status,
			})
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].NoteID < out[j].NoteID
	})

	return out, err
}

// loop runs every closure delivered to the scheduler until it is stopped.
func (s *Scheduler) loop() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.cmds:
			fn()
		}
	}
}

// call runs fn on the scheduler goroutine and waits for it to return.
func (s *Scheduler) call(ctx context.Context, fn func() error) error {
	if !s.started.Load() {
		return ErrNotStarted
	}

	var err error
	done := make(chan struct{})

	select {
	case s.cmds <- func() {
		defer close(done)
		err = fn()
	}:
	case <-s.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return err
}

// post hands fn to the scheduler goroutine without waiting. It is dropped
// once the scheduler is stopped.
func (s *Scheduler) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) reconcile(notes []domain.Note) error {
	if s.stopped {
		return ErrStopped
	}

	tracked := make([]domain.Note, 0, len(notes))
	desired := make(map[int64]domain.Note, len(notes))
	seen := make(map[int64]struct{}, len(notes))

	for _, n := range notes {
		if _, dup := seen[n.ID]; dup {
			s.logger.Warn("ignoring duplicate note in list", "note_id", n.ID)
			continue
		}
		seen[n.ID] = struct{}{}
		tracked = append(tracked, n)
		if n.Eligible() {
			desired[n.ID] = n
		}
	}

	// Cancel before scheduling anything new
	cancelled := 0
	for id, t := range s.tasks {
		if n, ok := desired[id]; ok && t.matches(n) {
			continue
		}
		s.cancelTask(id, "note changed or removed")
		cancelled++
	}

	scheduled := 0
	for _, n := range tracked {
		if _, ok := desired[n.ID]; !ok {
			continue
		}
		if _, kept := s.tasks[n.ID]; kept {
			continue
		}
		s.scheduleTask(n)
		scheduled++
	}

	// A refetch can race with our own completion; keep what we already know.
	for i := range tracked {
		if t, ok := s.tasks[tracked[i].ID]; ok && t.status == TaskStatusCompleted {
			tracked[i].TopicStatus = domain.TopicStatusCompleted
		}
	}
	s.notes = tracked

	s.logger.Debug("reconciled note list",
		"note_count", len(tracked),
		"scheduled", scheduled,
		"cancelled", cancelled,
		"live_tasks", len(s.tasks))

	s.emit(events.TypeNotesReconciled, events.NotesReconciledPayload{
		NoteCount: len(tracked),
		Scheduled: scheduled,
		Cancelled: cancelled,
	})

	return nil
}

// matches reports whether n would produce exactly this task.
func (t *scheduledTask) matches(n domain.Note) bool {
	return n.TopicID != nil && n.ReadingTimeMinutes != nil &&
		*n.TopicID == t.topicID && *n.ReadingTimeMinutes == t.minutes
}

func (s *Scheduler) scheduleTask(n domain.Note) {
	s.seq++
	t := &scheduledTask{
		seq:     s.seq,
		noteID:  n.ID,
		topicID: *n.TopicID,
		minutes: *n.ReadingTimeMinutes,
		delay:   n.ReadingDuration(s.config.MinuteDuration),
		status:  TaskStatusScheduled,
	}
	if t.delay == domain.MaxReadingDuration {
		s.logger.Warn("reading time too long, clamping timer",
			"note_id", t.noteID,
			"reading_time_minutes", t.minutes,
			"delay", t.delay)
	}
	t.dueAt = s.clock.Now().Add(t.delay)
	t.timer = s.clock.AfterFunc(t.delay, func() {
		s.post(func() { s.fire(t) })
	})
	s.tasks[n.ID] = t

	s.logger.Debug("scheduled reading timer",
		"note_id", t.noteID,
		"topic_id", t.topicID,
		"task_seq", t.seq,
		"delay", t.delay)
}

func (s *Scheduler) cancelTask(noteID int64, reason string) {
	t, ok := s.tasks[noteID]
	if !ok {
		return
	}

	t.timer.Stop()
	delete(s.tasks, noteID)

	s.logger.Debug("cancelled reading timer",
		"note_id", noteID,
		"task_seq", t.seq,
		"task_status", t.status,
		"reason", reason)
}

func (s *Scheduler) cancelAll(reason string) {
	for id := range s.tasks {
		s.cancelTask(id, reason)
	}
}

// isCurrent reports whether t is still the task registered for its note.
func (s *Scheduler) isCurrent(t *scheduledTask) bool {
	cur, ok := s.tasks[t.noteID]
	return ok && cur.seq == t.seq
}

// fire runs when a task's timer elapsed.
func (s *Scheduler) fire(t *scheduledTask) {
	if !s.isCurrent(t) || t.status != TaskStatusScheduled {
		s.logger.Debug("skipping stale reading timer", "note_id", t.noteID, "task_seq", t.seq)
		return
	}

	t.status = TaskStatusProcessing
	title := s.noteTitle(t.noteID)

	s.logger.Info("reading time elapsed, marking topic completed",
		"note_id", t.noteID,
		"topic_id", t.topicID,
		"task_seq", t.seq)

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		err := s.updater.UpdateTopicStatus(s.ctx, t.topicID, domain.TopicStatusCompleted)
		s.post(func() { s.finish(t, title, err) })
	}()
}

// finish applies the outcome of a topic update on the scheduler goroutine.
func (s *Scheduler) finish(t *scheduledTask, title string, err error) {
	log := s.logger.With("note_id", t.noteID, "topic_id", t.topicID, "task_seq", t.seq)
	current := s.isCurrent(t)

	if err != nil {
		// Completion failures are logged only; the note keeps its status.
		log.Error("failed to mark topic as completed", "error", redact.Error(err))
		if current {
			t.status = TaskStatusFailed
		}
		return
	}

	if !current {
		log.Debug("discarding completion for a note that was replaced")
		return
	}

	t.status = TaskStatusCompleted
	s.markTopicCompleted(t.noteID)

	s.notifier.Success(s.ctx, fmt.Sprintf("Topic %q marked as completed", title))
	s.emit(events.TypeTopicCompleted, events.TopicCompletedPayload{
		NoteID:     t.noteID,
		TopicID:    t.topicID,
		TopicTitle: title,
	})

	log.Info("topic marked completed")
}

func (s *Scheduler) markTopicCompleted(noteID int64) {
	for i := range s.notes {
		if s.notes[i].ID == noteID {
			s.notes[i].TopicStatus = domain.TopicStatusCompleted
			return
		}
	}
}

func (s *Scheduler) noteTitle(noteID int64) string {
	for _, n := range s.notes {
		if n.ID == noteID {
			return n.Title()
		}
	}
	return fmt.Sprintf("note %d", noteID)
}

func (s *Scheduler) upsertNote(n domain.Note) {
	for i := range s.notes {
		if s.notes[i].ID == n.ID {
			s.notes[i] = n
			return
		}
	}
	s.notes = append(s.notes, n)
}

func (s *Scheduler) emit(eventType string, payload interface{}) {
	if s.emitter == nil {
		return
	}

	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		s.logger.Error("failed to build event", "event_type", eventType, "error", err)
		return
	}

	if err := s.emitter.EmitEvent(s.ctx, event); err != nil {
		s.logger.Warn("event handler failed", "event_type", eventType, "error", err)
	}
}
