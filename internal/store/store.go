package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/schedule"
	"github.com/fyrsmithlabs/taskd/internal/task"
)

// Store is the single shared mutable resource: an in-memory task map
// mutated by the foreground CLI and the background scheduler. Every
// method acquires the store mutex for its full duration and releases it
// on all exit paths; no external call is ever made while holding it.
type Store struct {
	mu          sync.Mutex
	tasks       map[uint64]*task.Task
	nextID      uint64
	dirty       bool
	gen         uint64
	persistence Persistence
	clock       schedule.Clock
	policy      schedule.Policy
	logger      *zap.Logger
}

// Open loads the task set from the persistence backend. A load failure
// is fatal; a backend reporting an empty set starts fresh.
func Open(ctx context.Context, p Persistence, clock schedule.Clock, policy schedule.Policy, logger *zap.Logger) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("persistence backend is required")
	}
	if clock == nil {
		clock = schedule.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tasks, nextID, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	if nextID == 0 {
		nextID = 1
	}

	m := make(map[uint64]*task.Task, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
		if t.ID >= nextID {
			nextID = t.ID + 1
		}
	}

	logger.Info("loaded task set", zap.Int("tasks", len(m)))

	return &Store{
		tasks:       m,
		nextID:      nextID,
		persistence: p,
		clock:       clock,
		policy:      policy,
		logger:      logger,
	}, nil
}

// CreateRequest holds the user-supplied fields for a new task.
type CreateRequest struct {
	Title       string
	Description string
	Priority    task.Priority
	DueAt       *time.Time
	Tags        []string
}

// CreateTask validates the request, allocates the next id and inserts
// the task. The id is immutable once assigned.
func (s *Store) CreateTask(req *CreateRequest) (uint64, error) {
	if req.Title == "" {
		return 0, task.ErrEmptyTitle
	}
	priority := req.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}
	if !priority.Valid() {
		return 0, fmt.Errorf("%w: %q", task.ErrInvalidPriority, req.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	t := &task.Task{
		ID:             id,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       priority,
		Status:         task.StatusPending,
		DueAt:          req.DueAt,
		Tags:           req.Tags,
		NextReminderID: 1,
		CreatedAt:      s.clock.Now(),
	}
	s.tasks[id] = t
	s.markDirty()

	return id, nil
}

// GetTask returns a deep copy of the task with the given id.
func (s *Store) GetTask(id uint64) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, task.ErrTaskNotFound)
	}
	return t.Clone(), nil
}

// ListTasks returns deep copies of every task, ordered by id. A zero
// status filter returns all tasks.
func (s *Store) ListTasks(filter task.Status) []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter != "" && t.Status != filter {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateRequest holds optional task field edits; nil fields are left
// untouched.
type UpdateRequest struct {
	Title       *string
	Description *string
	Priority    *task.Priority
	DueAt       *time.Time
	Tags        []string
}

// UpdateTask applies the non-nil fields of req to the task.
func (s *Store) UpdateTask(id uint64, req *UpdateRequest) error {
	if req.Title != nil && *req.Title == "" {
		return task.ErrEmptyTitle
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return fmt.Errorf("%w: %q", task.ErrInvalidPriority, *req.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, task.ErrTaskNotFound)
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueAt != nil {
		due := *req.DueAt
		t.DueAt = &due
	}
	if req.Tags != nil {
		t.Tags = append([]string(nil), req.Tags...)
	}
	s.markDirty()

	return nil
}

// UpdateStatus transitions the task's lifecycle state. Completing or
// cancelling a task removes its reminders from future evaluation without
// touching their recorded delivery state.
func (s *Store) UpdateStatus(id uint64, status task.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", task.ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, task.ErrTaskNotFound)
	}
	t.Status = status
	s.markDirty()

	return nil
}

// DeleteTask removes the task and the reminders it owns. Tasks are
// removed only by explicit deletion, never by the scheduler.
func (s *Store) DeleteTask(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, task.ErrTaskNotFound)
	}
	delete(s.tasks, id)
	s.markDirty()

	return nil
}

// AddReminder attaches a reminder to the task and returns its id. A
// trigger time in the past is rejected unless allowPast is set.
func (s *Store) AddReminder(taskID uint64, at time.Time, kind task.Kind, allowPast bool) (uint64, error) {
	if at.IsZero() {
		return 0, task.ErrZeroTrigger
	}
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", task.ErrInvalidKind, kind)
	}
	if !allowPast && at.Before(s.clock.Now()) {
		return 0, task.ErrTriggerInPast
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return 0, fmt.Errorf("task %d: %w", taskID, task.ErrTaskNotFound)
	}

	id := t.NextReminderID
	t.NextReminderID++
	t.Reminders = append(t.Reminders, &task.Reminder{
		ID:        id,
		TriggerAt: at,
		Kind:      kind,
		State:     task.DeliveryPending,
	})
	s.markDirty()

	return id, nil
}

// RemoveReminder detaches a reminder from its task.
func (s *Store) RemoveReminder(taskID, reminderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %d: %w", taskID, task.ErrTaskNotFound)
	}
	for i, r := range t.Reminders {
		if r.ID == reminderID {
			t.Reminders = append(t.Reminders[:i], t.Reminders[i+1:]...)
			s.markDirty()
			return nil
		}
	}
	return fmt.Errorf("reminder %d on task %d: %w", reminderID, taskID, task.ErrReminderNotFound)
}

// ResetReminder clears a reminder's attempt count and error so a failed
// or exhausted reminder is dispatched again.
func (s *Store) ResetReminder(taskID, reminderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %d: %w", taskID, task.ErrTaskNotFound)
	}
	r := t.Reminder(reminderID)
	if r == nil {
		return fmt.Errorf("reminder %d on task %d: %w", reminderID, taskID, task.ErrReminderNotFound)
	}
	r.Reset()
	s.markDirty()

	return nil
}

// ListDue snapshots every currently due reminder under the lock and
// returns deep copies, so the caller can dispatch without holding it.
// Ordering follows the evaluator: trigger time ascending, priority
// descending, task id ascending.
func (s *Store) ListDue(now time.Time) []schedule.Due {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}

	due := schedule.DueReminders(tasks, now, s.policy)
	out := make([]schedule.Due, len(due))
	for i, d := range due {
		out[i] = schedule.Due{Task: d.Task.Clone(), Reminder: d.Reminder.Clone()}
	}
	return out
}

// RecordDeliveryResult folds one dispatch cycle's outcomes into the
// reminder's state. An in-flight dispatch for a task cancelled mid-cycle
// is still recorded here; the evaluator keeps the task out of future
// cycles.
func (s *Store) RecordDeliveryResult(taskID, reminderID uint64, outcomes []task.ChannelOutcome, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %d: %w", taskID, task.ErrTaskNotFound)
	}
	r := t.Reminder(reminderID)
	if r == nil {
		return fmt.Errorf("reminder %d on task %d: %w", reminderID, taskID, task.ErrReminderNotFound)
	}

	s.policy.Apply(r, outcomes, now)
	s.markDirty()

	if s.policy.Exhausted(r) {
		s.logger.Warn("reminder retries exhausted",
			zap.Uint64("task_id", taskID),
			zap.Uint64("reminder_id", reminderID),
			zap.Int("attempts", r.Attempts),
			zap.String("last_error", r.LastError),
			zap.Error(task.ErrRetryExhausted),
		)
	}

	return nil
}

// Exhausted returns copies of every reminder that permanently failed,
// paired with its task, so the UI can flag them for manual retry.
func (s *Store) Exhausted() []schedule.Due {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schedule.Due
	for _, t := range s.tasks {
		for _, r := range t.Reminders {
			if s.policy.Exhausted(r) {
				out = append(out, schedule.Due{Task: t.Clone(), Reminder: r.Clone()})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Task.ID != out[j].Task.ID {
			return out[i].Task.ID < out[j].Task.ID
		}
		return out[i].Reminder.ID < out[j].Reminder.ID
	})
	return out
}

// Policy returns the retry policy the store evaluates with.
func (s *Store) Policy() schedule.Policy {
	return s.policy
}

// markDirty schedules a persistence write-back. Callers hold s.mu.
func (s *Store) markDirty() {
	s.dirty = true
	s.gen++
}

// Dirty reports whether there are unsaved mutations.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush saves the task set if there are unsaved mutations. On failure
// the dirty flag is kept so the next cycle retries; in-memory state
// remains the source of truth.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	tasks := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	nextID := s.nextID
	gen := s.gen
	s.mu.Unlock()

	// Save outside the lock; the snapshot above is consistent.
	if err := s.persistence.Save(ctx, tasks, nextID); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}

	s.mu.Lock()
	// Mutations that landed during the save stay dirty.
	if s.gen == gen {
		s.dirty = false
	}
	s.mu.Unlock()

	return nil
}
