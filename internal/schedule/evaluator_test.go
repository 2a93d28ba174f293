package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

var testPolicy = Policy{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: 30 * time.Minute}

func newTask(id uint64, priority task.Priority, reminders ...*task.Reminder) *task.Task {
	return &task.Task{
		ID:        id,
		Title:     "task",
		Priority:  priority,
		Status:    task.StatusPending,
		Reminders: reminders,
	}
}

func TestDueReminders_PendingTrigger(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tasks := []*task.Task{newTask(1, task.PriorityMedium,
		&task.Reminder{ID: 1, TriggerAt: now.Add(-time.Minute), Kind: task.KindEmail, State: task.DeliveryPending},
		&task.Reminder{ID: 2, TriggerAt: now, Kind: task.KindEmail, State: task.DeliveryPending},
		&task.Reminder{ID: 3, TriggerAt: now.Add(time.Second), Kind: task.KindEmail, State: task.DeliveryPending},
	)}

	due := DueReminders(tasks, now, testPolicy)

	require.Len(t, due, 2)
	assert.EqualValues(t, 1, due[0].Reminder.ID)
	assert.EqualValues(t, 2, due[1].Reminder.ID)
}

func TestDueReminders_InactiveTasksExcluded(t *testing.T) {
	now := time.Now()
	overdue := &task.Reminder{ID: 1, TriggerAt: now.Add(-time.Hour), Kind: task.KindEmail, State: task.DeliveryPending}

	for _, status := range []task.Status{task.StatusCompleted, task.StatusCancelled} {
		tk := newTask(1, task.PriorityCritical, overdue)
		tk.Status = status
		assert.Empty(t, DueReminders([]*task.Task{tk}, now, testPolicy), "status=%s", status)
	}
}

func TestDueReminders_DeliveredNeverReturned(t *testing.T) {
	now := time.Now()
	tasks := []*task.Task{newTask(1, task.PriorityMedium,
		&task.Reminder{ID: 1, TriggerAt: now.Add(-time.Hour), Kind: task.KindEmail, State: task.Delivered},
	)}
	assert.Empty(t, DueReminders(tasks, now, testPolicy))
}

func TestDueReminders_FailedRespectsBackoff(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Attempts=2 -> next retry at last attempt + 2m.
	r := &task.Reminder{
		ID:          1,
		TriggerAt:   now.Add(-time.Hour),
		Kind:        task.KindEmail,
		State:       task.DeliveryFailed,
		Attempts:    2,
		LastAttempt: now.Add(-time.Minute),
	}
	tasks := []*task.Task{newTask(1, task.PriorityMedium, r)}

	assert.Empty(t, DueReminders(tasks, now, testPolicy))

	r.LastAttempt = now.Add(-2 * time.Minute)
	assert.Len(t, DueReminders(tasks, now, testPolicy), 1)
}

func TestDueReminders_ExhaustedNeverReturned(t *testing.T) {
	now := time.Now()
	tasks := []*task.Task{newTask(1, task.PriorityMedium,
		&task.Reminder{
			ID:          1,
			TriggerAt:   now.Add(-24 * time.Hour),
			Kind:        task.KindEmail,
			State:       task.DeliveryFailed,
			Attempts:    testPolicy.MaxAttempts,
			LastAttempt: now.Add(-23 * time.Hour),
		},
	)}
	assert.Empty(t, DueReminders(tasks, now, testPolicy))
}

func TestDueReminders_Ordering(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	early := now.Add(-2 * time.Hour)
	late := now.Add(-time.Hour)

	tasks := []*task.Task{
		newTask(4, task.PriorityLow,
			&task.Reminder{ID: 1, TriggerAt: late, Kind: task.KindEmail, State: task.DeliveryPending}),
		newTask(3, task.PriorityLow,
			&task.Reminder{ID: 1, TriggerAt: late, Kind: task.KindEmail, State: task.DeliveryPending}),
		newTask(2, task.PriorityCritical,
			&task.Reminder{ID: 1, TriggerAt: late, Kind: task.KindEmail, State: task.DeliveryPending}),
		newTask(1, task.PriorityLow,
			&task.Reminder{ID: 1, TriggerAt: early, Kind: task.KindEmail, State: task.DeliveryPending}),
	}

	due := DueReminders(tasks, now, testPolicy)
	require.Len(t, due, 4)

	// Earliest trigger first regardless of priority.
	assert.EqualValues(t, 1, due[0].Task.ID)
	// Equal triggers: critical beats low.
	assert.EqualValues(t, 2, due[1].Task.ID)
	// Remaining tie broken by task id.
	assert.EqualValues(t, 3, due[2].Task.ID)
	assert.EqualValues(t, 4, due[3].Task.ID)
}

func TestDueReminders_DeterministicAcrossRuns(t *testing.T) {
	now := time.Now()
	tasks := []*task.Task{
		newTask(2, task.PriorityHigh,
			&task.Reminder{ID: 1, TriggerAt: now.Add(-time.Minute), Kind: task.KindEmail, State: task.DeliveryPending}),
		newTask(1, task.PriorityHigh,
			&task.Reminder{ID: 1, TriggerAt: now.Add(-time.Minute), Kind: task.KindEmail, State: task.DeliveryPending}),
	}

	first := DueReminders(tasks, now, testPolicy)
	for i := 0; i < 10; i++ {
		again := DueReminders(tasks, now, testPolicy)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Task.ID, again[j].Task.ID)
		}
	}
}
