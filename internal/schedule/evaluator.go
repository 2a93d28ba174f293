package schedule

import (
	"sort"
	"time"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

// Due pairs a due reminder with its owning task.
type Due struct {
	Task     *task.Task
	Reminder *task.Reminder
}

// DueReminders returns every reminder that should be dispatched at now:
// pending reminders whose trigger time has passed, and failed reminders
// whose backoff window has elapsed with attempts remaining. Reminders on
// completed or cancelled tasks are excluded regardless of trigger time.
//
// Ordering is deterministic: trigger time ascending, then task priority
// descending, then task id ascending.
func DueReminders(tasks []*task.Task, now time.Time, p Policy) []Due {
	var due []Due
	for _, t := range tasks {
		if !t.Active() {
			continue
		}
		for _, r := range t.Reminders {
			if isDue(r, now, p) {
				due = append(due, Due{Task: t, Reminder: r})
			}
		}
	}

	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if !a.Reminder.TriggerAt.Equal(b.Reminder.TriggerAt) {
			return a.Reminder.TriggerAt.Before(b.Reminder.TriggerAt)
		}
		if a.Task.Priority.Rank() != b.Task.Priority.Rank() {
			return a.Task.Priority.Rank() > b.Task.Priority.Rank()
		}
		return a.Task.ID < b.Task.ID
	})

	return due
}

func isDue(r *task.Reminder, now time.Time, p Policy) bool {
	switch r.State {
	case task.DeliveryPending:
		return !r.TriggerAt.After(now)
	case task.DeliveryFailed:
		if r.Attempts >= p.MaxAttempts {
			return false
		}
		return !p.NextRetry(r).After(now)
	default:
		// Delivered is terminal.
		return false
	}
}
