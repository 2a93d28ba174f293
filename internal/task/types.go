package task

import (
	"time"
)

// Priority orders tasks from least to most urgent.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns the sort weight of a priority. Higher means more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return -1
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() >= 0
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Channel is a concrete delivery mechanism.
type Channel string

const (
	ChannelEmail        Channel = "email"
	ChannelSMS          Channel = "sms"
	ChannelNotification Channel = "notification"
)

// Kind selects which channels a reminder is delivered on. Both and All are
// composite kinds that fan out to multiple channels.
type Kind string

const (
	KindEmail        Kind = "email"
	KindNotification Kind = "notification"
	KindSMS          Kind = "sms"
	// KindBoth delivers by email and desktop notification.
	KindBoth Kind = "both"
	// KindAll delivers by email, SMS and desktop notification.
	KindAll Kind = "all"
)

// Channels expands a kind into the concrete channels it requires.
func (k Kind) Channels() []Channel {
	switch k {
	case KindEmail:
		return []Channel{ChannelEmail}
	case KindNotification:
		return []Channel{ChannelNotification}
	case KindSMS:
		return []Channel{ChannelSMS}
	case KindBoth:
		return []Channel{ChannelEmail, ChannelNotification}
	case KindAll:
		return []Channel{ChannelEmail, ChannelSMS, ChannelNotification}
	default:
		return nil
	}
}

// Valid reports whether k is a known reminder kind.
func (k Kind) Valid() bool {
	return len(k.Channels()) > 0
}

// DeliveryState tracks a reminder through the retry state machine.
type DeliveryState string

const (
	// DeliveryPending means the reminder has never been dispatched.
	DeliveryPending DeliveryState = "pending"
	// Delivered is terminal: every required channel succeeded.
	Delivered DeliveryState = "delivered"
	// DeliveryFailed means at least one required channel has not succeeded.
	// It is terminal once Attempts reaches the configured maximum.
	DeliveryFailed DeliveryState = "failed"
)

// Reminder belongs to exactly one task and is owned by it. The scheduler
// mutates delivery state; the user mutates trigger time and kind.
type Reminder struct {
	// ID is unique within the owning task.
	ID uint64 `json:"id"`

	// TriggerAt is when the reminder becomes due.
	TriggerAt time.Time `json:"trigger_at"`

	// Kind selects the delivery channel(s).
	Kind Kind `json:"kind"`

	// State is the current delivery state.
	State DeliveryState `json:"state"`

	// Attempts counts dispatch attempts. Never decreases and never
	// exceeds the configured maximum.
	Attempts int `json:"attempts"`

	// LastAttempt is the wall-clock time of the most recent dispatch.
	// Zero when the reminder has never been attempted.
	LastAttempt time.Time `json:"last_attempt,omitzero"`

	// LastError names the channel(s) that failed on the most recent
	// attempt. Set only while State is failed.
	LastError string `json:"last_error,omitempty"`

	// Delivered records channels that already succeeded, so a retry of
	// a partially delivered composite reminder skips them.
	Delivered []Channel `json:"delivered,omitempty"`
}

// PendingChannels returns the channels still required for this reminder,
// excluding those that already succeeded on an earlier attempt.
func (r *Reminder) PendingChannels() []Channel {
	required := r.Kind.Channels()
	if len(r.Delivered) == 0 {
		return required
	}
	done := make(map[Channel]bool, len(r.Delivered))
	for _, c := range r.Delivered {
		done[c] = true
	}
	pending := make([]Channel, 0, len(required))
	for _, c := range required {
		if !done[c] {
			pending = append(pending, c)
		}
	}
	return pending
}

// ChannelDelivered reports whether ch already succeeded for this reminder.
func (r *Reminder) ChannelDelivered(ch Channel) bool {
	for _, c := range r.Delivered {
		if c == ch {
			return true
		}
	}
	return false
}

// Reset clears delivery progress so the reminder is dispatched again from
// scratch. Used when the user manually retries an exhausted reminder.
func (r *Reminder) Reset() {
	r.State = DeliveryPending
	r.Attempts = 0
	r.LastAttempt = time.Time{}
	r.LastError = ""
	r.Delivered = nil
}

// Clone returns a deep copy of the reminder.
func (r *Reminder) Clone() *Reminder {
	cp := *r
	if r.Delivered != nil {
		cp.Delivered = append([]Channel(nil), r.Delivered...)
	}
	return &cp
}

// Task is a unit of work with an optional due date and owned reminders.
type Task struct {
	// ID is unique within the store and immutable once assigned.
	ID uint64 `json:"id"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`

	// DueAt is the optional due timestamp.
	DueAt *time.Time `json:"due_at,omitempty"`

	Tags []string `json:"tags,omitempty"`

	// Reminders are exclusively owned by this task.
	Reminders []*Reminder `json:"reminders,omitempty"`

	// NextReminderID is the next per-task reminder id to allocate.
	NextReminderID uint64 `json:"next_reminder_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the task is still eligible for reminder
// evaluation. Completed and cancelled tasks never are.
func (t *Task) Active() bool {
	return t.Status != StatusCompleted && t.Status != StatusCancelled
}

// Reminder returns the reminder with the given id, or nil.
func (t *Task) Reminder(id uint64) *Reminder {
	for _, r := range t.Reminders {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Clone returns a deep copy of the task, including its reminders.
func (t *Task) Clone() *Task {
	cp := *t
	if t.DueAt != nil {
		due := *t.DueAt
		cp.DueAt = &due
	}
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	if t.Reminders != nil {
		cp.Reminders = make([]*Reminder, len(t.Reminders))
		for i, r := range t.Reminders {
			cp.Reminders[i] = r.Clone()
		}
	}
	return &cp
}
