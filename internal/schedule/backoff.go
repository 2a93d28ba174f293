package schedule

import (
	"time"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

// Policy bounds the retry state machine.
type Policy struct {
	// MaxAttempts caps dispatch attempts per reminder.
	MaxAttempts int

	// BaseDelay is the delay after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
}

// DefaultPolicy returns the retry bounds used when config is silent.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Minute,
		MaxDelay:    30 * time.Minute,
	}
}

// Delay returns the backoff delay after the given number of attempts:
// base × 2^(attempts-1), capped at MaxDelay. No jitter; the scheduler's
// poll interval smooths dispatch across reminders.
func (p Policy) Delay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	shift := uint(attempts - 1)
	// Past 62 doublings the shift alone overflows a Duration.
	if shift > 62 {
		return p.MaxDelay
	}
	d := p.BaseDelay << shift
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// NextRetry returns the earliest time a failed reminder may be retried.
func (p Policy) NextRetry(r *task.Reminder) time.Time {
	return r.LastAttempt.Add(p.Delay(r.Attempts))
}

// Exhausted reports whether the reminder has used all attempts without
// being delivered.
func (p Policy) Exhausted(r *task.Reminder) bool {
	return r.State == task.DeliveryFailed && r.Attempts >= p.MaxAttempts
}
