package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

// Apply folds one dispatch cycle's channel outcomes into the reminder's
// state machine:
//
//	pending  --all channels ok-->  delivered (terminal)
//	pending  --any failure----->  failed, attempts+1
//	failed   --all remaining ok->  delivered (terminal)
//	failed   --any failure----->  failed, attempts+1 (terminal at max)
//
// Channels that succeeded are remembered so a later retry of a partially
// delivered composite reminder does not re-send them. Dispatching a
// reminder already in the delivered state is a no-op.
func (p Policy) Apply(r *task.Reminder, outcomes []task.ChannelOutcome, now time.Time) {
	if r.State == task.Delivered {
		return
	}

	if r.Attempts < p.MaxAttempts {
		r.Attempts++
	}
	r.LastAttempt = now

	var failures []string
	for _, o := range outcomes {
		if o.OK() {
			if !r.ChannelDelivered(o.Channel) {
				r.Delivered = append(r.Delivered, o.Channel)
			}
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %v", o.Channel, o.Err))
	}

	if len(r.PendingChannels()) == 0 {
		r.State = task.Delivered
		r.LastError = ""
		return
	}

	r.State = task.DeliveryFailed
	if len(failures) > 0 {
		r.LastError = strings.Join(failures, "; ")
	}
}
