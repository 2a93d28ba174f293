package dispatch

import (
	"fmt"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

// DeliveryError is a channel-specific send failure. It always carries the
// channel identity and a human-readable reason.
type DeliveryError struct {
	Channel task.Channel
	Reason  string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %s", e.Channel, e.Reason)
}

func deliveryErr(ch task.Channel, err error) *DeliveryError {
	return &DeliveryError{Channel: ch, Reason: err.Error()}
}
