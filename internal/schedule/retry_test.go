package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

func TestApply_AllChannelsSucceed(t *testing.T) {
	now := time.Now()
	r := &task.Reminder{Kind: task.KindEmail, State: task.DeliveryPending}

	testPolicy.Apply(r, []task.ChannelOutcome{{Channel: task.ChannelEmail}}, now)

	assert.Equal(t, task.Delivered, r.State)
	assert.Equal(t, 1, r.Attempts)
	assert.True(t, r.LastAttempt.Equal(now))
	assert.Empty(t, r.LastError)
}

func TestApply_FailureRecordsError(t *testing.T) {
	now := time.Now()
	r := &task.Reminder{Kind: task.KindEmail, State: task.DeliveryPending}

	testPolicy.Apply(r, []task.ChannelOutcome{
		{Channel: task.ChannelEmail, Err: errors.New("connection refused")},
	}, now)

	assert.Equal(t, task.DeliveryFailed, r.State)
	assert.Equal(t, 1, r.Attempts)
	assert.Contains(t, r.LastError, "email")
	assert.Contains(t, r.LastError, "connection refused")
}

func TestApply_PartialSuccessIsFailedOverall(t *testing.T) {
	now := time.Now()
	r := &task.Reminder{Kind: task.KindBoth, State: task.DeliveryPending}

	testPolicy.Apply(r, []task.ChannelOutcome{
		{Channel: task.ChannelEmail},
		{Channel: task.ChannelNotification, Err: errors.New("no notifier")},
	}, now)

	assert.Equal(t, task.DeliveryFailed, r.State)
	// The error names only the failed channel.
	assert.Contains(t, r.LastError, "notification")
	assert.NotContains(t, r.LastError, "email:")
	// The successful channel is remembered for the retry.
	assert.True(t, r.ChannelDelivered(task.ChannelEmail))
	assert.Equal(t, []task.Channel{task.ChannelNotification}, r.PendingChannels())
}

func TestApply_RetryCompletesPartialDelivery(t *testing.T) {
	now := time.Now()
	r := &task.Reminder{
		Kind:      task.KindBoth,
		State:     task.DeliveryFailed,
		Attempts:  1,
		Delivered: []task.Channel{task.ChannelEmail},
		LastError: "notification: no notifier",
	}

	testPolicy.Apply(r, []task.ChannelOutcome{{Channel: task.ChannelNotification}}, now)

	assert.Equal(t, task.Delivered, r.State)
	assert.Equal(t, 2, r.Attempts)
	assert.Empty(t, r.LastError)
}

func TestApply_DeliveredIsNoOp(t *testing.T) {
	r := &task.Reminder{Kind: task.KindEmail, State: task.Delivered, Attempts: 1}

	testPolicy.Apply(r, []task.ChannelOutcome{
		{Channel: task.ChannelEmail, Err: errors.New("should be ignored")},
	}, time.Now())

	assert.Equal(t, task.Delivered, r.State)
	assert.Equal(t, 1, r.Attempts)
	assert.Empty(t, r.LastError)
}

func TestApply_AttemptsNeverExceedMax(t *testing.T) {
	r := &task.Reminder{Kind: task.KindEmail, State: task.DeliveryPending}
	fail := []task.ChannelOutcome{{Channel: task.ChannelEmail, Err: errors.New("down")}}

	prev := 0
	for i := 0; i < testPolicy.MaxAttempts+5; i++ {
		testPolicy.Apply(r, fail, time.Now())
		assert.GreaterOrEqual(t, r.Attempts, prev, "attempt count must be non-decreasing")
		assert.LessOrEqual(t, r.Attempts, testPolicy.MaxAttempts)
		prev = r.Attempts
	}

	assert.Equal(t, task.DeliveryFailed, r.State)
	assert.True(t, testPolicy.Exhausted(r))
}

func TestApply_DuplicateSuccessNotDoubleRecorded(t *testing.T) {
	r := &task.Reminder{Kind: task.KindBoth, Delivered: []task.Channel{task.ChannelEmail}}

	testPolicy.Apply(r, []task.ChannelOutcome{
		{Channel: task.ChannelEmail},
		{Channel: task.ChannelNotification, Err: errors.New("x")},
	}, time.Now())

	count := 0
	for _, c := range r.Delivered {
		if c == task.ChannelEmail {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
