package task

import "errors"

// Lookup errors.
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrReminderNotFound = errors.New("reminder not found")
)

// Validation errors.
var (
	ErrEmptyTitle      = errors.New("title is required")
	ErrInvalidPriority = errors.New("unknown priority")
	ErrInvalidStatus   = errors.New("unknown status")
	ErrInvalidKind     = errors.New("unknown reminder kind")
	ErrZeroTrigger     = errors.New("trigger time is required")
	ErrTriggerInPast   = errors.New("trigger time is in the past")
)

// Retry errors.
var (
	// ErrRetryExhausted marks a reminder that reached the maximum attempt
	// count with its last attempt failing. Informational, never fatal.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)
