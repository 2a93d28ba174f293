package store

import (
	"context"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

// Persistence loads and saves the whole task set. Load failure is fatal
// at startup; save failure is logged by the caller and retried on the
// next scheduler cycle, with the in-memory state remaining the source of
// truth until a save succeeds.
type Persistence interface {
	Load(ctx context.Context) ([]*task.Task, uint64, error)
	Save(ctx context.Context, tasks []*task.Task, nextID uint64) error
}

// document is the persisted layout: the task collection with embedded
// reminders plus the id allocator. Field names are stable across
// versions.
type document struct {
	Tasks  []*task.Task `json:"tasks"`
	NextID uint64       `json:"next_id"`
}
