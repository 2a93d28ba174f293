package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

const defaultRedisKey = "taskd:tasks"

// RedisPersistence stores the task document as a JSON value in Redis,
// for running taskd against a shared backend instead of a local file.
type RedisPersistence struct {
	rdb *redis.Client
	key string
}

// NewRedisPersistence creates a Redis backend. The address is in
// "host:port" form; key may be empty to use the default.
func NewRedisPersistence(addr, key string) *RedisPersistence {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisPersistence{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		key: key,
	}
}

// Load fetches and parses the task document. A missing key is a fresh
// start.
func (r *RedisPersistence) Load(ctx context.Context) ([]*task.Task, uint64, error) {
	content, err := r.rdb.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read tasks from redis: %w", err)
	}

	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to parse tasks from redis: %w", err)
	}
	return doc.Tasks, doc.NextID, nil
}

// Save serializes and writes the task document.
func (r *RedisPersistence) Save(ctx context.Context, tasks []*task.Task, nextID uint64) error {
	content, err := json.Marshal(document{Tasks: tasks, NextID: nextID})
	if err != nil {
		return fmt.Errorf("failed to serialize tasks: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, content, 0).Err(); err != nil {
		return fmt.Errorf("failed to write tasks to redis: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisPersistence) Close() error {
	return r.rdb.Close()
}
