package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

// FilePersistence stores the task set as a JSON document on disk. Writes
// go through a temp file and an atomic rename so a crash mid-save never
// corrupts the task file.
type FilePersistence struct {
	path string
}

// NewFilePersistence creates a file backend for the given path. The
// parent directory is created on first save.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path}
}

// Load reads the task document. A missing file is a fresh start, not an
// error.
func (f *FilePersistence) Load(_ context.Context) ([]*task.Task, uint64, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read task file %s: %w", f.path, err)
	}
	if len(content) == 0 {
		return nil, 0, nil
	}

	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to parse task file %s: %w", f.path, err)
	}
	return doc.Tasks, doc.NextID, nil
}

// Save writes the task document atomically with 0600 permissions.
func (f *FilePersistence) Save(_ context.Context, tasks []*task.Task, nextID uint64) error {
	content, err := json.MarshalIndent(document{Tasks: tasks, NextID: nextID}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize tasks: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".taskd-tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0600); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace task file: %w", err)
	}
	return nil
}
