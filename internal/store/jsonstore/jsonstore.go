package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idilsaglam/todomvc/internal/model"
)

// JSON-backed snapshot of the dev gateway. Single file, human-readable.
// Writes go through a temp file and rename so a crash never leaves half a file.

// Snapshot is the on-disk form.
type Snapshot struct {
	NextID int64        `json:"nextId"`
	Todos  []model.Todo `json:"todos"`
}

// Load reads the snapshot at path. A missing file is an empty snapshot.
func Load(path string) (Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{NextID: 1, Todos: []model.Todo{}}, nil
		}
		return Snapshot{}, fmt.Errorf("read file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if snap.Todos == nil {
		snap.Todos = []model.Todo{}
	}
	// Older files may lack nextId; never hand out an id already in use.
	for _, t := range snap.Todos {
		if t.ID >= snap.NextID {
			snap.NextID = t.ID + 1
		}
	}
	if snap.NextID < 1 {
		snap.NextID = 1
	}
	return snap, nil
}

// Save writes snap to path, creating parent directories as needed.
func Save(path string, snap Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".todos-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
