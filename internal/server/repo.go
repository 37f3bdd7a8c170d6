package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/idilsaglam/todomvc/internal/model"
	"github.com/idilsaglam/todomvc/internal/store/jsonstore"
)

var errNoRows = errors.New("no rows")

type TodoRepo interface {
	Create(ctx context.Context, t model.NewTodo) (model.Todo, error)
	GetByID(ctx context.Context, id int64) (model.Todo, error)
	List(ctx context.Context) ([]model.Todo, error)
	Update(ctx context.Context, t model.Todo) (model.Todo, error)
	Delete(ctx context.Context, id int64) error
}

// MemoryRepo keeps todos in insertion order and hands out increasing ids.
// With a path it snapshots to a JSON file after every write.
type MemoryRepo struct {
	mu     sync.RWMutex
	todos  []model.Todo
	nextID int64
	path   string
}

// NewMemoryRepo returns an empty repo, or one restored from path if set.
func NewMemoryRepo(path string) (*MemoryRepo, error) {
	r := &MemoryRepo{todos: []model.Todo{}, nextID: 1, path: path}
	if path == "" {
		return r, nil
	}
	snap, err := jsonstore.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	r.todos = snap.Todos
	r.nextID = snap.NextID
	return r, nil
}

func (r *MemoryRepo) Create(ctx context.Context, t model.NewTodo) (model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := model.Todo{ID: r.nextID, Text: t.Text, IsCompleted: t.IsCompleted}
	r.todos = append(r.todos, out)
	r.nextID++
	if err := r.persistLocked(); err != nil {
		r.todos = r.todos[:len(r.todos)-1]
		r.nextID--
		return model.Todo{}, err
	}
	return out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.todos {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Todo{}, errNoRows
}

func (r *MemoryRepo) List(ctx context.Context) ([]model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Todo, len(r.todos))
	copy(out, r.todos)
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, t model.Todo) (model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.todos {
		if r.todos[i].ID == t.ID {
			prev := r.todos[i]
			r.todos[i] = t
			if err := r.persistLocked(); err != nil {
				r.todos[i] = prev
				return model.Todo{}, err
			}
			return t, nil
		}
	}
	return model.Todo{}, errNoRows
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.todos {
		if r.todos[i].ID == id {
			prev := r.todos
			r.todos = append(append(make([]model.Todo, 0, len(prev)-1), prev[:i]...), prev[i+1:]...)
			if err := r.persistLocked(); err != nil {
				r.todos = prev
				return err
			}
			return nil
		}
	}
	return errNoRows
}

func (r *MemoryRepo) persistLocked() error {
	if r.path == "" {
		return nil
	}
	if err := jsonstore.Save(r.path, jsonstore.Snapshot{NextID: r.nextID, Todos: r.todos}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
