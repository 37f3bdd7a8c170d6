package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/idilsaglam/todomvc/internal/model"
)

var (
	ErrDuplicateID   = errors.New("duplicate todo id")
	ErrUnknownAction = errors.New("unknown action")
)

// Reduce applies a to s and returns the next state. s is never modified; on
// error the returned state equals s.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case AddTodoAction:
		return reduceAdd(s, a)
	case UpdateTodoAction:
		return reduceUpdate(s, a)
	case RemoveTodoAction:
		return reduceRemove(s, a)
	case ChangeFilterAction:
		f, err := model.ParseFilter(string(a.Filter))
		if err != nil {
			return s, err
		}
		next := s.Clone()
		next.Filter = f
		return next, nil
	case LoadTodosAction:
		return reduceLoad(s, a)
	}
	return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
}

func reduceAdd(s State, a AddTodoAction) (State, error) {
	if strings.TrimSpace(a.Todo.Text) == "" {
		return s, model.ErrEmptyText
	}
	if s.indexOf(a.Todo.ID) >= 0 {
		return s, fmt.Errorf("%w: %d", ErrDuplicateID, a.Todo.ID)
	}
	todos := make([]model.Todo, len(s.Todos), len(s.Todos)+1)
	copy(todos, s.Todos)
	return State{Todos: append(todos, a.Todo), Filter: s.Filter}, nil
}

func reduceUpdate(s State, a UpdateTodoAction) (State, error) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s, nil
	}
	if err := a.Patch.Validate(); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Todos[i] = a.Patch.Apply(next.Todos[i])
	return next, nil
}

func reduceRemove(s State, a RemoveTodoAction) (State, error) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s, nil
	}
	todos := make([]model.Todo, 0, len(s.Todos)-1)
	todos = append(todos, s.Todos[:i]...)
	todos = append(todos, s.Todos[i+1:]...)
	return State{Todos: todos, Filter: s.Filter}, nil
}

func reduceLoad(s State, a LoadTodosAction) (State, error) {
	seen := make(map[int64]struct{}, len(a.Todos))
	todos := make([]model.Todo, 0, len(a.Todos))
	for _, t := range a.Todos {
		if _, dup := seen[t.ID]; dup {
			return s, fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
		todos = append(todos, t)
	}
	return State{Todos: todos, Filter: s.Filter}, nil
}
