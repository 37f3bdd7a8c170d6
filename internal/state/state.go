package state

import "github.com/idilsaglam/todomvc/internal/model"

// State is the single source of truth for a session.
type State struct {
	Todos  []model.Todo // insertion order is display order
	Filter model.Filter
}

// Initial returns the empty state every session starts from.
func Initial() State {
	return State{Todos: []model.Todo{}, Filter: model.FilterAll}
}

// Clone returns a copy that shares no backing array with s.
func (s State) Clone() State {
	todos := make([]model.Todo, len(s.Todos))
	copy(todos, s.Todos)
	return State{Todos: todos, Filter: s.Filter}
}

// Visible returns the todos matching the current filter, in order.
func (s State) Visible() []model.Todo {
	out := make([]model.Todo, 0, len(s.Todos))
	for _, t := range s.Todos {
		if s.Filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// ItemsLeft counts incomplete todos regardless of the filter.
func (s State) ItemsLeft() int {
	n := 0
	for _, t := range s.Todos {
		if !t.IsCompleted {
			n++
		}
	}
	return n
}

// Completed counts completed todos.
func (s State) Completed() int { return len(s.Todos) - s.ItemsLeft() }

// Find returns the todo with the given id.
func (s State) Find(id int64) (model.Todo, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Todos[i], true
	}
	return model.Todo{}, false
}

func (s State) indexOf(id int64) int {
	for i, t := range s.Todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
