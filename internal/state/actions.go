package state

import "github.com/idilsaglam/todomvc/internal/model"

// Action is any value the reducer knows how to apply.
type Action interface{}

// AddTodoAction appends a todo already confirmed by the gateway.
type AddTodoAction struct {
	Todo model.Todo
}

type UpdateTodoAction struct {
	ID    int64
	Patch model.Patch
}

type RemoveTodoAction struct {
	ID int64
}

type ChangeFilterAction struct {
	Filter model.Filter
}

// LoadTodosAction replaces the list with one fetched from the gateway.
type LoadTodosAction struct {
	Todos []model.Todo
}
