package server

// CreateTodoRequest is the JSON body for POST /todos.
type CreateTodoRequest struct {
	Text        string `json:"text" binding:"required,min=1,max=500"`
	IsCompleted bool   `json:"isCompleted"`
}

// UpdateTodoRequest is the JSON body for PATCH /todos/:id. Nil = leave as is.
type UpdateTodoRequest struct {
	Text        *string `json:"text" binding:"omitempty,min=1,max=500"`
	IsCompleted *bool   `json:"isCompleted"`
}
