package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyText is returned when a todo would end up with blank text.
var ErrEmptyText = errors.New("todo text cannot be empty")

// Todo is the domain model for a todo entry.
// The ID is assigned by the gateway; the client never invents one.
type Todo struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
}

// NewTodo is the payload sent to the gateway when creating a todo.
type NewTodo struct {
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
}

// Normalize trims the text and rejects blank payloads.
func (n NewTodo) Normalize() (NewTodo, error) {
	n.Text = strings.TrimSpace(n.Text)
	if n.Text == "" {
		return NewTodo{}, ErrEmptyText
	}
	return n, nil
}

// Patch is a partial update. Nil fields are left as they are.
type Patch struct {
	Text        *string `json:"text,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// Apply returns a copy of t with the patch merged in.
func (p Patch) Apply(t Todo) Todo {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	return t
}

// Validate reports ErrEmptyText when the patch would blank the text.
func (p Patch) Validate() error {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return ErrEmptyText
	}
	return nil
}

// SetText and SetCompleted build single-field patches.
func SetText(text string) Patch { return Patch{Text: &text} }

func SetCompleted(done bool) Patch { return Patch{IsCompleted: &done} }

func (p Patch) String() string {
	var parts []string
	if p.Text != nil {
		parts = append(parts, fmt.Sprintf("text=%q", *p.Text))
	}
	if p.IsCompleted != nil {
		parts = append(parts, fmt.Sprintf("isCompleted=%t", *p.IsCompleted))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
