package server

import (
	"context"
	"errors"
	"strings"

	"github.com/idilsaglam/todomvc/internal/model"
)

var ErrNotFound = errors.New("not found")

type TodoService struct {
	repo TodoRepo
}

func NewTodoService(r TodoRepo) *TodoService {
	return &TodoService{repo: r}
}

func (s *TodoService) Create(ctx context.Context, text string, done bool) (model.Todo, error) {
	payload, err := model.NewTodo{Text: text, IsCompleted: done}.Normalize()
	if err != nil {
		return model.Todo{}, err
	}
	return s.repo.Create(ctx, payload)
}

func (s *TodoService) List(ctx context.Context) ([]model.Todo, error) {
	return s.repo.List(ctx)
}

func (s *TodoService) GetByID(ctx context.Context, id int64) (model.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Todo{}, notFound(err)
	}
	return t, nil
}

func (s *TodoService) Update(ctx context.Context, id int64, text *string, done *bool) (model.Todo, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Todo{}, notFound(err)
	}
	var patch model.Patch
	if text != nil {
		trimmed := strings.TrimSpace(*text)
		patch.Text = &trimmed
	}
	patch.IsCompleted = done
	if err := patch.Validate(); err != nil {
		return model.Todo{}, err
	}
	t, err := s.repo.Update(ctx, patch.Apply(existing))
	if err != nil {
		return model.Todo{}, notFound(err)
	}
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	return notFound(s.repo.Delete(ctx, id))
}

func notFound(err error) error {
	if errors.Is(err, errNoRows) {
		return ErrNotFound
	}
	return err
}
