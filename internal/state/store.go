package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/idilsaglam/todomvc/internal/model"
)

var (
	// ErrGateway wraps every failure of the persistence gateway.
	ErrGateway   = errors.New("gateway failure")
	ErrNoGateway = errors.New("store has no gateway")
)

// Gateway persists new todos and assigns their ids.
type Gateway interface {
	CreateTodo(ctx context.Context, payload model.NewTodo) (model.Todo, error)
	ListTodos(ctx context.Context) ([]model.Todo, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds every gateway call. Zero means no extra bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithState seeds the store, mainly for tests and views restored from elsewhere.
func WithState(st State) Option {
	return func(s *Store) { s.state = st.Clone() }
}

// Store owns the state and serializes transitions. Build one per session and
// hand it to whatever renders it.
type Store struct {
	gw      Gateway
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	state State

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// New returns a store in the initial state. gw may be nil, in which case
// AddTodo and Load fail with ErrNoGateway.
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:     gw,
		logger: slog.New(slog.DiscardHandler),
		state:  Initial(),
		subs:   make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot safe to keep and modify.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies a to the current state and notifies subscribers when it
// succeeds.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	next, err := Reduce(s.state, a)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("action rejected", "action", fmt.Sprintf("%T", a), "error", err)
		return err
	}
	s.state = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.logger.Debug("action applied", "action", fmt.Sprintf("%T", a), "todos", len(snapshot.Todos), "filter", snapshot.Filter)
	s.notify(snapshot)
	return nil
}

// Subscribe registers fn to run after every applied transition. The returned
// func removes it.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st.Clone())
	}
}

// AddTodo sends payload to the gateway and appends the record it returns.
// The store lock is not held while the request is in flight, so concurrent
// adds land in completion order. A failed call leaves the state untouched.
func (s *Store) AddTodo(ctx context.Context, payload model.NewTodo) (model.Todo, error) {
	payload, err := payload.Normalize()
	if err != nil {
		return model.Todo{}, err
	}
	if s.gw == nil {
		return model.Todo{}, ErrNoGateway
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	created, err := s.gw.CreateTodo(ctx, payload)
	if err != nil {
		s.logger.Warn("create todo failed", "text", payload.Text, "error", err)
		return model.Todo{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	if err := s.Dispatch(AddTodoAction{Todo: created}); err != nil {
		return model.Todo{}, fmt.Errorf("apply created todo %d: %w", created.ID, err)
	}
	return created, nil
}

// UpdateTodo merges patch into the todo with the given id. Unknown ids are
// ignored; only a patch that blanks the text is an error.
func (s *Store) UpdateTodo(id int64, patch model.Patch) error {
	s.logger.Debug("update todo", "id", id, "patch", patch.String())
	return s.Dispatch(UpdateTodoAction{ID: id, Patch: patch})
}

// RemoveTodo deletes the todo with the given id, if any.
func (s *Store) RemoveTodo(id int64) {
	// Remove cannot be rejected by the reducer.
	_ = s.Dispatch(RemoveTodoAction{ID: id})
}

// ChangeFilter switches the visible subset. Only all, active and completed
// are accepted, in any case.
func (s *Store) ChangeFilter(name string) error {
	return s.Dispatch(ChangeFilterAction{Filter: model.Filter(name)})
}

// Load replaces the todos with the gateway's list.
func (s *Store) Load(ctx context.Context) error {
	if s.gw == nil {
		return ErrNoGateway
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	todos, err := s.gw.ListTodos(ctx)
	if err != nil {
		s.logger.Warn("list todos failed", "error", err)
		return fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return s.Dispatch(LoadTodosAction{Todos: todos})
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}
