package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/idilsaglam/todomvc/internal/model"
	"github.com/idilsaglam/todomvc/internal/state"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type update struct {
	id    int64
	patch model.Patch
}

// fakeActions records every call and applies it through the real reducer.
type fakeActions struct {
	mu      sync.Mutex
	st      state.State
	nextID  int64
	addErr  error
	adds    []model.NewTodo
	updates []update
	removed []int64
	filters []string
}

func newFakeActions(todos ...model.Todo) *fakeActions {
	st := state.Initial()
	st.Todos = append(st.Todos, todos...)
	return &fakeActions{st: st, nextID: int64(len(todos))}
}

func (f *fakeActions) State() state.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st.Clone()
}

func (f *fakeActions) AddTodo(ctx context.Context, p model.NewTodo) (model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, p)
	if f.addErr != nil {
		return model.Todo{}, f.addErr
	}
	f.nextID++
	t := model.Todo{ID: f.nextID, Text: p.Text, IsCompleted: p.IsCompleted}
	next, err := state.Reduce(f.st, state.AddTodoAction{Todo: t})
	if err != nil {
		return model.Todo{}, err
	}
	f.st = next
	return t, nil
}

func (f *fakeActions) UpdateTodo(id int64, patch model.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update{id, patch})
	return f.reduce(state.UpdateTodoAction{ID: id, Patch: patch})
}

func (f *fakeActions) RemoveTodo(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	_ = f.reduce(state.RemoveTodoAction{ID: id})
}

func (f *fakeActions) ChangeFilter(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, name)
	fl, err := model.ParseFilter(name)
	if err != nil {
		return err
	}
	return f.reduce(state.ChangeFilterAction{Filter: fl})
}

func (f *fakeActions) reduce(a state.Action) error {
	next, err := state.Reduce(f.st, a)
	if err != nil {
		return err
	}
	f.st = next
	return nil
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = send(t, m, keyMsg(k))
	}
	return m, cmd
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func seeded() *fakeActions {
	return newFakeActions(
		model.Todo{ID: 1, Text: "First todo"},
		model.Todo{ID: 2, Text: "Second todo"},
	)
}

func TestHeaderShowsTitleAndPlaceholder(t *testing.T) {
	view := New(context.Background(), newFakeActions()).View()
	if !strings.Contains(view, "todos") {
		t.Errorf("header missing title:\n%s", view)
	}
	if !strings.Contains(view, Placeholder) {
		t.Errorf("input missing placeholder %q:\n%s", Placeholder, view)
	}
}

func TestAddSubmitsAndClearsInput(t *testing.T) {
	fa := newFakeActions()
	m := New(context.Background(), fa)

	m, _ = press(t, m, "a", "New Todo")
	if got := m.input.Value(); got != "New Todo" {
		t.Fatalf("input = %q", got)
	}
	m, cmd := press(t, m, "enter")
	if m.input.Value() != "" {
		t.Fatalf("input should clear on submit, got %q", m.input.Value())
	}
	if cmd == nil {
		t.Fatal("submit should start an add")
	}
	if m.pending != 1 {
		t.Fatalf("pending = %d", m.pending)
	}

	msg := cmd()
	if _, ok := msg.(todoAddedMsg); !ok {
		t.Fatalf("cmd returned %T", msg)
	}
	m, _ = send(t, m, msg)

	if len(fa.adds) != 1 || fa.adds[0] != (model.NewTodo{Text: "New Todo"}) {
		t.Fatalf("adds = %+v", fa.adds)
	}
	if m.pending != 0 || len(m.list.Items()) != 1 {
		t.Fatalf("pending = %d, items = %d", m.pending, len(m.list.Items()))
	}
	if !strings.Contains(m.View(), "New Todo") {
		t.Fatalf("view should list the new todo:\n%s", m.View())
	}
}

func TestAddBlankDoesNothing(t *testing.T) {
	fa := newFakeActions()
	m, _ := press(t, New(context.Background(), fa), "a", "   ")
	_, cmd := press(t, m, "enter")
	if cmd != nil || len(fa.adds) != 0 {
		t.Fatalf("blank submit should not call AddTodo, adds = %+v", fa.adds)
	}
}

func TestAddFailureShowsStatus(t *testing.T) {
	fa := newFakeActions()
	fa.addErr = errors.New("gateway down")
	m, _ := press(t, New(context.Background(), fa), "a", "x")
	m, cmd := press(t, m, "enter")
	m, _ = send(t, m, cmd())

	if len(m.st.Todos) != 0 {
		t.Fatalf("failed add must not append, got %+v", m.st.Todos)
	}
	if !m.statusErr || !strings.Contains(m.View(), "gateway down") {
		t.Fatalf("status should show the failure:\n%s", m.View())
	}
}

func TestTypingQInAddModeDoesNotQuit(t *testing.T) {
	m, _ := press(t, New(context.Background(), newFakeActions()), "a", "q")
	if m.mode != modeAdd || m.input.Value() != "q" {
		t.Fatalf("mode = %v, input = %q", m.mode, m.input.Value())
	}
	m, _ = press(t, m, "esc")
	if m.mode != modeBrowse || m.input.Value() != "" {
		t.Fatalf("esc should leave add mode, mode = %v", m.mode)
	}
}

func TestQuit(t *testing.T) {
	_, cmd := press(t, New(context.Background(), newFakeActions()), "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
}

func TestToggleCompletesSelectedTodo(t *testing.T) {
	fa := seeded()
	m, _ := press(t, New(context.Background(), fa), " ")

	if len(fa.updates) != 1 || fa.updates[0].id != 1 {
		t.Fatalf("updates = %+v", fa.updates)
	}
	p := fa.updates[0].patch
	if p.Text != nil || p.IsCompleted == nil || !*p.IsCompleted {
		t.Fatalf("toggle patch = %s", p)
	}
	if todo, _ := m.st.Find(1); !todo.IsCompleted {
		t.Fatal("view state should show the todo completed")
	}
}

func TestEditSubmitsTextAndCompletion(t *testing.T) {
	fa := seeded()
	m, _ := press(t, New(context.Background(), fa), "e")
	if m.mode != modeEdit || m.input.Value() != "First todo" {
		t.Fatalf("mode = %v, input = %q", m.mode, m.input.Value())
	}
	m.input.SetValue("New Text")
	m, _ = press(t, m, "enter")

	if len(fa.updates) != 1 {
		t.Fatalf("updates = %+v", fa.updates)
	}
	got := fa.updates[0]
	if got.id != 1 || got.patch.Text == nil || *got.patch.Text != "New Text" ||
		got.patch.IsCompleted == nil || *got.patch.IsCompleted {
		t.Fatalf("edit sent %d %s", got.id, got.patch)
	}
	if m.mode != modeBrowse {
		t.Fatal("edit should end after submit")
	}
	if todo, _ := m.st.Find(1); todo.Text != "New Text" {
		t.Fatalf("todo = %+v", todo)
	}
}

func TestEditRejectsBlankText(t *testing.T) {
	fa := seeded()
	m, _ := press(t, New(context.Background(), fa), "e")
	m.input.SetValue("  ")
	m, _ = press(t, m, "enter")

	if m.mode != modeEdit || !m.statusErr {
		t.Fatalf("blank edit should stay in edit mode with an error, mode = %v", m.mode)
	}
	if todo, _ := m.st.Find(1); todo.Text != "First todo" {
		t.Fatalf("todo changed to %+v", todo)
	}
}

func TestDeleteRemovesSelectedTodo(t *testing.T) {
	fa := seeded()
	m, _ := press(t, New(context.Background(), fa), "j", "d")
	if len(fa.removed) != 1 {
		t.Fatalf("removed = %v", fa.removed)
	}
	if len(m.st.Todos) != 1 || len(m.list.Items()) != 1 {
		t.Fatalf("todos = %+v", m.st.Todos)
	}
}

func TestFilterKeys(t *testing.T) {
	fa := newFakeActions(
		model.Todo{ID: 1, Text: "open"},
		model.Todo{ID: 2, Text: "done", IsCompleted: true},
	)
	m := New(context.Background(), fa)

	m, _ = press(t, m, "2")
	if m.st.Filter != model.FilterActive || len(m.list.Items()) != 1 {
		t.Fatalf("filter = %s, items = %d", m.st.Filter, len(m.list.Items()))
	}
	m, _ = press(t, m, "tab")
	if m.st.Filter != model.FilterCompleted {
		t.Fatalf("tab should move to completed, got %s", m.st.Filter)
	}
	m, _ = press(t, m, "1")
	if m.st.Filter != model.FilterAll || len(m.list.Items()) != 2 {
		t.Fatalf("filter = %s, items = %d", m.st.Filter, len(m.list.Items()))
	}
	want := []string{"active", "completed", "all"}
	if strings.Join(fa.filters, ",") != strings.Join(want, ",") {
		t.Fatalf("filters = %v", fa.filters)
	}
}

func TestStateChangedMsgRefreshes(t *testing.T) {
	fa := newFakeActions()
	m := New(context.Background(), fa)
	if _, err := fa.AddTodo(context.Background(), model.NewTodo{Text: "from elsewhere"}); err != nil {
		t.Fatal(err)
	}
	m, _ = send(t, m, stateChangedMsg{})
	if len(m.list.Items()) != 1 {
		t.Fatalf("items = %d", len(m.list.Items()))
	}
}
