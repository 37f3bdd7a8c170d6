package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todomvc/internal/model"
	"github.com/idilsaglam/todomvc/internal/state"
)

// Placeholder is shown in the empty add input.
const Placeholder = "What needs to be done?"

// Actions is what the view needs from the store. *state.Store satisfies it.
type Actions interface {
	State() state.State
	AddTodo(ctx context.Context, payload model.NewTodo) (model.Todo, error)
	UpdateTodo(id int64, patch model.Patch) error
	RemoveTodo(id int64)
	ChangeFilter(name string) error
}

type subscriber interface {
	Subscribe(fn func(state.State)) (cancel func())
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// todoItem adapts a model.Todo to bubbles/list.Item.
type todoItem struct{ model.Todo }

func (i todoItem) FilterValue() string { return i.Text }

// Single line per todo.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}
	t := Current()
	box, text := t.Muted.Render(t.BoxUnchecked), it.Text
	if it.IsCompleted {
		box, text = t.Success.Render(t.BoxChecked), t.Done.Render(it.Text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+box+" "+text)
}

type (
	todoAddedMsg struct{ todo model.Todo }
	addFailedMsg struct {
		text string
		err  error
	}
	// stateChangedMsg asks the model to re-read the store.
	stateChangedMsg struct{}
)

type keyMap struct {
	Add, Toggle, Edit, Delete key.Binding
	NextFilter, ShowFilter    key.Binding
	Quit                      key.Binding
	Submit, Cancel            key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		NextFilter: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next filter")),
		ShowFilter: key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "filter")),
		Quit:       key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

// Model is the interactive todo list.
type Model struct {
	ctx     context.Context
	actions Actions
	st      state.State

	keys  keyMap
	list  list.Model
	input textinput.Model
	help  help.Model

	mode    mode
	editID  int64
	pending int

	status    string
	statusErr bool
}

// New builds the view over actions. ctx bounds the adds it starts.
func New(ctx context.Context, actions Actions) Model {
	l := list.New(nil, itemDelegate{}, 76, 15)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	l.DisableQuitKeybindings()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = Placeholder
	ti.CharLimit = 500
	ti.Width = 60

	m := Model{
		ctx:     ctx,
		actions: actions,
		keys:    defaultKeys(),
		list:    l,
		input:   ti,
		help:    help.New(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case todoAddedMsg:
		m.pending--
		m.setStatus(fmt.Sprintf("added %q", msg.todo.Text), false)
		m.refresh()
		return m, nil

	case addFailedMsg:
		m.pending--
		m.setStatus(fmt.Sprintf("could not add %q: %v", msg.text, msg.err), true)
		return m, nil

	case stateChangedMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	if m.mode != modeBrowse {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Reset()
		m.input.Prompt = "> "
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			m.apply(m.actions.UpdateTodo(t.ID, model.SetCompleted(!t.IsCompleted)))
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeEdit
		m.editID = t.ID
		m.input.Prompt = "edit> "
		m.input.SetValue(t.Text)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.actions.RemoveTodo(t.ID)
			m.apply(nil)
		}
		return m, nil

	case key.Matches(msg, m.keys.NextFilter):
		m.apply(m.actions.ChangeFilter(string(m.st.Filter.Next())))
		return m, nil

	case key.Matches(msg, m.keys.ShowFilter):
		f := model.Filters[msg.String()[0]-'1']
		m.apply(m.actions.ChangeFilter(string(f)))
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if m.mode == modeAdd {
			m.input.Reset()
			if text == "" {
				return m, nil
			}
			m.pending++
			return m, m.addTodo(text)
		}
		return m.submitEdit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// addTodo runs the gateway round trip off the event loop.
func (m Model) addTodo(text string) tea.Cmd {
	actions, ctx := m.actions, m.ctx
	return func() tea.Msg {
		todo, err := actions.AddTodo(ctx, model.NewTodo{Text: text})
		if err != nil {
			return addFailedMsg{text: text, err: err}
		}
		return todoAddedMsg{todo: todo}
	}
}

// submitEdit sends the full {text, isCompleted} pair of the edited todo.
func (m Model) submitEdit(text string) (tea.Model, tea.Cmd) {
	t, ok := m.st.Find(m.editID)
	if !ok {
		m.leaveInput()
		m.refresh()
		return m, nil
	}
	done := t.IsCompleted
	if err := m.actions.UpdateTodo(t.ID, model.Patch{Text: &text, IsCompleted: &done}); err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.leaveInput()
	m.setStatus("", false)
	m.refresh()
	return m, nil
}

func (m *Model) leaveInput() {
	m.mode = modeBrowse
	m.editID = 0
	m.input.Reset()
	m.input.Prompt = "> "
	m.input.Blur()
}

func (m *Model) apply(err error) {
	if err != nil {
		m.setStatus(err.Error(), true)
	}
	m.refresh()
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	return it.Todo, ok
}

// refresh re-reads the store and rebuilds the visible list.
func (m *Model) refresh() {
	m.st = m.actions.State()
	visible := m.st.Visible()
	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = todoItem{t}
	}
	m.list.SetItems(items)
	if n := len(items); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
}

// header, input, footer, status, help and the border take nine rows.
func (m *Model) resize(w, h int) {
	m.list.SetSize(max(w-4, 20), max(h-9, 3))
	m.input.Width = max(w-12, 20)
	m.help.Width = max(w-4, 20)
}

func (m Model) View() string {
	t := Current()
	lines := []string{t.Title.Render("todos"), m.input.View()}

	switch {
	case len(m.st.Todos) == 0:
		lines = append(lines, t.Muted.Render("Nothing to do yet. Press a to add one."))
	case len(m.list.Items()) == 0:
		lines = append(lines, t.Muted.Render(fmt.Sprintf("No %s todos.", m.st.Filter)))
	default:
		lines = append(lines, m.list.View())
	}

	if footer := Footer(m.st); footer != "" {
		lines = append(lines, footer)
	}
	if m.pending > 0 {
		lines = append(lines, t.Muted.Render(fmt.Sprintf("saving %d…", m.pending)))
	}
	if m.status != "" {
		style := t.Muted
		if m.statusErr {
			style = t.Error
		}
		lines = append(lines, style.Render(m.status))
	}
	lines = append(lines, m.help.View(m.helpKeys()))
	return PanelString(lines)
}

func (m Model) helpKeys() bindings {
	if m.mode != modeBrowse {
		return bindings{m.keys.Submit, m.keys.Cancel}
	}
	return bindings{m.keys.Add, m.keys.Toggle, m.keys.Edit, m.keys.Delete, m.keys.NextFilter, m.keys.ShowFilter, m.keys.Quit}
}

// Run starts the TUI on the alternate screen and blocks until it quits.
func Run(ctx context.Context, actions Actions) error {
	p := tea.NewProgram(New(ctx, actions), tea.WithAltScreen(), tea.WithContext(ctx))
	if s, ok := actions.(subscriber); ok {
		// Subscribers fire inside Update, so Send must not block the loop.
		cancel := s.Subscribe(func(state.State) { go p.Send(stateChangedMsg{}) })
		defer cancel()
	}
	_, err := p.Run()
	return err
}
