package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/idilsaglam/todomvc/internal/auth"
	"github.com/idilsaglam/todomvc/internal/config"
	"github.com/idilsaglam/todomvc/internal/gateway"
	"github.com/idilsaglam/todomvc/internal/logging"
	"github.com/idilsaglam/todomvc/internal/model"
	"github.com/idilsaglam/todomvc/internal/state"
	"github.com/idilsaglam/todomvc/internal/ui"
)

// Options carry root flags and the process streams.
type Options struct {
	Filter  string // all | active | completed
	Gateway string // overrides TODO_GATEWAY_URL

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// LogTo receives structured logs for non-interactive commands. Nil discards
	// them unless LOG_FILE is set.
	LogTo *os.File
}

func (o *Options) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

var errUsage = errors.New("usage")

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	opt.defaults()
	if len(args) == 0 {
		PrintHelp(opt.Stderr)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Stdout)
		return 0

	case "ui":
		return doUI(ctx, opt)

	case "ls":
		return doList(ctx, opt)

	case "add":
		if len(a) == 0 {
			ui.Fail(opt.Stderr, "usage: todo add <text...>")
			return 2
		}
		return doAdd(ctx, strings.Join(a, " "), opt)

	case "auth":
		if len(a) == 0 {
			ui.Fail(opt.Stderr, "usage: todo auth <login|logout|status>")
			return 2
		}
		switch a[0] {
		case "login":
			return doAuthLogin(opt)
		case "logout":
			return doAuthLogout(opt)
		case "status":
			return doAuthStatus(opt)
		default:
			ui.Fail(opt.Stderr, "usage: todo auth <login|logout|status>")
			return 2
		}
	}

	ui.Fail(opt.Stderr, "unknown subcommand: "+cmd)
	fmt.Fprintln(opt.Stderr)
	PrintHelp(opt.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - todos kept by a persistence gateway

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  ui                   Interactive list (a add, space toggle, e edit, d delete, tab filter)
  ls                   Print the todos matching --filter
  add <text...>        Create a todo (text can be multiple words)
  auth <login|logout|status>
                       Manage the gateway token

Flags:
  --filter <all|active|completed>
  --gateway <url>      Gateway base URL (env TODO_GATEWAY_URL)
  --theme <classic|neon|mono>
  --color, --no-color  Force or disable colors

Examples:
  todo add "Buy milk"
  todo --filter active ls
  todo ui
`)
}

// session is one store wired to the configured gateway.
type session struct {
	store  *state.Store
	logger *slog.Logger
	close  func() error
}

func openSession(opt Options, logTo *os.File) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opt.Gateway != "" {
		if err := config.ValidateGatewayURL(opt.Gateway); err != nil {
			return nil, fmt.Errorf("%w: --gateway: %v", errUsage, err)
		}
		cfg.Gateway.URL = opt.Gateway
	}

	logger, closeLog, err := logging.New(cfg.Log, logTo)
	if err != nil {
		return nil, err
	}

	var token string
	ti, err := auth.GetToken(cfg.Gateway.Token)
	if err != nil {
		logger.Warn("ignoring unreadable credentials", "error", err)
	} else if ti != nil {
		if ti.Expired(time.Now()) {
			logger.Warn("saved token has expired", "expires", ti.ExpiresAt)
		}
		token = ti.Token
	}

	client, err := gateway.NewClient(cfg.Gateway.URL,
		gateway.WithToken(token),
		gateway.WithLogger(logger),
	)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	store := state.New(client,
		state.WithLogger(logger),
		state.WithTimeout(cfg.Gateway.Timeout.Duration()),
	)
	if opt.Filter != "" {
		if err := store.ChangeFilter(opt.Filter); err != nil {
			_ = closeLog()
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	logger.Debug("session ready", "gateway", client.BaseURL(), "authenticated", token != "")
	return &session{store: store, logger: logger, close: closeLog}, nil
}

// fail prints err and maps it to an exit code.
func fail(w io.Writer, what string, err error) int {
	ui.Fail(w, what+": "+err.Error())
	switch {
	case errors.Is(err, errUsage), errors.Is(err, model.ErrEmptyText):
		return 2
	case gateway.IsUnauthorized(err):
		fmt.Fprintln(w, ui.Current().Muted.Render("Hint: set TODO_TOKEN or run `todo auth login`"))
	case isTemporary(err):
		fmt.Fprintln(w, ui.Current().Muted.Render("Hint: the gateway is unavailable right now, retry in a moment"))
	}
	return 1
}

func isTemporary(err error) bool {
	var se *gateway.StatusError
	return errors.As(err, &se) && se.Temporary()
}

// -------------- subcommand impls ----------------

func doUI(ctx context.Context, opt Options) int {
	// Bubble Tea owns the terminal, so logs only go to LOG_FILE.
	s, err := openSession(opt, nil)
	if err != nil {
		return fail(opt.Stderr, "ui", err)
	}
	defer s.close()

	if err := s.store.Load(ctx); err != nil {
		return fail(opt.Stderr, "load", err)
	}
	if err := ui.Run(ctx, s.store); err != nil {
		return fail(opt.Stderr, "tui", err)
	}
	return 0
}

func doList(ctx context.Context, opt Options) int {
	s, err := openSession(opt, opt.LogTo)
	if err != nil {
		return fail(opt.Stderr, "ls", err)
	}
	defer s.close()

	if err := s.store.Load(ctx); err != nil {
		return fail(opt.Stderr, "load", err)
	}
	ui.Panel(opt.Stdout, listLines(s.store.State()))
	return 0
}

func doAdd(ctx context.Context, text string, opt Options) int {
	s, err := openSession(opt, opt.LogTo)
	if err != nil {
		return fail(opt.Stderr, "add", err)
	}
	defer s.close()

	todo, err := s.store.AddTodo(ctx, model.NewTodo{Text: text})
	if err != nil {
		return fail(opt.Stderr, "add", err)
	}
	ui.OK(opt.Stdout, fmt.Sprintf("added #%d %s", todo.ID, todo.Text))
	return 0
}

// -------------- auth ----------------

func doAuthLogin(opt Options) int {
	fmt.Fprint(opt.Stdout, "Paste your token: ")
	sc := bufio.NewScanner(opt.Stdin)
	if !sc.Scan() {
		err := sc.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		ui.Fail(opt.Stderr, "read token: "+err.Error())
		return 1
	}
	fmt.Fprintln(opt.Stdout)
	if err := auth.SetToken(sc.Text(), nil); err != nil {
		ui.Fail(opt.Stderr, "save token: "+err.Error())
		return 1
	}
	ui.OK(opt.Stdout, "logged in")
	return 0
}

// currentToken resolves the token the way every other command does:
// TODO_TOKEN through the config, then the credentials file.
func currentToken() (*auth.TokenInfo, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return auth.GetToken(cfg.Gateway.Token)
}

func doAuthLogout(opt Options) int {
	ti, err := currentToken()
	if err != nil {
		return fail(opt.Stderr, "logout", err)
	}
	if ti != nil && ti.Source == auth.SourceEnv {
		ui.OK(opt.Stdout, "token is provided by TODO_TOKEN env var (nothing to delete)")
		return 0
	}
	if err := auth.DeleteToken(); err != nil {
		ui.Fail(opt.Stderr, "logout: "+err.Error())
		return 1
	}
	ui.OK(opt.Stdout, "logged out")
	return 0
}

func doAuthStatus(opt Options) int {
	ti, err := currentToken()
	if err != nil {
		return fail(opt.Stderr, "status", err)
	}
	if ti == nil {
		fmt.Fprintln(opt.Stdout, ui.Current().Muted.Render("not logged in"))
		fmt.Fprintln(opt.Stdout, "Run: todo auth login")
		return 0
	}
	fmt.Fprintf(opt.Stdout, "source: %s\n", ti.Source)
	switch {
	case ti.ExpiresAt == nil:
		fmt.Fprintln(opt.Stdout, "expires: (unknown)")
	case ti.Expired(time.Now()):
		fmt.Fprintf(opt.Stdout, "expires: %s (expired)\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(opt.Stdout, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if p, err := auth.CredentialsPath(); err == nil && ti.Source == auth.SourceFile {
		fmt.Fprintf(opt.Stdout, "file: %s\n", p)
	}
	fmt.Fprintln(opt.Stdout, "env override: TODO_TOKEN")
	return 0
}

// -------------- rendering helpers --------------

func listLines(st state.State) []string {
	t := ui.Current()
	done, total := st.Completed(), len(st.Todos)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), st.ItemsLeft(),
		t.Accent.Render("Total"), total,
	)

	lines := []string{header, t.Muted.Render(ui.ProgressBar(done, total, 28)), ""}
	visible := st.Visible()
	switch {
	case total == 0:
		lines = append(lines, t.Muted.Render("no todos"))
	case len(visible) == 0:
		lines = append(lines, t.Muted.Render(fmt.Sprintf("no %s todos", st.Filter)))
	}
	for _, todo := range visible {
		lines = append(lines, todoLine(todo))
	}
	if footer := ui.Footer(st); footer != "" {
		lines = append(lines, "", footer)
	}
	return lines
}

func todoLine(todo model.Todo) string {
	t := ui.Current()
	text := todo.Text
	if len(text) > 80 {
		text = text[:77] + "..."
	}
	box := t.Muted.Render(t.BoxUnchecked)
	if todo.IsCompleted {
		box, text = t.Success.Render(t.BoxChecked), t.Done.Render(text)
	}
	return fmt.Sprintf("%s %s %s", t.Muted.Render(fmt.Sprintf("#%-3d", todo.ID)), box, text)
}
