package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/idilsaglam/todomvc/internal/cli"
	"github.com/idilsaglam/todomvc/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand)
	var (
		filter, gateway, theme string
		color, noColor         bool
	)
	flags := pflag.NewFlagSet("todo", pflag.ContinueOnError)
	flags.StringVarP(&filter, "filter", "f", "", "show all, active or completed todos")
	flags.StringVar(&gateway, "gateway", "", "gateway base URL (default $TODO_GATEWAY_URL)")
	flags.StringVar(&theme, "theme", "classic", "classic, neon or mono")
	flags.BoolVar(&color, "color", false, "force colored output")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.SetInterspersed(false)
	flags.Usage = func() { cli.PrintHelp(os.Stderr) }

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ui.SetTheme(theme)
	ui.SetColorForcing(color, noColor || os.Getenv("NO_COLOR") != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hand the remaining args to the CLI runner.
	code := cli.Run(ctx, flags.Args(), cli.Options{
		Filter:  filter,
		Gateway: gateway,
		LogTo:   os.Stderr,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
