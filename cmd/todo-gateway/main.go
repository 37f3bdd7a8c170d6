// todo-gateway is the development Persistence Gateway: it assigns ids to new
// todos and serves them back over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/idilsaglam/todomvc/internal/config"
	"github.com/idilsaglam/todomvc/internal/logging"
	"github.com/idilsaglam/todomvc/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Writer(os.Stderr, slog.LevelInfo).Error("config", "error", err)
		return 1
	}
	logger, closeLog, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		logging.Writer(os.Stderr, slog.LevelInfo).Error("logging", "error", err)
		return 1
	}
	defer closeLog()

	application, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("app init", "error", err)
		return 1
	}
	srv := application.Server()

	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "env", cfg.App.Env,
			"auth", cfg.HTTP.Token != "", "data_file", cfg.HTTP.DataFile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errc:
		logger.Error("HTTP server error", "error", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
		return 1
	}
	if err := application.Close(ctx); err != nil {
		logger.Error("close", "error", err)
		return 1
	}
	return 0
}
