// Package server is a development Persistence Gateway: a small gin service
// that assigns ids to new todos and keeps them in memory, optionally
// snapshotted to a JSON file.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/todomvc/internal/config"
)

type App struct {
	cfg    config.Config
	repo   *MemoryRepo
	router *gin.Engine
	logger *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	repo, err := NewMemoryRepo(cfg.HTTP.DataFile)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, repo: repo, logger: logger}
	a.router = newRouter(cfg, NewTodoService(repo), logger)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Server wraps the router in an http.Server using the configured timeouts.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:         a.cfg.HTTP.Addr(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: a.cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  a.cfg.HTTP.IdleTimeout.Duration(),
	}
}

// Close logs the final count. Writes already reach the data file as they
// happen, so there is nothing to flush.
func (a *App) Close(ctx context.Context) error {
	todos, err := a.repo.List(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("gateway closed", "todos", len(todos))
	return nil
}

func newRouter(cfg config.Config, svc *TodoService, logger *slog.Logger) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, svc)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
