package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-inverter/internal/config"
	apperrors "image-inverter/internal/errors"
	"image-inverter/internal/history"
	imgproc "image-inverter/internal/image"
	"image-inverter/internal/session"
	"image-inverter/internal/settings"
)

func main() {
	// Create root context cancelled on SIGINT/SIGTERM
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	root, closeApp := newRootCmd()
	err := root.ExecuteContext(rootCtx)
	// Always flush settings, including after a failed command
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	if err != nil {
		var userErr *apperrors.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.UserMsg)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		rootCancel()
		os.Exit(exitCode(err))
	}
}

// exitTempFail tells scripts that running the command again may succeed
const exitTempFail = 75

func exitCode(err error) int {
	if apperrors.IsRetryable(err) {
		return exitTempFail
	}
	return 1
}

// app wires the components for a single command run
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	settings *settings.Service
	history  history.Store
	session  *session.Session
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var logLevel slog.Level
	switch cfg.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	svc, err := settings.Open(settings.NewFileStore(cfg.Settings.Path), logger)
	if err != nil {
		return nil, apperrors.Wrap(err, "Couldn't create the settings file.", false)
	}

	var hist history.Store
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.DBPath)
		if err != nil {
			// The journal is optional; keep working without it.
			logger.Warn("export history disabled", "path", cfg.History.DBPath, "error", err)
		} else {
			hist = store
		}
	}

	processor := imgproc.NewProcessor(cfg.Image.JPEGQuality)

	return &app{
		cfg:      cfg,
		logger:   logger,
		settings: svc,
		history:  hist,
		session:  session.New(svc, processor, hist, logger),
	}, nil
}

// Close flushes pending settings and releases the journal
func (a *app) Close() error {
	// Wait for graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := a.settings.Close(ctx)
	if err != nil {
		a.logger.Error("failed to flush settings", "path", a.settings.Path(), "error", err)
	}
	if a.history != nil {
		if cerr := a.history.Close(); cerr != nil {
			a.logger.Warn("failed to close history", "error", cerr)
		}
	}
	return err
}
