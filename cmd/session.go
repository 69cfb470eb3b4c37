package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yash-srivastava19/notex/internal/config"
	"github.com/yash-srivastava19/notex/internal/editor"
	"github.com/yash-srivastava19/notex/internal/persist"
	"github.com/yash-srivastava19/notex/internal/render"
	"github.com/yash-srivastava19/notex/internal/share"
	"github.com/yash-srivastava19/notex/internal/storage"
)

// session is a booted editor over the configured storage.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	kv     storage.Storage
	bridge *persist.Bridge
	ctrl   *editor.Controller
	log    io.Closer
}

// open loads the configuration, opens storage and boots the controller
// with fragment. A nil sched keeps the controller's timer-based default.
func (c *cli) open(fragment string, sched editor.Scheduler) (*session, error) {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return nil, err
	}
	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := openStorage(cfg, logger)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	return boot(cfg, logger, kv, logFile, fragment, sched), nil
}

// boot builds the controller over kv and loads the notes. A collection
// that cannot be written back is logged and the session carries on in
// memory, with the controller reporting the failure in its status.
func boot(cfg *config.Config, logger *slog.Logger, kv storage.Storage, log io.Closer, fragment string, sched editor.Scheduler) *session {
	bridge := persist.New(kv, persist.WithLogger(logger))
	opts := []editor.Option{
		editor.WithSynchronizer(share.NewSynchronizer(
			share.WithMaxFragment(cfg.MaxFragment),
			share.WithLogger(logger),
		)),
		editor.WithRenderer(render.NewTerminal(cfg.Style, cfg.HighlightStyle)),
		editor.WithLogger(logger),
		editor.WithBaseURL(cfg.BaseURL),
	}
	if sched != nil {
		opts = append(opts, editor.WithScheduler(sched))
	}
	if cfg.Debounce > 0 {
		opts = append(opts, editor.WithDebounce(cfg.Debounce))
	}
	if !cfg.StartPreview {
		opts = append(opts, editor.WithMode(editor.Raw))
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		kv:     kv,
		bridge: bridge,
		ctrl:   editor.New(bridge, opts...),
		log:    log,
	}
	if err := s.ctrl.Boot(fragment); err != nil {
		logger.Warn("notes not saved at startup", "path", cfg.StorePath(), "error", err)
	}
	logger.Debug("session open", "backend", cfg.Backend, "path", cfg.StorePath(), "notes", len(s.ctrl.Notes()))
	return s
}

// Close commits anything pending and releases storage.
func (s *session) Close() error {
	s.ctrl.Blur()
	return errors.Join(s.kv.Close(), s.log.Close())
}

func openStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.Backend == config.BackendSQLite {
		db, err := storage.OpenSQLite(cfg.StorePath(), storage.WithSQLiteLogger(logger))
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	f, err := storage.OpenFile(cfg.StorePath(), storage.WithFileLogger(logger))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// newLogger writes to the log file rather than the terminal, which the
// editor owns while it runs.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("log_level %q: %w", cfg.LogLevel, config.ErrInvalid)
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(f, opts)
	} else {
		h = slog.NewTextHandler(f, opts)
	}
	return slog.New(h).With("pid", os.Getpid()), f, nil
}
