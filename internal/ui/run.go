package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yash-srivastava19/notex/internal/editor"
	"github.com/yash-srivastava19/notex/internal/persist"
)

// Run starts the TUI and blocks until it exits. Changes other processes
// write to the same storage are fed to the model while it runs. Pending
// edits are committed before returning.
func Run(ctx context.Context, ctrl *editor.Controller, sched *TickScheduler, bridge *persist.Bridge, opts ...Option) error {
	app := New(ctrl, sched, opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := bridge.OnExternalChange(func(ch persist.Change) {
		p.Send(externalChangeMsg{change: ch})
	})
	defer unsubscribe()

	go func() {
		err := bridge.Watch(ctx)
		switch {
		case errors.Is(err, persist.ErrNotWatchable):
			app.logger.Info("storage cannot be watched, changes from other processes show on restart")
		case err != nil:
			app.logger.Warn("watch storage", "error", err)
		}
	}()

	_, err := p.Run()
	ctrl.Blur()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
