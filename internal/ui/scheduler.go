package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// commitTickMsg fires a scheduled action if its generation is still current.
type commitTickMsg struct {
	gen uint64
}

// TickScheduler runs the controller's debounced commits on the Bubble Tea
// event loop instead of a timer goroutine. Each Schedule bumps a generation;
// ticks carrying an older generation are stale and ignored.
type TickScheduler struct {
	mu     sync.Mutex
	gen    uint64
	action func()
	queued []tea.Cmd
}

func NewTickScheduler() *TickScheduler {
	return &TickScheduler{}
}

func (s *TickScheduler) Schedule(delay time.Duration, action func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	s.action = action
	s.queued = append(s.queued, tea.Tick(delay, func(time.Time) tea.Msg {
		return commitTickMsg{gen: gen}
	}))
}

func (s *TickScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.action = nil
}

// take returns the tick commands queued since the last call.
func (s *TickScheduler) take() []tea.Cmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmds := s.queued
	s.queued = nil
	return cmds
}

// fire runs the pending action when gen is current.
func (s *TickScheduler) fire(gen uint64) bool {
	s.mu.Lock()
	if gen != s.gen || s.action == nil {
		s.mu.Unlock()
		return false
	}
	action := s.action
	s.action = nil
	s.mu.Unlock()

	action()
	return true
}
