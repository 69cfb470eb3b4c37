package storage

import (
	"context"
	"sync"
)

// Shared is an in-memory keyspace several Memory views can attach to, the
// way tabs of one origin share browser storage.
type Shared struct {
	mu    sync.Mutex
	data  map[string]string
	views []*Memory
}

func NewShared() *Shared {
	return &Shared{data: make(map[string]string)}
}

// View attaches a new view. Writes through a view are announced to every
// other view's watchers, never to its own.
func (s *Shared) View() *Memory {
	m := &Memory{shared: s}
	s.mu.Lock()
	s.views = append(s.views, m)
	s.mu.Unlock()
	return m
}

// NewMemory returns a standalone in-memory store.
func NewMemory() *Memory {
	return NewShared().View()
}

type Memory struct {
	shared *Shared
	subs   []chan Event
	closed bool
}

func (m *Memory) Get(key string) (string, bool, error) {
	s := m.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	s := m.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	s.data[key] = value
	m.announce(key)
	return nil
}

func (m *Memory) Remove(key string) error {
	s := m.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(s.data, key)
	m.announce(key)
	return nil
}

// Close detaches the view and ends its watches.
func (m *Memory) Close() error {
	s := m.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for i, v := range s.views {
		if v == m {
			s.views = append(s.views[:i:i], s.views[i+1:]...)
			break
		}
	}
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
	return nil
}

// announce must be called with the shared lock held. Slow watchers miss
// events rather than block writers.
func (m *Memory) announce(key string) {
	for _, v := range m.shared.views {
		if v == m {
			continue
		}
		for _, ch := range v.subs {
			select {
			case ch <- Event{Key: key}:
			default:
			}
		}
	}
}

func (m *Memory) Watch(ctx context.Context) (<-chan Event, error) {
	s := m.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	ch := make(chan Event, 64)
	m.subs = append(m.subs, ch)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range m.subs {
			if c == ch {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}
