// Package persist mirrors the note store to durable storage and relays
// changes written by other processes.
package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/yash-srivastava19/notex/internal/notes"
	"github.com/yash-srivastava19/notex/internal/storage"
)

// Storage keys. The layout is shared with the browser build.
const (
	FilesKey  = "notex-files"
	ActiveKey = "notex-active-id"
	LegacyKey = "notes-content"
)

// ErrNotWatchable is returned by Watch when the storage cannot report
// changes.
var ErrNotWatchable = errors.New("storage does not support watching")

// Change is a note collection written by another process.
type Change struct {
	Notes []*notes.Note
	Raw   string
}

// Bridge reads and writes the note store under fixed storage keys.
type Bridge struct {
	kv     storage.Storage
	logger *slog.Logger

	mu       sync.Mutex
	last     string
	handlers map[int]func(Change)
	nextID   int
}

type Option func(*Bridge)

func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

func New(kv storage.Storage, opts ...Option) *Bridge {
	b := &Bridge{
		kv:       kv,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		handlers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Flush overwrites both keys with the store's current state. The active
// id is written first so a process reacting to the notes change reads a
// matching id.
func (b *Bridge) Flush(store *notes.Store) error {
	data, err := notes.MarshalNotes(store.Notes())
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	raw := string(data)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.kv.Set(ActiveKey, store.ActiveID()); err != nil {
		return fmt.Errorf("flush active id: %w", err)
	}
	if err := b.kv.Set(FilesKey, raw); err != nil {
		return fmt.Errorf("flush notes: %w", err)
	}
	b.last = raw
	return nil
}

// Hydrate builds a store from durable storage. A missing or corrupt
// collection yields an empty store; a missing active id leaves it unset.
// The active id is not repaired here.
func (b *Bridge) Hydrate(opts ...notes.Option) *notes.Store {
	store := notes.NewStore(opts...)

	raw, ok, err := b.kv.Get(FilesKey)
	if err != nil {
		b.logger.Error("read notes", "error", err)
	}
	var ns []*notes.Note
	if ok {
		ns, err = notes.UnmarshalNotes([]byte(raw))
		if err != nil {
			b.logger.Warn("stored notes unreadable, starting empty", "error", err)
			ns = nil
		}
		b.mu.Lock()
		b.last = raw
		b.mu.Unlock()
	}

	activeID, _ := b.read(ActiveKey)
	store.Restore(ns, activeID)
	b.logger.Debug("hydrated", "notes", store.Len(), "active", activeID)
	return store
}

// Legacy returns the single-note content written by the first version of
// the editor, if any.
func (b *Bridge) Legacy() (string, bool) {
	content, ok := b.read(LegacyKey)
	if !ok || content == "" {
		return "", false
	}
	return content, true
}

// ExternalActiveID returns the active id currently in storage, which may
// have been written by another process.
func (b *Bridge) ExternalActiveID() (string, bool) {
	id, ok := b.read(ActiveKey)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (b *Bridge) read(key string) (string, bool) {
	v, ok, err := b.kv.Get(key)
	if err != nil {
		b.logger.Error("read storage", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// OnExternalChange registers handler for note collections written by
// other processes. The returned func unregisters it.
func (b *Bridge) OnExternalChange(handler func(Change)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Watch relays storage notifications to the registered handlers until ctx
// is done. Payloads equal to the last value this bridge wrote or saw are
// dropped, as are payloads that do not parse.
func (b *Bridge) Watch(ctx context.Context) error {
	w, ok := b.kv.(storage.Watcher)
	if !ok {
		return ErrNotWatchable
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch storage: %w", err)
	}

	for ev := range events {
		if !ev.Matches(FilesKey) {
			continue
		}
		raw, ok := b.read(FilesKey)
		if !ok {
			continue
		}
		b.receive(raw)
	}
	return nil
}

func (b *Bridge) receive(raw string) {
	b.mu.Lock()
	if raw == b.last {
		b.mu.Unlock()
		return
	}
	b.last = raw
	handlers := make([]func(Change), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	ns, err := notes.UnmarshalNotes([]byte(raw))
	if err != nil {
		b.logger.Warn("dropping unreadable external change", "error", err)
		return
	}
	b.logger.Debug("external change", "notes", len(ns))
	for _, h := range handlers {
		h(Change{Notes: ns, Raw: raw})
	}
}
