// Package editor holds the controller every front end drives: it owns the
// note store, the live text buffer, debounced autosave and the share
// address, and keeps them consistent with durable storage.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yash-srivastava19/notex/internal/notes"
	"github.com/yash-srivastava19/notex/internal/persist"
	"github.com/yash-srivastava19/notex/internal/render"
	"github.com/yash-srivastava19/notex/internal/share"
	"github.com/yash-srivastava19/notex/internal/templates"
)

const DefaultDebounce = 300 * time.Millisecond

const (
	StatusIdle  = "All caught up"
	StatusSaved = "Saved"
)

// ErrNothingToImport is returned by ImportLink when the link does not
// decode to any note content.
var ErrNothingToImport = errors.New("link carries no note")

// Mode selects how the buffer is displayed.
type Mode int

const (
	Preview Mode = iota
	Raw
)

func (m Mode) String() string {
	if m == Raw {
		return "raw"
	}
	return "preview"
}

type EventKind int

const (
	// Committed: the buffer was written to the active note.
	Committed EventKind = iota
	// ListChanged: notes were added, removed, renamed or reordered.
	ListChanged
	// ActiveChanged: another note is now active and the buffer was reloaded.
	ActiveChanged
	// BufferReplaced: the buffer was reloaded from an external change.
	BufferReplaced
	StatusChanged
	ModeChanged
)

type Event struct {
	Kind EventKind
}

// Renderer produces the two views of the buffer.
type Renderer interface {
	Preview(text string, width int) (string, error)
	Raw(text string, caretLine int) (string, error)
}

// Controller is safe for concurrent use. Listeners are called without the
// controller's lock held, in the goroutine that caused the event.
type Controller struct {
	mu sync.Mutex

	bridge    *persist.Bridge
	links     *share.Synchronizer
	sched     Scheduler
	delay     time.Duration
	renderer  Renderer
	logger    *slog.Logger
	storeOpts []notes.Option

	store     *notes.Store
	loc       share.Location
	buffer    string
	lastSaved string
	pending   bool
	mode      Mode
	caret     int
	status    string
	statusErr bool

	listeners []func(Event)
	outbox    []EventKind
}

type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

func WithSynchronizer(s *share.Synchronizer) Option {
	return func(c *Controller) { c.links = s }
}

func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithBaseURL sets the address share links are built on.
func WithBaseURL(base string) Option {
	return func(c *Controller) { c.loc.Base = base }
}

// WithStoreOptions configures the store built by Boot.
func WithStoreOptions(opts ...notes.Option) Option {
	return func(c *Controller) { c.storeOpts = append(c.storeOpts, opts...) }
}

func WithMode(m Mode) Option {
	return func(c *Controller) { c.mode = m }
}

func New(bridge *persist.Bridge, opts ...Option) *Controller {
	c := &Controller{
		bridge:   bridge,
		links:    share.NewSynchronizer(),
		sched:    NewDebouncer(),
		delay:    DefaultDebounce,
		renderer: render.NewTerminal("auto", "monokai"),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = notes.NewStore(c.storeOpts...)
	return c
}

// OnEvent registers a listener for state changes.
func (c *Controller) OnEvent(fn func(Event)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Controller) emit(kinds ...EventKind) {
	c.outbox = append(c.outbox, kinds...)
}

// unlock releases the lock and delivers queued events.
func (c *Controller) unlock() {
	kinds := c.outbox
	c.outbox = nil
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, k := range kinds {
		for _, fn := range listeners {
			fn(Event{Kind: k})
		}
	}
}

// Boot loads the store from durable storage and reconciles it with the
// fragment the editor was opened with. An imported fragment is cleared
// from the address so reopening does not import it again.
func (c *Controller) Boot(fragment string) error {
	c.mu.Lock()
	defer c.unlock()

	c.sched.Cancel()
	c.pending = false
	c.store = c.bridge.Hydrate(c.storeOpts...)

	if c.store.Len() == 0 {
		if legacy, ok := c.bridge.Legacy(); ok {
			n := c.store.Add(legacy)
			c.logger.Info("migrated legacy note", "id", n.ID)
		}
	}

	imported := false
	if content, ok := c.links.Decode(fragment); ok && content != "" {
		c.links.Reconcile(c.store, content)
		imported = true
	} else if c.store.Len() == 0 {
		n := c.store.Add(templates.Welcome)
		c.setActive(n.ID)
	}

	if c.store.Repair() {
		c.logger.Warn("active note missing, repaired", "active", c.store.ActiveID())
	}

	err := c.flush()
	c.loadActive()
	if imported {
		c.loc.Clear()
	}
	c.emit(ListChanged, ActiveChanged)
	return err
}

// SetBuffer replaces the live text. A buffer that differs from the last
// saved content schedules a commit after the debounce delay; each call
// restarts the delay.
func (c *Controller) SetBuffer(text string) {
	c.mu.Lock()
	defer c.unlock()

	c.buffer = text
	if text == c.lastSaved {
		c.sched.Cancel()
		c.pending = false
		return
	}
	c.pending = true
	c.sched.Schedule(c.delay, c.commitPending)
}

// SetCursor records the caret line used by the raw view.
func (c *Controller) SetCursor(line int) {
	c.mu.Lock()
	c.caret = line
	c.mu.Unlock()
}

func (c *Controller) commitPending() {
	c.mu.Lock()
	defer c.unlock()
	if !c.pending {
		return
	}
	c.commit()
}

// commit writes the buffer to the active note, persists and re-encodes
// the address. Must be called with the lock held.
func (c *Controller) commit() {
	c.pending = false
	c.sched.Cancel()

	id := c.store.ActiveID()
	content := c.buffer
	if err := c.store.Commit(id, content); err != nil {
		c.logger.Error("commit", "id", id, "error", err)
		return
	}
	c.emit(Committed, ListChanged)

	if err := c.flush(); err != nil {
		return
	}

	frag, err := c.links.Encode(content)
	if err != nil {
		c.logger.Warn("encode fragment", "id", id, "error", err)
		c.setStatus("Error saving", true)
		return
	}
	c.loc.Replace(frag)
	c.lastSaved = content
	c.setStatus(StatusSaved, false)
	c.logger.Debug("committed", "id", id, "chars", utf8.RuneCountInString(content))
}

func (c *Controller) flush() error {
	if err := c.bridge.Flush(c.store); err != nil {
		c.logger.Error("flush", "error", err)
		c.setStatus("Error saving", true)
		return err
	}
	return nil
}

func (c *Controller) setStatus(s string, isErr bool) {
	c.status, c.statusErr = s, isErr
	c.emit(StatusChanged)
}

func (c *Controller) setActive(id string) {
	if err := c.store.SetActive(id); err != nil {
		c.logger.Error("activate", "id", id, "error", err)
	}
}

// loadActive puts the active note into the buffer and the address.
func (c *Controller) loadActive() {
	c.sched.Cancel()
	c.pending = false

	n, ok := c.store.Active()
	if !ok {
		c.buffer, c.lastSaved = "", ""
		c.loc.Clear()
		return
	}
	c.buffer, c.lastSaved = n.Content, n.Content
	c.caret = 0

	frag, err := c.links.Encode(n.Content)
	if err != nil {
		c.logger.Warn("encode fragment", "id", n.ID, "error", err)
		return
	}
	c.loc.Replace(frag)
}

// Save commits the buffer now if it has unsaved changes.
func (c *Controller) Save() {
	c.mu.Lock()
	defer c.unlock()
	if c.pending || c.buffer != c.lastSaved {
		c.commit()
	}
}

// Blur is called when the editing surface loses focus. Pending edits are
// committed rather than dropped.
func (c *Controller) Blur() {
	c.mu.Lock()
	defer c.unlock()
	if c.pending {
		c.commit()
	}
}

// Open makes id the active note, committing pending edits to the note
// being left.
func (c *Controller) Open(id string) error {
	c.mu.Lock()
	defer c.unlock()

	if id == c.store.ActiveID() {
		return nil
	}
	if _, ok := c.store.Find(id); !ok {
		return fmt.Errorf("open %s: %w", id, notes.ErrNotFound)
	}
	if c.pending {
		c.commit()
	}
	c.setActive(id)
	err := c.flush()
	c.loadActive()
	c.emit(ListChanged, ActiveChanged)
	return err
}

// NewNote adds a note with content, activates it and switches to the raw
// view for typing.
func (c *Controller) NewNote(content string) (*notes.Note, error) {
	c.mu.Lock()
	defer c.unlock()

	if c.pending {
		c.commit()
	}
	n := c.store.Add(content)
	c.setActive(n.ID)
	err := c.flush()
	c.loadActive()
	if c.mode != Raw {
		c.mode = Raw
		c.emit(ModeChanged)
	}
	c.emit(ListChanged, ActiveChanged)
	return n, err
}

// Delete removes a note. Unsaved edits to it are discarded. The address is
// cleared so the deleted content's link does not linger.
func (c *Controller) Delete(id string) error {
	c.mu.Lock()
	defer c.unlock()

	if _, ok := c.store.Find(id); !ok {
		return fmt.Errorf("delete %s: %w", id, notes.ErrNotFound)
	}
	if c.pending && id != c.store.ActiveID() {
		c.commit()
	}
	prev := c.store.ActiveID()
	if err := c.store.Delete(id); err != nil {
		return err
	}
	err := c.flush()
	c.loadActive()
	c.loc.Clear()
	c.emit(ListChanged)
	if c.store.ActiveID() != prev {
		c.emit(ActiveChanged)
	}
	return err
}

// ImportLink handles a share link received while the editor is open. The
// matching note is activated, or a new one is created. Undecodable links
// return ErrNothingToImport and change nothing.
func (c *Controller) ImportLink(link string) (n *notes.Note, created bool, err error) {
	content, ok := c.links.Decode(share.FragmentFromLink(link))
	if !ok || content == "" {
		return nil, false, ErrNothingToImport
	}

	c.mu.Lock()
	defer c.unlock()

	if existing, ok := c.store.FindByContent(content); ok && existing.ID == c.store.ActiveID() {
		return existing, false, nil
	}
	if c.pending {
		c.commit()
	}
	n, created = c.links.Reconcile(c.store, content)
	err = c.flush()
	c.loadActive()
	c.emit(ListChanged, ActiveChanged)
	return n, created, err
}

// ImportNotes inserts notes read from elsewhere. Notes without an id, or
// whose id is taken, get a fresh id. It returns how many were added.
func (c *Controller) ImportNotes(ns []*notes.Note) (int, error) {
	c.mu.Lock()
	defer c.unlock()

	added := 0
	for _, in := range ns {
		if in == nil {
			continue
		}
		n := in.Clone()
		if _, taken := c.store.Find(n.ID); n.ID == "" || taken {
			fresh := c.store.Create(n.Content)
			n.ID = fresh.ID
			if n.UpdatedAt.IsZero() {
				n.UpdatedAt = fresh.UpdatedAt
			}
		}
		if n.Name == "" {
			n.Name = notes.DeriveName(n.Content)
		}
		if err := c.store.Insert(n); err != nil {
			c.logger.Warn("skip imported note", "id", n.ID, "error", err)
			continue
		}
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if c.store.Repair() {
		c.loadActive()
		c.emit(ActiveChanged)
	}
	c.emit(ListChanged)
	return added, c.flush()
}

// ApplyExternal reconciles a collection written by another process. The
// buffer is only reloaded when it holds no unsaved edits. If the active
// note is gone, the active id the other process stored is preferred,
// then the first note.
func (c *Controller) ApplyExternal(ch persist.Change) {
	c.mu.Lock()
	defer c.unlock()

	activeID := c.store.ActiveID()
	c.store.Replace(ch.Notes)
	c.emit(ListChanged)

	if n, ok := c.store.Find(activeID); ok {
		if c.buffer == c.lastSaved && n.Content != c.buffer {
			c.loadActive()
			c.emit(BufferReplaced)
		}
		return
	}

	switch {
	case c.store.Len() == 0:
		n := c.store.Add(templates.Fallback)
		c.setActive(n.ID)
	default:
		id, ok := c.bridge.ExternalActiveID()
		if _, found := c.store.Find(id); ok && found {
			c.setActive(id)
		} else {
			c.setActive(c.store.Notes()[0].ID)
		}
	}
	c.logger.Info("active note removed elsewhere", "was", activeID, "now", c.store.ActiveID())
	_ = c.flush()
	c.loadActive()
	c.emit(ActiveChanged)
}

func (c *Controller) ToggleMode() Mode {
	c.mu.Lock()
	defer c.unlock()
	if c.mode == Preview {
		c.mode = Raw
	} else {
		c.mode = Preview
	}
	c.emit(ModeChanged)
	return c.mode
}

func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	defer c.unlock()
	if c.mode != m {
		c.mode = m
		c.emit(ModeChanged)
	}
}

// View renders the buffer in the current mode.
func (c *Controller) View(width int) (string, error) {
	c.mu.Lock()
	text, mode, caret := c.buffer, c.mode, c.caret
	c.mu.Unlock()

	if mode == Raw {
		return c.renderer.Raw(text, caret)
	}
	return c.renderer.Preview(text, width)
}

func (c *Controller) ClearStatus() {
	c.mu.Lock()
	defer c.unlock()
	if c.status != StatusIdle {
		c.setStatus(StatusIdle, false)
	}
}

// Status returns the status line text and whether it reports an error.
func (c *Controller) Status() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.statusErr
}

// CharCount is the number of characters in the buffer.
func (c *Controller) CharCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return utf8.RuneCountInString(c.buffer)
}

// Notes returns the sidebar list, most recently updated first.
func (c *Controller) Notes() []*notes.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Recent()
}

func (c *Controller) Find(id string) (*notes.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Find(id)
}

// Resolve finds a note by id, or by a unique id prefix.
func (c *Controller) Resolve(ref string) (*notes.Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.store.Find(ref); ok {
		return n, nil
	}
	var match *notes.Note
	for _, n := range c.store.Notes() {
		if ref != "" && strings.HasPrefix(n.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one note", ref)
			}
			match = n
		}
	}
	if match == nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, notes.ErrNotFound)
	}
	return match, nil
}

func (c *Controller) Active() (*notes.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Active()
}

func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ActiveID()
}

func (c *Controller) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// Dirty reports whether the buffer holds edits not yet saved.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer != c.lastSaved
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Fragment is the current address fragment, empty after it was cleared.
func (c *Controller) Fragment() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc.Fragment
}

// ShareURL is the current address.
func (c *Controller) ShareURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc.URL()
}

// ShareLink builds the share address for any note without touching the
// current one.
func (c *Controller) ShareLink(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.store.Find(id)
	if !ok {
		return "", fmt.Errorf("share %s: %w", id, notes.ErrNotFound)
	}
	frag, err := c.links.Encode(n.Content)
	if err != nil {
		return "", err
	}
	loc := share.Location{Base: c.loc.Base}
	loc.Replace(frag)
	return loc.URL(), nil
}
