package notes

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yash-srivastava19/notex/internal/templates"
)

var (
	ErrNotFound    = errors.New("note not found")
	ErrDuplicateID = errors.New("note id already present")
	ErrInvalidNote = errors.New("note has no id")
)

// Store is the in-memory collection of notes plus the id of the active one.
//
// A Store is not safe for concurrent use; it is owned by a single editor
// controller which serializes access. Accessors hand out copies so callers
// cannot break the name and active-id invariants behind the store's back.
type Store struct {
	notes    []*Note
	activeID string

	now      func() time.Time
	newID    func() string
	fallback string
}

type Option func(*Store)

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides id allocation.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithFallbackContent sets the content of the note synthesized when the
// last remaining note is deleted.
func WithFallbackContent(content string) Option {
	return func(s *Store) { s.fallback = content }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		newID:    func() string { return "note_" + uuid.NewString() },
		fallback: templates.Fallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a note for content with a fresh id and a unique derived
// name. The note is not inserted; the caller decides what to do with it.
func (s *Store) Create(content string) *Note {
	return &Note{
		ID:        s.newID(),
		Name:      UniqueName(s.notes, DeriveName(content), ""),
		Content:   content,
		UpdatedAt: s.now(),
	}
}

// Insert appends n to the collection. A name already used by another note
// is suffixed until unique.
func (s *Store) Insert(n *Note) error {
	if n == nil || n.ID == "" {
		return ErrInvalidNote
	}
	if s.index(n.ID) >= 0 {
		return fmt.Errorf("insert %s: %w", n.ID, ErrDuplicateID)
	}
	c := n.Clone()
	c.Name = UniqueName(s.notes, c.Name, c.ID)
	s.notes = append(s.notes, c)
	return nil
}

// Add creates and inserts a note for content and returns a copy of it.
func (s *Store) Add(content string) *Note {
	n := s.Create(content)
	s.notes = append(s.notes, n)
	return n.Clone()
}

func (s *Store) Find(id string) (*Note, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	return s.notes[i].Clone(), true
}

// FindByContent returns the first note, in insertion order, whose content
// is exactly content.
func (s *Store) FindByContent(content string) (*Note, bool) {
	for _, n := range s.notes {
		if n.Content == content {
			return n.Clone(), true
		}
	}
	return nil, false
}

// Delete removes the note with id. Deleting the active note activates the
// most recently updated survivor; deleting the last note leaves a single
// freshly created fallback note, active.
func (s *Store) Delete(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.notes = append(s.notes[:i:i], s.notes[i+1:]...)

	if len(s.notes) == 0 {
		n := s.Create(s.fallback)
		s.notes = append(s.notes, n)
		s.activeID = n.ID
		return nil
	}
	if s.activeID == id {
		s.activeID = s.mostRecent().ID
	}
	return nil
}

// SetActive makes id the active note. It is a no-op when id is already active.
func (s *Store) SetActive(id string) error {
	if id == s.activeID {
		return nil
	}
	if s.index(id) < 0 {
		return fmt.Errorf("activate %s: %w", id, ErrNotFound)
	}
	s.activeID = id
	return nil
}

// Commit stores content into the note with id, renames it when its current
// name is still content-derived, and bumps UpdatedAt.
func (s *Store) Commit(id, content string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	n := s.notes[i]
	n.Content = content

	candidate := DeriveName(content)
	if shouldRename(n.Name, candidate) {
		n.Name = UniqueName(s.notes, candidate, n.ID)
	}

	now := s.now()
	if now.Before(n.UpdatedAt) {
		now = n.UpdatedAt
	}
	n.UpdatedAt = now
	return nil
}

// Replace swaps the whole collection, keeping the active id as is. Callers
// are expected to Repair afterwards if the active note may have vanished.
func (s *Store) Replace(ns []*Note) {
	s.notes = make([]*Note, 0, len(ns))
	for _, n := range ns {
		if n == nil || s.index(n.ID) >= 0 {
			continue
		}
		s.notes = append(s.notes, n.Clone())
	}
}

// Restore loads a hydrated collection and active id without validating
// the id; follow with Repair.
func (s *Store) Restore(ns []*Note, activeID string) {
	s.Replace(ns)
	s.activeID = activeID
}

// Repair points the active id at the first note when it does not resolve.
// It reports whether the active id changed.
func (s *Store) Repair() bool {
	if len(s.notes) == 0 {
		changed := s.activeID != ""
		s.activeID = ""
		return changed
	}
	if s.index(s.activeID) >= 0 {
		return false
	}
	s.activeID = s.notes[0].ID
	return true
}

func (s *Store) ActiveID() string {
	return s.activeID
}

// Active returns a copy of the active note.
func (s *Store) Active() (*Note, bool) {
	return s.Find(s.activeID)
}

func (s *Store) Len() int {
	return len(s.notes)
}

// Notes returns copies of all notes in insertion order.
func (s *Store) Notes() []*Note {
	out := make([]*Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.Clone()
	}
	return out
}

// Recent returns copies of all notes, most recently updated first.
func (s *Store) Recent() []*Note {
	out := s.Notes()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (s *Store) mostRecent() *Note {
	best := s.notes[0]
	for _, n := range s.notes[1:] {
		if n.UpdatedAt.After(best.UpdatedAt) {
			best = n
		}
	}
	return best
}

func (s *Store) index(id string) int {
	if id == "" {
		return -1
	}
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
