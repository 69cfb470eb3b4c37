package share

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/yash-srivastava19/notex/internal/codec"
	"github.com/yash-srivastava19/notex/internal/notes"
)

// ErrFragmentTooLarge is returned by Encode when the token exceeds the
// configured limit.
var ErrFragmentTooLarge = errors.New("fragment too large")

// Codec turns text into a URL-safe token and back.
type Codec interface {
	Compress(s string) (string, error)
	Decompress(token string) (string, error)
}

// Synchronizer encodes note content into fragments and decodes share links.
type Synchronizer struct {
	codec       Codec
	maxFragment int
	logger      *slog.Logger
}

type Option func(*Synchronizer)

func WithCodec(c Codec) Option {
	return func(s *Synchronizer) { s.codec = c }
}

// WithMaxFragment limits the encoded token length. Zero means unlimited.
func WithMaxFragment(n int) Option {
	return func(s *Synchronizer) { s.maxFragment = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

func NewSynchronizer(opts ...Option) *Synchronizer {
	s := &Synchronizer{
		codec:  codec.LZString{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encode returns the fragment for content. The current format is always
// the plain token.
func (s *Synchronizer) Encode(content string) (string, error) {
	token, err := s.codec.Compress(content)
	if err != nil {
		return "", fmt.Errorf("encode fragment: %w", err)
	}
	if s.maxFragment > 0 && len(token) > s.maxFragment {
		return "", fmt.Errorf("encode fragment: %d bytes over limit %d: %w", len(token), s.maxFragment, ErrFragmentTooLarge)
	}
	return PlainToken{Raw: token}.String(), nil
}

// Decode returns the content carried by fragment. Any failure, including a
// panicking codec, reports false and is never surfaced.
func (s *Synchronizer) Decode(fragment string) (content string, ok bool) {
	token := ParseFragment(fragment).Token()
	if token == "" {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("fragment codec panicked", "panic", r)
			content, ok = "", false
		}
	}()
	out, err := s.codec.Decompress(token)
	if err != nil {
		s.logger.Debug("ignoring undecodable fragment", "error", err)
		return "", false
	}
	return out, true
}

// Reconcile activates the note whose content is exactly content, or
// inserts and activates a new one. created reports whether a note was
// added. Empty content is not imported.
func (s *Synchronizer) Reconcile(store *notes.Store, content string) (n *notes.Note, created bool) {
	if content == "" {
		return nil, false
	}
	if existing, ok := store.FindByContent(content); ok {
		if err := store.SetActive(existing.ID); err != nil {
			s.logger.Error("activate shared note", "id", existing.ID, "error", err)
		}
		return existing, false
	}
	n = store.Add(content)
	if err := store.SetActive(n.ID); err != nil {
		s.logger.Error("activate imported note", "id", n.ID, "error", err)
	}
	s.logger.Info("imported shared note", "id", n.ID, "name", n.Name)
	return n, true
}
