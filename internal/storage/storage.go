// Package storage provides the durable key-value stores notes are mirrored
// to, and change notifications so several processes sharing one data
// directory can observe each other's writes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrClosed     = errors.New("storage closed")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage is a string key-value store. Reads and writes are synchronous.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Watcher reports writes made by other processes (and possibly this one).
// The channel is closed when ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Event names the key that changed. An empty key means any key may have
// changed and everything should be re-read.
type Event struct {
	Key string
}

// Matches reports whether the event may concern key.
func (e Event) Matches(key string) bool {
	return e.Key == "" || e.Key == key
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	return nil
}
