package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage runs the behaviour every backend shares.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	_, ok, err := s.Get("notex-files")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("notex-files", `[{"id":"a"}]`))
	v, ok, err := s.Get("notex-files")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, s.Set("notex-files", `[]`))
	v, _, _ = s.Get("notex-files")
	assert.Equal(t, `[]`, v)

	require.NoError(t, s.Set("notex-active-id", ""))
	v, ok, err = s.Get("notex-active-id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)

	require.NoError(t, s.Remove("notex-files"))
	require.NoError(t, s.Remove("notex-files"))
	_, ok, err = s.Get("notex-files")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Close())
	_, _, err = s.Get("notex-files")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set("notex-files", "x"), ErrClosed)
}

func waitEvent(t *testing.T, ch <-chan Event, want func(Event) bool) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "watch channel closed early")
			if want(ev) {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for storage event")
		}
	}
}

func TestFileStorage(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "kv"))
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestFileStorage_invalidKeys(t *testing.T) {
	s, err := OpenFile(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.ErrorIs(t, s.Set(key, "x"), ErrInvalidKey, "key %q", key)
	}
}

func TestFileStorage_noTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("notex-files", "[]"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notex-files", entries[0].Name())
}

func TestFileStorage_watchSeesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	reader, err := OpenFile(dir)
	require.NoError(t, err)
	writer, err := OpenFile(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := reader.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, writer.Set("notex-files", `[{"id":"b"}]`))
	waitEvent(t, events, func(ev Event) bool { return ev.Key == "notex-files" })

	v, _, err := reader.Get("notex-files")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"b"}]`, v)

	cancel()
	for range events {
	}
}

func TestSQLiteStorage(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "notex.db"))
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestSQLiteStorage_sharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notex.db")
	a, err := OpenSQLite(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite(path)
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := b.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Set("notex-active-id", "note_1"))
	waitEvent(t, events, func(ev Event) bool { return ev.Matches("notex-active-id") })

	v, ok, err := b.Get("notex-active-id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "note_1", v)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestMemoryStorage_notifiesOtherViewsOnly(t *testing.T) {
	shared := NewShared()
	tabA := shared.View()
	tabB := shared.View()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventsA, err := tabA.Watch(ctx)
	require.NoError(t, err)
	eventsB, err := tabB.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, tabA.Set("notex-files", "[]"))

	select {
	case ev := <-eventsB:
		assert.Equal(t, Event{Key: "notex-files"}, ev)
	case <-time.After(time.Second):
		t.Fatal("other view was not notified")
	}
	select {
	case ev := <-eventsA:
		t.Fatalf("writer saw its own write: %+v", ev)
	default:
	}

	v, ok, err := tabB.Get("notex-files")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestMemoryStorage_watchEndsWithContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	events, err := m.Watch(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed")
	}
}

func TestEventMatches(t *testing.T) {
	assert.True(t, Event{}.Matches("notex-files"))
	assert.True(t, Event{Key: "notex-files"}.Matches("notex-files"))
	assert.False(t, Event{Key: "notex-active-id"}.Matches("notex-files"))
}
