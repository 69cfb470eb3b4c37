package editor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-srivastava19/notex/internal/notes"
	"github.com/yash-srivastava19/notex/internal/persist"
	"github.com/yash-srivastava19/notex/internal/share"
	"github.com/yash-srivastava19/notex/internal/storage"
	"github.com/yash-srivastava19/notex/internal/templates"
)

// manualScheduler holds the pending action until the test fires it.
type manualScheduler struct {
	mu        sync.Mutex
	action    func()
	delay     time.Duration
	schedules int
}

func (m *manualScheduler) Schedule(delay time.Duration, action func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.action, m.delay = action, delay
	m.schedules++
}

func (m *manualScheduler) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.action = nil
}

func (m *manualScheduler) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.action != nil
}

func (m *manualScheduler) Fire() {
	m.mu.Lock()
	action := m.action
	m.action = nil
	m.mu.Unlock()
	if action != nil {
		action()
	}
}

type textRenderer struct{}

func (textRenderer) Preview(text string, width int) (string, error) { return "preview:" + text, nil }
func (textRenderer) Raw(text string, caret int) (string, error)      { return "raw:" + text, nil }

func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type harness struct {
	*Controller
	sched  *manualScheduler
	bridge *persist.Bridge
	kv     storage.Storage
	events []EventKind
}

func newHarness(t *testing.T, kv storage.Storage, opts ...Option) *harness {
	t.Helper()
	h := &harness{sched: &manualScheduler{}, bridge: persist.New(kv), kv: kv}
	base := []Option{
		WithScheduler(h.sched),
		WithRenderer(textRenderer{}),
		WithStoreOptions(notes.WithClock(tickingClock())),
		WithBaseURL("https://notex.app/"),
	}
	h.Controller = New(h.bridge, append(base, opts...)...)
	h.OnEvent(func(e Event) { h.events = append(h.events, e.Kind) })
	return h
}

func (h *harness) count(kind EventKind) int {
	n := 0
	for _, k := range h.events {
		if k == kind {
			n++
		}
	}
	return n
}

func encode(t *testing.T, content string) string {
	t.Helper()
	frag, err := share.NewSynchronizer().Encode(content)
	require.NoError(t, err)
	return frag
}

// seed writes a collection to kv as if an earlier session had saved it.
func seed(t *testing.T, kv storage.Storage, contents ...string) *notes.Store {
	t.Helper()
	store := notes.NewStore()
	for _, content := range contents {
		n := store.Add(content)
		require.NoError(t, store.SetActive(n.ID))
	}
	require.NoError(t, persist.New(kv).Flush(store))
	return store
}

func TestBoot_freshStartSeedsWelcome(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))

	ns := h.Notes()
	require.Len(t, ns, 1)
	assert.Equal(t, templates.Welcome, ns[0].Content)
	assert.Equal(t, "Welcome to Notes", ns[0].Name)
	assert.Equal(t, ns[0].ID, h.ActiveID())
	assert.Equal(t, templates.Welcome, h.Buffer())
	assert.Equal(t, encode(t, templates.Welcome), h.Fragment())

	stored := persist.New(h.kv).Hydrate()
	assert.Equal(t, 1, stored.Len())
	assert.Equal(t, h.ActiveID(), stored.ActiveID())
}

func TestBoot_sharedLinkImportsNewNote(t *testing.T) {
	kv := storage.NewMemory()
	seed(t, kv, "A")

	h := newHarness(t, kv)
	require.NoError(t, h.Boot(encode(t, "B")))

	require.Len(t, h.Notes(), 2)
	active, ok := h.Active()
	require.True(t, ok)
	assert.Equal(t, "B", active.Content)
	assert.Equal(t, "B", h.Buffer())
	assert.Equal(t, "", h.Fragment(), "load-time import must clear the fragment")
	assert.Equal(t, "https://notex.app/", h.ShareURL())
}

func TestBoot_sharedLinkMatchesExisting(t *testing.T) {
	kv := storage.NewMemory()
	store := seed(t, kv, "X", "Y")
	x, _ := store.FindByContent("X")

	h := newHarness(t, kv)
	require.NoError(t, h.Boot("#view|"+encode(t, "X")))

	assert.Len(t, h.Notes(), 2)
	assert.Equal(t, x.ID, h.ActiveID())
	assert.Equal(t, "X", h.Buffer())
}

func TestBoot_undecodableFragmentIsIgnored(t *testing.T) {
	kv := storage.NewMemory()
	store := seed(t, kv, "A")

	h := newHarness(t, kv)
	require.NoError(t, h.Boot("!!garbage!!"))

	assert.Len(t, h.Notes(), 1)
	assert.Equal(t, store.ActiveID(), h.ActiveID())
	assert.Equal(t, encode(t, "A"), h.Fragment())
}

func TestBoot_migratesLegacyNote(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(persist.LegacyKey, "# Old notes\nfrom v1"))

	h := newHarness(t, kv)
	require.NoError(t, h.Boot(""))

	ns := h.Notes()
	require.Len(t, ns, 1)
	assert.Equal(t, "Old notes", ns[0].Name)
	assert.Equal(t, ns[0].ID, h.ActiveID())
}

func TestBoot_legacyIgnoredWhenNotesExist(t *testing.T) {
	kv := storage.NewMemory()
	seed(t, kv, "current")
	require.NoError(t, kv.Set(persist.LegacyKey, "old"))

	h := newHarness(t, kv)
	require.NoError(t, h.Boot(""))
	require.Len(t, h.Notes(), 1)
	assert.Equal(t, "current", h.Buffer())
}

func TestBoot_corruptStorageAndDanglingActive(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(persist.FilesKey, "not json"))
	h := newHarness(t, kv)
	require.NoError(t, h.Boot(""))
	assert.Equal(t, templates.Welcome, h.Buffer())

	kv = storage.NewMemory()
	store := seed(t, kv, "first", "second")
	require.NoError(t, kv.Set(persist.ActiveKey, "gone"))
	h = newHarness(t, kv)
	require.NoError(t, h.Boot(""))
	assert.Equal(t, store.Notes()[0].ID, h.ActiveID())
}

func TestSetBuffer_debounceCoalescesBurst(t *testing.T) {
	h := newHarness(t, storage.NewMemory(), WithDebounce(300*time.Millisecond))
	require.NoError(t, h.Boot(""))
	id := h.ActiveID()

	for _, text := range []string{"#", "# G", "# Gr", "# Groceries", "# Groceries\n- milk"} {
		h.SetBuffer(text)
	}
	assert.Equal(t, 5, h.sched.schedules)
	assert.Equal(t, 300*time.Millisecond, h.sched.delay)
	assert.True(t, h.Dirty())
	n, _ := h.Find(id)
	assert.Equal(t, templates.Welcome, n.Content, "nothing committed before the timer fires")

	h.sched.Fire()

	assert.Equal(t, 1, h.count(Committed))
	n, _ = h.Find(id)
	assert.Equal(t, "# Groceries\n- milk", n.Content)
	assert.Equal(t, "Groceries", n.Name)
	assert.False(t, h.Dirty())
	assert.Equal(t, encode(t, "# Groceries\n- milk"), h.Fragment())
	status, isErr := h.Status()
	assert.Equal(t, StatusSaved, status)
	assert.False(t, isErr)

	stored := persist.New(h.kv).Hydrate()
	got, _ := stored.Find(id)
	assert.Equal(t, "# Groceries\n- milk", got.Content)

	h.ClearStatus()
	status, _ = h.Status()
	assert.Equal(t, StatusIdle, status)
}

func TestSetBuffer_revertCancelsCommit(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))

	h.SetBuffer("changed")
	require.True(t, h.sched.Pending())
	h.SetBuffer(templates.Welcome)
	assert.False(t, h.sched.Pending())
	assert.False(t, h.Dirty())
}

func TestBlur_commitsPendingEdit(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))

	h.SetBuffer("typed then blurred")
	h.Blur()

	active, _ := h.Active()
	assert.Equal(t, "typed then blurred", active.Content)
	assert.False(t, h.sched.Pending())

	h.Blur()
	assert.Equal(t, 1, h.count(Committed))
}

func TestOpen_commitsEditsToNoteBeingLeft(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	welcome := h.ActiveID()
	other, err := h.NewNote("# Other")
	require.NoError(t, err)

	h.SetBuffer("# Other\nedited")
	require.NoError(t, h.Open(welcome))

	n, _ := h.Find(other.ID)
	assert.Equal(t, "# Other\nedited", n.Content)
	assert.Equal(t, templates.Welcome, h.Buffer())
	assert.Equal(t, welcome, persist.New(h.kv).Hydrate().ActiveID())

	assert.ErrorIs(t, h.Open("missing"), notes.ErrNotFound)
}

func TestNewNote_switchesToRaw(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	require.Equal(t, Preview, h.Mode())

	n, err := h.NewNote("")
	require.NoError(t, err)
	assert.Equal(t, notes.DefaultName, n.Name)
	assert.Equal(t, n.ID, h.ActiveID())
	assert.Equal(t, Raw, h.Mode())
	assert.Equal(t, "", h.Buffer())
	assert.Len(t, h.Notes(), 2)
}

func TestDelete_activeFallsBackToMostRecent(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	welcome := h.ActiveID()
	a, _ := h.NewNote("# A")
	b, _ := h.NewNote("# B")

	require.NoError(t, h.Open(welcome))
	h.SetBuffer("# Welcome, edited")
	h.sched.Fire()
	require.NoError(t, h.Open(b.ID))

	require.NoError(t, h.Delete(b.ID))

	assert.Equal(t, welcome, h.ActiveID())
	assert.Equal(t, "# Welcome, edited", h.Buffer())
	assert.Equal(t, "", h.Fragment())
	_, ok := h.Find(a.ID)
	assert.True(t, ok)
}

func TestDelete_discardsPendingEditsOfDeletedNote(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	keep := h.ActiveID()
	doomed, _ := h.NewNote("doomed")

	h.SetBuffer("doomed but edited")
	require.NoError(t, h.Delete(doomed.ID))

	assert.False(t, h.sched.Pending())
	assert.Equal(t, keep, h.ActiveID())
	assert.Equal(t, 0, h.count(Committed))
}

func TestDelete_lastNoteLeavesFallback(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))

	require.NoError(t, h.Delete(h.ActiveID()))

	ns := h.Notes()
	require.Len(t, ns, 1)
	assert.Equal(t, templates.Fallback, ns[0].Content)
	assert.Equal(t, ns[0].ID, h.ActiveID())
	assert.Equal(t, templates.Fallback, h.Buffer())

	assert.ErrorIs(t, h.Delete("missing"), notes.ErrNotFound)
}

func TestImportLink(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	welcome := h.ActiveID()

	n, created, err := h.ImportLink("https://notex.app/#" + encode(t, "# Shared"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, n.ID, h.ActiveID())
	assert.Equal(t, encode(t, "# Shared"), h.Fragment(), "live imports keep a fragment")

	n, created, err = h.ImportLink(encode(t, templates.Welcome))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, welcome, n.ID)
	assert.Equal(t, welcome, h.ActiveID())
	assert.Len(t, h.Notes(), 2)

	_, _, err = h.ImportLink("https://notex.app/#%%%")
	assert.ErrorIs(t, err, ErrNothingToImport)
	_, _, err = h.ImportLink("https://notex.app/")
	assert.ErrorIs(t, err, ErrNothingToImport)
	assert.Len(t, h.Notes(), 2)
}

func TestImportLink_commitsPendingEditFirst(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	welcome := h.ActiveID()

	h.SetBuffer("half typed")
	_, _, err := h.ImportLink(encode(t, "incoming"))
	require.NoError(t, err)

	n, _ := h.Find(welcome)
	assert.Equal(t, "half typed", n.Content)
}

func TestApplyExternal_keepsUnsavedEdits(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	id := h.ActiveID()

	external := []*notes.Note{{ID: id, Name: "Welcome to Notes", Content: "changed elsewhere", UpdatedAt: time.Now()}}

	h.SetBuffer("my local typing")
	h.ApplyExternal(persist.Change{Notes: external})
	assert.Equal(t, "my local typing", h.Buffer())
	assert.True(t, h.sched.Pending())

	h.sched.Fire()
	n, _ := h.Find(id)
	assert.Equal(t, "my local typing", n.Content, "last write wins")
}

func TestApplyExternal_reloadsCleanBuffer(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	id := h.ActiveID()

	h.ApplyExternal(persist.Change{Notes: []*notes.Note{
		{ID: id, Name: "Welcome to Notes", Content: "changed elsewhere", UpdatedAt: time.Now()},
		{ID: "note_other", Name: "Other", Content: "other", UpdatedAt: time.Now()},
	}})

	assert.Equal(t, "changed elsewhere", h.Buffer())
	assert.False(t, h.Dirty())
	assert.Len(t, h.Notes(), 2)
	assert.Equal(t, 1, h.count(BufferReplaced))
}

func TestApplyExternal_emptyCollectionSeedsFallback(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))

	h.ApplyExternal(persist.Change{})

	ns := h.Notes()
	require.Len(t, ns, 1)
	assert.Equal(t, templates.Fallback, ns[0].Content)
	assert.Equal(t, ns[0].ID, h.ActiveID())
}

// twoTabs sets up the cross-process delete scenario: tab A holds three
// notes and tab B boots showing the one A is about to delete.
func twoTabs(t *testing.T) (a, b *harness, deleted, survivor string) {
	t.Helper()
	shared := storage.NewShared()

	a = newHarness(t, shared.View())
	require.NoError(t, a.Boot(""))
	welcome := a.ActiveID()
	second, _ := a.NewNote("# Second")
	third, _ := a.NewNote("# Third")
	a.SetBuffer("# Third\nedited")
	a.sched.Fire()
	require.NoError(t, a.Open(second.ID))

	b = newHarness(t, shared.View())
	require.NoError(t, b.Boot(""))
	require.Equal(t, second.ID, b.ActiveID())
	require.Equal(t, "# Second", b.Buffer())
	require.NotEqual(t, welcome, third.ID)

	return a, b, second.ID, third.ID
}

func TestCrossProcessDelete(t *testing.T) {
	a, b, deleted, survivor := twoTabs(t)

	require.NoError(t, a.Delete(deleted))
	require.Equal(t, survivor, a.ActiveID(), "most recently updated survivor")

	raw, ok, err := b.kv.Get(persist.FilesKey)
	require.NoError(t, err)
	require.True(t, ok)
	ns, err := notes.UnmarshalNotes([]byte(raw))
	require.NoError(t, err)
	b.ApplyExternal(persist.Change{Notes: ns, Raw: raw})

	assert.Equal(t, survivor, b.ActiveID())
	assert.Equal(t, "# Third\nedited", b.Buffer())
	assert.Len(t, b.Notes(), 2)
}

func TestCrossProcessDelete_throughWatch(t *testing.T) {
	a, b, deleted, survivor := twoTabs(t)

	unsubscribe := b.bridge.OnExternalChange(b.ApplyExternal)
	defer unsubscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.bridge.Watch(ctx) }()

	require.NoError(t, a.Delete(deleted))

	require.Eventually(t, func() bool {
		if b.ActiveID() == survivor {
			return true
		}
		// Re-announce in case the watch subscribed after the delete.
		raw, _, _ := a.kv.Get(persist.FilesKey)
		_ = a.kv.Set(persist.FilesKey, raw)
		return false
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "# Third\nedited", b.Buffer())
}

func TestEncodeFailureKeepsPreviousFragment(t *testing.T) {
	h := newHarness(t, storage.NewMemory(),
		WithSynchronizer(share.NewSynchronizer(share.WithMaxFragment(40))))
	require.NoError(t, h.Boot(""))
	h.SetBuffer("short")
	h.sched.Fire()
	before := h.Fragment()
	require.NotEmpty(t, before)

	h.SetBuffer(strings.Repeat("incompressible? 0123456789 qwertyuiop ", 20))
	h.sched.Fire()

	status, isErr := h.Status()
	assert.True(t, isErr)
	assert.Equal(t, "Error saving", status)
	assert.Equal(t, before, h.Fragment())
	assert.True(t, h.Dirty())
}

func TestModesAndView(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	h.SetBuffer("héllo")

	out, err := h.View(80)
	require.NoError(t, err)
	assert.Equal(t, "preview:héllo", out)

	assert.Equal(t, Raw, h.ToggleMode())
	out, err = h.View(80)
	require.NoError(t, err)
	assert.Equal(t, "raw:héllo", out)
	assert.Equal(t, Preview, h.ToggleMode())

	h.SetMode(Raw)
	assert.Equal(t, Raw, h.Mode())
	assert.Equal(t, 5, h.CharCount())
}

func TestNotesSortedByRecency(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	welcome := h.ActiveID()
	a, _ := h.NewNote("a")
	b, _ := h.NewNote("b")
	require.NoError(t, h.Open(a.ID))
	h.SetBuffer("a2")
	h.sched.Fire()

	ns := h.Notes()
	require.Len(t, ns, 3)
	assert.Equal(t, []string{a.ID, b.ID, welcome}, []string{ns[0].ID, ns[1].ID, ns[2].ID})
}

func TestImportNotes(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	welcome := h.ActiveID()

	added, err := h.ImportNotes([]*notes.Note{
		{ID: "note_x", Name: "Welcome to Notes", Content: "clash"},
		{Content: "# No id"},
		{ID: welcome, Name: "Dup", Content: "dup id"},
		nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	ns := h.Notes()
	require.Len(t, ns, 4)
	names := map[string]bool{}
	for _, n := range ns {
		assert.False(t, names[n.Name], "duplicate name %q", n.Name)
		names[n.Name] = true
	}
	assert.True(t, names["Welcome to Notes - 1"])
	assert.True(t, names["No id"])
	assert.Equal(t, welcome, h.ActiveID())
	assert.Equal(t, 4, persist.New(h.kv).Hydrate().Len())
}

func TestShareLinkAndResolve(t *testing.T) {
	h := newHarness(t, storage.NewMemory())
	require.NoError(t, h.Boot(""))
	n, _ := h.NewNote("# Share me")

	link, err := h.ShareLink(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://notex.app/#"+encode(t, "# Share me"), link)

	got, err := h.Resolve(n.ID[:len("note_")+8])
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)

	_, err = h.Resolve("note_")
	assert.Error(t, err)
	_, err = h.Resolve("zzz")
	assert.ErrorIs(t, err, notes.ErrNotFound)
	_, err = h.ShareLink("zzz")
	assert.ErrorIs(t, err, notes.ErrNotFound)
}

func TestOnEvent_everyListenerNotifiedOutsideLock(t *testing.T) {
	h := newHarness(t, storage.NewMemory())

	var second []EventKind
	var late int
	registered := false
	h.OnEvent(func(e Event) {
		second = append(second, e.Kind)
		if e.Kind == ActiveChanged && !registered {
			registered = true
			// Registering from a listener must not deadlock, and the new
			// listener only sees later batches.
			h.OnEvent(func(Event) { late++ })
		}
		_ = h.Buffer()
	})
	require.NoError(t, h.Boot(""))

	assert.Equal(t, h.events, second)
	assert.Contains(t, second, ListChanged)
	assert.Contains(t, second, ActiveChanged)
	assert.Zero(t, late)

	h.ToggleMode()
	assert.Equal(t, 1, late)
}
