package notes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndParseDocument(t *testing.T) {
	n := &Note{
		ID:        "note_1",
		Name:      "Trip: Rome",
		Content:   "\n# Trip\n\n---\nnot frontmatter",
		UpdatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	doc, err := BuildDocument(n)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, "---\n"))

	fm, body, err := ParseDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "note_1", fm.ID)
	assert.Equal(t, "Trip: Rome", fm.Name)
	assert.True(t, n.UpdatedAt.Equal(fm.Updated))
	assert.Equal(t, n.Content, body)
}

func TestParseDocument_noFrontmatter(t *testing.T) {
	content := "# Just a plain note\r\n\r\nNo frontmatter here."
	fm, body, err := ParseDocument(content)
	require.NoError(t, err)
	assert.Equal(t, Frontmatter{}, fm)
	assert.Equal(t, "# Just a plain note\n\nNo frontmatter here.", body)
}

func TestParseDocument_badYAML(t *testing.T) {
	_, _, err := ParseDocument("---\nname: [unclosed\n---\n\nbody")
	assert.Error(t, err)
}

func TestNoteFromDocument_fillsMissingMetadata(t *testing.T) {
	mod := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	n, err := NoteFromDocument("# Loose file\nbody", mod)
	require.NoError(t, err)
	assert.Equal(t, "", n.ID)
	assert.Equal(t, "Loose file", n.Name)
	assert.Equal(t, mod, n.UpdatedAt)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"Trip: Rome -- 2024", "trip-rome-2024"},
		{"Untitled Note - 1", "untitled-note-1"},
		{"???", "note"},
	}
	for _, tt := range tests {
		if got := Slug(tt.input); got != tt.expected {
			t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNoteJSONLayout(t *testing.T) {
	n := Note{ID: "note_1", Name: "A", Content: "a", UpdatedAt: time.UnixMilli(1718000000123)}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"note_1","name":"A","content":"a","updated":1718000000123}`, string(data))

	ns, err := UnmarshalNotes([]byte(`[{"id":"note_1","name":"A","content":"a","updated":1718000000123},{"name":"orphan"}]`))
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, int64(1718000000123), ns[0].UpdatedAt.UnixMilli())

	empty, err := MarshalNotes(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
