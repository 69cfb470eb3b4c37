package notes

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the metadata block written ahead of an exported note.
//
//	---
//	id: note_0b6c...
//	name: Shopping
//	updated: 2024-06-01T10:00:00Z
//	---
type Frontmatter struct {
	ID      string    `yaml:"id"`
	Name    string    `yaml:"name"`
	Updated time.Time `yaml:"updated"`
}

// BuildDocument renders n as markdown with a YAML frontmatter header.
func BuildDocument(n *Note) (string, error) {
	fm, err := yaml.Marshal(Frontmatter{
		ID:      n.ID,
		Name:    n.Name,
		Updated: n.UpdatedAt.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(fm) + "---\n\n" + n.Content, nil
}

// ParseDocument splits a document produced by BuildDocument back into its
// frontmatter and body. Documents without frontmatter yield a zero
// Frontmatter and the whole input as body.
func ParseDocument(raw string) (Frontmatter, string, error) {
	var fm Frontmatter
	content := strings.ReplaceAll(raw, "\r\n", "\n")

	if !strings.HasPrefix(content, "---\n") {
		return fm, content, nil
	}
	end := strings.Index(content[3:], "\n---")
	if end == -1 {
		return fm, content, nil
	}
	end += 3

	if err := yaml.Unmarshal([]byte(content[4:end+1]), &fm); err != nil {
		return fm, content, fmt.Errorf("parse frontmatter: %w", err)
	}
	body := strings.TrimPrefix(content[end+4:], "\n")
	body = strings.TrimPrefix(body, "\n")
	return fm, body, nil
}

// NoteFromDocument builds a note from an exported document. Missing
// metadata is filled from the body and modTime.
func NoteFromDocument(raw string, modTime time.Time) (*Note, error) {
	fm, body, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	n := &Note{ID: fm.ID, Name: fm.Name, Content: body, UpdatedAt: fm.Updated}
	if n.Name == "" {
		n.Name = DeriveName(body)
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = modTime
	}
	return n, nil
}

// Slug turns a note name into a file-name friendly identifier.
func Slug(name string) string {
	s := strings.ToLower(name)
	var out strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			out.WriteRune('-')
		}
	}
	result := strings.Trim(out.String(), "-")
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	if result == "" {
		result = "note"
	}
	return result
}
