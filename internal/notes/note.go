package notes

import (
	"encoding/json"
	"time"
)

// Note is one named, independently addressable unit of markdown text.
//
// On disk a note keeps the layout the browser version used:
//
//	{"id": "note_...", "name": "Shopping", "content": "# Shopping\n...", "updated": 1718000000000}
//
// where updated is milliseconds since the Unix epoch.
type Note struct {
	ID        string
	Name      string
	Content   string
	UpdatedAt time.Time
}

type noteJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Updated int64  `json:"updated"`
}

func (n Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(noteJSON{
		ID:      n.ID,
		Name:    n.Name,
		Content: n.Content,
		Updated: n.UpdatedAt.UnixMilli(),
	})
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var raw noteJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.ID = raw.ID
	n.Name = raw.Name
	n.Content = raw.Content
	n.UpdatedAt = time.UnixMilli(raw.Updated)
	return nil
}

// Clone returns a copy that does not alias the receiver.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// MarshalNotes serializes a collection in insertion order.
func MarshalNotes(ns []*Note) ([]byte, error) {
	if ns == nil {
		ns = []*Note{}
	}
	return json.Marshal(ns)
}

// UnmarshalNotes parses a serialized collection. Entries without an id are dropped.
func UnmarshalNotes(data []byte) ([]*Note, error) {
	var ns []*Note
	if err := json.Unmarshal(data, &ns); err != nil {
		return nil, err
	}
	out := ns[:0]
	for _, n := range ns {
		if n != nil && n.ID != "" {
			out = append(out, n)
		}
	}
	return out, nil
}
