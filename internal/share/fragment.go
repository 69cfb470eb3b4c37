// Package share carries notes in URL fragments: it encodes the active note
// into the address, decodes incoming share links and reconciles them with
// the note store.
package share

import "strings"

// legacySep separates the historical view-mode flag from the token.
const legacySep = "|"

// Fragment is a parsed URL fragment. Both variants decode the same way.
type Fragment interface {
	Token() string
	String() string
}

// PlainToken is the current fragment format: the bare compressed token.
type PlainToken struct {
	Raw string
}

func (p PlainToken) Token() string  { return p.Raw }
func (p PlainToken) String() string { return p.Raw }

// LegacyTaggedToken is the old "flag|token" format. The flag is ignored.
type LegacyTaggedToken struct {
	Flag string
	Raw  string
}

func (l LegacyTaggedToken) Token() string  { return l.Raw }
func (l LegacyTaggedToken) String() string { return l.Flag + legacySep + l.Raw }

// ParseFragment classifies raw by the presence of the legacy separator.
// A leading '#' is dropped.
func ParseFragment(raw string) Fragment {
	raw = strings.TrimPrefix(raw, "#")
	if flag, token, ok := strings.Cut(raw, legacySep); ok {
		return LegacyTaggedToken{Flag: flag, Raw: token}
	}
	return PlainToken{Raw: raw}
}

// FragmentFromLink extracts the fragment from a full share URL, a
// "#fragment" or a bare token. A URL without a fragment yields "".
func FragmentFromLink(link string) string {
	link = strings.TrimSpace(link)
	if _, frag, ok := strings.Cut(link, "#"); ok {
		return frag
	}
	if strings.Contains(link, "://") {
		return ""
	}
	return link
}
