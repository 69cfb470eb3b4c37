package share

import "strings"

// Location is the visible share address: a base URL plus the fragment
// naming the active note. Replacing the fragment never adds history.
type Location struct {
	Base     string
	Fragment string
}

func (l *Location) Replace(fragment string) {
	l.Fragment = strings.TrimPrefix(fragment, "#")
}

func (l *Location) Clear() {
	l.Fragment = ""
}

// URL renders the address. Without a fragment it is just the base.
func (l Location) URL() string {
	base, _, _ := strings.Cut(l.Base, "#")
	if l.Fragment == "" {
		return base
	}
	return base + "#" + l.Fragment
}
