package notes

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

// DefaultName is the placeholder used when content yields no usable title.
const DefaultName = "Untitled Note"

const maxNameLen = 40

var (
	headingMarkRe  = regexp.MustCompile(`^#+\s*`)
	uniqueSuffixRe = regexp.MustCompile(` - \d+$`)
)

// DeriveName returns a title candidate for content: the first line with its
// heading marks removed, capped at 40 UTF-16 code units.
func DeriveName(content string) string {
	if strings.TrimSpace(content) == "" {
		return DefaultName
	}
	first, _, _ := strings.Cut(content, "\n")
	first = strings.TrimSpace(headingMarkRe.ReplaceAllString(first, ""))
	if first == "" {
		return DefaultName
	}
	return capUTF16(first, maxNameLen)
}

// capUTF16 keeps the first limit UTF-16 code units of s, the unit names are
// measured in wherever the collection is shared. A surrogate pair cut in
// half is dropped whole.
func capUTF16(s string, limit int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= limit {
		return s
	}
	units = units[:limit]
	if last := units[limit-1]; last >= 0xd800 && last < 0xdc00 {
		units = units[:limit-1]
	}
	return string(utf16.Decode(units))
}
