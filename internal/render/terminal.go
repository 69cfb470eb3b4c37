package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const resetSeq = "\x1b[0m"

var fadedLine = lipgloss.NewStyle().Faint(true)

// Terminal renders notes for the TUI. It caches the glamour renderer for
// the current width.
type Terminal struct {
	style          string
	highlightStyle string
	width          int
	glamour        *glamour.TermRenderer
}

// NewTerminal returns a renderer using the glamour style ("auto" detects
// the background) and the chroma style for the raw view.
func NewTerminal(style, highlightStyle string) *Terminal {
	if style == "" {
		style = "auto"
	}
	return &Terminal{style: style, highlightStyle: highlightStyle}
}

func (t *Terminal) renderer(width int) (*glamour.TermRenderer, error) {
	if t.glamour != nil && t.width == width {
		return t.glamour, nil
	}
	styleOpt := glamour.WithStandardStyle(t.style)
	if t.style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("glamour renderer: %w", err)
	}
	t.glamour, t.width = r, width
	return r, nil
}

// Preview is the full markdown render.
func (t *Terminal) Preview(text string, width int) (string, error) {
	if width < 20 {
		width = 20
	}
	r, err := t.renderer(width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(normalizeNewlines(text))
	if err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return out, nil
}

// Raw is the highlighted source view. The line holding the caret keeps its
// colours; the others are faded. A negative caretLine fades nothing.
func (t *Terminal) Raw(text string, caretLine int) (string, error) {
	text = normalizeNewlines(text)
	highlighted, err := HighlightTerminal(text, DefaultGrammar, t.highlightStyle)
	if err != nil {
		return "", err
	}
	if caretLine < 0 {
		return highlighted, nil
	}

	lines := strings.Split(highlighted, "\n")
	for i, line := range lines {
		if i == caretLine {
			lines[i] = line + resetSeq
			continue
		}
		plain := ansi.Strip(line)
		if plain == "" {
			lines[i] = ""
			continue
		}
		lines[i] = fadedLine.Render(plain)
	}
	return strings.Join(lines, "\n"), nil
}
