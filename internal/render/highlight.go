package render

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultGrammar is the grammar used for the raw note view.
const DefaultGrammar = "markdown"

func lexerFor(grammar string) chroma.Lexer {
	l := lexers.Get(grammar)
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

func styleFor(name string) *chroma.Style {
	s := styles.Get(name)
	if s == nil {
		s = styles.Fallback
	}
	return s
}

// HighlightHTML tokenizes text with grammar and returns class-annotated
// HTML spans, without a surrounding <pre>. A trailing newline gets an
// explicit <br> so the last empty line keeps its height.
func HighlightHTML(text, grammar string) (string, error) {
	it, err := lexerFor(grammar).Tokenise(nil, text)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	f := chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true))

	var b strings.Builder
	b.WriteString(`<code class="language-` + grammar + `">`)
	if err := f.Format(&b, styles.Fallback, it); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	b.WriteString(`</code>`)
	if strings.HasSuffix(text, "\n") {
		b.WriteString("<br>")
	}
	return b.String(), nil
}

// HighlightTerminal returns text coloured with 256-colour escape codes.
func HighlightTerminal(text, grammar, style string) (string, error) {
	it, err := lexerFor(grammar).Tokenise(nil, text)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	var b strings.Builder
	if err := formatters.TTY256.Format(&b, styleFor(style), it); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return b.String(), nil
}
