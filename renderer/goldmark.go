package renderer

import (
	"bytes"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Goldmark is an Engine backed by goldmark with GitHub Flavored Markdown.
// Raw HTML in the input is not passed through.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark returns a goldmark-backed Engine.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM, // tables, strikethrough, task lists, autolinks
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithXHTML(),
			),
		),
	}
}

// Render converts text to HTML. Conversion errors only come from the
// writer, which is an in-memory buffer here; if one does happen the text is
// returned escaped inside a paragraph.
func (g *Goldmark) Render(text string) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(text), &buf); err != nil {
		log.Printf("Renderer: goldmark conversion failed: %v", err)
		return "<p>" + escapeHTML(text) + "</p>"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
