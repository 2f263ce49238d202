// Package renderer turns generated markdown into HTML fragments.
//
// The default engine understands a small subset of markdown: headings of
// levels 2 to 4, horizontal rules, pipe tables, unordered and ordered lists,
// bold, italic and links to http(s) URLs. Text is first split into blocks by
// Scan and each block's text is then rendered by RenderInline, so inline
// markup never spans two blocks. Input is treated as untrusted: the output
// contains escaped text plus a fixed set of tags, nothing else.
//
// Inline markup is matched by successive substitutions, not by a nesting
// parser, so overlapping markers produce tags that cross: "***x***" becomes
// <strong><em>x</strong></em>, and an italic run that ends inside a link
// label crosses the <a> tag. Browsers repair such markup; it never lets
// input text become a tag.
//
// Render is not idempotent. Its output is HTML and must never be passed back
// in as markdown.
package renderer

import (
	"fmt"
	"strings"
)

// LinkTextMode selects the visible text of a rendered link.
type LinkTextMode int

const (
	// LinkLabel shows the bracketed label of [label](url).
	LinkLabel LinkTextMode = iota
	// LinkURL shows the URL itself.
	LinkURL
)

// ParseLinkTextMode parses "label" or "url".
func ParseLinkTextMode(s string) (LinkTextMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "label":
		return LinkLabel, nil
	case "url":
		return LinkURL, nil
	}
	return LinkLabel, fmt.Errorf("unknown link text mode %q (want label or url)", s)
}

func (m LinkTextMode) String() string {
	if m == LinkURL {
		return "url"
	}
	return "label"
}

// Options configures the subset engine.
type Options struct {
	// OrderedLists enables "1. item" lines as ordered list items.
	OrderedLists bool
	// HorizontalRules enables "---" lines as dividers.
	HorizontalRules bool
	// LinkText selects what a link displays.
	LinkText LinkTextMode
	// TableClass, when set, is added as the class attribute of tables.
	TableClass string
}

// DefaultOptions returns the options used by Render.
func DefaultOptions() Options {
	return Options{
		OrderedLists:    true,
		HorizontalRules: true,
		LinkText:        LinkLabel,
	}
}

// Engine renders markdown text into an HTML fragment.
type Engine interface {
	Render(text string) string
}

// Renderer is the subset engine. It is immutable and safe for concurrent use.
type Renderer struct {
	opts      Options
	tableOpen string
}

// New returns a Renderer using opts.
func New(opts Options) *Renderer {
	tableOpen := "<table>"
	if opts.TableClass != "" {
		tableOpen = `<table class="` + escapeAttr(opts.TableClass) + `">`
	}
	return &Renderer{opts: opts, tableOpen: tableOpen}
}

var defaultRenderer = New(DefaultOptions())

// Render renders text with DefaultOptions.
func Render(text string) string {
	return defaultRenderer.Render(text)
}

// Render renders text as an HTML fragment, one element per block, separated
// by newlines. It never fails; an empty text yields an empty string.
func (r *Renderer) Render(text string) string {
	var sb strings.Builder
	for _, b := range Scan(text, r.opts) {
		frag := r.renderBlock(b)
		if frag == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(frag)
	}
	return sb.String()
}

func (r *Renderer) renderBlock(b Block) string {
	var sb strings.Builder
	switch b := b.(type) {
	case Heading:
		fmt.Fprintf(&sb, "<h%d>%s</h%d>", b.Level, r.inline(b.Text), b.Level)
	case Rule:
		sb.WriteString("<hr />")
	case Table:
		sb.WriteString(r.tableOpen)
		for _, row := range b.Rows {
			sb.WriteString("<tr>")
			for _, cell := range row.Cells {
				sb.WriteString("<td>")
				sb.WriteString(r.inline(cell))
				sb.WriteString("</td>")
			}
			sb.WriteString("</tr>")
		}
		sb.WriteString("</table>")
	case List:
		tag := "ul"
		if b.Ordered {
			tag = "ol"
		}
		sb.WriteString("<" + tag + ">")
		for _, item := range b.Items {
			sb.WriteString("<li>")
			sb.WriteString(r.inline(item))
			sb.WriteString("</li>")
		}
		sb.WriteString("</" + tag + ">")
	case Paragraph:
		if text := r.inline(b.Text); text != "" {
			sb.WriteString("<p>")
			sb.WriteString(text)
			sb.WriteString("</p>")
		}
	}
	return sb.String()
}

func (r *Renderer) inline(s string) string {
	return RenderInline(s, r.opts)
}

var escapeAttr = strings.NewReplacer(
	"&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;").Replace

// Engine names accepted by NewEngine.
const (
	EngineSubset   = "subset"
	EngineGoldmark = "goldmark"
)

// NewEngine returns the engine called name. opts only applies to the subset
// engine.
func NewEngine(name string, opts Options) (Engine, error) {
	switch name {
	case "", EngineSubset:
		return New(opts), nil
	case EngineGoldmark:
		return NewGoldmark(), nil
	}
	return nil, fmt.Errorf("unknown render engine %q", name)
}
