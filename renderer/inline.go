package renderer

import (
	"regexp"
	"strings"
)

// Only the three characters that can open or close markup are escaped.
// Quotes are left alone in text; link destinations that contain one are not
// turned into links.
var escapeHTML = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace

var (
	boldRegexp   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRegexp = regexp.MustCompile(`\*(.+?)\*`)
	linkRegexp   = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s"<>]+)\)`)
)

// RenderInline escapes raw and converts bold, italic and link markup into
// <strong>, <em> and <a> tags. The steps run in a fixed order: escaping
// first, so that the only tags in the output are the ones added here, then
// bold before italic, so that a "**" pair is never read as two "*" markers.
// Unmatched markers are kept as literal text.
func RenderInline(raw string, opts Options) string {
	s := escapeHTML(raw)
	s = boldRegexp.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRegexp.ReplaceAllString(s, "<em>$1</em>")
	return linkRegexp.ReplaceAllStringFunc(s, func(m string) string {
		sub := linkRegexp.FindStringSubmatch(m)
		label, url := sub[1], sub[2]
		text := label
		if opts.LinkText == LinkURL {
			text = url
		}
		return `<a href="` + url + `" target="_blank" rel="noopener noreferrer">` + text + `</a>`
	})
}
