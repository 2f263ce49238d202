package export

import (
	"regexp"
	"strings"
)

// Markdown returns text unchanged as the body of a raw download.
func Markdown(text string) []byte {
	return []byte(text)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename derives the download name "<prefix>-<id>.md". Characters of id
// that are not safe in a file name or a Content-Disposition header are
// replaced by "_".
func Filename(prefix, id string) string {
	id = unsafeFilenameChars.ReplaceAllString(id, "_")
	id = strings.Trim(id, ".")
	if id == "" {
		id = "document"
	}
	if prefix == "" {
		return id + ".md"
	}
	return prefix + "-" + id + ".md"
}
