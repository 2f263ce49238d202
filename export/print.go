// Package export produces the artifacts offered for download: a standalone
// printable HTML document around a rendered fragment, and the raw markdown.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
)

// Stylesheet is embedded in every print document.
const Stylesheet = `body { font-family: Arial, sans-serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
h1, h2, h3, h4 { color: #1e3a5f; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
td, th { border: 1px solid #ddd; padding: 8px; text-align: left; }
ul, ol { padding-left: 1.5rem; }
a { color: #1e3a5f; }`

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
{{.Content}}
{{- if .AutoPrint}}
<script>window.onload = function () { window.print(); };</script>
{{- end}}
</body>
</html>
`))

// PrintOptions controls PrintDocument.
type PrintOptions struct {
	Title string
	// AutoPrint adds a script that opens the print dialog once the document
	// has loaded in a browser.
	AutoPrint bool
}

// PrintDocument wraps an HTML fragment produced by a renderer engine in a
// standalone document with a fixed stylesheet. The fragment is trusted and
// inserted as is.
func PrintDocument(fragment string, opts PrintOptions) ([]byte, error) {
	data := struct {
		Title     string
		Style     template.CSS
		Content   template.HTML
		AutoPrint bool
	}{
		Title:     opts.Title,
		Style:     template.CSS(Stylesheet),
		Content:   template.HTML(fragment),
		AutoPrint: opts.AutoPrint,
	}
	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute print template: %w", err)
	}
	return buf.Bytes(), nil
}

// Printer hands a print document to the host's print mechanism.
type Printer interface {
	Print(ctx context.Context, doc []byte) error
}

// WriterPrinter "prints" by writing the document to W, leaving the actual
// printing to whatever opens it.
type WriterPrinter struct {
	W io.Writer
}

// Print writes doc to p.W.
func (p WriterPrinter) Print(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.W.Write(doc); err != nil {
		return fmt.Errorf("write print document: %w", err)
	}
	return nil
}
