package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"lattesdoc/export"
	"lattesdoc/renderer"
	"lattesdoc/store"
)

// maxRenderBody bounds the body of POST /api/render.
const maxRenderBody = 4 << 20

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>{{.Title}}</title>
	<link rel="stylesheet" href="/assets/style.css">
</head>
<body>
	<div class="container">
		<p class="meta">{{.Meta}}</p>
		<p class="downloads"><a href="{{.DownloadMD}}">Markdown</a> · <a href="{{.DownloadPDF}}" target="_blank">PDF</a></p>
		<div class="document">
		{{.Content}}
		</div>
	</div>
	{{- if .LiveReload}}
	<script>
	(function () {
		var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/livereload");
		ws.onmessage = function () { location.reload(); };
	})();
	</script>
	{{- end}}
</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Documents</title>
<link rel="stylesheet" href="/assets/style.css">
</head><body><div class="container"><h1>Documents</h1><ul>
{{- range .}}
<li><a href="/view/{{.Kind}}/{{.ID}}">{{.Kind}} {{.ID}}</a> <span class="meta">{{.Size}}, {{.Age}}</span></li>
{{- else}}
<li>No documents found</li>
{{- end}}
</ul></div></body></html>
`))

// handleIndex lists every stored document
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		log.Printf("Store: list failed: %v", err)
		http.Error(w, "Failed to list documents", http.StatusServiceUnavailable)
		return
	}

	type row struct {
		Kind      store.Kind
		ID        string
		Size, Age string
	}
	rows := make([]row, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, row{
			Kind: info.Kind,
			ID:   info.ID,
			Size: humanize.Bytes(uint64(info.Size)),
			Age:  humanize.Time(info.GeneratedAt),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, rows); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}

// handleView serves a stored document as an HTML page
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	doc, status, err := s.lookup(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	data := struct {
		Title       string
		Meta        string
		Content     template.HTML
		DownloadMD  string
		DownloadPDF string
		LiveReload  bool
	}{
		Title:       documentTitle(doc),
		Meta:        describe(doc),
		Content:     template.HTML(s.engine.Render(doc.Text)),
		DownloadMD:  downloadPath(doc, "md"),
		DownloadPDF: downloadPath(doc, "pdf"),
		LiveReload:  s.liveReload != nil,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}

// handleDownload serves the raw markdown (format=md) or a print document
// (format=pdf). DOCX is not implemented.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "md" && format != "pdf" && format != "docx" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "format must be md, docx or pdf"})
		return
	}

	doc, status, err := s.lookup(r)
	if err != nil {
		writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
		return
	}

	switch format {
	case "md":
		filename := export.Filename(s.config.ExportPrefixes[doc.Kind], doc.ID)
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(export.Markdown(doc.Text))
	case "pdf":
		page, err := export.PrintDocument(s.engine.Render(doc.Text), export.PrintOptions{
			Title:     documentTitle(doc),
			AutoPrint: true,
		})
		if err != nil {
			log.Printf("Export: print document for %s/%s: %v", doc.Kind, doc.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to build print document"})
			return
		}
		if err := (responsePrinter{w}).Print(r.Context(), page); err != nil {
			log.Printf("Export: %v", err)
		}
	case "docx":
		writeJSON(w, http.StatusNotImplemented, map[string]any{"success": false, "error": "DOCX export is not implemented"})
	}
}

// handleAPIView returns a stored document rendered to HTML, with metadata
func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	doc, status, err := s.lookup(r)
	if err != nil {
		writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"html":        s.engine.Render(doc.Text),
		"provider":    doc.Provider,
		"model":       doc.Model,
		"generatedAt": doc.GeneratedAt,
	})
}

// handleAPIRender renders the markdown in the request body. The body is
// either plain text or a JSON object {"text": "..."}.
func (s *Server) handleAPIRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRenderBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"success": false, "error": "request body too large"})
		return
	}

	text := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
			return
		}
		text = req.Text
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "html": s.engine.Render(text)})
}

// handleCSS serves the page stylesheet
func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	io.WriteString(w, pageCSS)
}

// lookup resolves the {kind}/{id} path values to a stored document, or to
// an HTTP status and error.
func (s *Server) lookup(r *http.Request) (*store.Document, int, error) {
	kind, err := store.ParseKind(r.PathValue("kind"))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	doc, err := s.store.Get(r.Context(), kind, r.PathValue("id"))
	switch {
	case err == nil:
		return doc, http.StatusOK, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, http.StatusNotFound, err
	case errors.Is(err, store.ErrInvalidID):
		return nil, http.StatusBadRequest, err
	}
	log.Printf("Store: get %s/%s: %v", kind, r.PathValue("id"), err)
	return nil, http.StatusServiceUnavailable, errors.New("document store unavailable")
}

// responsePrinter hands print documents to the browser, which prints them
// through the auto-print script.
type responsePrinter struct {
	w http.ResponseWriter
}

var _ export.Printer = responsePrinter{}

func (p responsePrinter) Print(ctx context.Context, doc []byte) error {
	p.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := p.w.Write(doc)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}

// documentTitle returns the first heading of the document, or its kind and
// id when there is none.
func documentTitle(doc *store.Document) string {
	for _, b := range renderer.Scan(doc.Text, renderer.DefaultOptions()) {
		if h, ok := b.(renderer.Heading); ok {
			return h.Text
		}
	}
	return fmt.Sprintf("%s %s", doc.Kind, doc.ID)
}

func describe(doc *store.Document) string {
	var parts []string
	if doc.Provider != "" || doc.Model != "" {
		parts = append(parts, strings.TrimSpace(doc.Provider+" "+doc.Model))
	}
	if !doc.GeneratedAt.IsZero() {
		parts = append(parts, "generated "+humanize.Time(doc.GeneratedAt))
	}
	return strings.Join(parts, " · ")
}

func downloadPath(doc *store.Document, format string) string {
	return fmt.Sprintf("/download/%s/%s?format=%s", doc.Kind, doc.ID, format)
}

const pageCSS = `body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; line-height: 1.6; }
h2, h3, h4 { color: #1e3a5f; }
table { border-collapse: collapse; width: 100%; }
td { border: 1px solid #ddd; padding: 8px 12px; }
.meta { color: #777; font-size: 0.9em; }
.downloads a { margin-right: 0.5em; }`
