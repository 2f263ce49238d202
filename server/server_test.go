package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lattesdoc/renderer"
	"lattesdoc/store"
)

const summaryText = "# Resumo\n\n| A | B |\n|---|---|\n| 1 | 2 |\n- <b>x</b>"

func newTestServer(t *testing.T) (*Server, *store.DirStore) {
	t.Helper()
	st, err := store.NewDirStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, &store.Document{Kind: store.KindSummary, ID: "123", Text: summaryText}))
	require.NoError(t, st.Put(ctx, &store.Document{Kind: store.KindAnalysis, ID: "123", Text: "## Relações"}))

	s := NewServer(Config{
		ExportPrefixes: map[store.Kind]string{store.KindSummary: "resumo", store.KindAnalysis: "analise"},
	}, st, renderer.New(renderer.DefaultOptions()))
	return s, st
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	var links []string
	doc.Find("li a").Each(func(_ int, a *goquery.Selection) {
		links = append(links, a.AttrOr("href", ""))
	})
	assert.Equal(t, []string{"/view/analysis/123", "/view/summary/123"}, links)
}

func TestView(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/view/summary/123")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Resumo", doc.Find("title").Text())
	assert.Equal(t, "Resumo", doc.Find(".document h2").Text())
	assert.Equal(t, 2, doc.Find(".document table tr").Length())
	assert.Equal(t, "<b>x</b>", doc.Find(".document li").Text())
	assert.Equal(t, 0, doc.Find(".document b").Length())
	assert.Equal(t, 0, doc.Find("script").Length())
}

func TestViewErrors(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/view/summary/999").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/view/report/123").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/view/summary/a.b").Code)
}

func TestAPIView(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/view/analysis/123")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "<h3>Relações</h3>", m["html"])

	rec = get(t, s, "/api/view/analysis/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestAPIRender(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("# T\n**b**")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h2>T</h2>\n<p><strong>b</strong></p>", decode(t, rec)["html"])

	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader(`{"text":"- a\n- b"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", decode(t, rec)["html"])

	req = httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/download/summary/123?format=md")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="resumo-123.md"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, summaryText, rec.Body.String())

	rec = get(t, s, "/download/analysis/123?format=md")
	assert.Equal(t, `attachment; filename="analise-123.md"`, rec.Header().Get("Content-Disposition"))

	rec = get(t, s, "/download/summary/123?format=pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>Resumo</h2>")
	assert.Contains(t, body, "window.print()")
	assert.Contains(t, body, "max-width: 800px")

	assert.Equal(t, http.StatusNotImplemented, get(t, s, "/download/summary/123?format=docx").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/download/summary/123?format=rtf").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/download/summary/123").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/download/summary/9?format=md").Code)
}

func TestLiveReload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "summary"), 0o755))

	lr, err := NewLiveReload(dir)
	require.NoError(t, err)
	require.NoError(t, lr.Start())
	defer lr.Stop()

	ts := httptest.NewServer(http.HandlerFunc(lr.HandleWebSocket))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return lr.clientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary", "1.md"), []byte("# x"), 0o644))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))
}

func TestLiveReloadMergesPendingReloads(t *testing.T) {
	lr, err := NewLiveReload(t.TempDir())
	require.NoError(t, err)
	defer lr.Stop()

	// Not started, so nothing drains the queue.
	lr.requestReload()
	lr.requestReload()
	lr.requestReload()
	assert.Len(t, lr.broadcast, 1)
}
