package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trainkit/reportgen/pkg/report"
)

// newTestServer wires a server against temp directories, a throwaway
// sqlite file and minimal page templates.
func newTestServer(t *testing.T) (*Server, Config) {
	t.Helper()

	root := t.TempDir()
	cfg := defaultConfig()
	cfg.TemplateDir = filepath.Join(root, "templates")
	cfg.UploadDir = filepath.Join(root, "uploads")
	cfg.OutputDir = filepath.Join(root, "generated")
	cfg.WebDir = filepath.Join(root, "web")
	cfg.DBPath = filepath.Join(root, "test.db")

	for _, dir := range []string{cfg.TemplateDir, cfg.UploadDir, cfg.OutputDir, cfg.WebDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	pages := map[string]string{
		"index.gohtml":   `<form>{{len .Templates}}</form>`,
		"success.gohtml": `ready: {{.Filename}}`,
		"error.gohtml":   `error {{.Code}}: {{.Message}}`,
	}
	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(cfg.WebDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	history, err := NewHistoryStore(db)
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	gen := &report.Generator{TemplateDir: cfg.TemplateDir, OutputDir: cfg.OutputDir, Logger: logger}

	srv, err := NewServer(cfg, logger, gen, history)
	if err != nil {
		t.Fatal(err)
	}
	return srv, cfg
}

func serveRequest(t *testing.T, srv *Server, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestHandleIndex(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serveRequest(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != "<form>5</form>" {
		t.Errorf("body = %q", got)
	}
}

func TestHandleDownload(t *testing.T) {
	srv, cfg := newTestServer(t)

	name := "20230529_RRECL_report.docx"
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, name), []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := serveRequest(t, srv, httptest.NewRequest(http.MethodGet, "/download/"+name, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != docxMIME {
		t.Errorf("content type = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="20230529_RRECL_report.docx"` {
		t.Errorf("disposition = %q", got)
	}
}

func TestHandleDownloadMissing(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serveRequest(t, srv, httptest.NewRequest(http.MethodGet, "/download/nope.docx", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleDownloadTraversal(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/download/..%2F..%2Fetc%2Fpasswd", nil)
	w := serveRequest(t, srv, req)
	if w.Code == http.StatusOK {
		t.Error("traversal request must not succeed")
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serveRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var payload struct {
		Status string          `json:"status"`
		Checks map[string]bool `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Status != "ok" {
		t.Errorf("status = %q", payload.Status)
	}
	for check, ok := range payload.Checks {
		if !ok {
			t.Errorf("check %s failed", check)
		}
	}
}

func TestHandleHealthDegraded(t *testing.T) {
	srv, cfg := newTestServer(t)
	os.RemoveAll(cfg.OutputDir)

	w := serveRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	entries := []HistoryEntry{
		{Organization: "RRECL", TemplateFile: "word_template_1.docx", OutputFile: "a.docx", GalleryImages: 6},
		{Organization: "RRECL", TemplateFile: "word_template_2.docx", OutputFile: "b.docx", AnnexureImages: 3},
		{Organization: "Energy Dept", TemplateFile: "word_template_1.docx", OutputFile: "c.docx"},
	}
	for _, e := range entries {
		if err := srv.history.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	w := serveRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var got []HistoryEntry
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// newest first
	if got[0].OutputFile != "c.docx" {
		t.Errorf("first entry = %q, want newest", got[0].OutputFile)
	}

	w = serveRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d", w.Code)
	}
	var sum HistorySummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.TotalReports != 3 || sum.TotalImages != 9 || sum.Organizations != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestGenerateMissingTemplateIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	// No template files exist in the template directory
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("selected_template", "1")
	mw.WriteField("cell_name", "RRECL")
	mw.WriteField("event_date", "2023-05-29")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := serveRequest(t, srv, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "template") {
		t.Errorf("error page should name the template problem: %s", w.Body.String())
	}
}

func TestGenerateBadFormIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")

	w := serveRequest(t, srv, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
