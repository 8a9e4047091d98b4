package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/classify"
	"github.com/dgallion1/specscan/internal/config"
	"github.com/dgallion1/specscan/internal/extract"
	"github.com/dgallion1/specscan/internal/pipeline"
	"github.com/dgallion1/specscan/internal/tiler"
)

const testKey = "secret"

const structuredDoc = `--- PAGE 1 ---
DIVISION 03 - CONCRETE
SECTION 03 30 00 - CAST-IN-PLACE CONCRETE
PART 1 - GENERAL
Concrete work.
--- PAGE 2 ---
DIVISION 04 - MASONRY
SECTION 04 20 00 - UNIT MASONRY
PART 1 - GENERAL
Face brick and mortar.
--- PAGE 3 ---
DIVISION 05 - METALS
SECTION 05 12 00 - STRUCTURAL STEEL
PART 1 - GENERAL
Steel framing.`

var plainDoc = strings.Repeat("lorem ipsum dolor sit amet ", 20)

type stubClassifier struct {
	mu    sync.Mutex
	match map[int]bool
	fail  bool
}

func (c *stubClassifier) Classify(_ context.Context, tile tiler.Tile, _ classify.Target) (classify.Verdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return classify.Verdict{}, errors.New("rate limited")
	}
	return classify.Verdict{HasContent: c.match[tile.Index], Confidence: classify.ConfidenceHigh, Evidence: []string{}}, nil
}

func newTestServer(t *testing.T, cl *stubClassifier) *Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	scanner := classify.NewScanner(cl, classify.Config{BatchSize: 5, Attempts: 1}, log)
	analyzer := pipeline.NewAnalyzer(pipeline.Options{
		Cache:   cache.New(cache.NewMemoryStore(), log),
		Scanner: scanner,
		Tiles:   tiler.Config{Budget: 100, Overlap: 10},
	}, log)
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{WorkerCount: 1, MaxQueueSize: 4}, analyzer, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	cfg := config.Config{APIKey: testKey, MaxUploadBytes: 1 << 20}
	return NewServer(orch, extract.NewClaudeClient("key", "claude-test"), log, cfg)
}

func do(t *testing.T, srv http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, srv http.Handler, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return do(t, srv, http.MethodPost, path, bytes.NewReader(b), "application/json")
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{})
	for _, header := range []string{"", "Bearer wrong", "Basic secret"} {
		req := httptest.NewRequest(http.MethodGet, "/api/divisions", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/divisions", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzeFromDivisionMapThenCached(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{})
	body := map[string]any{"document": structuredDoc, "division": "04", "file_name": "../spec.txt"}

	rec := postJSON(t, srv, "/api/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode(t, rec)
	assert.Equal(t, "division-map", first["source"])
	assert.Equal(t, false, first["cached"])
	assert.Contains(t, first["stitched_text"], "Face brick and mortar.")

	rec = postJSON(t, srv, "/api/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode(t, rec)
	assert.Equal(t, true, second["cached"])
	assert.Equal(t, first["document_hash"], second["document_hash"])
}

func TestAnalyzeContractTermsAndCrossReferences(t *testing.T) {
	doc := strings.Replace(structuredDoc, "DIVISION 03 - CONCRETE\nSECTION 03 30 00 - CAST-IN-PLACE CONCRETE\nPART 1 - GENERAL\nConcrete work.",
		"DIVISION 01 - GENERAL REQUIREMENTS\nSECTION 01 29 00 - PAYMENT PROCEDURES\nPART 1 - GENERAL\nMonthly pay applications.", 1)
	doc = strings.Replace(doc, "Face brick and mortar.", "Face brick and mortar. Flashing per Section 07 62 00.", 1)

	rec := postJSON(t, newTestServer(t, &stubClassifier{}), "/api/analyze", map[string]any{
		"document":               doc,
		"division":               "04",
		"include_contract_terms": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Contains(t, out["contract_terms_text"], "Monthly pay applications.")
	assert.Equal(t, []any{"07 62 00"}, out["cross_references"])
	assert.Equal(t, []any{}, out["matches"])
}

func TestAnalyzeStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		cl   *stubClassifier
		body any
		want int
	}{
		{"missing division", &stubClassifier{}, map[string]any{"document": plainDoc}, http.StatusBadRequest},
		{"empty document", &stubClassifier{}, map[string]any{"division": "04"}, http.StatusBadRequest},
		{"not found", &stubClassifier{}, map[string]any{"document": plainDoc, "division": "04"}, http.StatusNotFound},
		{"classifier down", &stubClassifier{fail: true}, map[string]any{"document": plainDoc, "division": "04"}, http.StatusServiceUnavailable},
		{"found by scan", &stubClassifier{match: map[int]bool{1: true}}, map[string]any{"document": plainDoc, "division": "masonry"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, newTestServer(t, tt.cl), "/api/analyze", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAnalyzeNotFoundCarriesPartialResult(t *testing.T) {
	rec := postJSON(t, newTestServer(t, &stubClassifier{}), "/api/analyze", map[string]any{"document": plainDoc, "division": "04"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	out := decode(t, rec)
	result, ok := out["result"].(map[string]any)
	require.True(t, ok, "expected partial result, got %v", out)
	assert.Equal(t, float64(0), result["matched_tile_count"])
	assert.Equal(t, "tile-scan", result["source"])
}

func TestAnalyzeBadJSON(t *testing.T) {
	rec := do(t, newTestServer(t, &stubClassifier{}), http.MethodPost, "/api/analyze", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUpload(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{})

	body, ct := multipartBody(t, "spec.txt", structuredDoc, map[string]string{"division": "04", "skip_cache": "true"})
	rec := do(t, srv, http.MethodPost, "/api/analyze/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "division-map", decode(t, rec)["source"])

	body, ct = multipartBody(t, "spec.csv", "a,b", map[string]string{"division": "04"})
	rec = do(t, srv, http.MethodPost, "/api/analyze/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, "spec.txt", structuredDoc, nil)
	rec = do(t, srv, http.MethodPost, "/api/analyze/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStructureEndpoint(t *testing.T) {
	rec := postJSON(t, newTestServer(t, &stubClassifier{}), "/api/structure", map[string]any{"document": structuredDoc})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	st := out["structure"].(map[string]any)
	assert.Equal(t, "division-headers", st["extraction_method"])
	dm := st["division_map"].(map[string]any)
	assert.Contains(t, dm, "04")
	assert.Equal(t, float64(3), out["total_pages"])
}

func TestJobLifecycle(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{})

	body, ct := multipartBody(t, "spec.txt", structuredDoc, map[string]string{"division": "masonry"})
	rec := do(t, srv, http.MethodPost, "/api/jobs", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	out := decode(t, rec)
	jobID, _ := out["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "/api/jobs/"+jobID+"/status", out["poll_url"])

	require.Eventually(t, func() bool {
		rec := do(t, srv, http.MethodGet, "/api/jobs/"+jobID+"/status", nil, "")
		return rec.Code == http.StatusOK && decode(t, rec)["status"] == string(pipeline.StatusCompleted)
	}, 5*time.Second, 10*time.Millisecond)

	rec = do(t, srv, http.MethodGet, "/api/jobs/"+jobID+"/result", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "04", decode(t, rec)["division"])

	rec = do(t, srv, http.MethodGet, "/api/jobs/nope/status", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/jobs/nope/result", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCacheEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{})
	rec := postJSON(t, srv, "/api/analyze", map[string]any{"document": structuredDoc, "division": "04", "file_name": "Project Manual.pdf"})
	require.Equal(t, http.StatusOK, rec.Code)
	hash := decode(t, rec)["document_hash"].(string)

	rec = do(t, srv, http.MethodGet, "/api/cache/"+hash, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode(t, rec)
	assert.Equal(t, hash, entry["document_hash"])
	assert.Equal(t, "Project Manual.pdf", entry["file_name"])

	rec = do(t, srv, http.MethodGet, "/api/cache/"+hash+"/export.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="project-manual-divisions.xlsx"`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = do(t, srv, http.MethodDelete, "/api/cache/"+hash, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/cache/"+hash, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/cache/"+hash, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDivisionsAndStats(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{})

	rec := do(t, srv, http.MethodGet, "/api/divisions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.NotEmpty(t, out["divisions"])
	assert.NotEmpty(t, out["trades"])

	rec = do(t, srv, http.MethodGet, "/api/stats/llm", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.Equal(t, "anthropic", out["provider"])
	assert.Equal(t, "claude-test", out["model"])
	assert.Contains(t, out, "stats")
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"spec.pdf":         "spec.pdf",
		"../../etc/passwd": "passwd",
		"a\\b.txt":         "a_b.txt",
		"/":                "_",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
