package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
)

type recordingRunner struct {
	mu      sync.Mutex
	batches []models.UploadBatch
	done    chan struct{}
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{done: make(chan struct{}, 8)}
}

func (r *recordingRunner) RunBatch(ctx context.Context, batch models.UploadBatch) {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingRunner) wait(t *testing.T) models.UploadBatch {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch was never dispatched")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func newTestServer(runner BatchRunner) *Server {
	cfg := config.ServerConfig{ListenAddr: ":0", AllowedOrigin: "https://tenant.sharepoint.com"}
	return New(cfg, runner)
}

const validBatch = `{
	"curateDetails": {"apiKey": "key-1", "siteUrl": "curate.example.com"},
	"sharepointDetails": {"siteId": "site-1", "drivePath": "Documents"},
	"uploadItems": [
		{"id": "item-1", "spId": "3", "driveId": "drive-1", "name": "report.pdf", "fileSize": "2048", "type": "File"}
	],
	"userInfo": {"name": "Ada Lovelace", "email": "ada@example.com"}
}`

func TestHandleUploadAcceptsAndDispatches(t *testing.T) {
	runner := newRecordingRunner()
	srv := newTestServer(runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/uploadSharePointPackage", strings.NewReader(validBatch))
	req.Header.Set("Content-Type", "application/json")
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatal("expected success: true")
	}
	if resp.Message != "Upload task initiated successfully." {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	batch := runner.wait(t)
	if batch.CurateDetails.APIKey != "key-1" {
		t.Fatalf("unexpected api key %q", batch.CurateDetails.APIKey)
	}
	if len(batch.UploadItems) != 1 || batch.UploadItems[0].FileSize != 2048 {
		t.Fatalf("batch not decoded as expected: %+v", batch.UploadItems)
	}
	if batch.UploadItems[0].Type != models.ItemTypeFile {
		t.Fatalf("unexpected item type %q", batch.UploadItems[0].Type)
	}
}

func TestHandleUploadRejectsMalformedJSON(t *testing.T) {
	runner := newRecordingRunner()
	srv := newTestServer(runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/uploadSharePointPackage", strings.NewReader(`{"curateDetails": {`))
	req.Header.Set("Content-Type", "application/json")
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	select {
	case <-runner.done:
		t.Fatal("malformed batch must not be dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleUploadRejectsMissingRequiredFields(t *testing.T) {
	runner := newRecordingRunner()
	srv := newTestServer(runner)

	// Valid JSON but no curateDetails.apiKey.
	body := `{
		"curateDetails": {"siteUrl": "curate.example.com"},
		"sharepointDetails": {"siteId": "site-1"},
		"uploadItems": [],
		"userInfo": {"name": "Ada", "email": "ada@example.com"}
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/uploadSharePointPackage", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(newRecordingRunner())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	srv := newTestServer(newRecordingRunner())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/uploadSharePointPackage", nil)
	req.Header.Set("Origin", "https://tenant.sharepoint.com")
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://tenant.sharepoint.com" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("unexpected allow-credentials %q", got)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(newRecordingRunner())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	srv.engine.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	// Generated when absent.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.engine.ServeHTTP(w, req)
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}
}
