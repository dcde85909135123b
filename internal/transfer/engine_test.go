package transfer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/penwern/curate-sharepoint-uploader/internal/errdefs"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
)

type fakeSource struct {
	calls   int
	content string
	// length overrides the reported Content-Length when set; -1 means
	// "report the real length".
	length int64
	err    error
}

func (s *fakeSource) OpenContentStream(ctx context.Context, siteID, driveID, itemID string) (io.ReadCloser, int64, error) {
	s.calls++
	if s.err != nil {
		return nil, 0, s.err
	}
	length := int64(len(s.content))
	if s.length >= 0 {
		length = s.length
	}
	return io.NopCloser(strings.NewReader(s.content)), length, nil
}

type fakeDestination struct {
	presignCalls int
	presignURL   string
	putCalls     int
	putPath      string
	putBody      []byte
	putSize      int64
}

func (d *fakeDestination) PresignUpload(ctx context.Context, path string, meta map[string]string) (*models.PresignedUpload, error) {
	d.presignCalls++
	return &models.PresignedUpload{
		Path:   path,
		URL:    d.presignURL,
		Header: http.Header{"X-Pydio-Bearer": []string{"test-key"}},
	}, nil
}

func (d *fakeDestination) PutObject(ctx context.Context, path string, body io.Reader, size int64) error {
	d.putCalls++
	d.putPath = path
	d.putSize = size
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	d.putBody = data
	return nil
}

func newTestEngine(source Source) *Engine {
	engine := NewEngine(source, &http.Client{})
	return engine
}

func TestTransferRejectsOversizeBeforeNetwork(t *testing.T) {
	source := &fakeSource{content: "irrelevant", length: -1}
	dest := &fakeDestination{}
	engine := newTestEngine(source)
	engine.maxTransferSize = 1024

	result := engine.Transfer(context.Background(), dest, Spec{
		Path:         "container/huge.bin",
		DeclaredSize: 2048,
	})

	if result.Success {
		t.Fatal("expected failure for oversize file")
	}
	if !errdefs.IsSizeLimit(result.Err) {
		t.Fatalf("expected SizeLimitError, got %v", result.Err)
	}
	if source.calls != 0 {
		t.Fatalf("expected no source calls, got %d", source.calls)
	}
	if dest.presignCalls != 0 || dest.putCalls != 0 {
		t.Fatalf("expected no destination calls, got presign=%d put=%d", dest.presignCalls, dest.putCalls)
	}
}

func TestTransferStreamingRoundTrip(t *testing.T) {
	content := "streamed file payload"

	var gotMethod, gotBearer string
	var gotLength int64
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBearer = r.Header.Get("X-Pydio-Bearer")
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	source := &fakeSource{content: content, length: -1}
	dest := &fakeDestination{presignURL: server.URL + "/io/quarantine/x"}
	engine := newTestEngine(source)

	result := engine.Transfer(context.Background(), dest, Spec{
		Path:         "container/doc.txt",
		DeclaredSize: int64(len(content)),
	})

	if !result.Success {
		t.Fatalf("transfer failed: %v", result.Err)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", result.StatusCode)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if gotBearer != "test-key" {
		t.Fatalf("expected presigned header forwarded, got %q", gotBearer)
	}
	if gotLength != int64(len(content)) {
		t.Fatalf("expected Content-Length %d, got %d", len(content), gotLength)
	}
	if string(gotBody) != content {
		t.Fatalf("body mismatch: %q", gotBody)
	}
	if dest.putCalls != 0 {
		t.Fatal("streaming path must not use PutObject")
	}
}

func TestTransferStreamingRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer server.Close()

	source := &fakeSource{content: "payload", length: -1}
	dest := &fakeDestination{presignURL: server.URL}
	engine := newTestEngine(source)

	result := engine.Transfer(context.Background(), dest, Spec{
		Path:         "container/doc.txt",
		DeclaredSize: 7,
	})

	if result.Success {
		t.Fatal("expected failure for rejected upload")
	}
	if result.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", result.StatusCode)
	}
	if !errdefs.IsRemote(result.Err) {
		t.Fatalf("expected RemoteError, got %v", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "access denied") {
		t.Fatalf("expected response body in error, got %v", result.Err)
	}
}

func TestTransferBufferedRoundTrip(t *testing.T) {
	content := strings.Repeat("large-file-chunk", 64)
	tmpDir := t.TempDir()

	source := &fakeSource{content: content, length: -1}
	dest := &fakeDestination{}
	engine := newTestEngine(source)
	engine.multipartThreshold = 16
	engine.tempDir = tmpDir

	result := engine.Transfer(context.Background(), dest, Spec{
		Path:         "container/big.bin",
		DeclaredSize: int64(len(content)),
	})

	if !result.Success {
		t.Fatalf("transfer failed: %v", result.Err)
	}
	if dest.presignCalls != 0 {
		t.Fatal("buffered path must not presign")
	}
	if dest.putCalls != 1 {
		t.Fatalf("expected one PutObject call, got %d", dest.putCalls)
	}
	if dest.putPath != "container/big.bin" {
		t.Fatalf("unexpected put path %q", dest.putPath)
	}
	if dest.putSize != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), dest.putSize)
	}
	if string(dest.putBody) != content {
		t.Fatal("uploaded body does not match source content")
	}

	leftovers, err := filepath.Glob(filepath.Join(tmpDir, "sp-transfer-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp files not cleaned up: %v", leftovers)
	}
}

func TestTransferBufferedIntegrityMismatch(t *testing.T) {
	// Source reports more bytes than it delivers.
	source := &fakeSource{content: "short", length: 100}
	dest := &fakeDestination{}
	engine := newTestEngine(source)
	engine.multipartThreshold = 1
	engine.tempDir = t.TempDir()

	result := engine.Transfer(context.Background(), dest, Spec{
		Path:         "container/truncated.bin",
		DeclaredSize: 100,
	})

	if result.Success {
		t.Fatal("expected failure on byte count mismatch")
	}
	if !errdefs.IsIntegrity(result.Err) {
		t.Fatalf("expected IntegrityError, got %v", result.Err)
	}
	if dest.putCalls != 0 {
		t.Fatal("no upload should be attempted after a failed integrity check")
	}
}

func TestVerifyDownload(t *testing.T) {
	if err := verifyDownload(10, 10); err != nil {
		t.Fatalf("matching counts should pass: %v", err)
	}
	if err := verifyDownload(10, -1); err != nil {
		t.Fatalf("unknown expected length should pass: %v", err)
	}
	if err := verifyDownload(5, 10); err == nil {
		t.Fatal("mismatch should fail")
	}
	if err := verifyDownload(0, 0); err == nil {
		t.Fatal("zero bytes should fail")
	}

	if err := verifyDownload(5, 10); !errdefs.IsIntegrity(err) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
}
