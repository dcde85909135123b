// Package transfer moves one file's bytes from the source document library
// to the destination store, choosing a streaming or buffered strategy by
// declared size.
package transfer

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"os"

	"github.com/penwern/curate-sharepoint-uploader/internal/constants"
	"github.com/penwern/curate-sharepoint-uploader/internal/errdefs"
	"github.com/penwern/curate-sharepoint-uploader/internal/logging"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
)

// Source provides content streams for drive items.
type Source interface {
	OpenContentStream(ctx context.Context, siteID, driveID, itemID string) (io.ReadCloser, int64, error)
}

// Destination provides the two upload routes on the destination store.
type Destination interface {
	PresignUpload(ctx context.Context, path string, meta map[string]string) (*models.PresignedUpload, error)
	PutObject(ctx context.Context, path string, body io.Reader, size int64) error
}

// Spec describes one file transfer.
type Spec struct {
	SiteID  string
	DriveID string
	ItemID  string
	// Path is the logical destination path, e.g. "<container>/<folder>/<name>".
	Path string
	// DeclaredSize is the byte size reported by the upload request or the
	// source listing. It selects the transfer strategy.
	DeclaredSize int64
}

// Engine executes transfers. One engine serves all batches; the destination
// is passed per call because it is scoped to a batch's Curate site.
type Engine struct {
	source     Source
	httpClient *nethttp.Client
	logger     *logging.Logger

	multipartThreshold int64
	maxTransferSize    int64
	tempDir            string // "" means the system default
}

// NewEngine creates a transfer engine reading from source and PUTting
// presigned uploads through httpClient.
func NewEngine(source Source, httpClient *nethttp.Client) *Engine {
	return &Engine{
		source:             source,
		httpClient:         httpClient,
		logger:             logging.NewLogger("transfer"),
		multipartThreshold: constants.MultipartThreshold,
		maxTransferSize:    constants.MaxTransferSize,
	}
}

// Transfer moves one file and reports a uniform result. Files over the size
// ceiling are rejected before any network call. Files at or above the
// multipart threshold take the buffered path; everything else streams.
// No path retries: every remote call is attempted exactly once.
func (e *Engine) Transfer(ctx context.Context, dest Destination, spec Spec) models.TransferResult {
	if spec.DeclaredSize > e.maxTransferSize {
		return models.TransferResult{
			Path: spec.Path,
			Err:  &errdefs.SizeLimitError{Size: spec.DeclaredSize, Limit: e.maxTransferSize},
		}
	}

	if spec.DeclaredSize >= e.multipartThreshold {
		return e.transferBuffered(ctx, dest, spec)
	}
	return e.transferStreaming(ctx, dest, spec)
}

// transferStreaming pipes the source content stream directly into a PUT
// against a presigned URL, forwarding the source Content-Length. Nothing is
// buffered beyond the transport's own chunking.
func (e *Engine) transferStreaming(ctx context.Context, dest Destination, spec Spec) models.TransferResult {
	signed, err := dest.PresignUpload(ctx, spec.Path, nil)
	if err != nil {
		return models.TransferResult{Path: spec.Path, Err: err}
	}

	stream, length, err := e.source.OpenContentStream(ctx, spec.SiteID, spec.DriveID, spec.ItemID)
	if err != nil {
		return models.TransferResult{Path: spec.Path, Err: err}
	}
	defer stream.Close()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPut, signed.URL, stream)
	if err != nil {
		return models.TransferResult{Path: spec.Path, Err: fmt.Errorf("failed to create upload request: %w", err)}
	}
	for key, values := range signed.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if length >= 0 {
		req.ContentLength = length
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return models.TransferResult{Path: spec.Path, Err: fmt.Errorf("upload request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return models.TransferResult{
			Path:       spec.Path,
			StatusCode: resp.StatusCode,
			Err:        errdefs.NewRemoteError("transfer: presigned upload", resp.StatusCode, body),
		}
	}
	io.Copy(io.Discard, resp.Body)

	e.logger.Info().
		Str("path", spec.Path).
		Int64("bytes", length).
		Msg("streamed file to destination")

	return models.TransferResult{Success: true, StatusCode: resp.StatusCode, Path: spec.Path}
}

// transferBuffered downloads the whole payload to a temporary file, verifies
// the byte count against the reported Content-Length, then uploads the file
// as one object through the gateway. The temporary file is removed
// unconditionally, success or failure.
func (e *Engine) transferBuffered(ctx context.Context, dest Destination, spec Spec) models.TransferResult {
	stream, length, err := e.source.OpenContentStream(ctx, spec.SiteID, spec.DriveID, spec.ItemID)
	if err != nil {
		return models.TransferResult{Path: spec.Path, Err: err}
	}
	defer stream.Close()

	tmp, err := os.CreateTemp(e.tempDir, "sp-transfer-*")
	if err != nil {
		return models.TransferResult{Path: spec.Path, Err: fmt.Errorf("failed to create temp file: %w", err)}
	}
	defer func() {
		tmp.Close()
		if removeErr := os.Remove(tmp.Name()); removeErr != nil && !os.IsNotExist(removeErr) {
			e.logger.Warn().Str("path", tmp.Name()).Err(removeErr).Msg("failed to remove temp file")
		}
	}()

	written, err := copyToFile(tmp, stream)
	if err != nil {
		return models.TransferResult{Path: spec.Path, Err: fmt.Errorf("download failed: %w", err)}
	}
	if err := verifyDownload(written, length); err != nil {
		return models.TransferResult{Path: spec.Path, Err: err}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return models.TransferResult{Path: spec.Path, Err: fmt.Errorf("failed to rewind temp file: %w", err)}
	}

	if err := dest.PutObject(ctx, spec.Path, tmp, written); err != nil {
		return models.TransferResult{Path: spec.Path, Err: err}
	}

	e.logger.Info().
		Str("path", spec.Path).
		Int64("bytes", written).
		Msg("buffered file to destination")

	return models.TransferResult{Success: true, StatusCode: nethttp.StatusOK, Path: spec.Path}
}

// copyToFile drains src into f and syncs it to disk.
func copyToFile(f *os.File, src io.Reader) (int64, error) {
	buf := make([]byte, constants.StreamChunkSize)
	written, err := io.CopyBuffer(f, src, buf)
	if err != nil {
		return written, err
	}
	if err := f.Sync(); err != nil {
		return written, err
	}
	return written, nil
}

// verifyDownload checks the downloaded byte count against the reported
// Content-Length. A mismatch is a hard failure; no upload is attempted.
// expected < 0 means the source did not report a length.
func verifyDownload(written, expected int64) error {
	if written == 0 {
		return fmt.Errorf("downloaded 0 bytes")
	}
	if expected >= 0 && written != expected {
		return &errdefs.IntegrityError{Expected: expected, Got: written}
	}
	return nil
}
