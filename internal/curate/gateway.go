package curate

import (
	"context"
	"io"
	nethttp "net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/penwern/curate-sharepoint-uploader/internal/constants"
	"github.com/penwern/curate-sharepoint-uploader/internal/errdefs"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
)

// PresignUpload issues a time-limited direct-upload URL for the given
// logical path, scoped to the quarantine namespace, plus the headers the
// gateway requires on the PUT. Signing failures surface as CredentialError.
func (c *Client) PresignUpload(ctx context.Context, path string, meta map[string]string) (*models.PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(constants.GatewayBucket),
		Key:         aws.String(quarantineKey(path)),
		ContentType: aws.String("application/octet-stream"),
	}
	if len(meta) > 0 {
		input.Metadata = meta
	}

	signed, err := c.presigner.PresignPutObject(ctx, input,
		func(o *s3.PresignOptions) { o.Expires = constants.PresignExpiry })
	if err != nil {
		return nil, &errdefs.CredentialError{Op: "curate: presign upload", Err: err}
	}

	header := nethttp.Header{}
	header.Set("X-Pydio-Bearer", c.apiKey)
	header.Set("Content-Type", "application/octet-stream")

	return &models.PresignedUpload{
		Path:   path,
		URL:    signed.URL,
		Header: header,
	}, nil
}

// PutObject uploads body as a single object through the gateway using the
// long-lived service credentials, bypassing the presigned-URL flow. Used by
// the buffered transfer path for large files.
func (c *Client) PutObject(ctx context.Context, path string, body io.Reader, size int64) error {
	start := time.Now()

	_, err := c.gateway.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(constants.GatewayBucket),
		Key:           aws.String(quarantineKey(path)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("path", path).
		Int64("bytes", size).
		Dur("elapsed", time.Since(start)).
		Msg("gateway upload complete")
	return nil
}
