// Package curate provides the destination-side client: the Curate REST
// control plane (folder creation, node metadata) and the S3-compatible data
// plane (presigned uploads, buffered direct uploads).
//
// A Client is scoped to one destination site: it is constructed per batch
// from the CurateDetails carried by the upload request.
package curate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
	"github.com/penwern/curate-sharepoint-uploader/internal/constants"
	"github.com/penwern/curate-sharepoint-uploader/internal/errdefs"
	"github.com/penwern/curate-sharepoint-uploader/internal/logging"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
)

// Client talks to one Curate site.
type Client struct {
	apiKey   string
	endpoint string

	httpClient *nethttp.Client
	presigner  *s3.PresignClient
	gateway    *s3.Client
	logger     *logging.Logger
}

// NewClient builds a client for the site named in details. The gateway
// signing credentials come from process configuration; the API key comes
// from the batch.
func NewClient(ctx context.Context, details models.CurateDetails, gw config.GatewayConfig, httpClient *nethttp.Client) (*Client, error) {
	endpoint := normalizeEndpoint(details.SiteURL)

	// Presigned URLs are signed with the fixed gateway credentials; the
	// caller authenticates the PUT itself with the X-Pydio-Bearer header.
	presignCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(gw.Region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(gw.AccessKey, gw.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway signing config: %w", err)
	}
	presignS3 := s3.NewFromConfig(presignCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	// The buffered path uploads directly through the gateway, using the
	// site API key as the access key ID.
	gatewayCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(gw.Region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(details.APIKey, gw.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway upload config: %w", err)
	}
	gatewayS3 := s3.NewFromConfig(gatewayCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Client{
		apiKey:     details.APIKey,
		endpoint:   endpoint,
		httpClient: httpClient,
		presigner:  s3.NewPresignClient(presignS3),
		gateway:    gatewayS3,
		logger:     logging.NewLogger("curate"),
	}, nil
}

// normalizeEndpoint turns the configured site host into a base URL. The
// accepting layer receives bare hosts; tests pass full http:// URLs.
func normalizeEndpoint(siteURL string) string {
	if strings.HasPrefix(siteURL, "http://") || strings.HasPrefix(siteURL, "https://") {
		return strings.TrimSuffix(siteURL, "/")
	}
	return "https://" + strings.TrimSuffix(siteURL, "/")
}

// quarantineKey maps a logical destination path into the staging namespace.
func quarantineKey(path string) string {
	return constants.QuarantinePrefix + "/" + strings.TrimPrefix(path, "/")
}

// doJSON performs an authenticated JSON request against the Curate REST API.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.endpoint+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// CreateFolder creates the folder at the given logical path inside the
// quarantine namespace, creating ancestors recursively. The call is
// idempotent on the server side, so siblings may re-create shared ancestors.
// Returns the UUID of the first created node.
func (c *Client) CreateFolder(ctx context.Context, path string) (string, error) {
	reqBody := models.TreeCreateRequest{
		Nodes:     []models.TreeNode{{Path: quarantineKey(path)}},
		Recursive: true,
	}

	resp, err := c.doJSON(ctx, nethttp.MethodPost, "/a/tree/create", reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", errdefs.NewRemoteError("curate: create folder", resp.StatusCode, body)
	}

	var created models.TreeCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", errdefs.NewDecodeError("curate: create folder", resp.StatusCode, err)
	}
	if len(created.Children) == 0 || created.Children[0].UUID == "" {
		return "", fmt.Errorf("curate: create folder %q: no UUID returned", path)
	}
	return created.Children[0].UUID, nil
}

// UpdateUserMeta attaches namespaced metadata values to a node, with
// read/write allowed for all subjects. Callers treat failures as best-effort
// where the spec allows it.
func (c *Client) UpdateUserMeta(ctx context.Context, nodeUUID string, pairs map[string]string) error {
	metas := make([]models.UserMeta, 0, len(pairs))
	for namespace, value := range pairs {
		metas = append(metas, models.UserMeta{
			NodeUUID:  nodeUUID,
			Namespace: namespace,
			JSONValue: models.QuoteMetaValue(value),
			Policies:  models.AllowAllPolicies(),
		})
	}

	reqBody := models.UserMetaUpdateRequest{
		MetaDatas: metas,
		Operation: "PUT",
	}

	resp, err := c.doJSON(ctx, nethttp.MethodPut, "/a/user-meta/update", reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return errdefs.NewRemoteError("curate: update user meta", resp.StatusCode, body)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
