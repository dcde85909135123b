// Package graph provides the Microsoft Graph client used to read the source
// SharePoint document library and tag preservation status onto its items.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
	"github.com/penwern/curate-sharepoint-uploader/internal/constants"
	"github.com/penwern/curate-sharepoint-uploader/internal/errdefs"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
)

// TokenSource acquires and caches an Azure AD access token via the OAuth2
// client-credentials grant. The token is held in memory only and refreshed
// shortly before expiry. Token acquisition is the one place transient
// failures are retried; batch processing itself never retries.
type TokenSource struct {
	httpClient   *nethttp.Client
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenSource builds a token source for the configured app registration.
func NewTokenSource(cfg *config.Config) *TokenSource {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.TokenRetryMax
	retryClient.RetryWaitMin = constants.TokenRetryWaitMin
	retryClient.RetryWaitMax = constants.TokenRetryWaitMax
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.TokenRequestTimeout

	return &TokenSource{
		httpClient: retryClient.StandardClient(),
		tokenURL: fmt.Sprintf("%s/%s/oauth2/v2.0/token",
			constants.AzureLoginBase, cfg.Azure.TenantID),
		clientID:     cfg.Azure.ClientID,
		clientSecret: cfg.Azure.ClientSecret,
		scope:        constants.GraphScope,
	}
}

// newTokenSourceForEndpoint is used by tests to point at a local fake.
func newTokenSourceForEndpoint(tokenURL, clientID, clientSecret string) *TokenSource {
	return &TokenSource{
		httpClient:   &nethttp.Client{Timeout: constants.TokenRequestTimeout},
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        constants.GraphScope,
	}
}

// Token returns a valid bearer token, fetching a new one if the cached token
// is missing or within the refresh skew of expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiry.Add(-constants.TokenRefreshSkew)) {
		return ts.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ts.clientID},
		"client_secret": {ts.clientSecret},
		"scope":         {ts.scope},
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, ts.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &errdefs.CredentialError{Op: "graph: acquire token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", &errdefs.CredentialError{Op: "graph: acquire token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &errdefs.CredentialError{
			Op:  "graph: acquire token",
			Err: errdefs.NewRemoteError("token endpoint", resp.StatusCode, body),
		}
	}

	var tok models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", &errdefs.CredentialError{Op: "graph: acquire token", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &errdefs.CredentialError{
			Op:  "graph: acquire token",
			Err: fmt.Errorf("token endpoint returned no access_token"),
		}
	}

	ts.token = tok.AccessToken
	ts.expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return ts.token, nil
}
