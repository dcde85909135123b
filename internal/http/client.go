package http

import (
	nethttp "net/http"

	"golang.org/x/net/http2"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
)

// CreateTransferClient creates an HTTP client tuned for large file
// transfers, with the same proxy settings as API calls.
//
// Differences from the base client:
//   - larger connection pool for back-to-back transfers within a batch
//   - compression disabled (office documents and archives don't benefit)
//   - no overall client timeout: a single PUT of a near-threshold file can
//     legitimately run for many minutes, so deadlines are left to callers
func CreateTransferClient(cfg *config.Config) (*nethttp.Client, error) {
	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM mode wraps the transport in a negotiator; pool tuning is
		// not reachable there, so just clear the timeout.
		client.Timeout = 0
		return client, nil
	}

	tr.MaxIdleConns = 512
	tr.MaxIdleConnsPerHost = 64
	tr.MaxConnsPerHost = 64
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	client.Transport = tr
	client.Timeout = 0

	return client, nil
}
