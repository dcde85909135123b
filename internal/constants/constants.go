// Package constants defines shared constants for the SharePoint to Curate
// transfer service.
package constants

import "time"

// Transfer thresholds
const (
	// MultipartThreshold - files at or above this size use the buffered
	// download-then-upload path instead of streaming (100 MiB)
	MultipartThreshold = 100 * 1024 * 1024

	// MaxTransferSize - hard ceiling on a single file transfer (1 GiB).
	// Larger files are rejected before any network call.
	MaxTransferSize = 1 * 1024 * 1024 * 1024

	// StreamChunkSize - copy buffer size for the buffered download path (4 MiB)
	StreamChunkSize = 4 * 1024 * 1024
)

// Curate destination layout
const (
	// GatewayBucket is the fixed bucket on the Curate S3 gateway.
	GatewayBucket = "io"

	// QuarantinePrefix is the staging namespace all incoming transfers land
	// under before downstream promotion.
	QuarantinePrefix = "quarantine/SharePoint Uploads"

	// PresignExpiry is the lifetime of presigned upload URLs.
	PresignExpiry = time.Hour

	// ContainerNamePrefix + timestamp forms the per-batch top-level folder.
	ContainerNamePrefix = "SharePointUpload_"

	// ContainerNameTimeFormat is the timestamp layout for container folders.
	ContainerNameTimeFormat = "20060102150405"
)

// Preservation status values written back onto SharePoint list items.
// These are shown directly to end users in the document library view.
const (
	StatusFieldName  = "PreservationStatus"
	StatusInitiating = "Initiating"
	StatusSuccess    = "Success"
	StatusFailedFmt  = "Failed: %s"
)

// Metadata namespaces on Curate nodes
const (
	ContributorNamespace = "usermeta-contributor"
)

// Microsoft Graph / Azure AD endpoints
const (
	GraphBaseURL   = "https://graph.microsoft.com/v1.0"
	GraphScope     = "https://graph.microsoft.com/.default"
	AzureLoginBase = "https://login.microsoftonline.com"
)

// HTTP transport tuning
const (
	HTTPDialTimeout             = 30 * time.Second
	HTTPDialKeepAlive           = 30 * time.Second
	HTTPIdleConnTimeout         = 90 * time.Second
	HTTPTLSHandshakeTimeout     = 30 * time.Second
	HTTPExpectContinueTimeout   = 5 * time.Second
	HTTPClientTimeout           = 300 * time.Second
	TokenRefreshSkew            = 2 * time.Minute
	TokenRequestTimeout         = 30 * time.Second
	TokenRetryMax               = 3
	TokenRetryWaitMin           = 1 * time.Second
	TokenRetryWaitMax           = 10 * time.Second
)
