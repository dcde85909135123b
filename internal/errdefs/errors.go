// Package errdefs defines the shared error taxonomy for remote operations.
// Clients return these types; callers decide per call site whether a failure
// is fatal (file transfer) or ignorable (status tagging).
package errdefs

import (
	"errors"
	"fmt"
)

// RemoteError is any non-2xx response from the Graph API or the Curate REST
// API. Body carries the response body when one was present.
type RemoteError struct {
	Op         string // operation that failed, e.g. "graph: list children"
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// NewRemoteError builds a RemoteError for op from a response status and body.
func NewRemoteError(op string, statusCode int, body []byte) *RemoteError {
	return &RemoteError{Op: op, StatusCode: statusCode, Body: string(body)}
}

// NewDecodeError wraps a response-decoding failure as a RemoteError so that
// malformed payloads surface through the same taxonomy as bad statuses.
func NewDecodeError(op string, statusCode int, err error) *RemoteError {
	return &RemoteError{Op: op, StatusCode: statusCode, Body: "decode: " + err.Error()}
}

// CredentialError indicates a signing or authentication failure: token
// acquisition against Azure AD, or presigned URL issuance being rejected.
type CredentialError struct {
	Op  string
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: credential failure: %v", e.Op, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// SizeLimitError indicates a declared file size above the transfer ceiling.
// Returned before any network call is made.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file size %d exceeds the %d byte upload limit; "+
		"use the Soteria+ command line client or SFTP for bulk transfers", e.Size, e.Limit)
}

// IntegrityError indicates the downloaded byte count disagrees with the
// Content-Length reported by the source. The buffered path treats this as a
// hard failure and makes no upload attempt.
type IntegrityError struct {
	Expected int64
	Got      int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("download integrity check failed: expected %d bytes, got %d", e.Expected, e.Got)
}

// IsRemote reports whether err is (or wraps) a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsSizeLimit reports whether err is (or wraps) a SizeLimitError.
func IsSizeLimit(err error) bool {
	var se *SizeLimitError
	return errors.As(err, &se)
}

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// IsCredential reports whether err is (or wraps) a CredentialError.
func IsCredential(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}
