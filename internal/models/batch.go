// Package models defines the data structures exchanged with the accepting
// layer, the Microsoft Graph API and the Curate REST API.
package models

import (
	"bytes"
	"fmt"
	"strconv"
)

// ItemType distinguishes files from folders in an upload selection.
type ItemType string

const (
	ItemTypeFile   ItemType = "File"
	ItemTypeFolder ItemType = "Folder"
)

// ByteSize is a byte count that unmarshals from either a JSON number or a
// JSON string. The SharePoint front end sends file sizes as strings; folders
// may omit the field or send an empty string, which decodes to 0.
type ByteSize int64

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = 0
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("byte size: %w", err)
		}
		if s == "" {
			*b = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("byte size %q: %w", s, err)
		}
		*b = ByteSize(n)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("byte size %s: %w", data, err)
	}
	*b = ByteSize(n)
	return nil
}

// CurateDetails identifies the destination Curate site for one batch.
type CurateDetails struct {
	APIKey  string `json:"apiKey" binding:"required"`
	SiteURL string `json:"siteUrl" binding:"required"`
}

// SharePointDetails identifies the source SharePoint site.
type SharePointDetails struct {
	DrivePath string `json:"drivePath"`
	SiteID    string `json:"siteId" binding:"required"`
}

// UploadItem is one selected node in the source tree. SPID is the list-item
// id used for metadata tagging and is distinct from the drive-item ID used
// for content access.
type UploadItem struct {
	ID       string   `json:"id" binding:"required"`
	SPID     string   `json:"spId"`
	DriveID  string   `json:"driveId" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	FileSize ByteSize `json:"fileSize"`
	Type     ItemType `json:"type" binding:"required"`
}

// IsFolder reports whether the item is a folder selection.
func (i UploadItem) IsFolder() bool { return i.Type == ItemTypeFolder }

// UserInfo identifies the submitting user; recorded as contributor metadata
// on created Curate nodes.
type UserInfo struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// Contributor returns the value stored in the contributor namespace.
func (u UserInfo) Contributor() string {
	return u.Name + ":" + u.Email
}

// UploadBatch is one user-submitted transfer request. Immutable once
// accepted; consumed entirely by one orchestrator run and never persisted.
type UploadBatch struct {
	CurateDetails     CurateDetails     `json:"curateDetails" binding:"required"`
	SharePointDetails SharePointDetails `json:"sharepointDetails" binding:"required"`
	UploadItems       []UploadItem      `json:"uploadItems" binding:"required"`
	UserInfo          UserInfo          `json:"userInfo" binding:"required"`
}

// TransferResult is the outcome of one file transfer, produced by the
// transfer engine and consumed by the orchestrator to decide the status
// string written back to the source item.
type TransferResult struct {
	Success    bool
	StatusCode int
	Path       string
	Err        error
}

// ErrMessage returns the error text, or "" on success.
func (r TransferResult) ErrMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
