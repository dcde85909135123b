package models

import (
	"net/http"
	"strconv"
)

// TreeNode is one logical path in a tree/create request.
type TreeNode struct {
	Path string `json:"Path"`
}

// TreeCreateRequest asks the Curate REST API to create one or more folders.
// Recursive creation of shared ancestors is idempotent on the server side,
// which lets siblings re-create the same container folder safely.
type TreeCreateRequest struct {
	Nodes     []TreeNode `json:"Nodes"`
	Recursive bool       `json:"Recursive"`
}

// TreeNodeInfo describes a node created by tree/create.
type TreeNodeInfo struct {
	UUID string `json:"Uuid"`
	Path string `json:"Path"`
}

// TreeCreateResponse is the tree/create response envelope.
type TreeCreateResponse struct {
	Children []TreeNodeInfo `json:"Children"`
}

// MetaPolicy is a read/write policy attached to a user-meta entry.
type MetaPolicy struct {
	Action  string `json:"Action"`
	Effect  string `json:"Effect"`
	Subject string `json:"Subject"`
}

// AllowAllPolicies grants READ and WRITE to all subjects; applied to every
// metadata entry this service writes.
func AllowAllPolicies() []MetaPolicy {
	return []MetaPolicy{
		{Action: "READ", Effect: "allow", Subject: "*"},
		{Action: "WRITE", Effect: "allow", Subject: "*"},
	}
}

// UserMeta is one namespaced metadata value on a Curate node. JSONValue is a
// JSON-encoded document; plain strings must be quoted.
type UserMeta struct {
	NodeUUID  string       `json:"NodeUuid"`
	Namespace string       `json:"Namespace"`
	JSONValue string       `json:"JsonValue"`
	Policies  []MetaPolicy `json:"Policies"`
}

// QuoteMetaValue encodes a plain string for the JsonValue field.
func QuoteMetaValue(v string) string { return strconv.Quote(v) }

// UserMetaUpdateRequest is the user-meta/update request envelope. Operation
// is always "PUT" (replace).
type UserMetaUpdateRequest struct {
	MetaDatas []UserMeta `json:"MetaDatas"`
	Operation string     `json:"Operation"`
}

// PresignedUpload is a time-limited direct-upload target on the Curate S3
// gateway, plus the headers the destination requires on the PUT.
type PresignedUpload struct {
	// Path is the logical destination path (without the quarantine prefix).
	Path string
	// URL is the presigned PUT URL.
	URL string
	// Header carries the gateway bearer and content-type headers.
	Header http.Header
}
