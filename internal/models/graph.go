package models

// ParentReference locates a drive item within its drive.
type ParentReference struct {
	DriveID string `json:"driveId"`
	Path    string `json:"path,omitempty"`
}

// FolderFacet is present on drive items that are folders.
type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

// DriveItem is a file or folder entry returned by Graph children listings.
type DriveItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Size            int64           `json:"size"`
	ParentReference ParentReference `json:"parentReference"`
	Folder          *FolderFacet    `json:"folder,omitempty"`
}

// IsFolder reports whether the entry carries the folder facet.
func (d DriveItem) IsFolder() bool { return d.Folder != nil }

// HasChildren reports whether the entry is a non-empty folder.
func (d DriveItem) HasChildren() bool {
	return d.Folder != nil && d.Folder.ChildCount > 0
}

// DriveChildren is the envelope of a Graph children listing.
type DriveChildren struct {
	Value []DriveItem `json:"value"`
}

// Drive is a document library exposed as a Graph drive.
type Drive struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DriveList is the envelope of a site drives listing.
type DriveList struct {
	Value []Drive `json:"value"`
}

// TokenResponse is the Azure AD client-credentials grant response.
type TokenResponse struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	AccessToken string `json:"access_token"`
}
