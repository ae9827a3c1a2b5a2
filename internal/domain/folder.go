package domain

import "time"

// Folder groups library documents. Folders may nest through ParentID.
type Folder struct {
	// ID is the unique folder identifier, e.g. "folder_contracts".
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// ParentID is empty for top-level folders.
	ParentID  string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// DocumentCount is derived from the documents filed in the folder.
	DocumentCount int `json:"document_count" yaml:"-"`

	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
