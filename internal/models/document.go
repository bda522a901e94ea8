// ABOUTME: Document represents a file the user has opened in the reader
// ABOUTME: Identity is keyed by filepath; reopening only touches last_opened_at
package models

import "strings"

// Document is a file opened in the reader. Timestamps are milliseconds since epoch.
type Document struct {
	ID             string  `json:"id" yaml:"id"`
	Filename       string  `json:"filename" yaml:"filename"`
	Filepath       string  `json:"filepath" yaml:"filepath"`
	LastOpenedAt   int64   `json:"last_opened_at" yaml:"last_opened_at"`
	ScrollPosition float64 `json:"scroll_position" yaml:"scroll_position"`
	TotalPages     *int    `json:"total_pages,omitempty" yaml:"total_pages,omitempty"`
	CreatedAt      int64   `json:"created_at" yaml:"created_at"`
}

// ValidateDocumentIdentity checks the fields getOrCreate needs.
func ValidateDocumentIdentity(filename, filepath string) error {
	if strings.TrimSpace(filepath) == "" {
		return invalid("document filepath is required")
	}
	if strings.TrimSpace(filename) == "" {
		return invalid("document filename is required")
	}
	return nil
}

// DocumentPatch holds the document fields that may change after creation.
type DocumentPatch struct {
	Filename       *string
	ScrollPosition *float64
	TotalPages     *int
}

// Assignments returns the columns written by the patch.
func (p DocumentPatch) Assignments() []Assignment {
	var out []Assignment
	out = assign(out, "filename", p.Filename)
	out = assign(out, "scroll_position", p.ScrollPosition)
	out = assign(out, "total_pages", p.TotalPages)
	return out
}
