// ABOUTME: Highlight and Bookmark are page-anchored annotations on a document
// ABOUTME: Their lifecycle is independent from interactions
package models

import "strings"

// DefaultHighlightColor is used when a highlight is created without a color.
const DefaultHighlightColor = "yellow"

// Highlight marks a passage on a page.
type Highlight struct {
	ID         string  `json:"id" yaml:"id"`
	DocumentID string  `json:"document_id" yaml:"document_id"`
	PageNumber int     `json:"page_number" yaml:"page_number"`
	Text       string  `json:"text" yaml:"text"`
	Color      string  `json:"color" yaml:"color"`
	Note       *string `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt  int64   `json:"created_at" yaml:"created_at"`
	UpdatedAt  int64   `json:"updated_at" yaml:"updated_at"`
}

// NewHighlight is the input for creating a highlight.
type NewHighlight struct {
	DocumentID string
	PageNumber int
	Text       string
	Color      string
	Note       *string
}

// Validate reports missing required fields.
func (n NewHighlight) Validate() error {
	switch {
	case n.DocumentID == "":
		return invalid("highlight document_id is required")
	case strings.TrimSpace(n.Text) == "":
		return invalid("highlight text is required")
	case n.PageNumber < 0:
		return invalid("highlight page_number must not be negative, got %d", n.PageNumber)
	}
	return nil
}

// HighlightPatch holds the highlight fields that may change. An empty Note clears it.
type HighlightPatch struct {
	Color *string
	Note  *string
}

// Assignments returns the columns written by the patch.
func (p HighlightPatch) Assignments() []Assignment {
	var out []Assignment
	out = assign(out, "color", p.Color)
	out = assignOptional(out, "note", p.Note)
	return out
}

// Bookmark marks a page.
type Bookmark struct {
	ID         string  `json:"id" yaml:"id"`
	DocumentID string  `json:"document_id" yaml:"document_id"`
	PageNumber int     `json:"page_number" yaml:"page_number"`
	Label      *string `json:"label,omitempty" yaml:"label,omitempty"`
	CreatedAt  int64   `json:"created_at" yaml:"created_at"`
}

// NewBookmark is the input for creating a bookmark.
type NewBookmark struct {
	DocumentID string
	PageNumber int
	Label      *string
}

// Validate reports missing required fields.
func (n NewBookmark) Validate() error {
	if n.DocumentID == "" {
		return invalid("bookmark document_id is required")
	}
	if n.PageNumber < 0 {
		return invalid("bookmark page_number must not be negative, got %d", n.PageNumber)
	}
	return nil
}

// BookmarkPatch holds the bookmark fields that may change. An empty Label clears it.
type BookmarkPatch struct {
	PageNumber *int
	Label      *string
}

// Assignments returns the columns written by the patch.
func (p BookmarkPatch) Assignments() []Assignment {
	var out []Assignment
	out = assign(out, "page_number", p.PageNumber)
	out = assignOptional(out, "label", p.Label)
	return out
}
