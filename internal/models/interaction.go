// ABOUTME: Interaction is one stored AI exchange about a passage of a document
// ABOUTME: Interactions are append-only and owned by their document
package models

import "strings"

// Common action types issued by the reader. Other values are accepted.
const (
	ActionExplain   = "explain"
	ActionSummarize = "summarize"
	ActionDefine    = "define"
	ActionAsk       = "ask"
)

// Interaction is a single AI completion tied to a selection in a document.
type Interaction struct {
	ID             string   `json:"id" yaml:"id"`
	DocumentID     string   `json:"document_id" yaml:"document_id"`
	ActionType     string   `json:"action_type" yaml:"action_type"`
	SelectedText   string   `json:"selected_text" yaml:"selected_text"`
	PageContext    *string  `json:"page_context,omitempty" yaml:"page_context,omitempty"`
	Response       string   `json:"response" yaml:"response"`
	PageNumber     *int     `json:"page_number,omitempty" yaml:"page_number,omitempty"`
	ScrollPosition *float64 `json:"scroll_position,omitempty" yaml:"scroll_position,omitempty"`
	CreatedAt      int64    `json:"created_at" yaml:"created_at"`
}

// NewInteraction is the input for creating an interaction.
type NewInteraction struct {
	DocumentID     string
	ActionType     string
	SelectedText   string
	PageContext    *string
	Response       string
	PageNumber     *int
	ScrollPosition *float64
}

// Validate reports missing required fields.
func (n NewInteraction) Validate() error {
	switch {
	case n.DocumentID == "":
		return invalid("interaction document_id is required")
	case strings.TrimSpace(n.ActionType) == "":
		return invalid("interaction action_type is required")
	case strings.TrimSpace(n.SelectedText) == "":
		return invalid("interaction selected_text is required")
	}
	return nil
}

// CompletionInput is what the AI layer hands over after a completion:
// the interaction itself plus the concept names it extracted.
type CompletionInput struct {
	NewInteraction
	Concepts []string
}
