// ABOUTME: Conversation groups an ordered exchange of messages about a document
// ABOUTME: Messages are owned by their conversation and deleted with it
package models

import "strings"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a threaded chat anchored to a document and optionally a highlight.
type Conversation struct {
	ID          string  `json:"id" yaml:"id"`
	DocumentID  string  `json:"document_id" yaml:"document_id"`
	HighlightID *string `json:"highlight_id,omitempty" yaml:"highlight_id,omitempty"`
	Title       string  `json:"title" yaml:"title"`
	CreatedAt   int64   `json:"created_at" yaml:"created_at"`
	UpdatedAt   int64   `json:"updated_at" yaml:"updated_at"`
}

// NewConversation is the input for creating a conversation.
type NewConversation struct {
	DocumentID  string
	HighlightID *string
	Title       string
}

// Validate reports missing required fields.
func (n NewConversation) Validate() error {
	if n.DocumentID == "" {
		return invalid("conversation document_id is required")
	}
	return nil
}

// ConversationPatch holds the conversation fields that may change.
type ConversationPatch struct {
	Title *string
}

// Assignments returns the columns written by the patch.
func (p ConversationPatch) Assignments() []Assignment {
	return assign(nil, "title", p.Title)
}

// ConversationMessage is one turn in a conversation. Position orders messages.
type ConversationMessage struct {
	ID             string `json:"id" yaml:"id"`
	ConversationID string `json:"conversation_id" yaml:"conversation_id"`
	Role           string `json:"role" yaml:"role"`
	Content        string `json:"content" yaml:"content"`
	Position       int    `json:"position" yaml:"position"`
	CreatedAt      int64  `json:"created_at" yaml:"created_at"`
}

// ValidateMessage checks a message before it is appended.
func ValidateMessage(role, content string) error {
	if role != RoleUser && role != RoleAssistant {
		return invalid("message role must be %q or %q, got %q", RoleUser, RoleAssistant, role)
	}
	if strings.TrimSpace(content) == "" {
		return invalid("message content is required")
	}
	return nil
}
