// ABOUTME: Conversation and message storage operations for SQLite
// ABOUTME: Appending a message bumps the conversation's updated_at in the same transaction
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/harper/marginalia/internal/models"
)

const conversationColumns = `id, document_id, highlight_id, title, created_at, updated_at`

// ConversationStore handles conversation and message persistence
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a new ConversationStore
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create stores a new, empty conversation
func (s *ConversationStore) Create(in models.NewConversation) (*models.Conversation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return withRepair(s.db, func() (*models.Conversation, error) {
		now := s.db.nowMillis()
		c := &models.Conversation{
			ID:          newID(),
			DocumentID:  in.DocumentID,
			HighlightID: in.HighlightID,
			Title:       in.Title,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := s.db.Exec(`
			INSERT INTO conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, c.DocumentID, nullString(c.HighlightID), c.Title, c.CreatedAt, c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert conversation: %w", err)
		}
		return c, nil
	})
}

// Get retrieves a conversation by ID; nil when absent
func (s *ConversationStore) Get(id string) (*models.Conversation, error) {
	return withRepair(s.db, func() (*models.Conversation, error) {
		return getConversation(s.db.conn, id)
	})
}

// Recent lists conversations by updated_at, newest first
func (s *ConversationStore) Recent(limit int) ([]models.Conversation, error) {
	return s.list(`
		SELECT `+conversationColumns+`
		FROM conversations
		ORDER BY updated_at DESC, created_at DESC
		LIMIT ?
	`, normalizeLimit(limit))
}

// ListByDocument lists a document's conversations, most recently active first
func (s *ConversationStore) ListByDocument(documentID string, limit int) ([]models.Conversation, error) {
	return s.list(`
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE document_id = ?
		ORDER BY updated_at DESC, created_at DESC
		LIMIT ?
	`, documentID, normalizeLimit(limit))
}

// Update applies a sparse patch, refreshes updated_at and returns the merged
// conversation; nil when absent
func (s *ConversationStore) Update(id string, patch models.ConversationPatch) (*models.Conversation, error) {
	return withRepair(s.db, func() (*models.Conversation, error) {
		assignments := append(patch.Assignments(), models.Assignment{Column: "updated_at", Value: s.db.nowMillis()})
		found, err := applyPatch(s.db.conn, "conversations", id, assignments)
		if err != nil || !found {
			return nil, err
		}
		return getConversation(s.db.conn, id)
	})
}

// Delete removes a conversation; its messages cascade
func (s *ConversationStore) Delete(id string) (bool, error) {
	return withRepair(s.db, func() (bool, error) {
		return deleteByID(s.db.conn, "conversations", id)
	})
}

// AddMessage appends a message at the end of a conversation and bumps the
// conversation's updated_at. Returns nil when the conversation is absent.
func (s *ConversationStore) AddMessage(conversationID, role, content string) (*models.ConversationMessage, error) {
	if err := models.ValidateMessage(role, content); err != nil {
		return nil, err
	}

	return withRepair(s.db, func() (*models.ConversationMessage, error) {
		var msg *models.ConversationMessage
		err := s.db.inTx(func(tx *sql.Tx) error {
			now := s.db.nowMillis()
			result, err := tx.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conversationID)
			if err != nil {
				return fmt.Errorf("failed to touch conversation: %w", err)
			}
			if n, err := result.RowsAffected(); err != nil || n == 0 {
				return err
			}

			var position int
			if err := tx.QueryRow(`
				SELECT COALESCE(MAX(position), 0) + 1 FROM conversation_messages WHERE conversation_id = ?
			`, conversationID).Scan(&position); err != nil {
				return err
			}

			m := &models.ConversationMessage{
				ID:             newID(),
				ConversationID: conversationID,
				Role:           role,
				Content:        content,
				Position:       position,
				CreatedAt:      now,
			}
			if _, err := tx.Exec(`
				INSERT INTO conversation_messages (id, conversation_id, role, content, position, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, m.ID, m.ConversationID, m.Role, m.Content, m.Position, m.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert message: %w", err)
			}
			msg = m
			return nil
		})
		return msg, err
	})
}

// ListMessages lists a conversation's messages in order
func (s *ConversationStore) ListMessages(conversationID string) ([]models.ConversationMessage, error) {
	return withRepair(s.db, func() ([]models.ConversationMessage, error) {
		rows, err := s.db.Query(`
			SELECT id, conversation_id, role, content, position, created_at
			FROM conversation_messages
			WHERE conversation_id = ?
			ORDER BY position ASC
		`, conversationID)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.ConversationMessage{}
		for rows.Next() {
			var m models.ConversationMessage
			if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Position, &m.CreatedAt); err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, rows.Err()
	})
}

func (s *ConversationStore) list(query string, args ...interface{}) ([]models.Conversation, error) {
	return withRepair(s.db, func() ([]models.Conversation, error) {
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.Conversation{}
		for rows.Next() {
			c, err := scanConversation(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, *c)
		}
		return out, rows.Err()
	})
}

func getConversation(q querier, id string) (*models.Conversation, error) {
	c, err := scanConversation(q.QueryRow(`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.DocumentID, &c.HighlightID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
