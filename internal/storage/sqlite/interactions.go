// ABOUTME: Interaction storage operations for SQLite
// ABOUTME: Append-only log of AI exchanges, listed newest first per document
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/harper/marginalia/internal/models"
)

const interactionColumns = `id, document_id, action_type, selected_text, page_context, response, page_number, scroll_position, created_at`

// InteractionStore handles interaction persistence
type InteractionStore struct {
	db *DB
}

// NewInteractionStore creates a new InteractionStore
func NewInteractionStore(db *DB) *InteractionStore {
	return &InteractionStore{db: db}
}

// Create stores a new interaction. A document_id that does not exist is a
// foreign key violation and is returned as an error.
func (s *InteractionStore) Create(in models.NewInteraction) (*models.Interaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return withRepair(s.db, func() (*models.Interaction, error) {
		return insertInteraction(s.db.conn, in, newID(), s.db.nowMillis())
	})
}

func insertInteraction(q querier, in models.NewInteraction, id string, now int64) (*models.Interaction, error) {
	_, err := q.Exec(`
		INSERT INTO interactions (`+interactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, in.DocumentID, in.ActionType, in.SelectedText, nullString(in.PageContext),
		in.Response, nullInt(in.PageNumber), nullFloat(in.ScrollPosition), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert interaction: %w", err)
	}

	return &models.Interaction{
		ID:             id,
		DocumentID:     in.DocumentID,
		ActionType:     in.ActionType,
		SelectedText:   in.SelectedText,
		PageContext:    in.PageContext,
		Response:       in.Response,
		PageNumber:     in.PageNumber,
		ScrollPosition: in.ScrollPosition,
		CreatedAt:      now,
	}, nil
}

// Get retrieves an interaction by ID; nil when absent
func (s *InteractionStore) Get(id string) (*models.Interaction, error) {
	return withRepair(s.db, func() (*models.Interaction, error) {
		in, err := scanInteraction(s.db.QueryRow(`SELECT `+interactionColumns+` FROM interactions WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return in, err
	})
}

// ListByDocument lists a document's interactions, newest first
func (s *InteractionStore) ListByDocument(documentID string, limit int) ([]models.Interaction, error) {
	return s.list(`
		SELECT `+interactionColumns+`
		FROM interactions
		WHERE document_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, documentID, normalizeLimit(limit))
}

// Recent lists interactions across all documents, newest first
func (s *InteractionStore) Recent(limit int) ([]models.Interaction, error) {
	return s.list(`
		SELECT `+interactionColumns+`
		FROM interactions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, normalizeLimit(limit))
}

// ListByConcept lists the interactions in which a concept surfaced, newest first
func (s *InteractionStore) ListByConcept(conceptID string, limit int) ([]models.Interaction, error) {
	return s.list(`
		SELECT i.id, i.document_id, i.action_type, i.selected_text, i.page_context,
		       i.response, i.page_number, i.scroll_position, i.created_at
		FROM interactions i
		JOIN interaction_concepts ic ON ic.interaction_id = i.id
		WHERE ic.concept_id = ?
		ORDER BY i.created_at DESC, i.rowid DESC
		LIMIT ?
	`, conceptID, normalizeLimit(limit))
}

func (s *InteractionStore) list(query string, args ...interface{}) ([]models.Interaction, error) {
	return withRepair(s.db, func() ([]models.Interaction, error) {
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.Interaction{}
		for rows.Next() {
			in, err := scanInteraction(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, *in)
		}
		return out, rows.Err()
	})
}

func scanInteraction(row rowScanner) (*models.Interaction, error) {
	var in models.Interaction
	if err := row.Scan(&in.ID, &in.DocumentID, &in.ActionType, &in.SelectedText, &in.PageContext,
		&in.Response, &in.PageNumber, &in.ScrollPosition, &in.CreatedAt); err != nil {
		return nil, err
	}
	return &in, nil
}
