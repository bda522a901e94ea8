// ABOUTME: Highlight and bookmark storage operations for SQLite
// ABOUTME: Both are page-anchored and listed by page, then creation time
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/harper/marginalia/internal/models"
)

const highlightColumns = `id, document_id, page_number, text, color, note, created_at, updated_at`

// HighlightStore handles highlight persistence
type HighlightStore struct {
	db *DB
}

// NewHighlightStore creates a new HighlightStore
func NewHighlightStore(db *DB) *HighlightStore {
	return &HighlightStore{db: db}
}

// Create stores a new highlight
func (s *HighlightStore) Create(in models.NewHighlight) (*models.Highlight, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = models.DefaultHighlightColor
	}

	return withRepair(s.db, func() (*models.Highlight, error) {
		h := &models.Highlight{
			ID:         newID(),
			DocumentID: in.DocumentID,
			PageNumber: in.PageNumber,
			Text:       in.Text,
			Color:      color,
			Note:       in.Note,
			CreatedAt:  s.db.nowMillis(),
		}
		h.UpdatedAt = h.CreatedAt

		if _, err := s.db.Exec(`
			INSERT INTO highlights (`+highlightColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, h.ID, h.DocumentID, h.PageNumber, h.Text, h.Color, nullString(h.Note), h.CreatedAt, h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert highlight: %w", err)
		}
		return h, nil
	})
}

// Get retrieves a highlight by ID; nil when absent
func (s *HighlightStore) Get(id string) (*models.Highlight, error) {
	return withRepair(s.db, func() (*models.Highlight, error) {
		return getHighlight(s.db.conn, id)
	})
}

// ListByDocument lists a document's highlights by page
func (s *HighlightStore) ListByDocument(documentID string) ([]models.Highlight, error) {
	return withRepair(s.db, func() ([]models.Highlight, error) {
		rows, err := s.db.Query(`
			SELECT `+highlightColumns+`
			FROM highlights
			WHERE document_id = ?
			ORDER BY page_number ASC, created_at ASC
		`, documentID)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.Highlight{}
		for rows.Next() {
			h, err := scanHighlight(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, *h)
		}
		return out, rows.Err()
	})
}

// Update applies a sparse patch, refreshes updated_at and returns the merged
// highlight; nil when absent
func (s *HighlightStore) Update(id string, patch models.HighlightPatch) (*models.Highlight, error) {
	return withRepair(s.db, func() (*models.Highlight, error) {
		assignments := append(patch.Assignments(), models.Assignment{Column: "updated_at", Value: s.db.nowMillis()})
		found, err := applyPatch(s.db.conn, "highlights", id, assignments)
		if err != nil || !found {
			return nil, err
		}
		return getHighlight(s.db.conn, id)
	})
}

// Delete removes a highlight
func (s *HighlightStore) Delete(id string) (bool, error) {
	return withRepair(s.db, func() (bool, error) {
		return deleteByID(s.db.conn, "highlights", id)
	})
}

func getHighlight(q querier, id string) (*models.Highlight, error) {
	h, err := scanHighlight(q.QueryRow(`SELECT `+highlightColumns+` FROM highlights WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

func scanHighlight(row rowScanner) (*models.Highlight, error) {
	var h models.Highlight
	if err := row.Scan(&h.ID, &h.DocumentID, &h.PageNumber, &h.Text, &h.Color, &h.Note,
		&h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

const bookmarkColumns = `id, document_id, page_number, label, created_at`

// BookmarkStore handles bookmark persistence
type BookmarkStore struct {
	db *DB
}

// NewBookmarkStore creates a new BookmarkStore
func NewBookmarkStore(db *DB) *BookmarkStore {
	return &BookmarkStore{db: db}
}

// Create stores a new bookmark
func (s *BookmarkStore) Create(in models.NewBookmark) (*models.Bookmark, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return withRepair(s.db, func() (*models.Bookmark, error) {
		b := &models.Bookmark{
			ID:         newID(),
			DocumentID: in.DocumentID,
			PageNumber: in.PageNumber,
			Label:      in.Label,
			CreatedAt:  s.db.nowMillis(),
		}
		if _, err := s.db.Exec(`
			INSERT INTO bookmarks (`+bookmarkColumns+`) VALUES (?, ?, ?, ?, ?)
		`, b.ID, b.DocumentID, b.PageNumber, nullString(b.Label), b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert bookmark: %w", err)
		}
		return b, nil
	})
}

// Get retrieves a bookmark by ID; nil when absent
func (s *BookmarkStore) Get(id string) (*models.Bookmark, error) {
	return withRepair(s.db, func() (*models.Bookmark, error) {
		return getBookmark(s.db.conn, id)
	})
}

// ListByDocument lists a document's bookmarks by page
func (s *BookmarkStore) ListByDocument(documentID string) ([]models.Bookmark, error) {
	return withRepair(s.db, func() ([]models.Bookmark, error) {
		rows, err := s.db.Query(`
			SELECT `+bookmarkColumns+`
			FROM bookmarks
			WHERE document_id = ?
			ORDER BY page_number ASC, created_at ASC
		`, documentID)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.Bookmark{}
		for rows.Next() {
			b, err := scanBookmark(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, *b)
		}
		return out, rows.Err()
	})
}

// Update applies a sparse patch and returns the merged bookmark; nil when absent
func (s *BookmarkStore) Update(id string, patch models.BookmarkPatch) (*models.Bookmark, error) {
	return withRepair(s.db, func() (*models.Bookmark, error) {
		found, err := applyPatch(s.db.conn, "bookmarks", id, patch.Assignments())
		if err != nil || !found {
			return nil, err
		}
		return getBookmark(s.db.conn, id)
	})
}

// Delete removes a bookmark
func (s *BookmarkStore) Delete(id string) (bool, error) {
	return withRepair(s.db, func() (bool, error) {
		return deleteByID(s.db.conn, "bookmarks", id)
	})
}

func getBookmark(q querier, id string) (*models.Bookmark, error) {
	b, err := scanBookmark(q.QueryRow(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func scanBookmark(row rowScanner) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := row.Scan(&b.ID, &b.DocumentID, &b.PageNumber, &b.Label, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
