// ABOUTME: Document storage operations for SQLite
// ABOUTME: getOrCreate keys documents by filepath and touches last_opened_at on reopen
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/harper/marginalia/internal/models"
)

const documentColumns = `id, filename, filepath, last_opened_at, scroll_position, total_pages, created_at`

// DocumentStore handles document persistence
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// GetOrCreate returns the document stored at filepath, creating it on first
// open. A reopen refreshes last_opened_at and, when given, total_pages.
func (s *DocumentStore) GetOrCreate(filename, filepath string, totalPages *int) (*models.Document, error) {
	if err := models.ValidateDocumentIdentity(filename, filepath); err != nil {
		return nil, err
	}
	filepath = strings.TrimSpace(filepath)

	return withRepair(s.db, func() (*models.Document, error) {
		var doc *models.Document
		err := s.db.inTx(func(tx *sql.Tx) error {
			now := s.db.nowMillis()
			if _, err := tx.Exec(`
				INSERT INTO documents (id, filename, filepath, last_opened_at, scroll_position, total_pages, created_at)
				VALUES (?, ?, ?, ?, 0, ?, ?)
				ON CONFLICT(filepath) DO UPDATE SET
					last_opened_at = excluded.last_opened_at,
					total_pages = COALESCE(excluded.total_pages, documents.total_pages)
			`, newID(), filename, filepath, now, nullInt(totalPages), now); err != nil {
				return fmt.Errorf("failed to upsert document: %w", err)
			}

			var err error
			doc, err = scanDocument(tx.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE filepath = ?`, filepath))
			return err
		})
		return doc, err
	})
}

// Get retrieves a document by ID; nil when absent
func (s *DocumentStore) Get(id string) (*models.Document, error) {
	return withRepair(s.db, func() (*models.Document, error) {
		return getDocument(s.db.conn, id)
	})
}

// GetByPath retrieves a document by filepath; nil when absent
func (s *DocumentStore) GetByPath(filepath string) (*models.Document, error) {
	filepath = strings.TrimSpace(filepath)
	return withRepair(s.db, func() (*models.Document, error) {
		doc, err := scanDocument(s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE filepath = ?`, filepath))
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return doc, err
	})
}

// Recent lists documents by last_opened_at, newest first
func (s *DocumentStore) Recent(limit int) ([]models.Document, error) {
	return withRepair(s.db, func() ([]models.Document, error) {
		rows, err := s.db.Query(`
			SELECT `+documentColumns+`
			FROM documents
			ORDER BY last_opened_at DESC, created_at DESC
			LIMIT ?
		`, normalizeLimit(limit))
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		return scanDocuments(rows)
	})
}

// Update applies a sparse patch and returns the merged document; nil when absent
func (s *DocumentStore) Update(id string, patch models.DocumentPatch) (*models.Document, error) {
	return withRepair(s.db, func() (*models.Document, error) {
		found, err := applyPatch(s.db.conn, "documents", id, patch.Assignments())
		if err != nil || !found {
			return nil, err
		}
		return getDocument(s.db.conn, id)
	})
}

func getDocument(q querier, id string) (*models.Document, error) {
	doc, err := scanDocument(q.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Filepath, &doc.LastOpenedAt,
		&doc.ScrollPosition, &doc.TotalPages, &doc.CreatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]models.Document, error) {
	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DefaultListLimit is used when a list call passes a non-positive limit.
const DefaultListLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
