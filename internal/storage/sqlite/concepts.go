// ABOUTME: Concept storage operations and the two concept join tables
// ABOUTME: Batched links for an interaction are saved in one transaction
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/harper/marginalia/internal/core"
	"github.com/harper/marginalia/internal/models"
)

// ConceptStore handles concept persistence
type ConceptStore struct {
	db *DB
}

// NewConceptStore creates a new ConceptStore
func NewConceptStore(db *DB) *ConceptStore {
	return &ConceptStore{db: db}
}

// GetOrCreate returns the concept matching name regardless of case and
// surrounding whitespace, creating it with the trimmed spelling if needed.
func (s *ConceptStore) GetOrCreate(name string) (*models.Concept, error) {
	if models.NormalizeConceptName(name) == "" {
		return nil, fmt.Errorf("%w: concept name is required", models.ErrValidation)
	}
	return withRepair(s.db, func() (*models.Concept, error) {
		return getOrCreateConcept(s.db.conn, name, s.db.nowMillis())
	})
}

func getOrCreateConcept(q querier, name string, now int64) (*models.Concept, error) {
	display := models.NormalizeConceptName(name)
	key := models.ConceptKey(name)

	if _, err := q.Exec(`
		INSERT INTO concepts (id, name, name_key, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name_key) DO NOTHING
	`, newID(), display, key, now); err != nil {
		return nil, fmt.Errorf("failed to insert concept: %w", err)
	}

	var c models.Concept
	err := q.QueryRow(`SELECT id, name, created_at FROM concepts WHERE name_key = ?`, key).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Get retrieves a concept by ID; nil when absent
func (s *ConceptStore) Get(id string) (*models.Concept, error) {
	return s.getOne(`SELECT id, name, created_at FROM concepts WHERE id = ?`, id)
}

// GetByName retrieves a concept by case-insensitive name; nil when absent
func (s *ConceptStore) GetByName(name string) (*models.Concept, error) {
	return s.getOne(`SELECT id, name, created_at FROM concepts WHERE name_key = ?`, models.ConceptKey(name))
}

func (s *ConceptStore) getOne(query string, arg string) (*models.Concept, error) {
	return withRepair(s.db, func() (*models.Concept, error) {
		var c models.Concept
		err := s.db.QueryRow(query, arg).Scan(&c.ID, &c.Name, &c.CreatedAt)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &c, nil
	})
}

// List lists concepts alphabetically
func (s *ConceptStore) List(limit int) ([]models.Concept, error) {
	return withRepair(s.db, func() ([]models.Concept, error) {
		rows, err := s.db.Query(`
			SELECT id, name, created_at FROM concepts ORDER BY name_key LIMIT ?
		`, normalizeLimit(limit))
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.Concept{}
		for rows.Next() {
			var c models.Concept
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	})
}

// ListForDocument lists the concepts linked to a document with their
// per-document occurrence counts, most frequent first.
func (s *ConceptStore) ListForDocument(documentID string) ([]models.DocumentConceptCount, error) {
	return withRepair(s.db, func() ([]models.DocumentConceptCount, error) {
		rows, err := s.db.Query(`
			SELECT c.id, c.name, c.created_at, dc.occurrence_count
			FROM document_concepts dc
			JOIN concepts c ON c.id = dc.concept_id
			WHERE dc.document_id = ?
			ORDER BY dc.occurrence_count DESC, c.name_key
		`, documentID)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.DocumentConceptCount{}
		for rows.Next() {
			var c models.DocumentConceptCount
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.OccurrenceCount); err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	})
}

// LinkToDocument records one more occurrence of a concept in a document.
func (s *ConceptStore) LinkToDocument(conceptID, documentID string) error {
	return execWithRepair(s.db, func() error {
		return incrementDocumentConcept(s.db.conn, documentID, conceptID)
	})
}

// LinkToInteraction records that a concept surfaced in an interaction. A
// duplicate link is a no-op.
func (s *ConceptStore) LinkToInteraction(conceptID, interactionID string) error {
	return execWithRepair(s.db, func() error {
		return linkInteractionConcept(s.db.conn, interactionID, conceptID)
	})
}

// SaveForInteraction resolves every extracted name to a concept and links it
// to both the interaction and its document in one transaction: either every
// link is recorded or none is. Names that differ only in case or spacing
// count once.
func (s *ConceptStore) SaveForInteraction(names []string, interactionID, documentID string) ([]models.Concept, error) {
	unique := models.UniqueConceptNames(names)
	if len(unique) == 0 {
		return []models.Concept{}, nil
	}

	return withRepair(s.db, func() ([]models.Concept, error) {
		var saved []models.Concept
		err := s.db.inTx(func(tx *sql.Tx) error {
			var err error
			saved, err = saveConceptLinks(tx, unique, interactionID, documentID, s.db.nowMillis())
			return err
		})
		return saved, err
	})
}

func saveConceptLinks(q querier, names []string, interactionID, documentID string, now int64) ([]models.Concept, error) {
	saved := make([]models.Concept, 0, len(names))
	for _, name := range names {
		c, err := getOrCreateConcept(q, name, now)
		if err != nil {
			return nil, err
		}
		if err := linkInteractionConcept(q, interactionID, c.ID); err != nil {
			return nil, err
		}
		if err := incrementDocumentConcept(q, documentID, c.ID); err != nil {
			return nil, err
		}
		saved = append(saved, *c)
	}
	return saved, nil
}

func linkInteractionConcept(q querier, interactionID, conceptID string) error {
	_, err := q.Exec(`
		INSERT INTO interaction_concepts (interaction_id, concept_id)
		VALUES (?, ?)
		ON CONFLICT(interaction_id, concept_id) DO NOTHING
	`, interactionID, conceptID)
	if err != nil {
		return fmt.Errorf("failed to link concept to interaction: %w", err)
	}
	return nil
}

func incrementDocumentConcept(q querier, documentID, conceptID string) error {
	_, err := q.Exec(`
		INSERT INTO document_concepts (document_id, concept_id, occurrence_count)
		VALUES (?, ?, 1)
		ON CONFLICT(document_id, concept_id) DO UPDATE SET
			occurrence_count = document_concepts.occurrence_count + 1
	`, documentID, conceptID)
	if err != nil {
		return fmt.Errorf("failed to link concept to document: %w", err)
	}
	return nil
}

// Graph computes the co-occurrence graph across every document.
func (s *ConceptStore) Graph() (*models.ConceptGraph, error) {
	return withRepair(s.db, func() (*models.ConceptGraph, error) {
		nodes, err := s.queryNodes(`
			SELECT c.id, c.name,
			       COALESCE(SUM(dc.occurrence_count), 0),
			       COUNT(dc.document_id)
			FROM concepts c
			LEFT JOIN document_concepts dc ON dc.concept_id = c.id
			GROUP BY c.id
			ORDER BY 3 DESC, c.name_key
		`)
		if err != nil {
			return nil, err
		}
		links, err := s.queryLinks(`SELECT interaction_id, concept_id FROM interaction_concepts`)
		if err != nil {
			return nil, err
		}
		return core.BuildConceptGraph(nodes, links), nil
	})
}

// GraphForDocument computes the graph restricted to one document: node
// totals are that document's occurrence counts and edges come only from its
// interactions.
func (s *ConceptStore) GraphForDocument(documentID string) (*models.ConceptGraph, error) {
	return withRepair(s.db, func() (*models.ConceptGraph, error) {
		nodes, err := s.queryNodes(`
			SELECT c.id, c.name, dc.occurrence_count, 1
			FROM document_concepts dc
			JOIN concepts c ON c.id = dc.concept_id
			WHERE dc.document_id = ?
			ORDER BY dc.occurrence_count DESC, c.name_key
		`, documentID)
		if err != nil {
			return nil, err
		}
		links, err := s.queryLinks(`
			SELECT ic.interaction_id, ic.concept_id
			FROM interaction_concepts ic
			JOIN interactions i ON i.id = ic.interaction_id
			WHERE i.document_id = ?
		`, documentID)
		if err != nil {
			return nil, err
		}
		return core.BuildConceptGraph(nodes, links), nil
	})
}

func (s *ConceptStore) queryNodes(query string, args ...interface{}) ([]models.ConceptNode, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	nodes := []models.ConceptNode{}
	for rows.Next() {
		var n models.ConceptNode
		if err := rows.Scan(&n.ID, &n.Name, &n.TotalOccurrences, &n.DocumentCount); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *ConceptStore) queryLinks(query string, args ...interface{}) ([]models.InteractionConcept, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var links []models.InteractionConcept
	for rows.Next() {
		var l models.InteractionConcept
		if err := rows.Scan(&l.InteractionID, &l.ConceptID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
