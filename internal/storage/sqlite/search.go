// ABOUTME: Full-text search over documents, interactions and concepts
// ABOUTME: Queries are sanitized into prefix terms and ranked by bm25
package sqlite

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/harper/marginalia/internal/core"
	"github.com/harper/marginalia/internal/models"
)

// DefaultSearchLimit is the per-type limit used when a search passes a
// non-positive limit.
const DefaultSearchLimit = 10

// MaxSearchLimit caps any single result list.
const MaxSearchLimit = 100

// Snippet markers wrapped around matched spans in interaction results.
const (
	SnippetOpen     = "<mark>"
	SnippetClose    = "</mark>"
	snippetEllipsis = "…"
	snippetTokens   = 12
)

// SearchIndex runs ranked lexical queries against the FTS5 tables
type SearchIndex struct {
	db *DB
}

// NewSearchIndex creates a new SearchIndex
func NewSearchIndex(db *DB) *SearchIndex {
	return &SearchIndex{db: db}
}

// SearchDocuments matches documents by filename
func (s *SearchIndex) SearchDocuments(query string, limit int) ([]models.DocumentResult, error) {
	match := core.BuildMatchQuery(query)
	if match == "" {
		return []models.DocumentResult{}, nil
	}

	return withRepair(s.db, func() ([]models.DocumentResult, error) {
		rows, err := s.db.Query(`
			SELECT `+qualify("d", documentColumns)+`, documents_fts.rank
			FROM documents_fts
			JOIN documents d ON d.id = documents_fts.id
			WHERE documents_fts MATCH ?
			ORDER BY documents_fts.rank
			LIMIT ?
		`, match, searchLimit(limit))
		if err != nil {
			return nil, fmt.Errorf("document search: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out := []models.DocumentResult{}
		for rows.Next() {
			var r models.DocumentResult
			if err := rows.Scan(&r.ID, &r.Filename, &r.Filepath, &r.LastOpenedAt,
				&r.ScrollPosition, &r.TotalPages, &r.CreatedAt, &r.Rank); err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, rows.Err()
	})
}

// SearchInteractions matches interactions by selected text and response
// across every document
func (s *SearchIndex) SearchInteractions(query string, limit int) ([]models.InteractionResult, error) {
	return s.searchInteractions(query, "", limit)
}

// SearchInteractionsInDocument is SearchInteractions constrained to one
// document
func (s *SearchIndex) SearchInteractionsInDocument(documentID, query string, limit int) ([]models.InteractionResult, error) {
	if documentID == "" {
		return []models.InteractionResult{}, nil
	}
	return s.searchInteractions(query, documentID, limit)
}

func (s *SearchIndex) searchInteractions(query, documentID string, limit int) ([]models.InteractionResult, error) {
	match := core.BuildMatchQuery(query)
	if match == "" {
		return []models.InteractionResult{}, nil
	}

	where := "interactions_fts MATCH ?"
	args := []interface{}{match}
	if documentID != "" {
		where += " AND i.document_id = ?"
		args = append(args, documentID)
	}
	args = append(args, searchLimit(limit))

	return withRepair(s.db, func() ([]models.InteractionResult, error) {
		rows, err := s.db.Query(`
			SELECT `+qualify("i", interactionColumns)+`, interactions_fts.rank,
				snippet(interactions_fts, -1, '`+SnippetOpen+`', '`+SnippetClose+`', '`+snippetEllipsis+`', `+fmt.Sprint(snippetTokens)+`),
				d.filename
			FROM interactions_fts
			JOIN interactions i ON i.id = interactions_fts.id
			JOIN documents d ON d.id = i.document_id
			WHERE `+where+`
			ORDER BY interactions_fts.rank
			LIMIT ?
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("interaction search: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out := []models.InteractionResult{}
		for rows.Next() {
			var r models.InteractionResult
			if err := rows.Scan(&r.ID, &r.DocumentID, &r.ActionType, &r.SelectedText, &r.PageContext,
				&r.Response, &r.PageNumber, &r.ScrollPosition, &r.CreatedAt,
				&r.Rank, &r.Snippet, &r.Filename); err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, rows.Err()
	})
}

// SearchConcepts matches concepts by name
func (s *SearchIndex) SearchConcepts(query string, limit int) ([]models.ConceptResult, error) {
	match := core.BuildMatchQuery(query)
	if match == "" {
		return []models.ConceptResult{}, nil
	}

	return withRepair(s.db, func() ([]models.ConceptResult, error) {
		rows, err := s.db.Query(`
			SELECT c.id, c.name, c.created_at, concepts_fts.rank
			FROM concepts_fts
			JOIN concepts c ON c.id = concepts_fts.id
			WHERE concepts_fts MATCH ?
			ORDER BY concepts_fts.rank
			LIMIT ?
		`, match, searchLimit(limit))
		if err != nil {
			return nil, fmt.Errorf("concept search: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out := []models.ConceptResult{}
		for rows.Next() {
			var r models.ConceptResult
			if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.Rank); err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, rows.Err()
	})
}

// SearchAll runs the three searches concurrently, each with its own limit.
// An empty sub-result is not an error.
func (s *SearchIndex) SearchAll(query string, limitPerType int) (*models.SearchResults, error) {
	results := &models.SearchResults{
		Documents:    []models.DocumentResult{},
		Interactions: []models.InteractionResult{},
		Concepts:     []models.ConceptResult{},
	}
	if core.BuildMatchQuery(query) == "" {
		return results, nil
	}

	var g errgroup.Group
	g.Go(func() error {
		docs, err := s.SearchDocuments(query, limitPerType)
		results.Documents = docs
		return err
	})
	g.Go(func() error {
		interactions, err := s.SearchInteractions(query, limitPerType)
		results.Interactions = interactions
		return err
	})
	g.Go(func() error {
		concepts, err := s.SearchConcepts(query, limitPerType)
		results.Concepts = concepts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func searchLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	}
	return limit
}

// qualify prefixes each column in a comma-separated list with alias.
func qualify(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
