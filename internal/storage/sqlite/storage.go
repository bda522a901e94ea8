// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: Entry point for the CLI, the MCP server and the AI collaborator
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/harper/marginalia/internal/models"
)

// Storage manages all persistent reading-companion data. Each Storage owns
// its own DB handle; nothing is shared between instances.
type Storage struct {
	db            *DB
	documents     *DocumentStore
	interactions  *InteractionStore
	concepts      *ConceptStore
	reviewCards   *ReviewCardStore
	highlights    *HighlightStore
	bookmarks     *BookmarkStore
	conversations *ConversationStore
	search        *SearchIndex
}

// NewStorage initializes storage at the default XDG path
func NewStorage(opts ...Option) (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath(), opts...)
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(dbPath string, opts ...Option) (*Storage, error) {
	db, err := Open(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory(opts ...Option) (*Storage, error) {
	db, err := OpenInMemory(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:            db,
		documents:     NewDocumentStore(db),
		interactions:  NewInteractionStore(db),
		concepts:      NewConceptStore(db),
		reviewCards:   NewReviewCardStore(db),
		highlights:    NewHighlightStore(db),
		bookmarks:     NewBookmarkStore(db),
		conversations: NewConversationStore(db),
		search:        NewSearchIndex(db),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database handle
func (s *Storage) DB() *DB { return s.db }

// Documents returns the document store
func (s *Storage) Documents() *DocumentStore { return s.documents }

// Interactions returns the interaction store
func (s *Storage) Interactions() *InteractionStore { return s.interactions }

// Concepts returns the concept store
func (s *Storage) Concepts() *ConceptStore { return s.concepts }

// ReviewCards returns the review card store
func (s *Storage) ReviewCards() *ReviewCardStore { return s.reviewCards }

// Highlights returns the highlight store
func (s *Storage) Highlights() *HighlightStore { return s.highlights }

// Bookmarks returns the bookmark store
func (s *Storage) Bookmarks() *BookmarkStore { return s.bookmarks }

// Conversations returns the conversation store
func (s *Storage) Conversations() *ConversationStore { return s.conversations }

// Search returns the full-text search index
func (s *Storage) Search() *SearchIndex { return s.search }

// Now returns the storage clock in epoch milliseconds
func (s *Storage) Now() int64 { return s.db.nowMillis() }

// Completion is what RecordCompletion persisted.
type Completion struct {
	Interaction *models.Interaction `json:"interaction"`
	Concepts    []models.Concept    `json:"concepts"`
}

// RecordCompletion persists one finished AI exchange and links its extracted
// concepts to the interaction and its document, all in one transaction.
func (s *Storage) RecordCompletion(in models.CompletionInput) (*Completion, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	names := models.UniqueConceptNames(in.Concepts)

	return withRepair(s.db, func() (*Completion, error) {
		var out *Completion
		err := s.db.inTx(func(tx *sql.Tx) error {
			now := s.db.nowMillis()
			interaction, err := insertInteraction(tx, in.NewInteraction, newID(), now)
			if err != nil {
				return err
			}
			concepts, err := saveConceptLinks(tx, names, interaction.ID, interaction.DocumentID, now)
			if err != nil {
				return err
			}
			out = &Completion{Interaction: interaction, Concepts: concepts}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.db.logger.Debug("recorded completion",
			"interaction", out.Interaction.ID, "concepts", len(out.Concepts))
		return out, nil
	})
}

// Stats counts the rows in every entity family and the cards due at now
func (s *Storage) Stats(now int64) (*models.Stats, error) {
	return withRepair(s.db, func() (*models.Stats, error) {
		var st models.Stats
		counts := []struct {
			table string
			dest  *int
		}{
			{"documents", &st.Documents},
			{"interactions", &st.Interactions},
			{"concepts", &st.Concepts},
			{"review_cards", &st.ReviewCards},
			{"highlights", &st.Highlights},
			{"bookmarks", &st.Bookmarks},
			{"conversations", &st.Conversations},
		}
		for _, c := range counts {
			if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dest); err != nil {
				return nil, fmt.Errorf("count %s: %w", c.table, err)
			}
		}
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM review_cards WHERE next_review_at <= ?`, now).Scan(&st.DueCards); err != nil {
			return nil, fmt.Errorf("count due cards: %w", err)
		}

		version, err := s.db.SchemaVersion()
		if err != nil {
			return nil, err
		}
		st.SchemaVersion = version
		return &st, nil
	})
}
