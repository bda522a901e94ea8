// ABOUTME: Review card storage operations for SQLite
// ABOUTME: Cards are created from interactions and rescheduled by the SM-2 scheduler
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/harper/marginalia/internal/core"
	"github.com/harper/marginalia/internal/models"
)

const reviewCardColumns = `id, interaction_id, question, answer, next_review_at, interval_days, ease_factor, review_count, created_at`

// ReviewCardStore handles review card persistence
type ReviewCardStore struct {
	db *DB
}

// NewReviewCardStore creates a new ReviewCardStore
func NewReviewCardStore(db *DB) *ReviewCardStore {
	return &ReviewCardStore{db: db}
}

// Create stores a card for an interaction, due one day from now. An
// interaction has at most one card; if it already has one, that card is
// returned unchanged.
func (s *ReviewCardStore) Create(in models.NewReviewCard) (*models.ReviewCard, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return withRepair(s.db, func() (*models.ReviewCard, error) {
		var card *models.ReviewCard
		err := s.db.inTx(func(tx *sql.Tx) error {
			now := s.db.now()
			if _, err := tx.Exec(`
				INSERT INTO review_cards (`+reviewCardColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
				ON CONFLICT(interaction_id) DO NOTHING
			`, newID(), in.InteractionID, in.Question, in.Answer,
				core.DueAt(now, models.InitialIntervalDays), models.InitialIntervalDays,
				models.InitialEaseFactor, now.UnixMilli()); err != nil {
				return fmt.Errorf("failed to insert review card: %w", err)
			}

			var err error
			card, err = scanReviewCard(tx.QueryRow(
				`SELECT `+reviewCardColumns+` FROM review_cards WHERE interaction_id = ?`, in.InteractionID))
			return err
		})
		return card, err
	})
}

// Get retrieves a card by ID; nil when absent
func (s *ReviewCardStore) Get(id string) (*models.ReviewCard, error) {
	return s.getOne(`SELECT `+reviewCardColumns+` FROM review_cards WHERE id = ?`, id)
}

// GetByInteraction retrieves the card built from an interaction; nil when absent
func (s *ReviewCardStore) GetByInteraction(interactionID string) (*models.ReviewCard, error) {
	return s.getOne(`SELECT `+reviewCardColumns+` FROM review_cards WHERE interaction_id = ?`, interactionID)
}

// Next returns the earliest card due at or before now. No due card is not an
// error: it returns nil.
func (s *ReviewCardStore) Next(now int64) (*models.ReviewCard, error) {
	return s.getOne(`
		SELECT `+reviewCardColumns+`
		FROM review_cards
		WHERE next_review_at <= ?
		ORDER BY next_review_at ASC, created_at ASC
		LIMIT 1
	`, now)
}

// CountDue counts cards due at or before now
func (s *ReviewCardStore) CountDue(now int64) (int, error) {
	return withRepair(s.db, func() (int, error) {
		var n int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM review_cards WHERE next_review_at <= ?`, now).Scan(&n)
		return n, err
	})
}

// List lists all cards by due time, soonest first
func (s *ReviewCardStore) List(limit int) ([]models.ReviewCard, error) {
	return s.list(`
		SELECT `+reviewCardColumns+`
		FROM review_cards
		ORDER BY next_review_at ASC, created_at ASC
		LIMIT ?
	`, normalizeLimit(limit))
}

// ListDue lists cards due at or before now, soonest first
func (s *ReviewCardStore) ListDue(now int64, limit int) ([]models.ReviewCard, error) {
	return s.list(`
		SELECT `+reviewCardColumns+`
		FROM review_cards
		WHERE next_review_at <= ?
		ORDER BY next_review_at ASC, created_at ASC
		LIMIT ?
	`, now, normalizeLimit(limit))
}

// Review records a rating for a card and reschedules it. Quality is clamped
// to [0, 5]. Returns nil when the card does not exist.
func (s *ReviewCardStore) Review(id string, quality int) (*models.ReviewCard, error) {
	return withRepair(s.db, func() (*models.ReviewCard, error) {
		var card *models.ReviewCard
		err := s.db.inTx(func(tx *sql.Tx) error {
			current, err := scanReviewCard(tx.QueryRow(`SELECT `+reviewCardColumns+` FROM review_cards WHERE id = ?`, id))
			if err == sql.ErrNoRows {
				return nil
			}
			if err != nil {
				return err
			}

			out := core.CalculateNextReview(quality, current.IntervalDays, current.EaseFactor, current.ReviewCount, s.db.now())
			if _, err := tx.Exec(`
				UPDATE review_cards
				SET next_review_at = ?, interval_days = ?, ease_factor = ?, review_count = ?
				WHERE id = ?
			`, out.NextReviewAt, out.IntervalDays, out.EaseFactor, out.ReviewCount, id); err != nil {
				return fmt.Errorf("failed to reschedule review card: %w", err)
			}

			current.NextReviewAt = out.NextReviewAt
			current.IntervalDays = out.IntervalDays
			current.EaseFactor = out.EaseFactor
			current.ReviewCount = out.ReviewCount
			card = current
			return nil
		})
		return card, err
	})
}

// Delete removes a card
func (s *ReviewCardStore) Delete(id string) (bool, error) {
	return withRepair(s.db, func() (bool, error) {
		return deleteByID(s.db.conn, "review_cards", id)
	})
}

func (s *ReviewCardStore) getOne(query string, args ...interface{}) (*models.ReviewCard, error) {
	return withRepair(s.db, func() (*models.ReviewCard, error) {
		card, err := scanReviewCard(s.db.QueryRow(query, args...))
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return card, err
	})
}

func (s *ReviewCardStore) list(query string, args ...interface{}) ([]models.ReviewCard, error) {
	return withRepair(s.db, func() ([]models.ReviewCard, error) {
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		out := []models.ReviewCard{}
		for rows.Next() {
			card, err := scanReviewCard(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, *card)
		}
		return out, rows.Err()
	})
}

func scanReviewCard(row rowScanner) (*models.ReviewCard, error) {
	var c models.ReviewCard
	if err := row.Scan(&c.ID, &c.InteractionID, &c.Question, &c.Answer, &c.NextReviewAt,
		&c.IntervalDays, &c.EaseFactor, &c.ReviewCount, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
