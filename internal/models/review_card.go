// ABOUTME: ReviewCard is a spaced-repetition recall card built from an interaction
// ABOUTME: Scheduling fields are only ever changed by the SM-2 scheduler
package models

import "strings"

// Scheduling constants for new cards.
const (
	InitialEaseFactor   = 2.5
	InitialIntervalDays = 1
	MinEaseFactor       = 1.3
	DayMillis           = int64(86_400_000)
)

// ReviewCard is a question/answer pair scheduled for recall practice.
type ReviewCard struct {
	ID            string  `json:"id" yaml:"id"`
	InteractionID string  `json:"interaction_id" yaml:"interaction_id"`
	Question      string  `json:"question" yaml:"question"`
	Answer        string  `json:"answer" yaml:"answer"`
	NextReviewAt  int64   `json:"next_review_at" yaml:"next_review_at"`
	IntervalDays  int     `json:"interval_days" yaml:"interval_days"`
	EaseFactor    float64 `json:"ease_factor" yaml:"ease_factor"`
	ReviewCount   int     `json:"review_count" yaml:"review_count"`
	CreatedAt     int64   `json:"created_at" yaml:"created_at"`
}

// NewReviewCard is the input for creating a card.
type NewReviewCard struct {
	InteractionID string
	Question      string
	Answer        string
}

// Validate reports missing required fields.
func (n NewReviewCard) Validate() error {
	switch {
	case n.InteractionID == "":
		return invalid("review card interaction_id is required")
	case strings.TrimSpace(n.Question) == "":
		return invalid("review card question is required")
	case strings.TrimSpace(n.Answer) == "":
		return invalid("review card answer is required")
	}
	return nil
}
