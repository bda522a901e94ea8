// ABOUTME: SM-2 spaced-repetition scheduler for review cards
// ABOUTME: Pure functions; the review card store applies the outcome in a transaction
package core

import (
	"math"
	"time"

	"github.com/harper/marginalia/internal/models"
)

// Quality bounds for a review rating.
const (
	MinQuality  = 0
	MaxQuality  = 5
	PassQuality = 3
)

// ReviewOutcome is the new scheduling state of a card after one review.
type ReviewOutcome struct {
	IntervalDays int
	EaseFactor   float64
	ReviewCount  int
	NextReviewAt int64
}

// ClampQuality forces a rating into [0, 5].
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// NextEaseFactor applies the SM-2 ease update and the 1.3 floor.
func NextEaseFactor(ease float64, quality int) float64 {
	miss := float64(MaxQuality - ClampQuality(quality))
	next := ease + (0.1 - miss*(0.08+miss*0.02))
	return math.Max(models.MinEaseFactor, next)
}

// CalculateNextReview computes the schedule after a review rated quality.
// A rating below 3 is a lapse: the interval drops to one day and the
// review count restarts at zero.
func CalculateNextReview(quality, intervalDays int, easeFactor float64, reviewCount int, now time.Time) ReviewOutcome {
	q := ClampQuality(quality)
	ease := NextEaseFactor(easeFactor, q)

	var interval, count int
	switch {
	case q < PassQuality:
		interval, count = 1, 0
	case reviewCount <= 0:
		interval, count = 1, 1
	case reviewCount == 1:
		interval, count = 6, 2
	default:
		interval = int(math.Round(float64(intervalDays) * ease))
		if interval < 1 {
			interval = 1
		}
		count = reviewCount + 1
	}

	return ReviewOutcome{
		IntervalDays: interval,
		EaseFactor:   ease,
		ReviewCount:  count,
		NextReviewAt: DueAt(now, interval),
	}
}

// DueAt returns now plus the given number of days, in epoch milliseconds.
func DueAt(now time.Time, days int) int64 {
	return now.UnixMilli() + int64(days)*models.DayMillis
}
