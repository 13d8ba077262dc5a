// Package srs implements a simplified SM-2 scheduler and the
// selection heuristic used by the round mode.
package srs

import (
	"math"
	"time"

	"github.com/entrenacoco/rosco/internal/model"
)

const (
	initialEase = 2.3
	minEase     = 1.3
	maxEase     = 2.8

	dayMs = int64(24 * time.Hour / time.Millisecond)
	// Recently reviewed cards are suppressed in selection for this long.
	recentWindowMs = int64(6 * time.Hour / time.Millisecond)
)

// Review grades.
const (
	GradeFail = 0
	GradeHard = 1
	GradeGood = 2
	GradeEasy = 3
)

// NewRecord returns the zero-state progress record for a card.
func NewRecord(deckID, cardID string) model.ProgressRecord {
	return model.ProgressRecord{
		Key:          model.ProgressKey(deckID, cardID),
		DeckID:       deckID,
		CardID:       cardID,
		Reps:         0,
		IntervalDays: 0,
		Ease:         initialEase,
		DueAt:        0,
		Lapses:       0,
		LastAt:       0,
	}
}

// ApplyReview returns a new record with the review outcome applied.
// The input record is not mutated.
func ApplyReview(rec model.ProgressRecord, grade int, now time.Time) model.ProgressRecord {
	nowMs := now.UnixMilli()
	p := rec
	p.LastAt = nowMs

	if grade == GradeFail {
		p.Lapses++
		p.Reps = 0
		p.IntervalDays = 1
		p.Ease = math.Max(minEase, p.Ease-0.2)
		p.DueAt = nowMs + dayMs
		return p
	}

	switch grade {
	case GradeHard:
		p.Ease = math.Max(minEase, p.Ease-0.05)
	case GradeEasy:
		p.Ease = math.Min(maxEase, p.Ease+0.08)
	}

	p.Reps++

	switch {
	case p.Reps == 1:
		p.IntervalDays = 1
	case p.Reps == 2:
		p.IntervalDays = 3
	default:
		p.IntervalDays = int(math.Round(float64(p.IntervalDays) * p.Ease))
	}

	p.DueAt = nowMs + int64(p.IntervalDays)*dayMs
	return p
}

// ScoreForSelection rates how likely the card should be drawn next.
// Due and new cards rise, recently seen cards sink. Always >= 0.01 so a
// weighted random draw over the pool stays well-defined.
func ScoreForSelection(rec model.ProgressRecord, now time.Time) float64 {
	nowMs := now.UnixMilli()
	isNew := rec.DueAt == 0

	overdueDays := 0.0
	if !isNew {
		overdueDays = math.Max(0, float64(nowMs-rec.DueAt)/float64(dayMs))
	}

	recentPenalty := 0.0
	if rec.LastAt != 0 {
		recentPenalty = math.Max(0, 1-float64(nowMs-rec.LastAt)/float64(recentWindowMs))
	}

	score := 1.0
	if isNew {
		score += 2.2
	}
	score += math.Min(4, overdueDays)
	score += math.Max(0, float64(2-rec.Reps))
	score -= recentPenalty * 2.0

	return math.Max(0.01, score)
}

// IsDue reports whether the card is scheduled and past its due time.
func IsDue(rec model.ProgressRecord, now time.Time) bool {
	return rec.DueAt != 0 && rec.DueAt <= now.UnixMilli()
}

// IsNew reports whether the card has never been reviewed.
func IsNew(rec model.ProgressRecord) bool {
	return rec.DueAt == 0
}
