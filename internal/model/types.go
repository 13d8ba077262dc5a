// Package model defines shared data structures.
package model

import "time"

// Card is a single question/answer pair inside a deck.
type Card struct {
	Key         string
	DeckID      string
	CardID      string
	Question    string
	Answer      string
	Hint        string
	Explanation string
	Tags        []string
}

// Deck groups cards under a stable identifier.
type Deck struct {
	ID          string
	Title       string
	Description string
	Lang        string
	Kind        string
	UpdatedAt   time.Time
}

// ProgressRecord holds the scheduling state for one card.
// Times are unix milliseconds; DueAt == 0 marks a never-reviewed card.
type ProgressRecord struct {
	Key          string
	DeckID       string
	CardID       string
	Reps         int
	IntervalDays int
	Ease         float64
	DueAt        int64
	Lapses       int
	LastAt       int64
}

// ProgressKey builds the composite store key for a card's progress.
func ProgressKey(deckID, cardID string) string {
	return deckID + ":" + cardID
}

// RoundConfig defines round behavior.
type RoundConfig struct {
	DeckID       string
	RoundSeconds int
	Adaptive     bool
	AllowTokens  bool
	Mute         bool
	Voice        bool
}

// RoundSummary captures a finished round.
type RoundSummary struct {
	StartedAt  time.Time
	EndedAt    time.Time
	DeckID     string
	OK         int
	Fail       int
	Skip       int
	BestStreak int
	Answered   int
	Difficulty float64
	Score      int
	DurationMs int64
}

// RoundAggregate summarizes a stored round for reporting.
type RoundAggregate struct {
	RoundID    int64
	EndedAt    time.Time
	DeckID     string
	OK         int
	Fail       int
	Skip       int
	BestStreak int
	Score      int
	DurationMs int64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	DeckID      string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Event is a queued telemetry event awaiting flush.
type Event struct {
	ID      int64
	TS      int64
	Name    string
	Payload map[string]any
}
