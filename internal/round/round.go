// Package round drives a timed 27-letter trivia round over a card deck.
//
// The session is a single-threaded state machine: external code feeds it
// one-second Tick calls and user commands (Submit, Skip, Fail,
// AcknowledgeReview, Restart) and reads back snapshots. Guarded calls
// (while paused, after the clock ran out, with nothing playable) are
// silent no-ops, so callers never need to gate precisely.
package round

import (
	"context"
	"math/rand"
	"time"

	"github.com/entrenacoco/rosco/internal/answer"
	"github.com/entrenacoco/rosco/internal/letters"
	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/srs"
)

// Outcome is the per-letter result within a round.
type Outcome string

// Letter outcomes. OK and Fail are terminal for the round; Skip letters
// come around again.
const (
	OutcomeNew  Outcome = "new"
	OutcomeOK   Outcome = "ok"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)

// TimeExpired is the sentinel "given answer" recorded on a shot-clock
// timeout.
const TimeExpired = "(tiempo agotado)"

// Lifecycle event names emitted to the sink.
const (
	EventRoundStart    = "round_start"
	EventAnswerCorrect = "answer_correct"
	EventAnswerWrong   = "answer_wrong"
	EventPass          = "pass"
	EventRoundEnd      = "round_end"
)

// Sink receives lifecycle events. Delivery is fire-and-forget: the
// session ignores anything the sink does, including panics.
type Sink func(name string, payload map[string]any)

// ProgressStore is the narrow persistence contract the session needs.
type ProgressStore interface {
	GetProgress(ctx context.Context, key string) (*model.ProgressRecord, error)
	PutProgress(ctx context.Context, rec model.ProgressRecord) error
}

// Review holds the wrong-answer reveal shown while paused.
type Review struct {
	Letter        rune
	Given         string
	CorrectAnswer string
	Explanation   string
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	Started          bool
	Ended            bool
	Paused           bool
	Letter           rune
	Card             *model.Card
	RoundTimeLeft    int
	QuestionTimeLeft int
	QuestionBudget   int
	Difficulty       float64
	FuzzyThreshold   float64
	Streak           int
	BestStreak       int
	Answered         int
	Outcomes         map[rune]Outcome
	Review           *Review
}

// Session is one active round. Not safe for concurrent use; all entry
// points must run on the same goroutine.
type Session struct {
	cfg    Config
	deckID string
	store  ProgressStore
	sink   Sink
	rng    *rand.Rand
	now    func() time.Time

	order   []rune
	buckets map[rune][]model.Card

	outcomes      map[rune]Outcome
	currentLetter rune
	currentCard   *model.Card

	roundTimeLeft    int
	questionTimeLeft int
	questionBudget   int

	difficulty float64
	streak     int
	bestStreak int
	answered   int

	paused bool
	review *Review

	started   bool
	ended     bool
	closed    bool
	startedAt time.Time
	endedAt   time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand replaces the random source used for the weighted card draw.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// New builds a session over the deck's cards. The sink may be nil.
func New(deckID string, cards []model.Card, store ProgressStore, sink Sink, cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		deckID:  deckID,
		store:   store,
		sink:    sink,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		order:   letters.PerimeterOrder(),
		buckets: letters.BucketByFirstLetter(cards),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.outcomes = make(map[rune]Outcome, len(s.order))
	for _, l := range s.order {
		s.outcomes[l] = OutcomeNew
	}
	s.currentLetter = 0
	s.currentCard = nil
	s.roundTimeLeft = s.cfg.RoundSeconds
	s.questionTimeLeft = 0
	s.questionBudget = 0
	s.difficulty = 0
	s.streak = 0
	s.bestStreak = 0
	s.answered = 0
	s.paused = false
	s.review = nil
	s.started = false
	s.ended = false
}

// Start seeds the first letter and card and begins the clocks. A deck
// with no playable letter ends the round immediately.
func (s *Session) Start(ctx context.Context) {
	if s.closed || s.started {
		return
	}
	s.started = true
	s.startedAt = s.now()
	s.emit(EventRoundStart, map[string]any{
		"deckId":       s.deckID,
		"roundSeconds": s.cfg.RoundSeconds,
		"adaptive":     s.cfg.Adaptive,
	})

	seed := s.nextPendingFrom(0)
	if seed == 0 {
		s.endRound()
		return
	}
	s.moveTo(ctx, seed)
}

// Tick advances the clocks by one second. Paused and finished sessions
// ignore ticks; a shot clock hitting zero fails the question, a round
// clock hitting zero ends the round.
func (s *Session) Tick(ctx context.Context) {
	if s.closed || !s.started || s.ended || s.paused {
		return
	}
	if s.roundTimeLeft > 0 {
		s.roundTimeLeft--
	}
	if s.roundTimeLeft <= 0 {
		s.endRound()
		return
	}
	if s.questionTimeLeft > 0 {
		s.questionTimeLeft--
		if s.questionTimeLeft == 0 {
			s.failCurrent(ctx, TimeExpired)
		}
	}
}

// Submit compares the given text against the current card's answer.
func (s *Session) Submit(ctx context.Context, given string) {
	if !s.canAct() {
		return
	}
	threshold := s.cfg.fuzzyThreshold(s.difficulty)
	res := answer.Compare(given, s.currentCard.Answer, threshold, s.cfg.AllowTokens)
	if !res.Matched {
		s.failCurrent(ctx, given)
		return
	}

	s.outcomes[s.currentLetter] = OutcomeOK
	s.applyReview(ctx, srs.GradeGood)
	s.answered++
	s.streak++
	if s.streak > s.bestStreak {
		s.bestStreak = s.streak
	}
	elapsed := s.questionBudget - s.questionTimeLeft
	s.difficulty = s.cfg.bumpCorrect(s.difficulty, elapsed, s.questionBudget)

	s.emit(EventAnswerCorrect, map[string]any{
		"letter":     string(s.currentLetter),
		"cardId":     s.currentCard.CardID,
		"reason":     string(res.Reason),
		"similarity": res.Similarity,
		"difficulty": s.difficulty,
		"streak":     s.streak,
		"timeLeft":   s.roundTimeLeft,
	})
	s.advance(ctx)
}

// Skip marks the letter revisitable and moves on without pausing.
func (s *Session) Skip(ctx context.Context) {
	if !s.canAct() {
		return
	}
	s.outcomes[s.currentLetter] = OutcomeSkip
	s.streak = 0
	s.difficulty = s.cfg.bumpSkip(s.difficulty)
	s.emit(EventPass, map[string]any{
		"letter":     string(s.currentLetter),
		"cardId":     s.currentCard.CardID,
		"difficulty": s.difficulty,
		"timeLeft":   s.roundTimeLeft,
	})
	s.advance(ctx)
}

// Fail is an explicit give-up on the current letter.
func (s *Session) Fail(ctx context.Context) {
	if !s.canAct() {
		return
	}
	s.failCurrent(ctx, "")
}

// Timeout fails the current question as if the shot clock expired.
func (s *Session) Timeout(ctx context.Context) {
	if !s.canAct() {
		return
	}
	s.failCurrent(ctx, TimeExpired)
}

// AcknowledgeReview dismisses the wrong-answer reveal and moves on.
func (s *Session) AcknowledgeReview(ctx context.Context) {
	if s.closed || !s.started || s.ended || !s.paused {
		return
	}
	s.paused = false
	s.review = nil
	if s.roundTimeLeft <= 0 {
		s.endRound()
		return
	}
	s.advance(ctx)
}

// Restart resets all per-round state and seeds a fresh round.
func (s *Session) Restart(ctx context.Context) {
	if s.closed {
		return
	}
	s.reset()
	s.Start(ctx)
}

// Close tears the session down. Safe to call repeatedly; every entry
// point becomes a no-op afterwards.
func (s *Session) Close() {
	s.closed = true
}

// Ended reports whether the round is over.
func (s *Session) Ended() bool {
	return s.ended
}

// Snapshot returns the current view for rendering.
func (s *Session) Snapshot() Snapshot {
	outcomes := make(map[rune]Outcome, len(s.outcomes))
	for l, o := range s.outcomes {
		outcomes[l] = o
	}
	var review *Review
	if s.review != nil {
		r := *s.review
		review = &r
	}
	return Snapshot{
		Started:          s.started,
		Ended:            s.ended,
		Paused:           s.paused,
		Letter:           s.currentLetter,
		Card:             s.currentCard,
		RoundTimeLeft:    s.roundTimeLeft,
		QuestionTimeLeft: s.questionTimeLeft,
		QuestionBudget:   s.questionBudget,
		Difficulty:       s.difficulty,
		FuzzyThreshold:   s.cfg.fuzzyThreshold(s.difficulty),
		Streak:           s.streak,
		BestStreak:       s.bestStreak,
		Answered:         s.answered,
		Outcomes:         outcomes,
		Review:           review,
	}
}

// Summary tallies the round. Valid once the round has ended.
func (s *Session) Summary() model.RoundSummary {
	sum := model.RoundSummary{
		StartedAt:  s.startedAt,
		EndedAt:    s.endedAt,
		DeckID:     s.deckID,
		BestStreak: s.bestStreak,
		Answered:   s.answered,
		Difficulty: s.difficulty,
	}
	for _, o := range s.outcomes {
		switch o {
		case OutcomeOK:
			sum.OK++
		case OutcomeFail:
			sum.Fail++
		case OutcomeSkip:
			sum.Skip++
		}
	}
	if !s.endedAt.IsZero() {
		sum.DurationMs = s.endedAt.Sub(s.startedAt).Milliseconds()
	}
	return sum
}

func (s *Session) canAct() bool {
	return !s.closed && s.started && !s.ended && !s.paused &&
		s.roundTimeLeft > 0 && s.currentLetter != 0 && s.currentCard != nil
}

func (s *Session) failCurrent(ctx context.Context, given string) {
	s.outcomes[s.currentLetter] = OutcomeFail
	s.applyReview(ctx, srs.GradeFail)
	s.answered++
	s.streak = 0
	s.difficulty = s.cfg.bumpFail(s.difficulty)
	s.paused = true
	s.review = &Review{
		Letter:        s.currentLetter,
		Given:         given,
		CorrectAnswer: s.currentCard.Answer,
		Explanation:   s.currentCard.Explanation,
	}
	s.questionTimeLeft = 0
	s.emit(EventAnswerWrong, map[string]any{
		"letter":     string(s.currentLetter),
		"cardId":     s.currentCard.CardID,
		"given":      given,
		"difficulty": s.difficulty,
		"timeLeft":   s.roundTimeLeft,
	})
}

// nextPendingFrom walks the perimeter starting just after the given
// index, wrapping, and returns the first letter with cards left to play.
func (s *Session) nextPendingFrom(startIdx int) rune {
	n := len(s.order)
	for step := 0; step < n; step++ {
		l := s.order[(startIdx+step)%n]
		if len(s.buckets[l]) == 0 {
			continue
		}
		if o := s.outcomes[l]; o == OutcomeNew || o == OutcomeSkip {
			return l
		}
	}
	return 0
}

func (s *Session) advance(ctx context.Context) {
	idx := 0
	for i, l := range s.order {
		if l == s.currentLetter {
			idx = i + 1
			break
		}
	}
	next := s.nextPendingFrom(idx)
	if next == 0 {
		s.endRound()
		return
	}
	s.moveTo(ctx, next)
}

func (s *Session) moveTo(ctx context.Context, letter rune) {
	s.currentLetter = letter
	card := s.pickCard(ctx, letter)
	s.currentCard = card
	s.questionBudget = s.cfg.questionBudgetSec(s.difficulty, s.streak)
	s.questionTimeLeft = s.questionBudget
}

// pickCard draws from the letter pool, weighting by scheduler score so
// due and new cards surface first without locking the rest out.
func (s *Session) pickCard(ctx context.Context, letter rune) *model.Card {
	pool := s.buckets[letter]
	if len(pool) == 0 {
		return nil
	}
	now := s.now()
	scores := make([]float64, len(pool))
	total := 0.0
	for i, c := range pool {
		rec := s.loadProgress(ctx, c)
		w := srs.ScoreForSelection(rec, now)
		scores[i] = w
		total += w
	}
	r := s.rng.Float64() * total
	for i := range pool {
		r -= scores[i]
		if r <= 0 {
			return &pool[i]
		}
	}
	return &pool[0]
}

// loadProgress reads the card's record, falling back to a fresh default
// when the record is absent or the store is unavailable.
func (s *Session) loadProgress(ctx context.Context, c model.Card) model.ProgressRecord {
	if s.store == nil {
		return srs.NewRecord(c.DeckID, c.CardID)
	}
	rec, err := s.store.GetProgress(ctx, c.Key)
	if err != nil || rec == nil {
		return srs.NewRecord(c.DeckID, c.CardID)
	}
	return *rec
}

// applyReview grades the current card and persists the result. Storage
// failures degrade to the in-memory default; the turn still counts.
func (s *Session) applyReview(ctx context.Context, grade int) {
	if s.currentCard == nil {
		return
	}
	rec := s.loadProgress(ctx, *s.currentCard)
	updated := srs.ApplyReview(rec, grade, s.now())
	if s.store != nil {
		if err := s.store.PutProgress(ctx, updated); err != nil {
			// Not fatal; retried implicitly next time the card is drawn.
			_ = err
		}
	}
}

func (s *Session) endRound() {
	if s.ended {
		return
	}
	s.ended = true
	s.endedAt = s.now()
	s.paused = false
	s.review = nil
	s.questionTimeLeft = 0
	s.currentCard = nil
	s.currentLetter = 0

	sum := s.Summary()
	s.emit(EventRoundEnd, map[string]any{
		"deckId":     sum.DeckID,
		"ok":         sum.OK,
		"fail":       sum.Fail,
		"skip":       sum.Skip,
		"bestStreak": sum.BestStreak,
		"answered":   sum.Answered,
		"delta":      sum.Difficulty,
	})
}

func (s *Session) emit(name string, payload map[string]any) {
	if s.sink == nil {
		return
	}
	defer func() {
		// A misbehaving sink must not take the round down with it.
		_ = recover()
	}()
	s.sink(name, payload)
}
