package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordZeroState(t *testing.T) {
	rec := NewRecord("deck", "c1")
	assert.Equal(t, "deck:c1", rec.Key)
	assert.Equal(t, 0, rec.Reps)
	assert.Equal(t, 0, rec.IntervalDays)
	assert.Equal(t, 2.3, rec.Ease)
	assert.Zero(t, rec.DueAt)
	assert.Zero(t, rec.Lapses)
	assert.Zero(t, rec.LastAt)
}

func TestApplyReviewEasyFirstReview(t *testing.T) {
	now := time.Now()
	rec := NewRecord("deck", "c1")
	got := ApplyReview(rec, GradeEasy, now)

	assert.Equal(t, 1, got.Reps)
	assert.Equal(t, 1, got.IntervalDays)
	assert.InDelta(t, 2.38, got.Ease, 1e-9)
	assert.Equal(t, now.UnixMilli()+dayMs, got.DueAt)
	assert.Equal(t, now.UnixMilli(), got.LastAt)

	// Input is untouched.
	assert.Equal(t, 0, rec.Reps)
	assert.Zero(t, rec.DueAt)
}

func TestApplyReviewFailResets(t *testing.T) {
	now := time.Now()
	rec := NewRecord("deck", "c1")
	rec.Reps = 7
	rec.IntervalDays = 40
	rec.Ease = 1.35
	rec.Lapses = 2

	got := ApplyReview(rec, GradeFail, now)
	assert.Equal(t, 0, got.Reps)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, 1.3, got.Ease)
	assert.Equal(t, 3, got.Lapses)
	assert.Equal(t, now.UnixMilli()+dayMs, got.DueAt)
}

func TestApplyReviewIntervalGrowth(t *testing.T) {
	now := time.Now()
	rec := NewRecord("deck", "c1")

	prev := 0
	for i := 0; i < 8; i++ {
		rec = ApplyReview(rec, GradeGood, now)
		require.GreaterOrEqual(t, rec.IntervalDays, prev, "interval must not shrink on success")
		prev = rec.IntervalDays
	}
	assert.Equal(t, 8, rec.Reps)
	// 1, 3, then round(prev * 2.3) repeatedly.
	assert.Greater(t, rec.IntervalDays, 100)
}

func TestApplyReviewEaseBounds(t *testing.T) {
	now := time.Now()
	rec := NewRecord("deck", "c1")
	for i := 0; i < 30; i++ {
		rec = ApplyReview(rec, GradeEasy, now)
	}
	assert.LessOrEqual(t, rec.Ease, 2.8)

	for i := 0; i < 30; i++ {
		rec = ApplyReview(rec, GradeHard, now)
	}
	assert.GreaterOrEqual(t, rec.Ease, 1.3)
}

func TestScoreForSelectionFloor(t *testing.T) {
	now := time.Now()
	rec := NewRecord("deck", "c1")
	// Seen seconds ago with plenty of reps: maximum suppression.
	rec = ApplyReview(rec, GradeGood, now)
	rec = ApplyReview(rec, GradeGood, now)
	rec = ApplyReview(rec, GradeGood, now)
	score := ScoreForSelection(rec, now)
	assert.GreaterOrEqual(t, score, 0.01)
}

func TestScoreForSelectionPrefersNewAndOverdue(t *testing.T) {
	now := time.Now()

	fresh := NewRecord("deck", "new")
	newScore := ScoreForSelection(fresh, now)

	reviewed := ApplyReview(NewRecord("deck", "seen"), GradeGood, now.Add(-48*time.Hour))
	overdueScore := ScoreForSelection(reviewed, now)

	notDue := ApplyReview(NewRecord("deck", "recent"), GradeGood, now.Add(-time.Minute))
	recentScore := ScoreForSelection(notDue, now)

	assert.Greater(t, newScore, recentScore)
	assert.Greater(t, overdueScore, recentScore)
}

func TestRecentPenaltyDecaysAtSixHours(t *testing.T) {
	now := time.Now()
	rec := ApplyReview(NewRecord("deck", "c1"), GradeGood, now.Add(-6*time.Hour))
	recAfter := ApplyReview(NewRecord("deck", "c1"), GradeGood, now.Add(-7*time.Hour))

	// Past the six hour window the penalty term is gone entirely, so the
	// only remaining difference is overdue growth.
	assert.LessOrEqual(t, ScoreForSelection(rec, now), ScoreForSelection(recAfter, now))
}

func TestIsDueAndIsNew(t *testing.T) {
	now := time.Now()
	rec := NewRecord("deck", "c1")
	assert.True(t, IsNew(rec))
	assert.False(t, IsDue(rec, now))

	rec = ApplyReview(rec, GradeGood, now.Add(-48*time.Hour))
	assert.False(t, IsNew(rec))
	assert.True(t, IsDue(rec, now))
}
