package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionBudget(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 25, cfg.questionBudgetSec(0, 0))
	// Full difficulty lands on the floor.
	assert.Equal(t, 8, cfg.questionBudgetSec(1, 0))
	// Streak bonus shaves seconds past the threshold.
	assert.Equal(t, 23, cfg.questionBudgetSec(0, 5))
	// Never below the floor, whatever the streak.
	assert.Equal(t, 8, cfg.questionBudgetSec(0.9, 50))
}

func TestQuestionBudgetNonAdaptiveIgnoresDifficulty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adaptive = false
	assert.Equal(t, cfg.questionBudgetSec(0, 0), cfg.questionBudgetSec(0.9, 0))
}

func TestFuzzyThreshold(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, 0.86, cfg.fuzzyThreshold(0), 1e-9)
	assert.InDelta(t, 0.95, cfg.fuzzyThreshold(1), 1e-9)
	mid := cfg.fuzzyThreshold(0.5)
	assert.Greater(t, mid, 0.86)
	assert.Less(t, mid, 0.95)

	cfg.Adaptive = false
	assert.Equal(t, cfg.BaseFuzzy, cfg.fuzzyThreshold(0.7))
}

func TestDifficultyBumps(t *testing.T) {
	cfg := DefaultConfig()

	// Instant answer earns the full speed bonus.
	fast := cfg.bumpCorrect(0.5, 0, 20)
	slow := cfg.bumpCorrect(0.5, 20, 20)
	assert.Greater(t, fast, slow)
	assert.InDelta(t, 0.5+cfg.UpStep, slow, 1e-9)

	assert.InDelta(t, 0.4, cfg.bumpFail(0.5), 1e-9)
	assert.InDelta(t, 0.47, cfg.bumpSkip(0.5), 1e-9)

	// Clamped to [0, 1].
	assert.Equal(t, 1.0, cfg.bumpCorrect(0.99, 0, 20))
	assert.Equal(t, 0.0, cfg.bumpFail(0.05))
}
