package round

import "math"

// Config holds round timing and adaptive difficulty tuning. The step
// and threshold values are heuristics carried over from play-testing;
// treat them as knobs, not derived constants.
type Config struct {
	RoundSeconds int
	Adaptive     bool
	AllowTokens  bool

	BaseQuestionSec int
	MinQuestionSec  int
	MaxQuestionSec  int
	StreakThreshold int
	StreakBonusRate float64

	BaseFuzzy float64
	MinFuzzy  float64
	MaxFuzzy  float64

	UpStep        float64
	DownStep      float64
	SmallDownStep float64
	SpeedFactor   float64
}

// DefaultConfig returns the standard adaptive round tuning.
func DefaultConfig() Config {
	return Config{
		RoundSeconds: 120,
		Adaptive:     true,
		AllowTokens:  true,

		BaseQuestionSec: 25,
		MinQuestionSec:  8,
		MaxQuestionSec:  30,
		StreakThreshold: 3,
		StreakBonusRate: 1.0,

		BaseFuzzy: 0.86,
		MinFuzzy:  0.80,
		MaxFuzzy:  0.95,

		UpStep:        0.04,
		DownStep:      0.10,
		SmallDownStep: 0.03,
		SpeedFactor:   0.05,
	}
}

// questionBudgetSec computes the shot clock for the next question.
// Higher difficulty and long streaks both shrink it.
func (c Config) questionBudgetSec(difficulty float64, streak int) int {
	delta := difficulty
	if !c.Adaptive {
		delta = 0
	}
	streakBonus := math.Max(0, float64(streak-c.StreakThreshold)*c.StreakBonusRate)
	budget := float64(c.BaseQuestionSec) - delta*float64(c.BaseQuestionSec-c.MinQuestionSec) - streakBonus
	budget = clampFloat(budget, float64(c.MinQuestionSec), float64(c.MaxQuestionSec))
	return int(math.Round(budget))
}

// fuzzyThreshold computes the matcher strictness for the current
// difficulty.
func (c Config) fuzzyThreshold(difficulty float64) float64 {
	if !c.Adaptive {
		return c.BaseFuzzy
	}
	t := c.BaseFuzzy + difficulty*(c.MaxFuzzy-c.BaseFuzzy)
	return clampFloat(t, c.MinFuzzy, c.MaxFuzzy)
}

// bumpCorrect raises difficulty after a correct answer; faster answers
// push harder.
func (c Config) bumpCorrect(difficulty float64, elapsedSec, budgetSec int) float64 {
	if !c.Adaptive {
		return 0
	}
	speedBonus := 0.0
	if budgetSec > 0 {
		speedBonus = clampFloat(1-float64(elapsedSec)/float64(budgetSec), 0, 1) * c.SpeedFactor
	}
	return clampFloat(difficulty+c.UpStep+speedBonus, 0, 1)
}

// bumpFail lowers difficulty after a failure or timeout.
func (c Config) bumpFail(difficulty float64) float64 {
	if !c.Adaptive {
		return 0
	}
	return clampFloat(difficulty-c.DownStep, 0, 1)
}

// bumpSkip lowers difficulty slightly after a pass.
func (c Config) bumpSkip(difficulty float64) float64 {
	if !c.Adaptive {
		return 0
	}
	return clampFloat(difficulty-c.SmallDownStep, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
