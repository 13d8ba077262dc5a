// Package stats contains round statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/entrenacoco/rosco/internal/model"
)

const sparkChars = " .:-=+*#%@"

const terminalWidthBackup = 80

// RoundMetrics computes accuracy and answer rate for a round.
func RoundMetrics(ok, fail int, durationMs int64) (accuracy, answersPerMin float64) {
	answered := ok + fail
	if answered > 0 {
		accuracy = float64(ok) / float64(answered)
	}
	if durationMs > 0 {
		minutes := float64(durationMs) / 60000.0
		answersPerMin = float64(answered) / minutes
	}
	return accuracy, answersPerMin
}

// ScoreSeries extracts the per-round score curve in play order.
func ScoreSeries(rounds []model.RoundAggregate) []float64 {
	out := make([]float64, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, float64(r.Score))
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// TerminalWidth returns the current terminal width or a fallback.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSummary prints a summary table for stored rounds.
func RenderSummary(w io.Writer, rounds []model.RoundAggregate) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	var totalAcc float64
	bestScore := rounds[0].Score
	bestStreak := 0
	totalOK, totalFail, totalSkip := 0, 0, 0
	for _, r := range rounds {
		acc, _ := RoundMetrics(r.OK, r.Fail, r.DurationMs)
		totalAcc += acc
		if r.Score > bestScore {
			bestScore = r.Score
		}
		if r.BestStreak > bestStreak {
			bestStreak = r.BestStreak
		}
		totalOK += r.OK
		totalFail += r.Fail
		totalSkip += r.Skip
	}
	count := float64(len(rounds))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Rounds: %d\n", len(rounds)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Totals: %d ok · %d fail · %d skip\n", totalOK, totalFail, totalSkip); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg accuracy: %.1f%%\n", totalAcc/count*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best score: %d\n", bestScore); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best streak: %d\n", bestStreak); err != nil {
		return err
	}

	scores := ScoreSeries(rounds)
	width := TerminalWidth()
	if len(scores) > width {
		scores = scores[len(scores)-width:]
	}
	if _, err := fmt.Fprintf(w, "Score curve: %s\n", Sparkline(scores)); err != nil {
		return err
	}
	return nil
}
