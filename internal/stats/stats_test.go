package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/entrenacoco/rosco/internal/model"
)

func TestRoundMetrics(t *testing.T) {
	acc, rate := RoundMetrics(8, 2, 120000)
	if acc != 0.8 {
		t.Fatalf("expected accuracy 0.8, got %f", acc)
	}
	if rate != 5 {
		t.Fatalf("expected 5 answers/min, got %f", rate)
	}

	acc, rate = RoundMetrics(0, 0, 0)
	if acc != 0 || rate != 0 {
		t.Fatalf("expected zero metrics for empty round, got %f, %f", acc, rate)
	}
}

func TestMovingAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := MovingAverage(values, 2)
	want := []float64{1, 1.5, 2.5, 3.5, 4.5}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("at %d: got %f, want %f", i, out[i], want[i])
		}
	}

	same := MovingAverage(values, 1)
	for i := range values {
		if same[i] != values[i] {
			t.Fatalf("window 1 must copy input, differs at %d", i)
		}
	}
}

func TestSparkline(t *testing.T) {
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline for no values")
	}
	flat := Sparkline([]float64{2, 2, 2})
	if len(flat) != 3 {
		t.Fatalf("expected 3 chars, got %d", len(flat))
	}
	line := Sparkline([]float64{0, 5, 10})
	if line[0] != sparkChars[0] || line[2] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("expected full range in sparkline, got %q", line)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No rounds found.") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}

	buf.Reset()
	rounds := []model.RoundAggregate{
		{RoundID: 1, EndedAt: time.Now(), OK: 10, Fail: 2, Skip: 1, BestStreak: 4, Score: 1100, DurationMs: 120000},
		{RoundID: 2, EndedAt: time.Now(), OK: 12, Fail: 1, Skip: 0, BestStreak: 6, Score: 1500, DurationMs: 110000},
	}
	if err := RenderSummary(&buf, rounds); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Rounds: 2", "Best score: 1500", "Best streak: 6", "22 ok"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q in %q", want, out)
		}
	}
}
