package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrenacoco/rosco/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "rosco.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return st
}

func TestDeckAndCardsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	deck := model.Deck{ID: "es-v1", Title: "Oficial", Lang: "es", Kind: "official", UpdatedAt: time.Now()}
	cards := []model.Card{
		{Key: "es-v1:a1", DeckID: "es-v1", CardID: "a1", Question: "¿Comunidad con capital Oviedo?", Answer: "Asturias", Tags: []string{"geo"}},
		{Key: "es-v1:b1", DeckID: "es-v1", CardID: "b1", Question: "¿Capital de España hasta 1561?", Answer: "Valladolid"},
	}
	require.NoError(t, st.UpsertDeck(ctx, deck, cards))

	got, err := st.GetDeck(ctx, "es-v1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Oficial", got.Title)

	listed, err := st.ListCards(ctx, "es-v1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "a1", listed[0].CardID)
	assert.Equal(t, []string{"geo"}, listed[0].Tags)

	// Re-import replaces the card set.
	require.NoError(t, st.UpsertDeck(ctx, deck, cards[:1]))
	listed, err = st.ListCards(ctx, "es-v1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestProgressRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	got, err := st.GetProgress(ctx, "es-v1:a1")
	require.NoError(t, err)
	assert.Nil(t, got)

	rec := model.ProgressRecord{
		Key: "es-v1:a1", DeckID: "es-v1", CardID: "a1",
		Reps: 2, IntervalDays: 3, Ease: 2.3, DueAt: 1234, Lapses: 1, LastAt: 999,
	}
	require.NoError(t, st.PutProgress(ctx, rec))

	got, err = st.GetProgress(ctx, "es-v1:a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)

	rec.Reps = 3
	require.NoError(t, st.PutProgress(ctx, rec))
	got, err = st.GetProgress(ctx, "es-v1:a1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Reps)
}

func TestRoundsAndFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := st.InsertRound(ctx, model.RoundSummary{
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			EndedAt:    base.Add(time.Duration(i)*time.Hour + 2*time.Minute),
			DeckID:     "es-v1",
			OK:         10 + i,
			Fail:       2,
			Skip:       1,
			BestStreak: 5,
			Answered:   13,
			Difficulty: 0.4,
			Score:      1200 + i,
			DurationMs: 120000,
		})
		require.NoError(t, err)
	}

	all, err := st.ListRounds(ctx, model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].EndedAt.Before(all[2].EndedAt))

	since := base.Add(90 * time.Minute)
	filtered, err := st.ListRounds(ctx, model.StatsConfig{DeckID: "es-v1", Since: &since})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	none, err := st.ListRounds(ctx, model.StatsConfig{DeckID: "other"})
	require.NoError(t, err)
	assert.Empty(t, none)

	// Last keeps only the most recent rounds, still oldest-first.
	last, err := st.ListRounds(ctx, model.StatsConfig{Last: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, 12, last[0].OK)

	last, err = st.ListRounds(ctx, model.StatsConfig{Last: 2})
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.True(t, last[0].EndedAt.Before(last[1].EndedAt))
	assert.Equal(t, 11, last[0].OK)

	last, err = st.ListRounds(ctx, model.StatsConfig{Last: 10})
	require.NoError(t, err)
	assert.Len(t, last, 3)
}

func TestEventQueue(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.EnqueueEvent(ctx, 100, "round_start", map[string]any{"letter": "A"}))
	require.NoError(t, st.EnqueueEvent(ctx, 200, "round_end", map[string]any{"ok": 3.0}))

	pending, err := st.PendingEvents(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "round_start", pending[0].Name)
	assert.Equal(t, "A", pending[0].Payload["letter"])

	require.NoError(t, st.DeleteEvents(ctx, []int64{pending[0].ID}))
	pending, err = st.PendingEvents(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "round_end", pending[0].Name)
}

func TestMeta(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	v, err := st.GetMeta(ctx, "client_id")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, st.SetMeta(ctx, "client_id", "abc"))
	require.NoError(t, st.SetMeta(ctx, "client_id", "def"))
	v, err = st.GetMeta(ctx, "client_id")
	require.NoError(t, err)
	assert.Equal(t, "def", v)
}
