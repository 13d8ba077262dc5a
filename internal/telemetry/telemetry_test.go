package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "rosco.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return st
}

func TestScoreFor(t *testing.T) {
	sum := model.RoundSummary{OK: 10, Fail: 2, Skip: 1, BestStreak: 5, Difficulty: 0.5}
	// 10*120 + 5*45 + round(0.5*200) - 2*80 - 1*25
	assert.Equal(t, 1200+225+100-160-25, ScoreFor(sum))

	// A bad round can go negative.
	assert.Less(t, ScoreFor(model.RoundSummary{Fail: 10}), 0)
}

func TestClientIDPersists(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	first := New(ctx, st, "", "")
	require.NotEmpty(t, first.clientID)
	second := New(ctx, st, "", "")
	assert.Equal(t, first.clientID, second.clientID)
}

func TestNickCleaning(t *testing.T) {
	assert.Equal(t, "Anónimo", cleanNick("   "))
	assert.Equal(t, "Pepe", cleanNick(" Pepe "))
	long := "abcdefghijklmnopqrstuvwxyz"
	assert.Equal(t, "abcdefghijklmnopqr", cleanNick(long))
}

func TestFlushDrainsQueueOnSuccess(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	var got struct {
		Events []struct {
			Name string `json:"name"`
		} `json:"events"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/events", req.URL.Path)
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := New(ctx, st, srv.URL, "Pepe")
	rec.Record(ctx, "round_start", map[string]any{"deckId": "es-v1"})
	rec.Record(ctx, "round_end", map[string]any{"ok": 3})

	rec.Flush(ctx)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "round_start", got.Events[0].Name)

	pending, err := st.PendingEvents(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFlushKeepsQueueOnFailure(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := New(ctx, st, srv.URL, "")
	rec.Record(ctx, "pass", map[string]any{"letter": "A"})
	rec.Flush(ctx)

	pending, err := st.PendingEvents(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestFlushWithoutEndpointKeepsQueue(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	rec := New(ctx, st, "", "")
	rec.Record(ctx, "pass", map[string]any{"letter": "A"})
	rec.Flush(ctx)

	pending, err := st.PendingEvents(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSubmitScore(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/score", req.URL.Path)
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := New(ctx, st, srv.URL, "Pepe")
	ok := rec.SubmitScore(ctx, model.RoundSummary{OK: 4, BestStreak: 2, Difficulty: 0.25})
	require.True(t, ok)

	assert.Equal(t, "Pepe", payload["nick"])
	assert.Equal(t, "delta", payload["mode"])
	assert.Equal(t, float64(4*120+2*45+50), payload["score"])
	assert.NotEmpty(t, payload["clientId"])

	// No endpoint: submission is a quiet no-op.
	quiet := New(ctx, st, "", "")
	assert.False(t, quiet.SubmitScore(ctx, model.RoundSummary{}))
}
