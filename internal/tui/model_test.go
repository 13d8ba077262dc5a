package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/round"
	"github.com/entrenacoco/rosco/internal/speech"
	"github.com/entrenacoco/rosco/internal/store"
	"github.com/entrenacoco/rosco/internal/telemetry"
)

func TestTeardownFlushesQueuedEvents(t *testing.T) {
	var mu sync.Mutex
	eventPosts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if r.URL.Path == "/api/events" {
			eventPosts++
		}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st, err := store.Open(filepath.Join(t.TempDir(), "rosco.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			t.Errorf("failed to close store: %v", cerr)
		}
	}()

	ctx := context.Background()
	rec := telemetry.New(ctx, st, srv.URL, "tester")
	rec.Record(ctx, "round_start", map[string]any{"deckId": "es-v1"})

	cards := []model.Card{
		{Key: "es-v1:a1", DeckID: "es-v1", CardID: "a1", Question: "¿Comunidad con capital Oviedo?", Answer: "Asturias"},
	}
	session := round.New("es-v1", cards, st, nil, round.DefaultConfig())
	m := NewModel(model.RoundConfig{DeckID: "es-v1", RoundSeconds: 120}, session, st, rec, speech.NoopOutput{}, speech.NoopInput{})

	m.teardown()

	mu.Lock()
	posted := eventPosts
	mu.Unlock()
	if posted == 0 {
		t.Fatalf("expected teardown to post queued events")
	}

	pending, err := st.PendingEvents(ctx, 50)
	if err != nil {
		t.Fatalf("failed to read queue: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue after teardown, have %d events", len(pending))
	}
}
