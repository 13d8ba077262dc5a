// Package telemetry queues game events locally and ships them, plus
// ranking scores, to an optional HTTP endpoint. Every network failure is
// swallowed; the queue drains on a later flush.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/store"
)

const (
	flushBatchSize = 50
	defaultNick    = "Anónimo"
	maxNickRunes   = 18
	clientIDKey    = "client_id"
)

// Recorder owns the local event queue and the remote submission path.
type Recorder struct {
	store    *store.Store
	endpoint string
	nick     string
	clientID string
	client   *http.Client
	now      func() time.Time
}

// New builds a recorder. An empty endpoint means queue-only operation.
// The client id is minted once and kept in the store.
func New(ctx context.Context, st *store.Store, endpoint, nick string) *Recorder {
	r := &Recorder{
		store:    st,
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		nick:     cleanNick(nick),
		client:   &http.Client{Timeout: 5 * time.Second},
		now:      time.Now,
	}
	id, err := st.GetMeta(ctx, clientIDKey)
	if err == nil && id != "" {
		r.clientID = id
		return r
	}
	r.clientID = uuid.NewString()
	if err := st.SetMeta(ctx, clientIDKey, r.clientID); err != nil {
		// Queue-only fallback; a fresh id next run is acceptable.
		_ = err
	}
	return r
}

func cleanNick(nick string) string {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return defaultNick
	}
	runes := []rune(nick)
	if len(runes) > maxNickRunes {
		runes = runes[:maxNickRunes]
	}
	return string(runes)
}

// Record queues an event. Always local-first; the caller decides when
// to Flush.
func (r *Recorder) Record(ctx context.Context, name string, payload map[string]any) {
	if err := r.store.EnqueueEvent(ctx, r.now().UnixMilli(), name, payload); err != nil {
		// Telemetry must never fail the game.
		_ = err
	}
}

// Flush ships one batch of queued events. With no endpoint configured
// the queue is left alone.
func (r *Recorder) Flush(ctx context.Context) {
	if r.endpoint == "" {
		return
	}
	events, err := r.store.PendingEvents(ctx, flushBatchSize)
	if err != nil || len(events) == 0 {
		return
	}

	type wireEvent struct {
		TS      int64          `json:"ts"`
		Name    string         `json:"name"`
		Payload map[string]any `json:"payload"`
	}
	batch := make([]wireEvent, 0, len(events))
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		batch = append(batch, wireEvent{TS: ev.TS, Name: ev.Name, Payload: ev.Payload})
		ids = append(ids, ev.ID)
	}

	if !r.postJSON(ctx, r.endpoint+"/api/events", map[string]any{"events": batch}) {
		return
	}
	if err := r.store.DeleteEvents(ctx, ids); err != nil {
		_ = err
	}
}

// ScoreFor computes the ranking score for a finished round: hits and
// streaks pay, failures and passes cost, high difficulty pays extra.
func ScoreFor(sum model.RoundSummary) int {
	return sum.OK*120 +
		sum.BestStreak*45 +
		int(math.Round(sum.Difficulty*200)) -
		sum.Fail*80 -
		sum.Skip*25
}

// SubmitScore sends the round's score to the ranking endpoint. Returns
// false on any failure; never retries.
func (r *Recorder) SubmitScore(ctx context.Context, sum model.RoundSummary) bool {
	if r.endpoint == "" {
		return false
	}
	payload := map[string]any{
		"nick":  r.nick,
		"mode":  "delta",
		"score": ScoreFor(sum),
		"stats": map[string]any{
			"ok":         sum.OK,
			"fail":       sum.Fail,
			"skip":       sum.Skip,
			"bestStreak": sum.BestStreak,
			"delta":      sum.Difficulty,
		},
		"ts":       r.now().UnixMilli(),
		"clientId": r.clientID,
	}
	return r.postJSON(ctx, r.endpoint+"/api/score", payload)
}

func (r *Recorder) postJSON(ctx context.Context, url string, body any) bool {
	raw, err := json.Marshal(body)
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
