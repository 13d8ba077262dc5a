// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrenacoco/rosco/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for decks, cards, progress and round data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			lang TEXT NOT NULL,
			kind TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cards (
			key TEXT PRIMARY KEY,
			deck_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			hint TEXT NOT NULL,
			explanation TEXT NOT NULL,
			tags TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS progress (
			key TEXT PRIMARY KEY,
			deck_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			reps INTEGER NOT NULL,
			interval_days INTEGER NOT NULL,
			ease REAL NOT NULL,
			due_at INTEGER NOT NULL,
			lapses INTEGER NOT NULL,
			last_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			deck_id TEXT NOT NULL,
			ok INTEGER NOT NULL,
			fail INTEGER NOT NULL,
			skip INTEGER NOT NULL,
			best_streak INTEGER NOT NULL,
			answered INTEGER NOT NULL,
			difficulty REAL NOT NULL,
			score INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY,
			ts INTEGER NOT NULL,
			name TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_deck ON progress(deck_id);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_due ON progress(due_at);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertDeck stores a deck and replaces its cards.
func (s *Store) UpsertDeck(ctx context.Context, deck model.Deck, cards []model.Card) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO decks (id, title, description, lang, kind, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			lang = excluded.lang,
			kind = excluded.kind,
			updated_at = excluded.updated_at`,
		deck.ID, deck.Title, deck.Description, deck.Lang, deck.Kind,
		deck.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ?`, deck.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cards (key, deck_id, card_id, question, answer, hint, explanation, tags, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, c := range cards {
		tags := strings.Join(c.Tags, ",")
		if _, err = stmt.ExecContext(ctx, c.Key, c.DeckID, c.CardID, c.Question, c.Answer, c.Hint, c.Explanation, tags, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetDeck returns a deck by id, or nil if absent.
func (s *Store) GetDeck(ctx context.Context, id string) (*model.Deck, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, lang, kind, updated_at FROM decks WHERE id = ?`, id)
	var deck model.Deck
	var updatedAt string
	if err := row.Scan(&deck.ID, &deck.Title, &deck.Description, &deck.Lang, &deck.Kind, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, err
	}
	deck.UpdatedAt = parsed
	return &deck, nil
}

// ListDecks returns all decks ordered by id.
func (s *Store) ListDecks(ctx context.Context) ([]model.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, lang, kind, updated_at FROM decks ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var decks []model.Deck
	for rows.Next() {
		var deck model.Deck
		var updatedAt string
		if err := rows.Scan(&deck.ID, &deck.Title, &deck.Description, &deck.Lang, &deck.Kind, &updatedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, err
		}
		deck.UpdatedAt = parsed
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return decks, nil
}

// ListCards returns all cards of a deck in import order.
func (s *Store) ListCards(ctx context.Context, deckID string) ([]model.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, deck_id, card_id, question, answer, hint, explanation, tags
		 FROM cards WHERE deck_id = ? ORDER BY position ASC`, deckID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var cards []model.Card
	for rows.Next() {
		var c model.Card
		var tags string
		if err := rows.Scan(&c.Key, &c.DeckID, &c.CardID, &c.Question, &c.Answer, &c.Hint, &c.Explanation, &tags); err != nil {
			return nil, err
		}
		if tags != "" {
			c.Tags = strings.Split(tags, ",")
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetProgress returns the progress record for a key, or nil if absent.
func (s *Store) GetProgress(ctx context.Context, key string) (*model.ProgressRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, deck_id, card_id, reps, interval_days, ease, due_at, lapses, last_at
		 FROM progress WHERE key = ?`, key)
	var rec model.ProgressRecord
	if err := row.Scan(&rec.Key, &rec.DeckID, &rec.CardID, &rec.Reps, &rec.IntervalDays, &rec.Ease, &rec.DueAt, &rec.Lapses, &rec.LastAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// PutProgress upserts a progress record.
func (s *Store) PutProgress(ctx context.Context, rec model.ProgressRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress (key, deck_id, card_id, reps, interval_days, ease, due_at, lapses, last_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			reps = excluded.reps,
			interval_days = excluded.interval_days,
			ease = excluded.ease,
			due_at = excluded.due_at,
			lapses = excluded.lapses,
			last_at = excluded.last_at`,
		rec.Key, rec.DeckID, rec.CardID, rec.Reps, rec.IntervalDays, rec.Ease, rec.DueAt, rec.Lapses, rec.LastAt)
	return err
}

// InsertRound stores a finished round.
func (s *Store) InsertRound(ctx context.Context, sum model.RoundSummary) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (started_at, ended_at, deck_id, ok, fail, skip, best_streak, answered, difficulty, score, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.StartedAt.Format(time.RFC3339Nano),
		sum.EndedAt.Format(time.RFC3339Nano),
		sum.DeckID, sum.OK, sum.Fail, sum.Skip, sum.BestStreak, sum.Answered,
		sum.Difficulty, sum.Score, sum.DurationMs)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRounds returns round aggregates filtered by stats config.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.DeckID != "" {
		clauses = append(clauses, "deck_id = ?")
		args = append(args, cfg.DeckID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, deck_id, ok, fail, skip, best_streak, score, duration_ms
		FROM rounds
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundAggregate
	for rows.Next() {
		var agg model.RoundAggregate
		var endedAt string
		if err := rows.Scan(&agg.RoundID, &endedAt, &agg.DeckID, &agg.OK, &agg.Fail, &agg.Skip, &agg.BestStreak, &agg.Score, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		rounds = append(rounds, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(rounds) > cfg.Last {
		rounds = rounds[len(rounds)-cfg.Last:]
	}
	return rounds, nil
}

// EnqueueEvent appends a telemetry event to the local queue.
func (s *Store) EnqueueEvent(ctx context.Context, ts int64, name string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (ts, name, payload) VALUES (?, ?, ?)`, ts, name, string(raw))
	return err
}

// PendingEvents returns up to limit queued events in insertion order.
func (s *Store) PendingEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, name, payload FROM events ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var payload string
		if err := rows.Scan(&ev.ID, &ev.TS, &ev.Name, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvents removes flushed events by id.
func (s *Store) DeleteEvents(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`DELETE FROM events WHERE id IN (%s)`, strings.Join(placeholders, ","))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// GetMeta returns a meta value, or "" if absent.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SetMeta upserts a meta value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
