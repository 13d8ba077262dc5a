// Package deck loads deck JSON files into the store.
package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/store"
)

// File is the on-disk deck format.
type File struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Lang        string     `json:"lang"`
	Cards       []FileCard `json:"cards"`
}

// FileCard is a card entry inside a deck file.
type FileCard struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Hint        string   `json:"hint"`
	Explanation string   `json:"explanation"`
	Tags        []string `json:"tags"`
}

// ImportFile parses a deck JSON file and upserts it into the store.
// The deck id defaults to the file name without extension.
func ImportFile(ctx context.Context, st *store.Store, path string) (model.Deck, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Deck{}, fmt.Errorf("failed to read deck file: %w", err)
	}
	var file File
	if err := json.Unmarshal(raw, &file); err != nil {
		return model.Deck{}, fmt.Errorf("failed to parse deck file: %w", err)
	}

	id := strings.TrimSpace(file.ID)
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(file.Cards) == 0 {
		return model.Deck{}, fmt.Errorf("deck %q has no cards", id)
	}

	lang := file.Lang
	if lang == "" {
		lang = "es"
	}
	deck := model.Deck{
		ID:          id,
		Title:       file.Title,
		Description: file.Description,
		Lang:        lang,
		Kind:        "imported",
		UpdatedAt:   time.Now(),
	}

	cards := make([]model.Card, 0, len(file.Cards))
	for i, fc := range file.Cards {
		if strings.TrimSpace(fc.ID) == "" {
			return model.Deck{}, fmt.Errorf("deck %q: card %d has no id", id, i)
		}
		if strings.TrimSpace(fc.Answer) == "" {
			return model.Deck{}, fmt.Errorf("deck %q: card %q has no answer", id, fc.ID)
		}
		cards = append(cards, model.Card{
			Key:         model.ProgressKey(id, fc.ID),
			DeckID:      id,
			CardID:      fc.ID,
			Question:    fc.Question,
			Answer:      fc.Answer,
			Hint:        fc.Hint,
			Explanation: fc.Explanation,
			Tags:        fc.Tags,
		})
	}

	if err := st.UpsertDeck(ctx, deck, cards); err != nil {
		return model.Deck{}, fmt.Errorf("failed to store deck: %w", err)
	}
	return deck, nil
}

// LoadDir imports every deck file in dir that is not yet in the store.
// Already-imported decks are left untouched; a missing directory is not
// an error.
func LoadDir(ctx context.Context, st *store.Store, dir string) ([]model.Deck, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read deck directory: %w", err)
	}

	var imported []model.Deck
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		existing, err := st.GetDeck(ctx, id)
		if err != nil {
			return imported, err
		}
		if existing != nil {
			continue
		}
		deck, err := ImportFile(ctx, st, filepath.Join(dir, entry.Name()))
		if err != nil {
			return imported, err
		}
		imported = append(imported, deck)
	}
	return imported, nil
}
