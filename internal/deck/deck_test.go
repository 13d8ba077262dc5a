package deck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrenacoco/rosco/internal/store"
)

const sampleDeck = `{
	"title": "Mazo oficial",
	"description": "Preguntas de prueba",
	"lang": "es",
	"cards": [
		{"id": "a1", "question": "¿Comunidad con capital Oviedo?", "answer": "Asturias", "hint": "Norte"},
		{"id": "n1", "question": "¿Ave corredora sudamericana?", "answer": "Ñandú"}
	]
}`

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

func writeDeckFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFile(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	path := writeDeckFile(t, t.TempDir(), "oficial-es-v1.json", sampleDeck)

	deck, err := ImportFile(ctx, st, path)
	require.NoError(t, err)
	assert.Equal(t, "oficial-es-v1", deck.ID)
	assert.Equal(t, "Mazo oficial", deck.Title)

	cards, err := st.ListCards(ctx, "oficial-es-v1")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "oficial-es-v1:a1", cards[0].Key)
	assert.Equal(t, "Ñandú", cards[1].Answer)
}

func TestImportFileRejectsEmptyDeck(t *testing.T) {
	st := openTestStore(t)
	path := writeDeckFile(t, t.TempDir(), "empty.json", `{"title": "vacío", "cards": []}`)
	_, err := ImportFile(context.Background(), st, path)
	require.Error(t, err)
}

func TestImportFileRejectsCardWithoutAnswer(t *testing.T) {
	st := openTestStore(t)
	path := writeDeckFile(t, t.TempDir(), "bad.json",
		`{"cards": [{"id": "x", "question": "?", "answer": "  "}]}`)
	_, err := ImportFile(context.Background(), st, path)
	require.Error(t, err)
}

func TestLoadDirIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeDeckFile(t, dir, "oficial-es-v1.json", sampleDeck)

	imported, err := LoadDir(ctx, st, dir)
	require.NoError(t, err)
	require.Len(t, imported, 1)

	imported, err = LoadDir(ctx, st, dir)
	require.NoError(t, err)
	assert.Empty(t, imported)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	st := openTestStore(t)
	imported, err := LoadDir(context.Background(), st, filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, imported)
}
