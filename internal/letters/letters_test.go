package letters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrenacoco/rosco/internal/model"
)

func TestAlphabetShape(t *testing.T) {
	require.Len(t, Alphabet, Count)
	order := PerimeterOrder()
	require.Len(t, order, Count)
	assert.Equal(t, 'A', order[0])
	assert.Equal(t, 'Ñ', order[14])
	assert.Equal(t, 'Z', order[Count-1])
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, 'C', BucketFor("Cervantes"))
	assert.Equal(t, 'A', BucketFor("  árbol"))
	// Ñ survives even though normalization folds it to N.
	assert.Equal(t, 'Ñ', BucketFor("ñandú"))
	assert.Equal(t, 'N', BucketFor("nandú"))
	assert.Equal(t, rune(0), BucketFor(""))
	assert.Equal(t, rune(0), BucketFor("¡¿?!"))
	assert.Equal(t, rune(0), BucketFor("42 respuestas"))
}

func TestBucketByFirstLetter(t *testing.T) {
	cards := []model.Card{
		{CardID: "1", Answer: "Asturias"},
		{CardID: "2", Answer: "ñu"},
		{CardID: "3", Answer: "Ávila"},
		{CardID: "4", Answer: "7 maravillas"},
	}
	buckets := BucketByFirstLetter(cards)

	require.Len(t, buckets, Count)
	require.Len(t, buckets['A'], 2)
	// Insertion order is preserved within a bucket.
	assert.Equal(t, "1", buckets['A'][0].CardID)
	assert.Equal(t, "3", buckets['A'][1].CardID)
	require.Len(t, buckets['Ñ'], 1)
	assert.Equal(t, "2", buckets['Ñ'][0].CardID)

	// Every input card lands in at most one bucket.
	total := 0
	for _, pool := range buckets {
		total += len(pool)
	}
	assert.Equal(t, 3, total)
}
