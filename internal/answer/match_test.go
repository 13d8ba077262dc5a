package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const threshold = 0.86

func TestCompareEmptyGiven(t *testing.T) {
	res := Compare("", "Cervantes", threshold, true)
	assert.False(t, res.Matched)
	assert.Equal(t, ReasonEmpty, res.Reason)

	res = Compare("¡¿?!", "Cervantes", threshold, true)
	assert.False(t, res.Matched)
	assert.Equal(t, ReasonEmpty, res.Reason)
}

func TestCompareExactAfterNormalization(t *testing.T) {
	for _, s := range []string{"Cervantes", "el quijote", "Ñandú", "año 1492"} {
		res := Compare(s, s, threshold, false)
		assert.True(t, res.Matched, "self-compare of %q", s)
		assert.Equal(t, ReasonExact, res.Reason)
	}

	res := Compare("  CAFÉ ", "cafe", threshold, false)
	assert.True(t, res.Matched)
	assert.Equal(t, ReasonExact, res.Reason)
}

func TestCompareStopwordInsensitive(t *testing.T) {
	res := Compare("quijote", "El Quijote", threshold, false)
	assert.True(t, res.Matched)
	assert.Equal(t, ReasonStopwords, res.Reason)

	res = Compare("la casa de papel", "casa papel", threshold, false)
	assert.True(t, res.Matched)
	assert.Equal(t, ReasonStopwords, res.Reason)
}

func TestCompareFuzzy(t *testing.T) {
	res := Compare("cervantez", "cervantes", threshold, false)
	assert.True(t, res.Matched)
	assert.Equal(t, ReasonFuzzy, res.Reason)
	assert.GreaterOrEqual(t, res.Similarity, threshold)

	// A stricter threshold rejects the same answer.
	res = Compare("cervantez", "cervantes", 0.95, false)
	assert.False(t, res.Matched)
	assert.Equal(t, ReasonNoMatch, res.Reason)
	assert.Greater(t, res.Similarity, 0.0)
}

func TestCompareTokenContainment(t *testing.T) {
	// One long token of the full name is enough.
	res := Compare("cervantes", "Miguel de Cervantes Saavedra", threshold, true)
	assert.True(t, res.Matched)
	assert.Equal(t, ReasonTokens, res.Reason)

	// Disabled fallback keeps it a miss.
	res = Compare("cervantes", "Miguel de Cervantes Saavedra", threshold, false)
	assert.False(t, res.Matched)

	// Two mid-length tokens also qualify.
	res = Compare("joan miro", "Joan Miró i Ferrà el pintor surrealista", threshold, true)
	assert.True(t, res.Matched)
}

func TestCompareNoMatch(t *testing.T) {
	res := Compare("goya", "Velázquez", threshold, true)
	assert.False(t, res.Matched)
	assert.Equal(t, ReasonNoMatch, res.Reason)
}
