// Package letters partitions cards over the 27-letter Spanish wheel.
package letters

import (
	"strings"
	"unicode"

	"github.com/entrenacoco/rosco/internal/answer"
	"github.com/entrenacoco/rosco/internal/model"
)

// Alphabet is the fixed wheel order: the 26 Latin letters plus Ñ.
var Alphabet = []rune("ABCDEFGHIJKLMNÑOPQRSTUVWXYZ")

// Count is the number of wheel positions.
const Count = 27

// PerimeterOrder returns the clockwise traversal of the wheel, starting
// at the anchor letter A.
func PerimeterOrder() []rune {
	out := make([]rune, len(Alphabet))
	copy(out, Alphabet)
	return out
}

// Contains reports whether r is a wheel letter.
func Contains(r rune) bool {
	for _, l := range Alphabet {
		if l == r {
			return true
		}
	}
	return false
}

// BucketFor computes the wheel letter for an expected answer, or 0 when
// the answer falls outside the alphabet. Normalization folds Ñ into N,
// so Ñ is detected from the raw uppercase first rune before normalizing.
func BucketFor(rawAnswer string) rune {
	raw := strings.TrimSpace(rawAnswer)
	if raw == "" {
		return 0
	}
	rawFirst := unicode.ToUpper([]rune(raw)[0])
	if rawFirst == 'Ñ' {
		return 'Ñ'
	}

	norm := answer.Normalize(raw)
	if norm == "" {
		return 0
	}
	first := unicode.ToUpper([]rune(norm)[0])
	if !Contains(first) {
		return 0
	}
	return first
}

// BucketByFirstLetter partitions cards by the wheel letter of their
// answer. Cards outside the alphabet are dropped; bucket order preserves
// input order.
func BucketByFirstLetter(cards []model.Card) map[rune][]model.Card {
	buckets := make(map[rune][]model.Card, Count)
	for _, l := range Alphabet {
		buckets[l] = nil
	}
	for _, c := range cards {
		letter := BucketFor(c.Answer)
		if letter == 0 {
			continue
		}
		buckets[letter] = append(buckets[letter], c)
	}
	return buckets
}
