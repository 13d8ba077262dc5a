package answer

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Reason explains how (or why not) an answer matched.
type Reason string

// Match reasons, in evaluation order.
const (
	ReasonEmpty     Reason = "empty"
	ReasonExact     Reason = "exact"
	ReasonStopwords Reason = "stopwords"
	ReasonFuzzy     Reason = "fuzzy"
	ReasonTokens    Reason = "tokens"
	ReasonNoMatch   Reason = "no_match"
)

// Result is the outcome of comparing a given answer to the expected one.
// Similarity is populated for fuzzy matches and for no_match diagnostics.
type Result struct {
	Matched    bool
	Reason     Reason
	Similarity float64
}

// Spanish articles, prepositions and conjunctions ignored by the
// stopword-insensitive stage.
var stopwords = map[string]struct{}{
	"el": {}, "la": {}, "los": {}, "las": {},
	"un": {}, "una": {}, "unos": {}, "unas": {},
	"de": {}, "del": {}, "al": {}, "y": {}, "e": {}, "a": {},
	"en": {}, "por": {}, "para": {}, "con": {}, "sin": {},
}

// Compare decides whether given matches expected, trying increasingly
// permissive strategies and short-circuiting on the first hit. The fuzzy
// threshold is caller-supplied so the round mode can tighten it as
// difficulty rises. allowTokens enables the partial-name containment
// fallback.
func Compare(given, expected string, fuzzyThreshold float64, allowTokens bool) Result {
	g := Normalize(given)
	c := Normalize(expected)

	if g == "" {
		return Result{Reason: ReasonEmpty}
	}
	if g == c {
		return Result{Matched: true, Reason: ReasonExact}
	}

	gs := stripStopwords(g)
	cs := stripStopwords(c)
	if gs != "" && gs == cs {
		return Result{Matched: true, Reason: ReasonStopwords}
	}

	sim := similarity(fallback(gs, g), fallback(cs, c))
	if sim >= fuzzyThreshold {
		return Result{Matched: true, Reason: ReasonFuzzy, Similarity: sim}
	}

	if allowTokens && tokenContainment(fallback(gs, g), fallback(cs, c)) {
		return Result{Matched: true, Reason: ReasonTokens}
	}

	return Result{Reason: ReasonNoMatch, Similarity: sim}
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func stripStopwords(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Fields(s)
	kept := parts[:0]
	for _, w := range parts {
		if _, ok := stopwords[w]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// tokenContainment accepts partial recall of long names: one token of
// five or more runes, or two tokens of four, appearing as whole words in
// the expected answer.
func tokenContainment(given, expected string) bool {
	padded := " " + expected + " "
	longHits := 0
	midHits := 0
	for _, tok := range strings.Fields(given) {
		n := len([]rune(tok))
		switch {
		case n >= 5 && strings.Contains(padded, " "+tok+" "):
			longHits++
		case n >= 4 && strings.Contains(padded, " "+tok+" "):
			midHits++
		}
	}
	return longHits >= 1 || midHits >= 2
}

func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
