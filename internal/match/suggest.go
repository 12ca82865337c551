package match

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultMinSimilarity is the score below which a candidate is not suggested.
const DefaultMinSimilarity = 0.5

// Normalize folds case and drops '_', '-', '.' and spaces so that
// "point_count" and "PointCount" compare equal.
func Normalize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '_', '-', '.', ' ':
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// Candidate is a scored suggestion.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name and returns those at or above
// minScore, best first. Ties keep candidate order.
func Rank(name string, candidates []string, minScore float64) []Candidate {
	norm := Normalize(name)

	var out []Candidate

	for _, c := range candidates {
		score := Similarity(norm, Normalize(c))
		if score >= minScore {
			out = append(out, Candidate{Name: c, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	return out
}

// Suggest returns up to limit candidate names closest to name.
func Suggest(name string, candidates []string, limit int) []string {
	ranked := Rank(name, candidates, DefaultMinSimilarity)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.Name
	}

	return out
}
