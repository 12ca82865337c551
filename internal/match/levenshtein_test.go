package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"hello", "hello", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"a", "b", 1},
		{"a", "ab", 1},
		{"abc", "ab", 1},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Hello", "hello", 1},
		{"Points", "Pointz", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a), "symmetry")
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 1.0-3.0/7.0, Similarity("kitten", "sitting"), 1e-9)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pointcount", Normalize("point_count"))
	assert.Equal(t, "pointcount", Normalize("PointCount"))
	assert.Equal(t, "abc", Normalize("a-b.c "))
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	names := []string{"Weight", "Height", "Points", "Nested"}

	assert.Equal(t, []string{"Points"}, Suggest("points_", names, 1))
	assert.Equal(t, []string{"Height", "Weight"}, Suggest("height", names, 2))
	assert.Empty(t, Suggest("zzzzzz", names, 3))
}

func BenchmarkLevenshtein(b *testing.B) {
	for b.Loop() {
		Levenshtein("algorithm", "altruistic")
	}
}
