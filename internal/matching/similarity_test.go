package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("JAYSON BRENTON", "JAYSON BRENTON"))
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "JAYSON BRENTON"))
	assert.Equal(t, 0.0, Similarity("JAYSON BRENTON", ""))
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"JAYSON BRENTON", "JASON BRENTON"},
		{"JOHN SMITH", "SMITH JOHN"},
		{"MARCUS WEBB", "JAYSON BRENTON"},
		{"A", "AB"},
	}

	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]),
			"Similarity(%q, %q) not symmetric", p[0], p[1])
	}
}

func TestSimilarityBounded(t *testing.T) {
	pairs := [][2]string{
		{"JAYSON BRENTON", "JASON BRENTON"},
		{"JOHN SMITH", "SMITH JOHN"},
		{"MARCUS WEBB", "JAYSON BRENTON"},
		{"X", "COMPLETELY DIFFERENT NAME"},
	}

	for _, p := range pairs {
		score := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.Less(t, score, 1.0, "non-identical %q vs %q must score below 1.0", p[0], p[1])
	}
}

func TestSimilarityCloseTypo(t *testing.T) {
	// A one-letter difference should stay well inside fuzzy range.
	score := Similarity("JAYSON BRENTON", "JASON BRENTON")
	assert.GreaterOrEqual(t, score, DefaultConfig.FuzzyThreshold)
	assert.Less(t, score, 1.0)
}

func TestSimilarityReorderedTokens(t *testing.T) {
	// "Last First" result listings should score as near-certain matches.
	score := Similarity("BRENTON JAYSON", "JAYSON BRENTON")
	assert.Equal(t, maxReorderedScore, score)
}

func TestSimilarityMonotonicInCloseness(t *testing.T) {
	typo := Similarity("JAYSON BRENTON", "JASON BRENTON")
	unrelated := Similarity("JAYSON BRENTON", "MARCUS WEBB")
	assert.Greater(t, typo, unrelated)
}

func TestSimilarityUnrelatedBelowThreshold(t *testing.T) {
	score := Similarity("JAYSON BRENTON", "MARCUS WEBB")
	assert.Equal(t, ClassNoMatch, DefaultConfig.Classify(score))
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "ABC", 3},
		{"ABC", "", 3},
		{"ABC", "ABC", 0},
		{"JAYSON", "JASON", 1},
		{"KITTEN", "SITTING", 3},
		{"JOSE", "JOSÉ", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, levenshteinDistance(tt.a, tt.b),
			"levenshteinDistance(%q, %q)", tt.a, tt.b)
	}
}
