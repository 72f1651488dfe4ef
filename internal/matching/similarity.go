package matching

import (
	"sort"
	"strings"
)

// maxReorderedScore caps names that differ only in token order ("SMITH
// JOHN" vs "JOHN SMITH"). A perfect 1.0 is reserved for identical
// strings.
const maxReorderedScore = 0.99

// Similarity computes a [0,1] similarity between two normalized driver
// names. Identical strings score exactly 1.0; everything else scores
// strictly below it. The heuristic is the better of the direct
// edit-distance similarity and the token-sorted one, so "BRENTON JAYSON"
// still scores high against "JAYSON BRENTON". Symmetric by construction.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	sim := editSimilarity(a, b)
	if sorted := editSimilarity(sortTokens(a), sortTokens(b)); sorted > sim {
		sim = sorted
	}
	if sim > maxReorderedScore {
		sim = maxReorderedScore
	}
	return sim
}

// editSimilarity normalizes Levenshtein distance into a similarity
// score between 0.0 and 1.0.
func editSimilarity(a, b string) float64 {
	distance := levenshteinDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings:
// the minimum number of single-character insertions, deletions, or
// substitutions required to change one into the other.
func levenshteinDistance(a, b string) int {
	// Convert strings to runes to handle Unicode correctly
	runesA := []rune(a)
	runesB := []rune(b)

	rows, cols := len(runesA)+1, len(runesB)+1
	dist := make([][]int, rows)
	for i := range dist {
		dist[i] = make([]int, cols)
		dist[i][0] = i
	}
	for j := 1; j < cols; j++ {
		dist[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if runesA[i-1] == runesB[j-1] {
				cost = 0
			}
			dist[i][j] = min(
				dist[i-1][j]+1,      // deletion
				dist[i][j-1]+1,      // insertion
				dist[i-1][j-1]+cost, // substitution
			)
		}
	}

	return dist[rows-1][cols-1]
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
