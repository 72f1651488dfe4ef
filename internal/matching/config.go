package matching

// MatchClass is the discrete bucket a similarity score falls into.
type MatchClass string

const (
	// ClassExactEquivalent marks scores high enough to treat the names
	// as the same person even though the strings differ.
	ClassExactEquivalent MatchClass = "exact_equivalent"
	// ClassFuzzyCandidate marks scores worth suggesting to the user.
	ClassFuzzyCandidate MatchClass = "fuzzy_candidate"
	// ClassNoMatch marks scores below the suggestion floor.
	ClassNoMatch MatchClass = "none"
)

// FuzzyConfig defines the thresholds for classifying name similarity.
type FuzzyConfig struct {
	// FuzzyThreshold is the minimum similarity for a fuzzy candidate.
	FuzzyThreshold float64
	// ExactThreshold is the similarity treated as equivalent to an
	// exact name match.
	ExactThreshold float64
}

// DefaultConfig defines the thresholds used when no overrides are set.
var DefaultConfig = FuzzyConfig{
	FuzzyThreshold: 0.8,
	ExactThreshold: 0.95,
}

// WithOverrides returns a copy of c with non-zero overrides applied.
// Zero values keep the existing thresholds, so configuration can
// override one without restating the other.
func (c FuzzyConfig) WithOverrides(fuzzy, exact float64) FuzzyConfig {
	if fuzzy > 0 {
		c.FuzzyThreshold = fuzzy
	}
	if exact > 0 {
		c.ExactThreshold = exact
	}
	return c
}

// Classify maps a similarity score to its discrete bucket.
func (c FuzzyConfig) Classify(score float64) MatchClass {
	switch {
	case score >= c.ExactThreshold:
		return ClassExactEquivalent
	case score >= c.FuzzyThreshold:
		return ClassFuzzyCandidate
	default:
		return ClassNoMatch
	}
}
