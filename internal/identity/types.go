// Package identity decides whether a user's racer profile and a driver
// record from imported results refer to the same person, and how
// confidently.
package identity

import "github.com/google/uuid"

// MatchType records which signal produced a match.
type MatchType string

const (
	// MatchTypeTransponder means the timing hardware IDs were equal.
	// This is the strongest signal: it survives legal-name vs nickname
	// mismatches in the results listings.
	MatchTypeTransponder MatchType = "transponder"
	// MatchTypeExact means the normalized names were identical.
	MatchTypeExact MatchType = "exact"
	// MatchTypeFuzzy means the names cleared the similarity threshold.
	MatchTypeFuzzy MatchType = "fuzzy"
)

// UserIdentity carries the matchable attributes of a racer profile.
type UserIdentity struct {
	UserID            uuid.UUID
	DriverName        string
	NormalizedName    string // optional cache; derived from DriverName when empty
	TransponderNumber string // optional digit string
}

// DriverRecord carries the matchable attributes of an imported driver.
type DriverRecord struct {
	DriverID          uuid.UUID
	DisplayName       string
	NormalizedName    string
	TransponderNumber string // optional default transponder
}

// MatchResult is the outcome of a successful match decision.
type MatchResult struct {
	MatchType       MatchType
	SimilarityScore float64
}

// MatchPriority ranks match types by signal strength. Transponder
// identity outranks any name comparison.
func MatchPriority(t MatchType) int {
	switch t {
	case MatchTypeTransponder:
		return 3
	case MatchTypeExact:
		return 2
	case MatchTypeFuzzy:
		return 1
	default:
		return 0
	}
}

// Supersedes reports whether a new match outcome is strictly better
// than a stored one: a higher-priority match type wins outright, and
// within the same type only a strictly higher score wins. Stored links
// are never downgraded, and re-ingesting identical results is a no-op.
func Supersedes(newType MatchType, newScore float64, oldType MatchType, oldScore float64) bool {
	newPriority := MatchPriority(newType)
	oldPriority := MatchPriority(oldType)
	if newPriority != oldPriority {
		return newPriority > oldPriority
	}
	return newScore > oldScore
}
