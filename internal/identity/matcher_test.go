package identity

import (
	"testing"

	"my-race-engineer/internal/matching"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherTransponderBeatsName(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	// Completely different names, equal transponders: hardware wins.
	user := UserIdentity{DriverName: "J. Smith", TransponderNumber: "123"}
	driver := DriverRecord{DisplayName: "Johnny S", NormalizedName: "JOHNNY S", TransponderNumber: "123"}

	result := m.Match(user, driver)
	require.NotNil(t, result)
	assert.Equal(t, MatchTypeTransponder, result.MatchType)
	assert.Equal(t, 1.0, result.SimilarityScore)
}

func TestMatcherExactNameMatch(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	user := UserIdentity{DriverName: "Jayson Brenton"}
	driver := DriverRecord{DisplayName: "Jayson Brenton", NormalizedName: "JAYSON BRENTON"}

	result := m.Match(user, driver)
	require.NotNil(t, result)
	assert.Equal(t, MatchTypeExact, result.MatchType)
	assert.Equal(t, 1.0, result.SimilarityScore)
}

func TestMatcherUsesPrecomputedNormalizedName(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	// A stale display name with a current normalized cache still matches.
	user := UserIdentity{DriverName: "something else", NormalizedName: "JAYSON BRENTON"}
	driver := DriverRecord{NormalizedName: "JAYSON BRENTON"}

	result := m.Match(user, driver)
	require.NotNil(t, result)
	assert.Equal(t, MatchTypeExact, result.MatchType)
}

func TestMatcherFuzzyNameMatch(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	user := UserIdentity{DriverName: "Jayson Brenton"}
	driver := DriverRecord{DisplayName: "Jason Brenton", NormalizedName: "JASON BRENTON"}

	result := m.Match(user, driver)
	require.NotNil(t, result)
	assert.Equal(t, MatchTypeFuzzy, result.MatchType)
	assert.GreaterOrEqual(t, result.SimilarityScore, matching.DefaultConfig.FuzzyThreshold)
	assert.Less(t, result.SimilarityScore, 1.0)
}

func TestMatcherNoMatchBelowThreshold(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	user := UserIdentity{DriverName: "Jayson Brenton"}
	driver := DriverRecord{DisplayName: "Marcus Webb", NormalizedName: "MARCUS WEBB"}

	assert.Nil(t, m.Match(user, driver))
}

func TestMatcherMalformedTransponderDegradesToNames(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	tests := []struct {
		name              string
		userTransponder   string
		driverTransponder string
		expectTransponder bool
	}{
		{"letters on user side", "12AB34", "12AB34", false},
		{"empty both sides", "", "", false},
		{"only user has one", "123", "", false},
		{"only driver has one", "", "123", false},
		{"well formed and equal", "123", "123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := UserIdentity{DriverName: "Jayson Brenton", TransponderNumber: tt.userTransponder}
			driver := DriverRecord{
				DisplayName:       "Jayson Brenton",
				NormalizedName:    "JAYSON BRENTON",
				TransponderNumber: tt.driverTransponder,
			}

			result := m.Match(user, driver)
			require.NotNil(t, result)
			if tt.expectTransponder {
				assert.Equal(t, MatchTypeTransponder, result.MatchType)
			} else {
				// Falls through to the exact-name rule.
				assert.Equal(t, MatchTypeExact, result.MatchType)
			}
			assert.Equal(t, 1.0, result.SimilarityScore)
		})
	}
}

func TestMatcherUnequalTranspondersStillMatchByName(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	// Different hardware is not a veto; names still count.
	user := UserIdentity{DriverName: "Jayson Brenton", TransponderNumber: "123"}
	driver := DriverRecord{
		DisplayName:       "Jayson Brenton",
		NormalizedName:    "JAYSON BRENTON",
		TransponderNumber: "456",
	}

	result := m.Match(user, driver)
	require.NotNil(t, result)
	assert.Equal(t, MatchTypeExact, result.MatchType)
}

func TestMatcherEmptyNamesNeverMatch(t *testing.T) {
	m := NewMatcher(matching.DefaultConfig)

	tests := []struct {
		name   string
		user   UserIdentity
		driver DriverRecord
	}{
		{"both empty", UserIdentity{}, DriverRecord{}},
		{"user empty", UserIdentity{}, DriverRecord{DisplayName: "Jayson Brenton"}},
		{"driver empty", UserIdentity{DriverName: "Jayson Brenton"}, DriverRecord{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, m.Match(tt.user, tt.driver))
		})
	}
}

func TestMatchPriority(t *testing.T) {
	assert.Greater(t, MatchPriority(MatchTypeTransponder), MatchPriority(MatchTypeExact))
	assert.Greater(t, MatchPriority(MatchTypeExact), MatchPriority(MatchTypeFuzzy))
	assert.Greater(t, MatchPriority(MatchTypeFuzzy), MatchPriority(MatchType("unknown")))
}

func TestSupersedes(t *testing.T) {
	tests := []struct {
		name     string
		newType  MatchType
		newScore float64
		oldType  MatchType
		oldScore float64
		expected bool
	}{
		{"transponder beats fuzzy", MatchTypeTransponder, 1.0, MatchTypeFuzzy, 0.7, true},
		{"fuzzy never downgrades transponder", MatchTypeFuzzy, 0.7, MatchTypeTransponder, 1.0, false},
		{"exact beats fuzzy even at high score", MatchTypeExact, 1.0, MatchTypeFuzzy, 0.99, true},
		{"transponder beats exact", MatchTypeTransponder, 1.0, MatchTypeExact, 1.0, true},
		{"better fuzzy score wins", MatchTypeFuzzy, 0.9, MatchTypeFuzzy, 0.7, true},
		{"equal fuzzy score is a no-op", MatchTypeFuzzy, 0.7, MatchTypeFuzzy, 0.7, false},
		{"worse fuzzy score loses", MatchTypeFuzzy, 0.6, MatchTypeFuzzy, 0.7, false},
		{"identical exact rematch is a no-op", MatchTypeExact, 1.0, MatchTypeExact, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Supersedes(tt.newType, tt.newScore, tt.oldType, tt.oldScore))
		})
	}
}
