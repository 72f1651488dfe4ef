package identity

import (
	"my-race-engineer/internal/matching"
)

// Matcher applies the match decision rules with a fixed threshold
// configuration. It is stateless and safe for concurrent use.
type Matcher struct {
	cfg matching.FuzzyConfig
}

// NewMatcher creates a Matcher with the given thresholds.
func NewMatcher(cfg matching.FuzzyConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Config returns the matcher's threshold configuration.
func (m *Matcher) Config() matching.FuzzyConfig {
	return m.cfg
}

// Match decides whether user and driver refer to the same person.
// Rules apply in order, first hit wins:
//
//  1. equal well-formed transponder numbers → transponder match, 1.0
//  2. identical normalized names → exact match, 1.0
//  3. name similarity at or above the fuzzy threshold → fuzzy match
//  4. otherwise nil
//
// Malformed transponders and empty names never error; they just fall
// through to the next rule. Pure function of its inputs.
func (m *Matcher) Match(user UserIdentity, driver DriverRecord) *MatchResult {
	userTransponder := matching.NormalizeTransponder(user.TransponderNumber)
	driverTransponder := matching.NormalizeTransponder(driver.TransponderNumber)
	if userTransponder != "" && userTransponder == driverTransponder {
		return &MatchResult{MatchType: MatchTypeTransponder, SimilarityScore: 1.0}
	}

	userName := user.NormalizedName
	if userName == "" {
		userName = matching.NormalizeName(user.DriverName)
	}
	driverName := driver.NormalizedName
	if driverName == "" {
		driverName = matching.NormalizeName(driver.DisplayName)
	}
	if userName == "" || driverName == "" {
		return nil
	}

	if userName == driverName {
		return &MatchResult{MatchType: MatchTypeExact, SimilarityScore: 1.0}
	}

	score := matching.Similarity(userName, driverName)
	if m.cfg.Classify(score) == matching.ClassNoMatch {
		return nil
	}
	return &MatchResult{MatchType: MatchTypeFuzzy, SimilarityScore: score}
}
