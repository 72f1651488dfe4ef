// Package matching centralizes driver-name normalization, similarity
// scoring, and score classification for identity matching.
package matching

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	// Punctuation that carries no identity meaning. Hyphens and
	// apostrophes stay: "Jean-Luc" and "O'Brien" are distinct names.
	strippedPunctRegex = regexp.MustCompile(`[.,"]`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	nonDigitRegex      = regexp.MustCompile(`\D`)
)

// NormalizeName canonicalizes a free-text driver name into a comparable
// key: NFKC-folded, transliterated to ASCII, upper-cased, stripped of
// identity-free punctuation, with whitespace runs collapsed to a single
// space. Pure and idempotent; an empty input yields an empty output.
func NormalizeName(raw string) string {
	s := norm.NFKC.String(raw)
	s = unidecode.Unidecode(s)
	s = strippedPunctRegex.ReplaceAllString(s, "")
	s = strings.ToUpper(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeTransponder validates and canonicalizes a transponder number.
// Transponders are digit strings from race timing hardware; anything
// else is malformed and returns "" so matching degrades to name rules
// instead of failing.
func NormalizeTransponder(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || nonDigitRegex.MatchString(raw) {
		return ""
	}
	return raw
}
