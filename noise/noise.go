// Package noise classifies raw name strings that are not real entities:
// redaction markers, role placeholders, sentence fragments, ID blobs.
//
// Two tiers. The base predicates (IsNonEntity, IsRedactionMarker,
// IsNumberedReference) gate the real-time resolver. Classify applies the
// expanded rule set the post-ingestion cleanup engine uses to catch what
// the base tier missed.
//
// All rules are ordered data tables with reason codes, so new heuristics
// are additions to a list rather than new code paths.
package noise

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/805Burner66/ECARE/normalize"
)

// Structural ceilings: longer or wordier strings are sentence fragments.
const (
	maxNameLength = 90
	maxNameWords  = 7
	// Strings of at least minLengthForRatio chars need at least
	// minAlphaRatio alphabetic content, otherwise they are ID blobs.
	minLengthForRatio = 25
	minAlphaRatio     = 0.35
)

// Generic substrings that mark a non-entity wherever they appear in the
// normalized lowercase form.
var noiseSubstrings = []string{
	"unknown person", "unknown company", "unknown organization",
	"unidentified", "unnamed", "redacted", "sealed",
	"various ", "multiple ", "participants", "attendees",
	"author", "narrator", "reporter",
	"plaintiff", "defendant", "witness", "victim", "employee",
	"the government", "the court", "prosecution", "defense counsel",
	"security clearance", "technology industry",
}

var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^unknown(\s+(person|individual|man|woman|company|organization))?$`),
	regexp.MustCompile(`(?i)^(unidentified|unnamed)\b`),
	regexp.MustCompile(`(?i)^(various|multiple)\b`),
	regexp.MustCompile(`(?i)^(employee|victim|witness)\s*#?\d+\b`),
	regexp.MustCompile(`(?i)^(john|jane)\s+doe\s*#?\d+\b`),
	regexp.MustCompile(`(?i)^\(b\)\(\d+\)`),
}

// numberedReference matches names encoding a distinct numbered identity.
// Jane Doe #1 and Jane Doe #2 are different people: the resolver must
// never fuzzy-match two of these to each other.
var numberedReference = regexp.MustCompile(`(?i)(?:Jane|John)\s+Doe\s*#?\d|Employee[- ]?\d|Detective\s*\d|Victim\s*#?\d`)

// IsNumberedReference flags names that encode a distinct numbered identity
// and are therefore exempt from approximate matching entirely.
func IsNumberedReference(name string) bool {
	return numberedReference.MatchString(name)
}

// looksLikeNonEntity applies the structural heuristics: things that are
// obviously not names regardless of vocabulary.
func looksLikeNonEntity(name string) bool {
	s := strings.TrimSpace(name)
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, "\n\t") {
		return true
	}
	lowered := strings.ToLower(s)
	if strings.Contains(lowered, "http://") || strings.Contains(lowered, "https://") {
		return true
	}
	if strings.Contains(s, "@") && strings.Contains(s, ".") {
		return true
	}
	if len(s) > maxNameLength || len(strings.Fields(s)) > maxNameWords {
		return true
	}
	alpha := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if alpha == 0 {
		return true
	}
	if len(s) >= minLengthForRatio && float64(alpha)/float64(len(s)) < minAlphaRatio {
		return true
	}
	return false
}

// IsNonEntity reports whether a string is too generic or malformed to be
// treated as a real entity name.
func IsNonEntity(name string) bool {
	if looksLikeNonEntity(name) {
		return true
	}
	lowered := strings.ToLower(normalize.Name(name))
	if lowered == "" {
		return true
	}
	for _, sub := range noiseSubstrings {
		if strings.Contains(lowered, sub) {
			return true
		}
	}
	for _, rx := range noisePatterns {
		if rx.MatchString(lowered) {
			return true
		}
	}
	return false
}

// IsRedactionMarker is the stricter variant gating brand-new-entity
// creation: a redaction marker must never become a canonical entity.
func IsRedactionMarker(name string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	if cleaned == "" {
		return true
	}
	if strings.HasPrefix(cleaned, "(b)") {
		return true
	}
	if strings.Contains(cleaned, "[redacted]") || strings.Contains(cleaned, "[sealed]") {
		return true
	}
	switch cleaned {
	case "unknown", "unidentified", "n/a", "redacted", "sealed":
		return true
	}
	// Single characters are never names
	return len(cleaned) <= 1
}
