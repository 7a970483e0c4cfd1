// Package normalize turns raw entity-name strings into the comparison forms
// used across the pipeline. Every function here is pure, total and
// deterministic: garbage in yields an empty string out, never an error.
//
// Three levels of aggression, for three different jobs:
//
//   - Name / ShortForm: light normalization for the real-time resolver.
//   - MatchKey: aggressive match-only form for the cleanup engine's
//     duplicate clustering. Never used for display.
//   - CleanDisplayName: cosmetic form for the non-destructive rename phase.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// Professional and generational suffixes stripped before comparison.
var nameSuffixes = []string{
	", Esq.", " Esq.", ", Jr.", " Jr.", ", Sr.", " Sr.",
	", III", " III", ", II", " II", ", IV", " IV",
	", M.D.", " M.D.", ", Ph.D.", " Ph.D.", ", J.D.", " J.D.",
}

// Title and honorific prefixes stripped by StripTitles. Ordered list, not a
// set: matching is prefix-based and repeats until fixpoint.
var titlePrefixes = []string{
	"president ", "professor ", "prof. ", "senator ", "rep. ",
	"judge ", "justice ", "attorney ", "agent ",
	"dr. ", "mr. ", "mrs. ", "ms. ", "miss ",
	"sir ", "lord ", "lady ", "prince ", "princess ",
	"king ", "queen ", "sheikh ", "imam ",
	"general ", "colonel ", "captain ", "detective ",
	"governor ", "mayor ", "ambassador ",
}

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)
var punctToDrop = regexp.MustCompile(`[.,]`)

// Name normalizes a raw name for matching:
//
//	"Epstein, Jeffrey E." -> "Jeffrey E. Epstein"
//	"Larry Visoski (Pilot)" -> "Larry Visoski"
//
// Strips suffixes, rewrites "Last, First Middle" order, drops parenthetical
// annotations and collapses whitespace. Idempotent.
func Name(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}

	// "LAST, FIRST" or "LAST, FIRST MIDDLE"
	if idx := strings.Index(s, ","); idx >= 0 {
		last := strings.TrimSpace(s[:idx])
		firstMiddle := strings.TrimSpace(s[idx+1:])
		if last != "" && firstMiddle != "" {
			s = firstMiddle + " " + last
		}
	}

	s = parenthetical.ReplaceAllString(s, " ")

	return strings.Join(strings.Fields(s), " ")
}

// ShortForm reduces a name to first + last token only:
//
//	"Ghislaine Noelle Marion Maxwell" -> "Ghislaine Maxwell"
func ShortForm(raw string) string {
	normalized := Name(raw)
	parts := strings.Fields(normalized)
	if len(parts) <= 2 {
		return normalized
	}
	return parts[0] + " " + parts[len(parts)-1]
}

// StripTitles removes honorific prefixes, repeating until none remain so
// stacked titles ("Mr. President Clinton") fully unwind.
func StripTitles(name string) string {
	s := strings.TrimSpace(name)
	for {
		lowered := strings.ToLower(s)
		stripped := false
		for _, prefix := range titlePrefixes {
			if strings.HasPrefix(lowered, prefix) {
				s = strings.TrimSpace(s[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// HasTitlePrefix reports whether the name starts with a known honorific.
func HasTitlePrefix(name string) bool {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, prefix := range titlePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

// TitleCase converts mostly-uppercase names to Title Case, preserving
// hyphenated segments and short dotted abbreviations:
//
//	"HEATHER MANN"    -> "Heather Mann"
//	"JEAN-LUC BRUNEL" -> "Jean-Luc Brunel"
//	"Jean-Luc Brunel" -> "Jean-Luc Brunel" (unchanged, already mixed case)
//
// Names below a 0.7 uppercase ratio are left alone: they are already
// human-cased and recapitalizing would mangle particles like "de" or "van".
func TitleCase(name string) string {
	var alpha, upper int
	for _, r := range name {
		if unicode.IsLetter(r) {
			alpha++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if alpha == 0 || float64(upper)/float64(alpha) < 0.7 {
		return name
	}

	parts := strings.Fields(name)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		switch {
		case strings.Contains(part, "-"):
			segs := strings.Split(part, "-")
			for i, seg := range segs {
				segs[i] = capitalize(seg)
			}
			out = append(out, strings.Join(segs, "-"))
		case part == strings.ToUpper(part) && len(part) <= 3 && strings.Contains(part, "."):
			// Keep abbreviations like "J.D."
			out = append(out, part)
		default:
			out = append(out, capitalize(part))
		}
	}
	return strings.Join(out, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// MatchKey normalizes a name aggressively for duplicate detection. Used
// only for matching, never for display:
//
//	"MR. LARRY VISOSKI"       -> "larry visoski"
//	"Jean-Luc Brunel"         -> "jean luc brunel"
//	"Nadia Nadia Marcinkova"  -> "nadia marcinkova"
//	"Jack A. Goldberger"      -> "jack goldberger"
func MatchKey(name string) string {
	s := strings.TrimSpace(name)
	s = StripTitles(s)
	s = TitleCase(s)
	s = Name(s)
	s = strings.ToLower(s)
	s = punctToDrop.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	// Drop stutter: a repeated leading word
	if len(words) >= 3 && words[0] == words[1] {
		words = words[1:]
	}
	// Drop lone single-letter middle tokens
	if len(words) >= 3 {
		kept := words[:0]
		for i, w := range words {
			if i > 0 && i < len(words)-1 && len(w) == 1 {
				continue
			}
			kept = append(kept, w)
		}
		words = kept
	}
	return strings.Join(words, " ")
}

// CleanDisplayName derives the cosmetic form applied by the rename phase:
// titles stripped, ALL-CAPS fixed, leading stutter dropped, whitespace
// collapsed. Unlike MatchKey it preserves case and punctuation of what
// remains, because the result becomes the entity's display name.
func CleanDisplayName(name string) string {
	s := strings.TrimSpace(name)
	if stripped := StripTitles(s); stripped != "" {
		s = stripped
	}
	s = TitleCase(s)

	words := strings.Fields(s)
	if len(words) >= 3 && strings.EqualFold(words[0], words[1]) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}
