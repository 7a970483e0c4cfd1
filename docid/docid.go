// Package docid canonicalizes document references. Source systems cite
// the same underlying document three ways: EFTA production numbers
// (EFTA00123456), DOJ-OGR identifiers in assorted spellings (DOJ-OGR-123,
// "DOJ OGR 00000123"), and free-form strings with no stable id at all.
// Canonicalize collapses all three into one sortable reference space.
package docid

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

var (
	eftaPattern   = regexp.MustCompile(`\b(EFTA\d{6,})\b`)
	dojOGRPattern = regexp.MustCompile(`(?i)\bDOJ[\s\-_]?OGR[\s\-_]?(\d{1,12})\b`)
)

// Reference classes, in sort order. EFTA numbers are the primary
// production ids and sort first; raw hashes are last-resort fallbacks.
const (
	ClassEFTA = iota
	ClassDOJOGR
	ClassRawHash
)

// ExtractEFTA returns the first EFTA production number found in s, or "".
func ExtractEFTA(s string) string {
	if m := eftaPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// ExtractDOJOGR returns the first DOJ-OGR identifier found in s,
// normalized to DOJ-OGR-<8-digit zero-padded number>, or "".
func ExtractDOJOGR(s string) string {
	if m := dojOGRPattern.FindStringSubmatch(s); m != nil {
		num := m[1]
		if len(num) < 8 {
			num = strings.Repeat("0", 8-len(num)) + num
		}
		return "DOJ-OGR-" + num
	}
	return ""
}

// RawHash derives a stable fallback reference from an arbitrary source
// string: DOC- plus the first 12 hex chars of its sha1.
func RawHash(s string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(s)))
	return "DOC-" + hex.EncodeToString(sum[:])[:12]
}

// Canonicalize maps an arbitrary document reference to its canonical
// form: an EFTA number if one is embedded, else a normalized DOJ-OGR id,
// else a stable hash of the raw string. Empty input yields "".
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if efta := ExtractEFTA(s); efta != "" {
		return efta
	}
	if ogr := ExtractDOJOGR(s); ogr != "" {
		return ogr
	}
	return RawHash(s)
}

// Class reports the reference class of an already-canonical ref.
func Class(ref string) int {
	switch {
	case strings.HasPrefix(ref, "EFTA"):
		return ClassEFTA
	case strings.HasPrefix(ref, "DOJ-OGR-"):
		return ClassDOJOGR
	default:
		return ClassRawHash
	}
}

// SortRefs orders refs in place: EFTA before DOJ-OGR before raw hashes,
// lexicographic within a class.
func SortRefs(refs []string) {
	sort.Slice(refs, func(i, j int) bool {
		ci, cj := Class(refs[i]), Class(refs[j])
		if ci != cj {
			return ci < cj
		}
		return refs[i] < refs[j]
	})
}

// MergeRefs unions two reference lists, deduplicates, sorts per SortRefs
// and caps the result at limit (limit <= 0 means no cap).
func MergeRefs(a, b []string, limit int) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, ref := range list {
			if ref == "" {
				continue
			}
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			merged = append(merged, ref)
		}
	}
	SortRefs(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
