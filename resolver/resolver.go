// Package resolver maps raw source-supplied names onto canonical entity
// ids. It is a pure matching library: no side effects, no store access.
// Callers mint new entities on no_match and reindex the registry before
// resolving further names from the same batch.
package resolver

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/805Burner66/ECARE/noise"
	"github.com/805Burner66/ECARE/normalize"
	"github.com/805Burner66/ECARE/registry"
)

// Match methods, in order of decreasing confidence.
const (
	MethodExact   = "exact"
	MethodAlias   = "alias"
	MethodFuzzy   = "fuzzy"
	MethodNoise   = "noise"
	MethodNoMatch = "no_match"
)

// Options tunes the approximate tier. Zero values fall back to the
// defaults used across the pipeline.
type Options struct {
	// FuzzyCutoff is the minimum token-sort score (0..100) to accept an
	// approximate match.
	FuzzyCutoff int
	// ShortNameCutoff overrides FuzzyCutoff for inputs at or below
	// ShortNameLength characters. Short names collide easily: "John
	// Perry" and "John Kerry" score 80 against each other.
	ShortNameCutoff int
	ShortNameLength int
}

// DefaultOptions mirrors the pipeline defaults.
func DefaultOptions() Options {
	return Options{FuzzyCutoff: 90, ShortNameCutoff: 95, ShortNameLength: 10}
}

// Result is the outcome of one resolution attempt. ID is empty unless
// Method is exact, alias or fuzzy.
type Result struct {
	ID         string
	Method     string
	Confidence float64
}

// Resolver resolves raw names against a registry snapshot. It never
// mutates the registry.
type Resolver struct {
	reg  *registry.Registry
	opts Options
}

func New(reg *registry.Registry, opts Options) *Resolver {
	def := DefaultOptions()
	if opts.FuzzyCutoff <= 0 {
		opts.FuzzyCutoff = def.FuzzyCutoff
	}
	if opts.ShortNameCutoff <= 0 {
		opts.ShortNameCutoff = def.ShortNameCutoff
	}
	if opts.ShortNameLength <= 0 {
		opts.ShortNameLength = def.ShortNameLength
	}
	return &Resolver{reg: reg, opts: opts}
}

// Resolve maps rawName onto a canonical id. Precision over recall: a
// duplicate entity minted on a missed match is repaired later by the
// cleanup engine, an incorrect merge is not.
func (r *Resolver) Resolve(rawName string) Result {
	if noise.IsNonEntity(rawName) {
		return Result{Method: MethodNoise}
	}

	normalized := normalize.Name(rawName)

	// Exact tier: raw, then normalized, then short form.
	forms := []string{strings.ToLower(strings.TrimSpace(rawName))}
	if lower := strings.ToLower(normalized); lower != forms[0] {
		forms = append(forms, lower)
	}
	if lower := strings.ToLower(normalize.ShortForm(rawName)); lower != "" {
		forms = append(forms, lower)
	}
	for _, form := range forms {
		if id, ok := r.reg.LookupExact(form); ok {
			if target := r.reg.Get(id); target != nil && form == strings.ToLower(target.CanonicalName) {
				return Result{ID: id, Method: MethodExact, Confidence: 1.0}
			}
			return Result{ID: id, Method: MethodAlias, Confidence: 0.95}
		}
	}

	// Numbered references ("Jane Doe #3") must never cross-match other
	// numbered references approximately.
	if noise.IsNumberedReference(rawName) {
		return Result{Method: MethodNoMatch}
	}

	cutoff := r.opts.FuzzyCutoff
	if len(normalized) <= r.opts.ShortNameLength {
		cutoff = r.opts.ShortNameCutoff
	}

	input := tokenSort(normalized)
	bestScore := 0
	bestID := ""
	for _, cand := range r.reg.Names() {
		sorted := tokenSort(cand.Name)
		if !lengthWindow(input, sorted, cutoff) {
			continue
		}
		if score := ratio(input, sorted); score > bestScore {
			bestScore = score
			bestID = cand.ID
		}
	}
	if bestScore >= cutoff {
		return Result{ID: bestID, Method: MethodFuzzy, Confidence: float64(bestScore) / 100}
	}
	return Result{Method: MethodNoMatch}
}

// tokenSort lowercases, splits on whitespace, sorts the tokens and
// rejoins, making the comparison order-invariant ("Epstein, Jeffrey"
// normalizes to the same key as "Jeffrey Epstein").
func tokenSort(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// lengthWindow is a cheap necessary condition for ratio(a, b) >= cutoff:
// the edit distance is at least the length difference.
func lengthWindow(a, b string, cutoff int) bool {
	la, lb := len([]rune(a)), len([]rune(b))
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return false
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	return (longer-diff)*100 >= cutoff*longer
}

// ratio is a normalized edit similarity in [0, 100].
func ratio(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return ((longer - dist) * 100) / longer
}
