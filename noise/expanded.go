package noise

import (
	"regexp"
	"strings"
)

// Expanded rule set for the cleanup engine. These catch entities that
// survived the base filter during ingestion but are clearly not real:
// standalone titles, generic role words, stray first names, question-mark
// placeholders.

// expandedExact lists exact lowercase forms that are never entities.
var expandedExact = map[string]struct{}{
	// Standalone titles / roles
	"president": {}, "attorney": {}, "judge": {}, "senator": {}, "detective": {},
	"agent": {}, "officer": {}, "prosecutor": {}, "prosecutors": {}, "counsel": {},
	// Generic words that aren't entities
	"public": {}, "communication": {}, "journalist": {}, "journalists": {},
	"applicant": {}, "appellant": {}, "respondent": {},
	"government": {}, "state": {}, "country": {},
	// Multi-word generic phrases the base filter misses
	"federal prosecutors": {}, "federal agents": {}, "federal government": {},
	"law enforcement": {}, "defense counsel": {}, "legal counsel": {},
	// Case references co-occurrence extraction mistook for people
	"epstein case": {}, "jeffrey epstein appellate case": {},
}

// commonFirstNames are single first names frequent enough in the corpus
// that a one-word entity carrying one is a partial-name extraction
// artifact, not a person.
var commonFirstNames = map[string]struct{}{
	"mary": {}, "david": {}, "sarah": {}, "john": {}, "james": {}, "michael": {},
	"robert": {}, "tony": {}, "leon": {}, "eva": {}, "rebecca": {}, "bruce": {},
	"roger": {}, "ralph": {}, "warren": {}, "mark": {}, "steve": {}, "chris": {},
	"peter": {}, "paul": {}, "george": {}, "jane": {}, "tom": {}, "joe": {},
}

// protectedSingleWords are real one-word entities (orgs, countries,
// institutions) exempt from the single-word heuristics.
var protectedSingleWords = map[string]struct{}{
	"hamas": {}, "isis": {}, "hezbollah": {}, "mossad": {}, "interpol": {},
	"libya": {}, "iraq": {}, "iran": {}, "syria": {}, "yemen": {}, "qatar": {}, "dubai": {},
	"harvard": {}, "yale": {}, "princeton": {}, "stanford": {}, "columbia": {}, "mit": {},
	"citibank": {}, "barclays": {}, "jpmorgan": {}, "wexner": {}, "victoria": {},
}

// expandedRule pairs a pattern with the reason code it emits.
type expandedRule struct {
	pattern *regexp.Regexp
	reason  string
}

var expandedRules = []expandedRule{
	{regexp.MustCompile(`^\w+\s+\?$`), "question_mark_placeholder"},
	{regexp.MustCompile(`(?i)^(Jeffrey\s+)?Epstein\s+(case|appellate|investigation|matter)`), "case_reference"},
	{regexp.MustCompile(`^\w{1,2}$`), "too_short"},
	{regexp.MustCompile(`^[A-Z]\.[A-Z]\.$`), "bare_initials"},
}

// Classify applies the expanded noise rules and returns the reason code
// for the first rule that fires. The second return is false for names that
// look like real entities.
func Classify(name string) (string, bool) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "empty", true
	}

	lowered := strings.ToLower(s)

	// Protected single-word entities are never noise, even when a later
	// rule would fire.
	if _, ok := protectedSingleWords[lowered]; ok {
		return "", false
	}

	if IsNonEntity(s) {
		return "base_noise_filter", true
	}

	if _, ok := expandedExact[lowered]; ok {
		return "generic_word:" + lowered, true
	}

	if !strings.Contains(s, " ") {
		if _, ok := commonFirstNames[lowered]; ok {
			return "standalone_first_name:" + lowered, true
		}
	}

	if strings.HasSuffix(s, " ?") || (strings.HasSuffix(s, "?") && len(s) <= 15) {
		return "question_mark_placeholder", true
	}

	for _, rule := range expandedRules {
		if rule.pattern.MatchString(s) {
			return rule.reason, true
		}
	}

	return "", false
}
