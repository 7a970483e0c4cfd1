package entity

import (
	"encoding/json"
	"strings"
)

// Metadata is the type-agnostic field map carried by every canonical
// entity. Values are scalars, lists, or bools as decoded from JSON.
type Metadata map[string]interface{}

// Metadata keys used by the cleanup engine.
const (
	// KeyExcluded marks a noisy-but-entangled entity that downstream
	// analytics must skip. The graph around it stays intact.
	KeyExcluded = "exclude_from_analysis"
	// KeyExcludeReason records why the entity was flagged.
	KeyExcludeReason = "exclude_reason"
)

// DecodeMetadata parses a persisted metadata payload. Malformed payloads
// are treated as absent, never fatal: the caller logs and continues.
func DecodeMetadata(raw []byte) (Metadata, bool) {
	if len(raw) == 0 {
		return Metadata{}, true
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return Metadata{}, false
	}
	return m, true
}

// DecodeAliases parses a persisted alias payload with the same tolerance.
func DecodeAliases(raw []byte) ([]string, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	var aliases []string
	if err := json.Unmarshal(raw, &aliases); err != nil {
		return nil, false
	}
	return aliases, true
}

// Excluded reports whether the exclude_from_analysis flag is set.
func (m Metadata) Excluded() bool {
	v, ok := m[KeyExcluded]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Exclude sets the exclude_from_analysis flag with a reason code.
func (m Metadata) Exclude(reason string) {
	m[KeyExcluded] = true
	m[KeyExcludeReason] = reason
}

// Merge combines absorbed metadata into survivor metadata field by field:
//
//   - numeric fields take the max (corpus counts, hop distances)
//   - list fields take the deduplicated union, preserving order
//   - bool fields take logical OR
//   - anything else keeps the survivor's value, unless the survivor lacks
//     the field entirely, in which case the absorbed value is adopted
//
// The string asymmetry (survivor wins instead of combining) is a deliberate
// product decision carried over as-is.
func (m Metadata) Merge(absorbed Metadata) Metadata {
	merged := Metadata{}
	for k, v := range m {
		merged[k] = v
	}

	for key, absVal := range absorbed {
		survVal, ok := merged[key]
		if !ok || survVal == nil {
			merged[key] = absVal
			continue
		}

		sNum, sIsNum := asFloat(survVal)
		aNum, aIsNum := asFloat(absVal)
		sList, sIsList := survVal.([]interface{})
		aList, aIsList := absVal.([]interface{})
		sBool, sIsBool := survVal.(bool)
		aBool, aIsBool := absVal.(bool)

		switch {
		case sIsNum && aIsNum:
			if aNum > sNum {
				merged[key] = absVal
			}
		case sIsList && aIsList:
			merged[key] = unionLists(sList, aList)
		case sIsBool && aIsBool:
			merged[key] = sBool || aBool
		}
		// default: survivor's value stands
	}

	return merged
}

// asFloat widens any JSON-decoded numeric value.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// unionLists merges two lists preserving order, deduplicating strings
// case-insensitively and other values by string form.
func unionLists(a, b []interface{}) []interface{} {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []interface{}
	for _, item := range append(append([]interface{}{}, a...), b...) {
		key := itemKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func itemKey(item interface{}) string {
	if s, ok := item.(string); ok {
		return strings.ToLower(s)
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(raw)
}
