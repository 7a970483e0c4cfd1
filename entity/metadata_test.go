package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeMetadataTolerant(t *testing.T) {
	m, ok := DecodeMetadata(nil)
	assert.True(t, ok)
	assert.Empty(t, m)

	m, ok = DecodeMetadata([]byte(`{"category": "pilot", "count": 3}`))
	assert.True(t, ok)
	assert.Equal(t, "pilot", m["category"])

	// Malformed payloads decode to empty, never error
	m, ok = DecodeMetadata([]byte(`{broken`))
	assert.False(t, ok)
	assert.Empty(t, m)

	m, ok = DecodeMetadata([]byte(`"just a string"`))
	assert.False(t, ok)
	assert.Empty(t, m)
}

func TestDecodeAliasesTolerant(t *testing.T) {
	aliases, ok := DecodeAliases([]byte(`["J. Epstein", "Jeff"]`))
	assert.True(t, ok)
	assert.Equal(t, []string{"J. Epstein", "Jeff"}, aliases)

	aliases, ok = DecodeAliases([]byte(`{"not": "a list"}`))
	assert.False(t, ok)
	assert.Nil(t, aliases)
}

func TestMetadataMerge(t *testing.T) {
	survivor := Metadata{
		"mention_count": float64(12),
		"category":      "pilot",
		"sources":       []interface{}{"registry", "depositions"},
		"verified":      false,
	}
	absorbed := Metadata{
		"mention_count": float64(40),
		"category":      "staff",
		"sources":       []interface{}{"Depositions", "flight_logs"},
		"verified":      true,
		"hop_distance":  float64(2),
	}

	merged := survivor.Merge(absorbed)

	// Numeric: max
	assert.Equal(t, float64(40), merged["mention_count"])
	// String: survivor wins
	assert.Equal(t, "pilot", merged["category"])
	// List: ordered union, case-insensitive dedupe
	assert.Equal(t, []interface{}{"registry", "depositions", "flight_logs"}, merged["sources"])
	// Bool: OR
	assert.Equal(t, true, merged["verified"])
	// Absent on survivor: adopted
	assert.Equal(t, float64(2), merged["hop_distance"])

	// Merge never mutates its receiver
	assert.Equal(t, "pilot", survivor["category"])
	assert.Equal(t, float64(12), survivor["mention_count"])
}

func TestMetadataExclude(t *testing.T) {
	m := Metadata{}
	assert.False(t, m.Excluded())

	m.Exclude("standalone_first_name:mary")
	assert.True(t, m.Excluded())
	assert.Equal(t, "standalone_first_name:mary", m[KeyExcludeReason])

	// Excluded flag survives a merge from either side
	other := Metadata{"x": float64(1)}
	assert.True(t, m.Merge(other).Excluded())
	assert.True(t, other.Merge(m).Excluded())
}

func TestEntityAddAlias(t *testing.T) {
	e := &Entity{ID: "PER-00001", Type: TypePerson, CanonicalName: "Larry Visoski"}

	assert.True(t, e.AddAlias("MR. LARRY VISOSKI"))
	assert.False(t, e.AddAlias("mr. larry visoski"), "case-insensitive duplicate")
	assert.False(t, e.AddAlias("Larry Visoski"), "canonical name never becomes an alias")
	assert.False(t, e.AddAlias("  "))
	assert.Equal(t, []string{"MR. LARRY VISOSKI"}, e.Aliases)
	assert.True(t, e.HasAlias("mr. larry visoski"))
}

func TestTypePrefix(t *testing.T) {
	assert.Equal(t, "PER", TypePerson.IDPrefix())
	assert.Equal(t, "ORG", TypeShellCompany.IDPrefix(), "shell companies share the ORG id space")
	assert.Equal(t, "ENT", Type("mystery").IDPrefix())
	assert.True(t, TypeAircraft.Valid())
	assert.False(t, Type("mystery").Valid())
}

func TestRelationshipPairKey(t *testing.T) {
	a := &Relationship{SourceID: "PER-00002", TargetID: "PER-00001", Type: "traveled_with"}
	b := &Relationship{SourceID: "PER-00001", TargetID: "PER-00002", Type: "traveled_with"}
	assert.Equal(t, a.PairKey(), b.PairKey(), "pair is unordered for dedup")

	c := &Relationship{SourceID: "PER-00001", TargetID: "PER-00002", Type: "employed_by"}
	assert.NotEqual(t, a.PairKey(), c.PairKey())
}
