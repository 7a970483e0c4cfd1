package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/registry"
)

func seedRegistry(t *testing.T, names map[string]string) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for id, name := range names {
		require.NoError(t, reg.Add(&entity.Entity{
			ID:            id,
			Type:          entity.TypePerson,
			CanonicalName: name,
			FirstSeen:     time.Now().UTC(),
		}))
	}
	return reg
}

func TestResolveExactAndAliasTiers(t *testing.T) {
	reg := seedRegistry(t, map[string]string{"PER-00001": "Jeffrey Edward Epstein"})
	reg.MergeAliases("PER-00001", []string{"Je"})
	res := New(reg, Options{})

	// canonical name, case-insensitive
	got := res.Resolve("jeffrey edward epstein")
	assert.Equal(t, MethodExact, got.Method)
	assert.Equal(t, "PER-00001", got.ID)
	assert.Equal(t, 1.0, got.Confidence)

	// short form hits the index but is not the canonical name
	got = res.Resolve("Jeffrey Epstein")
	assert.Equal(t, MethodAlias, got.Method)
	assert.Equal(t, "PER-00001", got.ID)
	assert.Equal(t, 0.95, got.Confidence)

	// "Last, First" rewrites to the normalized form
	got = res.Resolve("Epstein, Jeffrey Edward")
	assert.Equal(t, MethodExact, got.Method)
	assert.Equal(t, "PER-00001", got.ID)
}

func TestResolveNoiseGate(t *testing.T) {
	reg := seedRegistry(t, map[string]string{"PER-00001": "Ghislaine Maxwell"})
	res := New(reg, Options{})

	got := res.Resolve("various individuals")
	assert.Equal(t, MethodNoise, got.Method)
	assert.Empty(t, got.ID)
	assert.Zero(t, got.Confidence)
}

func TestResolveNumberedReferenceNeverFuzzyMatches(t *testing.T) {
	reg := seedRegistry(t, map[string]string{"PER-00001": "Detective 12"})
	res := New(reg, Options{})

	// exact still works
	got := res.Resolve("Detective 12")
	assert.Equal(t, MethodExact, got.Method)

	// a different numbered reference must not approximate-match, even
	// though the strings are one character apart
	got = res.Resolve("Detective 13")
	assert.Equal(t, MethodNoMatch, got.Method)
	assert.Empty(t, got.ID)

	// numbered Doe placeholders are rejected earlier, by the noise gate
	assert.Equal(t, MethodNoise, res.Resolve("Jane Doe #3").Method)
}

func TestResolveFuzzyTier(t *testing.T) {
	reg := seedRegistry(t, map[string]string{"PER-00001": "Alexander Acosta"})
	res := New(reg, Options{})

	// one-character typo on a long name clears the 90 cutoff
	got := res.Resolve("Alexander Acozta")
	assert.Equal(t, MethodFuzzy, got.Method)
	assert.Equal(t, "PER-00001", got.ID)
	assert.GreaterOrEqual(t, got.Confidence, 0.90)

	got = res.Resolve("Somebody Unrelated")
	assert.Equal(t, MethodNoMatch, got.Method)
}

func TestResolveShortNameGuard(t *testing.T) {
	reg := seedRegistry(t, map[string]string{"PER-00001": "John Kerry"})
	res := New(reg, Options{})

	// "John Perry" vs "John Kerry" scores 90 on a plain token-sort
	// ratio; at 10 characters the 95 guard applies and rejects it.
	got := res.Resolve("John Perry")
	assert.Equal(t, MethodNoMatch, got.Method)

	// an eleven-character input with the same relative distance is
	// accepted under the normal cutoff
	reg2 := seedRegistry(t, map[string]string{"PER-00002": "Marvin Minsky"})
	got = New(reg2, Options{}).Resolve("MarvinMinskey")
	assert.Equal(t, MethodFuzzy, got.Method)
}

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100, ratio(tokenSort("Jeffrey Epstein"), tokenSort("Epstein Jeffrey")))
	assert.Equal(t, 0, ratio("", ""))
	assert.Less(t, ratio(tokenSort("John Perry"), tokenSort("John Kerry")), 95)
}
