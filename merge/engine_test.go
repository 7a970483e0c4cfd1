package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/config"
	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/internal/testdb"
	"github.com/805Burner66/ECARE/store"
)

func testCleanupConfig() config.CleanupConfig {
	return config.CleanupConfig{
		ProminenceThreshold: 1,
		JaccardMinimum:      0.05,
		JaccardMargin:       1.5,
		DocRefCap:           200,
	}
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st := store.New(testdb.Open(t), zap.NewNop().Sugar())
	return NewEngine(st, testCleanupConfig(), zap.NewNop().Sugar()), st
}

func addPerson(t *testing.T, st *store.Store, id, name string, aliases ...string) {
	t.Helper()
	require.NoError(t, st.InsertEntity(&entity.Entity{
		ID: id, Type: entity.TypePerson, CanonicalName: name,
		Aliases: aliases, FirstSeen: time.Now().UTC(),
	}))
}

func addEdge(t *testing.T, st *store.Store, src, dst, typ string, weight float64) int64 {
	t.Helper()
	id, err := st.InsertRelationship(&entity.Relationship{
		SourceID: src, TargetID: dst, Type: typ, Weight: weight,
	})
	require.NoError(t, err)
	return id
}

func TestRunMergesTitleAndCapsVariants(t *testing.T) {
	e, st := newTestEngine(t)

	addPerson(t, st, "PER-00001", "Larry Visoski")
	addPerson(t, st, "PER-00002", "MR. LARRY VISOSKI")
	addPerson(t, st, "PER-00003", "LARRY VISOSKI")
	addPerson(t, st, "PER-00010", "Ghislaine Maxwell")
	addPerson(t, st, "PER-00011", "Sarah Kellen")

	// survivor has the most edges; the duplicates each carry an edge to
	// the same neighbor, which must consolidate after repointing
	addEdge(t, st, "PER-00001", "PER-00010", "traveled_with", 2)
	addEdge(t, st, "PER-00001", "PER-00011", "associate_of", 1)
	addEdge(t, st, "PER-00002", "PER-00010", "traveled_with", 1)

	summary, err := e.Run(false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Merged)
	assert.Zero(t, summary.Errors)

	// the variants are gone
	_, err = st.GetEntity("PER-00002")
	assert.True(t, errors.IsNotFoundError(err))
	_, err = st.GetEntity("PER-00003")
	assert.True(t, errors.IsNotFoundError(err))

	survivor, err := st.GetEntity("PER-00001")
	require.NoError(t, err)
	assert.Equal(t, "Larry Visoski", survivor.CanonicalName)
	assert.True(t, survivor.HasAlias("MR. LARRY VISOSKI"))
	// case variants of the canonical name are not kept as aliases
	assert.False(t, survivor.HasAlias("LARRY VISOSKI"))

	// the duplicate traveled_with edges collapsed into one with summed weight
	rel, err := st.FindRelationship("PER-00001", "PER-00010", "traveled_with")
	require.NoError(t, err)
	assert.Equal(t, 3.0, rel.Weight)

	edges, err := st.RelationshipsTouching("PER-00001")
	require.NoError(t, err)
	assert.Len(t, edges, 2)
	// repointing left no stale endpoints behind
	for _, edge := range edges {
		assert.True(t, edge.Touches("PER-00001"))
	}

	// audit trail records both absorptions, each with every matching reason
	records, err := st.MergesInto("PER-00001")
	require.NoError(t, err)
	require.Len(t, records, 2)
	reasonByName := map[string]string{}
	for _, rec := range records {
		reasonByName[rec.AbsorbedName] = rec.Reason
	}
	assert.Equal(t, "title_prefix; all_caps_variant", reasonByName["MR. LARRY VISOSKI"])
	assert.Equal(t, "all_caps_variant", reasonByName["LARRY VISOSKI"])
}

func TestMergeReasons(t *testing.T) {
	tests := []struct {
		survivor string
		absorbed string
		want     string
	}{
		{"Larry Visoski", "MR. LARRY VISOSKI", "title_prefix; all_caps_variant"},
		{"Larry Visoski", "LARRY VISOSKI", "all_caps_variant"},
		{"Larry Visoski", "Mr. Larry Visoski", "title_prefix"},
		// caps alone are not a signal on names of 3 chars or fewer
		{"J.D. Roberts", "JDR", "cleaned_name_match"},
		// hyphen only counts when the survivor is a spaced multi-word name
		{"Jean Luc Brunel", "Jean-Luc Brunel", "hyphen_normalization"},
		{"Jean-Luc", "Jean-Luc", "cleaned_name_match"},
		{"Sarah Kellen", "Sarah Kellen Vickers", "cleaned_name_match"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mergeReasons(tt.survivor, tt.absorbed), "%s <- %s", tt.survivor, tt.absorbed)
	}
}

func TestRunNoiseDispositionByProminence(t *testing.T) {
	e, st := newTestEngine(t)

	addPerson(t, st, "PER-00001", "Real Person")
	addPerson(t, st, "PER-00002", "Other Person")
	addPerson(t, st, "PER-00003", "Various Individuals") // 0 edges, deleted
	addPerson(t, st, "PER-00004", "Multiple Attendees")  // 2 edges, flagged

	addEdge(t, st, "PER-00004", "PER-00001", "associate_of", 1)
	addEdge(t, st, "PER-00004", "PER-00002", "associate_of", 1)

	summary, err := e.Run(false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NoiseDeleted)
	assert.Equal(t, 1, summary.NoiseFlagged)

	_, err = st.GetEntity("PER-00003")
	assert.True(t, errors.IsNotFoundError(err))

	flagged, err := st.GetEntity("PER-00004")
	require.NoError(t, err)
	assert.True(t, flagged.Metadata.Excluded())

	// the flagged entity keeps its graph intact
	edges, err := st.RelationshipsTouching("PER-00004")
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestRunSurnameOnlyUnambiguous(t *testing.T) {
	e, st := newTestEngine(t)

	addPerson(t, st, "PER-00001", "Paul Cassell")
	addPerson(t, st, "PER-00002", "Mr. Cassell")
	addPerson(t, st, "PER-00003", "Bystander Person")
	addEdge(t, st, "PER-00002", "PER-00003", "associate_of", 1)

	summary, err := e.Run(false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Merged)

	_, err = st.GetEntity("PER-00002")
	assert.True(t, errors.IsNotFoundError(err))

	survivor, err := st.GetEntity("PER-00001")
	require.NoError(t, err)
	assert.True(t, survivor.HasAlias("Mr. Cassell"))

	// the absorbed entity's edge moved to the survivor
	_, err = st.FindRelationship("PER-00001", "PER-00003", "associate_of")
	require.NoError(t, err)
}

func TestRunSurnameOnlyAmbiguityResolution(t *testing.T) {
	e, st := newTestEngine(t)

	// two candidates share the surname; neighbor overlap decides
	addPerson(t, st, "PER-00001", "Carlos Figueroa")
	addPerson(t, st, "PER-00002", "Ana Figueroa")
	addPerson(t, st, "PER-00003", "Mr. Figueroa")
	addPerson(t, st, "PER-00010", "Shared NeighborOne")
	addPerson(t, st, "PER-00011", "Shared NeighborTwo")
	addPerson(t, st, "PER-00012", "Carlos OnlyFriend")
	addPerson(t, st, "PER-00013", "Ana OnlyFriend")

	addEdge(t, st, "PER-00003", "PER-00010", "associate_of", 1)
	addEdge(t, st, "PER-00003", "PER-00011", "associate_of", 1)
	addEdge(t, st, "PER-00001", "PER-00010", "associate_of", 1)
	addEdge(t, st, "PER-00001", "PER-00011", "associate_of", 1)
	addEdge(t, st, "PER-00001", "PER-00012", "associate_of", 1)
	addEdge(t, st, "PER-00002", "PER-00013", "associate_of", 1)

	summary, err := e.Run(false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Merged)

	_, err = st.GetEntity("PER-00003")
	assert.True(t, errors.IsNotFoundError(err))
	survivor, err := st.GetEntity("PER-00001")
	require.NoError(t, err)
	assert.True(t, survivor.HasAlias("Mr. Figueroa"))

	// Ana is untouched
	_, err = st.GetEntity("PER-00002")
	require.NoError(t, err)
}

func TestRunSurnameOnlyLeftUnmergedWithoutSignal(t *testing.T) {
	e, st := newTestEngine(t)

	addPerson(t, st, "PER-00001", "Ghislaine Maxwell")
	addPerson(t, st, "PER-00002", "Robert Maxwell")
	addPerson(t, st, "PER-00003", "Mr. Maxwell") // no edges at all

	summary, err := e.Run(false)
	require.NoError(t, err)
	assert.Zero(t, summary.Merged)

	// better to leave it than to guess
	_, err = st.GetEntity("PER-00003")
	require.NoError(t, err)
}

func TestRunRenamePhase(t *testing.T) {
	e, st := newTestEngine(t)

	addPerson(t, st, "PER-00001", "DR. HEATHER MANN")

	summary, err := e.Run(false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Renamed)

	got, err := st.GetEntity("PER-00001")
	require.NoError(t, err)
	assert.Equal(t, "Heather Mann", got.CanonicalName)
	assert.True(t, got.HasAlias("DR. HEATHER MANN"))

	// idempotent
	summary, err = e.Run(false)
	require.NoError(t, err)
	assert.Zero(t, summary.Renamed)
}

func TestRunDryRunMutatesNothing(t *testing.T) {
	e, st := newTestEngine(t)

	addPerson(t, st, "PER-00001", "Larry Visoski")
	addPerson(t, st, "PER-00002", "MR. LARRY VISOSKI")
	addPerson(t, st, "PER-00003", "Various Individuals")

	summary, err := e.Run(true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Merged)
	assert.Equal(t, 1, summary.NoiseDeleted)

	n, err := st.EntityCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// the lazy audit table was not even created
	merges, err := st.MergeCount()
	require.NoError(t, err)
	assert.Zero(t, merges)
}
