package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/config"
	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/internal/testdb"
	"github.com/805Burner66/ECARE/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Resolver: config.ResolverConfig{FuzzyCutoff: 90, ShortNameCutoff: 95, ShortNameLength: 10},
		Cleanup:  config.CleanupConfig{DocRefCap: 200},
	}
}

func writeRegistry(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persons_registry.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestSeedLoadsPersonsAndSkipsRedactions(t *testing.T) {
	st := store.New(testdb.Open(t), zap.NewNop().Sugar())
	path := writeRegistry(t, `[
		{"name": "Jeffrey Epstein", "slug": "jeffrey-epstein", "aliases": ["Jeff Epstein"], "category": "core", "sources": ["flight_logs"]},
		{"name": "[Redacted]", "slug": "redacted-1", "category": "other"},
		{"name": "Ghislaine Maxwell", "slug": "ghislaine-maxwell", "category": "core"}
	]`)

	stats, err := Seed(st, path, "rhowardstone", zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 1, stats.SkippedRedaction)

	e, err := st.GetEntity("PER-00001")
	require.NoError(t, err)
	assert.Equal(t, "Jeffrey Epstein", e.CanonicalName)
	assert.Equal(t, []string{"Jeff Epstein"}, e.Aliases)
	assert.Equal(t, "core", e.Metadata["category"])

	// nothing is left without an audit trail
	ids, err := st.EntityIDsWithoutResolutions()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSeedFailsOnMissingOrMalformedFile(t *testing.T) {
	st := store.New(testdb.Open(t), zap.NewNop().Sugar())

	_, err := Seed(st, filepath.Join(t.TempDir(), "nope.json"), "x", zap.NewNop().Sugar())
	assert.Error(t, err)

	path := writeRegistry(t, `{"not": "an array"}`)
	_, err = Seed(st, path, "x", zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestSessionResolveOrCreate(t *testing.T) {
	st := store.New(testdb.Open(t), zap.NewNop().Sugar())
	path := writeRegistry(t, `[{"name": "Jeffrey Epstein", "slug": "je", "category": "core"}]`)
	_, err := Seed(st, path, "rhowardstone", zap.NewNop().Sugar())
	require.NoError(t, err)

	sess, err := NewSession(st, testConfig(), "court_docs", zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.RunID())

	// existing entity resolves, no mint
	id, err := sess.ResolveOrCreate("jeffrey epstein", entity.TypePerson, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "PER-00001", id)

	// unknown name mints a new entity visible to later resolutions
	id, err = sess.ResolveOrCreate("Sarah Kellen", entity.TypePerson, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "PER-00002", id)

	again, err := sess.ResolveOrCreate("Sarah Kellen", entity.TypePerson, "doc-3")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	// noise and redaction markers are skipped without error
	id, err = sess.ResolveOrCreate("Various Individuals", entity.TypePerson, "doc-4")
	require.NoError(t, err)
	assert.Empty(t, id)

	id, err = sess.ResolveOrCreate("[Sealed]", entity.TypePerson, "doc-5")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSessionAddRelationshipAccumulates(t *testing.T) {
	st := store.New(testdb.Open(t), zap.NewNop().Sugar())
	path := writeRegistry(t, `[
		{"name": "Jeffrey Epstein", "slug": "je", "category": "core"},
		{"name": "Ghislaine Maxwell", "slug": "gm", "category": "core"}
	]`)
	_, err := Seed(st, path, "rhowardstone", zap.NewNop().Sugar())
	require.NoError(t, err)

	sess, err := NewSession(st, testConfig(), "flight_logs", zap.NewNop().Sugar())
	require.NoError(t, err)

	err = sess.AddRelationship("PER-00001", "PER-00002", "traveled_with", "",
		[]string{"EFTA00000123"},
		&entity.Source{SourceRelID: "flight-1", Confidence: 0.9, EvidenceClass: "primary"})
	require.NoError(t, err)

	// second observation, reversed direction, lands on the same edge
	err = sess.AddRelationship("PER-00002", "PER-00001", "traveled_with", "",
		[]string{"DOJ-OGR-77"},
		&entity.Source{SourceRelID: "flight-2", Confidence: 0.9, EvidenceClass: "primary"})
	require.NoError(t, err)

	rel, err := st.FindRelationship("PER-00001", "PER-00002", "traveled_with")
	require.NoError(t, err)
	assert.Equal(t, 2.0, rel.Weight)
	assert.Equal(t, []string{"EFTA00000123", "DOJ-OGR-00000077"}, rel.Documents)

	n, err := st.SourceCount(rel.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// both references also landed in the document-id mapping table
	doc, err := st.GetDocumentID("EFTA00000123")
	require.NoError(t, err)
	assert.Equal(t, "EFTA00000123", doc.EFTANumber)
	assert.Equal(t, "flight_logs", doc.SourceSystem)

	doc, err = st.GetDocumentID("DOJ-OGR-00000077")
	require.NoError(t, err)
	assert.Equal(t, "DOJ-OGR-00000077", doc.DOJOGRID)
	assert.Equal(t, "DOJ-OGR-77", doc.RawID)
}
