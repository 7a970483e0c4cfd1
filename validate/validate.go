// Package validate produces a read-only integrity report over the
// canonical store. It warns, it never repairs: every finding is either
// input for the cleanup engine or a bug to chase upstream.
package validate

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/store"
)

// Review-queue tuning. Subsequence hits further apart than this many
// edits are noise, not candidate duplicates.
const maxReviewDistance = 4

// lowConfidenceFloor marks fuzzy resolutions worth a human look.
const lowConfidenceFloor = 0.92

// ReviewCandidate is a pair of canonical names close enough to be the
// same entity spelled twice.
type ReviewCandidate struct {
	IDA, NameA string
	IDB, NameB string
	Distance   int
}

// Report is the outcome of one validation pass.
type Report struct {
	Entities         int
	Relationships    int
	OrphanedEdges    []*entity.Relationship
	DuplicateNames   []store.DuplicateNameGroup
	Unresolved       []string
	LowConfidence    []entity.Resolution
	ReviewQueue      []ReviewCandidate
	MultiSourceEdges int
}

// Clean reports whether the structural checks all passed. Review-queue
// and low-confidence findings are advisory and do not count.
func (r *Report) Clean() bool {
	return len(r.OrphanedEdges) == 0 && len(r.DuplicateNames) == 0 && len(r.Unresolved) == 0
}

// Run executes every check against the store.
func Run(st *store.Store, logger *zap.SugaredLogger) (*Report, error) {
	log := logger.Named("validate")
	report := &Report{}

	var err error
	if report.Entities, err = st.EntityCount(); err != nil {
		return nil, err
	}
	if report.Relationships, err = st.RelationshipCount(); err != nil {
		return nil, err
	}
	if report.OrphanedEdges, err = st.OrphanedRelationships(); err != nil {
		return nil, err
	}
	if report.DuplicateNames, err = st.DuplicateNameGroups(); err != nil {
		return nil, err
	}
	if report.Unresolved, err = st.EntityIDsWithoutResolutions(); err != nil {
		return nil, err
	}
	if report.LowConfidence, err = st.LowConfidenceResolutions(lowConfidenceFloor); err != nil {
		return nil, err
	}
	if report.MultiSourceEdges, err = st.MultiSourceRelationshipCount(2); err != nil {
		return nil, err
	}

	entities, err := st.ListEntities("")
	if err != nil {
		return nil, err
	}
	report.ReviewQueue = reviewQueue(entities)

	log.Infow("validation pass complete",
		"entities", report.Entities,
		"orphaned", len(report.OrphanedEdges),
		"duplicates", len(report.DuplicateNames),
		"unresolved", len(report.Unresolved),
		"review", len(report.ReviewQueue))
	return report, nil
}

// reviewQueue finds near-duplicate canonical names: one name a fuzzy
// subsequence of another within a small edit distance. Exact duplicates
// are reported separately; this catches "Jeffrey Epstein" inside
// "Jeffrey E. Epstein".
func reviewQueue(entities []*entity.Entity) []ReviewCandidate {
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.CanonicalName
	}

	var queue []ReviewCandidate
	seen := make(map[[2]string]struct{})
	for i, e := range entities {
		for _, rank := range fuzzy.RankFindNormalizedFold(e.CanonicalName, names) {
			j := rank.OriginalIndex
			if j == i || rank.Distance <= 0 || rank.Distance > maxReviewDistance {
				continue
			}
			other := entities[j]
			if e.Type != other.Type || strings.EqualFold(e.CanonicalName, other.CanonicalName) {
				continue
			}
			key := [2]string{e.ID, other.ID}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			queue = append(queue, ReviewCandidate{
				IDA: e.ID, NameA: e.CanonicalName,
				IDB: other.ID, NameB: other.CanonicalName,
				Distance: rank.Distance,
			})
		}
	}
	return queue
}

// Print renders the report for the CLI.
func (r *Report) Print() {
	pterm.Printf("Entities: %d   Relationships: %d   Multi-source edges: %d\n",
		r.Entities, r.Relationships, r.MultiSourceEdges)

	if len(r.OrphanedEdges) > 0 {
		pterm.Warning.Printf("Orphaned edges: %d\n", len(r.OrphanedEdges))
		for _, e := range r.OrphanedEdges {
			pterm.Printf("  #%d %s %s %s\n", e.ID, e.SourceID, pterm.Gray(e.Type), e.TargetID)
		}
	}
	if len(r.DuplicateNames) > 0 {
		pterm.Warning.Printf("Exact duplicate names: %d\n", len(r.DuplicateNames))
		for _, g := range r.DuplicateNames {
			pterm.Printf("  %s %q: %s\n", g.EntityType, g.Name, strings.Join(g.IDs, ", "))
		}
	}
	if len(r.Unresolved) > 0 {
		pterm.Warning.Printf("Entities with no resolution log: %d\n", len(r.Unresolved))
	}
	if len(r.LowConfidence) > 0 {
		pterm.Info.Printf("Low-confidence fuzzy resolutions: %d\n", len(r.LowConfidence))
		for _, res := range r.LowConfidence {
			pterm.Printf("  %.2f %q -> %s (%s)\n", res.Confidence, res.SourceName, res.CanonicalID, res.SourceSystem)
		}
	}
	if len(r.ReviewQueue) > 0 {
		pterm.Info.Printf("Near-duplicate names for review: %d\n", len(r.ReviewQueue))
		for _, c := range r.ReviewQueue {
			pterm.Printf("  %s %q ~ %s %q (distance %d)\n", c.IDA, c.NameA, c.IDB, c.NameB, c.Distance)
		}
	}

	if r.Clean() {
		pterm.Success.Println("Store is structurally consistent")
	} else {
		pterm.Warning.Println("Structural problems found")
	}
}
