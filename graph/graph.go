// Package graph performs relationship-graph analysis for the cleanup
// engine: neighbor sets, prominence, Jaccard overlap and duplicate-edge
// consolidation.
package graph

import (
	"sort"

	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/docid"
	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/store"
)

// Graph answers structural queries against the persisted relationship
// table. It holds no state of its own.
type Graph struct {
	store     *store.Store
	docRefCap int
	logger    *zap.SugaredLogger
}

func New(st *store.Store, docRefCap int, logger *zap.SugaredLogger) *Graph {
	return &Graph{
		store:     st,
		docRefCap: docRefCap,
		logger:    logger.Named("graph"),
	}
}

// NeighborIDs returns the set of entity ids directly connected to id.
// Self-edges do not make an entity its own neighbor.
func (g *Graph) NeighborIDs(id string) (map[string]struct{}, error) {
	edges, err := g.store.RelationshipsTouching(id)
	if err != nil {
		return nil, err
	}
	neighbors := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if e.SourceID != id {
			neighbors[e.SourceID] = struct{}{}
		}
		if e.TargetID != id {
			neighbors[e.TargetID] = struct{}{}
		}
	}
	return neighbors, nil
}

// Prominence is the number of relationship edges touching an entity.
func (g *Graph) Prominence(id string) (int, error) {
	edges, err := g.store.RelationshipsTouching(id)
	if err != nil {
		return 0, err
	}
	return len(edges), nil
}

// Jaccard is |a ∩ b| / |a ∪ b| over two neighbor-id sets. Two empty
// sets score 0, not 1: entities with no graph presence carry no
// disambiguation signal.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for id := range a {
		if _, ok := b[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Consolidate collapses duplicate edges around one entity: edges sharing
// an unordered (pair, type) key are merged into the highest-weight edge
// (lowest id on ties), which takes the summed weight and the unioned
// document list; loser provenance is reassigned to the survivor before
// the losers are deleted. Idempotent. Returns the number of edges
// removed.
func (g *Graph) Consolidate(id string) (int, error) {
	edges, err := g.store.RelationshipsTouching(id)
	if err != nil {
		return 0, err
	}

	groups := make(map[[3]string][]*entity.Relationship)
	for _, e := range edges {
		key := e.PairKey()
		groups[key] = append(groups[key], e)
	}

	removed := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].Weight != group[j].Weight {
				return group[i].Weight > group[j].Weight
			}
			return group[i].ID < group[j].ID
		})
		survivor := group[0]

		weight := survivor.Weight
		docs := survivor.Documents
		for _, loser := range group[1:] {
			weight += loser.Weight
			docs = docid.MergeRefs(docs, loser.Documents, g.docRefCap)
			if _, err := g.store.ReassignSources(loser.ID, survivor.ID); err != nil {
				return removed, err
			}
			if err := g.store.DeleteRelationship(loser.ID); err != nil {
				return removed, err
			}
			removed++
		}
		if err := g.store.SetRelationshipWeightAndDocuments(survivor.ID, weight, docs); err != nil {
			return removed, err
		}
	}
	if removed > 0 {
		g.logger.Debugw("consolidated duplicate edges", "entity", id, "removed", removed)
	}
	return removed, nil
}
