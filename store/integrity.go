package store

import (
	"strings"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
)

// DuplicateNameGroup is a set of canonical ids sharing a (type, lowercase
// name) key. Ingestion favors precision, so a few of these are expected
// between cleanup runs; many of them means the resolver is misbehaving.
type DuplicateNameGroup struct {
	EntityType string
	Name       string
	IDs        []string
}

// OrphanedRelationships lists edges referencing a canonical id that no
// longer exists on either end.
func (s *Store) OrphanedRelationships() ([]*entity.Relationship, error) {
	rows, err := s.q.Query(`
		SELECT ` + relationshipSelectColumns + `
		FROM relationships r
		WHERE NOT EXISTS (SELECT 1 FROM canonical_entities e WHERE e.canonical_id = r.source_entity_id)
		   OR NOT EXISTS (SELECT 1 FROM canonical_entities e WHERE e.canonical_id = r.target_entity_id)
		ORDER BY relationship_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query orphaned relationships")
	}
	defer rows.Close()

	var out []*entity.Relationship
	for rows.Next() {
		r, err := s.scanRelationship(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan orphaned relationship")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DuplicateNameGroups lists exact (type, lowercase name) duplicates.
func (s *Store) DuplicateNameGroups() ([]DuplicateNameGroup, error) {
	rows, err := s.q.Query(`
		SELECT entity_type, LOWER(canonical_name), GROUP_CONCAT(canonical_id)
		FROM canonical_entities
		GROUP BY entity_type, LOWER(canonical_name)
		HAVING COUNT(*) > 1
		ORDER BY entity_type, LOWER(canonical_name)`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query duplicate names")
	}
	defer rows.Close()

	var out []DuplicateNameGroup
	for rows.Next() {
		var g DuplicateNameGroup
		var ids string
		if err := rows.Scan(&g.EntityType, &g.Name, &ids); err != nil {
			return nil, errors.Wrap(err, "failed to scan duplicate group")
		}
		g.IDs = splitIDs(ids)
		out = append(out, g)
	}
	return out, rows.Err()
}

// MultiSourceRelationshipCount counts edges corroborated by at least
// minSources distinct source systems.
func (s *Store) MultiSourceRelationshipCount(minSources int) (int, error) {
	var n int
	err := s.q.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT relationship_id
			FROM relationship_sources
			GROUP BY relationship_id
			HAVING COUNT(DISTINCT source_system) >= ?
		)`, minSources).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count corroborated relationships")
	}
	return n, nil
}

func splitIDs(concat string) []string {
	var out []string
	for _, id := range strings.Split(concat, ",") {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
