package store

import (
	"database/sql"
	"encoding/json"

	"github.com/805Burner66/ECARE/docid"
	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
)

const (
	relationshipSelectColumns = `relationship_id, source_entity_id, target_entity_id, relationship_type,
		relationship_subtype, date_start, date_end, weight, confidence_score, source_documents, notes`

	relationshipInsertQuery = `
		INSERT INTO relationships (source_entity_id, target_entity_id, relationship_type, relationship_subtype,
			date_start, date_end, weight, confidence_score, source_documents, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// an edge matches regardless of direction
	relationshipFindQuery = `
		SELECT ` + relationshipSelectColumns + `
		FROM relationships
		WHERE relationship_type = ?
		  AND ((source_entity_id = ? AND target_entity_id = ?)
		    OR (source_entity_id = ? AND target_entity_id = ?))
		ORDER BY relationship_id
		LIMIT 1`

	sourceInsertQuery = `
		INSERT INTO relationship_sources (relationship_id, source_system, source_relationship_id,
			source_relationship_type, source_evidence, source_confidence, evidence_class, date_added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// FindRelationship looks up an edge of the given type between two
// entities in either direction.
func (s *Store) FindRelationship(sourceID, targetID, relType string) (*entity.Relationship, error) {
	row := s.q.QueryRow(relationshipFindQuery, relType, sourceID, targetID, targetID, sourceID)
	r, err := s.scanRelationship(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("relationship %s-[%s]-%s", sourceID, relType, targetID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find relationship")
	}
	return r, nil
}

// InsertRelationship persists a new edge and returns its id.
func (s *Store) InsertRelationship(r *entity.Relationship) (int64, error) {
	docsJSON, err := json.Marshal(r.Documents)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal source documents")
	}
	res, err := s.q.Exec(relationshipInsertQuery,
		r.SourceID, r.TargetID, r.Type, r.Subtype,
		r.DateStart, r.DateEnd, r.Weight, r.Confidence,
		string(docsJSON), r.Notes)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to insert relationship %s-[%s]-%s", r.SourceID, r.Type, r.TargetID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read inserted relationship id")
	}
	r.ID = id
	return id, nil
}

// AddRelationshipWeight increments an edge's weight by delta.
func (s *Store) AddRelationshipWeight(id int64, delta float64) error {
	_, err := s.q.Exec(
		`UPDATE relationships SET weight = COALESCE(weight, 0) + ? WHERE relationship_id = ?`, delta, id)
	if err != nil {
		return errors.Wrapf(err, "failed to increment weight of relationship %d", id)
	}
	return nil
}

// AppendDocuments unions refs into an edge's document list, keeping the
// canonical sort order and the cap.
func (s *Store) AppendDocuments(id int64, refs []string, limit int) error {
	var raw sql.NullString
	err := s.q.QueryRow(`SELECT source_documents FROM relationships WHERE relationship_id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError("relationship %d", id)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to load documents of relationship %d", id)
	}
	var existing []string
	if raw.Valid && raw.String != "" {
		// tolerate malformed lists the same way entity decodes do
		_ = json.Unmarshal([]byte(raw.String), &existing)
	}
	merged := docid.MergeRefs(existing, refs, limit)
	docsJSON, err := json.Marshal(merged)
	if err != nil {
		return errors.Wrap(err, "failed to marshal merged documents")
	}
	_, err = s.q.Exec(`UPDATE relationships SET source_documents = ? WHERE relationship_id = ?`, string(docsJSON), id)
	if err != nil {
		return errors.Wrapf(err, "failed to update documents of relationship %d", id)
	}
	return nil
}

// SetRelationshipWeightAndDocuments overwrites an edge's weight and
// document list, used by consolidation when collapsing a duplicate group.
func (s *Store) SetRelationshipWeightAndDocuments(id int64, weight float64, docs []string) error {
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return errors.Wrap(err, "failed to marshal documents")
	}
	_, err = s.q.Exec(
		`UPDATE relationships SET weight = ?, source_documents = ? WHERE relationship_id = ?`,
		weight, string(docsJSON), id)
	if err != nil {
		return errors.Wrapf(err, "failed to update relationship %d", id)
	}
	return nil
}

// RelationshipsTouching returns every edge where the entity is source or
// target, ordered by id.
func (s *Store) RelationshipsTouching(entityID string) ([]*entity.Relationship, error) {
	rows, err := s.q.Query(
		`SELECT `+relationshipSelectColumns+`
		 FROM relationships
		 WHERE source_entity_id = ? OR target_entity_id = ?
		 ORDER BY relationship_id`, entityID, entityID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load relationships of %s", entityID)
	}
	defer rows.Close()

	var out []*entity.Relationship
	for rows.Next() {
		r, err := s.scanRelationship(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan relationship row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RepointRelationships rewrites every edge endpoint from one entity id
// to another and returns how many rows changed.
func (s *Store) RepointRelationships(fromID, toID string) (int, error) {
	total := 0
	for _, col := range []string{"source_entity_id", "target_entity_id"} {
		res, err := s.q.Exec(
			`UPDATE relationships SET `+col+` = ? WHERE `+col+` = ?`, toID, fromID)
		if err != nil {
			return total, errors.Wrapf(err, "failed to repoint %s from %s", col, fromID)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
	}
	return total, nil
}

// DeleteSelfEdges removes edges pointing from an entity to itself,
// with their provenance rows, and returns the number of edges removed.
func (s *Store) DeleteSelfEdges(entityID string) (int, error) {
	_, err := s.q.Exec(
		`DELETE FROM relationship_sources WHERE relationship_id IN (
			SELECT relationship_id FROM relationships
			WHERE source_entity_id = ? AND target_entity_id = ?)`, entityID, entityID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete self-edge provenance of %s", entityID)
	}
	res, err := s.q.Exec(
		`DELETE FROM relationships WHERE source_entity_id = ? AND target_entity_id = ?`, entityID, entityID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete self-edges of %s", entityID)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteRelationshipsTouching removes every edge touching an entity and
// all provenance attached to those edges. Used by noise disposition.
func (s *Store) DeleteRelationshipsTouching(entityID string) (int, error) {
	_, err := s.q.Exec(
		`DELETE FROM relationship_sources WHERE relationship_id IN (
			SELECT relationship_id FROM relationships
			WHERE source_entity_id = ? OR target_entity_id = ?)`, entityID, entityID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete provenance of edges touching %s", entityID)
	}
	res, err := s.q.Exec(
		`DELETE FROM relationships WHERE source_entity_id = ? OR target_entity_id = ?`, entityID, entityID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete edges touching %s", entityID)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteRelationship removes one edge row. Provenance reassignment is
// the caller's responsibility.
func (s *Store) DeleteRelationship(id int64) error {
	_, err := s.q.Exec(`DELETE FROM relationships WHERE relationship_id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete relationship %d", id)
	}
	return nil
}

// ReassignSources moves provenance rows from one edge to another and
// returns how many moved.
func (s *Store) ReassignSources(fromRelID, toRelID int64) (int, error) {
	res, err := s.q.Exec(
		`UPDATE relationship_sources SET relationship_id = ? WHERE relationship_id = ?`, toRelID, fromRelID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to reassign sources from relationship %d", fromRelID)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// InsertSource records one provenance row for an edge.
func (s *Store) InsertSource(src *entity.Source) error {
	evidenceJSON, err := json.Marshal(src.Evidence)
	if err != nil {
		return errors.Wrap(err, "failed to marshal evidence")
	}
	_, err = s.q.Exec(sourceInsertQuery,
		src.RelationshipID, src.SourceSystem, src.SourceRelID, src.SourceRelType,
		string(evidenceJSON), src.Confidence, src.EvidenceClass, now())
	if err != nil {
		return errors.Wrapf(err, "failed to insert provenance for relationship %d", src.RelationshipID)
	}
	return nil
}

// SourceCount returns the number of provenance rows attached to an edge.
func (s *Store) SourceCount(relID int64) (int, error) {
	var n int
	if err := s.q.QueryRow(
		`SELECT COUNT(*) FROM relationship_sources WHERE relationship_id = ?`, relID).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "failed to count sources of relationship %d", relID)
	}
	return n, nil
}

// RelationshipCount returns the number of edges.
func (s *Store) RelationshipCount() (int, error) {
	var n int
	if err := s.q.QueryRow(`SELECT COUNT(*) FROM relationships`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count relationships")
	}
	return n, nil
}

func (s *Store) scanRelationship(row rowScanner) (*entity.Relationship, error) {
	var (
		r                           entity.Relationship
		subtype, dateStart, dateEnd sql.NullString
		weight, confidence          sql.NullFloat64
		docsRaw, notes              sql.NullString
	)
	err := row.Scan(&r.ID, &r.SourceID, &r.TargetID, &r.Type,
		&subtype, &dateStart, &dateEnd, &weight, &confidence, &docsRaw, &notes)
	if err != nil {
		return nil, err
	}
	r.Subtype = subtype.String
	r.DateStart = dateStart.String
	r.DateEnd = dateEnd.String
	r.Weight = weight.Float64
	r.Confidence = confidence.Float64
	r.Notes = notes.String
	if docsRaw.Valid && docsRaw.String != "" {
		if err := json.Unmarshal([]byte(docsRaw.String), &r.Documents); err != nil {
			s.logger.Warnw("malformed source_documents payload, using empty", "relationship", r.ID)
		}
	}
	return &r, nil
}
