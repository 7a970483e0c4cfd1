package store

import (
	"encoding/json"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
)

const resolutionInsertQuery = `
	INSERT INTO entity_resolution_log (source_system, source_entity_id, source_entity_name,
		canonical_id, match_method, match_confidence, match_details, resolved_by, resolved_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// LogResolution appends one audit row recording how a raw name was
// mapped to a canonical id.
func (s *Store) LogResolution(res *entity.Resolution) error {
	detailsJSON, err := json.Marshal(res.Details)
	if err != nil {
		return errors.Wrap(err, "failed to marshal match details")
	}
	resolvedBy := res.ResolvedBy
	if resolvedBy == "" {
		resolvedBy = "pipeline"
	}
	_, err = s.q.Exec(resolutionInsertQuery,
		res.SourceSystem, res.SourceID, res.SourceName,
		res.CanonicalID, res.Method, res.Confidence,
		string(detailsJSON), resolvedBy, now())
	if err != nil {
		return errors.Wrapf(err, "failed to log resolution of %q", res.SourceName)
	}
	return nil
}

// RepointResolutions rewrites log rows from one canonical id to another
// and returns how many rows changed.
func (s *Store) RepointResolutions(fromID, toID string) (int, error) {
	res, err := s.q.Exec(
		`UPDATE entity_resolution_log SET canonical_id = ? WHERE canonical_id = ?`, toID, fromID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to repoint resolution log from %s", fromID)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteResolutionsFor removes all log rows for a canonical id. Used
// when a noise entity is deleted outright.
func (s *Store) DeleteResolutionsFor(id string) error {
	_, err := s.q.Exec(`DELETE FROM entity_resolution_log WHERE canonical_id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete resolution log of %s", id)
	}
	return nil
}

// EntityIDsWithoutResolutions lists canonical ids with no resolution-log
// rows at all. Every properly ingested entity has at least one.
func (s *Store) EntityIDsWithoutResolutions() ([]string, error) {
	rows, err := s.q.Query(`
		SELECT e.canonical_id FROM canonical_entities e
		LEFT JOIN entity_resolution_log l ON l.canonical_id = e.canonical_id
		WHERE l.resolution_id IS NULL
		ORDER BY e.canonical_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query unresolved entities")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan canonical id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LowConfidenceResolutions lists fuzzy-method log rows below the given
// confidence, for manual review.
func (s *Store) LowConfidenceResolutions(below float64) ([]entity.Resolution, error) {
	rows, err := s.q.Query(`
		SELECT resolution_id, source_system, source_entity_name, canonical_id, match_method, match_confidence
		FROM entity_resolution_log
		WHERE match_method = 'fuzzy' AND match_confidence < ?
		ORDER BY match_confidence`, below)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query low-confidence resolutions")
	}
	defer rows.Close()

	var out []entity.Resolution
	for rows.Next() {
		var r entity.Resolution
		if err := rows.Scan(&r.ID, &r.SourceSystem, &r.SourceName, &r.CanonicalID, &r.Method, &r.Confidence); err != nil {
			return nil, errors.Wrap(err, "failed to scan resolution row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
