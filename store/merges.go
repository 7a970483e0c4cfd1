package store

import (
	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
)

// entity_merges is not part of the core migrations: databases predating
// the cleanup engine gain it the first time a cleanup runs.
const mergeLogSchema = `
	CREATE TABLE IF NOT EXISTS entity_merges (
		merge_id INTEGER PRIMARY KEY AUTOINCREMENT,
		survivor_id TEXT NOT NULL,
		absorbed_id TEXT NOT NULL,
		survivor_name TEXT,
		absorbed_name TEXT,
		reason TEXT,
		match_key TEXT,
		relationships_repointed INTEGER DEFAULT 0,
		logs_repointed INTEGER DEFAULT 0,
		duplicates_consolidated INTEGER DEFAULT 0,
		merged_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_merges_survivor ON entity_merges(survivor_id);
	CREATE INDEX IF NOT EXISTS idx_merges_absorbed ON entity_merges(absorbed_id);`

const mergeInsertQuery = `
	INSERT INTO entity_merges (survivor_id, absorbed_id, survivor_name, absorbed_name,
		reason, match_key, relationships_repointed, logs_repointed, duplicates_consolidated, merged_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// EnsureMergeLog creates the entity_merges audit table if absent.
func (s *Store) EnsureMergeLog() error {
	if _, err := s.q.Exec(mergeLogSchema); err != nil {
		return errors.Wrap(err, "failed to ensure entity_merges table")
	}
	return nil
}

// RecordMerge appends one merge audit row.
func (s *Store) RecordMerge(rec *entity.MergeRecord) error {
	_, err := s.q.Exec(mergeInsertQuery,
		rec.SurvivorID, rec.AbsorbedID, rec.SurvivorName, rec.AbsorbedName,
		rec.Reason, rec.MatchKey,
		rec.RelationshipsRepointed, rec.LogsRepointed, rec.DuplicatesConsolidated, now())
	if err != nil {
		return errors.Wrapf(err, "failed to record merge %s <- %s", rec.SurvivorID, rec.AbsorbedID)
	}
	return nil
}

// MergesInto lists the audit rows recorded for one survivor, oldest
// first.
func (s *Store) MergesInto(survivorID string) ([]*entity.MergeRecord, error) {
	rows, err := s.q.Query(`
		SELECT survivor_id, absorbed_id, survivor_name, absorbed_name,
			reason, match_key, relationships_repointed, logs_repointed, duplicates_consolidated
		FROM entity_merges WHERE survivor_id = ? ORDER BY merge_id`, survivorID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load merges into %s", survivorID)
	}
	defer rows.Close()

	var records []*entity.MergeRecord
	for rows.Next() {
		var rec entity.MergeRecord
		if err := rows.Scan(&rec.SurvivorID, &rec.AbsorbedID, &rec.SurvivorName, &rec.AbsorbedName,
			&rec.Reason, &rec.MatchKey,
			&rec.RelationshipsRepointed, &rec.LogsRepointed, &rec.DuplicatesConsolidated); err != nil {
			return nil, errors.Wrap(err, "failed to scan merge record")
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// MergeCount returns the number of audit rows, or 0 when the table has
// never been created.
func (s *Store) MergeCount() (int, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM entity_merges`).Scan(&n)
	if err != nil {
		// table may legitimately not exist yet
		return 0, nil
	}
	return n, nil
}
