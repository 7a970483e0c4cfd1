package store

import (
	"database/sql"

	"github.com/805Burner66/ECARE/errors"
)

// DocumentID is one row of the document_ids mapping table, linking a
// canonical document key to its source-system spellings.
type DocumentID struct {
	Key          string
	EFTANumber   string
	DOJOGRID     string
	SourceSystem string
	RawID        string
	Confidence   float64
	Notes        string
}

// UpsertDocumentID inserts or refreshes one document-id mapping row.
func (s *Store) UpsertDocumentID(d *DocumentID) error {
	_, err := s.q.Exec(`
		INSERT INTO document_ids (doc_key, efta_number, doj_ogr_id, source_system, raw_id, confidence, notes, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_key) DO UPDATE SET
			efta_number = COALESCE(NULLIF(excluded.efta_number, ''), efta_number),
			doj_ogr_id = COALESCE(NULLIF(excluded.doj_ogr_id, ''), doj_ogr_id),
			source_system = excluded.source_system,
			raw_id = COALESCE(NULLIF(excluded.raw_id, ''), raw_id),
			confidence = MAX(COALESCE(confidence, 0), excluded.confidence),
			last_updated = excluded.last_updated`,
		d.Key, d.EFTANumber, d.DOJOGRID, d.SourceSystem, d.RawID, d.Confidence, d.Notes, now())
	if err != nil {
		return errors.Wrapf(err, "failed to upsert document id %s", d.Key)
	}
	return nil
}

// GetDocumentID loads one document-id mapping row by canonical key.
func (s *Store) GetDocumentID(key string) (*DocumentID, error) {
	var (
		d                   DocumentID
		efta, ogr, sys, raw sql.NullString
		confidence          sql.NullFloat64
		notes               sql.NullString
	)
	err := s.q.QueryRow(`
		SELECT doc_key, efta_number, doj_ogr_id, source_system, raw_id, confidence, notes
		FROM document_ids WHERE doc_key = ?`, key).
		Scan(&d.Key, &efta, &ogr, &sys, &raw, &confidence, &notes)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("document id %s", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load document id %s", key)
	}
	d.EFTANumber, d.DOJOGRID, d.SourceSystem = efta.String, ogr.String, sys.String
	d.RawID, d.Confidence, d.Notes = raw.String, confidence.Float64, notes.String
	return &d, nil
}

// StartRun opens a pipeline_runs bookkeeping row and returns its id.
func (s *Store) StartRun(stepName string) (int64, error) {
	res, err := s.q.Exec(
		`INSERT INTO pipeline_runs (step_name, started_at, status) VALUES (?, ?, 'running')`,
		stepName, now())
	if err != nil {
		return 0, errors.Wrapf(err, "failed to start pipeline run %s", stepName)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read pipeline run id")
	}
	return id, nil
}

// FinishRun closes a pipeline_runs row with a final status.
func (s *Store) FinishRun(runID int64, status string, recordsProcessed int, notes string) error {
	_, err := s.q.Exec(`
		UPDATE pipeline_runs
		SET completed_at = ?, status = ?, records_processed = ?, notes = ?
		WHERE run_id = ?`,
		now(), status, recordsProcessed, notes, runID)
	if err != nil {
		return errors.Wrapf(err, "failed to finish pipeline run %d", runID)
	}
	return nil
}
