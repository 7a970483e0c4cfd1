package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
)

const (
	entityInsertQuery = `
		INSERT INTO canonical_entities (canonical_id, entity_type, canonical_name, aliases, metadata, first_seen_date, last_updated, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	entitySelectColumns = `canonical_id, entity_type, canonical_name, aliases, metadata, first_seen_date, last_updated, notes`

	entityNextIDQuery = `
		SELECT COALESCE(MAX(CAST(SUBSTR(canonical_id, ?) AS INTEGER)), 0)
		FROM canonical_entities
		WHERE canonical_id LIKE ? || '-%'`
)

// InsertEntity persists a freshly minted entity. Redaction-marker and
// empty names are the caller's problem to filter; the store only enforces
// structural validity.
func (s *Store) InsertEntity(e *entity.Entity) error {
	if e == nil || strings.TrimSpace(e.CanonicalName) == "" {
		return errors.Wrap(errors.ErrInvalidEntity, "canonical name must be non-empty")
	}
	aliasesJSON, err := json.Marshal(e.Aliases)
	if err != nil {
		return errors.Wrap(err, "failed to marshal aliases")
	}
	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return errors.Wrap(err, "failed to marshal metadata")
	}
	firstSeen := e.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now().UTC()
	}
	_, err = s.q.Exec(entityInsertQuery,
		e.ID, string(e.Type), e.CanonicalName,
		string(aliasesJSON), string(metadataJSON),
		firstSeen.Format(time.RFC3339), now(), e.Notes)
	if err != nil {
		return errors.Wrapf(err, "failed to insert entity %s", e.ID)
	}
	return nil
}

// GetEntity loads one entity by canonical id.
func (s *Store) GetEntity(id string) (*entity.Entity, error) {
	row := s.q.QueryRow(
		`SELECT `+entitySelectColumns+` FROM canonical_entities WHERE canonical_id = ?`, id)
	e, err := s.scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("entity %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load entity %s", id)
	}
	return e, nil
}

// ListEntities returns entities of the given type, or all entities when
// entityType is empty. Order is stable (by canonical id).
func (s *Store) ListEntities(entityType string) ([]*entity.Entity, error) {
	query := `SELECT ` + entitySelectColumns + ` FROM canonical_entities`
	var args []interface{}
	if entityType != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY canonical_id`

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entities")
	}
	defer rows.Close()

	var out []*entity.Entity
	for rows.Next() {
		e, err := s.scanEntity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan entity row")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// NextID mints the next sequential canonical id for a type, formatted as
// PREFIX-00042. Ids are never reused: the counter is the max existing
// suffix, which survives deletions.
func (s *Store) NextID(t entity.Type) (string, error) {
	prefix := t.IDPrefix()
	var max int
	err := s.q.QueryRow(entityNextIDQuery, len(prefix)+2, prefix).Scan(&max)
	if err != nil {
		return "", errors.Wrapf(err, "failed to compute next id for prefix %s", prefix)
	}
	return fmt.Sprintf("%s-%05d", prefix, max+1), nil
}

// RenameEntity updates the canonical name in place.
func (s *Store) RenameEntity(id, name string) error {
	return s.execAffectingEntity(id,
		`UPDATE canonical_entities SET canonical_name = ?, last_updated = ? WHERE canonical_id = ?`,
		name, now(), id)
}

// UpdateAliases replaces the alias list.
func (s *Store) UpdateAliases(id string, aliases []string) error {
	aliasesJSON, err := json.Marshal(aliases)
	if err != nil {
		return errors.Wrap(err, "failed to marshal aliases")
	}
	return s.execAffectingEntity(id,
		`UPDATE canonical_entities SET aliases = ?, last_updated = ? WHERE canonical_id = ?`,
		string(aliasesJSON), now(), id)
}

// UpdateMetadata replaces the metadata map.
func (s *Store) UpdateMetadata(id string, md entity.Metadata) error {
	metadataJSON, err := json.Marshal(md)
	if err != nil {
		return errors.Wrap(err, "failed to marshal metadata")
	}
	return s.execAffectingEntity(id,
		`UPDATE canonical_entities SET metadata = ?, last_updated = ? WHERE canonical_id = ?`,
		string(metadataJSON), now(), id)
}

// DeleteEntity removes the entity row only. Edges, provenance and log
// rows are handled by the caller so each disposition path controls its
// own cascade.
func (s *Store) DeleteEntity(id string) error {
	_, err := s.q.Exec(`DELETE FROM canonical_entities WHERE canonical_id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete entity %s", id)
	}
	return nil
}

// EntityCount returns the number of canonical entities.
func (s *Store) EntityCount() (int, error) {
	var n int
	if err := s.q.QueryRow(`SELECT COUNT(*) FROM canonical_entities`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count entities")
	}
	return n, nil
}

func (s *Store) execAffectingEntity(id, query string, args ...interface{}) error {
	res, err := s.q.Exec(query, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to update entity %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("entity %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntity decodes one canonical_entities row. Malformed JSON columns
// decode to empty values rather than failing the whole scan; bad rows
// written by earlier pipeline versions must not brick reads, but they
// are worth a warning.
func (s *Store) scanEntity(row rowScanner) (*entity.Entity, error) {
	var (
		e                   entity.Entity
		typ                 string
		aliasesRaw, metaRaw sql.NullString
		firstSeen, lastSeen sql.NullString
		notes               sql.NullString
	)
	err := row.Scan(&e.ID, &typ, &e.CanonicalName, &aliasesRaw, &metaRaw, &firstSeen, &lastSeen, &notes)
	if err != nil {
		return nil, err
	}
	e.Type = entity.Type(typ)
	var ok bool
	if e.Aliases, ok = entity.DecodeAliases([]byte(aliasesRaw.String)); !ok {
		s.logger.Warnw("malformed aliases payload, using empty", "entity", e.ID)
	}
	if e.Metadata, ok = entity.DecodeMetadata([]byte(metaRaw.String)); !ok {
		s.logger.Warnw("malformed metadata payload, using empty", "entity", e.ID)
	}
	e.Notes = notes.String
	if firstSeen.Valid {
		if t, err := time.Parse(time.RFC3339, firstSeen.String); err == nil {
			e.FirstSeen = t
		}
	}
	if lastSeen.Valid {
		if t, err := time.Parse(time.RFC3339, lastSeen.String); err == nil {
			e.LastUpdated = t
		}
	}
	return &e, nil
}
