package ingest

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/config"
	"github.com/805Burner66/ECARE/docid"
	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/noise"
	"github.com/805Burner66/ECARE/registry"
	"github.com/805Burner66/ECARE/resolver"
	"github.com/805Burner66/ECARE/store"
)

// Session is one source system's ingestion pass: a registry snapshot, a
// resolver over it, and a run id tying the audit rows together. Sessions
// are single-threaded; resolution of later names depends on entities
// minted for earlier ones.
type Session struct {
	store        *store.Store
	reg          *registry.Registry
	res          *resolver.Resolver
	sourceSystem string
	runID        string
	docRefCap    int
	logger       *zap.SugaredLogger
}

// NewSession snapshots the current canonical registry and prepares a
// resolver over it.
func NewSession(st *store.Store, cfg *config.Config, sourceSystem string, logger *zap.SugaredLogger) (*Session, error) {
	entities, err := st.ListEntities("")
	if err != nil {
		return nil, err
	}
	reg := registry.FromEntities(entities)
	return &Session{
		store: st,
		reg:   reg,
		res: resolver.New(reg, resolver.Options{
			FuzzyCutoff:     cfg.Resolver.FuzzyCutoff,
			ShortNameCutoff: cfg.Resolver.ShortNameCutoff,
			ShortNameLength: cfg.Resolver.ShortNameLength,
		}),
		sourceSystem: sourceSystem,
		runID:        uuid.NewString(),
		docRefCap:    cfg.Cleanup.DocRefCap,
		logger:       logger.Named("ingest").With("source", sourceSystem),
	}, nil
}

// RunID identifies this session in resolution-log details.
func (s *Session) RunID() string { return s.runID }

// ResolveOrCreate maps a raw name to a canonical id, minting a new
// entity when nothing matches. The empty id with a nil error means the
// name was noise or a redaction marker and was deliberately skipped.
// Every non-skip outcome leaves a resolution-log row.
func (s *Session) ResolveOrCreate(rawName string, entityType entity.Type, sourceID string) (string, error) {
	result := s.res.Resolve(rawName)
	switch result.Method {
	case resolver.MethodNoise:
		s.logger.Debugw("skipped noise name", "name", rawName)
		return "", nil

	case resolver.MethodExact, resolver.MethodAlias, resolver.MethodFuzzy:
		if err := s.logResolution(sourceID, rawName, result.ID, result.Method, result.Confidence); err != nil {
			return "", err
		}
		return result.ID, nil
	}

	// no match: mint, unless the name is a redaction marker
	if noise.IsRedactionMarker(rawName) {
		s.logger.Debugw("skipped redaction marker", "name", rawName)
		return "", nil
	}
	id, err := s.store.NextID(entityType)
	if err != nil {
		return "", err
	}
	e := &entity.Entity{ID: id, Type: entityType, CanonicalName: rawName}
	if err := s.store.InsertEntity(e); err != nil {
		return "", err
	}
	if err := s.reg.Add(e); err != nil {
		return "", err
	}
	if err := s.logResolution(sourceID, rawName, id, "new_entity", 1.0); err != nil {
		return "", err
	}
	return id, nil
}

// AddRelationship records one observed edge. An existing edge of the
// same type between the pair (either direction) gains weight and
// document references instead of a duplicate row; either way one
// provenance row is written.
func (s *Session) AddRelationship(sourceID, targetID, relType, subtype string, docRefs []string, src *entity.Source) error {
	canonical := make([]string, 0, len(docRefs))
	for _, ref := range docRefs {
		c := docid.Canonicalize(ref)
		if c == "" {
			continue
		}
		canonical = append(canonical, c)
		if err := s.recordDocumentID(ref, c, src.Confidence); err != nil {
			return err
		}
	}

	existing, err := s.store.FindRelationship(sourceID, targetID, relType)
	var relID int64
	switch {
	case err == nil:
		relID = existing.ID
		if err := s.store.AddRelationshipWeight(relID, 1); err != nil {
			return err
		}
		if len(canonical) > 0 {
			if err := s.store.AppendDocuments(relID, canonical, s.docRefCap); err != nil {
				return err
			}
		}
	case errors.IsNotFoundError(err):
		docid.SortRefs(canonical)
		relID, err = s.store.InsertRelationship(&entity.Relationship{
			SourceID:   sourceID,
			TargetID:   targetID,
			Type:       relType,
			Subtype:    subtype,
			Weight:     1,
			Confidence: src.Confidence,
			Documents:  canonical,
		})
		if err != nil {
			return err
		}
	default:
		return err
	}

	src.RelationshipID = relID
	src.SourceSystem = s.sourceSystem
	return s.store.InsertSource(src)
}

// recordDocumentID keeps the document_ids mapping table current: one row
// per canonical reference, remembering which source spelling produced it.
func (s *Session) recordDocumentID(raw, canonical string, confidence float64) error {
	d := &store.DocumentID{
		Key:          canonical,
		SourceSystem: s.sourceSystem,
		RawID:        raw,
		Confidence:   confidence,
	}
	switch docid.Class(canonical) {
	case docid.ClassEFTA:
		d.EFTANumber = canonical
	case docid.ClassDOJOGR:
		d.DOJOGRID = canonical
	}
	return s.store.UpsertDocumentID(d)
}

func (s *Session) logResolution(sourceID, rawName, canonicalID, method string, confidence float64) error {
	return s.store.LogResolution(&entity.Resolution{
		SourceSystem: s.sourceSystem,
		SourceID:     sourceID,
		SourceName:   rawName,
		CanonicalID:  canonicalID,
		Method:       method,
		Confidence:   confidence,
		Details:      map[string]interface{}{"run_id": s.runID},
	})
}
