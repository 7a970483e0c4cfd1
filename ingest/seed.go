// Package ingest loads source datasets into the canonical store. Seed
// establishes the base person registry; Session is the harness every
// later source ingester runs through: resolve, mint on miss, attach
// edges and provenance.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/noise"
	"github.com/805Burner66/ECARE/store"
)

// seedPerson is one row of a persons registry JSON file.
type seedPerson struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Aliases     []string `json:"aliases"`
	Category    string   `json:"category"`
	Sources     []string `json:"sources"`
	SearchTerms []string `json:"search_terms"`
}

// SeedStats reports what a seed load did.
type SeedStats struct {
	Loaded           int
	SkippedRedaction int
}

// Seed loads a persons registry JSON file as the canonical base. Every
// loaded person gets a base_registry resolution-log row at confidence
// 1.0: the registry is not matched against anything, it IS the source.
// Redaction markers never become canonical entities.
func Seed(st *store.Store, path, sourceSystem string, logger *zap.SugaredLogger) (*SeedStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read registry file %s", path)
	}
	var persons []seedPerson
	if err := json.Unmarshal(raw, &persons); err != nil {
		return nil, errors.Wrapf(err, "failed to parse registry file %s", path)
	}

	runID, err := st.StartRun("seed:" + sourceSystem)
	if err != nil {
		return nil, err
	}

	stats := &SeedStats{}
	err = st.WithTx(func(tx *store.Store) error {
		counter := 0
		for _, p := range persons {
			name := strings.TrimSpace(p.Name)
			if name == "" {
				continue
			}
			if noise.IsRedactionMarker(name) {
				stats.SkippedRedaction++
				continue
			}
			counter++
			id := fmt.Sprintf("%s-%05d", entity.TypePerson.IDPrefix(), counter)

			md := entity.Metadata{
				"category":         p.Category,
				"registry_sources": p.Sources,
			}
			if len(p.SearchTerms) > 0 && !(len(p.SearchTerms) == 1 && p.SearchTerms[0] == name) {
				md["search_terms"] = p.SearchTerms
			}

			e := &entity.Entity{
				ID:            id,
				Type:          entity.TypePerson,
				CanonicalName: name,
				Metadata:      md,
			}
			for _, alias := range p.Aliases {
				e.AddAlias(alias)
			}
			if err := tx.InsertEntity(e); err != nil {
				return err
			}
			if err := tx.LogResolution(&entity.Resolution{
				SourceSystem: sourceSystem,
				SourceID:     "registry:" + p.Slug,
				SourceName:   name,
				CanonicalID:  id,
				Method:       "base_registry",
				Confidence:   1.0,
				Details:      map[string]interface{}{"category": p.Category},
			}); err != nil {
				return err
			}
			stats.Loaded++
		}
		return nil
	})
	if err != nil {
		if finishErr := st.FinishRun(runID, "failed", stats.Loaded, err.Error()); finishErr != nil {
			logger.Errorw("failed to close pipeline run", "run", runID, "error", finishErr)
		}
		return stats, err
	}

	if err := st.FinishRun(runID, "completed", stats.Loaded, ""); err != nil {
		return stats, err
	}
	logger.Infow("seeded base registry",
		"source", sourceSystem, "loaded", stats.Loaded, "skipped_redaction", stats.SkippedRedaction)
	return stats, nil
}
