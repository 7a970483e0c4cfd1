package merge

import (
	"github.com/pterm/pterm"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/noise"
	"github.com/805Burner66/ECARE/store"
)

// runNoisePhase classifies every unflagged entity with the expanded
// noise rules. Low-prominence noise is deleted with its full graph
// footprint; entangled noise is flagged excluded_from_analysis and the
// graph left intact.
func (e *Engine) runNoisePhase(summary *Summary, dryRun bool) error {
	entities, err := e.store.ListEntities("")
	if err != nil {
		return err
	}
	g := e.graphFor(e.store)

	type disposition struct {
		ent        *entity.Entity
		reason     string
		prominence int
	}
	var deletions, flags []disposition

	for _, ent := range entities {
		if ent.Metadata.Excluded() {
			continue
		}
		reason, noisy := noise.Classify(ent.CanonicalName)
		if !noisy {
			continue
		}
		prominence, err := g.Prominence(ent.ID)
		if err != nil {
			e.logger.Errorw("prominence lookup failed", "entity", ent.ID, "error", err)
			summary.Errors++
			continue
		}
		d := disposition{ent: ent, reason: reason, prominence: prominence}
		if prominence <= e.cfg.ProminenceThreshold {
			deletions = append(deletions, d)
		} else {
			flags = append(flags, d)
		}
	}

	if dryRun {
		for _, d := range deletions {
			pterm.Printf("  would delete %s %s (%s, %d edges)\n",
				pterm.Gray(d.ent.ID), pterm.Red(d.ent.CanonicalName), d.reason, d.prominence)
			// later phases must preview against the post-deletion world
			e.gone[d.ent.ID] = struct{}{}
		}
		for _, d := range flags {
			pterm.Printf("  would flag   %s %s (%s, %d edges)\n",
				pterm.Gray(d.ent.ID), pterm.Yellow(d.ent.CanonicalName), d.reason, d.prominence)
			e.flagged[d.ent.ID] = struct{}{}
		}
		summary.NoiseDeleted = len(deletions)
		summary.NoiseFlagged = len(flags)
		return nil
	}

	return e.store.WithTx(func(tx *store.Store) error {
		for _, d := range deletions {
			if err := deleteNoiseEntity(tx, d.ent, d.reason); err != nil {
				return err
			}
			e.gone[d.ent.ID] = struct{}{}
			summary.NoiseDeleted++
			e.logger.Infow("deleted noise entity",
				"entity", d.ent.ID, "name", d.ent.CanonicalName, "reason", d.reason)
		}
		for _, d := range flags {
			md := d.ent.Metadata
			if md == nil {
				md = entity.Metadata{}
			}
			md.Exclude(d.reason)
			if err := tx.UpdateMetadata(d.ent.ID, md); err != nil {
				return err
			}
			e.flagged[d.ent.ID] = struct{}{}
			summary.NoiseFlagged++
			e.logger.Infow("flagged entangled noise entity",
				"entity", d.ent.ID, "name", d.ent.CanonicalName,
				"reason", d.reason, "prominence", d.prominence)
		}
		return nil
	})
}

// deleteNoiseEntity removes an entity with every edge, provenance and
// log row touching it, and leaves one audit record behind.
func deleteNoiseEntity(tx *store.Store, ent *entity.Entity, reason string) error {
	edges, err := tx.DeleteRelationshipsTouching(ent.ID)
	if err != nil {
		return err
	}
	if err := tx.DeleteResolutionsFor(ent.ID); err != nil {
		return err
	}
	if err := tx.DeleteEntity(ent.ID); err != nil {
		return err
	}
	return tx.RecordMerge(&entity.MergeRecord{
		SurvivorID:             entity.NoiseDeletedSurvivor,
		AbsorbedID:             ent.ID,
		SurvivorName:           "",
		AbsorbedName:           ent.CanonicalName,
		Reason:                 reason,
		RelationshipsRepointed: edges,
	})
}
