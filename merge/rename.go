package merge

import (
	"github.com/pterm/pterm"

	"github.com/805Burner66/ECARE/normalize"
	"github.com/805Burner66/ECARE/store"
)

// runRenamePhase derives a cleaned display name for every surviving
// entity and renames in place when it differs, keeping the old spelling
// as an alias. Never merges, never deletes; running it twice changes
// nothing.
func (e *Engine) runRenamePhase(summary *Summary, dryRun bool) error {
	entities, err := e.store.ListEntities("")
	if err != nil {
		return err
	}

	renames := entities[:0]
	for _, ent := range entities {
		if e.isGone(ent.ID) {
			continue
		}
		if cleaned := normalize.CleanDisplayName(ent.CanonicalName); cleaned != "" && cleaned != ent.CanonicalName {
			renames = append(renames, ent)
		}
	}

	if dryRun {
		for _, ent := range renames {
			pterm.Printf("  would rename %s %s -> %s\n",
				pterm.Gray(ent.ID), pterm.Red(ent.CanonicalName),
				pterm.Green(normalize.CleanDisplayName(ent.CanonicalName)))
		}
		summary.Renamed = len(renames)
		return nil
	}

	return e.store.WithTx(func(tx *store.Store) error {
		for _, ent := range renames {
			cleaned := normalize.CleanDisplayName(ent.CanonicalName)
			oldName := ent.CanonicalName
			if err := tx.RenameEntity(ent.ID, cleaned); err != nil {
				return err
			}
			ent.CanonicalName = cleaned
			if ent.AddAlias(oldName) {
				if err := tx.UpdateAliases(ent.ID, ent.Aliases); err != nil {
					return err
				}
			}
			summary.Renamed++
			e.logger.Infow("cleaned display name",
				"entity", ent.ID, "old", oldName, "new", cleaned)
		}
		return nil
	})
}
