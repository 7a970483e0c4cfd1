package merge

import (
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/graph"
	"github.com/805Burner66/ECARE/normalize"
	"github.com/805Burner66/ECARE/store"
)

// Merge reason codes recorded in the audit log.
const (
	ReasonTitlePrefix    = "title_prefix"
	ReasonAllCapsVariant = "all_caps_variant"
	ReasonHyphen         = "hyphen_normalization"
	ReasonCleanedName    = "cleaned_name_match"
	ReasonSurname        = "lastname_only_unambiguous"
	ReasonSurnameByGraph = "lastname_only_graph_disambiguated"
)

// runDuplicatePhase clusters the person registry twice: pass 1 groups by
// aggressive cleaned-name key, pass 2 resolves surname-only leftovers
// against full names, using neighbor overlap when the surname is shared.
func (e *Engine) runDuplicatePhase(summary *Summary, dryRun bool) error {
	if err := e.mergeByCleanedName(summary, dryRun); err != nil {
		return err
	}
	return e.mergeSurnameOnly(summary, dryRun)
}

func (e *Engine) mergeByCleanedName(summary *Summary, dryRun bool) error {
	persons, err := e.liveEntities(string(entity.TypePerson))
	if err != nil {
		return err
	}

	byID := make(map[string]*entity.Entity, len(persons))
	groups := make(map[string][]string)
	for _, p := range persons {
		byID[p.ID] = p
		for _, key := range matchKeys(p) {
			if !containsID(groups[key], p.ID) {
				groups[key] = append(groups[key], p.ID)
			}
		}
	}

	prominence, err := e.prominenceMap(persons)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(groups))
	for key, ids := range groups {
		if len(ids) >= 2 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		var members []*entity.Entity
		for _, id := range groups[key] {
			if !e.isGone(id) {
				members = append(members, byID[id])
			}
		}
		if len(members) < 2 {
			continue
		}
		survivor := chooseSurvivor(members, prominence)
		for _, absorbed := range members {
			if absorbed.ID == survivor.ID {
				continue
			}
			reason := mergeReasons(survivor.CanonicalName, absorbed.CanonicalName)
			if err := e.mergePair(survivor, absorbed, reason, key, summary, dryRun); err != nil {
				e.logger.Errorw("merge failed",
					"survivor", survivor.ID, "absorbed", absorbed.ID, "error", err)
				summary.Errors++
			}
		}
	}
	return nil
}

func (e *Engine) mergeSurnameOnly(summary *Summary, dryRun bool) error {
	persons, err := e.liveEntities(string(entity.TypePerson))
	if err != nil {
		return err
	}

	// surname -> entities whose cleaned name is a full (multi-token) name
	fullNames := make(map[string][]*entity.Entity)
	var surnameOnly []*entity.Entity
	for _, p := range persons {
		tokens := strings.Fields(normalize.MatchKey(p.CanonicalName))
		switch {
		case len(tokens) == 0:
			continue
		case len(tokens) == 1:
			surnameOnly = append(surnameOnly, p)
		default:
			surname := tokens[len(tokens)-1]
			fullNames[surname] = append(fullNames[surname], p)
		}
	}
	sort.Slice(surnameOnly, func(i, j int) bool { return surnameOnly[i].ID < surnameOnly[j].ID })

	g := e.graphFor(e.store)
	for _, p := range surnameOnly {
		if e.isGone(p.ID) {
			continue
		}
		surname := normalize.MatchKey(p.CanonicalName)
		var candidates []*entity.Entity
		for _, c := range fullNames[surname] {
			if !e.isGone(c.ID) {
				candidates = append(candidates, c)
			}
		}

		var survivor *entity.Entity
		reason := ""
		switch len(candidates) {
		case 0:
			continue
		case 1:
			survivor = candidates[0]
			reason = ReasonSurname
		default:
			survivor = e.disambiguate(g, p, candidates)
			if survivor == nil {
				e.logger.Debugw("ambiguous surname left unmerged",
					"entity", p.ID, "surname", surname, "candidates", len(candidates))
				continue
			}
			reason = ReasonSurnameByGraph
		}
		if err := e.mergePair(survivor, p, reason, surname, summary, dryRun); err != nil {
			e.logger.Errorw("surname merge failed",
				"survivor", survivor.ID, "absorbed", p.ID, "error", err)
			summary.Errors++
		}
	}
	return nil
}

// disambiguate picks among candidates sharing a surname by neighbor-set
// overlap. The winner must clear the Jaccard floor and beat the runner-up
// by the configured margin; anything less and no merge happens.
func (e *Engine) disambiguate(g *graph.Graph, p *entity.Entity, candidates []*entity.Entity) *entity.Entity {
	mine, err := g.NeighborIDs(p.ID)
	if err != nil {
		e.logger.Errorw("neighbor lookup failed", "entity", p.ID, "error", err)
		return nil
	}

	type scored struct {
		ent   *entity.Entity
		score float64
	}
	scores := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		theirs, err := g.NeighborIDs(c.ID)
		if err != nil {
			e.logger.Errorw("neighbor lookup failed", "entity", c.ID, "error", err)
			return nil
		}
		scores = append(scores, scored{ent: c, score: graph.Jaccard(mine, theirs)})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].ent.ID < scores[j].ent.ID
	})

	best := scores[0]
	if best.score < e.cfg.JaccardMinimum {
		return nil
	}
	if len(scores) > 1 && best.score < e.cfg.JaccardMargin*scores[1].score {
		return nil
	}
	return best.ent
}

// mergePair absorbs one entity into a survivor as a single transaction:
// alias union, metadata merge, edge and log repointing, consolidation,
// self-edge removal, absorbed-row deletion, audit record.
func (e *Engine) mergePair(survivor, absorbed *entity.Entity, reason, matchKey string, summary *Summary, dryRun bool) error {
	if e.isGone(survivor.ID) {
		return errors.Wrapf(errors.ErrEntityAbsorbed, "survivor %s", survivor.ID)
	}
	if e.isGone(absorbed.ID) {
		return errors.Wrapf(errors.ErrEntityAbsorbed, "absorbed %s", absorbed.ID)
	}
	if dryRun {
		pterm.Printf("  would merge %s %s <- %s %s (%s)\n",
			pterm.Gray(survivor.ID), pterm.Green(survivor.CanonicalName),
			pterm.Gray(absorbed.ID), pterm.Red(absorbed.CanonicalName), reason)
		e.gone[absorbed.ID] = struct{}{}
		summary.Merged++
		return nil
	}

	err := e.store.WithTx(func(tx *store.Store) error {
		survivor.AddAlias(absorbed.CanonicalName)
		for _, alias := range absorbed.Aliases {
			survivor.AddAlias(alias)
		}
		if err := tx.UpdateAliases(survivor.ID, survivor.Aliases); err != nil {
			return err
		}

		if survivor.Metadata == nil {
			survivor.Metadata = entity.Metadata{}
		}
		survivor.Metadata = survivor.Metadata.Merge(absorbed.Metadata)
		if err := tx.UpdateMetadata(survivor.ID, survivor.Metadata); err != nil {
			return err
		}

		rels, err := tx.RepointRelationships(absorbed.ID, survivor.ID)
		if err != nil {
			return err
		}
		logs, err := tx.RepointResolutions(absorbed.ID, survivor.ID)
		if err != nil {
			return err
		}
		consolidated, err := e.graphFor(tx).Consolidate(survivor.ID)
		if err != nil {
			return err
		}
		if _, err := tx.DeleteSelfEdges(survivor.ID); err != nil {
			return err
		}
		if err := tx.DeleteEntity(absorbed.ID); err != nil {
			return err
		}
		return tx.RecordMerge(&entity.MergeRecord{
			SurvivorID:             survivor.ID,
			AbsorbedID:             absorbed.ID,
			SurvivorName:           survivor.CanonicalName,
			AbsorbedName:           absorbed.CanonicalName,
			Reason:                 reason,
			MatchKey:               matchKey,
			RelationshipsRepointed: rels,
			LogsRepointed:          logs,
			DuplicatesConsolidated: consolidated,
		})
	})
	if err != nil {
		return err
	}

	e.gone[absorbed.ID] = struct{}{}
	summary.Merged++
	e.logger.Infow("merged duplicate entity",
		"survivor", survivor.ID, "absorbed", absorbed.ID,
		"reason", reason, "match_key", matchKey)
	return nil
}

// chooseSurvivor prefers the most connected entity, then a name without
// an honorific, then a name that is not shouted in all caps, then the
// lowest id for determinism.
func chooseSurvivor(members []*entity.Entity, prominence map[string]int) *entity.Entity {
	best := members[0]
	for _, m := range members[1:] {
		if betterSurvivor(m, best, prominence) {
			best = m
		}
	}
	return best
}

func betterSurvivor(a, b *entity.Entity, prominence map[string]int) bool {
	if prominence[a.ID] != prominence[b.ID] {
		return prominence[a.ID] > prominence[b.ID]
	}
	aTitled, bTitled := normalize.HasTitlePrefix(a.CanonicalName), normalize.HasTitlePrefix(b.CanonicalName)
	if aTitled != bTitled {
		return !aTitled
	}
	aCaps, bCaps := isAllCaps(a.CanonicalName), isAllCaps(b.CanonicalName)
	if aCaps != bCaps {
		return !aCaps
	}
	return a.ID < b.ID
}

func (e *Engine) prominenceMap(entities []*entity.Entity) (map[string]int, error) {
	g := e.graphFor(e.store)
	out := make(map[string]int, len(entities))
	for _, ent := range entities {
		p, err := g.Prominence(ent.ID)
		if err != nil {
			return nil, err
		}
		out[ent.ID] = p
	}
	return out, nil
}

// matchKeys returns the cleaned grouping keys of a canonical name and
// all its aliases, skipping empty keys.
func matchKeys(p *entity.Entity) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, name := range append([]string{p.CanonicalName}, p.Aliases...) {
		key := normalize.MatchKey(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// mergeReasons names every signal that justified an absorption, joined
// with "; " in the order checked. The caps check skips names of 3 chars
// or fewer (initials); the hyphen check only counts when the survivor is
// a spaced multi-word name.
func mergeReasons(survivorName, absorbedName string) string {
	var reasons []string
	if normalize.HasTitlePrefix(absorbedName) {
		reasons = append(reasons, ReasonTitlePrefix)
	}
	if isAllCaps(absorbedName) && len(absorbedName) > 3 {
		reasons = append(reasons, ReasonAllCapsVariant)
	}
	if strings.Contains(absorbedName, "-") && strings.Contains(survivorName, " ") {
		reasons = append(reasons, ReasonHyphen)
	}
	if len(reasons) == 0 {
		return ReasonCleanedName
	}
	return strings.Join(reasons, "; ")
}

// isAllCaps reports whether a name has letters and no lowercase ones.
func isAllCaps(s string) bool {
	hasUpper := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
	}
	return hasUpper
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
