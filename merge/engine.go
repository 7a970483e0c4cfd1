// Package merge is the post-ingestion cleanup engine. It runs once per
// pipeline execution, after all sources are ingested, in three ordered
// phases: noise disposition, duplicate clustering, and non-destructive
// name cleanup. Resolution during ingestion is tuned for precision, so
// duplicate canonical entities are expected; this is where they die.
package merge

import (
	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/config"
	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/graph"
	"github.com/805Burner66/ECARE/store"
)

// Summary is the final accounting printed after a run.
type Summary struct {
	NoiseDeleted  int
	NoiseFlagged  int
	Merged        int
	Renamed       int
	Errors        int
	EntitiesAfter int
	EdgesAfter    int
}

// Engine executes the cleanup phases against one store.
type Engine struct {
	store  *store.Store
	cfg    config.CleanupConfig
	logger *zap.SugaredLogger

	// ids absorbed or deleted during this run; never merged again and
	// never used as stale survivors
	gone map[string]struct{}
	// ids flagged excluded this run, tracked in memory so dry runs see
	// the same phase-B candidate set as real runs
	flagged map[string]struct{}
}

func NewEngine(st *store.Store, cfg config.CleanupConfig, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		store:   st,
		cfg:     cfg,
		logger:  logger.Named("merge"),
		gone:    make(map[string]struct{}),
		flagged: make(map[string]struct{}),
	}
}

// Run executes all three phases. With dryRun set it computes and prints
// every decision but mutates nothing, including the lazy audit table.
func (e *Engine) Run(dryRun bool) (*Summary, error) {
	if dryRun {
		pterm.Info.Println("Dry run: no changes will be written")
	} else if err := e.store.EnsureMergeLog(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	e.gone = make(map[string]struct{})
	e.flagged = make(map[string]struct{})

	if err := e.runNoisePhase(summary, dryRun); err != nil {
		return summary, errors.Wrap(err, "noise disposition phase failed")
	}
	if err := e.runDuplicatePhase(summary, dryRun); err != nil {
		return summary, errors.Wrap(err, "duplicate merge phase failed")
	}
	if err := e.runRenamePhase(summary, dryRun); err != nil {
		return summary, errors.Wrap(err, "name cleanup phase failed")
	}

	var err error
	if summary.EntitiesAfter, err = e.store.EntityCount(); err != nil {
		return summary, err
	}
	if summary.EdgesAfter, err = e.store.RelationshipCount(); err != nil {
		return summary, err
	}

	e.printSummary(summary, dryRun)
	return summary, nil
}

func (e *Engine) printSummary(s *Summary, dryRun bool) {
	verb := ""
	if dryRun {
		verb = "would be "
	}
	pterm.Println()
	pterm.Printf("  Noise entities %sdeleted:  %s\n", verb, pterm.Red(s.NoiseDeleted))
	pterm.Printf("  Noise entities %sflagged:  %s\n", verb, pterm.Yellow(s.NoiseFlagged))
	pterm.Printf("  Duplicates %smerged:       %s\n", verb, pterm.Green(s.Merged))
	pterm.Printf("  Names %scleaned:           %s\n", verb, pterm.Cyan(s.Renamed))
	if s.Errors > 0 {
		pterm.Warning.Printf("  Entities skipped on error: %d\n", s.Errors)
	}
	pterm.Printf("  Remaining: %d entities, %d relationships\n", s.EntitiesAfter, s.EdgesAfter)
	if dryRun {
		pterm.Info.Println("Dry run complete, nothing was modified")
	} else {
		pterm.Success.Println("Cleanup complete")
	}
}

// graphFor builds a graph view bound to the given store view, so
// consolidation inside a transaction sees that transaction's writes.
func (e *Engine) graphFor(st *store.Store) *graph.Graph {
	return graph.New(st, e.cfg.DocRefCap, e.logger)
}

func (e *Engine) isGone(id string) bool {
	_, ok := e.gone[id]
	return ok
}

// liveEntities lists entities of a type, minus the ones already deleted
// or absorbed in this run and the ones flagged excluded.
func (e *Engine) liveEntities(entityType string) ([]*entity.Entity, error) {
	all, err := e.store.ListEntities(entityType)
	if err != nil {
		return nil, err
	}
	live := all[:0]
	for _, ent := range all {
		if e.isGone(ent.ID) || ent.Metadata.Excluded() {
			continue
		}
		if _, ok := e.flagged[ent.ID]; ok {
			continue
		}
		live = append(live, ent)
	}
	return live, nil
}
