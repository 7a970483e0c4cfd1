package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/805Burner66/ECARE/ingest"
	"github.com/805Burner66/ECARE/logger"
	"github.com/805Burner66/ECARE/store"
)

var ingestSourceFlag string

// IngestCmd groups source ingestion operations.
var IngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load source datasets into the store",
}

var ingestSeedCmd = &cobra.Command{
	Use:   "seed <persons-registry.json>",
	Short: "Load a persons registry JSON file as the canonical base",
	Long: `Load a persons registry JSON file as the canonical base.

The registry is trusted as-is: every person becomes a canonical entity with
a base_registry resolution-log row at confidence 1.0. Redaction markers are
skipped. Run this once, against an empty store, before any other source.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestSeed,
}

func init() {
	IngestCmd.AddCommand(ingestSeedCmd)
	IngestCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Store path (overrides configuration)")
	ingestSeedCmd.Flags().StringVar(&ingestSourceFlag, "source", "rhowardstone", "Source system name recorded in the audit trail")
}

func runIngestSeed(cmd *cobra.Command, args []string) error {
	database, _, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	st := store.New(database, logger.Logger)
	stats, err := ingest.Seed(st, args[0], ingestSourceFlag, logger.Logger)
	if err != nil {
		return err
	}
	pterm.Success.Printf("Loaded %d persons (%d redaction markers skipped)\n",
		stats.Loaded, stats.SkippedRedaction)
	return nil
}
