package commands

import (
	"github.com/spf13/cobra"

	"github.com/805Burner66/ECARE/logger"
	"github.com/805Burner66/ECARE/merge"
	"github.com/805Burner66/ECARE/store"
)

var cleanupDryRunFlag bool

// CleanupCmd runs the post-ingestion merge and cleanup engine.
var CleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Merge duplicates and dispose of noise entities",
	Long: `Run the post-ingestion cleanup engine: delete or flag noise entities,
merge duplicate canonical entities, and clean display names.

Always preview first:
  ecare cleanup --dry-run
  ecare cleanup`,
	RunE: runCleanup,
}

func init() {
	CleanupCmd.Flags().StringVar(&dbPathFlag, "db", "", "Store path (overrides configuration)")
	CleanupCmd.Flags().BoolVar(&cleanupDryRunFlag, "dry-run", false, "Report what would change without writing anything")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	database, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	st := store.New(database, logger.Logger)
	engine := merge.NewEngine(st, cfg.Cleanup, logger.Logger)
	_, err = engine.Run(cleanupDryRunFlag)
	return err
}
