package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/805Burner66/ECARE/config"
	"github.com/805Burner66/ECARE/db"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/logger"
	"github.com/805Burner66/ECARE/store"
)

// DbCmd groups database maintenance operations.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the ECARE store",
	Long: `Manage the ECARE store.

Examples:
  ecare db init              # Create the store and apply migrations
  ecare db init --force      # Recreate from scratch, destroying all data
  ecare db stats             # Show registry and graph statistics`,
}

var dbInitForceFlag bool

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the store",
	RunE:  runDbInit,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry and graph statistics",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbInitCmd)
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Store path (overrides configuration)")
	dbInitCmd.Flags().BoolVar(&dbInitForceFlag, "force", false, "Delete any existing store first")
}

func runDbInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	path := cfg.Database.Path
	if dbPathFlag != "" {
		path = dbPathFlag
	}

	if dbInitForceFlag {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove existing store %s", path)
		}
	}

	database, err := db.Open(path, logger.Logger)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, logger.Logger); err != nil {
		return err
	}
	pterm.Success.Printf("Store ready at %s\n", path)
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	database, _, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	st := store.New(database, logger.Logger)
	entities, err := st.EntityCount()
	if err != nil {
		return err
	}
	edges, err := st.RelationshipCount()
	if err != nil {
		return err
	}
	merges, err := st.MergeCount()
	if err != nil {
		return err
	}

	byType := map[string]int{}
	rows, err := database.Query(`SELECT entity_type, COUNT(*) FROM canonical_entities GROUP BY entity_type ORDER BY entity_type`)
	if err != nil {
		return errors.Wrap(err, "failed to query entity types")
	}
	defer rows.Close()
	var types []string
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return errors.Wrap(err, "failed to scan type count")
		}
		byType[typ] = n
		types = append(types, typ)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pterm.Printf("Canonical entities: %d\n", entities)
	for _, typ := range types {
		pterm.Printf("  %-14s %d\n", typ, byType[typ])
	}
	pterm.Printf("Relationships:      %d\n", edges)
	pterm.Printf("Recorded merges:    %d\n", merges)
	return nil
}
