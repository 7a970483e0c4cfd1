package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/805Burner66/ECARE/cmd/ecare/commands"
	"github.com/805Burner66/ECARE/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ecare",
	Short: "ECARE - Entity resolution and reconciliation engine",
	Long: `ECARE - Entity resolution and reconciliation engine.

Deduplicates entity names arriving from heterogeneous document sources into
one canonical registry and maintains a typed relationship graph over it.

Examples:
  ecare db init                      # Create or migrate the store
  ecare db stats                     # Show registry and graph statistics
  ecare ingest seed persons.json     # Load the base person registry
  ecare cleanup --dry-run            # Preview merge and cleanup decisions
  ecare cleanup                      # Run the full cleanup
  ecare validate                     # Read-only integrity report`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(false, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.IngestCmd)
	rootCmd.AddCommand(commands.CleanupCmd)
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
