package commands

import (
	"github.com/spf13/cobra"

	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/logger"
	"github.com/805Burner66/ECARE/store"
	"github.com/805Burner66/ECARE/validate"
)

// ValidateCmd runs the read-only integrity report.
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check store integrity without modifying anything",
	RunE:  runValidate,
}

func init() {
	ValidateCmd.Flags().StringVar(&dbPathFlag, "db", "", "Store path (overrides configuration)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	database, _, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	st := store.New(database, logger.Logger)
	report, err := validate.Run(st, logger.Logger)
	if err != nil {
		return err
	}
	report.Print()
	if !report.Clean() {
		return errors.New("store has structural problems")
	}
	return nil
}
