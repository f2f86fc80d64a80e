package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/buildinfo"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/store"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dataDir string

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Personal balance tracking with calculated accounts",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", ".", "tally data directory")

	rootCmd.AddCommand(newInitCommand(&dataDir))
	rootCmd.AddCommand(newAccountCommand(&dataDir))
	rootCmd.AddCommand(newGroupCommand(&dataDir))
	rootCmd.AddCommand(newInstitutionCommand(&dataDir))
	rootCmd.AddCommand(newFormulaCommand(&dataDir))
	rootCmd.AddCommand(newBalancesCommand(&dataDir))
	rootCmd.AddCommand(newRecordCommand(&dataDir))
	rootCmd.AddCommand(newExportCommand(&dataDir))
	rootCmd.AddCommand(newImportCommand(&dataDir))

	return rootCmd
}

// openEnv loads tally.yaml from the data directory and opens the store.
func openEnv(dataDir string) (string, *config.Config, *store.Store, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absDir, config.FileName))
	if err != nil {
		return "", nil, nil, fmt.Errorf("loading config (did you run tally init?): %w", err)
	}

	st, err := store.Open(cfg.DatabasePath(absDir), cfg.Policy.StrictReferences)
	if err != nil {
		return "", nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return absDir, cfg, st, nil
}
