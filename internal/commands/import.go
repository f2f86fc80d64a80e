package commands

import (
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/export"
)

func newImportCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Replace all data with the CSV export under <dir>/export/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			accounts, groups, institutions, err := export.ReadAll(absDir)
			if err != nil {
				return err
			}

			if err := st.ImportAll(accounts, groups, institutions); err != nil {
				return err
			}
			cmd.Printf("Imported %d accounts, %d groups, %d institutions\n",
				len(accounts), len(groups), len(institutions))
			return nil
		},
	}
}
