package commands

import (
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/export"
	"github.com/tally-dev/tally/internal/gitops"
)

func newExportCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all accounts, groups and institutions to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, cfg, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			accounts, err := st.ListAccounts(true)
			if err != nil {
				return err
			}
			groups, err := st.ListGroups(true)
			if err != nil {
				return err
			}
			institutions, err := st.ListInstitutions(true)
			if err != nil {
				return err
			}

			if err := export.WriteAll(absDir, accounts, groups, institutions); err != nil {
				return err
			}
			cmd.Printf("Exported %d accounts, %d groups, %d institutions\n",
				len(accounts), len(groups), len(institutions))

			if cfg.Git.AutoCommit {
				hash, err := gitops.AutoCommit(absDir, "export: refresh CSV snapshot",
					cfg.Git.AuthorName, cfg.Git.AuthorEmail)
				if err != nil {
					return err
				}
				if hash != "" {
					cmd.Printf("Committed %s\n", hash)
				}
			}
			return nil
		},
	}
}
