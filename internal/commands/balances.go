package commands

import (
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/model"
)

func newBalancesCommand(dataDir *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show resolved balances for accounts, groups and institutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.Snapshot()
			if err != nil {
				return err
			}

			cmd.Println("Accounts:")
			for _, a := range snap.Accounts() {
				if a.IsArchived && !all {
					continue
				}
				marker := " "
				if a.IsCalculated {
					marker = "="
				}
				balance, _ := snap.Balance(model.KindAccount, a.ID)
				cmd.Printf("  %4d %s %-30s %12s\n", a.ID, marker, a.Name, balance.StringFixed(2))
			}

			groups, err := st.ListGroups(false)
			if err != nil {
				return err
			}
			if len(groups) > 0 {
				cmd.Println("Groups:")
				for _, g := range groups {
					balance, _ := snap.Balance(model.KindGroup, g.ID)
					cmd.Printf("  %4d   %-30s %12s\n", g.ID, g.Name, balance.StringFixed(2))
				}
			}

			institutions, err := st.ListInstitutions(false)
			if err != nil {
				return err
			}
			if len(institutions) > 0 {
				cmd.Println("Institutions:")
				for _, in := range institutions {
					balance, _ := snap.Balance(model.KindInstitution, in.ID)
					cmd.Printf("  %4d   %-30s %12s\n", in.ID, in.Name, balance.StringFixed(2))
				}
			}

			cmd.Printf("Total: %s\n", snap.Total().StringFixed(2))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include archived accounts")

	return cmd
}
