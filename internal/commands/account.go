package commands

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/model"
)

func newAccountCommand(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(newAccountAddCommand(dataDir))
	cmd.AddCommand(newAccountListCommand(dataDir))
	cmd.AddCommand(newAccountSetBalanceCommand(dataDir))
	cmd.AddCommand(newAccountMoveCommand(dataDir))
	cmd.AddCommand(newAccountArchiveCommand(dataDir, true))
	cmd.AddCommand(newAccountArchiveCommand(dataDir, false))
	cmd.AddCommand(newAccountRemoveCommand(dataDir))
	cmd.AddCommand(newAccountHistoryCommand(dataDir))

	return cmd
}

func newAccountAddCommand(dataDir *string) *cobra.Command {
	var name, info, balance string
	var groupID, institutionID int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a manually tracked account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			b, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", balance, err)
			}

			a := model.Account{Name: name, Info: info, Balance: b}
			if cmd.Flags().Changed("group") {
				a.GroupID = &groupID
			}
			if cmd.Flags().Changed("institution") {
				a.InstitutionID = &institutionID
			}

			created, err := st.CreateAccount(a)
			if err != nil {
				return err
			}
			cmd.Printf("Added account %d: %s (%s)\n", created.ID, created.Name, created.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&info, "info", "", "free-form account notes")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")
	cmd.Flags().IntVar(&groupID, "group", 0, "group ID")
	cmd.Flags().IntVar(&institutionID, "institution", 0, "institution ID")

	return cmd
}

func newAccountListCommand(dataDir *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with resolved balances",
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

			for _, a := range snap.Accounts() {
				if a.IsArchived && !all {
					continue
				}
				marker := " "
				if a.IsCalculated {
					marker = "="
				}
				archived := ""
				if a.IsArchived {
					archived = " [archived]"
				}
				cmd.Printf("%4d %s %-30s %12s%s\n", a.ID, marker, a.Name, a.Balance.StringFixed(2), archived)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include archived accounts")
	return cmd
}

func newAccountSetBalanceCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-balance <account-id> <amount>",
		Short: "Update a manual account's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SetBalance(id, amount); err != nil {
				return err
			}
			cmd.Printf("Balance of account %d set to %s\n", id, amount.StringFixed(2))
			return nil
		},
	}
}

func newAccountMoveCommand(dataDir *string) *cobra.Command {
	var groupID, institutionID int

	cmd := &cobra.Command{
		Use:   "move <account-id>",
		Short: "Move an account between groups and institutions",
		Long:  "Move an account into a group and/or institution. Omitting a flag detaches that membership. The move is refused if it would put any calculated formula on a cycle.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			var gid, iid *int
			if cmd.Flags().Changed("group") {
				gid = &groupID
			}
			if cmd.Flags().Changed("institution") {
				iid = &institutionID
			}

			if err := st.SetMembership(id, gid, iid); err != nil {
				return err
			}
			cmd.Printf("Moved account %d\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&groupID, "group", 0, "group ID")
	cmd.Flags().IntVar(&institutionID, "institution", 0, "institution ID")
	return cmd
}

func newAccountArchiveCommand(dataDir *string, archive bool) *cobra.Command {
	use, short := "archive <account-id>", "Archive an account (drops its formula)"
	if !archive {
		use, short = "restore <account-id>", "Restore an archived account"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SetArchived(id, archive); err != nil {
				return err
			}
			if archive {
				cmd.Printf("Archived account %d\n", id)
			} else {
				cmd.Printf("Restored account %d\n", id)
			}
			return nil
		},
	}
}

func newAccountRemoveCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <account-id>",
		Short: "Delete an account (history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteAccount(id); err != nil {
				return err
			}
			cmd.Printf("Deleted account %d\n", id)
			return nil
		},
	}
}

func newAccountHistoryCommand(dataDir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "Show an account's balance history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.History(id, limit)
			if err != nil {
				return err
			}
			for _, r := range records {
				batch := ""
				if r.BatchID != "" {
					batch = "  batch " + r.BatchID
				}
				cmd.Printf("%s  %-30s %12s%s\n",
					r.RecordedAt.Format("2006-01-02 15:04"), r.NameSnapshot, r.Balance.StringFixed(2), batch)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max records to show (0 = all)")
	return cmd
}
