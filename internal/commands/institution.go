package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/model"
)

func newInstitutionCommand(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "institution",
		Short: "Manage institutions",
	}

	cmd.AddCommand(newInstitutionAddCommand(dataDir))
	cmd.AddCommand(newInstitutionListCommand(dataDir))
	cmd.AddCommand(newInstitutionRemoveCommand(dataDir))

	return cmd
}

func newInstitutionAddCommand(dataDir *string) *cobra.Command {
	var name, description, color string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an institution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			inst, err := st.CreateInstitution(model.Institution{Name: name, Description: description, Color: color})
			if err != nil {
				return err
			}
			cmd.Printf("Added institution %d: %s\n", inst.ID, inst.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "institution name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&description, "description", "", "institution description")
	cmd.Flags().StringVar(&color, "color", "", "display color")

	return cmd
}

func newInstitutionListCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List institutions with aggregate balances",
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

			institutions, err := st.ListInstitutions(false)
			if err != nil {
				return err
			}
			for _, inst := range institutions {
				balance, _ := snap.Balance(model.KindInstitution, inst.ID)
				cmd.Printf("%4d %-30s %12s  (%d accounts)\n",
					inst.ID, inst.Name, balance.StringFixed(2), len(snap.Members(model.KindInstitution, inst.ID)))
			}
			return nil
		},
	}
}

func newInstitutionRemoveCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <institution-id>",
		Short: "Delete an institution (accounts are detached)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid institution id %q", args[0])
			}

			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteInstitution(id); err != nil {
				return err
			}
			cmd.Printf("Deleted institution %d\n", id)
			return nil
		},
	}
}
