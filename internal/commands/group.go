package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/model"
)

func newGroupCommand(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage account groups",
	}

	cmd.AddCommand(newGroupAddCommand(dataDir))
	cmd.AddCommand(newGroupListCommand(dataDir))
	cmd.AddCommand(newGroupRemoveCommand(dataDir))

	return cmd
}

func newGroupAddCommand(dataDir *string) *cobra.Command {
	var name, description, color string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			g, err := st.CreateGroup(model.Group{Name: name, Description: description, Color: color})
			if err != nil {
				return err
			}
			cmd.Printf("Added group %d: %s\n", g.ID, g.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "group name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&description, "description", "", "group description")
	cmd.Flags().StringVar(&color, "color", "", "display color")

	return cmd
}

func newGroupListCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups with aggregate balances",
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

			groups, err := st.ListGroups(false)
			if err != nil {
				return err
			}
			for _, g := range groups {
				balance, _ := snap.Balance(model.KindGroup, g.ID)
				cmd.Printf("%4d %-30s %12s  (%d accounts)\n",
					g.ID, g.Name, balance.StringFixed(2), len(snap.Members(model.KindGroup, g.ID)))
			}
			return nil
		},
	}
}

func newGroupRemoveCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <group-id>",
		Short: "Delete a group (member accounts are detached)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid group id %q", args[0])
			}

			_, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteGroup(id); err != nil {
				return err
			}
			cmd.Printf("Deleted group %d\n", id)
			return nil
		},
	}
}
