package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/scheduler"
)

func newRecordCommand(dataDir *string) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record current balances into history",
		Long: `Record resolved balances for all active accounts as one history batch.

With --watch the command keeps running and records a batch on the cron
schedule from tally.yaml (record.cron).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			sched := scheduler.New(st)

			if !watch {
				batchID, err := sched.RunOnce()
				if err != nil {
					return err
				}
				cmd.Printf("Recorded batch %s\n", batchID)
				return nil
			}

			if err := sched.Start(cfg.Record.Cron); err != nil {
				return err
			}
			defer sched.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			cmd.Println("shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and record on the configured schedule")

	return cmd
}
