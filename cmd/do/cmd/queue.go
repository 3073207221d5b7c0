package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/queue"
)

var queueNames = []string{model.QueueThumbnails, model.QueueWelcome}

func QueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and repair worker queues",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show pending and failed job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rdb, err := connectRedis(cmd.Context())
			if err != nil {
				return err
			}
			defer rdb.Close()

			for _, name := range queueNames {
				pending, failed, err := queue.New(rdb, name, cfg.QueueMaxAttempts).Counts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("%-20s pending=%d failed=%d\n", name, pending, failed)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "retry",
		Short: "Move permanently failed jobs back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rdb, err := connectRedis(cmd.Context())
			if err != nil {
				return err
			}
			defer rdb.Close()

			for _, name := range queueNames {
				moved, err := queue.New(rdb, name, cfg.QueueMaxAttempts).RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("==> %s: requeued %d job(s)\n", name, moved)
			}
			return nil
		},
	})

	return cmd
}
