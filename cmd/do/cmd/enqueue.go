package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/templui/filesmanager/internal/config"
	"github.com/templui/filesmanager/internal/db"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/queue"
)

func EnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Add a job to a worker queue by hand",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "thumbnail <fileId> <userId>",
		Short: "Render the thumbnails of an uploaded image again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd.Context(), model.QueueThumbnails, model.ThumbnailJob{FileID: args[0], UserID: args[1]})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "welcome <userId>",
		Short: "Send the welcome email again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd.Context(), model.QueueWelcome, model.WelcomeJob{UserID: args[0]})
		},
	})

	return cmd
}

func enqueue(ctx context.Context, name string, payload any) error {
	cfg, rdb, err := connectRedis(ctx)
	if err != nil {
		return err
	}
	defer rdb.Close()

	id, err := queue.New(rdb, name, cfg.QueueMaxAttempts).Add(ctx, payload)
	if err != nil {
		return err
	}

	fmt.Printf("==> Enqueued job %s on %q\n", id, name)
	return nil
}

func connectRedis(ctx context.Context) (*config.Config, *redis.Client, error) {
	cfg := config.Load()
	rdb, err := db.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rdb, nil
}
