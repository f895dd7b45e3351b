package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/commitstory-dev/commitstory/internal/git"
	"github.com/commitstory-dev/commitstory/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the repository and generate a journal entry after every new commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := slog.Default()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := watch.New(cfg.RepoPath, git.Open(cfg.RepoPath), func(ctx context.Context, ref string) error {
			return runGenerate(ctx, cfg, logger, ref, false)
		}, logger)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
