package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/commitstory-dev/commitstory/internal/api"
	"github.com/commitstory-dev/commitstory/internal/journal"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the journal over HTTP on localhost",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		w := journal.NewWriter(cfg.JournalDir, slog.Default())
		return api.NewServer(cfg.ServePort, w).Start()
	},
}
