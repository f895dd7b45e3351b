package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/commitstory-dev/commitstory/internal/config"
)

var repoFlag string

var rootCmd = &cobra.Command{
	Use:   "commitstory",
	Short: "A development journal that writes itself from your commits and AI chat sessions",
	Long: `commitstory correlates each git commit with the Claude Code conversations
recorded while it was being made, cleans and redacts that context, and writes
a narrative journal entry into your repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "repository path (default: current directory)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration and installs the default logger.
func loadConfig() config.Config {
	cfg := config.Load(repoFlag)
	setupLogging(cfg.LogLevel)
	return cfg
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
