package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/commitstory-dev/commitstory/internal/anthropic"
	"github.com/commitstory-dev/commitstory/internal/assembler"
	"github.com/commitstory-dev/commitstory/internal/config"
	"github.com/commitstory-dev/commitstory/internal/filter"
	"github.com/commitstory-dev/commitstory/internal/generator"
	"github.com/commitstory-dev/commitstory/internal/git"
	"github.com/commitstory-dev/commitstory/internal/journal"
	"github.com/commitstory-dev/commitstory/internal/redact"
	"github.com/commitstory-dev/commitstory/internal/transcript"
)

var (
	generateRef    string
	generateDryRun bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the journal entry for one commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		return runGenerate(cmd.Context(), cfg, slog.Default(), generateRef, generateDryRun)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateRef, "ref", "HEAD", "commit reference to journal")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "print the entry instead of writing it")
}

// newAssembler wires the pipeline with everything injected from config.
func newAssembler(cfg config.Config, logger *slog.Logger) *assembler.Assembler {
	repo := git.Open(cfg.RepoPath)
	collector := transcript.NewCollector(cfg.ClaudeDir, logger)
	noise := filter.New(cfg.CaptureTool, logger)
	redactor := redact.New(cfg.RedactEmails)

	return assembler.New(repo, collector, noise, redactor, assembler.Options{
		RepoPath:    cfg.RepoPath,
		TotalBudget: cfg.TotalBudget,
		DiffBudget:  cfg.DiffBudget,
		ChatBudget:  cfg.ChatBudget,
	}, logger)
}

// runGenerate is the whole pipeline for one ref: assemble, generate, write.
// The watch command reuses it for every new commit it sees.
func runGenerate(ctx context.Context, cfg config.Config, logger *slog.Logger, ref string, dryRun bool) error {
	if cfg.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}

	bundle, err := newAssembler(cfg, logger).Assemble(ctx, ref)
	if err != nil {
		return err
	}

	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	entry, err := generator.New(llm, logger).Generate(ctx, bundle)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Fprint(os.Stdout, journal.Format(bundle.Commit, entry))
		return nil
	}

	path, err := journal.NewWriter(cfg.JournalDir, logger).Append(bundle.Commit, entry)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "journal entry written: %s\n", path)
	return nil
}
