package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/commitstory-dev/commitstory/internal/assembler"
)

var previewRef string

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Assemble the context bundle and print its statistics, without calling the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		bundle, err := newAssembler(cfg, slog.Default()).Assemble(cmd.Context(), previewRef)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(previewOf(bundle))
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewRef, "ref", "HEAD", "commit reference to preview")
}

// preview is the bundle without its bulk text, for human inspection.
type preview struct {
	Commit struct {
		Hash      string `json:"hash"`
		Subject   string `json:"subject"`
		Author    string `json:"author"`
		Timestamp string `json:"timestamp"`
		DiffBytes int    `json:"diff_bytes"`
	} `json:"commit"`
	Chat struct {
		MessageCount int      `json:"message_count"`
		SessionCount int      `json:"session_count"`
		Sessions     []string `json:"sessions"`
	} `json:"chat"`
	Metadata assembler.Metadata `json:"metadata"`
}

func previewOf(b *assembler.Bundle) preview {
	var p preview
	p.Commit.Hash = b.Commit.Hash
	p.Commit.Subject = b.Commit.Subject
	p.Commit.Author = b.Commit.Author
	p.Commit.Timestamp = b.Commit.Timestamp.String()
	p.Commit.DiffBytes = len(b.Commit.Diff)
	p.Chat.MessageCount = b.Chat.MessageCount
	p.Chat.SessionCount = b.Chat.SessionCount
	for _, s := range b.Chat.Sessions {
		p.Chat.Sessions = append(p.Chat.Sessions, s.SessionID)
	}
	p.Metadata = b.Metadata
	return p
}
