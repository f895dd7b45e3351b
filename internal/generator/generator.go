// Package generator turns an assembled context bundle into the prose
// sections of a journal entry via the Anthropic API.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/commitstory-dev/commitstory/internal/anthropic"
	"github.com/commitstory-dev/commitstory/internal/assembler"
	"github.com/commitstory-dev/commitstory/internal/budget"
)

const maxResponseTokens = 4096

// Entry holds the generated sections of one journal entry.
type Entry struct {
	Summary            string
	Dialogue           string
	TechnicalDecisions string
}

// Completer is the slice of the LLM client the generator needs.
type Completer interface {
	Complete(ctx context.Context, system string, messages []anthropic.Message, maxTokens int) (string, error)
}

type Generator struct {
	llm    Completer
	logger *slog.Logger
}

func New(llm Completer, logger *slog.Logger) *Generator {
	return &Generator{llm: llm, logger: logger}
}

// Generate renders the bundle into a prompt and asks the model for the entry.
func (g *Generator) Generate(ctx context.Context, b *assembler.Bundle) (*Entry, error) {
	prompt := fmt.Sprintf(userPromptHeader,
		formatCommit(b),
		b.Commit.Diff,
		formatDialogue(b),
	)

	g.logger.Info("generating journal entry",
		"run_id", b.Metadata.RunID,
		"commit", b.Commit.ShortHash,
		"prompt_len", len(prompt),
		"token_estimate", b.Metadata.TokenEstimate,
	)

	raw, err := g.llm.Complete(ctx, systemPrompt, []anthropic.Message{
		{Role: "user", Content: prompt},
	}, maxResponseTokens)
	if err != nil {
		return nil, fmt.Errorf("llm generation: %w", err)
	}

	entry := parseSections(raw)

	g.logger.Info("journal entry generated",
		"run_id", b.Metadata.RunID,
		"commit", b.Commit.ShortHash,
		"response_len", len(raw),
	)

	return entry, nil
}

func formatCommit(b *assembler.Bundle) string {
	c := b.Commit
	return fmt.Sprintf("commit %s\nAuthor: %s <%s>\nDate: %s\n\n%s\n",
		c.Hash, c.Author, c.AuthorEmail, c.Timestamp.Format(time.RFC3339), c.Message)
}

func formatDialogue(b *assembler.Bundle) string {
	if len(b.Chat.Messages) == 0 {
		return "(no conversation recorded in this commit's window)\n"
	}

	var sb strings.Builder
	for _, group := range b.Chat.Sessions {
		fmt.Fprintf(&sb, "--- session %s ---\n", group.SessionID)
		sb.WriteString(budget.FormatDialogue(group.Messages))
	}

	// Surface dictated reflections separately — they are the developer's own
	// words and deserve priority in the entry.
	var reflections []string
	for _, m := range b.Chat.Messages {
		if m.IsCapture {
			reflections = append(reflections, m.Text)
		}
	}
	if len(reflections) > 0 {
		sb.WriteString("--- dictated reflections ---\n")
		for _, r := range reflections {
			sb.WriteString(r)
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// parseSections splits the model response on the three expected headers.
// A response without headers lands wholesale in Summary rather than being lost.
func parseSections(raw string) *Entry {
	entry := &Entry{}

	summary, rest, ok := cutSection(raw, "## Summary")
	if !ok {
		entry.Summary = strings.TrimSpace(raw)
		return entry
	}
	_ = summary // text before the first header is discarded

	entry.Summary, rest, _ = cutUntil(rest, "## Development Dialogue")
	entry.Dialogue, rest, _ = cutUntil(rest, "## Technical Decisions")
	entry.TechnicalDecisions = strings.TrimSpace(rest)
	return entry
}

// cutSection finds header and returns (before, after-header, found).
func cutSection(s, header string) (string, string, bool) {
	idx := strings.Index(s, header)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(header):], true
}

// cutUntil returns the trimmed text before the next header and the remainder
// after it. Without the header, everything belongs to the current section.
func cutUntil(s, header string) (string, string, bool) {
	before, after, ok := cutSection(s, header)
	if !ok {
		return strings.TrimSpace(s), "", false
	}
	return strings.TrimSpace(before), after, true
}
