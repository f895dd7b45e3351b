package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/commitstory-dev/commitstory/internal/anthropic"
	"github.com/commitstory-dev/commitstory/internal/assembler"
	"github.com/commitstory-dev/commitstory/internal/filter"
	"github.com/commitstory-dev/commitstory/internal/git"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLLM struct {
	response string
	err      error
	gotUser  string
	gotSys   string
}

func (f *fakeLLM) Complete(ctx context.Context, system string, messages []anthropic.Message, maxTokens int) (string, error) {
	f.gotSys = system
	if len(messages) > 0 {
		f.gotUser = messages[0].Content
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testBundle() *assembler.Bundle {
	ts := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	msgs := []filter.Message{
		{UUID: "u1", SessionID: "s1", Role: "user", Timestamp: ts, Text: "let's cap the backoff"},
		{UUID: "u2", SessionID: "s1", Role: "assistant", Timestamp: ts, Text: "capping at 30s"},
		{UUID: "u3", SessionID: "s1", Role: "user", Timestamp: ts, Text: "note: chose 30s to match the LB timeout", IsCapture: true},
	}
	return &assembler.Bundle{
		Commit: &git.Commit{
			Hash:      "abc123",
			ShortHash: "abc123",
			Subject:   "tighten retry backoff",
			Message:   "tighten retry backoff",
			Author:    "Dev",
			Timestamp: ts,
			Diff:      "diff --git a/retry.go b/retry.go\n+const maxBackoff = 30 * time.Second\n",
		},
		Chat: assembler.Chat{
			Messages:     msgs,
			Sessions:     []assembler.SessionDialogue{{SessionID: "s1", Messages: msgs}},
			MessageCount: 3,
			SessionCount: 1,
		},
	}
}

const sectionedResponse = `## Summary
I tightened the retry backoff cap.

## Development Dialogue
Human: let's cap the backoff

## Technical Decisions
- capped backoff at 30s to match the LB timeout`

func TestGenerate_ParsesSections(t *testing.T) {
	llm := &fakeLLM{response: sectionedResponse}
	entry, err := New(llm, discardLogger()).Generate(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Summary != "I tightened the retry backoff cap." {
		t.Errorf("summary = %q", entry.Summary)
	}
	if !strings.Contains(entry.Dialogue, "let's cap the backoff") {
		t.Errorf("dialogue = %q", entry.Dialogue)
	}
	if !strings.Contains(entry.TechnicalDecisions, "capped backoff at 30s") {
		t.Errorf("decisions = %q", entry.TechnicalDecisions)
	}
}

func TestGenerate_PromptContainsEvidence(t *testing.T) {
	llm := &fakeLLM{response: sectionedResponse}
	if _, err := New(llm, discardLogger()).Generate(context.Background(), testBundle()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"tighten retry backoff",
		"maxBackoff = 30",
		"Human: let's cap the backoff",
		"--- session s1 ---",
		"--- dictated reflections ---",
		"chose 30s to match the LB timeout",
	} {
		if !strings.Contains(llm.gotUser, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if llm.gotSys == "" {
		t.Error("system prompt not sent")
	}
}

func TestGenerate_EmptyChat(t *testing.T) {
	b := testBundle()
	b.Chat = assembler.Chat{}

	llm := &fakeLLM{response: sectionedResponse}
	if _, err := New(llm, discardLogger()).Generate(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(llm.gotUser, "no conversation recorded") {
		t.Error("prompt should note the empty dialogue")
	}
}

func TestGenerate_LLMErrorPropagates(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	_, err := New(llm, discardLogger()).Generate(context.Background(), testBundle())
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected wrapped llm error, got %v", err)
	}
}

func TestParseSections_NoHeadersFallsBackToSummary(t *testing.T) {
	entry := parseSections("just prose, no headers at all")
	if entry.Summary != "just prose, no headers at all" {
		t.Errorf("summary = %q", entry.Summary)
	}
	if entry.Dialogue != "" || entry.TechnicalDecisions != "" {
		t.Error("other sections should be empty")
	}
}
