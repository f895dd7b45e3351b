package filter

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/commitstory-dev/commitstory/internal/transcript"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(typ string, content any) transcript.Record {
	var raw json.RawMessage
	if content != nil {
		raw, _ = json.Marshal(content)
	}
	return transcript.Record{
		UUID:      "u1",
		SessionID: "s1",
		Type:      typ,
		Role:      typ,
		Timestamp: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Content:   raw,
	}
}

func applyOne(t *testing.T, rec transcript.Record) ([]Message, Stats) {
	t.Helper()
	return New("journal_add_reflection", discardLogger()).Apply([]transcript.Record{rec})
}

func TestApply_KeepsStringContent(t *testing.T) {
	msgs, stats := applyOne(t, record("user", "fix the flaky test"))

	if len(msgs) != 1 {
		t.Fatalf("expected 1 kept message, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Text != "fix the flaky test" {
		t.Errorf("message = %+v", msgs[0])
	}
	if msgs[0].IsCapture {
		t.Error("plain message should not be marked capture")
	}
	if stats.Kept != 1 || stats.Dropped != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestApply_DropReasons(t *testing.T) {
	tests := []struct {
		name   string
		rec    transcript.Record
		reason DropReason
	}{
		{"missing type", record("", "hello"), DropNoType},
		{"wrong type", record("system", "hello"), DropWrongType},
		{"empty string", record("user", "   \n\t "), DropEmptyContent},
		{"absent content", record("user", nil), DropEmptyContent},
		{
			"tool use",
			record("assistant", []map[string]any{
				{"type": "text", "text": "running it"},
				{"type": "tool_use", "name": "Bash"},
			}),
			DropToolUse,
		},
		{
			"tool result",
			record("user", []map[string]any{
				{"type": "tool_result", "content": "file1\nfile2"},
			}),
			DropToolResult,
		},
		{
			"blocks without text",
			record("assistant", []map[string]any{
				{"type": "thinking", "text": ""},
			}),
			DropEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, stats := applyOne(t, tt.rec)
			if len(msgs) != 0 {
				t.Fatalf("expected drop, kept %+v", msgs)
			}
			if stats.Reasons[tt.reason] != 1 {
				t.Errorf("reasons = %v, want %s=1", stats.Reasons, tt.reason)
			}
			if stats.Kept+stats.Dropped != stats.Total {
				t.Errorf("kept %d + dropped %d != total %d", stats.Kept, stats.Dropped, stats.Total)
			}
		})
	}
}

func TestApply_MetaFlagged(t *testing.T) {
	rec := record("user", "injected context")
	rec.IsMeta = true

	msgs, stats := applyOne(t, rec)
	if len(msgs) != 0 || stats.Reasons[DropMeta] != 1 {
		t.Fatalf("meta record should drop: msgs=%d reasons=%v", len(msgs), stats.Reasons)
	}
}

func TestApply_CaptureToolExemption(t *testing.T) {
	rec := record("assistant", []map[string]any{
		{"type": "text", "text": "Noted — adding to the journal."},
		{"type": "tool_use", "name": "journal_add_reflection"},
	})

	msgs, _ := applyOne(t, rec)
	if len(msgs) != 1 {
		t.Fatalf("capture-tool invocation should be kept, got %d", len(msgs))
	}
	if !msgs[0].IsCapture {
		t.Error("kept capture-tool record should be flagged IsCapture")
	}
	if msgs[0].Text != "Noted — adding to the journal." {
		t.Errorf("text = %q", msgs[0].Text)
	}
}

func TestApply_CaptureExemptionRequiresEveryToolUse(t *testing.T) {
	rec := record("assistant", []map[string]any{
		{"type": "text", "text": "doing both"},
		{"type": "tool_use", "name": "journal_add_reflection"},
		{"type": "tool_use", "name": "Bash"},
	})

	msgs, stats := applyOne(t, rec)
	if len(msgs) != 0 || stats.Reasons[DropToolUse] != 1 {
		t.Fatalf("mixed tool_use should drop: msgs=%d reasons=%v", len(msgs), stats.Reasons)
	}
}

func TestApply_ToolResultWinsOverCaptureExemption(t *testing.T) {
	rec := record("assistant", []map[string]any{
		{"type": "text", "text": "captured"},
		{"type": "tool_use", "name": "journal_add_reflection"},
		{"type": "tool_result", "content": "ok"},
	})

	msgs, stats := applyOne(t, rec)
	if len(msgs) != 0 || stats.Reasons[DropToolResult] != 1 {
		t.Fatalf("tool_result should always drop: msgs=%d reasons=%v", len(msgs), stats.Reasons)
	}
}

func TestApply_JoinsTextBlocks(t *testing.T) {
	rec := record("assistant", []map[string]any{
		{"type": "text", "text": "first paragraph"},
		{"type": "thinking", "text": "ignored"},
		{"type": "text", "text": "second paragraph"},
	})

	msgs, _ := applyOne(t, rec)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	want := "first paragraph\nsecond paragraph"
	if msgs[0].Text != want {
		t.Errorf("text = %q, want %q", msgs[0].Text, want)
	}
}

func TestApply_StatsInvariant(t *testing.T) {
	records := []transcript.Record{
		record("user", "keep me"),
		record("system", "drop me"),
		record("user", ""),
		record("assistant", []map[string]any{{"type": "tool_use", "name": "Read"}}),
		record("assistant", []map[string]any{{"type": "text", "text": "keep me too"}}),
	}

	msgs, stats := New("journal_add_reflection", discardLogger()).Apply(records)

	if stats.Total != 5 {
		t.Errorf("total = %d, want 5", stats.Total)
	}
	if stats.Kept != len(msgs) {
		t.Errorf("kept = %d, messages = %d", stats.Kept, len(msgs))
	}
	if stats.Kept+stats.Dropped != stats.Total {
		t.Errorf("kept %d + dropped %d != total %d", stats.Kept, stats.Dropped, stats.Total)
	}
	for _, m := range msgs {
		if m.Text == "" {
			t.Error("kept message with empty text")
		}
	}
}
