// Package filter strips non-dialogue noise out of collected session records:
// tool traffic, meta-injected messages, and empty payloads.
package filter

import (
	"log/slog"
	"strings"
	"time"

	"github.com/commitstory-dev/commitstory/internal/transcript"
)

// Message is the normalized projection of a kept record. Text is never empty.
type Message struct {
	UUID      string
	SessionID string
	Role      string
	Timestamp time.Time
	Text      string
	IsCapture bool
}

// DropReason names why a record was discarded.
type DropReason string

const (
	DropNoType       DropReason = "no_type"
	DropWrongType    DropReason = "wrong_type"
	DropMeta         DropReason = "meta"
	DropEmptyContent DropReason = "empty_content"
	DropToolUse      DropReason = "tool_use"
	DropToolResult   DropReason = "tool_result"
)

// Stats counts filter outcomes for one run. Kept + Dropped == Total.
type Stats struct {
	Total   int                `json:"total"`
	Kept    int                `json:"kept"`
	Dropped int                `json:"dropped"`
	Reasons map[DropReason]int `json:"reasons,omitempty"`
}

func newStats() Stats {
	return Stats{Reasons: make(map[DropReason]int)}
}

func (s *Stats) drop(reason DropReason) {
	s.Total++
	s.Dropped++
	s.Reasons[reason]++
}

func (s *Stats) keep() {
	s.Total++
	s.Kept++
}

// Filter classifies records as dialogue or noise.
type Filter struct {
	captureTool string
	logger      *slog.Logger
}

// New builds a filter. captureTool is the one tool invocation kept as
// dialogue — its invocations are developer-authored content, not noise.
func New(captureTool string, logger *slog.Logger) *Filter {
	return &Filter{captureTool: captureTool, logger: logger}
}

// Apply runs the classification over records in order, returning the kept
// dialogue plus the per-reason drop counts.
func (f *Filter) Apply(records []transcript.Record) ([]Message, Stats) {
	stats := newStats()
	var msgs []Message

	for _, rec := range records {
		msg, reason, kept := f.classify(rec)
		if !kept {
			stats.drop(reason)
			continue
		}
		stats.keep()
		msgs = append(msgs, msg)
	}

	f.logger.Debug("noise filter applied",
		"total", stats.Total,
		"kept", stats.Kept,
		"dropped", stats.Dropped,
	)

	return msgs, stats
}

// classify applies the drop rules in order; the first matching rule decides
// which reason bucket the record lands in.
func (f *Filter) classify(rec transcript.Record) (Message, DropReason, bool) {
	if rec.Type == "" {
		return Message{}, DropNoType, false
	}
	if rec.Type != "user" && rec.Type != "assistant" {
		return Message{}, DropWrongType, false
	}
	if rec.IsMeta {
		return Message{}, DropMeta, false
	}

	if s, ok := rec.StringContent(); ok {
		if strings.TrimSpace(s) == "" {
			return Message{}, DropEmptyContent, false
		}
		return Message{
			UUID:      rec.UUID,
			SessionID: rec.SessionID,
			Role:      rec.Type,
			Timestamp: rec.Timestamp,
			Text:      s,
		}, "", true
	}

	blocks, ok := rec.Blocks()
	if !ok {
		return Message{}, DropEmptyContent, false
	}

	isCapture := false
	if hasToolUse(blocks) {
		if !allToolUseAre(blocks, f.captureTool) {
			return Message{}, DropToolUse, false
		}
		isCapture = true
	}

	// Tool output is never dialogue, even alongside an exempted invocation.
	for _, b := range blocks {
		if b.Type == "tool_result" {
			return Message{}, DropToolResult, false
		}
	}

	text := joinTextBlocks(blocks)
	if text == "" {
		return Message{}, DropEmptyContent, false
	}

	return Message{
		UUID:      rec.UUID,
		SessionID: rec.SessionID,
		Role:      rec.Type,
		Timestamp: rec.Timestamp,
		Text:      text,
		IsCapture: isCapture,
	}, "", true
}

func hasToolUse(blocks []transcript.Block) bool {
	for _, b := range blocks {
		if b.Type == "tool_use" {
			return true
		}
	}
	return false
}

func allToolUseAre(blocks []transcript.Block, name string) bool {
	for _, b := range blocks {
		if b.Type == "tool_use" && b.Name != name {
			return false
		}
	}
	return true
}

func joinTextBlocks(blocks []transcript.Block) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
