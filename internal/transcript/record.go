package transcript

import (
	"encoding/json"
	"time"
)

// Record is one line from a Claude Code session log, kept close to the wire
// shape. Content stays raw — the noise filter decides how to read it.
type Record struct {
	UUID       string
	ParentUUID string
	SessionID  string
	CWD        string
	Timestamp  time.Time
	Type       string
	Role       string
	Content    json.RawMessage
	IsMeta     bool
}

// Block is one element of a block-list content payload.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"` // tool name on tool_use blocks
}

// StringContent interprets the content payload as a plain string.
func (r Record) StringContent() (string, bool) {
	if r.Content == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// Blocks interprets the content payload as a content-block list.
func (r Record) Blocks() ([]Block, bool) {
	if r.Content == nil {
		return nil, false
	}
	var blocks []Block
	if err := json.Unmarshal(r.Content, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// logLine mirrors the JSONL wire format.
type logLine struct {
	UUID       string  `json:"uuid"`
	ParentUUID *string `json:"parentUuid"`
	SessionID  string  `json:"sessionId"`
	CWD        string  `json:"cwd"`
	Timestamp  string  `json:"timestamp"`
	Type       string  `json:"type"`
	IsMeta     bool    `json:"isMeta"`
	Message    struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// bookkeepingKinds are record types that carry no dialogue and are dropped
// before any further processing.
var bookkeepingKinds = map[string]bool{
	"file-history-snapshot": true,
	"progress":              true,
	"queued-input":          true,
	"system-metrics":        true,
	"summary":               true,
}

// parseLine decodes one JSONL line. Returns false for malformed lines,
// bookkeeping kinds, and records missing a uuid or timestamp — all of which
// are skipped without aborting the file.
func parseLine(data []byte) (Record, bool) {
	var line logLine
	if err := json.Unmarshal(data, &line); err != nil {
		return Record{}, false
	}

	if bookkeepingKinds[line.Type] {
		return Record{}, false
	}
	if line.UUID == "" || line.Timestamp == "" {
		return Record{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, line.Timestamp)
	if err != nil {
		return Record{}, false
	}

	rec := Record{
		UUID:      line.UUID,
		SessionID: line.SessionID,
		CWD:       line.CWD,
		Timestamp: ts,
		Type:      line.Type,
		Role:      line.Message.Role,
		Content:   line.Message.Content,
		IsMeta:    line.IsMeta,
	}
	if line.ParentUUID != nil {
		rec.ParentUUID = *line.ParentUUID
	}
	return rec, true
}
