package assembler

import (
	"github.com/commitstory-dev/commitstory/internal/filter"
	"github.com/commitstory-dev/commitstory/internal/git"
	"github.com/commitstory-dev/commitstory/internal/transcript"
)

// Bundle is the pipeline's final output: one commit's evidence, cleaned,
// bounded, and redacted. Constructed once; downstream consumers treat it as
// read-only.
type Bundle struct {
	Commit   *git.Commit
	Chat     Chat
	Metadata Metadata
}

// Chat holds the surviving dialogue, flat and grouped by session.
type Chat struct {
	Messages     []filter.Message
	Sessions     []SessionDialogue
	MessageCount int
	SessionCount int
}

// SessionDialogue is one session's kept messages, chronologically sorted.
// An ordered slice rather than a map — consumers iterate deterministically.
type SessionDialogue struct {
	SessionID string
	Messages  []filter.Message
}

// BudgetInfo records what the budget enforcer did.
type BudgetInfo struct {
	DiffTruncated      bool `json:"diff_truncated"`
	MessagesTruncated  bool `json:"messages_truncated"`
	DiffOriginalTokens int  `json:"diff_original_tokens"`
	DiffFinalTokens    int  `json:"diff_final_tokens"`
	OriginalCount      int  `json:"original_count"`
	PreservedCount     int  `json:"preserved_count"`
}

// Metadata aggregates per-run bookkeeping for audit and debugging.
type Metadata struct {
	RunID         string                    `json:"run_id"`
	Window        transcript.Window         `json:"time_window"`
	TokenEstimate int                       `json:"token_estimate"`
	FilterStats   filter.Stats              `json:"filter_stats"`
	Budget        BudgetInfo                `json:"token_budget"`
	Redactions    map[string]int            `json:"redaction_counts,omitempty"`
	RedactionSite map[string]map[string]int `json:"redaction_counts_by_site,omitempty"`
	Degraded      []string                  `json:"degraded,omitempty"`
}

// groupMessages rebuilds ordered per-session groups from the final message
// list, ordered by each session's first message.
func groupMessages(msgs []filter.Message) []SessionDialogue {
	var groups []SessionDialogue
	index := make(map[string]int)
	for _, m := range msgs {
		i, ok := index[m.SessionID]
		if !ok {
			i = len(groups)
			index[m.SessionID] = i
			groups = append(groups, SessionDialogue{SessionID: m.SessionID})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	return groups
}
