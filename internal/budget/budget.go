// Package budget keeps the assembled context under fixed token ceilings.
// Token counts are estimated, never measured — the estimator only ever
// overestimates, so a passing budget here can't overflow the real prompt.
package budget

import (
	"fmt"
	"math"
	"strings"

	"github.com/commitstory-dev/commitstory/internal/filter"
)

// charsPerToken is a conservative chars-to-tokens ratio for code-heavy text.
const charsPerToken = 3.5

// fileBoundary marks the start of a per-file section in a unified diff.
const fileBoundary = "\ndiff --git "

// noticeReserve is slack held back from the character target so the
// truncation notice never pushes the output past the original size.
const noticeReserve = 200

// Estimate returns the estimated token count for text.
func Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / charsPerToken))
}

// DiffResult reports what diff truncation did.
type DiffResult struct {
	Truncated      bool
	OriginalTokens int
	FinalTokens    int
}

// TruncateDiff cuts diff down to tokenBudget estimated tokens. The cut
// prefers the last file boundary in the kept region, so the output ends on a
// whole file's diff whenever that boundary falls past the midpoint.
func TruncateDiff(diff string, tokenBudget int) (string, DiffResult) {
	original := Estimate(diff)
	if original <= tokenBudget {
		return diff, DiffResult{OriginalTokens: original, FinalTokens: original}
	}

	target := int(float64(tokenBudget) * charsPerToken)
	if target > noticeReserve {
		target -= noticeReserve
	}
	if target > len(diff) {
		target = len(diff)
	}

	cut := diff[:target]
	if idx := strings.LastIndex(cut, fileBoundary); idx > target/2 {
		cut = cut[:idx]
	}

	cut += fmt.Sprintf("\n\n[diff truncated: showing ~%d of ~%d estimated tokens]\n",
		Estimate(cut), original)

	return cut, DiffResult{
		Truncated:      true,
		OriginalTokens: original,
		FinalTokens:    Estimate(cut),
	}
}

// DialogueResult reports what dialogue truncation did.
type DialogueResult struct {
	Truncated      bool
	OriginalCount  int
	PreservedCount int
}

// TruncateDialogue drops the oldest messages until the formatted transcript
// fits tokenBudget. The most recent message is never dropped: if even one
// message blows the budget, that one message is what remains.
func TruncateDialogue(msgs []filter.Message, tokenBudget int) ([]filter.Message, DialogueResult) {
	res := DialogueResult{OriginalCount: len(msgs), PreservedCount: len(msgs)}
	if Estimate(FormatDialogue(msgs)) <= tokenBudget {
		return msgs, res
	}

	kept := msgs
	for len(kept) > 1 && Estimate(FormatDialogue(kept)) > tokenBudget {
		kept = kept[1:]
	}

	res.Truncated = true
	res.PreservedCount = len(kept)
	return kept, res
}

// FormatDialogue renders messages as a role-prefixed plain-text transcript.
// This is the exact text the estimator and the generator both see.
func FormatDialogue(msgs []filter.Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case "user":
			sb.WriteString("Human: ")
		case "assistant":
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString(msg.Role + ": ")
		}
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
