// Package redact masks secret-shaped substrings before any text leaves the
// machine. Best-effort pattern matching — it narrows exposure, it is not a
// security boundary.
package redact

import (
	"regexp"

	"github.com/commitstory-dev/commitstory/internal/filter"
)

// Placeholder replaces every match. It matches none of the categories, which
// makes redaction idempotent.
const Placeholder = "[REDACTED]"

// Record notes one redaction without retaining the matched value.
type Record struct {
	Category    string
	MatchLength int
}

type category struct {
	name string
	re   *regexp.Regexp
}

// Category order matters: specific shapes run before generic assignment
// patterns so a full "api_key": "..." match is consumed whole rather than
// partially eaten by a broader rule.
var categories = []category{
	{"api_key_assignment", regexp.MustCompile(`(?i)["']?api[_-]?key["']?\s*[:=]\s*["'][^"']{8,}["']`)},
	{"aws_access_key", regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{"aws_secret_key", regexp.MustCompile(`(?i)aws[_-]?secret[\w-]*\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`)},
	{"private_key_block", regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)},
	{"jwt_token", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]+`)},
	{"anthropic_key", regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{10,}`)},
	{"openai_key", regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`)},
	{"github_token", regexp.MustCompile(`\b(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36,}\b|\bgithub_pat_[A-Za-z0-9_]{22,}\b`)},
	{"slack_token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)},
	{"google_api_key", regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`)},
	{"generic_secret", regexp.MustCompile(`(?i)["']?(?:password|passwd|secret|token)["']?\s*[:=]\s*["'][^"']{6,}["']`)},
	{"bearer_header", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{20,}`)},
}

var emailCategory = category{
	"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
}

// Engine scans text against the ordered category list.
type Engine struct {
	categories []category
}

// New builds an engine. Email redaction is opt-in — commit authorship already
// exposes addresses, so masking them is a policy choice, not a default.
func New(redactEmails bool) *Engine {
	cats := categories
	if redactEmails {
		cats = append(append([]category{}, categories...), emailCategory)
	}
	return &Engine{categories: cats}
}

// Text redacts one string. Each category produces a fresh match list and is
// fully replaced before the next category runs.
func (e *Engine) Text(text string) (string, []Record) {
	var records []Record
	for _, cat := range e.categories {
		matches := cat.re.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			records = append(records, Record{Category: cat.name, MatchLength: m[1] - m[0]})
		}
		text = cat.re.ReplaceAllString(text, Placeholder)
	}
	return text, records
}

// Messages redacts every message's text, returning a new slice and the
// combined records.
func (e *Engine) Messages(msgs []filter.Message) ([]filter.Message, []Record) {
	if len(msgs) == 0 {
		return msgs, nil
	}
	out := make([]filter.Message, len(msgs))
	var all []Record
	for i, msg := range msgs {
		text, recs := e.Text(msg.Text)
		msg.Text = text
		out[i] = msg
		all = append(all, recs...)
	}
	return out, all
}

// CountByCategory folds records into per-category counts.
func CountByCategory(records []Record) map[string]int {
	if len(records) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Category]++
	}
	return counts
}
