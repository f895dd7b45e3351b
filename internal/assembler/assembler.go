// Package assembler correlates one commit with the session dialogue recorded
// while it was being made, then filters, bounds, and redacts the result into
// a single Bundle for the generation stage.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/commitstory-dev/commitstory/internal/budget"
	"github.com/commitstory-dev/commitstory/internal/filter"
	"github.com/commitstory-dev/commitstory/internal/git"
	"github.com/commitstory-dev/commitstory/internal/redact"
	"github.com/commitstory-dev/commitstory/internal/transcript"
)

// fallbackWindow bounds the lookback for a root commit, which has no
// predecessor timestamp to anchor the window start.
const fallbackWindow = 24 * time.Hour

// CommitSource is the slice of git the assembler needs.
type CommitSource interface {
	Commit(ctx context.Context, ref string) (*git.Commit, error)
	PrevCommitTime(ctx context.Context, ref string) (time.Time, error)
}

// SessionSource is the slice of the transcript collector the assembler needs.
type SessionSource interface {
	Collect(repoPath string, w transcript.Window) (transcript.Result, error)
}

// Options carries the assembly knobs.
type Options struct {
	RepoPath    string
	TotalBudget int
	DiffBudget  int
	ChatBudget  int
}

// Assembler sequences the context pipeline. All collaborators are injected;
// it holds no global state.
type Assembler struct {
	commits  CommitSource
	sessions SessionSource
	noise    *filter.Filter
	redactor *redact.Engine
	opts     Options
	logger   *slog.Logger
}

func New(commits CommitSource, sessions SessionSource, noise *filter.Filter, redactor *redact.Engine, opts Options, logger *slog.Logger) *Assembler {
	return &Assembler{
		commits:  commits,
		sessions: sessions,
		noise:    noise,
		redactor: redactor,
		opts:     opts,
		logger:   logger,
	}
}

// Assemble builds the bundle for ref. Only commit-fetch failures return an
// error; every downstream stage degrades rather than aborting.
func (a *Assembler) Assemble(ctx context.Context, ref string) (*Bundle, error) {
	runID := uuid.NewString()
	log := a.logger.With("run_id", runID, "ref", ref)

	// The commit and its predecessor's timestamp have no data dependency.
	var (
		commit   *git.Commit
		prevTime time.Time
		hasPrev  bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := a.commits.Commit(gctx, ref)
		if err != nil {
			return fmt.Errorf("fetch commit %s: %w", ref, err)
		}
		commit = c
		return nil
	})
	g.Go(func() error {
		t, err := a.commits.PrevCommitTime(gctx, ref)
		if err != nil {
			if errors.Is(err, git.ErrNoParent) {
				return nil // root commit: fall back to a fixed window
			}
			return fmt.Errorf("fetch predecessor time: %w", err)
		}
		prevTime = t
		hasPrev = true
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	window := transcript.Window{Start: prevTime, End: commit.Timestamp}
	if !hasPrev {
		window.Start = commit.Timestamp.Add(-fallbackWindow)
	}

	var degraded []string

	// Collect. An unreadable log store degrades to an empty chat rather than
	// failing the commit's journal entry.
	collected, err := a.sessions.Collect(a.opts.RepoPath, window)
	if err != nil {
		log.Warn("session collection failed, continuing without chat", "error", err)
		degraded = append(degraded, "collect")
		collected = transcript.Result{}
	}

	// Filter.
	var (
		msgs  []filter.Message
		stats filter.Stats
	)
	a.runStage(log, "filter", &degraded, func() {
		msgs, stats = a.noise.Apply(collected.Records)
	})

	log.Info("context collected",
		"records", len(collected.Records),
		"messages", len(msgs),
		"sessions", len(collected.Sessions),
		"window_start", window.Start,
		"window_end", window.End,
	)

	// Budget.
	diff := commit.Diff
	var info BudgetInfo
	a.runStage(log, "budget", &degraded, func() {
		var dr budget.DiffResult
		diff, dr = budget.TruncateDiff(diff, a.opts.DiffBudget)

		var mr budget.DialogueResult
		msgs, mr = budget.TruncateDialogue(msgs, a.opts.ChatBudget)

		info = BudgetInfo{
			DiffTruncated:      dr.Truncated,
			MessagesTruncated:  mr.Truncated,
			DiffOriginalTokens: dr.OriginalTokens,
			DiffFinalTokens:    dr.FinalTokens,
			OriginalCount:      mr.OriginalCount,
			PreservedCount:     mr.PreservedCount,
		}
	})

	// Redact.
	finalCommit := *commit
	finalCommit.Diff = diff
	var (
		redactions map[string]int
		bySite     map[string]map[string]int
	)
	a.runStage(log, "redact", &degraded, func() {
		var all []redact.Record
		site := func(name string, recs []redact.Record) {
			all = append(all, recs...)
			if counts := redact.CountByCategory(recs); counts != nil {
				if bySite == nil {
					bySite = make(map[string]map[string]int)
				}
				bySite[name] = counts
			}
		}

		text, recs := a.redactor.Text(finalCommit.Diff)
		finalCommit.Diff = text
		site("diff", recs)

		text, recs = a.redactor.Text(finalCommit.Message)
		finalCommit.Message = text
		site("commit_message", recs)

		msgs, recs = a.redactor.Messages(msgs)
		site("dialogue", recs)

		redactions = redact.CountByCategory(all)
	})

	estimate := budget.Estimate(commitHeader(&finalCommit)) +
		budget.Estimate(finalCommit.Diff) +
		budget.Estimate(budget.FormatDialogue(msgs))
	if a.opts.TotalBudget > 0 && estimate > a.opts.TotalBudget {
		// Sub-budgets already bounded the parts; the combined estimate can
		// still exceed the overall target when the commit metadata is large.
		log.Warn("bundle exceeds total budget", "estimate", estimate, "total_budget", a.opts.TotalBudget)
	}

	groups := groupMessages(msgs)

	bundle := &Bundle{
		Commit: &finalCommit,
		Chat: Chat{
			Messages:     msgs,
			Sessions:     groups,
			MessageCount: len(msgs),
			SessionCount: len(groups),
		},
		Metadata: Metadata{
			RunID:         runID,
			Window:        window,
			TokenEstimate: estimate,
			FilterStats:   stats,
			Budget:        info,
			Redactions:    redactions,
			RedactionSite: bySite,
			Degraded:      degraded,
		},
	}

	log.Info("bundle assembled",
		"token_estimate", estimate,
		"diff_truncated", info.DiffTruncated,
		"messages_truncated", info.MessagesTruncated,
		"redactions", len(redactions),
		"degraded", degraded,
	)

	return bundle, nil
}

// runStage executes one filtering stage under a recover guard. A panicking
// stage leaves its input untouched and is reported in metadata instead of
// aborting the assembly.
func (a *Assembler) runStage(log *slog.Logger, name string, degraded *[]string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline stage failed, passing input through", "stage", name, "panic", r)
			*degraded = append(*degraded, name)
		}
	}()
	fn()
}

// commitHeader serializes the commit metadata the way it is rendered into
// the prompt, for the overall token estimate.
func commitHeader(c *git.Commit) string {
	return fmt.Sprintf("commit %s\nAuthor: %s <%s>\nDate: %s\n\n%s\n",
		c.Hash, c.Author, c.AuthorEmail, c.Timestamp.Format(time.RFC3339), c.Message)
}
