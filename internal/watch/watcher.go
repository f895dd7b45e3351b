// Package watch regenerates the journal when HEAD moves, for people who
// prefer a long-running watcher over a git hook.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// HeadSource resolves the repository's current HEAD.
type HeadSource interface {
	Head(ctx context.Context) (string, error)
}

// GenerateFunc runs the journal pipeline for one reference.
type GenerateFunc func(ctx context.Context, ref string) error

// Watcher tails .git/logs/HEAD and triggers generation on new commits.
type Watcher struct {
	repoPath string
	head     HeadSource
	generate GenerateFunc
	debounce time.Duration
	logger   *slog.Logger
}

func New(repoPath string, head HeadSource, generate GenerateFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		repoPath: repoPath,
		head:     head,
		generate: generate,
		debounce: defaultDebounce,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, generating an entry each time HEAD
// advances to a hash the state file has not seen.
func (w *Watcher) Run(ctx context.Context) error {
	state, err := LoadState(w.repoPath)
	if err != nil {
		return fmt.Errorf("load watch state: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory, not the file — git replaces the log file on some
	// operations, which would silently detach a file-level watch.
	logsDir := filepath.Join(w.repoPath, ".git", "logs")
	if err := fw.Add(logsDir); err != nil {
		return fmt.Errorf("watch %s: %w", logsDir, err)
	}

	w.logger.Info("watching for commits", "dir", logsDir)

	// Catch a commit made while the watcher was down.
	w.check(ctx, state)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != "HEAD" {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// Debounce: git touches the log several times per commit.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.check(ctx, state)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// check compares HEAD against the state file and generates when it moved.
func (w *Watcher) check(ctx context.Context, state *State) {
	hash, err := w.head.Head(ctx)
	if err != nil {
		w.logger.Warn("failed to resolve HEAD", "error", err)
		return
	}
	if state.Seen(hash) {
		return
	}

	w.logger.Info("new commit detected", "hash", hash)
	if err := w.generate(ctx, hash); err != nil {
		w.logger.Error("generation failed", "hash", hash, "error", err)
		return
	}

	if err := state.Mark(hash); err != nil {
		w.logger.Warn("failed to save watch state", "error", err)
	}
}
