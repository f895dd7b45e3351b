package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNotRepository indicates the configured path is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// ErrBadRef indicates the requested reference does not resolve to a commit.
var ErrBadRef = errors.New("unknown revision")

// ErrNoParent indicates the commit has no predecessor (root commit).
// Callers treat this as a valid outcome, not a failure.
var ErrNoParent = errors.New("commit has no parent")

// Commit holds one commit's metadata plus its unified diff.
type Commit struct {
	Hash        string
	ShortHash   string
	Subject     string
	Message     string
	Author      string
	AuthorEmail string
	Timestamp   time.Time
	Diff        string
	IsMerge     bool
	ParentCount int
}

// Repo is a handle to a local git repository. All methods shell out to git
// with the repo path pinned via -C.
type Repo struct {
	path string
}

func Open(path string) *Repo {
	return &Repo{path: path}
}

func (r *Repo) Path() string { return r.path }

// metaFormat uses NUL separators so commit messages with newlines survive splitting.
const metaFormat = "%H%x00%h%x00%s%x00%B%x00%an%x00%ae%x00%aI%x00%P"

// Commit returns the metadata and diff for a single reference.
func (r *Repo) Commit(ctx context.Context, ref string) (*Commit, error) {
	meta, err := r.run(ctx, "show", "-s", "--format="+metaFormat, ref)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(meta, "\x00")
	if len(parts) < 8 {
		return nil, fmt.Errorf("unexpected git show output for %s", ref)
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[6]))
	if err != nil {
		return nil, fmt.Errorf("parse commit timestamp: %w", err)
	}

	parents := strings.Fields(strings.TrimSpace(parts[7]))

	diff, err := r.run(ctx, "show", "--format=", ref)
	if err != nil {
		return nil, err
	}

	return &Commit{
		Hash:        parts[0],
		ShortHash:   parts[1],
		Subject:     parts[2],
		Message:     strings.TrimSpace(parts[3]),
		Author:      parts[4],
		AuthorEmail: parts[5],
		Timestamp:   ts,
		Diff:        diff,
		IsMerge:     len(parents) > 1,
		ParentCount: len(parents),
	}, nil
}

// PrevCommitTime returns the author timestamp of ref's first parent.
// Returns ErrNoParent for a root commit.
func (r *Repo) PrevCommitTime(ctx context.Context, ref string) (time.Time, error) {
	out, err := r.run(ctx, "show", "-s", "--format=%aI", ref+"^")
	if err != nil {
		if errors.Is(err, ErrBadRef) {
			return time.Time{}, ErrNoParent
		}
		return time.Time{}, err
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(out))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse parent timestamp: %w", err)
	}
	return ts, nil
}

// Head returns the hash the repository's HEAD currently points at.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", r.path}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		switch {
		case strings.Contains(msg, "not a git repository"):
			return "", fmt.Errorf("%w: %s", ErrNotRepository, r.path)
		case strings.Contains(msg, "unknown revision") || strings.Contains(msg, "bad revision"):
			return "", fmt.Errorf("%w: git %s", ErrBadRef, strings.Join(args, " "))
		default:
			return "", fmt.Errorf("git %s: %v: %s", args[0], err, strings.TrimSpace(msg))
		}
	}

	return stdout.String(), nil
}
