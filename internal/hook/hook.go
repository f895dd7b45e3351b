// Package hook installs the post-commit hook that triggers journal
// generation after every commit.
package hook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// marker identifies a hook we wrote; foreign hooks are never touched
// without --force.
const marker = "# managed by commitstory"

var (
	ErrNotInstalled = errors.New("commitstory hook is not installed")
	ErrForeignHook  = errors.New("a post-commit hook not managed by commitstory already exists")
)

const script = `#!/bin/sh
` + marker + `
# Generation runs in the background so commits stay fast.
commitstory generate --ref HEAD >/dev/null 2>&1 &
`

func hookPath(repoPath string) string {
	return filepath.Join(repoPath, ".git", "hooks", "post-commit")
}

// Install writes the post-commit hook. An existing foreign hook is refused
// unless force is set.
func Install(repoPath string, force bool) error {
	path := hookPath(repoPath)

	if data, err := os.ReadFile(path); err == nil {
		if !strings.Contains(string(data), marker) && !force {
			return fmt.Errorf("%w at %s", ErrForeignHook, path)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read existing hook: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create hooks dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return fmt.Errorf("write hook: %w", err)
	}
	return nil
}

// Uninstall removes our hook. Foreign hooks are left alone.
func Uninstall(repoPath string) error {
	path := hookPath(repoPath)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInstalled
		}
		return fmt.Errorf("read hook: %w", err)
	}
	if !strings.Contains(string(data), marker) {
		return fmt.Errorf("%w at %s", ErrForeignHook, path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove hook: %w", err)
	}
	return nil
}

// Installed reports whether our hook is present.
func Installed(repoPath string) (bool, error) {
	data, err := os.ReadFile(hookPath(repoPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return strings.Contains(string(data), marker), nil
}
