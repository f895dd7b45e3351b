package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "COMMITSTORY_MODEL", "COMMITSTORY_LOG_LEVEL",
		"COMMITSTORY_TOTAL_BUDGET", "COMMITSTORY_DIFF_BUDGET", "COMMITSTORY_CHAT_BUDGET",
		"COMMITSTORY_REDACT_EMAILS", "COMMITSTORY_CAPTURE_TOOL", "COMMITSTORY_CLAUDE_DIR",
		"COMMITSTORY_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg := Load(dir)

	if cfg.RepoPath != dir {
		t.Errorf("repo path = %q, want %q", cfg.RepoPath, dir)
	}
	if cfg.TotalBudget != 150000 {
		t.Errorf("total budget = %d, want 150000", cfg.TotalBudget)
	}
	if cfg.DiffBudget != 50000 {
		t.Errorf("diff budget = %d, want 50000", cfg.DiffBudget)
	}
	if cfg.ChatBudget != 80000 {
		t.Errorf("chat budget = %d, want 80000", cfg.ChatBudget)
	}
	if cfg.RedactEmails {
		t.Error("redact emails should default to false")
	}
	if cfg.CaptureTool != "journal_add_reflection" {
		t.Errorf("capture tool = %q", cfg.CaptureTool)
	}
	if cfg.JournalDir != filepath.Join(dir, "journal") {
		t.Errorf("journal dir = %q", cfg.JournalDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yaml := "diff_budget: 1000\nchat_budget: 2000\nredact_emails: true\ncapture_tool: custom_capture\n"
	if err := os.WriteFile(filepath.Join(dir, ".commitstory.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Load(dir)

	if cfg.DiffBudget != 1000 {
		t.Errorf("diff budget = %d, want 1000", cfg.DiffBudget)
	}
	if cfg.ChatBudget != 2000 {
		t.Errorf("chat budget = %d, want 2000", cfg.ChatBudget)
	}
	if !cfg.RedactEmails {
		t.Error("redact emails should be true from file")
	}
	if cfg.CaptureTool != "custom_capture" {
		t.Errorf("capture tool = %q, want custom_capture", cfg.CaptureTool)
	}
	// Untouched keys keep defaults.
	if cfg.TotalBudget != 150000 {
		t.Errorf("total budget = %d, want 150000", cfg.TotalBudget)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yaml := "diff_budget: 1000\n"
	if err := os.WriteFile(filepath.Join(dir, ".commitstory.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("COMMITSTORY_DIFF_BUDGET", "777")
	t.Setenv("COMMITSTORY_REDACT_EMAILS", "true")

	cfg := Load(dir)

	if cfg.DiffBudget != 777 {
		t.Errorf("diff budget = %d, want 777 (env wins)", cfg.DiffBudget)
	}
	if !cfg.RedactEmails {
		t.Error("redact emails should be true from env")
	}
}

func TestLoad_MalformedFileFallsBack(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, ".commitstory.yaml"), []byte("{not yaml::"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Load(dir)
	if cfg.DiffBudget != 50000 {
		t.Errorf("diff budget = %d, want default 50000", cfg.DiffBudget)
	}
}
