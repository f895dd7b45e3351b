package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Defaults for the token sub-budgets. The estimator deliberately
// overestimates, so these are ceilings, not targets.
const (
	DefaultTotalBudget = 150000
	DefaultDiffBudget  = 50000
	DefaultChatBudget  = 80000
)

// DefaultCaptureTool is the one tool invocation the noise filter keeps:
// reflections the developer dictated into the journal mid-session.
const DefaultCaptureTool = "journal_add_reflection"

type Config struct {
	RepoPath     string `mapstructure:"repo_path"`
	JournalDir   string `mapstructure:"journal_dir"`
	TotalBudget  int    `mapstructure:"total_budget"`
	DiffBudget   int    `mapstructure:"diff_budget"`
	ChatBudget   int    `mapstructure:"chat_budget"`
	RedactEmails bool   `mapstructure:"redact_emails"`
	CaptureTool  string `mapstructure:"capture_tool"`
	ClaudeDir    string `mapstructure:"claude_dir"`

	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"`

	LogLevel  string `mapstructure:"log_level"`
	ServePort int    `mapstructure:"serve_port"`
}

// Load builds the configuration: defaults first, then an optional
// .commitstory.yaml at the repo root, then environment overrides.
func Load(repoPath string) Config {
	if repoPath == "" {
		repoPath, _ = os.Getwd()
	}

	cfg := Config{
		RepoPath:       repoPath,
		JournalDir:     filepath.Join(repoPath, "journal"),
		TotalBudget:    DefaultTotalBudget,
		DiffBudget:     DefaultDiffBudget,
		ChatBudget:     DefaultChatBudget,
		RedactEmails:   false,
		CaptureTool:    DefaultCaptureTool,
		ClaudeDir:      defaultClaudeDir(),
		AnthropicModel: "claude-sonnet-4-20250514",
		LogLevel:       "info",
		ServePort:      8470,
	}

	// A missing or broken config file is fine — defaults plus env still apply.
	_ = loadFile(filepath.Join(repoPath, ".commitstory.yaml"), &cfg)

	cfg.AnthropicAPIKey = envStr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envStr("COMMITSTORY_MODEL", cfg.AnthropicModel)
	cfg.LogLevel = envStr("COMMITSTORY_LOG_LEVEL", cfg.LogLevel)
	cfg.TotalBudget = envInt("COMMITSTORY_TOTAL_BUDGET", cfg.TotalBudget)
	cfg.DiffBudget = envInt("COMMITSTORY_DIFF_BUDGET", cfg.DiffBudget)
	cfg.ChatBudget = envInt("COMMITSTORY_CHAT_BUDGET", cfg.ChatBudget)
	cfg.RedactEmails = envBool("COMMITSTORY_REDACT_EMAILS", cfg.RedactEmails)
	cfg.CaptureTool = envStr("COMMITSTORY_CAPTURE_TOOL", cfg.CaptureTool)
	cfg.ClaudeDir = envStr("COMMITSTORY_CLAUDE_DIR", cfg.ClaudeDir)
	cfg.ServePort = envInt("COMMITSTORY_PORT", cfg.ServePort)

	return cfg
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func defaultClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
