package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commitstory-dev/commitstory/internal/hook"
)

var hookForce bool

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the post-commit git hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a post-commit hook that generates a journal entry after each commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := hook.Install(cfg.RepoPath, hookForce); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "post-commit hook installed")
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the commitstory post-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := hook.Uninstall(cfg.RepoPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "post-commit hook removed")
		return nil
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the commitstory post-commit hook is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ok, err := hook.Installed(cfg.RepoPath)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(cmd.OutOrStdout(), "installed")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "not installed")
		}
		return nil
	},
}

func init() {
	hookInstallCmd.Flags().BoolVar(&hookForce, "force", false, "overwrite an existing post-commit hook")
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
}
