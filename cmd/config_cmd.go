package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/adpace/adpace/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var (
	configInit bool
	configEdit bool
	configPath bool
)

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a default config file if none exists")
	configCmd.Flags().BoolVar(&configEdit, "edit", false, "Open the config file in $EDITOR")
	configCmd.Flags().BoolVar(&configPath, "path", false, "Print the config file path and exit")
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	if configPath {
		fmt.Println(config.ConfigPath())
		return nil
	}

	if configInit {
		if config.Exists() {
			fmt.Printf("  Config already exists: %s\n", config.ConfigPath())
			return nil
		}
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("  Wrote default config: %s\n", config.ConfigPath())
		return nil
	}

	if configEdit {
		if !config.Exists() {
			if err := config.Save(config.DefaultConfig()); err != nil {
				return err
			}
		}
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}
		edit := exec.Command(editor, config.ConfigPath()) //nolint:gosec // EDITOR is the user's own choice
		edit.Stdin = os.Stdin
		edit.Stdout = os.Stdout
		edit.Stderr = os.Stderr
		return edit.Run()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [api]")
	if cfg.API.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.API.BaseURL)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	apiKey := config.GetAPIKey(cfg)
	if apiKey != "" {
		fmt.Printf("    API key:  %s\n", maskAPIKey(apiKey))
	} else {
		fmt.Println("    API key:  not configured")
	}
	fmt.Printf("    Timeout:  %ds, %.1f req/s\n", cfg.API.TimeoutSeconds, cfg.API.RequestsPerSecond)
	fmt.Println()

	fmt.Println("  [pacing]")
	fmt.Printf("    WMA window:     %d days\n", cfg.Pacing.WMAWindowDays)
	fmt.Printf("    Timezone mode:  %s\n", cfg.Pacing.TimezoneMode)
	fmt.Printf("    Timezone:       %s\n", cfg.Pacing.Timezone)
	if cfg.Pacing.DefaultMonthlyBudget != nil {
		fmt.Printf("    Default budget: $%.0f\n", *cfg.Pacing.DefaultMonthlyBudget)
	} else {
		fmt.Println("    Default budget: not set")
	}
	fmt.Println()

	fmt.Println("  [daemon]")
	fmt.Printf("    Listen:  %s\n", cfg.Daemon.Listen)
	fmt.Printf("    Refresh: every %dm\n", cfg.Daemon.RefreshMinutes)
	fmt.Println()

	fmt.Println("  [appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	included := len(cfg.IncludedAccounts())
	fmt.Printf("  Accounts: %d configured, %d included\n", len(cfg.Accounts), included)
	fmt.Println()

	fmt.Println("  Run `adpace setup` to reconfigure.")
	return nil
}
