package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adpace/adpace/internal/config"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration walkthrough",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Reruns keep prior answers, so start from whatever config exists.
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to adpace!")
	fmt.Println()
	if n := len(cfg.Accounts); n > 0 {
		fmt.Printf("  Found %d account(s) in the config.\n\n", n)
	}

	// 1. API endpoint
	fmt.Println("  1. Ads reporting API base URL")
	fmt.Println("     Leave blank to work from imported CSV exports only.")
	if cfg.API.BaseURL != "" {
		fmt.Printf("     Current: %s\n", cfg.API.BaseURL)
	}
	fmt.Print("     > ")
	baseURL, _ := reader.ReadString('\n')
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	fmt.Println()

	// 2. API key
	fmt.Println("  2. API key")
	fmt.Println("     Stored in the config file; ADPACE_API_KEY overrides it.")
	existing := config.GetAPIKey(cfg)
	if existing != "" {
		fmt.Printf("     Current key: %s\n", maskAPIKey(existing))
	}
	fmt.Print("     > ")
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)
	if apiKey != "" {
		cfg.API.APIKey = apiKey
	}
	fmt.Println()

	// 3. Forecast window
	fmt.Println("  3. Forecast window")
	fmt.Println("     (1) 3 days (reactive)")
	fmt.Println("     (2) 7 days [default]")
	fmt.Println("     (3) 14 days (smooth)")
	fmt.Print("     > ")
	choice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(choice) {
	case "1":
		cfg.Pacing.WMAWindowDays = 3
	case "3":
		cfg.Pacing.WMAWindowDays = 14
	default:
		cfg.Pacing.WMAWindowDays = 7
	}
	fmt.Println()

	// 4. Timezone handling
	fmt.Println("  4. Timezone for \"today\"")
	fmt.Println("     (1) One fixed zone for all accounts [default]")
	fmt.Println("     (2) Each account's own zone")
	fmt.Print("     > ")
	tzChoice, _ := reader.ReadString('\n')
	if strings.TrimSpace(tzChoice) == "2" {
		cfg.Pacing.TimezoneMode = config.TimezoneModeAccount
	} else {
		cfg.Pacing.TimezoneMode = config.TimezoneModeFixed
		fmt.Printf("     Fixed zone (IANA name) [%s]\n", cfg.Pacing.Timezone)
		fmt.Print("     > ")
		zone, _ := reader.ReadString('\n')
		zone = strings.TrimSpace(zone)
		if zone != "" {
			if _, err := time.LoadLocation(zone); err != nil {
				fmt.Printf("     Unknown zone %q, keeping %s\n", zone, cfg.Pacing.Timezone)
			} else {
				cfg.Pacing.Timezone = zone
			}
		}
	}
	fmt.Println()

	// 5. Default monthly budget
	fmt.Println("  5. Default monthly budget")
	fmt.Println("     Used for accounts without their own monthly_budget. Blank keeps none.")
	fmt.Print("     > ")
	budgetStr, _ := reader.ReadString('\n')
	budgetStr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(budgetStr), "$"))
	if budgetStr != "" {
		if budget, err := strconv.ParseFloat(budgetStr, 64); err == nil && budget >= 0 {
			cfg.Pacing.DefaultMonthlyBudget = &budget
		} else {
			fmt.Println("     Not a number, skipping.")
		}
	}
	fmt.Println()

	// 6. Theme
	fmt.Println("  6. Color theme")
	fmt.Println("     (1) flexoki-dark [default]")
	fmt.Println("     (2) catppuccin-mocha")
	fmt.Println("     (3) nord")
	fmt.Println("     (4) terminal (plain ANSI)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(themeChoice) {
	case "2":
		cfg.Appearance.Theme = "catppuccin-mocha"
	case "3":
		cfg.Appearance.Theme = "nord"
	case "4":
		cfg.Appearance.Theme = "terminal"
	default:
		cfg.Appearance.Theme = "flexoki-dark"
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Wrote %s\n", config.ConfigPath())
	if len(cfg.Accounts) == 0 {
		fmt.Println()
		fmt.Println("  Next, add accounts to track:")
		fmt.Println()
		fmt.Println("    [accounts.acct-1001]")
		fmt.Println("    name = \"Acme Search\"")
		fmt.Println("    monthly_budget = 5000.0")
	}
	fmt.Println("  Run `adpace setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func maskAPIKey(key string) string {
	switch {
	case len(key) > 14:
		return key[:6] + "..." + key[len(key)-4:]
	case len(key) > 4:
		return key[:4] + "..."
	default:
		return "****"
	}
}
