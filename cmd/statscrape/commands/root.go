// Package commands implements the CLI commands for statscrape.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/statscrape/internal/version"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

const (
	defaultURL    = "https://theanalyst.com/competition/premier-league/stats"
	defaultOutput = "premier_league_attacking_stats.csv"
)

var rootCmd = &cobra.Command{
	Use:   "statscrape",
	Short: "Scrape paginated statistics tables into CSV",
	Long: `Statscrape walks every page of a rendered statistics table and saves the
rows as one flat file.

By default it reads the Premier League attacking stats table from
theanalyst.com with a local headless Chrome and writes
premier_league_attacking_stats.csv in the current directory.

Examples:
  # Default run
  statscrape

  # Use a remote Browserbase session (credentials from the environment).
  # STATSCRAPE_MODEL_ENDPOINT, if set, is only tagged onto the session
  # metadata and does not change scraping.
  BROWSERBASE_API_KEY=... BROWSERBASE_PROJECT_ID=... statscrape --backend browserbase

  # go-rod with stealth evasions, first three pages only, as JSON
  statscrape --backend rod --stealth --max-pages 3 -o stats.json

  # Skip the browser when the table is already in the served HTML
  statscrape --backend auto`,
	Version:      version.String(),
	SilenceUsage: true,
	RunE:         runScrape,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.statscrape.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))

	flags := rootCmd.Flags()

	// Target and output
	flags.StringP("url", "u", defaultURL, "page containing the statistics table")
	flags.StringP("output", "o", defaultOutput, "output file")
	flags.StringP("format", "f", "", "output format: csv, json, jsonl, yaml (default: from output extension)")

	// Backend
	defaults := browser.DefaultConfig()
	flags.StringP("backend", "b", defaults.Backend, "automation backend: chrome, rod, browserbase, static, auto")
	flags.Bool("headless", defaults.Headless, "run local browsers headless")
	flags.Bool("stealth", false, "enable anti-bot detection evasion for local browsers")
	flags.String("chrome-path", "", "Chrome/Chromium binary (default: auto-detect)")
	flags.String("proxy", "", "proxy URL for the browser")
	flags.String("user-agent", defaults.UserAgent, "user agent for local browsers")
	flags.Duration("timeout", defaults.Timeout, "per-operation browser timeout")
	flags.String("broker-url", "", "session broker API base URL (default: Browserbase)")

	// Pagination
	flags.Int("max-pages", 0, "max pages to scrape (0=all)")
	flags.Duration("page-interval", 0, "minimum delay between page advances")

	for key, name := range map[string]string{
		"url":           "url",
		"output":        "output",
		"format":        "format",
		"backend":       "backend",
		"headless":      "headless",
		"stealth":       "stealth",
		"chrome_path":   "chrome-path",
		"proxy":         "proxy",
		"user_agent":    "user-agent",
		"timeout":       "timeout",
		"broker_url":    "broker-url",
		"max_pages":     "max-pages",
		"page_interval": "page-interval",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".statscrape")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("STATSCRAPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Remote backend credentials are read once here and passed explicitly
	_ = viper.BindEnv("api_key", "STATSCRAPE_API_KEY", "BROWSERBASE_API_KEY")
	_ = viper.BindEnv("project_id", "STATSCRAPE_PROJECT_ID", "BROWSERBASE_PROJECT_ID")
	_ = viper.BindEnv("model_endpoint", "STATSCRAPE_MODEL_ENDPOINT")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logInfo prints a progress message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
