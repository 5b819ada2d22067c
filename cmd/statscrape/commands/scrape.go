package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/statscrape/cmd/statscrape/driver"
	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/internal/output"
	"github.com/jmylchreest/statscrape/internal/table"
)

func runScrape(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := loadSettings(viper.GetViper())
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}
	logger.Debug("settings loaded",
		"url", s.URL,
		"output", s.Output,
		"format", s.Format,
		"backend", s.Browser.Backend,
		"max_pages", s.Table.MaxPages)

	h, err := driver.Open(ctx, s.Browser, driver.WithTarget(s.URL, s.Table))
	if err != nil {
		logger.Error("failed to acquire browser", "backend", s.Browser.Backend, "error", err)
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.Warn("error closing browser", "error", err)
		}
	}()

	scraper, err := table.New(h, s.Table, table.WithPageHook(func(page int, records []table.Record) {
		logInfo("Page %d: %d players", page, len(records))
	}))
	if err != nil {
		logger.Error("failed to create scraper", "error", err)
		return err
	}

	logInfo("Scraping %s (%s backend)", s.URL, h.Backend())
	result, err := scraper.Run(ctx, s.URL)
	if err != nil {
		logger.Error("scrape failed", "url", s.URL, "error", err)
		return err
	}
	if result.Partial() {
		logger.Warn("scrape stopped early",
			"reason", string(result.StopReason),
			"pages_scraped", result.PagesScraped,
			"total_pages", result.TotalPages)
	}

	path, err := output.Save(s.Output, s.Format, result.Records)
	if errors.Is(err, output.ErrNothingToWrite) {
		logger.Warn("no records scraped, nothing written", "url", s.URL)
		printSummary(cmd, result, "", 0)
		return nil
	}
	if err != nil {
		logger.Error("failed to write output", "path", s.Output, "error", err)
		return err
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	printSummary(cmd, result, path, size)
	return nil
}

// printSummary writes the run outcome to stdout.
func printSummary(cmd *cobra.Command, result table.Result, path string, size int64) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scraped %s records from %d/%d pages in %s\n",
		humanize.Comma(int64(len(result.Records))),
		result.PagesScraped,
		result.TotalPages,
		result.Duration.Round(time.Millisecond))
	if result.SkippedRows > 0 {
		fmt.Fprintf(out, "Skipped %d malformed rows\n", result.SkippedRows)
	}
	if len(result.StalledPages) > 0 {
		fmt.Fprintf(out, "Pages with no rows: %v\n", result.StalledPages)
	}
	if result.Partial() {
		fmt.Fprintf(out, "Stopped early: %s\n", result.StopReason)
	}
	if path != "" {
		fmt.Fprintf(out, "Saved to %s (%s)\n", path, humanize.Bytes(uint64(size)))
	}
}
