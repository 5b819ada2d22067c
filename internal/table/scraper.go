package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// ErrNavigate indicates the target page could not be loaded at all.
var ErrNavigate = errors.New("failed to load target page")

// StopReason explains why a run ended before the last page.
type StopReason string

const (
	StopNone          StopReason = ""               // All pages processed
	StopAdvanceFailed StopReason = "advance_failed" // Next control missing or click failed
	StopDuplicatePage StopReason = "duplicate_page" // Advance did not change the table
	StopCanceled      StopReason = "canceled"       // Context done mid-run
)

// Result is the outcome of one run. Records is in page order, then row
// order within each page.
type Result struct {
	URL              string
	Records          []Record
	TotalPages       int   // Pages reported by the indicator (after MaxPages)
	PagesScraped     int   // Pages whose rows were read
	StalledPages     []int // Pages where no row appeared before RowTimeout
	SkippedRows      int
	OverlayDismissed bool
	StopReason       StopReason
	Duration         time.Duration
}

// Partial reports whether the run stopped before reaching TotalPages.
func (r Result) Partial() bool {
	return r.StopReason != StopNone
}

// PageHook observes each page's records as soon as they are extracted.
type PageHook func(page int, records []Record)

// Option configures a Scraper.
type Option func(*Scraper)

// WithPageHook registers a callback invoked after every page.
func WithPageHook(hook PageHook) Option {
	return func(s *Scraper) {
		s.onPage = hook
	}
}

// Scraper walks every page of a table through one browser.Handle.
// A Scraper is not safe for concurrent use; it owns the handle's current
// page for the duration of Run.
type Scraper struct {
	handle  browser.Handle
	config  Config
	limiter *rate.Limiter
	onPage  PageHook
	log     *slog.Logger
}

// New creates a Scraper. The handle remains owned by the caller.
func New(h browser.Handle, cfg Config, opts ...Option) (*Scraper, error) {
	if h == nil {
		return nil, fmt.Errorf("handle is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scraper{
		handle: h,
		config: cfg,
		log:    logger.For("scraper"),
	}
	if cfg.PageInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.PageInterval), 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run scrapes every page reachable from targetURL. Only a failure to load
// targetURL is returned as an error; everything after that degrades into a
// shorter Result.
func (s *Scraper) Run(ctx context.Context, targetURL string) (Result, error) {
	start := time.Now()
	result := Result{URL: targetURL}

	s.log.Info("navigating", "url", targetURL, "backend", s.handle.Backend())
	if err := s.handle.Navigate(ctx, targetURL); err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("%w: %v", ErrNavigate, err)
	}
	s.waitForLoad(ctx)

	result.OverlayDismissed = DismissOverlay(ctx, s.handle, s.config)

	total := TotalPages(ctx, s.handle, s.config)
	if s.config.MaxPages > 0 && total > s.config.MaxPages {
		s.log.Info("limiting pages", "found", total, "max_pages", s.config.MaxPages)
		total = s.config.MaxPages
	}
	result.TotalPages = total
	s.log.Info("found pages of data", "total", total)

	var prevFirst *Record
	for page := 1; page <= total; page++ {
		if ctx.Err() != nil {
			result.StopReason = StopCanceled
			break
		}

		s.log.Info("scraping page", "page", page, "total", total)
		records, skipped := s.scrapePage(ctx, page, &result)

		if page > 1 && prevFirst != nil && len(records) > 0 && records[0] == *prevFirst {
			s.log.Warn("page repeats previous page, stopping", "page", page, "first_player", records[0].PlayerName)
			result.StopReason = StopDuplicatePage
			break
		}
		if len(records) > 0 {
			first := records[0]
			prevFirst = &first
		}

		result.Records = append(result.Records, records...)
		result.SkippedRows += skipped
		result.PagesScraped++
		s.log.Info("extracted players from page", "page", page, "count", len(records), "skipped", skipped)
		if s.onPage != nil {
			s.onPage(page, records)
		}

		if page < total {
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					result.StopReason = StopCanceled
					break
				}
			}
			if !AdvancePage(ctx, s.handle, s.config) {
				s.log.Warn("could not navigate to next page, stopping scrape", "next_page", page+1)
				result.StopReason = StopAdvanceFailed
				break
			}
		}
	}

	result.Duration = time.Since(start)
	s.log.Info("scrape finished",
		"records", len(result.Records),
		"pages", result.PagesScraped,
		"total_pages", result.TotalPages,
		"stop_reason", string(result.StopReason))
	return result, nil
}

// scrapePage waits for the first row and extracts the page. A page whose
// rows never appear yields no records.
func (s *Scraper) scrapePage(ctx context.Context, page int, result *Result) ([]Record, int) {
	if _, err := s.handle.WaitForElement(ctx, s.config.RowSelector, s.config.RowTimeout); err != nil {
		s.log.Warn("no rows rendered before timeout", "page", page, "timeout", s.config.RowTimeout, "error", err)
		result.StalledPages = append(result.StalledPages, page)
		return nil, 0
	}
	return extractRows(ctx, s.handle, s.config)
}

// waitForLoad waits for document.readyState to reach "complete". Backends
// without script support are treated as already loaded.
func (s *Scraper) waitForLoad(ctx context.Context) {
	var unsupported bool
	ready := waitUntil(ctx, s.config.LoadTimeout, s.config.PollInterval, func(ctx context.Context) bool {
		var state string
		if err := s.handle.Evaluate(ctx, "document.readyState", &state); err != nil {
			if errors.Is(err, browser.ErrUnsupported) {
				unsupported = true
				return true
			}
			return false
		}
		return state == "complete"
	})
	switch {
	case unsupported:
	case !ready:
		s.log.Warn("page did not finish loading before timeout", "timeout", s.config.LoadTimeout)
	default:
		s.log.Debug("page loaded")
	}
}
