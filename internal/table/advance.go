package table

import (
	"context"
	"strings"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// AdvancePage clicks the next-page control and waits for the first row to
// change, up to cfg.SettleTimeout. It returns false when no enabled control
// is found or the click fails. A true result does not guarantee new content;
// the Scraper checks for a repeated page separately.
func AdvancePage(ctx context.Context, h browser.Handle, cfg Config) bool {
	log := logger.For("advance")

	next := FindNextControl(ctx, h, cfg)
	if next == nil {
		log.Warn("could not find next page control")
		return false
	}

	before := firstRowText(ctx, h, cfg)
	if err := next.Click(ctx); err != nil {
		log.Warn("could not navigate to next page", "error", err)
		return false
	}

	changed := waitUntil(ctx, cfg.SettleTimeout, cfg.PollInterval, func(ctx context.Context) bool {
		after := firstRowText(ctx, h, cfg)
		return after != "" && after != before
	})
	if !changed {
		log.Debug("first row unchanged after settle timeout")
	}
	return true
}

// FindNextControl returns the enabled next-page control, or nil. A control
// whose aria-label or trimmed text equals a label wins; otherwise the first
// one whose label or text contains a label is used. This keeps "Next >"
// buttons working while ">" still wins over ">>" in either attribute.
func FindNextControl(ctx context.Context, h browser.Handle, cfg Config) browser.Element {
	candidates, err := h.FindAll(ctx, cfg.NextSelector)
	if err != nil {
		logger.Debug("next control lookup failed", "error", err)
		return nil
	}

	var loose browser.Element
	for _, el := range candidates {
		if disabled(ctx, el) {
			continue
		}
		label, _, _ := el.Attr(ctx, "aria-label")
		text, err := el.Text(ctx)
		if err != nil {
			text = ""
		}
		label, text = strings.TrimSpace(label), strings.TrimSpace(text)

		if equalsAny(label, cfg.NextLabels) || equalsAny(text, cfg.NextLabels) {
			return el
		}
		if loose == nil && (containsAny(label, cfg.NextLabels) || containsAny(text, cfg.NextLabels)) {
			loose = el
		}
	}
	return loose
}

func disabled(ctx context.Context, el browser.Element) bool {
	if _, ok, _ := el.Attr(ctx, "disabled"); ok {
		return true
	}
	v, _, _ := el.Attr(ctx, "aria-disabled")
	return v == "true"
}

func firstRowText(ctx context.Context, h browser.Handle, cfg Config) string {
	rows, err := h.FindAll(ctx, cfg.RowSelector)
	if err != nil || len(rows) == 0 {
		return ""
	}
	text, err := rows[0].Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func equalsAny(s string, labels []string) bool {
	for _, l := range labels {
		if s == l {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
