package table

import (
	"context"
	"regexp"
	"strconv"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// pageCountPattern matches the total in indicators such as "Page 2 of 14".
var pageCountPattern = regexp.MustCompile(`(?i)\bof\s+(\d+)\b`)

// TotalPages reads the page count from the first status element that
// carries an "of N" phrase. It returns 1 when no indicator can be parsed;
// a single page of results has no indicator at all.
func TotalPages(ctx context.Context, h browser.Handle, cfg Config) int {
	log := logger.For("pagination")

	candidates, err := h.FindAll(ctx, cfg.StatusSelector)
	if err != nil {
		log.Warn("could not determine total pages", "error", err)
		return 1
	}

	for _, el := range candidates {
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		if n, ok := parsePageCount(text); ok {
			log.Info("found page count", "total", n, "indicator", text)
			return n
		}
	}

	log.Info("no page count indicator, treating as single page")
	return 1
}

func parsePageCount(text string) (int, bool) {
	m := pageCountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
