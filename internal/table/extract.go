package table

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

var errNoName = errors.New("no player link in first cell")

// ExtractRows converts the rows currently rendered into Records, in render
// order. The caller must already have waited for rows to appear. Rows with
// fewer than cfg.MinCells cells, or without a player link, are skipped and
// logged.
func ExtractRows(ctx context.Context, h browser.Handle, cfg Config) []Record {
	records, _ := extractRows(ctx, h, cfg)
	return records
}

// extractRows is ExtractRows plus the number of rows it rejected.
func extractRows(ctx context.Context, h browser.Handle, cfg Config) ([]Record, int) {
	log := logger.For("extract")

	rows, err := h.FindAll(ctx, cfg.RowSelector)
	if err != nil {
		log.Warn("error extracting stats", "error", err)
		return nil, 0
	}

	records := make([]Record, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		rec, err := extractRow(ctx, row, cfg)
		if err != nil {
			skipped++
			log.Warn("skipping row", "row", i, "error", err)
			continue
		}
		log.Debug("extracted row", "row", i, "player", rec.PlayerName)
		records = append(records, rec)
	}
	return records, skipped
}

func extractRow(ctx context.Context, row browser.Element, cfg Config) (Record, error) {
	cells, err := row.FindAll(ctx, cfg.CellSelector)
	if err != nil {
		return Record{}, fmt.Errorf("reading cells: %w", err)
	}
	if len(cells) < cfg.MinCells {
		return Record{}, fmt.Errorf("row has %d cells, need %d", len(cells), cfg.MinCells)
	}

	links, err := cells[0].FindAll(ctx, cfg.NameSelector)
	if err != nil {
		return Record{}, fmt.Errorf("reading player link: %w", err)
	}
	if len(links) == 0 {
		return Record{}, errNoName
	}
	name, err := links[0].Text(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("reading player name: %w", err)
	}

	stats := make([]string, 0, len(Fields)-1)
	for i := 1; i < len(Fields); i++ {
		stats = append(stats, cellText(ctx, cells, i))
	}
	return recordFromCells(strings.TrimSpace(name), stats), nil
}

// cellText returns the trimmed text of cells[i], or "" when the cell is
// missing or unreadable.
func cellText(ctx context.Context, cells []browser.Element, i int) string {
	if i >= len(cells) {
		return ""
	}
	text, err := cells[i].Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
