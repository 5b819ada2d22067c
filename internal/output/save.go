package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/jmylchreest/statscrape/internal/logger"
)

// Save writes rows to path in the given format, replacing any existing file.
// An empty format is inferred from the path. It returns the absolute path
// written, or ErrNothingToWrite without touching the filesystem when rows is
// empty.
func Save[R Row](path string, format Format, rows []R) (string, error) {
	if len(rows) == 0 {
		return "", ErrNothingToWrite
	}
	if format == "" {
		format = FormatFromPath(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}

	if !slices.Contains(Formats, format) {
		return "", fmt.Errorf("unsupported output format: %s", format)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	// Rows go to a temp file in the same directory and replace abs only once
	// fully written, so a failed run leaves any earlier file intact.
	f, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating output file: %w", err)
	}
	tmp := f.Name()
	if err := writeRows(f, format, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("setting output file mode: %w", err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replacing output file: %w", err)
	}

	logger.Debug("output written", "path", abs, "format", format, "records", len(rows))
	return abs, nil
}

func writeRows[R Row](f io.Writer, format Format, rows []R) error {
	w, err := NewWriter(f, format)
	if err != nil {
		return err
	}
	for i, r := range rows {
		if err := w.Write(r); err != nil {
			return fmt.Errorf("writing %s output, row %d: %w", format, i, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s output: %w", format, err)
	}
	return nil
}
