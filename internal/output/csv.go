package output

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVWriter writes rows as RFC 4180 CSV. The header comes from the first
// row written; every later row must have the same number of columns.
type CSVWriter struct {
	w           *csv.Writer
	columns     int
	wroteHeader bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write writes a single Row, preceded by the header on first use.
func (w *CSVWriter) Write(row Row) error {
	if !w.wroteHeader {
		header := row.Header()
		if err := w.w.Write(header); err != nil {
			return err
		}
		w.columns = len(header)
		w.wroteHeader = true
	}

	values := row.Values()
	if len(values) != w.columns {
		return fmt.Errorf("row has %d values, header has %d columns", len(values), w.columns)
	}
	return w.w.Write(values)
}

// Close flushes buffered rows. A writer that saw no rows writes nothing,
// not even a header.
func (w *CSVWriter) Close() error {
	w.w.Flush()
	return w.w.Error()
}
