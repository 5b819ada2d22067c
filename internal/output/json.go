package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter streams rows as the elements of one JSON array. An empty run
// still produces "[]".
type JSONWriter struct {
	w      *bufio.Writer
	indent string
	count  int
}

// NewJSONWriter creates a JSON array writer. An empty indent writes compact
// output.
func NewJSONWriter(w io.Writer, indent string) *JSONWriter {
	return &JSONWriter{w: bufio.NewWriter(w), indent: indent}
}

// Write appends one element to the array.
func (w *JSONWriter) Write(row Row) error {
	var (
		data []byte
		err  error
	)
	if w.indent == "" {
		data, err = json.Marshal(row)
	} else {
		data, err = json.MarshalIndent(row, w.indent, w.indent)
	}
	if err != nil {
		return err
	}

	sep := ","
	if w.count == 0 {
		sep = "["
	}
	if w.indent != "" {
		sep += "\n" + w.indent
	}
	if _, err := w.w.WriteString(sep); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	w.count++
	return nil
}

// Close terminates the array and flushes.
func (w *JSONWriter) Close() error {
	end := "]\n"
	switch {
	case w.count == 0:
		end = "[]\n"
	case w.indent != "":
		end = "\n]\n"
	}
	if _, err := w.w.WriteString(end); err != nil {
		return err
	}
	return w.w.Flush()
}

// JSONLWriter writes one JSON object per line.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// Write encodes one row followed by a newline.
func (w *JSONLWriter) Write(row Row) error {
	return w.enc.Encode(row)
}

// Close flushes buffered lines.
func (w *JSONLWriter) Close() error {
	return w.w.Flush()
}
