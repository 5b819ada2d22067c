package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter collects rows into a single YAML sequence written on Close.
// Mapping keys keep the struct field order.
type YAMLWriter struct {
	w   io.Writer
	seq yaml.Node
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:   w,
		seq: yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"},
	}
}

// Write adds one row to the sequence.
func (w *YAMLWriter) Write(row Row) error {
	var node yaml.Node
	if err := node.Encode(row); err != nil {
		return fmt.Errorf("encoding row: %w", err)
	}
	w.seq.Content = append(w.seq.Content, &node)
	return nil
}

// Close encodes the sequence.
func (w *YAMLWriter) Close() error {
	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(&w.seq); err != nil {
		return err
	}
	return enc.Close()
}
