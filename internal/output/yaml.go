package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// YAMLWriter writes the batch as a YAML sequence of ordered mappings.
type YAMLWriter struct {
	w    *bufio.Writer
	rows []*listing.Row
	done bool
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:    bufio.NewWriter(w),
		rows: make([]*listing.Row, 0),
	}
}

// Write buffers a single row.
func (w *YAMLWriter) Write(row *listing.Row) error {
	w.rows = append(w.rows, row)
	return nil
}

// WriteAll buffers multiple rows.
func (w *YAMLWriter) WriteAll(rows []*listing.Row) error {
	w.rows = append(w.rows, rows...)
	return nil
}

// Flush writes the buffered rows as YAML.
func (w *YAMLWriter) Flush() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(w.rows); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	w.rows = w.rows[:0]
	w.done = true
	return w.w.Flush()
}

// Close flushes anything not yet written.
func (w *YAMLWriter) Close() error {
	if w.done && len(w.rows) == 0 {
		return nil
	}
	return w.Flush()
}
