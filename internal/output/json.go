package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// JSONWriter writes the batch as one JSON array.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	rows   []*listing.Row
	done   bool
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		rows:   make([]*listing.Row, 0),
	}
}

// Write buffers a single row.
func (w *JSONWriter) Write(row *listing.Row) error {
	w.rows = append(w.rows, row)
	return nil
}

// WriteAll buffers multiple rows.
func (w *JSONWriter) WriteAll(rows []*listing.Row) error {
	w.rows = append(w.rows, rows...)
	return nil
}

// Flush writes the buffered rows as a JSON array.
func (w *JSONWriter) Flush() error {
	var output []byte
	var err error

	if w.pretty {
		output, err = json.MarshalIndent(w.rows, "", w.indent)
	} else {
		output, err = json.Marshal(w.rows)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	w.rows = w.rows[:0]
	w.done = true
	return w.w.Flush()
}

// Close flushes anything not yet written.
func (w *JSONWriter) Close() error {
	if w.done && len(w.rows) == 0 {
		return nil
	}
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL).
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a single row as a JSON line.
func (w *JSONLWriter) Write(row *listing.Row) error {
	output, err := json.Marshal(row)
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	_, err = w.w.WriteString("\n")
	return err
}

// WriteAll writes multiple rows as JSON lines.
func (w *JSONLWriter) WriteAll(rows []*listing.Row) error {
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
