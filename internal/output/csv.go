package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// CSVWriter writes the batch as CSV. The header is the union of the row
// columns in first-seen order; list and unit cells are JSON-encoded.
type CSVWriter struct {
	w    *bufio.Writer
	rows []*listing.Row
	done bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{
		w:    bufio.NewWriter(w),
		rows: make([]*listing.Row, 0),
	}
}

// Write buffers a single row.
func (w *CSVWriter) Write(row *listing.Row) error {
	w.rows = append(w.rows, row)
	return nil
}

// WriteAll buffers multiple rows.
func (w *CSVWriter) WriteAll(rows []*listing.Row) error {
	w.rows = append(w.rows, rows...)
	return nil
}

// Flush writes the header and every buffered row.
func (w *CSVWriter) Flush() error {
	if len(w.rows) == 0 {
		return w.w.Flush()
	}

	cols := listing.Columns(w.rows)
	cw := csv.NewWriter(w.w)
	if err := cw.Write(cols); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for i, row := range w.rows {
		for j, col := range cols {
			v, _ := row.Get(col)
			cell, err := csvCell(v)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, col, err)
			}
			record[j] = cell
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	w.rows = w.rows[:0]
	w.done = true
	return w.w.Flush()
}

// Close flushes anything not yet written.
func (w *CSVWriter) Close() error {
	if w.done && len(w.rows) == 0 {
		return nil
	}
	return w.Flush()
}

func csvCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
