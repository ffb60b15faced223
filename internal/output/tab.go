// Package output writes extracted chunks in text formats.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/table"
)

// TabWriter writes chunks in tab-delimited format, one row per line. Cells
// with several values are joined with the column separator.
type TabWriter struct {
	w       *bufio.Writer
	columns []schema.Descriptor
}

// NewTabWriter creates a new tab-delimited writer for the given schema.
func NewTabWriter(w io.Writer, columns []schema.Descriptor) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	names := make([]string, len(tw.columns))
	for i, d := range tw.columns {
		names[i] = d.Name
	}
	_, err := tw.w.WriteString(strings.Join(names, "\t") + "\n")
	return err
}

// WriteChunk writes every row of ch. The chunk must have the writer's schema.
func (tw *TabWriter) WriteChunk(ch *table.Chunk) error {
	if len(ch.Columns()) != len(tw.columns) {
		return fmt.Errorf("chunk has %d columns, writer has %d", len(ch.Columns()), len(tw.columns))
	}

	cols := make([]table.ColumnData, len(tw.columns))
	for i, d := range tw.columns {
		cd, err := ch.Column(d.Name)
		if err != nil {
			return err
		}
		cols[i] = cd
	}

	values := make([]string, len(cols))
	for r := 0; r < ch.Len(); r++ {
		for i, cd := range cols {
			values[i] = cd.Cell(r).Join(separator(cd.Descriptor))
		}
		if _, err := tw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func separator(d schema.Descriptor) string {
	if d.Separator == "" {
		return ","
	}
	return d.Separator
}
