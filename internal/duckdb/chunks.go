package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/table"
)

// WriteChunk appends every row of ch to the named table using the Appender
// API. The table must have been created with the chunk's schema. Missing
// values are written as their sentinel payloads.
func (s *Store) WriteChunk(name string, ch *table.Chunk) error {
	if ch.Len() == 0 {
		return nil
	}

	cols := make([]table.ColumnData, len(ch.Columns()))
	for i, d := range ch.Columns() {
		cd, err := ch.Column(d.Name)
		if err != nil {
			return err
		}
		cols[i] = cd
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", name)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	values := make([]driver.Value, len(cols))
	for r := 0; r < ch.Len(); r++ {
		for i, cd := range cols {
			values[i] = cellValue(cd.Descriptor, cd.Cell(r))
		}
		if err := appender.AppendRow(values...); err != nil {
			return fmt.Errorf("append row %d of %s: %w", r, name, err)
		}
	}

	return appender.Flush()
}

// cellValue converts a cell to a scalar for single-value columns and to a
// typed slice for list columns.
func cellValue(d schema.Descriptor, c schema.Cell) driver.Value {
	if d.Width() == 1 {
		return c[0].Any()
	}
	switch d.Type {
	case schema.Integer:
		out := make([]int64, len(c))
		for i, v := range c {
			out[i] = v.Int()
		}
		return out
	case schema.Float:
		out := make([]float64, len(c))
		for i, v := range c {
			out[i] = v.Float()
		}
		return out
	case schema.Boolean:
		out := make([]bool, len(c))
		for i, v := range c {
			out[i] = v.Bool()
		}
		return out
	default:
		out := make([]string, len(c))
		for i, v := range c {
			out[i] = v.Text()
		}
		return out
	}
}
