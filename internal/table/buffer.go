// Package table accumulates flattened rows into fixed-capacity columnar
// buffers and hands them out as immutable chunks.
package table

import (
	"fmt"

	"github.com/inodb/vcfnp/internal/schema"
)

// DefaultValuesPerRow is the number of values reserved per row for each
// variable-width column.
const DefaultValuesPerRow = 4

// CapacityExceededError is returned when appending to a full buffer. Column
// is set when the row count has room but a variable-width column has used up
// its value budget.
type CapacityExceededError struct {
	Capacity int
	Column   string
	Budget   int
}

func (e *CapacityExceededError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("buffer full: column %s holds at most %d values", e.Column, e.Budget)
	}
	return fmt.Sprintf("buffer full: capacity %d rows", e.Capacity)
}

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithValuesPerRow sets the values reserved per row for variable-width
// columns. A column's budget is capacity times n.
func WithValuesPerRow(n int) BufferOption {
	return func(b *Buffer) { b.valuesPerRow = n }
}

// column holds one column's storage. Fixed-width columns store width values
// per row back to back; variable-width columns store values plus row offsets.
type column struct {
	width   int
	values  []schema.Value
	offsets []int
}

func newColumn(d schema.Descriptor, capacity, valuesPerRow int) column {
	c := column{width: d.Width()}
	if c.width > 0 {
		c.values = make([]schema.Value, 0, capacity*c.width)
		return c
	}
	c.values = make([]schema.Value, 0, capacity*valuesPerRow)
	c.offsets = make([]int, 1, capacity+1)
	return c
}

// fits reports whether n more values fit without growing the storage.
func (c *column) fits(n int) bool {
	return len(c.values)+n <= cap(c.values)
}

// Buffer accumulates up to capacity rows of a fixed column schema.
type Buffer struct {
	columns  []schema.Descriptor
	index    map[string]int
	storage  []column
	capacity int
	n        int
	region   string

	valuesPerRow int
}

// NewBuffer creates a buffer for the given columns. All storage is allocated
// up front: fixed-width columns for the full capacity, variable-width columns
// for a budget of capacity times the values per row. Storage never grows
// while rows are buffered.
func NewBuffer(columns []schema.Descriptor, capacity int, opts ...BufferOption) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("buffer capacity must be positive, got %d", capacity)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("buffer needs at least one column")
	}
	b := &Buffer{
		columns:      columns,
		index:        make(map[string]int, len(columns)),
		capacity:     capacity,
		valuesPerRow: DefaultValuesPerRow,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.valuesPerRow < 1 {
		return nil, fmt.Errorf("values per row must be positive, got %d", b.valuesPerRow)
	}
	for i, d := range columns {
		if _, dup := b.index[d.Name]; dup {
			return nil, fmt.Errorf("duplicate column %s", d.Name)
		}
		b.index[d.Name] = i
	}
	b.reset()
	return b, nil
}

func (b *Buffer) reset() {
	b.storage = make([]column, len(b.columns))
	for i, d := range b.columns {
		b.storage[i] = newColumn(d, b.capacity, b.valuesPerRow)
	}
	b.n = 0
}

// Len returns the number of buffered rows.
func (b *Buffer) Len() int { return b.n }

// Cap returns the buffer capacity in rows.
func (b *Buffer) Cap() int { return b.capacity }

// Full reports whether another Append would fail.
func (b *Buffer) Full() bool { return b.n >= b.capacity }

// Columns returns the buffer schema.
func (b *Buffer) Columns() []schema.Descriptor { return b.columns }

// SetRegion sets the label copied into every chunk flushed afterwards.
func (b *Buffer) SetRegion(region string) { b.region = region }

// Append copies row into the buffer. The row is checked against the schema
// and the value budgets before anything is written, so a rejected row leaves
// the buffer unchanged. A row that overflows a variable-width column of a
// non-empty buffer is a CapacityExceededError; the caller flushes and
// appends it again. An empty buffer sizes that column to fit the row.
func (b *Buffer) Append(row schema.Row) error {
	if b.Full() {
		return &CapacityExceededError{Capacity: b.capacity}
	}
	if len(row) != len(b.columns) {
		return fmt.Errorf("row has %d cells, schema has %d columns", len(row), len(b.columns))
	}
	for i, d := range b.columns {
		if err := d.Validate(row[i]); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	for i := range b.storage {
		c := &b.storage[i]
		if c.fits(len(row[i])) {
			continue
		}
		if b.n > 0 {
			return &CapacityExceededError{Capacity: b.capacity, Column: b.columns[i].Name, Budget: cap(c.values)}
		}
		c.values = make([]schema.Value, 0, len(row[i])+b.capacity*b.valuesPerRow)
	}

	for i := range b.storage {
		c := &b.storage[i]
		c.values = append(c.values, row[i]...)
		if c.width == 0 {
			c.offsets = append(c.offsets, len(c.values))
		}
	}
	b.n++
	return nil
}

// Flush returns the buffered rows as a chunk and empties the buffer. The
// chunk owns its storage; later appends never touch it. Flushing an empty
// buffer returns a zero-row chunk.
func (b *Buffer) Flush() *Chunk {
	ch := &Chunk{
		columns: b.columns,
		index:   b.index,
		storage: b.storage,
		n:       b.n,
		region:  b.region,
	}
	b.reset()
	return ch
}
