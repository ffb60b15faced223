package table

import (
	"fmt"

	"github.com/inodb/vcfnp/internal/schema"
)

// Chunk is an immutable batch of rows sharing one column schema.
type Chunk struct {
	columns []schema.Descriptor
	index   map[string]int
	storage []column
	n       int
	region  string
}

// ColumnData is a read-only view of one column of a chunk.
type ColumnData struct {
	Descriptor schema.Descriptor
	// Width is the number of values per row, or 0 for variable-width columns.
	Width  int
	Values []schema.Value
	// Offsets has Len()+1 entries for variable-width columns; row i spans
	// Values[Offsets[i]:Offsets[i+1]]. Nil for fixed-width columns.
	Offsets []int
}

// Cell returns the values of row i.
func (c ColumnData) Cell(i int) schema.Cell {
	if c.Width > 0 {
		return schema.Cell(c.Values[i*c.Width : (i+1)*c.Width])
	}
	return schema.Cell(c.Values[c.Offsets[i]:c.Offsets[i+1]])
}

// Len returns the number of rows.
func (ch *Chunk) Len() int { return ch.n }

// Columns returns the column descriptors in order.
func (ch *Chunk) Columns() []schema.Descriptor { return ch.columns }

// Region returns the label of the region the rows were extracted from, or ""
// for whole-file extraction.
func (ch *Chunk) Region() string { return ch.region }

// Index returns the position of the named column, or -1.
func (ch *Chunk) Index(name string) int {
	if i, ok := ch.index[name]; ok {
		return i
	}
	return -1
}

// Column returns the storage view of the named column.
func (ch *Chunk) Column(name string) (ColumnData, error) {
	i := ch.Index(name)
	if i < 0 {
		return ColumnData{}, fmt.Errorf("no column %q in chunk", name)
	}
	return ch.columnAt(i), nil
}

func (ch *Chunk) columnAt(i int) ColumnData {
	c := ch.storage[i]
	cd := ColumnData{Descriptor: ch.columns[i], Width: c.width, Values: c.values[:len(c.values):len(c.values)]}
	if c.width == 0 {
		cd.Offsets = c.offsets[: ch.n+1 : ch.n+1]
	}
	return cd
}

// Row reassembles row i.
func (ch *Chunk) Row(i int) schema.Row {
	if i < 0 || i >= ch.n {
		return nil
	}
	row := make(schema.Row, len(ch.columns))
	for j := range ch.columns {
		row[j] = ch.columnAt(j).Cell(i)
	}
	return row
}

// Cell returns the values of the named column in row i.
func (ch *Chunk) Cell(i int, name string) (schema.Cell, error) {
	cd, err := ch.Column(name)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= ch.n {
		return nil, fmt.Errorf("row %d out of range [0, %d)", i, ch.n)
	}
	return cd.Cell(i), nil
}

// typed checks that name is a fixed-width column of one of types.
func (ch *Chunk) typed(name string, types ...schema.Type) (ColumnData, error) {
	cd, err := ch.Column(name)
	if err != nil {
		return ColumnData{}, err
	}
	if cd.Width == 0 {
		return ColumnData{}, fmt.Errorf("column %s has variable width", name)
	}
	for _, t := range types {
		if cd.Descriptor.Type == t {
			return cd, nil
		}
	}
	return ColumnData{}, fmt.Errorf("column %s is %s", name, cd.Descriptor.Type)
}

// Ints returns the payloads of an integer column, Width values per row.
// Missing entries hold the column sentinel.
func (ch *Chunk) Ints(name string) ([]int64, error) {
	cd, err := ch.typed(name, schema.Integer)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(cd.Values))
	for i, v := range cd.Values {
		out[i] = v.Int()
	}
	return out, nil
}

// Floats returns the payloads of a float column, Width values per row.
func (ch *Chunk) Floats(name string) ([]float64, error) {
	cd, err := ch.typed(name, schema.Float)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cd.Values))
	for i, v := range cd.Values {
		out[i] = v.Float()
	}
	return out, nil
}

// Strings returns the payloads of a string or categorical column.
func (ch *Chunk) Strings(name string) ([]string, error) {
	cd, err := ch.typed(name, schema.String, schema.Categorical)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cd.Values))
	for i, v := range cd.Values {
		out[i] = v.Text()
	}
	return out, nil
}

// Bools returns the payloads of a boolean column.
func (ch *Chunk) Bools(name string) ([]bool, error) {
	cd, err := ch.typed(name, schema.Boolean)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(cd.Values))
	for i, v := range cd.Values {
		out[i] = v.Bool()
	}
	return out, nil
}
