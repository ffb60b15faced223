package schema

import "fmt"

// Source says where the flattener finds a column's data.
type Source int

const (
	SourceRecord   Source = iota // fixed VCF columns and values derived from them
	SourceFilter                 // one boolean per declared filter
	SourceInfo                   // INFO field
	SourceFormat                 // FORMAT field of a sample
	SourceGenotype               // decoded GT of a sample
)

// Standard column names.
const (
	ColChrom      = "CHROM"
	ColPos        = "POS"
	ColID         = "ID"
	ColRef        = "REF"
	ColAlt        = "ALT"
	ColQual       = "QUAL"
	ColFilterPass = "FILTER_PASS"
	ColNumAlleles = "num_alleles"
	ColIsSNP      = "is_snp"
	ColSVLen      = "svlen"
	ColSample     = "sample"
	ColIsCalled   = "is_called"
	ColIsPhased   = "is_phased"
	ColGenotype   = "genotype"

	FilterPrefix = "FILTER_"
	KeyGenotype  = "GT"
)

// Descriptor describes one table column.
type Descriptor struct {
	Name        string
	Type        Type
	Arity       Arity // shape of the column in this table
	Declared    Arity // arity from the header (or override), before decomposition
	Missing     Value // sentinel written for absent values
	Separator   string
	Source      Source
	Description string
}

// Width returns the number of values per row for fixed columns, or 0 for
// variable-width columns.
func (d Descriptor) Width() int {
	if d.Arity.IsFixed() {
		return d.Arity.N
	}
	return 0
}

// MissingCell returns a cell of n sentinel values.
func (d Descriptor) MissingCell(n int) Cell {
	if n < 1 {
		n = 1
	}
	c := make(Cell, n)
	for i := range c {
		c[i] = d.Missing
	}
	return c
}

// Validate checks that c holds values of the column type and, for fixed
// columns, exactly Width values.
func (d Descriptor) Validate(c Cell) error {
	if w := d.Width(); w > 0 && len(c) != w {
		return &ArityMismatchError{Field: d.Name, Declared: d.Arity, Got: len(c)}
	}
	for _, v := range c {
		if v.Type() != d.Type {
			return fmt.Errorf("field %s: %s value in %s column", d.Name, v.Type(), d.Type)
		}
	}
	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s[%s]", d.Name, d.Type, d.Arity)
}

func newDescriptor(name string, t Type, a Arity, src Source, desc string) Descriptor {
	return Descriptor{
		Name:        name,
		Type:        t,
		Arity:       a,
		Declared:    a,
		Missing:     DefaultMissing(t),
		Separator:   ",",
		Source:      src,
		Description: desc,
	}
}
