package flatten

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/vcf"
)

// CallBuilder produces one calls table row per (record, sample) pair.
// Every row has the same columns in the same order, whatever FORMAT keys an
// individual record declares.
type CallBuilder struct {
	policyHandler
	reg     *schema.Registry
	columns []schema.Descriptor
	samples []int    // header indices of the selected samples
	names   []string // names of the selected samples
	ploidy  int
}

// NewCallBuilder creates a builder for the calls table. fields selects FORMAT
// fields (nil selects all declared ones) and samples selects and orders
// samples (nil keeps header order).
func NewCallBuilder(reg *schema.Registry, fields, samples []string, opts Options) (*CallBuilder, error) {
	cols, err := reg.Columns(schema.Calls, fields, false)
	if err != nil {
		return nil, err
	}

	header := reg.Samples()
	b := &CallBuilder{
		policyHandler: policyHandler{policy: opts.Policy, logger: zap.NewNop()},
		reg:           reg,
		columns:       cols,
		ploidy:        reg.Ploidy(),
	}

	if len(samples) == 0 {
		b.samples = make([]int, len(header))
		for i := range header {
			b.samples[i] = i
		}
		b.names = header
		return b, nil
	}

	index := make(map[string]int, len(header))
	for i, s := range header {
		index[s] = i
	}
	for _, s := range samples {
		i, ok := index[s]
		if !ok {
			return nil, &schema.UnknownFieldError{Field: s, Kind: schema.Calls}
		}
		b.samples = append(b.samples, i)
		b.names = append(b.names, s)
	}
	return b, nil
}

// Columns returns the ordered column descriptors of every produced row.
func (b *CallBuilder) Columns() []schema.Descriptor {
	return b.columns
}

// SampleNames returns the selected samples in row order.
func (b *CallBuilder) SampleNames() []string {
	return b.names
}

// Flatten returns one row per selected sample. A call block whose length
// differs from the header sample count is a MalformedRecordError.
func (b *CallBuilder) Flatten(v *vcf.Variant) ([]schema.Row, error) {
	rows, err := b.flatten(v)
	if err != nil {
		return b.handle(v, err)
	}
	return rows, nil
}

func (b *CallBuilder) flatten(v *vcf.Variant) ([]schema.Row, error) {
	if want := len(b.reg.Samples()); v.Calls.Len() != want {
		return nil, &MalformedRecordError{
			Chrom:   v.Chrom,
			Pos:     v.Pos,
			Message: fmt.Sprintf("call block has %d entries, header declares %d samples", v.Calls.Len(), want),
		}
	}

	gtKey := v.Calls.KeyIndex(schema.KeyGenotype)
	keys := make([]int, len(b.columns))
	alts := make(schema.Cell, len(v.Alt))
	for i, a := range v.Alt {
		alts[i] = schema.Str(a)
	}
	for i, d := range b.columns {
		keys[i] = -1
		if d.Source == schema.SourceFormat {
			keys[i] = v.Calls.KeyIndex(d.Name)
		}
	}

	rows := make([]schema.Row, 0, len(b.samples))
	for n, s := range b.samples {
		g, err := b.genotype(v, s, gtKey)
		if err != nil {
			return nil, err
		}

		row := make(schema.Row, len(b.columns))
		for i, d := range b.columns {
			var c schema.Cell
			switch d.Name {
			case schema.ColChrom:
				c = schema.Cell{schema.Cat(v.Chrom)}
			case schema.ColPos:
				c = schema.Cell{schema.Int(v.Pos)}
			case schema.ColRef:
				c = schema.Cell{schema.Str(v.Ref)}
			case schema.ColAlt:
				c = alts
			case schema.ColSample:
				c = schema.Cell{schema.Cat(b.names[n])}
			case schema.ColIsCalled:
				c = schema.Cell{schema.Bool(g.IsCalled())}
			case schema.ColIsPhased:
				c = schema.Cell{schema.Bool(g.Phased)}
			case schema.ColGenotype:
				c = b.genotypeCell(d, g)
			default:
				raw, ok := v.Calls.Get(s, keys[i])
				if !ok {
					c = d.MissingCell(missingWidth(b.reg, d, len(v.Alt)))
					break
				}
				if c, err = decodeValues(b.reg, d, raw, v, g.Ploidy()); err != nil {
					return nil, err
				}
			}
			if err := d.Validate(c); err != nil {
				return nil, err
			}
			row[i] = c
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// genotype decodes the GT of sample s. An absent GT is an uncalled genotype.
func (b *CallBuilder) genotype(v *vcf.Variant, s, gtKey int) (Genotype, error) {
	raw, ok := v.Calls.Get(s, gtKey)
	if !ok {
		return Genotype{}, nil
	}
	g, err := ParseGenotype(raw)
	if err != nil {
		return Genotype{}, &schema.FieldCoercionError{Field: schema.KeyGenotype, Raw: raw, Chrom: v.Chrom, Pos: v.Pos, Err: err}
	}
	if g.Ploidy() > b.ploidy {
		return Genotype{}, &schema.ArityMismatchError{
			Field: schema.KeyGenotype, Declared: schema.FixedArity(b.ploidy), Got: g.Ploidy(), Chrom: v.Chrom, Pos: v.Pos,
		}
	}
	for _, a := range g.Alleles {
		if a > len(v.Alt) {
			return Genotype{}, &schema.FieldCoercionError{
				Field: schema.KeyGenotype, Raw: raw, Chrom: v.Chrom, Pos: v.Pos,
				Err: fmt.Errorf("allele index %d out of range for %d alleles", a, v.NumAlleles()),
			}
		}
	}
	return g, nil
}

// genotypeCell pads calls of lower ploidy with the missing sentinel.
func (b *CallBuilder) genotypeCell(d schema.Descriptor, g Genotype) schema.Cell {
	c := make(schema.Cell, b.ploidy)
	for i := range c {
		if i < len(g.Alleles) && g.Alleles[i] != MissingAllele {
			c[i] = schema.Int(int64(g.Alleles[i]))
		} else {
			c[i] = d.Missing
		}
	}
	return c
}
