package flatten

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/vcf"
)

// VariantFlattener produces variants or info table rows from records.
type VariantFlattener struct {
	policyHandler
	reg     *schema.Registry
	kind    schema.TableKind
	columns []schema.Descriptor
	opts    Options
}

// NewVariantFlattener creates a flattener for the variants or info table.
// fields selects INFO fields; nil selects all declared ones.
func NewVariantFlattener(reg *schema.Registry, kind schema.TableKind, fields []string, opts Options) (*VariantFlattener, error) {
	if kind == schema.Calls {
		return nil, fmt.Errorf("variant flattener cannot build the %s table", kind)
	}
	cols, err := reg.Columns(kind, fields, opts.Decompose)
	if err != nil {
		return nil, err
	}
	if opts.Normalizer == nil {
		opts.Normalizer = vcf.NopNormalizer{}
	}
	return &VariantFlattener{
		policyHandler: policyHandler{policy: opts.Policy, logger: zap.NewNop()},
		reg:           reg,
		kind:          kind,
		columns:       cols,
		opts:          opts,
	}, nil
}

// Columns returns the ordered column descriptors of every produced row.
func (f *VariantFlattener) Columns() []schema.Descriptor {
	return f.columns
}

// Flatten returns one row for the record, or one row per alternate allele
// when decomposing. Under the Skip policy a record with bad data yields no
// rows and no error.
func (f *VariantFlattener) Flatten(v *vcf.Variant) ([]schema.Row, error) {
	rows, err := f.flatten(v)
	if err != nil {
		return f.handle(v, err)
	}
	return rows, nil
}

func (f *VariantFlattener) flatten(v *vcf.Variant) ([]schema.Row, error) {
	if len(v.Alt) == 0 {
		return nil, &MalformedRecordError{Chrom: v.Chrom, Pos: v.Pos, Message: "no alternate alleles"}
	}

	// INFO values are decoded once per record and sliced per allele.
	info := make([]schema.Cell, len(f.columns))
	for i, d := range f.columns {
		if d.Source != schema.SourceInfo {
			continue
		}
		c, err := f.infoCell(d, v)
		if err != nil {
			return nil, err
		}
		info[i] = c
	}

	if !f.opts.Decompose {
		row := make(schema.Row, len(f.columns))
		for i, d := range f.columns {
			c := info[i]
			if c == nil {
				c = f.recordCell(d, v, -1, v.Ref, "", v.Pos)
			}
			if err := d.Validate(c); err != nil {
				return nil, err
			}
			row[i] = c
		}
		return []schema.Row{row}, nil
	}

	rows := make([]schema.Row, len(v.Alt))
	for a, alt := range v.Alt {
		ref, normAlt, delta := f.opts.Normalizer.Normalize(v.Ref, alt)
		pos := v.Pos + delta

		row := make(schema.Row, len(f.columns))
		for i, d := range f.columns {
			var c schema.Cell
			if info[i] != nil {
				c = sliceAllele(d, info[i], a)
			} else {
				c = f.recordCell(d, v, a, ref, normAlt, pos)
			}
			if err := d.Validate(c); err != nil {
				return nil, err
			}
			row[i] = c
		}
		rows[a] = row
	}
	return rows, nil
}

func (f *VariantFlattener) infoCell(d schema.Descriptor, v *vcf.Variant) (schema.Cell, error) {
	raw, ok := v.InfoValue(d.Name)
	if d.Type == schema.Boolean && (!ok || raw == "") {
		return schema.Cell{schema.Bool(ok)}, nil
	}
	if !ok {
		return d.MissingCell(missingWidth(f.reg, d, len(v.Alt))), nil
	}
	return decodeValues(f.reg, d, raw, v, 0)
}

// recordCell builds the standard columns. alt is -1 for a whole-record row;
// otherwise ref/altAllele/pos are the normalized values of allele alt.
func (f *VariantFlattener) recordCell(d schema.Descriptor, v *vcf.Variant, alt int, ref, altAllele string, pos int64) schema.Cell {
	switch d.Name {
	case schema.ColChrom:
		return schema.Cell{schema.Cat(v.Chrom)}
	case schema.ColPos:
		return schema.Cell{schema.Int(pos)}
	case schema.ColID:
		if v.ID == "" || v.ID == "." {
			return schema.Cell{d.Missing}
		}
		return schema.Cell{schema.Str(v.ID)}
	case schema.ColRef:
		return schema.Cell{schema.Str(ref)}
	case schema.ColAlt:
		if alt >= 0 {
			return schema.Cell{schema.Str(altAllele)}
		}
		c := make(schema.Cell, len(v.Alt))
		for i, a := range v.Alt {
			c[i] = schema.Str(a)
		}
		return c
	case schema.ColQual:
		if !v.HasQual {
			return schema.Cell{d.Missing}
		}
		return schema.Cell{schema.Float64(v.Qual)}
	case schema.ColNumAlleles:
		return schema.Cell{schema.Int(int64(v.NumAlleles()))}
	case schema.ColIsSNP:
		if alt >= 0 {
			return schema.Cell{schema.Bool(vcf.IsSNVPair(ref, altAllele))}
		}
		return schema.Cell{schema.Bool(v.IsSNV())}
	case schema.ColSVLen:
		if alt >= 0 {
			return schema.Cell{svlen(d, ref, altAllele)}
		}
		c := make(schema.Cell, len(v.Alt))
		for i, a := range v.Alt {
			c[i] = svlen(d, v.Ref, a)
		}
		return c
	}

	if d.Source == schema.SourceFilter {
		name := "PASS"
		if d.Name != schema.ColFilterPass {
			name = d.Name[len(schema.FilterPrefix):]
		}
		return schema.Cell{schema.Bool(v.HasFilter(name))}
	}
	return schema.Cell{d.Missing}
}

func svlen(d schema.Descriptor, ref, alt string) schema.Value {
	if vcf.IsSymbolic(alt) {
		return d.Missing
	}
	return schema.Int(vcf.SVLen(ref, alt))
}
