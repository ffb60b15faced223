package flatten

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/vcf"
)

// Options configures the flatteners.
type Options struct {
	Decompose  bool           // one row per alternate allele (variant and info tables)
	Policy     Policy         // what to do with records that fail coercion
	Normalizer vcf.Normalizer // applied per allele when decomposing; nil means no-op
}

// policyHandler applies the coercion policy and counts skipped records.
type policyHandler struct {
	policy  Policy
	logger  *zap.Logger
	skipped int
}

func (h *policyHandler) handle(v *vcf.Variant, err error) ([]schema.Row, error) {
	if h.policy == Skip && IsRecoverable(err) {
		h.skipped++
		h.logger.Warn("skipping record",
			zap.String("chrom", v.Chrom),
			zap.Int64("pos", v.Pos),
			zap.Error(err))
		return nil, nil
	}
	return nil, err
}

// Skipped returns the number of records dropped under the Skip policy.
func (h *policyHandler) Skipped() int {
	return h.skipped
}

// SetLogger sets the logger used to report skipped records.
func (h *policyHandler) SetLogger(l *zap.Logger) {
	h.logger = l
}

// decodeValues splits and coerces a raw field value and checks its count
// against the declared arity. Fixed fields shorter than declared are padded
// with the sentinel. ploidy is the ploidy of the call a FORMAT value belongs
// to, or 0 outside a call; per-genotype values of a call below the table
// ploidy are counted against the call's own ploidy and padded to the
// table's width.
func decodeValues(reg *schema.Registry, d schema.Descriptor, raw string, v *vcf.Variant, ploidy int) (schema.Cell, error) {
	parts := strings.Split(raw, d.Separator)
	cell := make(schema.Cell, 0, len(parts))
	for _, p := range parts {
		if p == "." || (p == "" && d.Type != schema.String) {
			cell = append(cell, d.Missing)
			continue
		}
		val, err := schema.Coerce(p, d.Type)
		if err != nil {
			return nil, &schema.FieldCoercionError{Field: d.Name, Raw: raw, Chrom: v.Chrom, Pos: v.Pos, Err: err}
		}
		cell = append(cell, val)
	}

	switch d.Declared.Kind {
	case schema.Fixed:
		n := d.Declared.N
		if len(cell) > n {
			return nil, &schema.ArityMismatchError{
				Field: d.Name, Declared: d.Declared, Got: len(cell), Chrom: v.Chrom, Pos: v.Pos,
			}
		}
		for len(cell) < n {
			cell = append(cell, d.Missing)
		}
	case schema.PerAlt, schema.PerAllele, schema.PerGenotype:
		want := reg.ArityFor(d.Declared, len(v.Alt))
		if len(cell) == want {
			break
		}
		if len(cell) == 1 && cell[0].IsMissing() {
			return d.MissingCell(want), nil
		}
		if d.Declared.Kind == schema.PerGenotype && ploidy > 0 && ploidy < reg.Ploidy() &&
			len(cell) == schema.NumGenotypes(v.NumAlleles(), ploidy) {
			for len(cell) < want {
				cell = append(cell, d.Missing)
			}
			break
		}
		return nil, &schema.FieldCoercionError{
			Field: d.Name, Raw: raw, Chrom: v.Chrom, Pos: v.Pos,
			Err: fmt.Errorf("Number=%s expects %d values, got %d", d.Declared, want, len(cell)),
		}
	}
	return cell, nil
}

// missingWidth is the number of sentinels written for an absent field.
func missingWidth(reg *schema.Registry, d schema.Descriptor, nAlts int) int {
	if n := reg.ArityFor(d.Declared, nAlts); n > 0 {
		return n
	}
	return 1
}

// sliceAllele picks the values of alternate allele i from a decoded cell.
func sliceAllele(d schema.Descriptor, c schema.Cell, i int) schema.Cell {
	switch d.Declared.Kind {
	case schema.PerAlt:
		return schema.Cell{c[i]}
	case schema.PerAllele:
		return schema.Cell{c[0], c[i+1]}
	}
	return c
}
