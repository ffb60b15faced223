package schema

import (
	"fmt"
	"strings"

	"github.com/inodb/vcfnp/internal/vcf"
)

// DefaultPloidy is used when no ploidy is configured.
const DefaultPloidy = 2

// Override replaces parts of a header declaration. Empty strings keep the
// declared value.
type Override struct {
	Arity   string `mapstructure:"arity" yaml:"arity,omitempty"`
	Type    string `mapstructure:"type" yaml:"type,omitempty"`
	Missing string `mapstructure:"missing" yaml:"missing,omitempty"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithPloidy sets the number of allele indices stored per genotype.
func WithPloidy(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.ploidy = n
		}
	}
}

// WithOverrides applies per-field overrides. Keys are "INFO/<ID>",
// "FORMAT/<ID>" or a bare ID, which applies to both.
func WithOverrides(m map[string]Override) Option {
	return func(r *Registry) {
		r.overrides = m
	}
}

// Registry resolves field names to column descriptors. It is built once from
// header metadata and is read-only afterwards, so a single Registry may be
// shared by concurrent extractors.
type Registry struct {
	info        map[string]Descriptor
	infoOrder   []string
	format      map[string]Descriptor
	formatOrder []string
	filters     []string
	samples     []string
	ploidy      int
	overrides   map[string]Override
}

// NewRegistry builds a registry from a parsed VCF header.
func NewRegistry(h *vcf.Header, opts ...Option) (*Registry, error) {
	r := &Registry{
		info:    make(map[string]Descriptor, len(h.Info)),
		format:  make(map[string]Descriptor, len(h.Format)),
		filters: append([]string(nil), h.Filters...),
		samples: append([]string(nil), h.Samples...),
		ploidy:  DefaultPloidy,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, decl := range h.Info {
		d, err := r.declare(decl, SourceInfo, "INFO/")
		if err != nil {
			return nil, err
		}
		if _, dup := r.info[d.Name]; !dup {
			r.infoOrder = append(r.infoOrder, d.Name)
		}
		r.info[d.Name] = d
	}
	for _, decl := range h.Format {
		d, err := r.declare(decl, SourceFormat, "FORMAT/")
		if err != nil {
			return nil, err
		}
		if _, dup := r.format[d.Name]; !dup {
			r.formatOrder = append(r.formatOrder, d.Name)
		}
		r.format[d.Name] = d
	}

	return r, nil
}

func (r *Registry) declare(decl vcf.FieldDecl, src Source, prefix string) (Descriptor, error) {
	number, typ := decl.Number, decl.Type
	var fill string
	if ov, ok := r.override(prefix, decl.ID); ok {
		if ov.Arity != "" {
			number = ov.Arity
		}
		if ov.Type != "" {
			typ = ov.Type
		}
		fill = ov.Missing
	}

	a, err := ParseArity(number)
	if err != nil {
		return Descriptor{}, fmt.Errorf("declare %s%s: %w", prefix, decl.ID, err)
	}
	t, err := ParseType(typ)
	if err != nil {
		return Descriptor{}, fmt.Errorf("declare %s%s: %w", prefix, decl.ID, err)
	}

	d := newDescriptor(decl.ID, t, a, src, decl.Description)
	if t == Boolean && src == SourceInfo {
		// Flags are present or absent; absence is false, not missing.
		d.Arity, d.Declared = FixedArity(1), FixedArity(1)
	}
	if fill != "" {
		if d.Missing, err = ParseFill(fill, t); err != nil {
			return Descriptor{}, fmt.Errorf("declare %s%s: %w", prefix, decl.ID, err)
		}
	}
	return d, nil
}

// override finds the override for a field. Keys loaded from configuration
// files may have been lowercased, so an exact match is preferred but a
// case-insensitive one is accepted.
func (r *Registry) override(prefix, id string) (Override, bool) {
	for _, key := range []string{prefix + id, id} {
		if ov, ok := r.overrides[key]; ok {
			return ov, true
		}
	}
	for _, key := range []string{prefix + id, id} {
		for k, ov := range r.overrides {
			if strings.EqualFold(k, key) {
				return ov, true
			}
		}
	}
	return Override{}, false
}

// Ploidy returns the configured genotype ploidy.
func (r *Registry) Ploidy() int {
	return r.ploidy
}

// Samples returns the header sample names in file order.
func (r *Registry) Samples() []string {
	return r.samples
}

// Filters returns the declared filter names, PASS excluded.
func (r *Registry) Filters() []string {
	return r.filters
}

// InfoFields returns declared INFO field names in header order.
func (r *Registry) InfoFields() []string {
	return r.infoOrder
}

// FormatFields returns declared FORMAT field names in header order.
func (r *Registry) FormatFields() []string {
	return r.formatOrder
}

// Resolve returns the descriptor of a field for the given table kind.
func (r *Registry) Resolve(name string, kind TableKind) (Descriptor, error) {
	for _, d := range r.standardColumns(kind, false) {
		if d.Name == name {
			return d, nil
		}
	}

	switch kind {
	case Variants, Info:
		if d, ok := r.info[name]; ok {
			return d, nil
		}
	case Calls:
		if d, ok := r.format[name]; ok && name != KeyGenotype {
			return d, nil
		}
	}
	return Descriptor{}, &UnknownFieldError{Field: name, Kind: kind}
}

// ArityFor resolves an arity against a record with nAlts alternate alleles.
// It returns -1 for Variable arity, whose count is whatever the record holds.
func (r *Registry) ArityFor(a Arity, nAlts int) int {
	switch a.Kind {
	case Fixed:
		return a.N
	case PerAlt:
		return nAlts
	case PerAllele:
		return nAlts + 1
	case PerGenotype:
		return NumGenotypes(nAlts+1, r.ploidy)
	}
	return -1
}

// Columns returns the ordered columns of a table. Standard columns always
// come first; fields selects INFO (variants, info) or FORMAT (calls) fields
// in the given order, and an empty list selects every declared field.
// With decompose set, per-alt fields hold one value and per-allele fields
// hold the reference value plus one alternate value.
func (r *Registry) Columns(kind TableKind, fields []string, decompose bool) ([]Descriptor, error) {
	cols := r.standardColumns(kind, decompose)
	seen := make(map[string]bool, len(cols)+len(fields))
	for _, d := range cols {
		seen[d.Name] = true
	}

	if len(fields) == 0 {
		if kind == Calls {
			fields = r.formatOrder
		} else {
			fields = r.infoOrder
		}
	}

	for _, name := range fields {
		if seen[name] || (kind == Calls && name == KeyGenotype) {
			continue
		}
		d, err := r.Resolve(name, kind)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		if decompose && kind != Calls {
			d = decomposed(d)
		}
		cols = append(cols, d)
	}
	return cols, nil
}

func decomposed(d Descriptor) Descriptor {
	switch d.Declared.Kind {
	case PerAlt:
		d.Arity = FixedArity(1)
	case PerAllele:
		d.Arity = FixedArity(2)
	}
	return d
}

func (r *Registry) standardColumns(kind TableKind, decompose bool) []Descriptor {
	perAlt := Arity{Kind: PerAlt}
	cols := []Descriptor{
		newDescriptor(ColChrom, Categorical, FixedArity(1), SourceRecord, "Chromosome"),
		newDescriptor(ColPos, Integer, FixedArity(1), SourceRecord, "1-based position"),
	}

	switch kind {
	case Variants:
		cols = append(cols,
			newDescriptor(ColID, String, FixedArity(1), SourceRecord, "Variant identifier"),
			newDescriptor(ColRef, String, FixedArity(1), SourceRecord, "Reference allele"),
			newDescriptor(ColAlt, String, perAlt, SourceRecord, "Alternate alleles"),
			newDescriptor(ColQual, Float, FixedArity(1), SourceRecord, "Quality"),
			newDescriptor(ColFilterPass, Boolean, FixedArity(1), SourceFilter, "Record passed all filters"),
		)
		for _, f := range r.filters {
			cols = append(cols, newDescriptor(FilterPrefix+f, Boolean, FixedArity(1), SourceFilter, "Record failed filter "+f))
		}
		cols = append(cols,
			newDescriptor(ColNumAlleles, Integer, FixedArity(1), SourceRecord, "Number of alleles, reference included"),
			newDescriptor(ColIsSNP, Boolean, FixedArity(1), SourceRecord, "All alleles are single bases"),
			newDescriptor(ColSVLen, Integer, perAlt, SourceRecord, "Length difference between alternate and reference"),
		)
	case Calls:
		cols = append(cols,
			newDescriptor(ColRef, String, FixedArity(1), SourceRecord, "Reference allele"),
			newDescriptor(ColAlt, String, perAlt, SourceRecord, "Alternate alleles"),
			newDescriptor(ColSample, Categorical, FixedArity(1), SourceRecord, "Sample name"),
			newDescriptor(ColIsCalled, Boolean, FixedArity(1), SourceGenotype, "Every allele of the genotype is called"),
			newDescriptor(ColIsPhased, Boolean, FixedArity(1), SourceGenotype, "Genotype is phased"),
			newDescriptor(ColGenotype, Integer, FixedArity(r.ploidy), SourceGenotype, "Allele indices of the genotype"),
		)
	}

	if decompose && kind != Calls {
		for i := range cols {
			if cols[i].Declared.Kind == PerAlt {
				cols[i].Arity = FixedArity(1)
			}
		}
	}
	return cols
}

// NumGenotypes returns the number of unordered genotypes for the given
// allele count and ploidy: C(nAlleles+ploidy-1, ploidy).
func NumGenotypes(nAlleles, ploidy int) int {
	if nAlleles <= 0 || ploidy <= 0 {
		return 0
	}
	n := 1
	for i := 1; i <= ploidy; i++ {
		n = n * (nAlleles + i - 1) / i
	}
	return n
}
