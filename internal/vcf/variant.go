// Package vcf provides VCF file parsing functionality.
package vcf

import "strings"

// Variant represents a single record from a VCF file.
// A Variant is built once by the parser and must not be mutated afterwards.
type Variant struct {
	Chrom   string            // Chromosome name (e.g., "12", "chr12")
	Pos     int64             // 1-based genomic position
	ID      string            // Variant identifier, "." when absent
	Ref     string            // Reference allele
	Alt     []string          // Alternate alleles, in file order
	Qual    float64           // Quality score, valid only when HasQual is set
	HasQual bool              // False when QUAL is "."
	Filter  []string          // Filter names; nil when FILTER is "."
	Info    map[string]string // INFO key-value pairs; flags map to ""
	Calls   CallBlock         // FORMAT keys and per-sample values
}

// CallBlock holds the per-sample part of a record. Values[i] is aligned with
// the header sample i and holds one raw string per FORMAT key. Trailing keys
// may be dropped by the writer, so len(Values[i]) can be less than len(Format).
type CallBlock struct {
	Format []string
	Values [][]string
}

// Len returns the number of sample entries in the block.
func (c CallBlock) Len() int {
	return len(c.Values)
}

// KeyIndex returns the position of a FORMAT key, or -1.
func (c CallBlock) KeyIndex(key string) int {
	for i, k := range c.Format {
		if k == key {
			return i
		}
	}
	return -1
}

// Get returns the raw value of FORMAT key index k for sample s.
func (c CallBlock) Get(s, k int) (string, bool) {
	if k < 0 || s < 0 || s >= len(c.Values) || k >= len(c.Values[s]) {
		return "", false
	}
	return c.Values[s][k], true
}

// InfoValue returns the raw INFO value for key and whether the key is present.
func (v *Variant) InfoValue(key string) (string, bool) {
	val, ok := v.Info[key]
	return val, ok
}

// NumAlleles returns the number of alleles including the reference.
func (v *Variant) NumAlleles() int {
	return len(v.Alt) + 1
}

// HasFilter reports whether the record carries the named filter.
func (v *Variant) HasFilter(name string) bool {
	for _, f := range v.Filter {
		if f == name {
			return true
		}
	}
	return false
}

// IsSNV returns true if the reference and every alternate allele are single bases.
func (v *Variant) IsSNV() bool {
	if len(v.Ref) != 1 {
		return false
	}
	for _, a := range v.Alt {
		if !IsSNVPair(v.Ref, a) {
			return false
		}
	}
	return len(v.Alt) > 0
}

// IsSNVPair returns true for a single-base substitution.
func IsSNVPair(ref, alt string) bool {
	return len(ref) == 1 && len(alt) == 1 && isBase(alt[0]) && alt != "."
}

// SVLen returns the length difference between alt and ref.
// Positive values are insertions, negative values deletions.
func SVLen(ref, alt string) int64 {
	return int64(len(alt) - len(ref))
}

// IsIndel returns true if the pair is an insertion or deletion.
func IsIndel(ref, alt string) bool {
	return len(ref) != len(alt) && !IsSymbolic(alt)
}

// IsSymbolic returns true for symbolic or breakend alleles (e.g. <DEL>, N[1:10[).
func IsSymbolic(alt string) bool {
	return strings.HasPrefix(alt, "<") || strings.ContainsAny(alt, "[]") || alt == "*"
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return NormalizeChrom(v.Chrom)
}

// NormalizeChrom strips a leading "chr" from a chromosome name.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}

func isBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		return true
	}
	return false
}
