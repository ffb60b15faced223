package flatten

import (
	"fmt"
	"strconv"
	"strings"
)

// MissingAllele is the allele index stored for an uncalled allele (".").
const MissingAllele = -1

// Genotype is a decoded GT value.
type Genotype struct {
	Alleles []int // allele indices, MissingAllele for "."
	Phased  bool  // true when every separator is '|'
}

// ParseGenotype decodes a GT string such as "0/1", "1|2", "./." or "1".
// Phasing is decided per call, so records may mix phased and unphased calls.
func ParseGenotype(s string) (Genotype, error) {
	if s == "" {
		return Genotype{}, fmt.Errorf("empty genotype")
	}

	var g Genotype
	seps := 0
	phasedSeps := 0
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '/' && s[i] != '|' {
			continue
		}
		a, err := parseAllele(s[start:i])
		if err != nil {
			return Genotype{}, fmt.Errorf("genotype %q: %w", s, err)
		}
		g.Alleles = append(g.Alleles, a)
		if i < len(s) {
			seps++
			if s[i] == '|' {
				phasedSeps++
			}
		}
		start = i + 1
	}
	g.Phased = seps > 0 && phasedSeps == seps
	return g, nil
}

func parseAllele(s string) (int, error) {
	if s == "." {
		return MissingAllele, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid allele index %q", s)
	}
	return n, nil
}

// String returns the VCF GT notation of the genotype.
func (g Genotype) String() string {
	return EncodeGenotype(g)
}

// EncodeGenotype is the inverse of ParseGenotype. Missing alleles are
// written as ".".
func EncodeGenotype(g Genotype) string {
	sep := "/"
	if g.Phased {
		sep = "|"
	}
	parts := make([]string, len(g.Alleles))
	for i, a := range g.Alleles {
		if a < 0 {
			parts[i] = "."
		} else {
			parts[i] = strconv.Itoa(a)
		}
	}
	return strings.Join(parts, sep)
}

// IsCalled reports whether every allele is called.
func (g Genotype) IsCalled() bool {
	if len(g.Alleles) == 0 {
		return false
	}
	for _, a := range g.Alleles {
		if a < 0 {
			return false
		}
	}
	return true
}

// Ploidy returns the number of alleles in the call.
func (g Genotype) Ploidy() int {
	return len(g.Alleles)
}
