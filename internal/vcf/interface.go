// Package vcf provides VCF file parsing functionality.
package vcf

// VariantParser is the interface for record readers.
type VariantParser interface {
	// Next reads the next variant.
	// Returns nil, nil when there are no more variants.
	Next() (*Variant, error)

	// Header returns the metadata parsed from the file header.
	Header() *Header

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// Normalizer rewrites a single ref/alt pair into a canonical representation.
// delta is added to the record position. Implementations handle one allele
// at a time and never reorder alleles.
type Normalizer interface {
	Normalize(ref, alt string) (normRef, normAlt string, delta int64)
}
