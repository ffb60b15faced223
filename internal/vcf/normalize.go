package vcf

// NopNormalizer returns alleles unchanged.
type NopNormalizer struct{}

// Normalize implements Normalizer.
func (NopNormalizer) Normalize(ref, alt string) (string, string, int64) {
	return ref, alt, 0
}

// TrimNormalizer trims bases shared by ref and alt: first the common suffix,
// then the common prefix, always leaving at least one base in each allele.
// It does not left-align against the reference sequence. Symbolic alleles
// are returned unchanged.
type TrimNormalizer struct{}

// Normalize implements Normalizer.
func (TrimNormalizer) Normalize(ref, alt string) (string, string, int64) {
	if IsSymbolic(alt) || alt == "." || ref == "" || alt == "" {
		return ref, alt, 0
	}

	for len(ref) > 1 && len(alt) > 1 && ref[len(ref)-1] == alt[len(alt)-1] {
		ref = ref[:len(ref)-1]
		alt = alt[:len(alt)-1]
	}

	var delta int64
	for len(ref) > 1 && len(alt) > 1 && ref[0] == alt[0] {
		ref = ref[1:]
		alt = alt[1:]
		delta++
	}

	return ref, alt, delta
}
