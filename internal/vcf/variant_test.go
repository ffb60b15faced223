package vcf

import "testing"

func TestVariant_IsSNV(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		alt  []string
		want bool
	}{
		{"A to G", "A", []string{"G"}, true},
		{"multiallelic SNV", "G", []string{"C", "T"}, true},
		{"deletion", "AT", []string{"A"}, false},
		{"insertion", "A", []string{"AT"}, false},
		{"SNV and insertion", "A", []string{"G", "AT"}, false},
		{"MNV", "AT", []string{"GC"}, false},
		{"symbolic", "A", []string{"<DEL>"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Ref: tt.ref, Alt: tt.alt}
			if got := v.IsSNV(); got != tt.want {
				t.Errorf("IsSNV() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsIndel(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		alt  string
		want bool
	}{
		{"SNV", "A", "G", false},
		{"deletion", "AT", "A", true},
		{"insertion", "A", "AT", true},
		{"complex deletion", "ATGC", "A", true},
		{"MNV same length", "AT", "GC", false},
		{"symbolic", "A", "<INS>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIndel(tt.ref, tt.alt); got != tt.want {
				t.Errorf("IsIndel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSVLen(t *testing.T) {
	if got := SVLen("GTC", "G"); got != -2 {
		t.Errorf("SVLen(GTC, G) = %d, want -2", got)
	}
	if got := SVLen("G", "GTT"); got != 2 {
		t.Errorf("SVLen(G, GTT) = %d, want 2", got)
	}
}

func TestVariant_NormalizeChrom(t *testing.T) {
	tests := []struct {
		chrom string
		want  string
	}{
		{"chr12", "12"},
		{"12", "12"},
		{"chrX", "X"},
		{"chr", "chr"},
	}

	for _, tt := range tests {
		v := &Variant{Chrom: tt.chrom}
		if got := v.NormalizeChrom(); got != tt.want {
			t.Errorf("NormalizeChrom(%q) = %q, want %q", tt.chrom, got, tt.want)
		}
	}
}

func TestTrimNormalizer(t *testing.T) {
	tests := []struct {
		name      string
		ref, alt  string
		wantRef   string
		wantAlt   string
		wantDelta int64
	}{
		{"snv unchanged", "A", "G", "A", "G", 0},
		{"insertion after shared prefix", "GTC", "GTCT", "C", "CT", 2},
		{"shared suffix", "ACGT", "AGT", "AC", "A", 0},
		{"shared prefix", "CAT", "CGT", "A", "G", 1},
		{"padded deletion kept", "GTC", "G", "GTC", "G", 0},
		{"symbolic", "A", "<DEL>", "A", "<DEL>", 0},
	}

	var n TrimNormalizer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, alt, delta := n.Normalize(tt.ref, tt.alt)
			if ref != tt.wantRef || alt != tt.wantAlt || delta != tt.wantDelta {
				t.Errorf("Normalize(%q, %q) = (%q, %q, %d), want (%q, %q, %d)",
					tt.ref, tt.alt, ref, alt, delta, tt.wantRef, tt.wantAlt, tt.wantDelta)
			}
		})
	}
}
