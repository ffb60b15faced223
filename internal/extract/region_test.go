package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in   string
		want Region
		str  string
	}{
		{"chr1", Region{Chrom: "chr1"}, "chr1"},
		{"chr1:100", Region{Chrom: "chr1", Start: 100}, "chr1:100"},
		{"chr1:100-200", Region{Chrom: "chr1", Start: 100, End: 201}, "chr1:100-200"},
		{"2:1,000-2,000", Region{Chrom: "2", Start: 1000, End: 2001}, "2:1000-2000"},
		{" chrX:5-5 ", Region{Chrom: "chrX", Start: 5, End: 6}, "chrX:5-5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegion(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestParseRegion_Invalid(t *testing.T) {
	for _, in := range []string{"", ":100", "chr1:", "chr1:0", "chr1:abc", "chr1:200-100", "chr1:1-x"} {
		_, err := ParseRegion(in)
		assert.Error(t, err, in)
	}
}

func TestParseRegions(t *testing.T) {
	got, err := ParseRegions([]string{"chr1", "chr2:5-10"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ParseRegions([]string{"chr1", "chr2:x"})
	assert.Error(t, err)
}

func TestRegion_Contains(t *testing.T) {
	r := Region{Chrom: "chr1", Start: 100, End: 201}
	assert.False(t, r.Contains(99))
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(200))
	assert.False(t, r.Contains(201))

	open := Region{Chrom: "chr1", Start: 100}
	assert.True(t, open.Contains(1<<40))
}

func TestSortRegions(t *testing.T) {
	in := []Region{
		{Chrom: "chrM"},
		{Chrom: "chr10", Start: 5},
		{Chrom: "chrX"},
		{Chrom: "chr2", Start: 50},
		{Chrom: "chr2", Start: 10},
		{Chrom: "chrUn_gl000220"},
		{Chrom: "chr2", Start: 10, End: 20},
	}
	got := SortRegions(in)

	var names []string
	for _, r := range got {
		names = append(names, r.String())
	}
	assert.Equal(t, []string{
		"chr2:10-19", "chr2:10", "chr2:50", "chr10:5", "chrX", "chrM", "chrUn_gl000220",
	}, names)

	// The input is left untouched.
	assert.Equal(t, "chrM", in[0].Chrom)
}

func TestCompareChrom(t *testing.T) {
	assert.Negative(t, CompareChrom("chr2", "chr10"))
	assert.Negative(t, CompareChrom("22", "X"))
	assert.Negative(t, CompareChrom("chrY", "chrMT"))
	assert.Positive(t, CompareChrom("GL000220.1", "chrM"))
	assert.Zero(t, CompareChrom("chr1", "chr1"))
}
