package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcfnp/internal/schema"
)

func TestFlattenCalls_RowPerSample(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, nil, nil, Options{})
	require.NoError(t, err)

	v := record(t, "chr1 100 rs1 G A,T 29 PASS . GT:GQ:HQ:PL 0/1:48:51,50:1,2,3,4,5,6 1|2:43:.,.:.")
	rows, err := b.Flatten(v)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	cols := b.Columns()
	assert.Equal(t, "S1", cellOf(t, cols, rows[0], "sample")[0].Text())
	assert.Equal(t, []int64{0, 1}, ints(cellOf(t, cols, rows[0], "genotype")))
	assert.False(t, cellOf(t, cols, rows[0], "is_phased")[0].Bool())
	assert.True(t, cellOf(t, cols, rows[0], "is_called")[0].Bool())
	assert.Equal(t, []int64{48}, ints(cellOf(t, cols, rows[0], "GQ")))
	assert.Equal(t, []int64{51, 50}, ints(cellOf(t, cols, rows[0], "HQ")))
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ints(cellOf(t, cols, rows[0], "PL")))

	assert.Equal(t, "S2", cellOf(t, cols, rows[1], "sample")[0].Text())
	assert.Equal(t, []int64{1, 2}, ints(cellOf(t, cols, rows[1], "genotype")))
	assert.True(t, cellOf(t, cols, rows[1], "is_phased")[0].Bool())

	// A single "." for a per-genotype field expands to the expected count.
	pl := cellOf(t, cols, rows[1], "PL")
	require.Len(t, pl, 6)
	for _, v := range pl {
		assert.True(t, v.IsMissing())
	}
}

func TestFlattenCalls_GenotypeRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, []string{"GQ"}, nil, Options{})
	require.NoError(t, err)

	rows, err := b.Flatten(record(t, "chr1 100 . G A,T 29 PASS . GT 0/1 1|2"))
	require.NoError(t, err)
	cols := b.Columns()

	for i, want := range []string{"0/1", "1|2"} {
		g := Genotype{Phased: cellOf(t, cols, rows[i], "is_phased")[0].Bool()}
		for _, a := range ints(cellOf(t, cols, rows[i], "genotype")) {
			g.Alleles = append(g.Alleles, int(a))
		}
		assert.Equal(t, want, g.String())
	}
}

func TestFlattenCalls_MissingFormatFields(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, []string{"GQ", "HQ"}, nil, Options{})
	require.NoError(t, err)

	// S1 drops trailing HQ; the record does not declare GQ at all.
	rows, err := b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT:HQ 0/1 ./.:3,4"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	cols := b.Columns()

	gq := cellOf(t, cols, rows[0], "GQ")
	require.Len(t, gq, 1)
	assert.True(t, gq[0].IsMissing())
	assert.Equal(t, int64(-1), gq[0].Int())

	hq := cellOf(t, cols, rows[0], "HQ")
	require.Len(t, hq, 2)
	assert.True(t, hq[0].IsMissing())
	assert.True(t, hq[1].IsMissing())

	assert.Equal(t, []int64{3, 4}, ints(cellOf(t, cols, rows[1], "HQ")))
	assert.False(t, cellOf(t, cols, rows[1], "is_called")[0].Bool())
	assert.Equal(t, []int64{-1, -1}, ints(cellOf(t, cols, rows[1], "genotype")))

	// Column order is identical for every row.
	for _, row := range rows {
		assert.Len(t, row, len(cols))
	}
}

func TestFlattenCalls_NoGenotypeKey(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, []string{"GQ"}, nil, Options{})
	require.NoError(t, err)

	rows, err := b.Flatten(record(t, "chr1 100 . G A 29 PASS . GQ 10 20"))
	require.NoError(t, err)
	cols := b.Columns()
	assert.False(t, cellOf(t, cols, rows[0], "is_called")[0].Bool())
	assert.Equal(t, []int64{20}, ints(cellOf(t, cols, rows[1], "GQ")))
}

func TestFlattenCalls_HaploidPadded(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, []string{"GQ"}, nil, Options{})
	require.NoError(t, err)

	rows, err := b.Flatten(record(t, "chrX 100 . G A 29 PASS . GT 1 ."))
	require.NoError(t, err)
	cols := b.Columns()
	assert.Equal(t, []int64{1, -1}, ints(cellOf(t, cols, rows[0], "genotype")))
	assert.True(t, cellOf(t, cols, rows[0], "is_called")[0].Bool())
	assert.Equal(t, []int64{-1, -1}, ints(cellOf(t, cols, rows[1], "genotype")))
	assert.False(t, cellOf(t, cols, rows[1], "is_called")[0].Bool())
}

func TestFlattenCalls_HaploidPerGenotype(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, []string{"PL"}, nil, Options{Policy: Skip})
	require.NoError(t, err)

	rows, err := b.Flatten(record(t, "chrX 100 . G A 29 PASS . GT:PL 0/1:0,10,20 1:30,0"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Zero(t, b.Skipped())

	cols := b.Columns()
	assert.Equal(t, []int64{0, 10, 20}, ints(cellOf(t, cols, rows[0], "PL")))
	assert.Equal(t, []int64{30, 0, -1}, ints(cellOf(t, cols, rows[1], "PL")))

	// A haploid count on a diploid call is still rejected.
	rows, err = b.Flatten(record(t, "chrX 100 . G A 29 PASS . GT:PL 0/1:0,10 1:30,0"))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, b.Skipped())
}

func TestFlattenCalls_EmptyBooleanIsMissing(t *testing.T) {
	reg := testRegistry(t, schema.WithOverrides(map[string]schema.Override{
		"FORMAT/GQ": {Type: "Boolean"},
	}))
	b, err := NewCallBuilder(reg, []string{"GQ"}, nil, Options{})
	require.NoError(t, err)

	rows, err := b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT:GQ 0/1: 1/1:1"))
	require.NoError(t, err)
	cols := b.Columns()

	empty := cellOf(t, cols, rows[0], "GQ")
	require.Len(t, empty, 1)
	assert.True(t, empty[0].IsMissing())
	assert.False(t, empty[0].Bool())
	assert.True(t, cellOf(t, cols, rows[1], "GQ")[0].Bool())
}

func TestFlattenCalls_ShortCallBlock(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, nil, nil, Options{})
	require.NoError(t, err)

	_, err = b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT 0/1"))
	var mre *MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, int64(100), mre.Pos)

	_, err = b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT 0/1 0/1 1/1"))
	require.ErrorAs(t, err, &mre)

	lenient, err := NewCallBuilder(reg, nil, nil, Options{Policy: Skip})
	require.NoError(t, err)
	rows, err := lenient.Flatten(record(t, "chr1 100 . G A 29 PASS . GT 0/1"))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, lenient.Skipped())
}

func TestFlattenCalls_GenotypeErrors(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, nil, nil, Options{})
	require.NoError(t, err)

	_, err = b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT 0/x 0/1"))
	var fce *schema.FieldCoercionError
	require.ErrorAs(t, err, &fce)
	assert.Equal(t, "GT", fce.Field)

	_, err = b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT 0/3 0/1"))
	require.ErrorAs(t, err, &fce)

	_, err = b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT 0/1/1 0/1"))
	var ame *schema.ArityMismatchError
	require.ErrorAs(t, err, &ame)
	assert.Equal(t, 3, ame.Got)
}

func TestFlattenCalls_SampleSelection(t *testing.T) {
	reg := testRegistry(t)
	b, err := NewCallBuilder(reg, []string{"GQ"}, []string{"S2"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"S2"}, b.SampleNames())

	rows, err := b.Flatten(record(t, "chr1 100 . G A 29 PASS . GT:GQ 0/1:5 1/1:9"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []int64{9}, ints(cellOf(t, b.Columns(), rows[0], "GQ")))

	_, err = NewCallBuilder(reg, nil, []string{"NOBODY"}, Options{})
	var ufe *schema.UnknownFieldError
	require.ErrorAs(t, err, &ufe)
}

func TestFlattenCalls_UnknownField(t *testing.T) {
	reg := testRegistry(t)
	_, err := NewCallBuilder(reg, []string{"DP"}, nil, Options{})
	var ufe *schema.UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "DP", ufe.Field)
}
