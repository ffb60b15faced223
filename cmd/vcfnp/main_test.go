package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcfnp/internal/duckdb"
)

// run executes the root command with a fresh viper state and a temporary
// home directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	data, err := os.ReadFile("../../testdata/sample.vcf")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sample.vcf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func tsvLines(out string) []string {
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestExtractCmd_WholeFile(t *testing.T) {
	path := setup(t)

	out, err := run(t, "extract", "--fields", "DP,AC", path)
	require.NoError(t, err)

	lines := tsvLines(out)
	require.Len(t, lines, 6)
	assert.Equal(t, "CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER_PASS\tFILTER_q10\tnum_alleles\tis_snp\tsvlen\tDP\tAC", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "chr1\t100\trs1\tG\tA,T\t29\ttrue\tfalse\t3\ttrue\t0,0\t14\t3,5"))
}

func TestExtractCmd_Regions(t *testing.T) {
	path := setup(t)

	_, err := run(t, "extract", "--region", "chr1", path)
	assert.ErrorContains(t, err, "index")

	out, err := run(t, "index", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 5 records on 2 chromosomes")

	out, err = run(t, "extract", "--kind", "calls", "--fields", "GQ", "--samples", "NA00002",
		"--region", "chr2", "--region", "chr1:140-160", "--workers", "2", path)
	require.NoError(t, err)

	lines := tsvLines(out)
	require.Len(t, lines, 4)
	assert.Equal(t, "CHROM\tPOS\tREF\tALT\tsample\tis_called\tis_phased\tgenotype\tGQ", lines[0])
	assert.Equal(t, "chr1\t150\tT\tC\tNA00002\ttrue\ttrue\t0,1\t3", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "chr2\t120\t"))
	assert.True(t, strings.HasPrefix(lines[3], "chr2\t500\t"))
}

func TestExtractCmd_DuckDB(t *testing.T) {
	path := setup(t)
	dbPath := filepath.Join(t.TempDir(), "out.duckdb")

	_, err := run(t, "extract", "--decompose", "--format", "duckdb", "-o", dbPath, path)
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count("variants")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	ex, err := store.Extractions("variants")
	require.NoError(t, err)
	require.Len(t, ex, 1)
	assert.Equal(t, int64(5), ex[0].Records)
	assert.Equal(t, int64(7), ex[0].Rows)
}

func TestExtractCmd_BadFlags(t *testing.T) {
	path := setup(t)

	_, err := run(t, "extract", "--kind", "genes", path)
	assert.Error(t, err)

	_, err = run(t, "extract", "--format", "duckdb", path)
	assert.ErrorContains(t, err, "-o")

	_, err = run(t, "extract", "--fields", "NOPE", path)
	assert.ErrorContains(t, err, "NOPE")
}

func TestSchemaCmd(t *testing.T) {
	path := setup(t)

	out, err := run(t, "schema", "--kind", "calls", path)
	require.NoError(t, err)
	assert.Contains(t, out, "genotype")
	assert.Contains(t, out, "HQ")
	assert.NotContains(t, out, "AF")
}

func TestConfigCmd(t *testing.T) {
	path := setup(t)

	out, err := run(t, "config", "set", "ploidy", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Set ploidy = 3")

	out, err = run(t, "config", "get", "ploidy")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	// The configured ploidy widens the genotype column.
	out, err = run(t, "extract", "--kind", "calls", "--fields", "GQ", "--samples", "NA00001", path)
	require.NoError(t, err)
	assert.Contains(t, tsvLines(out)[1], "\t0,0,-1\t")

	_, err = run(t, "config", "get", "nope")
	assert.Error(t, err)
}

func TestConfigCmd_RejectsBadValues(t *testing.T) {
	setup(t)

	for _, args := range [][]string{
		{"chunk_size", "abc"},
		{"ploidy", "-1"},
		{"workers", "0"},
		{"strict", "maybe"},
		{"nope", "1"},
		{"fields.genes", "GQ"},
		{"overrides.INFO/AC.arity", "Q"},
		{"overrides.INFO/AC.type", "Decimal"},
		{"overrides.INFO/AC.width", "2"},
	} {
		_, err := run(t, append([]string{"config", "set"}, args...)...)
		assert.Error(t, err, args)
	}

	out, err := run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "No configuration set")
}

func TestConfigCmd_FieldsAndOverrides(t *testing.T) {
	path := setup(t)

	_, err := run(t, "config", "set", "fields.variants", "DP, AC")
	require.NoError(t, err)
	_, err = run(t, "config", "set", "overrides.INFO/AC.type", "Float")
	require.NoError(t, err)
	_, err = run(t, "config", "set", "overrides.INFO/AC.missing", "x")
	assert.Error(t, err)
	_, err = run(t, "config", "set", "overrides.INFO/AC.missing", "nan")
	require.NoError(t, err)

	out, err := run(t, "config", "get", "fields.variants")
	require.NoError(t, err)
	assert.Equal(t, "DP,AC\n", out)

	out, err = run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "fields:")
	assert.Contains(t, out, "overrides:")

	out, err = run(t, "schema", path)
	require.NoError(t, err)
	assert.Regexp(t, `AC\s+float`, out)
	assert.NotContains(t, out, "AF")
}
