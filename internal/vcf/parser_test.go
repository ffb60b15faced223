package vcf

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParser_SampleFile(t *testing.T) {
	testFile := findTestFile(t, "sample.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil {
		t.Fatal("Expected a variant, got nil")
	}

	if v.Chrom != "chr1" {
		t.Errorf("Expected chrom chr1, got %s", v.Chrom)
	}
	if v.Pos != 100 {
		t.Errorf("Expected pos 100, got %d", v.Pos)
	}
	if len(v.Alt) != 2 || v.Alt[0] != "A" || v.Alt[1] != "T" {
		t.Errorf("Expected alts [A T], got %v", v.Alt)
	}
	if !v.HasQual || v.Qual != 29 {
		t.Errorf("Expected qual 29, got %v (has=%v)", v.Qual, v.HasQual)
	}
	if !v.HasFilter("PASS") {
		t.Errorf("Expected PASS filter, got %v", v.Filter)
	}
	if got, _ := v.InfoValue("AC"); got != "3,5" {
		t.Errorf("Expected AC=3,5, got %q", got)
	}
	if _, ok := v.InfoValue("DB"); !ok {
		t.Error("Expected DB flag to be present")
	}
	if v.Calls.Len() != 3 {
		t.Errorf("Expected 3 calls, got %d", v.Calls.Len())
	}
	if got, _ := v.Calls.Get(1, v.Calls.KeyIndex("GT")); got != "1|2" {
		t.Errorf("Expected second sample GT 1|2, got %q", got)
	}

	count := 1
	for {
		v, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading variant: %v", err)
		}
		if v == nil {
			break
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 variants, got %d", count)
	}
}

func TestParser_Header(t *testing.T) {
	testFile := findTestFile(t, "sample.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	h := parser.Header()
	if len(h.Lines) == 0 {
		t.Fatal("Expected header lines")
	}
	if h.Lines[0] != "##fileformat=VCFv4.2" {
		t.Errorf("Missing ##fileformat header, got %q", h.Lines[0])
	}
	if !strings.HasPrefix(h.Lines[len(h.Lines)-1], "#CHROM") {
		t.Error("Missing #CHROM header line")
	}

	wantSamples := []string{"NA00001", "NA00002", "NA00003"}
	if strings.Join(parser.SampleNames(), ",") != strings.Join(wantSamples, ",") {
		t.Errorf("SampleNames() = %v, want %v", parser.SampleNames(), wantSamples)
	}

	ac, ok := h.InfoDecl("AC")
	if !ok {
		t.Fatal("Expected AC declaration")
	}
	if ac.Number != "A" || ac.Type != "Integer" {
		t.Errorf("AC decl = %+v", ac)
	}
	if ac.Description != "Allele count in genotypes, for each ALT allele" {
		t.Errorf("quoted description with comma not preserved: %q", ac.Description)
	}

	hq, ok := h.FormatDecl("HQ")
	if !ok || hq.Number != "2" {
		t.Errorf("HQ decl = %+v, ok=%v", hq, ok)
	}

	if len(h.Filters) != 1 || h.Filters[0] != "q10" {
		t.Errorf("Filters = %v, want [q10]", h.Filters)
	}
	if len(h.Contigs) != 2 {
		t.Errorf("Contigs = %v, want 2 entries", h.Contigs)
	}
}

func TestParser_Gzip(t *testing.T) {
	raw, err := os.ReadFile(findTestFile(t, "sample.vcf"))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "sample.vcf.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	parser, err := NewParser(path)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	count := 0
	for {
		v, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading variant: %v", err)
		}
		if v == nil {
			break
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 variants, got %d", count)
	}
}

func TestParser_MissingChromLine(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("##fileformat=VCFv4.2\nchr1\t1\t.\tA\tT\t.\t.\t.\n"))
	if err == nil {
		t.Fatal("Expected error for missing #CHROM line")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("Expected *ParseError, got %T", err)
	}
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
	}{
		{"sites only", "1\t10\t.\tA\tT\t.\t.\t.", false},
		{"with samples", "1\t10\t.\tA\tT,C\t5.5\tq10;s50\tDP=3\tGT:DP\t0/1:3", false},
		{"too few columns", "1\t10\t.\tA\tT\t.\t.", true},
		{"bad position", "1\tx\t.\tA\tT\t.\t.\t.", true},
		{"bad quality", "1\t10\t.\tA\tT\tabc\t.\t.", true},
		{"no alt", "1\t10\t.\tA\t.\t.\t.\t.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.line, 1)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRecord() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRecord_Fields(t *testing.T) {
	v, err := ParseRecord("1\t10\t.\tA\tT,C\t5.5\tq10;s50\tDP=3;H2\tGT:DP\t0/1:3\t1/1", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Filter) != 2 || !v.HasFilter("s50") {
		t.Errorf("Filter = %v", v.Filter)
	}
	if v.Qual != 5.5 {
		t.Errorf("Qual = %v", v.Qual)
	}
	if v.NumAlleles() != 3 {
		t.Errorf("NumAlleles() = %d, want 3", v.NumAlleles())
	}
	if _, ok := v.Calls.Get(1, 1); ok {
		t.Error("Expected dropped trailing FORMAT value to be absent")
	}
	if got, ok := v.Calls.Get(0, 1); !ok || got != "3" {
		t.Errorf("Get(0,1) = %q, %v", got, ok)
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 8 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 8 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	// Try different relative paths
	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
