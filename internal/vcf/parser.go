// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Parser reads variants from a VCF file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	header     *Header
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}

	gz, err := IsGzip(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	if gz {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReaderSize(p.gzipReader, 1<<20)
	} else {
		p.reader = bufio.NewReaderSize(file, 1<<20)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// IsGzip reports whether f starts with the gzip magic number (0x1f, 0x8b).
// The read offset is restored before returning.
func IsGzip(f io.ReadSeeker) (bool, error) {
	buf := make([]byte, 2)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("read vcf header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("seek vcf file: %w", err)
	}
	return n == 2 && buf[0] == 0x1f && buf[1] == 0x8b, nil
}

// ReadHeader reads header lines from r up to and including #CHROM.
// It returns the parsed header and the number of bytes consumed.
func ReadHeader(r *bufio.Reader) (*Header, int64, error) {
	h := &Header{}
	var consumed int64
	line := 0
	for {
		raw, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			if err == io.EOF {
				break
			}
			return nil, consumed, fmt.Errorf("read header: %w", err)
		}
		consumed += int64(len(raw))
		line++

		text := strings.TrimRight(raw, "\r\n")

		if strings.HasPrefix(text, "##") {
			if err := h.addLine(text); err != nil {
				return nil, consumed, &ParseError{Line: line, Message: err.Error()}
			}
			continue
		}

		if strings.HasPrefix(text, "#CHROM") {
			if err := h.addLine(text); err != nil {
				return nil, consumed, &ParseError{Line: line, Message: err.Error()}
			}
			return h, consumed, nil
		}

		// Non-header line encountered without #CHROM
		return nil, consumed, &ParseError{
			Line:    line,
			Message: "expected #CHROM header line",
		}
	}

	return nil, consumed, &ParseError{
		Line:    line,
		Message: "no #CHROM header line found",
	}
}

// parseHeader reads and stores VCF header lines.
func (p *Parser) parseHeader() error {
	h, _, err := ReadHeader(p.reader)
	if err != nil {
		return err
	}
	p.header = h
	p.lineNumber = len(h.Lines)
	return nil
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue // Skip empty lines
		}

		return ParseRecord(line, p.lineNumber)
	}
}

// ParseRecord parses a single VCF data line into a Variant.
// lineNumber is only used for error reporting.
func ParseRecord(line string, lineNumber int) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 0 {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	if fields[4] == "" || fields[4] == "." {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: "record has no alternate allele",
		}
	}

	v := &Variant{
		Chrom: fields[0],
		Pos:   pos,
		ID:    fields[2],
		Ref:   fields[3],
		Alt:   strings.Split(fields[4], ","),
		Info:  parseInfo(fields[7]),
	}

	if fields[5] != "." {
		v.Qual, err = strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("invalid quality: %s", fields[5]),
			}
		}
		v.HasQual = true
	}

	if fields[6] != "." && fields[6] != "" {
		v.Filter = strings.Split(fields[6], ";")
	}

	// FORMAT + sample columns
	if len(fields) > 8 {
		v.Calls.Format = strings.Split(fields[8], ":")
		samples := fields[9:]
		v.Calls.Values = make([][]string, len(samples))
		for i, s := range samples {
			v.Calls.Values[i] = strings.Split(s, ":")
		}
	}

	return v, nil
}

// parseInfo parses the INFO field into a map.
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "." || info == "" {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		if kv == "" {
			continue
		}
		key, val, ok := strings.Cut(kv, "=")
		if ok {
			result[key] = val
		} else {
			// Flag-type INFO field
			result[key] = ""
		}
	}

	return result
}

// Header returns the parsed VCF header.
func (p *Parser) Header() *Header {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
// Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.header.Samples
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
