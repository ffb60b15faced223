package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/vcfnp/internal/index"
	"github.com/inodb/vcfnp/internal/vcf"
)

// rangeParser reads records from byte ranges of an uncompressed VCF file.
type rangeParser struct {
	r    *bufio.Reader
	line int
}

func newRangeParser(data io.ReaderAt, ranges []index.ByteRange) *rangeParser {
	return &rangeParser{r: bufio.NewReaderSize(index.RangeReader(data, ranges), 1<<16)}
}

// Next returns the next record, or nil, nil when the ranges are exhausted.
func (p *rangeParser) Next() (*vcf.Variant, error) {
	for {
		line, err := p.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.line++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		return vcf.ParseRecord(line, p.line)
	}
}

func (p *rangeParser) Header() *vcf.Header { return nil }
func (p *rangeParser) Close() error        { return nil }
func (p *rangeParser) LineNumber() int     { return p.line }

// FileSource is a Source opened from disk. The index is only opened when its
// file exists.
type FileSource struct {
	Source
	Parser *vcf.Parser
	file   *os.File
	idx    *index.Index
}

// OpenFile opens a VCF file for extraction. idxPath may name a missing file,
// in which case only whole-file extraction is possible.
func OpenFile(vcfPath, idxPath string) (*FileSource, error) {
	p, err := vcf.NewParser(vcfPath)
	if err != nil {
		return nil, err
	}
	fs := &FileSource{Parser: p}
	fs.Records = p

	if idxPath == "" {
		return fs, nil
	}
	if _, err := os.Stat(idxPath); err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		p.Close()
		return nil, err
	}

	if fs.idx, err = index.Open(idxPath); err != nil {
		p.Close()
		return nil, err
	}
	ok, err := fs.idx.Matches(vcfPath)
	if err != nil || !ok {
		fs.Close()
		if err == nil {
			err = fmt.Errorf("index %s is stale; rebuild it with the index command", idxPath)
		}
		return nil, err
	}
	if fs.file, err = os.Open(vcfPath); err != nil {
		fs.Close()
		return nil, err
	}
	fs.Index = fs.idx
	fs.Data = fs.file
	return fs, nil
}

// Header returns the VCF header.
func (fs *FileSource) Header() *vcf.Header {
	return fs.Parser.Header()
}

// Close closes the parser, the index and the data file.
func (fs *FileSource) Close() error {
	var errs []error
	if fs.Parser != nil {
		errs = append(errs, fs.Parser.Close())
	}
	if fs.idx != nil {
		errs = append(errs, fs.idx.Close())
	}
	if fs.file != nil {
		errs = append(errs, fs.file.Close())
	}
	return errors.Join(errs...)
}
