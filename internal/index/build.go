package index

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vcfnp/internal/vcf"
)

const (
	batchSize      = 10000
	firstBytesSize = 1000
)

// DefaultPath returns the index path used for a VCF file.
func DefaultPath(vcfPath string) string {
	return vcfPath + Extension
}

// Build scans an uncompressed VCF file and writes a fresh index to idxPath,
// replacing any existing file. The index is written to a temporary file and
// renamed into place once complete.
func Build(ctx context.Context, vcfPath, idxPath string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(vcfPath)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	defer f.Close()

	gz, err := vcf.IsGzip(f)
	if err != nil {
		return nil, err
	}
	if gz {
		return nil, fmt.Errorf("cannot index %s: compressed input has no stable byte offsets", vcfPath)
	}

	fp, err := StatFile(vcfPath)
	if err != nil {
		return nil, fmt.Errorf("stat vcf file: %w", err)
	}

	first := make([]byte, firstBytesSize)
	n, err := io.ReadFull(f, first)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read vcf file: %w", err)
	}
	first = first[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	tmp := idxPath + ".tmp"
	os.Remove(tmp)
	db, err := openDB(tmp)
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", tmp, err)
	}
	idx := &Index{DB: db}
	fail := func(err error) (*Index, error) {
		db.Close()
		os.Remove(tmp)
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fail(fmt.Errorf("create index schema: %w", err))
	}

	r := bufio.NewReaderSize(f, 1<<20)
	_, headerSize, err := vcf.ReadHeader(r)
	if err != nil {
		return fail(fmt.Errorf("read vcf header: %w", err))
	}

	count, err := idx.scan(ctx, r, headerSize, logger)
	if err != nil {
		return fail(err)
	}

	if _, err := db.Exec(indexSQL); err != nil {
		return fail(fmt.Errorf("create position index: %w", err))
	}

	meta := &Metadata{
		Filename:           fp.Path,
		FileSize:           fp.Size,
		LastWriteTime:      fp.ModTime.UnixNano(),
		HeaderSize:         headerSize,
		FirstThousandBytes: first,
		IndexCreationTime:  time.Now().UnixNano(),
	}
	_, err = db.NamedExec(`INSERT INTO Metadata
	(filename, file_size, last_write_time, header_size, first_1000_bytes, index_creation_time)
	VALUES (:filename, :file_size, :last_write_time, :header_size, :first_1000_bytes, :index_creation_time)`, meta)
	if err != nil {
		return fail(fmt.Errorf("write index metadata: %w", err))
	}
	db.Close()

	if err := os.Rename(tmp, idxPath); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("move index into place: %w", err)
	}
	logger.Info("built index",
		zap.String("vcf", vcfPath),
		zap.String("index", idxPath),
		zap.Int64("records", count))

	return Open(idxPath)
}

// scan records the offset of every data line after the header, in batches of
// one transaction each.
func (idx *Index) scan(ctx context.Context, r *bufio.Reader, offset int64, logger *zap.Logger) (int64, error) {
	var (
		count int64
		batch = make([]Entry, 0, batchSize)
		line  = 0
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx, err := idx.DB.Beginx()
		if err != nil {
			return fmt.Errorf("begin index batch: %w", err)
		}
		stmt, err := tx.PrepareNamed(`INSERT INTO Variant
		(chromosome, position, file_start_position, size_in_bytes)
		VALUES (:chromosome, :position, :file_start_position, :size_in_bytes)`)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare index insert: %w", err)
		}
		for i := range batch {
			if _, err := stmt.Exec(&batch[i]); err != nil {
				stmt.Close()
				tx.Rollback()
				return fmt.Errorf("insert index entry: %w", err)
			}
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit index batch: %w", err)
		}
		count += int64(len(batch))
		batch = batch[:0]
		logger.Debug("indexed records", zap.Int64("count", count))
		return nil
	}

	for {
		raw, err := r.ReadBytes('\n')
		if err != nil && (err != io.EOF || len(raw) == 0) {
			if err == io.EOF {
				break
			}
			return count, fmt.Errorf("read vcf line: %w", err)
		}
		line++
		start := offset
		offset += int64(len(raw))

		text := bytes.TrimRight(raw, "\r\n")
		if len(text) == 0 {
			continue
		}
		e, err := entryOf(text, line)
		if err != nil {
			return count, err
		}
		e.FileStartPosition = start
		e.SizeInBytes = int64(len(raw))
		batch = append(batch, e)

		if len(batch) == batchSize {
			if err := ctx.Err(); err != nil {
				return count, err
			}
			if err := flush(); err != nil {
				return count, err
			}
		}
	}
	return count, flush()
}

// entryOf reads CHROM and POS from a record line without parsing the rest.
func entryOf(text []byte, line int) (Entry, error) {
	chrom, rest, ok := bytes.Cut(text, []byte{'\t'})
	if !ok {
		return Entry{}, &vcf.ParseError{Line: line, Message: "record has a single column"}
	}
	posField, _, _ := bytes.Cut(rest, []byte{'\t'})
	pos, err := strconv.ParseInt(string(posField), 10, 64)
	if err != nil {
		return Entry{}, &vcf.ParseError{Line: line, Message: fmt.Sprintf("invalid position %q", posField)}
	}
	return Entry{Chromosome: string(chrom), Position: pos}, nil
}
