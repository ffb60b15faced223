// Package index maintains a SQLite byte-offset index over uncompressed VCF
// files. Each record line is stored with its chromosome, position, file
// offset and length, so a region query becomes a list of byte ranges.
package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Extension is appended to a VCF path to name its index file.
const Extension = ".vci"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS Variant (
	chromosome TEXT NOT NULL,
	position INTEGER NOT NULL,
	file_start_position INTEGER NOT NULL,
	size_in_bytes INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS Metadata (
	filename TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	last_write_time INTEGER NOT NULL,
	header_size INTEGER NOT NULL,
	first_1000_bytes BLOB,
	index_creation_time INTEGER NOT NULL
);
`

const indexSQL = `CREATE INDEX IF NOT EXISTS Variant_chromosome_position ON Variant (chromosome, position)`

// Entry is one row of the Variant table.
type Entry struct {
	Chromosome        string `db:"chromosome"`
	Position          int64  `db:"position"`
	FileStartPosition int64  `db:"file_start_position"`
	SizeInBytes       int64  `db:"size_in_bytes"`
}

// Metadata describes the VCF file an index was built from.
type Metadata struct {
	Filename           string `db:"filename"`
	FileSize           int64  `db:"file_size"`
	LastWriteTime      int64  `db:"last_write_time"` // unix nanoseconds
	HeaderSize         int64  `db:"header_size"`     // bytes before the first record
	FirstThousandBytes []byte `db:"first_1000_bytes"`
	IndexCreationTime  int64  `db:"index_creation_time"`
}

// ByteRange is a contiguous span of record lines in the data file.
type ByteRange struct {
	Offset int64
	Length int64
}

// End returns the offset just past the range.
func (r ByteRange) End() int64 { return r.Offset + r.Length }

// Index is an open VCF index. It is not safe for concurrent use; parallel
// extraction opens one Index per worker.
type Index struct {
	DB       *sqlx.DB
	Metadata *Metadata

	chroms map[string]bool
}

// Open opens an existing index file.
func Open(path string) (*Index, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	idx := &Index{DB: db, Metadata: &Metadata{}}
	if err := idx.DB.Get(idx.Metadata, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("read index metadata: %w", err)
	}
	if err := idx.loadChromosomes(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.DB.Close()
}

func (idx *Index) loadChromosomes() error {
	var names []string
	if err := idx.DB.Select(&names, "SELECT DISTINCT chromosome FROM Variant"); err != nil {
		return fmt.Errorf("list chromosomes: %w", err)
	}
	idx.chroms = make(map[string]bool, len(names))
	for _, n := range names {
		idx.chroms[n] = true
	}
	return nil
}

// Chromosomes returns the indexed chromosome names, sorted.
func (idx *Index) Chromosomes() []string {
	out := make([]string, 0, len(idx.chroms))
	for n := range idx.chroms {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// HasChromosome reports whether name, or its form with or without a "chr"
// prefix, has at least one indexed record.
func (idx *Index) HasChromosome(name string) bool {
	_, ok := idx.lookup(name)
	return ok
}

func (idx *Index) lookup(name string) (string, bool) {
	if idx.chroms[name] {
		return name, true
	}
	alt := "chr" + name
	if strings.HasPrefix(name, "chr") {
		alt = name[3:]
	}
	if idx.chroms[alt] {
		return alt, true
	}
	return "", false
}

// Resolve returns the byte ranges of records on chrom with start <= POS < end,
// in file order. end <= 0 means no upper bound. Adjacent record lines are
// merged into one range. An unknown chromosome yields no ranges and no error.
func (idx *Index) Resolve(chrom string, start, end int64) ([]ByteRange, error) {
	name, ok := idx.lookup(chrom)
	if !ok {
		return nil, nil
	}

	var entries []Entry
	err := idx.DB.Select(&entries, `
	SELECT chromosome, position, file_start_position, size_in_bytes FROM Variant
	WHERE chromosome = ? AND position >= ? AND (? <= 0 OR position < ?)
	ORDER BY file_start_position`, name, start, end, end)
	if err != nil {
		return nil, fmt.Errorf("query index for %s:%d-%d: %w", chrom, start, end, err)
	}
	return mergeRanges(entries), nil
}

// Count returns the number of indexed records.
func (idx *Index) Count() (int64, error) {
	var n int64
	if err := idx.DB.Get(&n, "SELECT COUNT(*) FROM Variant"); err != nil {
		return 0, fmt.Errorf("count index entries: %w", err)
	}
	return n, nil
}

func mergeRanges(entries []Entry) []ByteRange {
	var out []ByteRange
	for _, e := range entries {
		if n := len(out); n > 0 && out[n-1].End() == e.FileStartPosition {
			out[n-1].Length += e.SizeInBytes
			continue
		}
		out = append(out, ByteRange{Offset: e.FileStartPosition, Length: e.SizeInBytes})
	}
	return out
}
