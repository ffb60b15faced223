package duckdb

import (
	"fmt"
	"strings"
	"time"

	"github.com/inodb/vcfnp/internal/index"
)

// Extraction records where a table's rows came from.
type Extraction struct {
	Table          string
	Kind           string
	Source         index.FileFingerprint
	Regions        []string
	Records        int64
	Rows           int64
	SkippedRecords int64
	SkippedRegions int64
	CreatedAt      time.Time
}

// RecordExtraction stores e in the bookkeeping table.
func (s *Store) RecordExtraction(e Extraction) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO vcfnp_extractions VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Table, e.Kind, e.Source.Path, e.Source.Size, e.Source.ModTime,
		strings.Join(e.Regions, ","), e.Records, e.Rows, e.SkippedRecords, e.SkippedRegions, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}
	return nil
}

// Extractions returns the recorded extractions of a table, oldest first.
func (s *Store) Extractions(tableName string) ([]Extraction, error) {
	rows, err := s.db.Query(`SELECT
		table_name, kind, source_path, source_size, source_mtime, regions,
		records, rows_written, skipped_records, skipped_regions, created_at
		FROM vcfnp_extractions WHERE table_name = ? ORDER BY created_at`, tableName)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		var regions string
		if err := rows.Scan(
			&e.Table, &e.Kind, &e.Source.Path, &e.Source.Size, &e.Source.ModTime, &regions,
			&e.Records, &e.Rows, &e.SkippedRecords, &e.SkippedRegions, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		if regions != "" {
			e.Regions = strings.Split(regions, ",")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extractions: %w", err)
	}
	return out, nil
}
