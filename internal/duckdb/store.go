// Package duckdb writes extracted chunks to DuckDB tables.
// Each table kind gets one DuckDB table whose columns mirror the chunk
// schema; multi-value columns become LIST columns.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vcfnp/internal/schema"
)

// Store manages a DuckDB connection for extracted tables.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the bookkeeping table if it doesn't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS vcfnp_extractions (
		table_name VARCHAR,
		kind VARCHAR,
		source_path VARCHAR,
		source_size BIGINT,
		source_mtime TIMESTAMP,
		regions VARCHAR,
		records BIGINT,
		rows_written BIGINT,
		skipped_records BIGINT,
		skipped_regions BIGINT,
		created_at TIMESTAMP
	)`)
	return err
}

// CreateTable creates a table for the given chunk schema, replacing any
// existing table of the same name.
func (s *Store) CreateTable(name string, columns []schema.Descriptor) error {
	defs := make([]string, len(columns))
	for i, d := range columns {
		defs[i] = quoteIdent(d.Name) + " " + columnType(d)
	}
	ddl := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// Count returns the number of rows in a table.
func (s *Store) Count(name string) (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + quoteIdent(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

// columnType maps a descriptor to a DuckDB type. Columns holding exactly one
// value per row are scalars; all others are lists.
func columnType(d schema.Descriptor) string {
	var base string
	switch d.Type {
	case schema.Integer:
		base = "BIGINT"
	case schema.Float:
		base = "DOUBLE"
	case schema.Boolean:
		base = "BOOLEAN"
	default:
		base = "VARCHAR"
	}
	if d.Width() == 1 {
		return base
	}
	return base + "[]"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
