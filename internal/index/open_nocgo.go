//go:build !cgo

package index

// Without cgo the modernc.org/sqlite driver is used.

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func openDB(path string) (*sqlx.DB, error) {
	// URI filenames must begin with "file:".
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	db, err := sqlx.Connect(driverName, path)
	if err != nil {
		return nil, err
	}

	_, err = db.DB.Exec(`
	PRAGMA journal_mode = OFF;
	PRAGMA synchronous = OFF;
	PRAGMA auto_vacuum = NONE;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to set pragmas: %w", err)
	}
	return db, nil
}
