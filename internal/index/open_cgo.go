//go:build cgo

package index

// With cgo available the mattn driver is used; it is faster than the pure Go
// driver.

import (
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

func openDB(path string) (*sqlx.DB, error) {
	// URI filenames must begin with "file:".
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return sqlx.Connect(driverName, path)
}
