/*
Package sqlite3adapter provides an implementation of the
Adapter interface in the sqldataset package that works
over an SQLite3 database.
*/
package sqlite3adapter

import (
	"database/sql"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbanos/canopy/dataset/sqldataset"
)

// Dialect is the sqldataset.Dialect of SQLite3 databases.
var Dialect = sqldataset.Dialect{
	Placeholder:      func(int) string { return "?" },
	SerialPrimaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	FloatType:        "REAL",
	Setup:            []string{"PRAGMA foreign_keys=ON"},
}

/*
New takes a path to an SQLite3 database file and returns an Adapter that works
on the file's database or an error if it fails to open as an sqlite3 database.
The path ":memory:" opens a private in-memory database.
*/
func New(path string) (sqldataset.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// each connection would get its own database
		db.SetMaxOpenConns(1)
	}
	return sqldataset.NewAdapter(db, Dialect), nil
}
