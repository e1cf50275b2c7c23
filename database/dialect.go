package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Dialect hides the few statements that differ between MySQL and SQLite.
type Dialect interface {
	Name() string
	// InsertIgnore is the insert verb that skips rows violating a unique key.
	InsertIgnore() string
	// ForUpdate is appended to SELECTs that must lock the rows they read.
	ForUpdate() string
	// Random is an ORDER BY expression producing a random permutation.
	Random() string
	IsUniqueViolation(err error) bool
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string         { return "mysql" }
func (mysqlDialect) InsertIgnore() string { return "INSERT IGNORE" }
func (mysqlDialect) ForUpdate() string    { return " FOR UPDATE" }
func (mysqlDialect) Random() string       { return "RAND()" }

// ER_DUP_ENTRY
const mysqlDupEntry = 1062

func (mysqlDialect) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDupEntry
	}
	return false
}

// sqliteDialect relies on _txlock=immediate instead of row locks.
type sqliteDialect struct{}

func (sqliteDialect) Name() string         { return "sqlite" }
func (sqliteDialect) InsertIgnore() string { return "INSERT OR IGNORE" }
func (sqliteDialect) ForUpdate() string    { return "" }
func (sqliteDialect) Random() string       { return "RANDOM()" }

func (sqliteDialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	MySQL  Dialect = mysqlDialect{}
	SQLite Dialect = sqliteDialect{}
)

// DialectFor returns the dialect registered under a driver name.
func DialectFor(driver string) (Dialect, bool) {
	switch driver {
	case "mysql":
		return MySQL, true
	case "sqlite":
		return SQLite, true
	}
	return nil, false
}
