package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendsd/database"
	"friendsd/database/databasetest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := databasetest.Open(t)

	require.NoError(t, db.Migrate(context.Background()))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO friend_lists (user_id, created_at) VALUES (?, ?)", "u1", 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM friend_lists").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTxCommits(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO friend_lists (user_id, created_at) VALUES (?, ?)", "u1", 1)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM friend_lists").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteUniqueViolation(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()

	insert := "INSERT INTO friend_lists (user_id, created_at) VALUES (?, ?)"
	_, err := db.ExecContext(ctx, insert, "u1", 1)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "u1", 2)
	require.Error(t, err)
	assert.True(t, database.SQLite.IsUniqueViolation(err))
	assert.False(t, database.SQLite.IsUniqueViolation(errors.New("disk I/O error")))
}

func TestMySQLUniqueViolation(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.True(t, database.MySQL.IsUniqueViolation(dup))
	assert.True(t, database.MySQL.IsUniqueViolation(errors.Join(errors.New("insert"), dup)))
	assert.False(t, database.MySQL.IsUniqueViolation(&mysql.MySQLError{Number: 1213}))
	assert.False(t, database.MySQL.IsUniqueViolation(errors.New("plain")))
}

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (id INT);

CREATE TABLE b (id INT);
`
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, database.SplitStatements(script))
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INT);\n", database.ExtractUpMigration(content))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(context.Background(), "postgres", "dsn")
	assert.ErrorContains(t, err, "unsupported driver")
}
