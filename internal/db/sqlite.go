package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// OpenSQLite opens a SQLite database at the given path and configures WAL mode.
func OpenSQLite(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return conn, nil
}

// IsNoSuchTable reports whether err is SQLite's missing-table error: a driver error with the
// SQLITE_ERROR primary code whose message names a missing table.
func IsNoSuchTable(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.Code()&0xff == sqlite3.SQLITE_ERROR && strings.Contains(sqlErr.Error(), "no such table")
}

// ReplaceSQLiteTable is the SQLite counterpart of ReplaceTable.
func ReplaceSQLiteTable(ctx context.Context, conn *sql.DB, table string, cols []ColumnDef, rows [][]any) (int64, error) {
	if len(cols) == 0 {
		return 0, eris.Errorf("sqlite: replace %s: no columns specified", table)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: begin tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	quoted := SQLiteIdentifier(table)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: drop", table)
	}

	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", SQLiteIdentifier(c.Name), c.Type)
		names[i] = SQLiteIdentifier(c.Name)
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: create", table)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: prepare insert", table)
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, eris.Wrapf(err, "sqlite: replace %s: insert row %d", table, n)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: commit tx", table)
	}
	return n, nil
}

// SQLiteIdentifier double-quotes name for SQLite, escaping embedded quotes.
func SQLiteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
