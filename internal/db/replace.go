package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ColumnDef describes one column of a replaced table.
type ColumnDef struct {
	Name string
	Type string // SQL type, e.g. "TEXT" or "geometry(Point, 4326)"
}

// ReplaceTable overwrites table with rows inside a single transaction:
//  1. DROP TABLE IF EXISTS
//  2. CREATE TABLE with the given columns
//  3. COPY rows
//
// Readers never observe a half-written table. An empty rows slice leaves an empty table.
func ReplaceTable(ctx context.Context, pool Pool, table string, cols []ColumnDef, rows [][]any) (int64, error) {
	if len(cols) == 0 {
		return 0, eris.Errorf("db: replace %s: no columns specified", table)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: begin tx", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+SanitizeTable(table)); err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: drop", table)
	}

	if _, err := tx.Exec(ctx, createTableSQL(table, cols)); err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: create", table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, identifier(table), columnNames(cols), pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: replace %s: COPY", table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: commit tx", table)
	}

	return n, nil
}

func createTableSQL(table string, cols []ColumnDef) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c.Name}.Sanitize(), c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", SanitizeTable(table), strings.Join(defs, ", "))
}

func columnNames(cols []ColumnDef) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// identifier splits a possibly schema-qualified name into a pgx.Identifier.
func identifier(table string) pgx.Identifier {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}
	}
	return pgx.Identifier{table}
}

// SanitizeTable quotes a possibly schema-qualified table name like "public.geocoding_cache".
func SanitizeTable(table string) string {
	return identifier(table).Sanitize()
}

// QuoteAndJoin quotes each column name and joins with commas.
func QuoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
