package publish

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/db"
)

var sqliteTypes = map[Kind]string{
	KindText:  "TEXT",
	KindFloat: "REAL",
	KindInt:   "INTEGER",
	KindBool:  "INTEGER",
	KindPoint: "BLOB",
}

// SQLiteWriter publishes to a local SQLite database. Geometry is stored as a WKB blob.
type SQLiteWriter struct {
	conn *sql.DB
}

// NewSQLiteWriter creates a SQLiteWriter.
func NewSQLiteWriter(conn *sql.DB) *SQLiteWriter {
	return &SQLiteWriter{conn: conn}
}

// Replace implements Writer.
func (w *SQLiteWriter) Replace(ctx context.Context, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	cols := make([]db.ColumnDef, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = db.ColumnDef{Name: c.Name, Type: sqliteTypes[c.Kind]}
	}

	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			p, ok := v.(*geom.Point)
			if !ok {
				out[j] = v
				continue
			}
			if p == nil {
				continue
			}
			b, err := wkb.Marshal(p, wkb.NDR)
			if err != nil {
				return eris.Wrapf(err, "publish: %s row %d: encode WKB", t.Name, i)
			}
			out[j] = b
		}
		rows[i] = out
	}

	n, err := db.ReplaceSQLiteTable(ctx, w.conn, t.Name, cols, rows)
	if err != nil {
		return eris.Wrapf(err, "publish: sqlite %s", t.Name)
	}
	zap.L().Info("publish: table replaced",
		zap.String("writer", "sqlite"),
		zap.String("table", t.Name),
		zap.Int64("rows", n),
	)
	return nil
}
