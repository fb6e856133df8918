package publish

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/db"
)

var postgresTypes = map[Kind]string{
	KindText:  "TEXT",
	KindFloat: "DOUBLE PRECISION",
	KindInt:   "INTEGER",
	KindBool:  "BOOLEAN",
	KindPoint: "geometry(Point, 4326)",
}

// PostgresWriter publishes to PostGIS. Geometry is sent as EWKB.
type PostgresWriter struct {
	pool db.Pool
}

// NewPostgresWriter creates a PostgresWriter.
func NewPostgresWriter(pool db.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

// Replace implements Writer.
func (w *PostgresWriter) Replace(ctx context.Context, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	cols := make([]db.ColumnDef, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = db.ColumnDef{Name: c.Name, Type: postgresTypes[c.Kind]}
	}

	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			switch p := v.(type) {
			case *geom.Point:
				if p == nil {
					continue
				}
				b, err := encodeEWKB(p)
				if err != nil {
					return eris.Wrapf(err, "publish: %s row %d", t.Name, i)
				}
				out[j] = b
			case int:
				out[j] = int32(p)
			default:
				out[j] = v
			}
		}
		rows[i] = out
	}

	n, err := db.ReplaceTable(ctx, w.pool, t.Name, cols, rows)
	if err != nil {
		return eris.Wrapf(err, "publish: postgres %s", t.Name)
	}
	zap.L().Info("publish: table replaced",
		zap.String("writer", "postgres"),
		zap.String("table", t.Name),
		zap.Int64("rows", n),
	)
	return nil
}

// encodeEWKB encodes p with SRID 4326. A nil point encodes to nil.
func encodeEWKB(p *geom.Point) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	if p.SRID() == 0 {
		p = geom.NewPointFlat(geom.XY, p.FlatCoords()).SetSRID(SRID)
	}
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "encode EWKB")
	}
	return data, nil
}
