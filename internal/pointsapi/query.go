package pointsapi

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/hirudo/hirudo-etl/internal/db"
	"github.com/hirudo/hirudo-etl/internal/model"
)

// featureCollection reads every row of table as a feature. Non-geometry columns become properties,
// so tables with per-run columns need no schema here. Rows with NULL geometry keep a null geometry.
func (s *Server) featureCollection(ctx context.Context, table, where string, args []any) (*geojson.FeatureCollection, error) {
	sql := `SELECT to_jsonb(t) - 'geometry', ST_AsEWKB(t.geometry) FROM ` + db.SanitizeTable(table) + ` t`
	if where != "" {
		sql += " " + where
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "pointsapi: query %s", table)
	}
	defer rows.Close()

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for rows.Next() {
		var props, geomBytes []byte
		if err := rows.Scan(&props, &geomBytes); err != nil {
			return nil, eris.Wrapf(err, "pointsapi: scan %s", table)
		}

		f := &geojson.Feature{Properties: map[string]any{}}
		if err := json.Unmarshal(props, &f.Properties); err != nil {
			return nil, eris.Wrapf(err, "pointsapi: decode properties of %s", table)
		}
		if len(geomBytes) > 0 {
			g, err := ewkb.Unmarshal(geomBytes)
			if err != nil {
				return nil, eris.Wrapf(err, "pointsapi: decode geometry of %s", table)
			}
			f.Geometry = g
		}
		fc.Features = append(fc.Features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "pointsapi: iterate %s", table)
	}
	return fc, nil
}

// keys reads a label-to-column table.
func (s *Server) keys(ctx context.Context, table string) ([]model.ColumnKey, error) {
	rows, err := s.pool.Query(ctx, `SELECT original, db FROM `+db.SanitizeTable(table))
	if err != nil {
		return nil, eris.Wrapf(err, "pointsapi: query %s", table)
	}
	defer rows.Close()

	keys := []model.ColumnKey{}
	for rows.Next() {
		var k model.ColumnKey
		if err := rows.Scan(&k.Original, &k.DB); err != nil {
			return nil, eris.Wrapf(err, "pointsapi: scan %s", table)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
