package geocache

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/db"
)

// sqliteColumns mirrors columns with SQLite affinities.
var sqliteColumns = []db.ColumnDef{
	{Name: "address", Type: "TEXT"},
	{Name: "longitude", Type: "REAL"},
	{Name: "latitude", Type: "REAL"},
	{Name: "location_type", Type: "TEXT"},
	{Name: "score", Type: "INTEGER"},
}

// SQLiteStore keeps the cache in a local SQLite database.
type SQLiteStore struct {
	conn  *sql.DB
	table string
}

// NewSQLiteStore creates a store over table. An empty table name uses DefaultTable.
func NewSQLiteStore(conn *sql.DB, table string) *SQLiteStore {
	if table == "" {
		table = DefaultTable
	}
	return &SQLiteStore{conn: conn, table: table}
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (*Cache, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT address, longitude, latitude, location_type, score FROM `+db.SQLiteIdentifier(s.table))
	if err != nil {
		if db.IsNoSuchTable(err) {
			zap.L().Info("geocache: table missing, starting empty", zap.String("table", s.table))
			return New(), nil
		}
		return nil, eris.Wrapf(err, "geocache: load %s", s.table)
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		var (
			address string
			lng     sql.NullFloat64
			lat     sql.NullFloat64
			locType sql.NullString
			score   sql.NullInt32
		)
		if err := rows.Scan(&address, &lng, &lat, &locType, &score); err != nil {
			return nil, eris.Wrapf(err, "geocache: scan %s", s.table)
		}
		e := Entry{Address: address, LocationType: locType.String, Score: int(score.Int32)}
		if lng.Valid && lat.Valid {
			e.Longitude, e.Latitude, e.Located = lng.Float64, lat.Float64, true
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "geocache: iterate %s", s.table)
	}
	return New(entries...), nil
}

// Persist implements Store.
func (s *SQLiteStore) Persist(ctx context.Context, c *Cache) error {
	n, err := db.ReplaceSQLiteTable(ctx, s.conn, s.table, sqliteColumns, entryRows(c))
	if err != nil {
		return eris.Wrap(err, "geocache: persist")
	}
	zap.L().Info("geocache: persisted", zap.String("table", s.table), zap.Int64("rows", n))
	return nil
}
