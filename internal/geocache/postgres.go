package geocache

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/db"
)

// columns is the persisted layout of the cache table.
var columns = []db.ColumnDef{
	{Name: "address", Type: "TEXT"},
	{Name: "longitude", Type: "DOUBLE PRECISION"},
	{Name: "latitude", Type: "DOUBLE PRECISION"},
	{Name: "location_type", Type: "TEXT"},
	{Name: "score", Type: "INTEGER"},
}

// PostgresStore keeps the cache in a Postgres table.
type PostgresStore struct {
	pool  db.Pool
	table string
}

// NewPostgresStore creates a store over table. An empty table name uses DefaultTable.
func NewPostgresStore(pool db.Pool, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{pool: pool, table: table}
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context) (*Cache, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+db.QuoteAndJoin(columnNamesOf(columns))+" FROM "+db.SanitizeTable(s.table))
	if err != nil {
		if db.IsUndefinedTable(err) {
			zap.L().Info("geocache: table missing, starting empty", zap.String("table", s.table))
			return New(), nil
		}
		return nil, eris.Wrapf(err, "geocache: load %s", s.table)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			address string
			lng     *float64
			lat     *float64
			locType *string
			score   *int32
		)
		if err := rows.Scan(&address, &lng, &lat, &locType, &score); err != nil {
			return nil, eris.Wrapf(err, "geocache: scan %s", s.table)
		}
		entries = append(entries, entryFromNullable(address, lng, lat, locType, score))
	}
	if err := rows.Err(); err != nil {
		if db.IsUndefinedTable(err) {
			return New(), nil
		}
		return nil, eris.Wrapf(err, "geocache: iterate %s", s.table)
	}
	return New(entries...), nil
}

// Persist implements Store.
func (s *PostgresStore) Persist(ctx context.Context, c *Cache) error {
	n, err := db.ReplaceTable(ctx, s.pool, s.table, columns, entryRows(c))
	if err != nil {
		return eris.Wrap(err, "geocache: persist")
	}
	zap.L().Info("geocache: persisted", zap.String("table", s.table), zap.Int64("rows", n))
	return nil
}

func entryFromNullable(address string, lng, lat *float64, locType *string, score *int32) Entry {
	e := Entry{Address: address}
	if lng != nil && lat != nil {
		e.Longitude, e.Latitude, e.Located = *lng, *lat, true
	}
	if locType != nil {
		e.LocationType = *locType
	}
	if score != nil {
		e.Score = int(*score)
	}
	return e
}

// entryRows renders c in column order; unlocated rows keep NULL coordinates.
func entryRows(c *Cache) [][]any {
	if c == nil {
		return nil
	}
	rows := make([][]any, 0, c.Len())
	for _, e := range c.entries {
		var lng, lat any
		if e.Located {
			lng, lat = e.Longitude, e.Latitude
		}
		rows = append(rows, []any{e.Address, lng, lat, e.LocationType, int32(e.Score)})
	}
	return rows
}

func columnNamesOf(cols []db.ColumnDef) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
