package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/config"
	"github.com/hirudo/hirudo-etl/internal/db"
	"github.com/hirudo/hirudo-etl/internal/etl"
	"github.com/hirudo/hirudo-etl/internal/fixed"
	"github.com/hirudo/hirudo-etl/internal/geocache"
	"github.com/hirudo/hirudo-etl/internal/publish"
	"github.com/hirudo/hirudo-etl/internal/reconcile"
	"github.com/hirudo/hirudo-etl/internal/scrape"
	"github.com/hirudo/hirudo-etl/pkg/geocode"
)

// defaultSQLitePath is used when store.driver is sqlite and no database_url is set.
const defaultSQLitePath = "hirudo.db"

// jobEnv holds the long-lived dependencies shared by the ETL commands.
type jobEnv struct {
	Pool    *pgxpool.Pool
	SQLite  *sql.DB
	Cache   geocache.Store
	Writer  publish.Writer
	Runs    etl.Recorder
	Scraper *scrape.Scraper
}

// Close releases database handles.
func (e *jobEnv) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.SQLite != nil {
		_ = e.SQLite.Close()
	}
}

// initEnv opens the configured store and builds the scraper and publishers.
func initEnv(ctx context.Context, c *config.Config) (*jobEnv, error) {
	env := &jobEnv{}
	var primary publish.Writer

	switch c.Store.Driver {
	case "postgres":
		pool, err := openPool(ctx, c.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		env.Pool = pool
		env.Cache = geocache.NewPostgresStore(pool, c.Geocode.CacheTable)
		primary = publish.NewPostgresWriter(pool)

		runs := etl.NewRunLog(pool)
		if err := runs.EnsureTable(ctx); err != nil {
			zap.L().Warn("run log unavailable", zap.Error(err))
		} else {
			env.Runs = runs
		}
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		conn, err := db.OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		env.SQLite = conn
		env.Cache = geocache.NewSQLiteStore(conn, c.Geocode.CacheTable)
		primary = publish.NewSQLiteWriter(conn)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}

	env.Writer = newWriter(primary, c.Publish)

	session, err := scrape.NewSession(scrapeOptions(c.Scrape))
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Scraper = scrape.New(session)

	return env, nil
}

// openPool creates a pgxpool.Pool and checks connectivity.
func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, eris.New("store: no database_url configured (set HIRUDO_STORE_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping database")
	}

	zap.L().Debug("connected to database")
	return pool, nil
}

// newWriter fans out to the database writer plus the configured file exports.
func newWriter(primary publish.Writer, pc config.PublishConfig) publish.Writer {
	writers := []publish.Writer{primary}
	if pc.ShapefileDir != "" {
		writers = append(writers, publish.NewShapefileWriter(pc.ShapefileDir))
	}
	if pc.XLSXDir != "" {
		writers = append(writers, publish.NewXLSXWriter(pc.XLSXDir))
	}
	return publish.NewMultiWriter(writers...)
}

func scrapeOptions(sc config.ScrapeConfig) scrape.Options {
	return scrape.Options{
		BaseURL:   sc.BaseURL,
		UserAgent: sc.UserAgent,
		Timeout:   time.Duration(sc.TimeoutSecs) * time.Second,
		RPS:       sc.RPS,
	}
}

// newGeocoder builds the configured geocoding client.
func newGeocoder(c *config.Config) (geocode.Geocoder, error) {
	switch c.Geocode.Provider {
	case "google":
		return geocode.NewGoogleClient(c.Google.APIKey,
			geocode.WithBaseURL(c.Google.BaseURL),
			geocode.WithRateLimit(c.Google.RPS),
		), nil
	case "here":
		return geocode.NewHereClient(c.Here.APIKey,
			geocode.WithBaseURL(c.Here.BaseURL),
			geocode.WithRateLimit(c.Here.RPS),
		), nil
	default:
		return nil, eris.Errorf("unsupported geocode provider: %s", c.Geocode.Provider)
	}
}

// newMobileJob wires scraper, reconciler and publisher for the mobile point run.
func newMobileJob(c *config.Config, env *jobEnv) (*etl.MobileJob, error) {
	gc, err := newGeocoder(c)
	if err != nil {
		return nil, err
	}
	rec := reconcile.New(env.Cache, gc,
		reconcile.WithComponents(geocode.Components{Country: c.Geocode.Country}),
		reconcile.WithLowScoreThreshold(c.Geocode.LowScoreThreshold),
	)
	return etl.NewMobileJob(env.Scraper, rec, env.Writer, env.Runs), nil
}

// newFixedJob wires the fixed point importer and publisher.
func newFixedJob(c *config.Config, env *jobEnv) *etl.FixedJob {
	imp := fixed.NewImporter(env.Scraper, c.Fixed.ExtraPointsFile)
	return etl.NewFixedJob(imp, env.Writer, env.Runs)
}
