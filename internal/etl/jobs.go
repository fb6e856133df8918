// Package etl wires scraping, reconciliation and publishing into the fixed and mobile point jobs.
package etl

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/fixed"
	"github.com/hirudo/hirudo-etl/internal/model"
	"github.com/hirudo/hirudo-etl/internal/publish"
	"github.com/hirudo/hirudo-etl/internal/reconcile"
)

// Job names.
const (
	JobFixed  = "fixed"
	JobMobile = "mobile"
)

// MobileSource lists the current mobile points.
type MobileSource interface {
	MobilePoints(ctx context.Context) ([]model.MobilePoint, error)
}

// Reconciler resolves mobile points to coordinates.
type Reconciler interface {
	Run(ctx context.Context, points []model.MobilePoint) (*reconcile.Result, error)
}

// FixedImporter produces the fixed point dataset.
type FixedImporter interface {
	Import(ctx context.Context) (*fixed.Result, error)
}

// MobileJob scrapes, reconciles and publishes the mobile points.
type MobileJob struct {
	src  MobileSource
	rec  Reconciler
	out  publish.Writer
	runs Recorder
}

// NewMobileJob creates a MobileJob. runs may be nil.
func NewMobileJob(src MobileSource, rec Reconciler, out publish.Writer, runs Recorder) *MobileJob {
	return &MobileJob{src: src, rec: rec, out: out, runs: runs}
}

// Run executes the job once.
func (j *MobileJob) Run(ctx context.Context) (*RunResult, error) {
	return track(ctx, j.runs, JobMobile, func(ctx context.Context, log *zap.Logger) (*RunResult, error) {
		points, err := j.src.MobilePoints(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "etl: scrape mobile points")
		}
		log.Info("mobile points scraped", zap.Int("points", len(points)))

		res, err := j.rec.Run(ctx, points)
		if err != nil {
			return nil, eris.Wrap(err, "etl: reconcile")
		}

		for _, t := range []publish.Table{publish.MobileTable(res.Points), publish.MobileKeysTable()} {
			if err := j.out.Replace(ctx, t); err != nil {
				return nil, eris.Wrapf(err, "etl: publish %s", t.Name)
			}
		}

		return &RunResult{
			Rows: int64(len(res.Points)),
			Metadata: map[string]any{
				"geocoder_calls": res.GeocoderCalls,
				"new_entries":    res.NewEntries,
				"unresolved":     res.Unresolved,
				"place_wins":     res.PlaceWins,
				"street_wins":    res.StreetWins,
			},
		}, nil
	})
}

// FixedJob imports and publishes the fixed points.
type FixedJob struct {
	imp  FixedImporter
	out  publish.Writer
	runs Recorder
}

// NewFixedJob creates a FixedJob. runs may be nil.
func NewFixedJob(imp FixedImporter, out publish.Writer, runs Recorder) *FixedJob {
	return &FixedJob{imp: imp, out: out, runs: runs}
}

// Run executes the job once.
func (j *FixedJob) Run(ctx context.Context) (*RunResult, error) {
	return track(ctx, j.runs, JobFixed, func(ctx context.Context, log *zap.Logger) (*RunResult, error) {
		res, err := j.imp.Import(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "etl: import fixed points")
		}

		tables := []publish.Table{
			publish.FixedTable(res.Points),
			publish.KeysTable(publish.FixedKeysTableName, res.Keys),
		}
		for _, t := range tables {
			if err := j.out.Replace(ctx, t); err != nil {
				return nil, eris.Wrapf(err, "etl: publish %s", t.Name)
			}
		}
		log.Info("fixed points published", zap.Int("points", len(res.Points)))

		return &RunResult{
			Rows:     int64(len(res.Points)),
			Metadata: map[string]any{"extra_points": res.Extra, "columns": len(res.Keys)},
		}, nil
	})
}

// track gives a job run an id, logs it and records it when a Recorder is set. Recorder failures
// are logged and do not fail the job.
func track(ctx context.Context, runs Recorder, job string, fn func(context.Context, *zap.Logger) (*RunResult, error)) (*RunResult, error) {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("job", job), zap.String("run_id", runID))
	log.Info("job started")

	if runs != nil {
		if err := runs.Start(ctx, runID, job); err != nil {
			log.Warn("run log start failed", zap.Error(err))
		}
	}

	res, err := fn(ctx, log)
	if err != nil {
		log.Error("job failed", zap.Error(err))
		if runs != nil {
			if ferr := runs.Fail(context.WithoutCancel(ctx), runID, err.Error()); ferr != nil {
				log.Warn("run log fail failed", zap.Error(ferr))
			}
		}
		return nil, err
	}

	if runs != nil {
		if cerr := runs.Complete(ctx, runID, res); cerr != nil {
			log.Warn("run log complete failed", zap.Error(cerr))
		}
	}
	log.Info("job complete", zap.Int64("rows", res.Rows), zap.Any("metadata", res.Metadata))
	return res, nil
}
