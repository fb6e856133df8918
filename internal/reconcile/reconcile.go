// Package reconcile geocodes mobile collection points and picks one coordinate per point from its
// place and street addresses, reusing the persistent geocode cache across runs.
package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/address"
	"github.com/hirudo/hirudo-etl/internal/geocache"
	"github.com/hirudo/hirudo-etl/internal/model"
	"github.com/hirudo/hirudo-etl/pkg/geocode"
)

// DefaultLowScoreThreshold flags APPROXIMATE-level results for review.
const DefaultLowScoreThreshold = 4

// ErrInconsistentCache is returned when an address resolves to more than one cache row.
var ErrInconsistentCache = eris.New("reconcile: inconsistent cache")

// Result is the outcome of one reconciliation run.
type Result struct {
	Points        []model.ResolvedMobilePoint
	NewEntries    int // rows added to the cache by this run
	Unresolved    int // points with no coordinate
	PlaceWins     int // points located by their place address
	StreetWins    int // points located by their street address
	GeocoderCalls int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithComponents narrows every geocoder query.
func WithComponents(c geocode.Components) Option {
	return func(r *Reconciler) {
		r.components = c
	}
}

// WithLowScoreThreshold sets the score at or below which accepted results are logged for review.
func WithLowScoreThreshold(n int) Option {
	return func(r *Reconciler) {
		r.lowScore = n
	}
}

// Reconciler resolves mobile points to coordinates.
type Reconciler struct {
	store      geocache.Store
	geocoder   geocode.Geocoder
	components geocode.Components
	lowScore   int
}

// New creates a Reconciler over the given cache store and geocoder.
func New(store geocache.Store, geocoder geocode.Geocoder, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		geocoder: geocoder,
		lowScore: DefaultLowScoreThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run geocodes every distinct uncached address of the batch, persists the grown cache once and
// resolves each point against it. points is not modified; output order matches input order.
func (r *Reconciler) Run(ctx context.Context, points []model.MobilePoint) (*Result, error) {
	log := zap.L().With(zap.String("component", "reconcile"))

	normalized := address.NormalizeStreets(points)

	addrs := make(map[address.Field][]string, len(address.Fields))
	for _, field := range address.Fields {
		list := make([]string, len(normalized))
		for i, p := range normalized {
			full, err := address.FullAddress(p, field)
			if err != nil {
				return nil, eris.Wrapf(err, "reconcile: record %d", i)
			}
			list[i] = full
		}
		addrs[field] = list
	}

	cache, err := r.store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: load cache")
	}
	log.Info("cache loaded", zap.Int("entries", cache.Len()), zap.Int("points", len(points)))

	res := &Result{}
	var fresh []geocache.Entry
	attempted := make(map[string]bool)

	for _, field := range address.Fields {
		for _, addr := range distinct(addrs[field]) {
			if attempted[addr] {
				continue
			}
			if _, ok := cache.Lookup(addr); ok {
				continue
			}
			attempted[addr] = true

			res.GeocoderCalls++
			gr, err := r.geocoder.Geocode(ctx, addr, r.components)
			if err != nil {
				return nil, eris.Wrapf(err, "reconcile: geocode %q", addr)
			}
			if gr == nil || !gr.Matched {
				log.Warn("geocoder miss", zap.String("field", string(field)), zap.String("address", addr))
				continue
			}
			if gr.Score <= r.lowScore {
				log.Warn("low confidence geocode",
					zap.String("address", addr),
					zap.String("location_type", gr.LocationType),
					zap.Int("score", gr.Score),
				)
			}
			fresh = append(fresh, geocache.Entry{
				Address:      addr,
				Longitude:    gr.Longitude,
				Latitude:     gr.Latitude,
				LocationType: gr.LocationType,
				Score:        gr.Score,
				Located:      true,
			})
		}
	}

	merged, err := geocache.Merge(cache, fresh)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: merge cache")
	}
	if err := r.store.Persist(ctx, merged); err != nil {
		return nil, eris.Wrap(err, "reconcile: persist cache")
	}
	res.NewEntries = len(fresh)

	res.Points = make([]model.ResolvedMobilePoint, len(normalized))
	for i, p := range normalized {
		place, err := candidate(merged, addrs[address.FieldPlace][i], model.SourcePlace)
		if err != nil {
			return nil, err
		}
		street, err := candidate(merged, addrs[address.FieldStreet][i], model.SourceStreet)
		if err != nil {
			return nil, err
		}

		out := model.ResolvedMobilePoint{MobilePoint: p}
		if w, ok := SelectWinner(place, street); ok {
			out.Longitude, out.Latitude = w.Longitude, w.Latitude
			out.Score, out.Source, out.Located = w.Score, w.Source, true
			if w.Source == model.SourcePlace {
				res.PlaceWins++
			} else {
				res.StreetWins++
			}
		} else {
			res.Unresolved++
			log.Warn("point has no coordinate",
				zap.Int("record", i),
				zap.String("place", p.Place),
				zap.String("street", p.StreetAddress),
				zap.String("locality", p.Locality),
			)
		}
		res.Points[i] = out
	}

	log.Info("reconcile complete",
		zap.Int("points", len(res.Points)),
		zap.Int("geocoder_calls", res.GeocoderCalls),
		zap.Int("new_entries", res.NewEntries),
		zap.Int("unresolved", res.Unresolved),
		zap.Int("place_wins", res.PlaceWins),
		zap.Int("street_wins", res.StreetWins),
	)
	return res, nil
}

// candidate joins addr against the cache. No row, or a row without coordinates, is a nil candidate.
func candidate(c *geocache.Cache, addr string, src model.CandidateSource) (*Candidate, error) {
	rows := c.Matches(addr)
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, eris.Wrapf(ErrInconsistentCache, "%d rows for %q", len(rows), addr)
	}
	e := rows[0]
	if !e.Located {
		return nil, nil
	}
	return &Candidate{Longitude: e.Longitude, Latitude: e.Latitude, Score: e.Score, Source: src}, nil
}

// distinct returns the unique values of list in first-seen order.
func distinct(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
