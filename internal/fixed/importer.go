// Package fixed imports the permanent collection centers: the scraped hospital listing with each
// center's detail page, plus an optional file of centers the listing does not include.
package fixed

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/model"
	"github.com/hirudo/hirudo-etl/internal/publish"
	"github.com/hirudo/hirudo-etl/internal/scrape"
)

// Source is the part of the scraper the importer needs.
type Source interface {
	FixedListing(ctx context.Context) ([]scrape.ListingEntry, error)
	FixedDetail(ctx context.Context, detailURL string) (*scrape.FixedDetail, error)
}

// Result is an imported set of fixed points.
type Result struct {
	Points []model.FixedPoint // extra points first, then scraped centers in listing order
	Keys   []model.ColumnKey  // columns of the scraped centers
	Extra  int
}

// Importer builds the fixed point dataset.
type Importer struct {
	src       Source
	extraPath string
}

// NewImporter creates an Importer. An empty extraPath disables extra points.
func NewImporter(src Source, extraPath string) *Importer {
	return &Importer{src: src, extraPath: extraPath}
}

// Import scrapes the listing and every detail page. Any fetch or parse failure aborts the import.
func (im *Importer) Import(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("component", "fixed"))

	var extra []model.FixedPoint
	if im.extraPath != "" {
		var err error
		extra, err = LoadExtraPoints(im.extraPath)
		if err != nil {
			return nil, err
		}
		log.Info("extra points loaded", zap.String("path", im.extraPath), zap.Int("points", len(extra)))
	}

	entries, err := im.src.FixedListing(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "fixed: listing")
	}

	scraped := make([]model.FixedPoint, 0, len(entries))
	for _, e := range entries {
		d, err := im.src.FixedDetail(ctx, e.URL)
		if err != nil {
			return nil, eris.Wrapf(err, "fixed: center %s (%s)", e.CenterID, e.Name)
		}
		scraped = append(scraped, model.FixedPoint{
			Name:      e.Name,
			CenterID:  e.CenterID,
			URL:       e.URL,
			Details:   d.Details,
			MapsURL:   d.MapsURL,
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
		})
		log.Debug("center scraped", zap.String("center_id", e.CenterID), zap.Int("details", len(d.Details)))
	}

	res := &Result{
		Points: append(extra, scraped...),
		Keys:   publish.FixedKeys(scraped),
		Extra:  len(extra),
	}
	log.Info("fixed import complete", zap.Int("scraped", len(scraped)), zap.Int("extra", len(extra)))
	return res, nil
}
