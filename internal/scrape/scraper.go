package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/model"
)

// Scraper fetches the fixed and mobile listings over one Session.
type Scraper struct {
	session *Session
}

// New creates a Scraper.
func New(session *Session) *Scraper {
	return &Scraper{session: session}
}

// MobilePoints returns every mobile collection point currently listed, in page order.
func (s *Scraper) MobilePoints(ctx context.Context) ([]model.MobilePoint, error) {
	doc, err := s.session.SearchAll(ctx, MobilePage)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: mobile listing")
	}
	points, err := ParseMobileTable(doc)
	if err != nil {
		return nil, err
	}
	zap.L().Info("scrape: mobile listing parsed", zap.Int("points", len(points)))
	return points, nil
}

// FixedListing returns the centers of the fixed listing.
func (s *Scraper) FixedListing(ctx context.Context) ([]ListingEntry, error) {
	doc, err := s.session.SearchAll(ctx, FixedPage)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fixed listing")
	}
	entries, err := ParseFixedListing(doc, s.session.Resolve)
	if err != nil {
		return nil, err
	}
	zap.L().Info("scrape: fixed listing parsed", zap.Int("centers", len(entries)))
	return entries, nil
}

// FixedDetail fetches and parses one center's detail page.
func (s *Scraper) FixedDetail(ctx context.Context, detailURL string) (*FixedDetail, error) {
	doc, err := s.session.Get(ctx, detailURL)
	if err != nil {
		return nil, err
	}
	d, err := ParseFixedDetail(doc)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: detail %s", detailURL)
	}
	return d, nil
}
