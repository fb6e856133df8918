// Package geocode resolves free-text addresses to coordinates via Google (primary) or HERE,
// mapping each provider's precision label to an ordinal confidence score.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Geocoder resolves one full address to its best candidate. A result with Matched == false means
// the provider found nothing; that is not an error and is distinct from a low score.
type Geocoder interface {
	Geocode(ctx context.Context, address string, c Components) (*Result, error)
}

// Components narrows a query to a country, locality or postal code. Empty fields are omitted.
type Components struct {
	Country    string // ISO 3166-1 alpha-2, e.g. "ES"
	Locality   string
	PostalCode string
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude         float64
	Longitude        float64
	LocationType     string // provider precision label, e.g. "ROOFTOP"
	Score            int    // higher is more precise
	Source           string // "google" or "here"
	FormattedAddress string
	Matched          bool
}

// Option configures a geocoding client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func buildOptions(defaultURL string, opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultURL,
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// googleComponents renders Components in Google's "key:value|key:value" filter syntax.
func googleComponents(c Components) string {
	var parts []string
	if c.Country != "" {
		parts = append(parts, "country:"+c.Country)
	}
	if c.Locality != "" {
		parts = append(parts, "locality:"+c.Locality)
	}
	if c.PostalCode != "" {
		parts = append(parts, "postal_code:"+c.PostalCode)
	}
	return strings.Join(parts, "|")
}
