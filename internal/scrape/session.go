// Package scrape fetches and parses the blood donation point listings of the regional
// transfusion center's ASP.NET site.
package scrape

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the site root all page paths resolve against.
const DefaultBaseURL = "https://donarsangre.sanidadmadrid.org/"

const (
	// FixedPage lists the permanent collection centers.
	FixedPage = "fijos.aspx"
	// MobilePage lists the mobile collection units.
	MobilePage = "moviles.aspx"
)

// maxBodyBytes bounds a single page read.
const maxBodyBytes = 8 << 20

// Options configures a Session.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	RPS        float64
	HTTPClient *http.Client // overrides Timeout; a cookie jar is attached when missing
}

// Session is a cookie-carrying client for one scrape run. ASP.NET ties form validation tokens to
// the session cookie, so the GET and POST of a search must share it.
type Session struct {
	client    *http.Client
	base      *url.URL
	userAgent string
	limiter   *rate.Limiter
}

// NewSession creates a Session with its own cookie jar.
func NewSession(opts Options) (*Session, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hirudo-etl/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 2
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse base url %q", opts.BaseURL)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, eris.Wrap(err, "scrape: cookie jar")
		}
		c := *client
		c.Jar = jar
		client = &c
	}

	burst := int(opts.RPS)
	if burst < 1 {
		burst = 1
	}

	return &Session{
		client:    client,
		base:      base,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(opts.RPS), burst),
	}, nil
}

// Resolve turns a page-relative reference into an absolute URL.
func (s *Session) Resolve(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return s.base.ResolveReference(u).String()
}

// Get fetches and parses a page.
func (s *Session) Get(ctx context.Context, ref string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Resolve(ref), nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: build GET")
	}
	return s.do(req)
}

// PostForm submits form values to a page and parses the response.
func (s *Session) PostForm(ctx context.Context, ref string, form url.Values) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Resolve(ref), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: build POST")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Session) do(req *http.Request) (*goquery.Document, error) {
	if err := s.limiter.Wait(req.Context()); err != nil {
		return nil, eris.Wrap(err, "scrape: rate limit")
	}
	req.Header.Set("User-Agent", s.userAgent)

	target := req.URL.String()
	zap.L().Debug("scrape: fetch", zap.String("method", req.Method), zap.String("url", target))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: %s %s", req.Method, target)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: read %s", target)
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("scrape: %s blocked (%s)", target, kind)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("scrape: %s returned status %d", target, resp.StatusCode)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: decode %s", target)
	}
	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse %s", target)
	}
	return doc, nil
}
