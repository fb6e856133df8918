package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// HereGeocodeURL is the HERE Geocoding & Search v7 endpoint.
const HereGeocodeURL = "https://geocode.search.hereapi.com/v1/geocode"

type hereGeocodeResponse struct {
	Items []hereItem `json:"items"`
}

type hereItem struct {
	Title           string `json:"title"`
	ResultType      string `json:"resultType"`
	HouseNumberType string `json:"houseNumberType"`
	Position        struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"position"`
}

// label qualifies interpolated house numbers so they score below point addresses.
func (it hereItem) label() string {
	if it.ResultType == "houseNumber" && it.HouseNumberType == "interpolated" {
		return "houseNumber:interpolated"
	}
	return it.ResultType
}

// alpha3 maps the country codes this deployment filters on to HERE's ISO 3166-1 alpha-3 form.
var alpha3 = map[string]string{
	"ES": "ESP",
	"PT": "PRT",
	"FR": "FRA",
	"AD": "AND",
}

// HereClient geocodes through the HERE Geocoding & Search API. It does not cache.
type HereClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	limiter    *rate.Limiter
}

// NewHereClient creates a HERE geocoder for the given API key.
func NewHereClient(apiKey string, opts ...Option) *HereClient {
	o := buildOptions(HereGeocodeURL, opts)
	return &HereClient{
		httpClient: o.httpClient,
		apiKey:     apiKey,
		baseURL:    o.baseURL,
		limiter:    o.limiter,
	}
}

// Geocode implements Geocoder with a single request. Only the first item is considered.
func (h *HereClient) Geocode(ctx context.Context, address string, c Components) (*Result, error) {
	if h.apiKey == "" {
		return nil, eris.New("geocode: here api key not configured")
	}

	if err := h.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: here rate limit")
	}

	params := url.Values{
		"q":      {address},
		"apiKey": {h.apiKey},
		"limit":  {"1"},
	}
	if code, ok := alpha3[strings.ToUpper(c.Country)]; ok {
		params.Set("in", "countryCode:"+code)
	}
	var qq []string
	if c.Locality != "" {
		qq = append(qq, "city="+c.Locality)
	}
	if c.PostalCode != "" {
		qq = append(qq, "postalCode="+c.PostalCode)
	}
	if len(qq) > 0 {
		params.Set("qq", strings.Join(qq, ";"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: here build request")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: here request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: here returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: here read body")
	}

	var hereResp hereGeocodeResponse
	if err := json.Unmarshal(body, &hereResp); err != nil {
		return nil, eris.Wrap(err, "geocode: here parse response")
	}

	if len(hereResp.Items) == 0 {
		return &Result{Matched: false, Source: "here"}, nil
	}

	item := hereResp.Items[0]
	label := item.label()
	score, err := HereScore(label)
	if err != nil {
		return nil, err
	}

	return &Result{
		Latitude:         item.Position.Lat,
		Longitude:        item.Position.Lng,
		LocationType:     label,
		Score:            score,
		Source:           "here",
		FormattedAddress: item.Title,
		Matched:          true,
	}, nil
}
