package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHere(srvURL string) *HereClient {
	return &HereClient{
		httpClient: http.DefaultClient,
		apiKey:     "test-key",
		baseURL:    srvURL,
		limiter:    newTestLimiter(),
	}
}

func TestHereGeocode_HouseNumber(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[{
			"title": "Calle de Toledo 1, 28005 Madrid, España",
			"resultType": "houseNumber",
			"houseNumberType": "PA",
			"position": {"lat": 40.4125, "lng": -3.7081}
		}]}`)
	}))
	defer srv.Close()

	result, err := newTestHere(srv.URL).Geocode(context.Background(), "Calle de Toledo 1, Madrid", Components{Country: "ES", Locality: "Madrid"})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "here", result.Source)
	assert.Equal(t, "houseNumber", result.LocationType)
	assert.Equal(t, 9, result.Score)
	assert.InDelta(t, 40.4125, result.Latitude, 0.0001)

	assert.Equal(t, []string{"countryCode:ESP"}, gotQuery["in"])
	assert.Equal(t, []string{"city=Madrid"}, gotQuery["qq"])
}

func TestHereGeocode_InterpolatedScoresLower(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{"resultType":"houseNumber","houseNumberType":"interpolated","position":{"lat":1,"lng":2}}]}`)
	}))
	defer srv.Close()

	result, err := newTestHere(srv.URL).Geocode(context.Background(), "x", Components{})
	require.NoError(t, err)
	assert.Equal(t, "houseNumber:interpolated", result.LocationType)
	assert.Equal(t, 7, result.Score)
}

func TestHereGeocode_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"items":[]}`)
	}))
	defer srv.Close()

	result, err := newTestHere(srv.URL).Geocode(context.Background(), "x", Components{})
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestHereGeocode_UnknownResultType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{"resultType":"building","position":{"lat":1,"lng":2}}]}`)
	}))
	defer srv.Close()

	_, err := newTestHere(srv.URL).Geocode(context.Background(), "x", Components{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLocationType))
}

func TestHereGeocode_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestHere(srv.URL).Geocode(context.Background(), "x", Components{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestHereGeocode_NoKey(t *testing.T) {
	_, err := NewHereClient("").Geocode(context.Background(), "x", Components{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
