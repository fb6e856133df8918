package pointsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/hirudo/hirudo-etl/internal/etl"
)

func pointEWKB(t *testing.T, lng, lat float64) []byte {
	t.Helper()
	b, err := ewkb.Marshal(geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326), ewkb.NDR)
	require.NoError(t, err)
	return b
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		Geometry *struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rec := get(t, NewServer(mock, Options{}).Router(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFixedPoints(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "puntos_fijos" t`).WillReturnRows(
		pgxmock.NewRows([]string{"props", "geom"}).
			AddRow([]byte(`{"nombre":"Hospital La Paz","telefono":"917 277 000"}`), pointEWKB(t, -3.6868, 40.4811)),
	)

	rec := get(t, NewServer(mock, Options{}).Router(), "/points/fixed")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc featureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Hospital La Paz", fc.Features[0].Properties["nombre"])
	require.NotNil(t, fc.Features[0].Geometry)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{-3.6868, 40.4811}, fc.Features[0].Geometry.Coordinates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMobilePoints_DateFilterAndNullGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "puntos_moviles" t WHERE t.fecha LIKE`).WithArgs("17/10").WillReturnRows(
		pgxmock.NewRows([]string{"props", "geom"}).
			AddRow([]byte(`{"nombre":"Equipo móvil en Plaza Mayor","located":true}`), pointEWKB(t, -3.7, 40.4)).
			AddRow([]byte(`{"nombre":"Equipo móvil en Nowhere","located":false}`), []byte(nil)),
	)

	rec := get(t, NewServer(mock, Options{}).Router(), "/points/mobile?date=17/10")
	require.Equal(t, http.StatusOK, rec.Code)

	var fc featureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, 2)
	assert.NotNil(t, fc.Features[0].Geometry)
	assert.Nil(t, fc.Features[1].Geometry)
	assert.Equal(t, false, fc.Features[1].Properties["located"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMobilePoints_InvalidDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rec := get(t, NewServer(mock, Options{}).Router(), "/points/mobile?date=2026-10-17")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMobilePoints_NotPublished(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "puntos_moviles" t`).WillReturnError(&pgconn.PgError{Code: "42P01"})

	rec := get(t, NewServer(mock, Options{}).Router(), "/points/mobile")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFixedPoints_DBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "puntos_fijos" t`).WillReturnError(errors.New("connection reset"))

	rec := get(t, NewServer(mock, Options{}).Router(), "/points/fixed")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestKeys(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "puntos_moviles_keys"`).WillReturnRows(
		pgxmock.NewRows([]string{"original", "db"}).AddRow("Dirección", "direccion"),
	)

	h := NewServer(mock, Options{}).Router()
	rec := get(t, h, "/keys/mobile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"original":"Dirección","db":"direccion"}]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/keys/other").Code)
}

func TestCORS(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	h := NewServer(mock, Options{AllowedOrigins: []string{"https://hirudo.example"}}).Router()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://hirudo.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://hirudo.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

type fakeRuns struct {
	entries []etl.RunEntry
	limit   int
}

func (f *fakeRuns) Recent(_ context.Context, limit int) ([]etl.RunEntry, error) {
	f.limit = limit
	return f.entries, nil
}

func TestRuns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	runs := &fakeRuns{entries: []etl.RunEntry{{ID: "run-1", Job: "mobile", Status: etl.StatusComplete, Rows: 12}}}
	h := NewServer(mock, Options{Runs: runs}).Router()

	rec := get(t, h, "/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.limit)
	assert.Contains(t, rec.Body.String(), `"run-1"`)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/runs?limit=0").Code)
	assert.Equal(t, http.StatusNotFound, get(t, NewServer(mock, Options{}).Router(), "/runs").Code)
}
