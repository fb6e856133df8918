package fixed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirudo/hirudo-etl/internal/model"
	"github.com/hirudo/hirudo-etl/internal/scrape"
)

type fakeSource struct {
	entries   []scrape.ListingEntry
	details   map[string]*scrape.FixedDetail
	listErr   error
	detailErr error
}

func (f *fakeSource) FixedListing(context.Context) ([]scrape.ListingEntry, error) {
	return f.entries, f.listErr
}

func (f *fakeSource) FixedDetail(_ context.Context, u string) (*scrape.FixedDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.details[u], nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		entries: []scrape.ListingEntry{
			{Name: "Hospital La Paz", CenterID: "12", URL: "u12"},
			{Name: "Hospital Gregorio Marañón", CenterID: "3", URL: "u3"},
		},
		details: map[string]*scrape.FixedDetail{
			"u12": {Details: []model.Detail{{Label: "Dirección:", Value: "Pº Castellana 261"}}, Latitude: 40.48, Longitude: -3.68},
			"u3":  {Details: []model.Detail{{Label: "Horario:", Value: "8:30 - 21:00"}}, Latitude: 40.42, Longitude: -3.67},
		},
	}
}

const extraYAML = `extra_points:
  - nombre: Centro de Transfusión
    id_del_centro: ct
    details:
      - label: "Dirección:"
        value: Av. Mar Mediterráneo 13
    latitude: 40.3236
    longitude: -3.5186
`

func TestImporter_Import(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(extraYAML), 0o644))

	res, err := NewImporter(newFakeSource(), path).Import(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Points, 3)
	assert.Equal(t, 1, res.Extra)
	assert.Equal(t, "Centro de Transfusión", res.Points[0].Name, "extra points come first")
	assert.Equal(t, "Hospital La Paz", res.Points[1].Name)
	assert.Equal(t, "12", res.Points[1].CenterID)
	assert.InDelta(t, 40.42, res.Points[2].Latitude, 1e-9)

	var dbs []string
	for _, k := range res.Keys {
		dbs = append(dbs, k.DB)
	}
	assert.Equal(t, []string{"nombre", "id_del_centro", "url", "direccion", "horario", "gmaps_url", "latitude", "longitude"}, dbs)
}

func TestImporter_NoExtraFile(t *testing.T) {
	res, err := NewImporter(newFakeSource(), "").Import(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Points, 2)
	assert.Equal(t, 0, res.Extra)
}

func TestImporter_DetailErrorAborts(t *testing.T) {
	src := newFakeSource()
	src.detailErr = errors.New("scrape: status 500")

	_, err := NewImporter(src, "").Import(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Hospital La Paz")
}

func TestImporter_ListingError(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("timeout")

	_, err := NewImporter(src, "").Import(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixed: listing")
}

func TestLoadExtraPoints_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadExtraPoints(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	noCoord := filepath.Join(dir, "nocoord.yaml")
	require.NoError(t, os.WriteFile(noCoord, []byte("extra_points:\n  - nombre: X\n"), 0o644))
	_, err = LoadExtraPoints(noCoord)
	assert.ErrorContains(t, err, "no coordinate")

	noName := filepath.Join(dir, "noname.yaml")
	require.NoError(t, os.WriteFile(noName, []byte("extra_points:\n  - latitude: 40\n    longitude: -3\n"), 0o644))
	_, err = LoadExtraPoints(noName)
	assert.ErrorContains(t, err, "no nombre")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("extra_points: [\n"), 0o644))
	_, err = LoadExtraPoints(bad)
	assert.ErrorContains(t, err, "parse")
}
