package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirudo/hirudo-etl/internal/model"
)

func TestParseFormState(t *testing.T) {
	vals, err := ParseFormState(mustDoc(t, formPage))
	require.NoError(t, err)
	assert.Equal(t, "vs123", vals.Get("__VIEWSTATE"))
	assert.Equal(t, "gen456", vals.Get("__VIEWSTATEGENERATOR"))
	assert.Equal(t, "ev789", vals.Get("__EVENTVALIDATION"))
}

func TestParseFormState_Missing(t *testing.T) {
	_, err := ParseFormState(mustDoc(t, `<html><input id="__VIEWSTATE" value="x"></html>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "__VIEWSTATEGENERATOR")
}

func TestParseMobileTable(t *testing.T) {
	points, err := ParseMobileTable(mustDoc(t, mobileResults))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, model.MobilePoint{
		Place:         "Plaza Mayor",
		StreetAddress: "Equipo móvil en Plaza Mayor 1",
		Locality:      "Madrid",
		Schedule:      "10:00 - 14:00",
		Date:          "17/10/2026",
	}, points[0])
	assert.Equal(t, "17:00 - 21:00", points[1].Schedule, "whitespace collapsed")
	assert.Equal(t, "Getafe", points[1].Locality)
}

func TestParseMobileTable_MissingColumn(t *testing.T) {
	_, err := ParseMobileTable(mustDoc(t, `<table><tr><th>Fecha</th><th>Lugar</th></tr></table>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direccion")
}

func TestParseMobileTable_NoTable(t *testing.T) {
	_, err := ParseMobileTable(mustDoc(t, `<html><body><p>Sin resultados</p></body></html>`))
	assert.Error(t, err)
}

func TestParseMobileTable_HeaderOnly(t *testing.T) {
	points, err := ParseMobileTable(mustDoc(t,
		`<table><tr><th>Fecha</th><th>Horario</th><th>Localidad</th><th>Lugar</th><th>Dirección</th></tr></table>`))
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestParseFixedListing(t *testing.T) {
	resolve := func(href string) string { return "https://example.org/" + href }
	entries, err := ParseFixedListing(mustDoc(t, fixedResults), resolve)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, ListingEntry{
		Name:     "Hospital La Paz",
		CenterID: "12",
		URL:      "https://example.org/detalle.aspx?ID=12",
	}, entries[0])
	assert.Equal(t, "7", entries[1].CenterID)
}

func TestParseFixedListing_NoPanel(t *testing.T) {
	_, err := ParseFixedListing(mustDoc(t, `<html></html>`), func(s string) string { return s })
	assert.Error(t, err)
}

func TestParseFixedDetail(t *testing.T) {
	d, err := ParseFixedDetail(mustDoc(t, fixedDetailPage))
	require.NoError(t, err)

	assert.Equal(t, []model.Detail{
		{Label: "Dirección:", Value: "Pº de la Castellana, 261"},
		{Label: "Teléfono:", Value: "917 277 000"},
		{Label: "Horario:", Value: "Lunes a viernes 8:30 - 21:00"},
	}, d.Details)
	assert.Equal(t, "https://maps.google.com/maps?q=40.4811, -3.6868", d.MapsURL)
	assert.InDelta(t, 40.4811, d.Latitude, 1e-9)
	assert.InDelta(t, -3.6868, d.Longitude, 1e-9)
}

func TestParseFixedDetail_RepeatedLabel(t *testing.T) {
	d, err := ParseFixedDetail(mustDoc(t, `<div class="divTableMsg">
		<div><label>Horario:</label><div class="labelValue">mañanas</div></div>
		<div><label>Teléfono:</label><div class="labelValue">900</div></div>
		<div><label>Horario:</label><div class="labelValue">tardes</div></div>
	</div><a id="ctl00_ContenedorContenidoSeccion_linkGoogle" href="https://maps.google.com/?q=40.1,-3.1">x</a>`))
	require.NoError(t, err)
	require.Len(t, d.Details, 2)
	assert.Equal(t, model.Detail{Label: "Horario:", Value: "tardes"}, d.Details[0])
}

func TestParseFixedDetail_NoMapLink(t *testing.T) {
	_, err := ParseFixedDetail(mustDoc(t, `<div class="divTableMsg"></div>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map link")
}

func TestParseMapsURL(t *testing.T) {
	tests := []struct {
		raw      string
		lat, lng float64
	}{
		{"https://maps.google.com/maps?q=40.4811, -3.6868", 40.4811, -3.6868},
		{"https://maps.google.com/maps?q=40.4811,+-3.6868", 40.4811, -3.6868},
		{"https://www.google.com/maps?q=40.4811+-3.6868", 40.4811, -3.6868},
		{"https://www.google.com/maps?q=40.4811,-3.6868&z=15", 40.4811, -3.6868},
	}
	for _, tt := range tests {
		lat, lng, err := ParseMapsURL(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.InDelta(t, tt.lat, lat, 1e-9, tt.raw)
		assert.InDelta(t, tt.lng, lng, 1e-9, tt.raw)
	}
}

func TestParseMapsURL_Invalid(t *testing.T) {
	for _, raw := range []string{
		"https://maps.google.com/maps",
		"https://maps.google.com/maps?q=Madrid",
		"https://maps.google.com/maps?q=40.1",
		"https://maps.google.com/maps?q=140.1,-3.1",
		"https://maps.google.com/maps?q=abc,def",
	} {
		_, _, err := ParseMapsURL(raw)
		assert.Error(t, err, raw)
	}
}
