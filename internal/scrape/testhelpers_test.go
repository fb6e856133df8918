package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const formPage = `<html><body><form method="post">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="vs123" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="gen456" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="ev789" />
<select name="ctl00$ContenedorContenidoSeccion$cbxMunicipio"><option value="0">Todos</option></select>
</form></body></html>`

const mobileResults = `<html><head><meta charset="utf-8"></head><body>
<table class="tablaResultados">
  <tr><th>Fecha</th><th>Horario</th><th>Localidad</th><th>Lugar</th><th>Dirección</th></tr>
  <tr><td>17/10/2026</td><td>10:00 - 14:00</td><td>Madrid</td><td>Plaza Mayor</td><td>Equipo móvil en Plaza Mayor 1</td></tr>
  <tr><td>18/10/2026</td><td>17:00 -
      21:00</td><td>Getafe</td><td>Centro Cívico</td><td>Calle Madrid 3</td></tr>
</table>
</body></html>`

const fixedResults = `<html><body>
<div class="panelResultados"><table>
  <tr><th>Nombre</th><th>Dirección</th></tr>
  <tr><td data-label="Nombre:"><a href="detalle.aspx?ID=12">Hospital La Paz</a></td><td data-label="Dirección:">Pº Castellana 261</td></tr>
  <tr><td data-label="Nombre:"><a href="detalle.aspx?ID=7">Centro de Transfusión</a></td><td>Av. Mar Mediterráneo</td></tr>
  <tr><td colspan="2">Sin enlace</td></tr>
</table></div>
</body></html>`

const fixedDetailPage = `<html><body>
<div class="divTableMsg">
  <div><label>Dirección:</label><div class="labelValue">Pº de la Castellana, 261</div></div>
  <div><label>Teléfono:</label><div class="labelValue"> 917 277 000 </div></div>
  <div><label>Horario:</label><div class="labelValue">Lunes a viernes 8:30 - 21:00</div></div>
</div>
<a id="ctl00_ContenedorContenidoSeccion_linkGoogle" href="https://maps.google.com/maps?q=40.4811, -3.6868">Ver mapa</a>
</body></html>`
