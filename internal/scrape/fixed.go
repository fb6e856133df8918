package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/hirudo/hirudo-etl/internal/model"
)

// mapsLinkSelector is the anchor on a center's page that carries its coordinate.
const mapsLinkSelector = "a#ctl00_ContenedorContenidoSeccion_linkGoogle"

// ListingEntry is one center from the fixed points listing.
type ListingEntry struct {
	Name     string
	CenterID string
	URL      string // absolute detail page URL
}

// FixedDetail is the parsed content of a center's detail page.
type FixedDetail struct {
	Details   []model.Detail
	MapsURL   string
	Latitude  float64
	Longitude float64
}

// ParseFixedListing reads the results panel of the fixed listing. Rows without a name link are
// skipped. resolve turns the link href into an absolute URL.
func ParseFixedListing(doc *goquery.Document, resolve func(string) string) ([]ListingEntry, error) {
	panel := doc.Find("div.panelResultados")
	if panel.Length() == 0 {
		return nil, eris.New("scrape: fixed listing has no results panel")
	}

	var entries []ListingEntry
	panel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cell := tr.Find(`td[data-label="Nombre:"]`).First()
		if cell.Length() == 0 {
			return
		}
		href, ok := cell.Find("a").First().Attr("href")
		if !ok {
			return
		}
		id := href
		if i := strings.LastIndex(href, "ID="); i >= 0 {
			id = href[i+len("ID="):]
		}
		entries = append(entries, ListingEntry{
			Name:     cellText(cell),
			CenterID: id,
			URL:      resolve(href),
		})
	})
	return entries, nil
}

// ParseFixedDetail reads the labelled values and the map link of a center's page. Only divs holding
// exactly one label contribute; a repeated label keeps its first position and its last value.
func ParseFixedDetail(doc *goquery.Document) (*FixedDetail, error) {
	table := doc.Find("div.divTableMsg").First()
	if table.Length() == 0 {
		return nil, eris.New("scrape: detail page has no details table")
	}

	out := &FixedDetail{}
	pos := make(map[string]int)
	table.Find("div").Each(func(_ int, div *goquery.Selection) {
		labels := div.Find("label")
		if labels.Length() != 1 {
			return
		}
		label := cellText(labels)
		value := cellText(div.Find("div.labelValue").First())
		if i, ok := pos[label]; ok {
			out.Details[i].Value = value
			return
		}
		pos[label] = len(out.Details)
		out.Details = append(out.Details, model.Detail{Label: label, Value: value})
	})

	href, ok := doc.Find(mapsLinkSelector).First().Attr("href")
	if !ok {
		return nil, eris.New("scrape: detail page has no map link")
	}
	lat, lng, err := ParseMapsURL(href)
	if err != nil {
		return nil, err
	}
	out.MapsURL = href
	out.Latitude, out.Longitude = lat, lng
	return out, nil
}
