package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/hirudo/hirudo-etl/internal/model"
	"github.com/hirudo/hirudo-etl/internal/publish"
)

// mobileColumns binds normalized header names to MobilePoint fields.
var mobileColumns = map[string]func(*model.MobilePoint, string){
	"lugar":     func(p *model.MobilePoint, v string) { p.Place = v },
	"direccion": func(p *model.MobilePoint, v string) { p.StreetAddress = v },
	"localidad": func(p *model.MobilePoint, v string) { p.Locality = v },
	"fecha":     func(p *model.MobilePoint, v string) { p.Date = v },
	"horario":   func(p *model.MobilePoint, v string) { p.Schedule = v },
	"nombre":    func(p *model.MobilePoint, v string) { p.SourceName = v },
}

// requiredMobileColumns must appear in the results header.
var requiredMobileColumns = []string{"lugar", "direccion", "localidad", "fecha", "horario"}

// ParseMobileTable reads the first results table of the mobile listing. Header labels are
// normalized with publish.FormatColumn; unknown columns are ignored.
func ParseMobileTable(doc *goquery.Document) ([]model.MobilePoint, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, eris.New("scrape: mobile listing has no table")
	}

	rows := table.Find("tr")
	var header []string
	rows.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("th")
		if cells.Length() == 0 {
			return true
		}
		cells.Each(func(_ int, th *goquery.Selection) {
			header = append(header, publish.FormatColumn(cellText(th)))
		})
		return false
	})
	if len(header) == 0 {
		return nil, eris.New("scrape: mobile listing table has no header")
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range requiredMobileColumns {
		if !present[col] {
			return nil, eris.Errorf("scrape: mobile listing missing column %q (have %v)", col, header)
		}
	}

	var points []model.MobilePoint
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		var p model.MobilePoint
		cells.Each(func(i int, td *goquery.Selection) {
			if i >= len(header) {
				return
			}
			if set, ok := mobileColumns[header[i]]; ok {
				set(&p, cellText(td))
			}
		})
		points = append(points, p)
	})
	return points, nil
}

// cellText returns the visible text of a cell with whitespace runs collapsed.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
