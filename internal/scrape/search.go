package scrape

import (
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// stateFields are the ASP.NET hidden inputs a postback must echo.
var stateFields = []string{"__VIEWSTATE", "__VIEWSTATEGENERATOR", "__EVENTVALIDATION"}

const (
	fieldMunicipality = "ctl00$ContenedorContenidoSeccion$cbxMunicipio"
	fieldSearch       = "ctl00$ContenedorContenidoSeccion$btnBuscar"
)

// ParseFormState reads the ASP.NET state fields from a page. Every field must be present.
func ParseFormState(doc *goquery.Document) (url.Values, error) {
	vals := url.Values{}
	for _, name := range stateFields {
		input := doc.Find("input#" + name).First()
		if input.Length() == 0 {
			return nil, eris.Errorf("scrape: form state field %s not found", name)
		}
		vals.Set(name, input.AttrOr("value", ""))
	}
	return vals, nil
}

// SearchAll runs the page's search form with every municipality selected. The site only
// renders results after a postback carrying the state fields from a prior GET.
func (s *Session) SearchAll(ctx context.Context, page string) (*goquery.Document, error) {
	first, err := s.Get(ctx, page)
	if err != nil {
		return nil, err
	}

	form, err := ParseFormState(first)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: %s", page)
	}
	form.Set(fieldMunicipality, "0")
	form.Set(fieldSearch, "Buscar")

	return s.PostForm(ctx, page, form)
}
