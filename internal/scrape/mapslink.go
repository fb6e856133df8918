package scrape

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseMapsURL extracts the coordinate from a map link's q parameter. Accepted forms are
// "lat, lng", "lat,lng" and "lat lng" (a '+' in the raw query decodes to a space).
func ParseMapsURL(raw string) (lat, lng float64, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, eris.Wrapf(err, "scrape: parse map link %q", raw)
	}
	q := strings.TrimSpace(u.Query().Get("q"))
	if q == "" {
		return 0, 0, eris.Errorf("scrape: map link %q has no q parameter", raw)
	}

	parts := strings.FieldsFunc(q, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("scrape: map link %q: expected two coordinates, got %q", raw, q)
	}

	lat, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "scrape: map link %q latitude", raw)
	}
	lng, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "scrape: map link %q longitude", raw)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, eris.Errorf("scrape: map link %q: coordinate out of range", raw)
	}
	return lat, lng, nil
}
