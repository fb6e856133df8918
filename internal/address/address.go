// Package address builds the full address strings sent to the geocoder for mobile points.
package address

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hirudo/hirudo-etl/internal/model"
)

// ErrEmptyField is returned when the field an address is built from is blank.
var ErrEmptyField = eris.New("address: empty field")

// Field selects which MobilePoint attribute a full address is built from.
type Field string

const (
	FieldPlace  Field = "place"
	FieldStreet Field = "street_address"
)

// Fields lists the address fields in the order they are geocoded.
var Fields = []Field{FieldPlace, FieldStreet}

const (
	region  = "Community of Madrid"
	country = "Spain"
)

// streetPrefixes is removed from street addresses, in order. Matches are not anchored.
var streetPrefixes = []string{
	"Equipo móvil en ",
	"E Móvil en ",
	"Equipo Móvil detrás ",
}

// StripPrefixes removes every occurrence of the known boilerplate prefixes from text.
func StripPrefixes(text string) string {
	for _, p := range streetPrefixes {
		text = strings.ReplaceAll(text, p, "")
	}
	return text
}

// NormalizeStreets returns a copy of points with StripPrefixes applied to each street address.
func NormalizeStreets(points []model.MobilePoint) []model.MobilePoint {
	out := make([]model.MobilePoint, len(points))
	for i, p := range points {
		p.StreetAddress = StripPrefixes(p.StreetAddress)
		out[i] = p
	}
	return out
}

// Value returns the raw value of field for p.
func Value(p model.MobilePoint, field Field) (string, error) {
	switch field {
	case FieldPlace:
		return p.Place, nil
	case FieldStreet:
		return p.StreetAddress, nil
	default:
		return "", eris.Errorf("address: unknown field %q", field)
	}
}

// FullAddress joins the chosen field, the locality, the region and the country.
// A blank field or locality is a data error: incomplete addresses are never geocoded.
func FullAddress(p model.MobilePoint, field Field) (string, error) {
	v, err := Value(p, field)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", eris.Wrapf(ErrEmptyField, "%s is empty (locality %q)", field, p.Locality)
	}
	if strings.TrimSpace(p.Locality) == "" {
		return "", eris.Wrapf(ErrEmptyField, "locality is empty (%s %q)", field, v)
	}
	return strings.Join([]string{v, p.Locality, region, country}, ", "), nil
}
