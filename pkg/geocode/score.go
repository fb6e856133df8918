package geocode

import (
	"github.com/rotisserie/eris"
)

// ErrUnknownLocationType is returned for a precision label missing from the score tables.
// The tables are closed: a new label means the provider contract changed and must be mapped by hand.
var ErrUnknownLocationType = eris.New("geocode: unknown location type")

// googleScores maps Google's geometry.location_type to a confidence score.
var googleScores = map[string]int{
	"ROOFTOP":            9,
	"RANGE_INTERPOLATED": 7,
	"GEOMETRIC_CENTER":   6,
	"APPROXIMATE":        4,
}

// hereScores maps HERE's resultType (qualified by houseNumberType for interpolated matches).
var hereScores = map[string]int{
	"houseNumber":              9,
	"houseNumber:interpolated": 7,
	"place":                    9,
	"intersection":             7,
	"street":                   6,
	"addressBlock":             6,
	"postalCodePoint":          4,
	"locality":                 4,
	"administrativeArea":       4,
}

// GoogleScore returns the score for a Google location_type.
func GoogleScore(locationType string) (int, error) {
	s, ok := googleScores[locationType]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownLocationType, "google %q", locationType)
	}
	return s, nil
}

// HereScore returns the score for a HERE result type label.
func HereScore(label string) (int, error) {
	s, ok := hereScores[label]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownLocationType, "here %q", label)
	}
	return s, nil
}
