// Package model defines the records that flow between the scraper, the reconciler and the publisher.
package model

import "fmt"

// MobileNamePrefix is prepended to a mobile point's place to build its display name.
const MobileNamePrefix = "Equipo móvil en "

// MobilePoint is one row of the mobile collection points listing, identified by its position in the batch.
type MobilePoint struct {
	Place         string `json:"lugar"`
	StreetAddress string `json:"direccion"`
	Locality      string `json:"localidad"`
	Schedule      string `json:"horario"`
	Date          string `json:"fecha"`
	SourceName    string `json:"nombre"`
}

// CandidateSource names the address field a resolved coordinate came from.
type CandidateSource string

const (
	SourceNone   CandidateSource = ""
	SourcePlace  CandidateSource = "place"
	SourceStreet CandidateSource = "street"
)

// ResolvedMobilePoint is a MobilePoint with the coordinate chosen by the reconciler.
// Located is false when neither address could be geocoded; Longitude and Latitude are then zero
// and must not be published as a coordinate.
type ResolvedMobilePoint struct {
	MobilePoint
	Longitude float64         `json:"longitude"`
	Latitude  float64         `json:"latitude"`
	Score     int             `json:"score"`
	Source    CandidateSource `json:"source"`
	Located   bool            `json:"located"`
}

// MapsURL returns the map link for the resolved coordinate, or "" when unresolved.
func (p ResolvedMobilePoint) MapsURL() string {
	if !p.Located {
		return ""
	}
	return MapsURL(p.Latitude, p.Longitude)
}

// Detail is one labelled value from a fixed point's detail page, in page order.
type Detail struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// FixedPoint is a permanent collection center with a pre-geocoded location.
type FixedPoint struct {
	Name      string   `json:"nombre" yaml:"nombre"`
	CenterID  string   `json:"id_del_centro" yaml:"id_del_centro"`
	URL       string   `json:"url" yaml:"url"`
	Details   []Detail `json:"details" yaml:"details"`
	MapsURL   string   `json:"gmaps_url" yaml:"gmaps_url"`
	Latitude  float64  `json:"latitude" yaml:"latitude"`
	Longitude float64  `json:"longitude" yaml:"longitude"`
}

// ColumnKey maps a display label to its normalized database column.
type ColumnKey struct {
	Original string `json:"original"`
	DB       string `json:"db"`
}

// MapsURL composes a Google Maps link for a coordinate.
func MapsURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%v+%v", lat, lng)
}
