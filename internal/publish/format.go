package publish

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var columnReplacer = strings.NewReplacer(
	"¿", "", "?", "", "(", "", ")", "", ",", "", ".", "", ":", "",
	"/", "_", " ", "_", "%", "pct",
)

// FormatColumn turns a display label into a lower-case ASCII column name, e.g.
// "Teléfono / Fax:" becomes "telefono_fax".
func FormatColumn(label string) string {
	s := columnReplacer.Replace(label)

	parts := strings.Split(s, "_")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	s = strings.ToLower(strings.Join(kept, "_"))

	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		s,
	)
	return s
}
