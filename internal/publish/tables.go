package publish

import (
	"github.com/hirudo/hirudo-etl/internal/model"
)

// Destination table names.
const (
	FixedTableName      = "puntos_fijos"
	FixedKeysTableName  = "puntos_fijos_keys"
	MobileTableName     = "puntos_moviles"
	MobileKeysTableName = "puntos_moviles_keys"
)

// mobileKeys are the display labels of the published mobile columns.
var mobileKeys = []model.ColumnKey{
	{Original: "Nombre", DB: "nombre"},
	{Original: "Localidad", DB: "localidad"},
	{Original: "Dirección", DB: "direccion"},
	{Original: "Fecha", DB: "fecha"},
	{Original: "Horario", DB: "horario"},
}

// MobileTable lays out resolved mobile points for publishing. source names the address field the
// coordinate came from. Unlocated points keep a row with a NULL geometry, score and source and an
// empty url.
func MobileTable(points []model.ResolvedMobilePoint) Table {
	t := Table{
		Name: MobileTableName,
		Columns: []Column{
			{Name: "nombre", Kind: KindText},
			{Name: "localidad", Kind: KindText},
			{Name: "direccion", Kind: KindText},
			{Name: "fecha", Kind: KindText},
			{Name: "horario", Kind: KindText},
			{Name: "url", Kind: KindText},
			{Name: "located", Kind: KindBool},
			{Name: "score", Kind: KindInt},
			{Name: "source", Kind: KindText},
			{Name: "geometry", Kind: KindPoint},
		},
		Rows: make([][]any, 0, len(points)),
	}
	for _, p := range points {
		var score, source, pt any
		if p.Located {
			score = p.Score
			source = string(p.Source)
			pt = NewPoint(p.Longitude, p.Latitude)
		}
		t.Rows = append(t.Rows, []any{
			model.MobileNamePrefix + p.Place,
			p.Locality,
			p.StreetAddress,
			p.Date,
			p.Schedule,
			p.MapsURL(),
			p.Located,
			score,
			source,
			pt,
		})
	}
	return t
}

// MobileKeysTable maps the mobile display labels to their columns.
func MobileKeysTable() Table {
	return KeysTable(MobileKeysTableName, mobileKeys)
}

// KeysTable builds an original-label to column-name table.
func KeysTable(name string, keys []model.ColumnKey) Table {
	t := Table{
		Name:    name,
		Columns: []Column{{Name: "original", Kind: KindText}, {Name: "db", Kind: KindText}},
		Rows:    make([][]any, 0, len(keys)),
	}
	for _, k := range keys {
		t.Rows = append(t.Rows, []any{k.Original, k.DB})
	}
	return t
}

// fixedLeading and fixedTrailing frame the per-center detail columns.
var (
	fixedLeading  = []string{"nombre", "id_del_centro", "url"}
	fixedTrailing = []string{"gmaps_url", "latitude", "longitude"}
)

// FixedKeys lists the columns of the fixed table in order: the listing fields, every detail label
// in first-seen order, then the map link and coordinates.
func FixedKeys(points []model.FixedPoint) []model.ColumnKey {
	var keys []model.ColumnKey
	seen := make(map[string]bool)
	add := func(label string) {
		db := FormatColumn(label)
		if db == "" || seen[db] {
			return
		}
		seen[db] = true
		keys = append(keys, model.ColumnKey{Original: label, DB: db})
	}
	for _, k := range fixedLeading {
		add(k)
	}
	for _, p := range points {
		for _, d := range p.Details {
			add(d.Label)
		}
	}
	for _, k := range fixedTrailing {
		add(k)
	}
	return keys
}

// FixedTable lays out fixed points for publishing. Details become text columns named after their
// normalized label; a center without a given detail gets NULL. The map link is recomposed from the
// coordinate so every row uses the same form.
func FixedTable(points []model.FixedPoint) Table {
	t := Table{Name: FixedTableName}

	var detailCols []string
	for _, k := range FixedKeys(points) {
		switch k.DB {
		case "nombre", "id_del_centro", "url", "gmaps_url", "latitude", "longitude":
			continue
		}
		detailCols = append(detailCols, k.DB)
	}

	for _, name := range fixedLeading {
		t.Columns = append(t.Columns, Column{Name: name, Kind: KindText})
	}
	for _, name := range detailCols {
		t.Columns = append(t.Columns, Column{Name: name, Kind: KindText})
	}
	t.Columns = append(t.Columns,
		Column{Name: "gmaps_url", Kind: KindText},
		Column{Name: "geometry", Kind: KindPoint},
	)

	t.Rows = make([][]any, 0, len(points))
	for _, p := range points {
		values := make(map[string]string, len(p.Details))
		for _, d := range p.Details {
			values[FormatColumn(d.Label)] = d.Value
		}

		row := []any{p.Name, p.CenterID, p.URL}
		for _, name := range detailCols {
			if v, ok := values[name]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		row = append(row, model.MapsURL(p.Latitude, p.Longitude), NewPoint(p.Longitude, p.Latitude))
		t.Rows = append(t.Rows, row)
	}
	return t
}
