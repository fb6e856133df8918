package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// wgs84PRJ is the .prj sidecar for EPSG:4326.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// dbfNameLen is the dBASE limit on field names.
const dbfNameLen = 10

// ShapefileWriter exports point tables as ESRI shapefiles into a directory. Tables without a point
// column are skipped.
type ShapefileWriter struct {
	dir string
}

// NewShapefileWriter creates a ShapefileWriter over dir.
func NewShapefileWriter(dir string) *ShapefileWriter {
	return &ShapefileWriter{dir: dir}
}

// Replace implements Writer.
func (w *ShapefileWriter) Replace(_ context.Context, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	geomIdx := t.PointColumn()
	if geomIdx < 0 {
		zap.L().Debug("publish: shapefile skips non-spatial table", zap.String("table", t.Name))
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return eris.Wrapf(err, "publish: shapefile mkdir %s", w.dir)
	}
	base := filepath.Join(w.dir, t.Name)

	var attrCols []int
	for i, c := range t.Columns {
		if i != geomIdx && c.Kind != KindPoint {
			attrCols = append(attrCols, i)
		}
	}
	fields := dbfFields(t, attrCols)

	out, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "publish: shapefile create %s", base)
	}
	if err := out.SetFields(fields); err != nil {
		out.Close()
		return eris.Wrapf(err, "publish: shapefile fields %s", t.Name)
	}

	for _, row := range t.Rows {
		var shape shp.Shape = &shp.Null{}
		if p, ok := row[geomIdx].(*geom.Point); ok && p != nil {
			shape = &shp.Point{X: p.X(), Y: p.Y()}
		}
		n := int(out.Write(shape))
		for fi, ci := range attrCols {
			v := dbfValue(row[ci])
			if v == nil {
				continue
			}
			if err := out.WriteAttribute(n, fi, v); err != nil {
				out.Close()
				return eris.Wrapf(err, "publish: shapefile %s row %d", t.Name, n)
			}
		}
	}
	out.Close()

	if err := os.WriteFile(base+".prj", []byte(wgs84PRJ), 0o644); err != nil {
		return eris.Wrapf(err, "publish: shapefile prj %s", t.Name)
	}

	zap.L().Info("publish: table replaced",
		zap.String("writer", "shapefile"),
		zap.String("table", t.Name),
		zap.String("path", base+".shp"),
		zap.Int("rows", len(t.Rows)),
	)
	return nil
}

// dbfFields maps columns to dBASE fields with unique names truncated to the format's limit.
func dbfFields(t Table, cols []int) []shp.Field {
	used := make(map[string]bool, len(cols))
	fields := make([]shp.Field, len(cols))
	for fi, ci := range cols {
		c := t.Columns[ci]
		name := dbfName(c.Name, used)
		switch c.Kind {
		case KindFloat:
			fields[fi] = shp.FloatField(name, 24, 8)
		case KindInt:
			fields[fi] = shp.NumberField(name, 10)
		case KindBool:
			fields[fi] = shp.StringField(name, 1)
		default:
			fields[fi] = shp.StringField(name, textWidth(t, ci))
		}
	}
	return fields
}

func dbfName(name string, used map[string]bool) string {
	if len(name) > dbfNameLen {
		name = name[:dbfNameLen]
	}
	candidate := name
	for i := 1; used[candidate]; i++ {
		suffix := strconv.Itoa(i)
		cut := dbfNameLen - len(suffix)
		if cut > len(name) {
			cut = len(name)
		}
		candidate = name[:cut] + suffix
	}
	used[candidate] = true
	return candidate
}

// textWidth is the widest value of column ci in bytes, clamped to 1..254.
func textWidth(t Table, ci int) uint8 {
	width := 1
	for _, row := range t.Rows {
		if s, ok := row[ci].(string); ok && len(s) > width {
			width = len(s)
		}
	}
	if width > 254 {
		width = 254
	}
	return uint8(width)
}

func dbfValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return "T"
		}
		return "F"
	case string, int, float64:
		return x
	default:
		return fmt.Sprint(x)
	}
}
