package publish

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"
)

// maxSheetName is Excel's sheet name limit.
const maxSheetName = 31

// XLSXWriter exports each table as a one-sheet workbook. Points are written as WKT.
type XLSXWriter struct {
	dir string
}

// NewXLSXWriter creates an XLSXWriter over dir.
func NewXLSXWriter(dir string) *XLSXWriter {
	return &XLSXWriter{dir: dir}
}

// Replace implements Writer.
func (w *XLSXWriter) Replace(_ context.Context, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return eris.Wrapf(err, "publish: xlsx mkdir %s", w.dir)
	}

	f := xlsx.NewFile()
	sheetName := t.Name
	if len(sheetName) > maxSheetName {
		sheetName = sheetName[:maxSheetName]
	}
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "publish: xlsx sheet %s", t.Name)
	}

	header := sheet.AddRow()
	for _, c := range t.Columns {
		header.AddCell().SetString(c.Name)
	}

	for i, row := range t.Rows {
		r := sheet.AddRow()
		for _, v := range row {
			cell := r.AddCell()
			switch x := v.(type) {
			case string:
				cell.SetString(x)
			case float64:
				cell.SetFloat(x)
			case int:
				cell.SetInt(x)
			case bool:
				cell.SetBool(x)
			case *geom.Point:
				if x == nil {
					continue
				}
				s, err := wkt.Marshal(x)
				if err != nil {
					return eris.Wrapf(err, "publish: xlsx %s row %d: encode WKT", t.Name, i)
				}
				cell.SetString(s)
			}
		}
	}

	path := filepath.Join(w.dir, t.Name+".xlsx")
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "publish: xlsx save %s", path)
	}
	zap.L().Info("publish: table replaced",
		zap.String("writer", "xlsx"),
		zap.String("table", t.Name),
		zap.String("path", path),
		zap.Int("rows", len(t.Rows)),
	)
	return nil
}
