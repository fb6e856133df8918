// Package publish writes tabular and point datasets to their destinations with full-replace
// semantics: every write drops the previous table and recreates it.
package publish

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// SRID is the coordinate reference of every published geometry (WGS 84).
const SRID = 4326

// Kind is the value type of a column.
type Kind int

const (
	KindText  Kind = iota // string
	KindFloat             // float64
	KindInt               // int
	KindBool              // bool
	KindPoint             // *geom.Point; nil is NULL
)

// Column is one named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Table is a dataset keyed by its destination name. Each row holds one value per column, in
// column order; nil is NULL for any kind.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Writer replaces a destination table with t.
type Writer interface {
	Replace(ctx context.Context, t Table) error
}

// Validate checks that every row matches the column layout.
func (t Table) Validate() error {
	if t.Name == "" {
		return eris.New("publish: table has no name")
	}
	if len(t.Columns) == 0 {
		return eris.Errorf("publish: table %s has no columns", t.Name)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return eris.Errorf("publish: table %s row %d has %d values, want %d", t.Name, i, len(row), len(t.Columns))
		}
		for j, v := range row {
			if v == nil {
				continue
			}
			if !kindAccepts(t.Columns[j].Kind, v) {
				return eris.Errorf("publish: table %s row %d column %s: unexpected %T", t.Name, i, t.Columns[j].Name, v)
			}
		}
	}
	return nil
}

// PointColumn returns the index of the first point column, or -1.
func (t Table) PointColumn() int {
	for i, c := range t.Columns {
		if c.Kind == KindPoint {
			return i
		}
	}
	return -1
}

func kindAccepts(k Kind, v any) bool {
	switch k {
	case KindText:
		_, ok := v.(string)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	case KindInt:
		_, ok := v.(int)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindPoint:
		_, ok := v.(*geom.Point)
		return ok
	}
	return false
}

// NewPoint builds a WGS 84 point from a longitude and latitude.
func NewPoint(lng, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(SRID)
}

// MultiWriter replaces a table on every writer in order, stopping at the first failure.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter fans out to writers. Nil writers are skipped.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	m := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// Replace implements Writer.
func (m *MultiWriter) Replace(ctx context.Context, t Table) error {
	for _, w := range m.writers {
		if err := w.Replace(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
