package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
)

// ColumnKind is the declared kind of an observation column.
type ColumnKind int

const (
	// Numeric columns hold float64 values (NaN marks missing).
	Numeric ColumnKind = iota
	// Categorical columns hold integer codes into a category list (-1 marks missing).
	Categorical
)

func (k ColumnKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is one metadata column of the observation table.
type Column struct {
	Name       string
	Kind       ColumnKind
	Values     []float64
	Codes      []int
	Categories []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Codes)
	}
	return len(c.Values)
}

// Label returns the display string for row i.
func (c *Column) Label(i int) string {
	if c.Kind == Categorical {
		code := c.Codes[i]
		if code < 0 || code >= len(c.Categories) {
			return ""
		}
		return c.Categories[code]
	}
	return strconv.FormatFloat(c.Values[i], 'g', -1, 64)
}

// AsCategorical returns a categorical view of a numeric column: distinct values
// sorted ascending become the categories. Categorical columns are returned as-is.
func (c *Column) AsCategorical() *Column {
	if c.Kind == Categorical {
		return c
	}
	distinct := make(map[float64]struct{})
	for _, v := range c.Values {
		if !math.IsNaN(v) {
			distinct[v] = struct{}{}
		}
	}
	levels := make([]float64, 0, len(distinct))
	for v := range distinct {
		levels = append(levels, v)
	}
	sort.Float64s(levels)

	index := make(map[float64]int, len(levels))
	cats := make([]string, len(levels))
	for i, v := range levels {
		index[v] = i
		cats[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	codes := make([]int, len(c.Values))
	for i, v := range c.Values {
		code, ok := index[v]
		if !ok {
			code = -1
		}
		codes[i] = code
	}
	return &Column{Name: c.Name, Kind: Categorical, Codes: codes, Categories: cats}
}

func (c *Column) subset(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Categories: c.Categories}
	if c.Kind == Categorical {
		out.Codes = make([]int, len(rows))
		for i, r := range rows {
			out.Codes[i] = c.Codes[r]
		}
		return out
	}
	out.Values = make([]float64, len(rows))
	for i, r := range rows {
		out.Values[i] = c.Values[r]
	}
	return out
}

// ObsTable is the per-observation metadata table. It carries typed metadata
// columns and any number of named geometry columns, one of which is active.
//
// Column slices are never mutated after insertion, so Copy shares them and
// only the column maps are duplicated.
type ObsTable struct {
	index []string
	order []string
	cols  map[string]*Column

	geoms      map[string][]orb.Geometry
	geomOrder  []string
	activeGeom string
}

// NewObsTable creates an empty table over the given observation names.
func NewObsTable(index []string) *ObsTable {
	return &ObsTable{
		index: index,
		cols:  make(map[string]*Column),
		geoms: make(map[string][]orb.Geometry),
	}
}

// NumRows returns the number of observations.
func (t *ObsTable) NumRows() int { return len(t.index) }

// Index returns the observation names in row order.
func (t *ObsTable) Index() []string { return t.index }

// Columns returns metadata column names in insertion order.
func (t *ObsTable) Columns() []string { return t.order }

// Has reports whether name is a metadata column.
func (t *ObsTable) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the metadata column called name.
func (t *ObsTable) Column(name string) (*Column, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// Set inserts or replaces a metadata column. The column length must match the row count.
func (t *ObsTable) Set(col *Column) error {
	if col.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", col.Name, col.Len(), t.NumRows())
	}
	if _, exists := t.cols[col.Name]; !exists {
		t.order = append(t.order, col.Name)
	}
	t.cols[col.Name] = col
	return nil
}

// SetNumeric inserts or replaces a numeric column.
func (t *ObsTable) SetNumeric(name string, values []float64) error {
	return t.Set(&Column{Name: name, Kind: Numeric, Values: values})
}

// SetGeometry inserts or replaces a geometry column. The first geometry column
// added becomes the active one.
func (t *ObsTable) SetGeometry(name string, geoms []orb.Geometry) error {
	if len(geoms) != t.NumRows() {
		return fmt.Errorf("geometry %q has %d rows, table has %d", name, len(geoms), t.NumRows())
	}
	if _, exists := t.geoms[name]; !exists {
		t.geomOrder = append(t.geomOrder, name)
	}
	t.geoms[name] = geoms
	if t.activeGeom == "" {
		t.activeGeom = name
	}
	return nil
}

// HasGeometry reports whether name is a geometry column.
func (t *ObsTable) HasGeometry(name string) bool {
	_, ok := t.geoms[name]
	return ok
}

// GeometryColumns returns the geometry column names in insertion order.
func (t *ObsTable) GeometryColumns() []string { return t.geomOrder }

// ActiveGeometryName returns the name of the active geometry column, or "".
func (t *ObsTable) ActiveGeometryName() string { return t.activeGeom }

// Geometry returns the active geometry column, or nil if none is set.
func (t *ObsTable) Geometry() []orb.Geometry {
	if t.activeGeom == "" {
		return nil
	}
	return t.geoms[t.activeGeom]
}

// SetActiveGeometry selects which geometry column is drawn.
func (t *ObsTable) SetActiveGeometry(name string) error {
	if _, ok := t.geoms[name]; !ok {
		return fmt.Errorf("geometry column not found: %s", name)
	}
	t.activeGeom = name
	return nil
}

// Copy returns a table that can gain or replace columns without affecting t.
func (t *ObsTable) Copy() *ObsTable {
	out := &ObsTable{
		index:      t.index,
		order:      append([]string(nil), t.order...),
		cols:       make(map[string]*Column, len(t.cols)),
		geoms:      make(map[string][]orb.Geometry, len(t.geoms)),
		geomOrder:  append([]string(nil), t.geomOrder...),
		activeGeom: t.activeGeom,
	}
	for k, v := range t.cols {
		out.cols[k] = v
	}
	for k, v := range t.geoms {
		out.geoms[k] = v
	}
	return out
}

// Subset returns a new table restricted to rows, in the given order.
func (t *ObsTable) Subset(rows []int) (*ObsTable, error) {
	n := t.NumRows()
	index := make([]string, len(rows))
	for i, r := range rows {
		if r < 0 || r >= n {
			return nil, fmt.Errorf("row %d out of range (n_obs=%d)", r, n)
		}
		index[i] = t.index[r]
	}

	out := NewObsTable(index)
	out.order = append(out.order, t.order...)
	for k, c := range t.cols {
		out.cols[k] = c.subset(rows)
	}
	for _, name := range t.geomOrder {
		src := t.geoms[name]
		g := make([]orb.Geometry, len(rows))
		for i, r := range rows {
			g[i] = src[r]
		}
		out.geoms[name] = g
	}
	out.geomOrder = append(out.geomOrder, t.geomOrder...)
	out.activeGeom = t.activeGeom
	return out, nil
}

// RowsWhere returns the row indices, in table order, whose numeric column
// equals value.
func (t *ObsTable) RowsWhere(name string, value float64) ([]int, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("column not found: %s", name)
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("column %q is %s, expected numeric", name, c.Kind)
	}
	rows := make([]int, 0, len(c.Values))
	for i, v := range c.Values {
		if v == value {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// AllRows returns 0..n-1.
func (t *ObsTable) AllRows() []int {
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return rows
}
