package plot

import (
	"fmt"

	"github.com/atlasmap-sc/spatialplot/internal/render"
)

// Layout is the planned panel grid.
type Layout struct {
	Rows, Cols int
	Panels     int
	FigSize    [2]float64 // inches
}

// Cells returns rows x cols.
func (l Layout) Cells() int { return l.Rows * l.Cols }

// DefaultFigSize and WideFigSize are the planned figure sizes in inches.
// WideFigSize is used for grids of two or more rows and three columns.
var (
	DefaultFigSize = [2]float64{10, 10}
	WideFigSize    = [2]float64{10, 6}
)

// SubplotOptions configures grid construction. A non-zero FigSize replaces
// the computed figure size entirely.
type SubplotOptions struct {
	FigSize [2]float64
	DPI     float64
	Spacing *render.SubplotOptions
}

// PlanLayout computes the grid shape for n panels. Without a column hint,
// fewer than four panels share one row and four or more use 2 x 3.
func PlanLayout(n, ncol int) (Layout, error) {
	if n < 1 {
		return Layout{}, fmt.Errorf("%w: no panels to lay out", ErrInvalidInput)
	}
	if n > MaxPanels {
		return Layout{}, fmt.Errorf("%w: %d requested, at most %d", ErrTooManyPanels, n, MaxPanels)
	}
	if err := checkColumns(ncol); err != nil {
		return Layout{}, err
	}

	l := Layout{Rows: 1, Cols: n, Panels: n}
	switch {
	case ncol > 0:
		l.Cols = ncol
		l.Rows = (n + ncol - 1) / ncol
	case n >= 4:
		l.Rows, l.Cols = 2, 3
	}

	l.FigSize = DefaultFigSize
	if l.Rows >= 2 && l.Cols == 3 {
		l.FigSize = WideFigSize
	}
	return l, nil
}

// Grid is a fixed rows x cols arrangement of panel axes, filled row-major.
// Cells past the requested panel count are hidden.
type Grid struct {
	rows, cols int
	panels     int
	cells      []*render.Axes
}

// figSize returns the figure size for l, honoring an override.
func (o SubplotOptions) figSize(l Layout) [2]float64 {
	if o.FigSize != [2]float64{} {
		return o.FigSize
	}
	return l.FigSize
}

// CheckSize fails with ErrInvalidInput when the figure for l cannot be
// rasterized at the configured DPI.
func (o SubplotOptions) CheckSize(l Layout) error {
	size := o.figSize(l)
	if err := render.CheckSize(size[0], size[1], o.DPI); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// NewGrid creates a figure and its panel grid for l. Callers validate the
// size with SubplotOptions.CheckSize first.
func NewGrid(l Layout, opts SubplotOptions) (*Grid, *render.Figure) {
	size := opts.figSize(l)
	spacing := render.DefaultSubplotOptions()
	if opts.Spacing != nil {
		spacing = *opts.Spacing
	}

	fig := render.NewFigure(size[0], size[1], opts.DPI)
	cells := fig.Subplots(l.Rows, l.Cols, spacing)
	for _, ax := range cells[l.Panels:] {
		ax.AxisOff()
	}
	return &Grid{rows: l.Rows, cols: l.Cols, panels: l.Panels, cells: cells}, fig
}

// SingleGrid wraps an existing axes as a 1 x 1 grid.
func SingleGrid(ax *render.Axes) *Grid {
	return &Grid{rows: 1, cols: 1, panels: 1, cells: []*render.Axes{ax}}
}

// Shape returns the number of rows and columns.
func (g *Grid) Shape() (int, int) { return g.rows, g.cols }

// At returns the axes at (row, col).
func (g *Grid) At(row, col int) *render.Axes {
	return g.cells[row*g.cols+col]
}

// Panels returns the axes that hold data, in row-major order.
func (g *Grid) Panels() []*render.Axes { return g.cells[:g.panels] }

// Hidden returns the cells that were switched off.
func (g *Grid) Hidden() []*render.Axes { return g.cells[g.panels:] }

// Cursor walks a grid in row-major order.
func (g *Grid) Cursor() *Cursor { return &Cursor{cols: g.cols} }

// Cursor tracks the current (row, col) while panels are filled one at a time.
type Cursor struct {
	row, col, cols int
}

// Row returns the current row.
func (c *Cursor) Row() int { return c.row }

// Col returns the current column.
func (c *Cursor) Col() int { return c.col }

// Advance moves to the next cell, wrapping to the next row.
func (c *Cursor) Advance() {
	c.col++
	if c.col >= c.cols {
		c.col = 0
		c.row++
	}
}
