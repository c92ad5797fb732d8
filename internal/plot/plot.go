// Package plot renders per-observation features of spatial datasets as a
// grid of map panels.
package plot

import (
	"fmt"
	"image/color"

	"github.com/atlasmap-sc/spatialplot/internal/dataset"
	"github.com/atlasmap-sc/spatialplot/internal/render"
	"github.com/atlasmap-sc/spatialplot/internal/spatial"
)

// Options controls SpatialFeatures. The zero value draws in-tissue
// observations with automatic layout and default colors.
type Options struct {
	// NCol fixes the number of grid columns. Zero picks automatically.
	NCol int
	// AllObservations disables the in_tissue == 1 filter.
	AllObservations bool
	// BarcodeGeom selects the observation geometry column to draw.
	BarcodeGeom string
	// AnnotGeom names an annotation layer drawn over every panel.
	AnnotGeom string
	// Color fills every observation with a single color and suppresses
	// colormaps, legends and colorbars.
	Color color.Color
	// Colormap names a registered colormap.
	Colormap string
	// Categorical lists numeric metadata columns to draw as categories.
	Categorical []string

	GeomStyle  render.Style
	AnnotStyle render.Style
	// Draw is applied to both the feature and the annotation draws.
	Draw render.Style

	// Legend overrides the default colorbar or legend parameters.
	Legend render.LegendParams

	// Axes, when set, draws a single feature into it instead of a new grid.
	Axes    *render.Axes
	Subplot SubplotOptions

	// Resolver populates geometry on datasets that lack it.
	Resolver spatial.Resolver
}

// Result is a rendered figure and its panels in row-major order.
type Result struct {
	Figure   *render.Figure
	Grid     *Grid
	Panels   []*render.Axes
	Features []Feature
}

// SpatialFeatures draws one panel per feature over the dataset's observation
// geometry. ds is never modified except by opts.Resolver filling in missing
// geometry. All validation happens before the first panel is drawn.
func SpatialFeatures(ds *dataset.Dataset, features []string, opts Options) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidInput)
	}
	if err := EnsureGeometry(ds, opts.Resolver); err != nil {
		return nil, err
	}
	feats, err := ResolveFeatures(ds, features, opts.NCol, opts.Categorical)
	if err != nil {
		return nil, err
	}
	if opts.BarcodeGeom != "" && !ds.Obs.HasGeometry(opts.BarcodeGeom) {
		return nil, fmt.Errorf("%w: %w: observation geometry %q not found (available: %v)", ErrInvalidInput, ErrMissingGeometry, opts.BarcodeGeom, ds.Obs.GeometryColumns())
	}
	cm, err := lookupColormap(opts.Colormap)
	if err != nil {
		return nil, err
	}

	var (
		grid *Grid
		fig  *render.Figure
	)
	if opts.Axes != nil {
		if len(feats) > 1 {
			return nil, fmt.Errorf("%w: a single axes can hold one feature, got %d", ErrInvalidInput, len(feats))
		}
		grid, fig = SingleGrid(opts.Axes), opts.Axes.Figure()
	} else {
		layout, err := PlanLayout(len(feats), opts.NCol)
		if err != nil {
			return nil, err
		}
		if err := opts.Subplot.CheckSize(layout); err != nil {
			return nil, err
		}
		grid, fig = NewGrid(layout, opts.Subplot)
	}

	ws, err := NewWorkspace(ds, !opts.AllObservations)
	if err != nil {
		return nil, err
	}
	if opts.BarcodeGeom != "" && opts.BarcodeGeom != spatial.SpotPolygons {
		if err := ws.Obs().SetActiveGeometry(opts.BarcodeGeom); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingGeometry, err)
		}
	}

	cur := grid.Cursor()
	for _, f := range feats {
		ax := grid.At(cur.Row(), cur.Col())
		if err := ws.Extract(f); err != nil {
			return nil, err
		}
		if err := encodePanel(ws, f, ax, cm, &opts); err != nil {
			return nil, err
		}
		if opts.AnnotGeom != "" {
			if err := Annotate(ds, ax, opts.AnnotGeom, opts.AnnotStyle, opts.Draw); err != nil {
				return nil, err
			}
		}
		cur.Advance()
	}

	NormalizeColorbars(fig)
	return &Result{Figure: fig, Grid: grid, Panels: grid.Panels(), Features: feats}, nil
}
