package plot

import (
	"fmt"

	"github.com/atlasmap-sc/spatialplot/internal/render"
	"github.com/atlasmap-sc/spatialplot/pkg/colormap"
)

// Default colorbar placement for continuous panels.
const (
	DefaultColorbarShrink      = 0.3
	DefaultColorbarOrientation = render.Vertical
)

// LegendFor returns the legend parameters for f with the caller's overrides
// applied. Continuous panels default to a vertical colorbar labeled with the
// feature name at 30% length; categorical panels default to a legend titled
// with the feature name.
func LegendFor(f Feature, overrides render.LegendParams) render.LegendParams {
	p := overrides
	if f.Kind == Categorical {
		if p.Title == "" {
			p.Title = f.Name
		}
		return p
	}
	if p.Label == "" {
		p.Label = f.Name
	}
	if p.Orientation == "" {
		p.Orientation = DefaultColorbarOrientation
	}
	if p.Shrink == 0 {
		p.Shrink = DefaultColorbarShrink
	}
	return p
}

// lookupColormap resolves a colormap name. An empty name leaves the choice
// to the renderer default for the panel kind.
func lookupColormap(name string) (colormap.Colormap, error) {
	if name == "" {
		return nil, nil
	}
	cm, ok := colormap.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown colormap %q", ErrInvalidInput, name)
	}
	return cm, nil
}

// encodePanel draws feature f from the workspace on ax. Continuous features
// get a colorbar, categorical features a legend.
func encodePanel(ws *Workspace, f Feature, ax *render.Axes, cm colormap.Colormap, opts *Options) error {
	col, ok := ws.Obs().Column(f.Name)
	if !ok {
		return fmt.Errorf("%w: %q missing from working table", ErrMisalignedExtraction, f.Name)
	}

	p := render.ColumnPlot{
		Geometries: ws.Obs().Geometry(),
		Color:      opts.Color,
		Colormap:   cm,
		Legend:     true,
		Params:     LegendFor(f, opts.Legend),
		Style:      opts.GeomStyle.Merge(opts.Draw),
	}
	if f.Kind == Categorical {
		c := col.AsCategorical()
		p.Categorical = true
		p.Codes = c.Codes
		p.Categories = c.Categories
	} else {
		p.Values = col.Values
	}

	if _, err := render.PlotColumn(ax, p); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMisalignedExtraction, f.Name, err)
	}
	ax.SetTitle(f.Name, render.AlignCenter)
	return nil
}
