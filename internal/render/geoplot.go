package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/atlasmap-sc/spatialplot/pkg/colormap"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// LegendParams configures the colorbar of a continuous column or the legend
// of a categorical one. Zero fields are unset.
type LegendParams struct {
	Label       string
	Title       string
	Orientation Orientation
	Shrink      float64
	Loc         string
}

// ColumnPlot describes one per-observation column drawn over geometries.
// Exactly one of Values (continuous) or Codes (categorical) is read,
// depending on Categorical.
type ColumnPlot struct {
	Geometries  []orb.Geometry
	Categorical bool
	Values      []float64
	Codes       []int
	Categories  []string

	// Color, when set, fills every geometry and disables the colormap and legend.
	Color    color.Color
	Colormap colormap.Colormap
	Legend   bool
	Params   LegendParams
	Style    Style
}

var errLengthMismatch = errors.New("values and geometries differ in length")

// PlotColumn draws p on ax and attaches a colorbar or legend. It returns
// the colorbar axes when one was created.
func PlotColumn(ax *Axes, p ColumnPlot) (*Axes, error) {
	n := len(p.Geometries)
	if p.Categorical && len(p.Codes) != n || !p.Categorical && p.Color == nil && len(p.Values) != n {
		return nil, fmt.Errorf("%w: %d geometries", errLengthMismatch, n)
	}

	if p.Color != nil {
		ax.Draw(Layer{Geometries: p.Geometries, Style: p.Style.Merge(Style{Color: p.Color})})
		return nil, nil
	}

	cm := p.Colormap
	if cm == nil {
		if p.Categorical {
			cm = colormap.Categorical
		} else {
			cm = colormap.Blues
		}
	}

	if p.Categorical {
		palette := colormap.Sample(cm, len(p.Categories))
		fills := make([]color.Color, n)
		for i, code := range p.Codes {
			if code >= 0 && code < len(palette) {
				fills[i] = palette[code]
			}
		}
		ax.Draw(Layer{Geometries: p.Geometries, Fills: fills, Style: p.Style})
		if p.Legend {
			entries := make([]LegendEntry, len(p.Categories))
			for i, c := range p.Categories {
				entries[i] = LegendEntry{Label: c, Color: palette[i]}
			}
			ax.SetLegend(&Legend{Title: p.Params.Title, Loc: p.Params.Loc, Entries: entries})
		}
		return nil, nil
	}

	vmin, vmax := valueRange(p.Values)
	span := vmax - vmin
	if span == 0 {
		span = 1
	}
	fills := make([]color.Color, n)
	for i, v := range p.Values {
		if math.IsNaN(v) {
			continue
		}
		fills[i] = cm.At((v - vmin) / span)
	}
	ax.Draw(Layer{Geometries: p.Geometries, Fills: fills, Style: p.Style})
	if !p.Legend {
		return nil, nil
	}
	cax := ax.Figure().Colorbar(ax, cm, vmin, vmax, ColorbarOptions{
		Label:       p.Params.Label,
		Orientation: p.Params.Orientation,
		Shrink:      p.Params.Shrink,
	})
	return cax, nil
}

// PlotGeometry draws a single geometry collection with a flat style.
func PlotGeometry(ax *Axes, g orb.Geometry, s Style) {
	ax.Draw(Layer{Geometries: []orb.Geometry{g}, Style: s})
}

// valueRange returns min and max ignoring NaN; an all-NaN slice yields 0, 0.
func valueRange(values []float64) (float64, float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0
	}
	return floats.Min(finite), floats.Max(finite)
}
