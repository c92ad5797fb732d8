package plot

import (
	"fmt"
	"image/color"

	"github.com/atlasmap-sc/spatialplot/internal/dataset"
	"github.com/atlasmap-sc/spatialplot/internal/render"
)

// DefaultAnnotationStyle is used when no annotation style is given.
var DefaultAnnotationStyle = render.Style{
	Color: color.RGBA{R: 0, G: 0, B: 255, A: 255},
	Alpha: 0.2,
}

// Annotate draws the named annotation geometry over ax. A zero style selects
// DefaultAnnotationStyle; draw is layered on top of either.
func Annotate(ds *dataset.Dataset, ax *render.Axes, name string, style, draw render.Style) error {
	g, ok := ds.Spatial.Geom[name]
	if !ok || g == nil {
		return fmt.Errorf("%w: %q (available: %v)", ErrUnknownAnnotation, name, ds.Spatial.AnnotationNames())
	}
	if style.IsZero() {
		style = DefaultAnnotationStyle
	}
	render.PlotGeometry(ax, g, style.Merge(draw))
	return nil
}
