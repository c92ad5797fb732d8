package render

import (
	"image/color"

	"github.com/atlasmap-sc/spatialplot/pkg/colormap"
	"github.com/paulmach/orb"
)

// ColorbarLabel is the label carried by every colorbar axes.
const ColorbarLabel = "<colorbar>"

// Align is a horizontal text alignment.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

// Orientation of a colorbar.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Rect is an axes position in figure fractions with the origin at the top-left.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the rect width.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the rect height.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Style controls how geometries are filled and stroked. Zero fields mean
// "not set": Alpha 0 is drawn opaque.
type Style struct {
	Color      color.Color
	EdgeColor  color.Color
	Alpha      float64
	LineWidth  float64
	MarkerSize float64
}

// Merge returns s with every field that is set in o taking precedence.
func (s Style) Merge(o Style) Style {
	if o.Color != nil {
		s.Color = o.Color
	}
	if o.EdgeColor != nil {
		s.EdgeColor = o.EdgeColor
	}
	if o.Alpha != 0 {
		s.Alpha = o.Alpha
	}
	if o.LineWidth != 0 {
		s.LineWidth = o.LineWidth
	}
	if o.MarkerSize != 0 {
		s.MarkerSize = o.MarkerSize
	}
	return s
}

// IsZero reports whether no field is set.
func (s Style) IsZero() bool {
	return s.Color == nil && s.EdgeColor == nil && s.Alpha == 0 && s.LineWidth == 0 && s.MarkerSize == 0
}

// Layer is one batch of geometries drawn on an axes. Fills[i] colors
// Geometries[i]; a nil Fills slice uses Style.Color for every geometry.
type Layer struct {
	Geometries []orb.Geometry
	Fills      []color.Color
	Style      Style
}

// LegendEntry is one swatch of a discrete legend.
type LegendEntry struct {
	Label string
	Color color.Color
}

// Legend is a discrete legend attached to an axes.
type Legend struct {
	Title   string
	Loc     string
	Entries []LegendEntry
}

type colorbarSpec struct {
	cmap        colormap.Colormap
	vmin, vmax  float64
	orientation Orientation
}

// Axes is one drawing surface inside a figure.
type Axes struct {
	fig        *Figure
	rect       Rect
	label      string
	title      string
	titleAlign Align
	xlabel     string
	ylabel     string
	axisOff    bool
	layers     []Layer
	legend     *Legend
	colorbar   *colorbarSpec
}

// Figure returns the owning figure.
func (a *Axes) Figure() *Figure { return a.fig }

// Rect returns the axes position.
func (a *Axes) Rect() Rect { return a.rect }

// SetRect moves the axes.
func (a *Axes) SetRect(r Rect) { a.rect = r }

// Label returns the axes label, ColorbarLabel for colorbars.
func (a *Axes) Label() string { return a.label }

// IsColorbar reports whether the axes is a colorbar.
func (a *Axes) IsColorbar() bool { return a.label == ColorbarLabel }

// Title returns the title text and its alignment.
func (a *Axes) Title() (string, Align) { return a.title, a.titleAlign }

// SetTitle sets the title text and alignment.
func (a *Axes) SetTitle(s string, align Align) {
	a.title = s
	a.titleAlign = align
}

// XLabel returns the x axis label.
func (a *Axes) XLabel() string { return a.xlabel }

// SetXLabel sets the x axis label.
func (a *Axes) SetXLabel(s string) { a.xlabel = s }

// YLabel returns the y axis label.
func (a *Axes) YLabel() string { return a.ylabel }

// SetYLabel sets the y axis label.
func (a *Axes) SetYLabel(s string) { a.ylabel = s }

// AxisOff hides the axes entirely.
func (a *Axes) AxisOff() { a.axisOff = true }

// Visible reports whether the axes is drawn.
func (a *Axes) Visible() bool { return !a.axisOff }

// Draw appends a geometry layer. Later layers are painted on top.
func (a *Axes) Draw(l Layer) { a.layers = append(a.layers, l) }

// Layers returns the recorded layers in paint order.
func (a *Axes) Layers() []Layer { return a.layers }

// SetLegend attaches a discrete legend.
func (a *Axes) SetLegend(l *Legend) { a.legend = l }

// Legend returns the discrete legend, or nil.
func (a *Axes) Legend() *Legend { return a.legend }

// ColorbarRange returns the value range of a colorbar axes.
func (a *Axes) ColorbarRange() (vmin, vmax float64, ok bool) {
	if a.colorbar == nil {
		return 0, 0, false
	}
	return a.colorbar.vmin, a.colorbar.vmax, true
}

// ColorbarOrientation returns the orientation of a colorbar axes.
func (a *Axes) ColorbarOrientation() Orientation {
	if a.colorbar == nil {
		return ""
	}
	return a.colorbar.orientation
}

// bounds returns the union of all layer geometry bounds.
func (a *Axes) bounds() (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, l := range a.layers {
		for _, g := range l.Geometries {
			if g == nil {
				continue
			}
			gb := g.Bound()
			if !found {
				b = gb
				found = true
				continue
			}
			b = b.Union(gb)
		}
	}
	return b, found
}
