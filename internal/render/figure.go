// Package render provides figure rendering using fogleman/gg.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/atlasmap-sc/spatialplot/pkg/colormap"
)

// DefaultDPI converts figure inches to pixels.
const DefaultDPI = 100

// MaxFigurePixels bounds width x height of a rasterized figure.
const MaxFigurePixels = 40_000_000

// ErrFigureSize is returned for figures that are empty or exceed MaxFigurePixels.
var ErrFigureSize = errors.New("invalid figure size")

// CheckSize reports whether a figure of the given inches at dpi can be
// rasterized. A non-positive dpi means DefaultDPI, as in NewFigure.
func CheckSize(widthIn, heightIn, dpi float64) error {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	w, h := math.Round(widthIn*dpi), math.Round(heightIn*dpi)
	if !(w >= 1 && h >= 1) || w*h > MaxFigurePixels {
		return fmt.Errorf("%w: %gx%g pixels (limit %d)", ErrFigureSize, w, h, MaxFigurePixels)
	}
	return nil
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 256*1024))
	},
}

// SubplotOptions controls grid placement in figure fractions.
type SubplotOptions struct {
	Left, Right, Top, Bottom float64
	WSpace, HSpace           float64 // padding as a fraction of the cell size
}

// DefaultSubplotOptions mirrors the usual single-figure margins.
func DefaultSubplotOptions() SubplotOptions {
	return SubplotOptions{
		Left:   0.04,
		Right:  0.96,
		Top:    0.06,
		Bottom: 0.96,
		WSpace: 0.1,
		HSpace: 0.15,
	}
}

// ColorbarOptions controls a colorbar axes created next to a parent axes.
type ColorbarOptions struct {
	Label       string
	Orientation Orientation
	Shrink      float64
}

// Figure owns a set of axes and rasterizes them.
type Figure struct {
	width, height int
	axes          []*Axes
}

// NewFigure creates a figure of the given size in inches.
func NewFigure(widthIn, heightIn, dpi float64) *Figure {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Figure{
		width:  int(math.Round(widthIn * dpi)),
		height: int(math.Round(heightIn * dpi)),
	}
}

// Size returns the figure size in pixels.
func (f *Figure) Size() (int, int) { return f.width, f.height }

// Axes returns every axes in creation order, colorbars included.
func (f *Figure) Axes() []*Axes { return f.axes }

// AddAxes creates an axes at r.
func (f *Figure) AddAxes(r Rect) *Axes {
	ax := &Axes{fig: f, rect: r}
	f.axes = append(f.axes, ax)
	return ax
}

// Subplots creates an nrows x ncols grid of axes and returns them in
// row-major order.
func (f *Figure) Subplots(nrows, ncols int, opts SubplotOptions) []*Axes {
	cellW := (opts.Right - opts.Left) / float64(ncols)
	cellH := (opts.Bottom - opts.Top) / float64(nrows)
	padX := cellW * opts.WSpace / 2
	padY := cellH * opts.HSpace / 2

	out := make([]*Axes, 0, nrows*ncols)
	for r := 0; r < nrows; r++ {
		for c := 0; c < ncols; c++ {
			x0 := opts.Left + float64(c)*cellW
			y0 := opts.Top + float64(r)*cellH
			out = append(out, f.AddAxes(Rect{
				X0: x0 + padX,
				Y0: y0 + padY,
				X1: x0 + cellW - padX,
				Y1: y0 + cellH - padY,
			}))
		}
	}
	return out
}

// Colorbar steals space from parent and adds a colorbar axes for cm over
// [vmin, vmax]. The label is placed on the long axis: the y label for
// vertical bars, the x label for horizontal ones.
func (f *Figure) Colorbar(parent *Axes, cm colormap.Colormap, vmin, vmax float64, opts ColorbarOptions) *Axes {
	shrink := opts.Shrink
	if shrink <= 0 || shrink > 1 {
		shrink = 1
	}
	orientation := opts.Orientation
	if orientation == "" {
		orientation = Vertical
	}

	pr := parent.rect
	var cr Rect
	if orientation == Horizontal {
		h := pr.Height()
		parent.rect.Y1 = pr.Y0 + h*0.85
		thick := h * 0.05
		length := pr.Width() * shrink
		x0 := pr.X0 + (pr.Width()-length)/2
		y0 := parent.rect.Y1 + h*0.04
		cr = Rect{X0: x0, Y0: y0, X1: x0 + length, Y1: y0 + thick}
	} else {
		w := pr.Width()
		parent.rect.X1 = pr.X0 + w*0.85
		thick := w * 0.04
		length := pr.Height() * shrink
		y0 := pr.Y0 + (pr.Height()-length)/2
		x0 := parent.rect.X1 + w*0.03
		cr = Rect{X0: x0, Y0: y0, X1: x0 + thick, Y1: y0 + length}
	}

	cax := f.AddAxes(cr)
	cax.label = ColorbarLabel
	cax.colorbar = &colorbarSpec{cmap: cm, vmin: vmin, vmax: vmax, orientation: orientation}
	if orientation == Horizontal {
		cax.xlabel = opts.Label
	} else {
		cax.ylabel = opts.Label
	}
	return cax
}

// Render rasterizes the figure.
func (f *Figure) Render() image.Image {
	c := newCanvas(f.width, f.height)
	for _, ax := range f.axes {
		if !ax.Visible() {
			continue
		}
		if ax.IsColorbar() {
			c.drawColorbar(ax)
			continue
		}
		c.drawAxes(ax)
	}
	return c.dc.Image()
}

// EncodePNG writes the rendered figure as PNG.
func (f *Figure) EncodePNG(w io.Writer) error {
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	return encoder.Encode(w, f.Render())
}

// PNG renders the figure and returns the encoded bytes.
func (f *Figure) PNG() ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if err := f.EncodePNG(buf); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
