package render

import (
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
)

var (
	panelFace  = color.RGBA{235, 235, 235, 255}
	panelFrame = color.RGBA{200, 200, 200, 255}
	textColor  = color.RGBA{40, 40, 40, 255}
)

type canvas struct {
	dc   *gg.Context
	w, h float64
}

func newCanvas(width, height int) *canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	return &canvas{dc: dc, w: float64(width), h: float64(height)}
}

func (c *canvas) pixels(r Rect) (x0, y0, x1, y1 float64) {
	return r.X0 * c.w, r.Y0 * c.h, r.X1 * c.w, r.Y1 * c.h
}

// transform maps data coordinates into the pixel box with equal aspect and
// the y axis pointing up.
type transform struct {
	minX, maxY float64
	scale      float64
	ox, oy     float64
}

func (t transform) apply(p orb.Point) (float64, float64) {
	return t.ox + (p[0]-t.minX)*t.scale, t.oy + (t.maxY-p[1])*t.scale
}

func fitTransform(b orb.Bound, x0, y0, x1, y1 float64) transform {
	const pad = 0.03
	bw := b.Max[0] - b.Min[0]
	bh := b.Max[1] - b.Min[1]
	if bw <= 0 {
		bw = 1
	}
	if bh <= 0 {
		bh = 1
	}
	pw := (x1 - x0) * (1 - 2*pad)
	ph := (y1 - y0) * (1 - 2*pad)
	scale := math.Min(pw/bw, ph/bh)
	return transform{
		minX:  b.Min[0],
		maxY:  b.Max[1],
		scale: scale,
		ox:    x0 + (x1-x0-bw*scale)/2,
		oy:    y0 + (y1-y0-bh*scale)/2,
	}
}

func (c *canvas) drawAxes(ax *Axes) {
	dc := c.dc
	x0, y0, x1, y1 := c.pixels(ax.rect)

	dc.SetColor(panelFace)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Fill()

	if b, ok := ax.bounds(); ok {
		t := fitTransform(b, x0, y0, x1, y1)
		dc.Push()
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Clip()
		for _, l := range ax.layers {
			c.drawLayer(l, t)
		}
		dc.ResetClip()
		dc.Pop()
	}

	dc.SetColor(panelFrame)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()

	c.drawTitle(ax.title, ax.titleAlign, x0, y0, x1)
	if ax.legend != nil {
		c.drawLegend(ax.legend, x1, y0)
	}
}

func (c *canvas) drawLayer(l Layer, t transform) {
	for i, g := range l.Geometries {
		if g == nil {
			continue
		}
		fill := l.Style.Color
		if l.Fills != nil && i < len(l.Fills) && l.Fills[i] != nil {
			fill = l.Fills[i]
		}
		c.drawGeometry(g, fill, l.Style, t)
	}
}

func (c *canvas) drawGeometry(g orb.Geometry, fill color.Color, s Style, t transform) {
	dc := c.dc
	switch geom := g.(type) {
	case orb.Point:
		r := s.MarkerSize
		if r <= 0 {
			r = 2
		}
		x, y := t.apply(geom)
		dc.DrawCircle(x, y, r)
		c.paint(fill, s)
	case orb.MultiPoint:
		for _, p := range geom {
			c.drawGeometry(p, fill, s, t)
		}
	case orb.LineString:
		c.tracePath(geom, t, false)
		c.stroke(fill, s)
	case orb.MultiLineString:
		for _, ls := range geom {
			c.drawGeometry(ls, fill, s, t)
		}
	case orb.Ring:
		c.tracePath(geom, t, true)
		c.paint(fill, s)
	case orb.Polygon:
		for _, ring := range geom {
			c.tracePath(ring, t, true)
		}
		c.paint(fill, s)
	case orb.MultiPolygon:
		for _, p := range geom {
			c.drawGeometry(p, fill, s, t)
		}
	case orb.Collection:
		for _, sub := range geom {
			c.drawGeometry(sub, fill, s, t)
		}
	case orb.Bound:
		c.drawGeometry(geom.ToPolygon(), fill, s, t)
	}
}

func (c *canvas) tracePath(pts []orb.Point, t transform, closed bool) {
	if len(pts) == 0 {
		return
	}
	dc := c.dc
	dc.NewSubPath()
	x, y := t.apply(pts[0])
	dc.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = t.apply(p)
		dc.LineTo(x, y)
	}
	if closed {
		dc.ClosePath()
	}
}

func (c *canvas) paint(fill color.Color, s Style) {
	dc := c.dc
	dc.SetFillRuleEvenOdd()
	if fill != nil {
		dc.SetColor(withAlpha(fill, s.Alpha))
		if s.EdgeColor != nil {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if s.EdgeColor != nil {
		c.stroke(s.EdgeColor, s)
		return
	}
	dc.ClearPath()
}

func (c *canvas) stroke(col color.Color, s Style) {
	dc := c.dc
	if col == nil {
		col = textColor
	}
	lw := s.LineWidth
	if lw <= 0 {
		lw = 1
	}
	dc.SetLineWidth(lw)
	dc.SetColor(withAlpha(col, s.Alpha))
	dc.Stroke()
}

func (c *canvas) drawTitle(title string, align Align, x0, y0, x1 float64) {
	if title == "" {
		return
	}
	dc := c.dc
	dc.SetColor(textColor)
	y := y0 - 4
	switch align {
	case AlignLeft:
		dc.DrawStringAnchored(title, x0, y, 0, 0)
	case AlignRight:
		dc.DrawStringAnchored(title, x1, y, 1, 0)
	default:
		dc.DrawStringAnchored(title, (x0+x1)/2, y, 0.5, 0)
	}
}

func (c *canvas) drawLegend(l *Legend, x1, y0 float64) {
	dc := c.dc
	const swatch = 10.0
	const lineH = 14.0
	x := x1 + 6
	y := y0 + lineH
	if l.Title != "" {
		dc.SetColor(textColor)
		dc.DrawStringAnchored(l.Title, x, y, 0, 0)
		y += lineH
	}
	for _, e := range l.Entries {
		dc.SetColor(e.Color)
		dc.DrawRectangle(x, y-swatch, swatch, swatch)
		dc.Fill()
		dc.SetColor(textColor)
		dc.DrawStringAnchored(e.Label, x+swatch+4, y, 0, 0)
		y += lineH
	}
}

func (c *canvas) drawColorbar(ax *Axes) {
	dc := c.dc
	spec := ax.colorbar
	x0, y0, x1, y1 := c.pixels(ax.rect)
	if spec == nil {
		return
	}

	if spec.orientation == Horizontal {
		for px := x0; px < x1; px++ {
			dc.SetColor(spec.cmap.At((px - x0) / math.Max(x1-x0, 1)))
			dc.DrawRectangle(px, y0, 1, y1-y0)
			dc.Fill()
		}
		dc.SetColor(textColor)
		dc.DrawStringAnchored(formatTick(spec.vmin), x0, y1+2, 0, 1)
		dc.DrawStringAnchored(formatTick(spec.vmax), x1, y1+2, 1, 1)
		if ax.xlabel != "" {
			dc.DrawStringAnchored(ax.xlabel, (x0+x1)/2, y1+16, 0.5, 1)
		}
	} else {
		for py := y0; py < y1; py++ {
			// top of the bar is vmax
			dc.SetColor(spec.cmap.At((y1 - py) / math.Max(y1-y0, 1)))
			dc.DrawRectangle(x0, py, x1-x0, 1)
			dc.Fill()
		}
		dc.SetColor(textColor)
		dc.DrawStringAnchored(formatTick(spec.vmax), x1+3, y0, 0, 0.5)
		dc.DrawStringAnchored(formatTick(spec.vmin), x1+3, y1, 0, 0.5)
		if ax.ylabel != "" {
			cx, cy := x1+40, (y0+y1)/2
			dc.Push()
			dc.RotateAbout(gg.Radians(-90), cx, cy)
			dc.DrawStringAnchored(ax.ylabel, cx, cy, 0.5, 0.5)
			dc.Pop()
		}
	}

	dc.SetColor(panelFrame)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()

	c.drawTitle(ax.title, ax.titleAlign, x0, y0, x1)
}

func withAlpha(c color.Color, alpha float64) color.Color {
	if alpha <= 0 || alpha >= 1 {
		return c
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return c
	}
	// un-premultiply to 8-bit, then apply alpha
	return color.NRGBA{
		R: uint8(r * 0xff / a),
		G: uint8(g * 0xff / a),
		B: uint8(b * 0xff / a),
		A: uint8(float64(a>>8) * alpha),
	}
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}
