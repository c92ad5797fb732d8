package service

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/atlasmap-sc/spatialplot/internal/plot"
	"github.com/atlasmap-sc/spatialplot/internal/render"
	"github.com/atlasmap-sc/spatialplot/pkg/colormap"
)

// FigureRequest is a figure request as it arrives over HTTP or the CLI.
// Features may be a single name or a list of names.
type FigureRequest struct {
	Features    any          `json:"features"`
	NCol        int          `json:"ncol,omitempty"`
	Tissue      *bool        `json:"tissue,omitempty"`
	BarcodeGeom string       `json:"barcode_geom,omitempty"`
	AnnotGeom   string       `json:"annot_geom,omitempty"`
	Color       string       `json:"color,omitempty"`
	Colormap    string       `json:"cmap,omitempty"`
	Categorical []string     `json:"categorical,omitempty"`
	Legend      LegendParams `json:"legend"`
	GeomStyle   StyleParams  `json:"geom_style"`
	AnnotStyle  StyleParams  `json:"annot_style"`
	Draw        StyleParams  `json:"draw"`
	FigSize     []float64    `json:"figsize,omitempty"`
	DPI         float64      `json:"dpi,omitempty"`
}

// LegendParams overrides the colorbar or legend defaults.
type LegendParams struct {
	Label       string  `json:"label,omitempty"`
	Title       string  `json:"title,omitempty"`
	Orientation string  `json:"orientation,omitempty"`
	Shrink      float64 `json:"shrink,omitempty"`
	Loc         string  `json:"loc,omitempty"`
}

// StyleParams is a drawing style with colors given as names or hex strings.
type StyleParams struct {
	Color     string  `json:"color,omitempty"`
	EdgeColor string  `json:"edgecolor,omitempty"`
	Alpha     float64 `json:"alpha,omitempty"`
	LineWidth float64 `json:"linewidth,omitempty"`
}

func (p StyleParams) style() (render.Style, error) {
	s := render.Style{Alpha: p.Alpha, LineWidth: p.LineWidth}
	var err error
	if s.Color, err = parseOptionalColor(p.Color); err != nil {
		return render.Style{}, err
	}
	if s.EdgeColor, err = parseOptionalColor(p.EdgeColor); err != nil {
		return render.Style{}, err
	}
	return s, nil
}

func (p StyleParams) key() string {
	return fmt.Sprintf("%s|%s|%g|%g", p.Color, p.EdgeColor, p.Alpha, p.LineWidth)
}

func parseOptionalColor(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := colormap.ParseColor(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plot.ErrInvalidInput, err)
	}
	return c, nil
}

// options converts the request into plot options. defaultCmap applies when
// the request names no colormap.
func (r *FigureRequest) options(defaultCmap string, dpi float64) (plot.Options, error) {
	opts := plot.Options{
		NCol:        r.NCol,
		BarcodeGeom: r.BarcodeGeom,
		AnnotGeom:   r.AnnotGeom,
		Colormap:    r.Colormap,
		Categorical: r.Categorical,
		Legend: render.LegendParams{
			Label:  r.Legend.Label,
			Title:  r.Legend.Title,
			Shrink: r.Legend.Shrink,
			Loc:    r.Legend.Loc,
		},
		Subplot: plot.SubplotOptions{DPI: dpi},
	}
	if opts.Colormap == "" {
		opts.Colormap = defaultCmap
	}
	if r.Tissue != nil && !*r.Tissue {
		opts.AllObservations = true
	}
	if r.DPI > 0 {
		opts.Subplot.DPI = r.DPI
	}

	switch o := render.Orientation(strings.ToLower(r.Legend.Orientation)); o {
	case "", render.Vertical, render.Horizontal:
		opts.Legend.Orientation = o
	default:
		return plot.Options{}, fmt.Errorf("%w: orientation must be vertical or horizontal, got %q", plot.ErrInvalidInput, r.Legend.Orientation)
	}

	switch len(r.FigSize) {
	case 0:
	case 2:
		if r.FigSize[0] <= 0 || r.FigSize[1] <= 0 {
			return plot.Options{}, fmt.Errorf("%w: figsize must be positive", plot.ErrInvalidInput)
		}
		opts.Subplot.FigSize = [2]float64{r.FigSize[0], r.FigSize[1]}
	default:
		return plot.Options{}, fmt.Errorf("%w: figsize needs width and height", plot.ErrInvalidInput)
	}
	size := opts.Subplot.FigSize
	if size == ([2]float64{}) {
		size = plot.DefaultFigSize
	}
	if err := render.CheckSize(size[0], size[1], opts.Subplot.DPI); err != nil {
		return plot.Options{}, fmt.Errorf("%w: %w", plot.ErrInvalidInput, err)
	}

	var err error
	if opts.Color, err = parseOptionalColor(r.Color); err != nil {
		return plot.Options{}, err
	}
	if opts.GeomStyle, err = r.GeomStyle.style(); err != nil {
		return plot.Options{}, err
	}
	if opts.AnnotStyle, err = r.AnnotStyle.style(); err != nil {
		return plot.Options{}, err
	}
	if opts.Draw, err = r.Draw.style(); err != nil {
		return plot.Options{}, err
	}
	return opts, nil
}

// params flattens everything but the feature list into cache-key parameters.
func (r *FigureRequest) params() map[string]string {
	p := map[string]string{
		"ncol":   strconv.Itoa(r.NCol),
		"geom":   r.BarcodeGeom,
		"annot":  r.AnnotGeom,
		"color":  r.Color,
		"cmap":   r.Colormap,
		"legend": fmt.Sprintf("%+v", r.Legend),
		"gstyle": r.GeomStyle.key(),
		"astyle": r.AnnotStyle.key(),
		"draw":   r.Draw.key(),
		"fig":    fmt.Sprint(r.FigSize),
		"dpi":    strconv.FormatFloat(r.DPI, 'g', -1, 64),
	}
	if r.Tissue != nil {
		p["tissue"] = strconv.FormatBool(*r.Tissue)
	}
	if len(r.Categorical) > 0 {
		cats := append([]string(nil), r.Categorical...)
		sort.Strings(cats)
		p["categorical"] = strings.Join(cats, ",")
	}
	return p
}
