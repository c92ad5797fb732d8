// Package colormap provides color schemes for visualization.
package colormap

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned when a color specification cannot be parsed.
var ErrUnknownColor = errors.New("unknown color")

// Colormap maps normalized values [0, 1] to colors.
type Colormap interface {
	At(t float64) color.Color
	AtIndex(i int) color.Color
}

// LinearColormap is a linear interpolation colormap.
type LinearColormap struct {
	colors []color.RGBA
}

// At returns the color at position t (0-1).
func (c LinearColormap) At(t float64) color.Color {
	if t <= 0 || math.IsNaN(t) {
		return c.colors[0]
	}
	if t >= 1 {
		return c.colors[len(c.colors)-1]
	}

	idx := t * float64(len(c.colors)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(c.colors) {
		upper = len(c.colors) - 1
	}

	frac := idx - float64(lower)
	return interpolate(c.colors[lower], c.colors[upper], frac)
}

// AtIndex returns color at index i (wraps around).
func (c LinearColormap) AtIndex(i int) color.Color {
	return c.colors[i%len(c.colors)]
}

// Reversed returns the colormap with its anchors in reverse order.
func (c LinearColormap) Reversed() LinearColormap {
	out := make([]color.RGBA, len(c.colors))
	for i, col := range c.colors {
		out[len(c.colors)-1-i] = col
	}
	return LinearColormap{colors: out}
}

func interpolate(c1, c2 color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c1.R) + t*(float64(c2.R)-float64(c1.R))),
		G: uint8(float64(c1.G) + t*(float64(c2.G)-float64(c1.G))),
		B: uint8(float64(c1.B) + t*(float64(c2.B)-float64(c1.B))),
		A: 255,
	}
}

// Blues colormap (matplotlib Blues)
var Blues = LinearColormap{
	colors: []color.RGBA{
		{247, 251, 255, 255},
		{222, 235, 247, 255},
		{198, 219, 239, 255},
		{158, 202, 225, 255},
		{107, 174, 214, 255},
		{66, 146, 198, 255},
		{33, 113, 181, 255},
		{8, 81, 156, 255},
		{8, 48, 107, 255},
	},
}

// Reds colormap (matplotlib Reds)
var Reds = LinearColormap{
	colors: []color.RGBA{
		{255, 245, 240, 255},
		{254, 224, 210, 255},
		{252, 187, 161, 255},
		{252, 146, 114, 255},
		{251, 106, 74, 255},
		{239, 59, 44, 255},
		{203, 24, 29, 255},
		{165, 15, 21, 255},
		{103, 0, 13, 255},
	},
}

// Viridis colormap (matplotlib viridis)
var Viridis = LinearColormap{
	colors: []color.RGBA{
		{68, 1, 84, 255},
		{72, 35, 116, 255},
		{64, 67, 135, 255},
		{52, 94, 141, 255},
		{41, 120, 142, 255},
		{32, 144, 140, 255},
		{34, 167, 132, 255},
		{68, 190, 112, 255},
		{121, 209, 81, 255},
		{189, 222, 38, 255},
		{253, 231, 37, 255},
	},
}

// Plasma colormap
var Plasma = LinearColormap{
	colors: []color.RGBA{
		{13, 8, 135, 255},
		{75, 3, 161, 255},
		{125, 3, 168, 255},
		{168, 34, 150, 255},
		{203, 70, 121, 255},
		{229, 107, 93, 255},
		{248, 148, 65, 255},
		{253, 195, 40, 255},
		{240, 249, 33, 255},
	},
}

// Inferno colormap
var Inferno = LinearColormap{
	colors: []color.RGBA{
		{0, 0, 4, 255},
		{40, 11, 84, 255},
		{101, 21, 110, 255},
		{159, 42, 99, 255},
		{212, 72, 66, 255},
		{245, 125, 21, 255},
		{250, 193, 39, 255},
		{252, 255, 164, 255},
	},
}

// Magma colormap
var Magma = LinearColormap{
	colors: []color.RGBA{
		{0, 0, 4, 255},
		{28, 16, 68, 255},
		{79, 18, 123, 255},
		{129, 37, 129, 255},
		{181, 54, 122, 255},
		{229, 80, 100, 255},
		{251, 135, 97, 255},
		{254, 194, 135, 255},
		{252, 253, 191, 255},
	},
}

// Seurat colormap (lightgrey to red, as in Seurat's FeaturePlot)
var Seurat = LinearColormap{
	colors: []color.RGBA{
		{211, 211, 211, 255},
		{255, 0, 0, 255},
	},
}

// Roma is the diverging scientific colormap by Crameri, brown through pale yellow to blue.
var Roma = LinearColormap{colors: mustHexColors(
	"#7E1900", "#9A5417", "#B3872C", "#CEBE4E", "#E5E592", "#D6ECC5",
	"#96E1D9", "#59B9D2", "#418CBF", "#3061AC", "#1F3A9B", "#1A3399",
)}

// CategoricalColormap provides distinct colors for categories.
type CategoricalColormap struct {
	colors []color.RGBA
}

// At returns color at position t.
func (c CategoricalColormap) At(t float64) color.Color {
	idx := int(t * float64(len(c.colors)))
	if idx >= len(c.colors) {
		idx = len(c.colors) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return c.colors[idx]
}

// AtIndex returns color at index.
func (c CategoricalColormap) AtIndex(i int) color.Color {
	return c.colors[i%len(c.colors)]
}

// Len returns the number of distinct colors in the palette.
func (c CategoricalColormap) Len() int { return len(c.colors) }

// Categorical colormap with 20 distinct colors
var Categorical = CategoricalColormap{
	colors: []color.RGBA{
		{31, 119, 180, 255},  // Blue
		{255, 127, 14, 255},  // Orange
		{44, 160, 44, 255},   // Green
		{214, 39, 40, 255},   // Red
		{148, 103, 189, 255}, // Purple
		{140, 86, 75, 255},   // Brown
		{227, 119, 194, 255}, // Pink
		{127, 127, 127, 255}, // Gray
		{188, 189, 34, 255},  // Olive
		{23, 190, 207, 255},  // Cyan
		{174, 199, 232, 255}, // Light blue
		{255, 187, 120, 255}, // Light orange
		{152, 223, 138, 255}, // Light green
		{255, 152, 150, 255}, // Light red
		{197, 176, 213, 255}, // Light purple
		{196, 156, 148, 255}, // Light brown
		{247, 182, 210, 255}, // Light pink
		{199, 199, 199, 255}, // Light gray
		{219, 219, 141, 255}, // Light olive
		{158, 218, 229, 255}, // Light cyan
	},
}

// Tab10 is the first half of the categorical palette (matplotlib tab10).
var Tab10 = CategoricalColormap{colors: Categorical.colors[:10]}

var registry = map[string]Colormap{
	"blues":       Blues,
	"reds":        Reds,
	"viridis":     Viridis,
	"plasma":      Plasma,
	"inferno":     Inferno,
	"magma":       Magma,
	"seurat":      Seurat,
	"roma":        Roma,
	"categorical": Categorical,
	"tab20":       Categorical,
	"tab10":       Tab10,
}

// Lookup returns the colormap registered under name. Names are case-insensitive;
// a "_r" suffix selects the reversed version of a continuous colormap.
func Lookup(name string) (Colormap, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cm, ok := registry[key]; ok {
		return cm, true
	}
	if base, found := strings.CutSuffix(key, "_r"); found {
		if lin, ok := registry[base].(LinearColormap); ok {
			return lin.Reversed(), true
		}
	}
	return nil, false
}

// Names returns the registered colormap names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsCategorical reports whether cm is a discrete palette.
func IsCategorical(cm Colormap) bool {
	_, ok := cm.(CategoricalColormap)
	return ok
}

// Sample returns n colors for n categories. Discrete palettes are indexed
// directly; continuous colormaps are sampled at evenly spaced positions.
func Sample(cm Colormap, n int) []color.Color {
	out := make([]color.Color, n)
	if IsCategorical(cm) {
		for i := range out {
			out[i] = cm.AtIndex(i)
		}
		return out
	}
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = cm.At(t)
	}
	return out
}

// ParseColor parses a "#rrggbb" hex string or an SVG color name such as "blue".
func ParseColor(s string) (color.RGBA, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(spec, "#") {
		c, err := colorful.Hex(spec)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
		}
		r, g, b := c.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil
	}
	if c, ok := colornames.Map[spec]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// Hex formats c as "#rrggbb".
func Hex(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

func mustHexColors(hex ...string) []color.RGBA {
	out := make([]color.RGBA, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("colormap: bad anchor %q: %v", h, err))
		}
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}
