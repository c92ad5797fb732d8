package plot

import "github.com/atlasmap-sc/spatialplot/internal/render"

// NormalizeColorbars moves each colorbar's y-axis label into a left-aligned
// title above the bar and clears the label. Colorbars without a y label are
// left alone, so running it twice changes nothing.
func NormalizeColorbars(fig *render.Figure) {
	for _, ax := range fig.Axes() {
		if !ax.IsColorbar() {
			continue
		}
		label := ax.YLabel()
		if label == "" {
			continue
		}
		ax.SetTitle(label, render.AlignLeft)
		ax.SetYLabel("")
	}
}
