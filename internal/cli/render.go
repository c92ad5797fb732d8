package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlasmap-sc/spatialplot/internal/config"
	"github.com/atlasmap-sc/spatialplot/internal/service"
)

const defaultOutput = "spatial.png"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string
	dataset     string
	features    string
	ncol        int
	allObs      bool
	barcodeGeom string
	annotGeom   string
	color       string
	cmap        string
	categorical string
	legendLabel string
	orientation string
	figsize     []float64
	dpi         float64
}

func newRenderCmd(root *rootOpts) *cobra.Command {
	opts := renderOpts{output: defaultOutput}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render spatial feature panels to a PNG file",
		Example: `  spatialplot render --features GeneA,pct_counts_mt --annot tissue -o out.png
  spatialplot render --dataset xenium --features leiden --categorical leiden`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.setup(cmd)
			if err != nil {
				return err
			}
			return runRender(cmd, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", opts.output, "output PNG path")
	f.StringVarP(&opts.dataset, "dataset", "d", "", "dataset ID (default: data.default)")
	f.StringVarP(&opts.features, "features", "f", "", "comma-separated feature names (required)")
	f.IntVar(&opts.ncol, "ncol", 0, "panels per row (0 picks automatically)")
	f.BoolVar(&opts.allObs, "all", false, "draw observations outside the tissue too")
	f.StringVar(&opts.barcodeGeom, "geom", "", "observation geometry column to draw")
	f.StringVar(&opts.annotGeom, "annot", "", "annotation geometry to overlay")
	f.StringVar(&opts.color, "color", "", "flat fill color; disables value coloring")
	f.StringVar(&opts.cmap, "cmap", "", "colormap name")
	f.StringVar(&opts.categorical, "categorical", "", "comma-separated metadata columns to treat as categorical")
	f.StringVar(&opts.legendLabel, "label", "", "colorbar label")
	f.StringVar(&opts.orientation, "orientation", "", "colorbar orientation: vertical or horizontal")
	f.Float64SliceVar(&opts.figsize, "figsize", nil, "figure width,height in inches")
	f.Float64Var(&opts.dpi, "dpi", 0, "output resolution")
	cmd.MarkFlagRequired("features")

	return cmd
}

// request converts the flags into a figure request.
func (o renderOpts) request() *service.FigureRequest {
	tissue := !o.allObs
	return &service.FigureRequest{
		Features:    splitComma(o.features),
		NCol:        o.ncol,
		Tissue:      &tissue,
		BarcodeGeom: o.barcodeGeom,
		AnnotGeom:   o.annotGeom,
		Color:       o.color,
		Colormap:    o.cmap,
		Categorical: splitComma(o.categorical),
		Legend: service.LegendParams{
			Label:       o.legendLabel,
			Orientation: o.orientation,
		},
		FigSize: o.figsize,
		DPI:     o.dpi,
	}
}

func runRender(cmd *cobra.Command, cfg *config.Config, opts renderOpts) error {
	logger := loggerFromContext(cmd.Context())

	datasetID := opts.dataset
	if datasetID == "" {
		datasetID = cfg.Data.DefaultDataset
	}
	dsCfg, ok := cfg.Data.Datasets[datasetID]
	if !ok {
		return fmt.Errorf("unknown dataset %q (configured: %s)", datasetID, strings.Join(cfg.Data.DatasetIDs(), ", "))
	}

	prog := newProgress(logger)
	loaded, err := service.LoadDataset(dsCfg)
	if err != nil {
		return err
	}
	defer loaded.Close()
	prog.done("Loaded " + dsCfg.ZarrPath)

	svc := service.NewFigureService(service.FigureServiceConfig{
		DatasetID:       datasetID,
		Dataset:         loaded.Dataset,
		Resolver:        loaded.Resolver,
		DPI:             cfg.Render.DPI,
		DefaultColormap: cfg.Render.DefaultColormap,
		Logger:          logger,
	})

	prog = newProgress(logger)
	data, err := svc.Render(opts.request())
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	prog.done("Wrote " + opts.output)
	return nil
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
