package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/atlasmap-sc/spatialplot/internal/config"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// Values are usually injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// rootOpts holds the persistent flags shared by all commands.
type rootOpts struct {
	verbose    bool
	configPath string
}

// Execute runs the spatialplot CLI with ctx and returns an error if any
// command fails.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:          "spatialplot",
		Short:        "spatialplot draws spatial feature panels for transcriptomics datasets",
		Long:         `spatialplot renders gene expression and observation metadata as colored spot geometries on tissue coordinates, one panel per feature, with optional annotation overlays.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(fmt.Sprintf("spatialplot %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config/server.yaml", "path to configuration file")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newRenderCmd(opts))

	return root
}

// setup loads the configuration and attaches a logger to the command context.
func (o *rootOpts) setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(os.Stderr, levelFor(o.verbose, cfg.Log.Level))
	cmd.SetContext(withLogger(cmd.Context(), logger))
	charmlog.SetDefault(logger)
	return cfg, nil
}
