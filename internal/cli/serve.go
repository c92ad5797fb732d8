package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasmap-sc/spatialplot/internal/api"
	"github.com/atlasmap-sc/spatialplot/internal/cache"
	"github.com/atlasmap-sc/spatialplot/internal/config"
	"github.com/atlasmap-sc/spatialplot/internal/service"
)

func newServeCmd(root *rootOpts) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve spatial feature figures over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.setup(cmd)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	// Cache manager is shared across all datasets.
	cacheManager, err := cache.NewManager(cache.Config{
		FigureCacheSizeMB: cfg.Cache.FigureSizeMB,
		FigureTTL:         time.Duration(cfg.Cache.FigureTTLMinutes) * time.Minute,
		QueryCacheSize:    cfg.Cache.QuerySize,
	})
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer cacheManager.Close()

	datasetIDs := cfg.Data.DatasetIDs()
	registry := api.NewDatasetRegistry(cfg.Data.DefaultDataset, datasetIDs, cfg.Server.Title)
	logger.Infof("Initializing %d dataset(s), default: %s", len(datasetIDs), cfg.Data.DefaultDataset)

	for _, datasetID := range datasetIDs {
		dsCfg := cfg.Data.Datasets[datasetID]
		prog := newProgress(logger)

		loaded, err := service.LoadDataset(dsCfg)
		if err != nil {
			return fmt.Errorf("dataset %q: %w", datasetID, err)
		}
		defer loaded.Close()

		nObs, nFeat := loaded.Dataset.X.Dims()
		logger.Debug("dataset shape", "dataset", datasetID, "obs", nObs, "features", nFeat, "soma", dsCfg.SomaPath != "")

		registry.Register(datasetID, service.NewFigureService(service.FigureServiceConfig{
			DatasetID:       datasetID,
			Dataset:         loaded.Dataset,
			Resolver:        loaded.Resolver,
			Cache:           cacheManager,
			DPI:             cfg.Render.DPI,
			DefaultColormap: cfg.Render.DefaultColormap,
			Logger:          logger,
		}))
		prog.done(fmt.Sprintf("Loaded dataset %s from %s", datasetID, dsCfg.ZarrPath))
	}

	router := api.NewRouter(api.RouterConfig{
		Registry:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
		Cache:       cacheManager,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", "err", err)
	}
	logger.Info("Server stopped")
	return nil
}
