// Package service provides business logic for the figure server.
package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/atlasmap-sc/spatialplot/internal/cache"
	"github.com/atlasmap-sc/spatialplot/internal/dataset"
	"github.com/atlasmap-sc/spatialplot/internal/plot"
	"github.com/atlasmap-sc/spatialplot/internal/spatial"
)

// FigureServiceConfig contains figure service configuration.
type FigureServiceConfig struct {
	DatasetID       string
	Dataset         *dataset.Dataset
	Resolver        spatial.Resolver
	Cache           *cache.Manager
	DPI             float64
	DefaultColormap string
	Logger          *log.Logger
}

// FigureService renders spatial feature figures for one dataset.
type FigureService struct {
	datasetID   string
	ds          *dataset.Dataset
	resolver    spatial.Resolver
	cache       *cache.Manager
	dpi         float64
	defaultCmap string
	logger      *log.Logger

	// Geometry is resolved once; the dataset is read-only afterwards.
	geomOnce sync.Once
	geomErr  error
}

// NewFigureService creates a new figure service.
func NewFigureService(cfg FigureServiceConfig) *FigureService {
	datasetID := cfg.DatasetID
	if datasetID == "" {
		datasetID = "default"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &FigureService{
		datasetID:   datasetID,
		ds:          cfg.Dataset,
		resolver:    cfg.Resolver,
		cache:       cfg.Cache,
		dpi:         cfg.DPI,
		defaultCmap: cfg.DefaultColormap,
		logger:      logger.With("dataset", datasetID),
	}
}

// DatasetID returns the dataset this service renders.
func (s *FigureService) DatasetID() string { return s.datasetID }

func (s *FigureService) ensureGeometry() error {
	s.geomOnce.Do(func() {
		s.geomErr = plot.EnsureGeometry(s.ds, s.resolver)
		if s.geomErr == nil {
			s.logger.Debug("resolved geometry", "active", s.ds.Obs.ActiveGeometryName())
		}
	})
	return s.geomErr
}

// Render draws the requested figure and returns it PNG-encoded. Identical
// requests are served from the figure cache.
func (s *FigureService) Render(req *FigureRequest) ([]byte, error) {
	features, err := plot.NormalizeFeatures(req.Features)
	if err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = cache.FigureKey(s.datasetID, features, req.params())
		if data, ok := s.cache.GetFigure(key); ok {
			s.logger.Debug("figure cache hit", "features", features)
			return data, nil
		}
	}

	opts, err := req.options(s.defaultCmap, s.dpi)
	if err != nil {
		return nil, err
	}
	if err := s.ensureGeometry(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := plot.SpatialFeatures(s.ds, features, opts)
	if err != nil {
		return nil, err
	}
	data, err := res.Figure.PNG()
	if err != nil {
		return nil, fmt.Errorf("encode figure: %w", err)
	}
	s.logger.Debug("rendered figure", "features", features, "panels", len(res.Panels), "bytes", len(data), "elapsed", time.Since(start).Round(time.Millisecond))

	if s.cache != nil {
		if err := s.cache.SetFigure(key, data); err != nil {
			s.logger.Warn("figure not cached", "err", err)
		}
	}
	return data, nil
}

// ObsColumnInfo describes one observation column.
type ObsColumnInfo struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Categories []string `json:"categories,omitempty"`
}

// Catalog lists what can be drawn from a dataset.
type Catalog struct {
	Dataset         string          `json:"dataset"`
	NObs            int             `json:"n_obs"`
	Features        []string        `json:"features"`
	ObsColumns      []ObsColumnInfo `json:"obs_columns"`
	GeometryColumns []string        `json:"geometry_columns"`
	Annotations     []string        `json:"annotations"`
}

// Catalog returns the dataset's features, metadata columns, geometry
// columns and annotation layers.
func (s *FigureService) Catalog() (*Catalog, error) {
	if err := s.ensureGeometry(); err != nil {
		return nil, err
	}

	cols := make([]ObsColumnInfo, 0, len(s.ds.Obs.Columns()))
	for _, name := range s.ds.Obs.Columns() {
		c, _ := s.ds.Obs.Column(name)
		cols = append(cols, ObsColumnInfo{Name: name, Kind: c.Kind.String(), Categories: c.Categories})
	}
	annots := s.ds.Spatial.AnnotationNames()
	sort.Strings(annots)

	return &Catalog{
		Dataset:         s.datasetID,
		NObs:            s.ds.Obs.NumRows(),
		Features:        s.ds.Var.Names(),
		ObsColumns:      cols,
		GeometryColumns: s.ds.Obs.GeometryColumns(),
		Annotations:     annots,
	}, nil
}
