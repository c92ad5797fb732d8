package service

import (
	"fmt"

	"github.com/atlasmap-sc/spatialplot/internal/config"
	"github.com/atlasmap-sc/spatialplot/internal/data/soma"
	"github.com/atlasmap-sc/spatialplot/internal/data/zarr"
	"github.com/atlasmap-sc/spatialplot/internal/dataset"
	"github.com/atlasmap-sc/spatialplot/internal/spatial"
)

// JoinIDColumn holds SOMA observation joinids when a bundle carries them.
const JoinIDColumn = "soma_joinid"

// Loaded is an opened dataset with the resolver that fits its bundle.
type Loaded struct {
	Dataset  *dataset.Dataset
	Resolver spatial.Resolver
	close    []func()
}

// Close releases the readers behind the dataset.
func (l *Loaded) Close() {
	for _, fn := range l.close {
		fn()
	}
}

// LoadDataset opens the zarr bundle of cfg and, when SomaPath is set and
// SOMA support is compiled in, serves the feature matrix from SOMA instead.
func LoadDataset(cfg config.DatasetConfig) (*Loaded, error) {
	zr, err := zarr.Open(cfg.ZarrPath)
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", cfg.ZarrPath, err)
	}
	ds, err := zr.Dataset()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("load bundle %s: %w", cfg.ZarrPath, err)
	}
	l := &Loaded{Dataset: ds, close: []func(){zr.Close}}

	if cfg.SomaPath != "" {
		sr, err := soma.NewReader(cfg.SomaPath)
		if err != nil {
			l.Close()
			return nil, err
		}
		l.close = append(l.close, sr.Close)
		if sr.Supported() {
			ds.X = soma.NewMatrix(sr, joinIDs(ds.Obs), ds.Var.Names())
		}
	}

	md := zr.Metadata()
	r := spatial.NewSpotResolver(cfg.SpotDiameter)
	if md.Spatial.XColumn != "" {
		r.XColumn = md.Spatial.XColumn
	}
	if md.Spatial.YColumn != "" {
		r.YColumn = md.Spatial.YColumn
	}
	if md.Spatial.SpotDiameter > 0 {
		r.Diameter = md.Spatial.SpotDiameter
	}
	l.Resolver = r
	return l, nil
}

// joinIDs returns the SOMA joinid of every observation row, falling back to
// the row position.
func joinIDs(obs *dataset.ObsTable) []int64 {
	ids := make([]int64, obs.NumRows())
	col, ok := obs.Column(JoinIDColumn)
	for i := range ids {
		if ok && col.Kind == dataset.Numeric {
			ids[i] = int64(col.Values[i])
		} else {
			ids[i] = int64(i)
		}
	}
	return ids
}
