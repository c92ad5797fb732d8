// Package spatial derives per-observation geometries for spatial datasets.
package spatial

import (
	"fmt"
	"math"

	"github.com/atlasmap-sc/spatialplot/internal/dataset"
	"github.com/paulmach/orb"
)

// Geometry column names written by SpotResolver.
const (
	SpotPolygons  = "spot_poly"
	SpotCentroids = "centroid"
)

// Default Visium coordinate columns.
const (
	DefaultXColumn = "pxl_col_in_fullres"
	DefaultYColumn = "pxl_row_in_fullres"
)

// Resolver populates a dataset's active observation geometry and its
// annotation registry.
type Resolver interface {
	Resolve(ds *dataset.Dataset) error
}

// SpotResolver builds circular spot polygons from coordinate columns.
type SpotResolver struct {
	XColumn  string
	YColumn  string
	Diameter float64 // spot diameter in coordinate units
	Segments int     // polygon vertices per spot
}

// NewSpotResolver returns a resolver for Visium-style coordinates.
func NewSpotResolver(diameter float64) *SpotResolver {
	return &SpotResolver{
		XColumn:  DefaultXColumn,
		YColumn:  DefaultYColumn,
		Diameter: diameter,
		Segments: 24,
	}
}

// Resolve adds spot_poly and centroid geometry columns when the observation
// table has no active geometry, and initializes an empty annotation registry
// when none exists. Existing state is left untouched.
func (r *SpotResolver) Resolve(ds *dataset.Dataset) error {
	if ds.Spatial.Geom == nil {
		ds.Spatial.Geom = make(map[string]orb.Geometry)
	}
	if ds.Obs.Geometry() != nil {
		return nil
	}

	xs, err := numericColumn(ds.Obs, r.XColumn)
	if err != nil {
		return err
	}
	ys, err := numericColumn(ds.Obs, r.YColumn)
	if err != nil {
		return err
	}

	radius := r.Diameter / 2
	if radius <= 0 {
		radius = 0.5
	}
	segments := r.Segments
	if segments < 3 {
		segments = 24
	}

	polys := make([]orb.Geometry, len(xs))
	centers := make([]orb.Geometry, len(xs))
	for i := range xs {
		c := orb.Point{xs[i], ys[i]}
		centers[i] = c
		polys[i] = Circle(c, radius, segments)
	}

	// spot_poly is added first so it becomes the active geometry.
	if err := ds.Obs.SetGeometry(SpotPolygons, polys); err != nil {
		return err
	}
	return ds.Obs.SetGeometry(SpotCentroids, centers)
}

// Circle approximates a circle with a closed polygon ring.
func Circle(center orb.Point, radius float64, segments int) orb.Polygon {
	ring := make(orb.Ring, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = orb.Point{
			center[0] + radius*math.Cos(theta),
			center[1] + radius*math.Sin(theta),
		}
	}
	ring[segments] = ring[0]
	return orb.Polygon{ring}
}

func numericColumn(obs *dataset.ObsTable, name string) ([]float64, error) {
	col, ok := obs.Column(name)
	if !ok {
		return nil, fmt.Errorf("coordinate column not found: %s", name)
	}
	if col.Kind != dataset.Numeric {
		return nil, fmt.Errorf("coordinate column %q is %s, expected numeric", name, col.Kind)
	}
	return col.Values, nil
}
