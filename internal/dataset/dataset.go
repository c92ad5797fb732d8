// Package dataset models an in-memory spatial dataset: per-observation metadata
// and geometry, a feature table, a feature matrix and a registry of named
// annotation geometries.
package dataset

import (
	"fmt"

	"github.com/paulmach/orb"
)

// FeatureTable indexes the features (genes) of the matrix columns.
type FeatureTable struct {
	names []string
	pos   map[string]int
}

// NewFeatureTable builds a feature index. Duplicate names keep their first position.
func NewFeatureTable(names []string) *FeatureTable {
	pos := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := pos[n]; !dup {
			pos[n] = i
		}
	}
	return &FeatureTable{names: names, pos: pos}
}

// Names returns the feature names in matrix column order.
func (f *FeatureTable) Names() []string { return f.names }

// Len returns the number of features.
func (f *FeatureTable) Len() int { return len(f.names) }

// Lookup returns the matrix column of feature name.
func (f *FeatureTable) Lookup(name string) (int, bool) {
	i, ok := f.pos[name]
	return i, ok
}

// Spatial is the dataset's spatial registry. Geom maps annotation names to
// geometry collections; a nil map means the registry has not been populated.
type Spatial struct {
	Geom map[string]orb.Geometry
}

// AnnotationNames returns the registered annotation layer names.
func (s *Spatial) AnnotationNames() []string {
	names := make([]string, 0, len(s.Geom))
	for k := range s.Geom {
		names = append(names, k)
	}
	return names
}

// Dataset bundles the observation table, the feature table, the feature matrix
// and the spatial registry.
type Dataset struct {
	Obs     *ObsTable
	Var     *FeatureTable
	X       Matrix
	Spatial Spatial
}

// New validates that the parts agree on shape.
func New(obs *ObsTable, features *FeatureTable, x Matrix) (*Dataset, error) {
	nObs, nFeat := x.Dims()
	if nObs != obs.NumRows() {
		return nil, fmt.Errorf("matrix has %d observations, obs table has %d", nObs, obs.NumRows())
	}
	if nFeat != features.Len() {
		return nil, fmt.Errorf("matrix has %d features, feature table has %d", nFeat, features.Len())
	}
	return &Dataset{Obs: obs, Var: features, X: x}, nil
}
