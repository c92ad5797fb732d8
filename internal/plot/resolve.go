package plot

import (
	"fmt"

	"github.com/atlasmap-sc/spatialplot/internal/dataset"
	"github.com/atlasmap-sc/spatialplot/internal/spatial"
)

// Panel and column limits.
const (
	MaxPanels  = 6
	MaxColumns = 3
)

// Source says where a feature's values live.
type Source int

const (
	FromMetadata Source = iota
	FromMatrix
)

func (s Source) String() string {
	if s == FromMatrix {
		return "matrix"
	}
	return "metadata"
}

// ValueKind decides the color encoding of a panel.
type ValueKind int

const (
	Continuous ValueKind = iota
	Categorical
)

func (k ValueKind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "continuous"
}

// Feature is a resolved feature identifier. Its kind is decided once here
// and carried through extraction and encoding.
type Feature struct {
	Name   string
	Source Source
	Kind   ValueKind
	Index  int // matrix column, FromMatrix only
}

// NormalizeFeatures turns a feature request into an ordered list of names.
// A single string becomes a one-element list.
func NormalizeFeatures(v any) ([]string, error) {
	var out []string
	switch t := v.(type) {
	case string:
		out = []string{t}
	case []string:
		out = append(out, t...)
	case []any:
		out = make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: features must be a string or a list of strings, element %d is %T", ErrInvalidInput, i, e)
			}
			out[i] = s
		}
	default:
		return nil, fmt.Errorf("%w: features must be a string or a list of strings, got %T", ErrInvalidInput, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no features requested", ErrInvalidInput)
	}
	return out, nil
}

// ResolveFeatures validates names against the observation table and the
// feature index. A name present in both resolves to the metadata column.
// Metadata columns listed in categorical are treated as categorical even if
// stored numerically; matrix features are always continuous.
func ResolveFeatures(ds *dataset.Dataset, names []string, ncol int, categorical []string) ([]Feature, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no features requested", ErrInvalidInput)
	}
	hint := make(map[string]bool, len(categorical))
	for _, c := range categorical {
		hint[c] = true
	}

	feats := make([]Feature, len(names))
	for i, name := range names {
		if col, ok := ds.Obs.Column(name); ok {
			kind := Continuous
			if col.Kind == dataset.Categorical || hint[name] {
				kind = Categorical
			}
			feats[i] = Feature{Name: name, Source: FromMetadata, Kind: kind}
			continue
		}
		if idx, ok := ds.Var.Lookup(name); ok {
			feats[i] = Feature{Name: name, Source: FromMatrix, Kind: Continuous, Index: idx}
			continue
		}
		return nil, fmt.Errorf("%w: cannot find %q in observation metadata or feature names", ErrUnknownFeature, name)
	}

	if len(feats) > MaxPanels {
		return nil, fmt.Errorf("%w: %d requested, at most %d", ErrTooManyPanels, len(feats), MaxPanels)
	}
	if err := checkColumns(ncol); err != nil {
		return nil, err
	}
	return feats, nil
}

func checkColumns(ncol int) error {
	if ncol > MaxColumns {
		return fmt.Errorf("%w: %d requested, at most %d", ErrTooManyColumns, ncol, MaxColumns)
	}
	if ncol < 0 {
		return fmt.Errorf("%w: column count must be positive, got %d", ErrInvalidInput, ncol)
	}
	return nil
}

// EnsureGeometry makes sure the dataset has an active observation geometry
// and an annotation registry, asking r to populate them when either is missing.
func EnsureGeometry(ds *dataset.Dataset, r spatial.Resolver) error {
	if hasGeometry(ds) {
		return nil
	}
	if r == nil {
		return fmt.Errorf("%w: dataset has no observation geometry and no resolver", ErrMissingGeometry)
	}
	if err := r.Resolve(ds); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingGeometry, err)
	}
	if !hasGeometry(ds) {
		return fmt.Errorf("%w: resolver did not populate observation geometry", ErrMissingGeometry)
	}
	return nil
}

func hasGeometry(ds *dataset.Dataset) bool {
	return ds.Obs.Geometry() != nil && ds.Spatial.Geom != nil
}
