package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is an observations x features numeric matrix.
type Matrix interface {
	Dims() (nObs, nFeatures int)
	// Column returns the dense values of one feature at the given observation
	// rows. The result is aligned with rows: out[i] is the value at rows[i].
	Column(rows []int, feature int) ([]float64, error)
}

// DenseMatrix is a Matrix backed by a gonum dense matrix.
type DenseMatrix struct {
	m *mat.Dense
}

// NewDenseMatrix wraps m. Rows are observations, columns are features.
func NewDenseMatrix(m *mat.Dense) *DenseMatrix {
	return &DenseMatrix{m: m}
}

// Dims returns the matrix shape.
func (d *DenseMatrix) Dims() (int, int) { return d.m.Dims() }

// Column returns feature values at rows.
func (d *DenseMatrix) Column(rows []int, feature int) ([]float64, error) {
	nObs, nFeat := d.m.Dims()
	if feature < 0 || feature >= nFeat {
		return nil, fmt.Errorf("feature index out of range: %d (n_features=%d)", feature, nFeat)
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if r < 0 || r >= nObs {
			return nil, fmt.Errorf("row %d out of range (n_obs=%d)", r, nObs)
		}
		out[i] = d.m.At(r, feature)
	}
	return out, nil
}
