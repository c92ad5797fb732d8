package soma

import "fmt"

// ValueSource reads one feature at a set of observation joinids.
// *Reader satisfies it.
type ValueSource interface {
	FeatureValues(feature string, obsJoinIDs []int64) (map[int64]float32, error)
}

// Matrix adapts a SOMA experiment to the dataset matrix interface. Row i of
// the matrix is the observation with soma_joinid joinIDs[i]; column j is
// features[j].
type Matrix struct {
	src      ValueSource
	joinIDs  []int64
	features []string
}

// NewMatrix binds a value source to the observation order and feature list
// of a dataset.
func NewMatrix(src ValueSource, joinIDs []int64, features []string) *Matrix {
	return &Matrix{src: src, joinIDs: joinIDs, features: features}
}

func (m *Matrix) Dims() (int, int) { return len(m.joinIDs), len(m.features) }

// Column reads one feature for the given rows. Missing entries are zero.
func (m *Matrix) Column(rows []int, feature int) ([]float64, error) {
	if feature < 0 || feature >= len(m.features) {
		return nil, fmt.Errorf("feature index out of range: %d (n_features=%d)", feature, len(m.features))
	}
	ids := make([]int64, len(rows))
	for i, row := range rows {
		if row < 0 || row >= len(m.joinIDs) {
			return nil, fmt.Errorf("row %d out of range (n_obs=%d)", row, len(m.joinIDs))
		}
		ids[i] = m.joinIDs[row]
	}

	values, err := m.src.FeatureValues(m.features[feature], ids)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = float64(values[id])
	}
	return out, nil
}
