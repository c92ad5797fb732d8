package plot

import (
	"fmt"

	"github.com/atlasmap-sc/spatialplot/internal/dataset"
)

// TissueColumn flags observations inside the tissue (value 1).
const TissueColumn = "in_tissue"

// Workspace is an owned working copy of the observation table restricted to
// the selected rows. Extracted feature columns are written here, never into
// the caller's dataset.
type Workspace struct {
	ds   *dataset.Dataset
	rows []int
	obs  *dataset.ObsTable
}

// NewWorkspace selects the rows to draw: only in-tissue observations when
// tissue is set, otherwise all of them.
func NewWorkspace(ds *dataset.Dataset, tissue bool) (*Workspace, error) {
	if !tissue {
		return &Workspace{ds: ds, rows: ds.Obs.AllRows(), obs: ds.Obs.Copy()}, nil
	}

	rows, err := ds.Obs.RowsWhere(TissueColumn, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: tissue filter: %v", ErrInvalidInput, err)
	}
	obs, err := ds.Obs.Subset(rows)
	if err != nil {
		return nil, err
	}
	return &Workspace{ds: ds, rows: rows, obs: obs}, nil
}

// Rows returns the selected dataset rows in working-table order.
func (w *Workspace) Rows() []int { return w.rows }

// Obs returns the working observation table.
func (w *Workspace) Obs() *dataset.ObsTable { return w.obs }

// Extract makes f's values available in the working table under f.Name.
// Matrix features are sliced at the selected rows and written over any
// previous column of that name; metadata features are used as they are.
func (w *Workspace) Extract(f Feature) error {
	if f.Source != FromMatrix {
		return nil
	}
	values, err := w.ds.X.Column(w.rows, f.Index)
	if err != nil {
		return fmt.Errorf("extract %q: %w", f.Name, err)
	}
	if len(values) != len(w.rows) || w.obs.NumRows() != len(w.rows) {
		return fmt.Errorf("%w: %q has %d values for %d selected observations", ErrMisalignedExtraction, f.Name, len(values), w.obs.NumRows())
	}
	if err := w.obs.SetNumeric(f.Name, values); err != nil {
		return fmt.Errorf("%w: %v", ErrMisalignedExtraction, err)
	}
	return nil
}
