package dataset

import (
	"testing"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"
)

func testObs(t *testing.T) *ObsTable {
	t.Helper()

	obs := NewObsTable([]string{"AAA", "AAC", "AAG", "AAT"})
	if err := obs.SetNumeric("in_tissue", []float64{1, 0, 1, 1}); err != nil {
		t.Fatalf("SetNumeric: %v", err)
	}
	if err := obs.Set(&Column{
		Name:       "cluster",
		Kind:       Categorical,
		Codes:      []int{0, 1, 1, -1},
		Categories: []string{"a", "b"},
	}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	geoms := []orb.Geometry{orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{2, 0}, orb.Point{3, 0}}
	if err := obs.SetGeometry("spot_poly", geoms); err != nil {
		t.Fatalf("SetGeometry: %v", err)
	}
	return obs
}

func TestObsTable_SubsetPreservesOrder(t *testing.T) {
	obs := testObs(t)

	rows, err := obs.RowsWhere("in_tissue", 1)
	if err != nil {
		t.Fatalf("RowsWhere: %v", err)
	}
	if len(rows) != 3 || rows[0] != 0 || rows[1] != 2 || rows[2] != 3 {
		t.Fatalf("unexpected in_tissue rows: %v", rows)
	}

	sub, err := obs.Subset(rows)
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if sub.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", sub.NumRows())
	}
	if got := sub.Index()[1]; got != "AAG" {
		t.Errorf("expected AAG at row 1, got %s", got)
	}
	cl, _ := sub.Column("cluster")
	if cl.Label(1) != "b" || cl.Label(2) != "" {
		t.Errorf("unexpected cluster labels: %q %q", cl.Label(1), cl.Label(2))
	}
	if p := sub.Geometry()[2].(orb.Point); p[0] != 3 {
		t.Errorf("unexpected geometry at row 2: %v", p)
	}
}

func TestObsTable_CopyDoesNotAlias(t *testing.T) {
	obs := testObs(t)
	cp := obs.Copy()

	if err := cp.SetNumeric("GeneA", []float64{1, 2, 3, 4}); err != nil {
		t.Fatalf("SetNumeric: %v", err)
	}
	if obs.Has("GeneA") {
		t.Fatalf("copy leaked a column into the source table")
	}
	if err := cp.SetGeometry("centroid", make([]orb.Geometry, 4)); err != nil {
		t.Fatalf("SetGeometry: %v", err)
	}
	if err := cp.SetActiveGeometry("centroid"); err != nil {
		t.Fatalf("SetActiveGeometry: %v", err)
	}
	if obs.ActiveGeometryName() != "spot_poly" || obs.HasGeometry("centroid") {
		t.Fatalf("copy changed the source geometry state")
	}
}

func TestObsTable_SetRejectsWrongLength(t *testing.T) {
	obs := testObs(t)
	if err := obs.SetNumeric("short", []float64{1}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestColumn_AsCategorical(t *testing.T) {
	c := &Column{Name: "label", Kind: Numeric, Values: []float64{3, 1, 3, 2}}
	cat := c.AsCategorical()

	if cat.Kind != Categorical {
		t.Fatalf("expected categorical kind")
	}
	want := []string{"1", "2", "3"}
	for i, w := range want {
		if cat.Categories[i] != w {
			t.Fatalf("categories = %v, want %v", cat.Categories, want)
		}
	}
	if cat.Codes[0] != 2 || cat.Codes[1] != 0 || cat.Codes[3] != 1 {
		t.Fatalf("unexpected codes: %v", cat.Codes)
	}
}

func TestDenseMatrix_Column(t *testing.T) {
	// 4 obs x 2 features
	dense := NewDenseMatrix(mat.NewDense(4, 2, []float64{
		0, 1,
		5, 0,
		0, 0,
		7, 2,
	}))

	got, err := dense.Column([]int{3, 0, 1}, 1)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	want := []float64{2, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Column = %v, want %v", got, want)
		}
	}

	if _, err := dense.Column([]int{0}, 2); err == nil {
		t.Errorf("expected out-of-range feature error")
	}
	if _, err := dense.Column([]int{9}, 0); err == nil {
		t.Errorf("expected out-of-range row error")
	}
}

func TestNew_ShapeMismatch(t *testing.T) {
	obs := testObs(t)
	x := NewDenseMatrix(mat.NewDense(3, 1, nil))
	if _, err := New(obs, NewFeatureTable([]string{"GeneA"}), x); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}
