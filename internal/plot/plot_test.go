package plot

import (
	"errors"
	"image/color"
	"testing"

	"github.com/atlasmap-sc/spatialplot/internal/dataset"
	"github.com/atlasmap-sc/spatialplot/internal/render"
	"github.com/atlasmap-sc/spatialplot/internal/spatial"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"
)

// testDataset returns six spots on a line, four of them in tissue, with
// three genes and a "tissue" annotation.
func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	obs := dataset.NewObsTable([]string{"s1", "s2", "s3", "s4", "s5", "s6"})
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("build obs: %v", err)
		}
	}
	must(obs.SetNumeric("in_tissue", []float64{1, 1, 0, 1, 0, 1}))
	must(obs.SetNumeric(spatial.DefaultXColumn, []float64{0, 10, 20, 30, 40, 50}))
	must(obs.SetNumeric(spatial.DefaultYColumn, []float64{0, 0, 0, 0, 0, 0}))
	must(obs.SetNumeric("pct_counts_mt", []float64{1.5, 2, 3, 4, 5, 6}))
	must(obs.SetNumeric("leiden_num", []float64{0, 1, 0, 2, 1, 0}))
	must(obs.Set(&dataset.Column{
		Name:       "cluster",
		Kind:       dataset.Categorical,
		Codes:      []int{0, 1, 0, 1, -1, 0},
		Categories: []string{"tumor", "stroma"},
	}))

	x := mat.NewDense(6, 3, []float64{
		0, 1, 2,
		1, 1, 2,
		2, 1, 2,
		3, 1, 2,
		4, 1, 2,
		5, 1, 2,
	})
	ds, err := dataset.New(obs, dataset.NewFeatureTable([]string{"GeneA", "GeneB", "GeneC"}), dataset.NewDenseMatrix(x))
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	if err := spatial.NewSpotResolver(8).Resolve(ds); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	ds.Spatial.Geom["tissue"] = orb.Polygon{{{-5, -5}, {55, -5}, {55, 5}, {-5, 5}, {-5, -5}}}
	return ds
}

func colorbars(fig *render.Figure) []*render.Axes {
	var out []*render.Axes
	for _, ax := range fig.Axes() {
		if ax.IsColorbar() {
			out = append(out, ax)
		}
	}
	return out
}

func TestPlanLayout(t *testing.T) {
	tests := []struct {
		n, ncol    int
		rows, cols int
		fig        [2]float64
	}{
		{1, 0, 1, 1, [2]float64{10, 10}},
		{2, 0, 1, 2, [2]float64{10, 10}},
		{3, 0, 1, 3, [2]float64{10, 10}},
		{4, 0, 2, 3, [2]float64{10, 6}},
		{5, 0, 2, 3, [2]float64{10, 6}},
		{6, 0, 2, 3, [2]float64{10, 6}},
		{5, 2, 3, 2, [2]float64{10, 10}},
		{3, 1, 3, 1, [2]float64{10, 10}},
		{4, 3, 2, 3, [2]float64{10, 6}},
		{2, 3, 1, 3, [2]float64{10, 10}},
	}
	for _, tt := range tests {
		l, err := PlanLayout(tt.n, tt.ncol)
		if err != nil {
			t.Fatalf("PlanLayout(%d, %d): %v", tt.n, tt.ncol, err)
		}
		if l.Rows != tt.rows || l.Cols != tt.cols || l.FigSize != tt.fig {
			t.Errorf("PlanLayout(%d, %d) = %dx%d %v, want %dx%d %v",
				tt.n, tt.ncol, l.Rows, l.Cols, l.FigSize, tt.rows, tt.cols, tt.fig)
		}
		if l.Cells() < tt.n {
			t.Errorf("PlanLayout(%d, %d) has only %d cells", tt.n, tt.ncol, l.Cells())
		}
	}
}

func TestPlanLayout_Errors(t *testing.T) {
	if _, err := PlanLayout(7, 0); !errors.Is(err, ErrTooManyPanels) {
		t.Errorf("expected ErrTooManyPanels, got %v", err)
	}
	if _, err := PlanLayout(2, 4); !errors.Is(err, ErrTooManyColumns) {
		t.Errorf("expected ErrTooManyColumns, got %v", err)
	}
	if _, err := PlanLayout(0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := PlanLayout(2, -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative ncol, got %v", err)
	}
}

func TestCursor_RowMajor(t *testing.T) {
	g, _ := NewGrid(Layout{Rows: 2, Cols: 3, Panels: 5, FigSize: [2]float64{10, 6}}, SubplotOptions{DPI: 10})
	cur := g.Cursor()
	want := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}}
	for i, w := range want {
		if cur.Row() != w[0] || cur.Col() != w[1] {
			t.Fatalf("step %d: got (%d,%d), want %v", i, cur.Row(), cur.Col(), w)
		}
		cur.Advance()
	}
}

func TestNormalizeFeatures(t *testing.T) {
	got, err := NormalizeFeatures("GeneA")
	if err != nil || len(got) != 1 || got[0] != "GeneA" {
		t.Fatalf("string: got %v, %v", got, err)
	}
	got, err = NormalizeFeatures([]any{"GeneA", "pct_counts_mt"})
	if err != nil || len(got) != 2 || got[1] != "pct_counts_mt" {
		t.Fatalf("[]any: got %v, %v", got, err)
	}
	in := []string{"a", "b"}
	got, _ = NormalizeFeatures(in)
	got[0] = "z"
	if in[0] != "a" {
		t.Fatalf("NormalizeFeatures should copy its input")
	}

	for _, bad := range []any{42, []any{"a", 1}, []string{}, nil} {
		if _, err := NormalizeFeatures(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("NormalizeFeatures(%v): expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestResolveFeatures_Kinds(t *testing.T) {
	ds := testDataset(t)

	feats, err := ResolveFeatures(ds, []string{"GeneA", "pct_counts_mt", "cluster", "leiden_num"}, 0, []string{"leiden_num"})
	if err != nil {
		t.Fatalf("ResolveFeatures: %v", err)
	}
	want := []struct {
		src  Source
		kind ValueKind
	}{
		{FromMatrix, Continuous},
		{FromMetadata, Continuous},
		{FromMetadata, Categorical},
		{FromMetadata, Categorical},
	}
	for i, w := range want {
		if feats[i].Source != w.src || feats[i].Kind != w.kind {
			t.Errorf("%s: got %s/%s, want %s/%s", feats[i].Name, feats[i].Source, feats[i].Kind, w.src, w.kind)
		}
	}
	if feats[0].Index != 0 {
		t.Errorf("GeneA should map to matrix column 0, got %d", feats[0].Index)
	}
}

func TestResolveFeatures_MetadataWins(t *testing.T) {
	ds := testDataset(t)
	if err := ds.Obs.SetNumeric("GeneB", []float64{9, 9, 9, 9, 9, 9}); err != nil {
		t.Fatalf("SetNumeric: %v", err)
	}
	feats, err := ResolveFeatures(ds, []string{"GeneB"}, 0, nil)
	if err != nil {
		t.Fatalf("ResolveFeatures: %v", err)
	}
	if feats[0].Source != FromMetadata {
		t.Fatalf("expected metadata source, got %s", feats[0].Source)
	}
}

func TestSpatialFeatures_UnknownFeature(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA", "NotAGene"}, Options{})
	if !errors.Is(err, ErrUnknownFeature) {
		t.Fatalf("expected ErrUnknownFeature, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no result on error")
	}
}

func TestSpatialFeatures_Limits(t *testing.T) {
	ds := testDataset(t)

	seven := []string{"GeneA", "GeneB", "GeneC", "GeneA", "GeneB", "GeneC", "GeneA"}
	if _, err := SpatialFeatures(ds, seven, Options{}); !errors.Is(err, ErrTooManyPanels) {
		t.Errorf("expected ErrTooManyPanels, got %v", err)
	}
	if _, err := SpatialFeatures(ds, []string{"GeneA"}, Options{NCol: 4}); !errors.Is(err, ErrTooManyColumns) {
		t.Errorf("expected ErrTooManyColumns, got %v", err)
	}
	// Unknown names are reported before panel limits.
	if _, err := SpatialFeatures(ds, append(seven, "nope"), Options{}); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature first, got %v", err)
	}
}

func TestSpatialFeatures_GeneAndMetadata(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA", "pct_counts_mt"}, Options{})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if rows, cols := res.Grid.Shape(); rows != 1 || cols != 2 {
		t.Fatalf("expected 1x2 grid, got %dx%d", rows, cols)
	}
	if len(res.Panels) != 2 {
		t.Fatalf("expected 2 panels, got %d", len(res.Panels))
	}
	for i, name := range []string{"GeneA", "pct_counts_mt"} {
		if title, _ := res.Panels[i].Title(); title != name {
			t.Errorf("panel %d title = %q, want %q", i, title, name)
		}
		if n := len(res.Panels[i].Layers()[0].Geometries); n != 4 {
			t.Errorf("panel %d draws %d observations, want 4 in-tissue", i, n)
		}
	}

	cbs := colorbars(res.Figure)
	if len(cbs) != 2 {
		t.Fatalf("expected 2 colorbars, got %d", len(cbs))
	}
	for i, name := range []string{"GeneA", "pct_counts_mt"} {
		title, align := cbs[i].Title()
		if title != name || align != render.AlignLeft || cbs[i].YLabel() != "" {
			t.Errorf("colorbar %d: title=%q align=%v ylabel=%q", i, title, align, cbs[i].YLabel())
		}
	}
	if vmin, vmax, _ := cbs[0].ColorbarRange(); vmin != 0 || vmax != 5 {
		t.Errorf("GeneA range over in-tissue spots = %v..%v, want 0..5", vmin, vmax)
	}

	if ds.Obs.Has("GeneA") {
		t.Fatalf("extraction leaked into the caller's observation table")
	}
}

func TestSpatialFeatures_TissueFilter(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{AllObservations: true})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if n := len(res.Panels[0].Layers()[0].Geometries); n != 6 {
		t.Fatalf("expected all 6 observations, got %d", n)
	}
}

func TestSpatialFeatures_HiddenCells(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA", "GeneB", "GeneC", "pct_counts_mt", "cluster"}, Options{})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if rows, cols := res.Grid.Shape(); rows != 2 || cols != 3 {
		t.Fatalf("expected 2x3 grid, got %dx%d", rows, cols)
	}
	if res.Grid.At(1, 2).Visible() {
		t.Fatalf("cell (1,2) should be hidden")
	}
	if len(res.Grid.Hidden()) != 1 {
		t.Fatalf("expected exactly one hidden cell, got %d", len(res.Grid.Hidden()))
	}
	for i, ax := range res.Panels {
		if !ax.Visible() || len(ax.Layers()) == 0 {
			t.Errorf("panel %d should be drawn", i)
		}
	}
	if w, h := res.Figure.Size(); w != 1000 || h != 600 {
		t.Errorf("expected 10x6 in figure, got %dx%d px", w, h)
	}
}

func TestSpatialFeatures_RepeatedFeature(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA", "GeneA"}, Options{})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	a := res.Panels[0].Layers()[0].Fills
	b := res.Panels[1].Layers()[0].Fills
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("repeated feature drew differently at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestWorkspace_ExtractIdempotent(t *testing.T) {
	ds := testDataset(t)
	ws, err := NewWorkspace(ds, true)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	f := Feature{Name: "GeneA", Source: FromMatrix, Index: 0}
	for i := 0; i < 2; i++ {
		if err := ws.Extract(f); err != nil {
			t.Fatalf("Extract #%d: %v", i, err)
		}
	}
	col, ok := ws.Obs().Column("GeneA")
	if !ok {
		t.Fatalf("GeneA not in working table")
	}
	want := []float64{0, 1, 3, 5}
	for i, v := range want {
		if col.Values[i] != v {
			t.Fatalf("GeneA values = %v, want %v", col.Values, want)
		}
	}
	if len(ws.Obs().Columns()) != len(ds.Obs.Columns())+1 {
		t.Fatalf("repeated extraction should replace, not append")
	}
}

type shortMatrix struct{ dataset.Matrix }

func (m shortMatrix) Column(rows []int, feature int) ([]float64, error) {
	v, err := m.Matrix.Column(rows, feature)
	return v[:len(v)-1], err
}

func TestWorkspace_MisalignedExtraction(t *testing.T) {
	ds := testDataset(t)
	ds.X = shortMatrix{ds.X}

	_, err := SpatialFeatures(ds, []string{"GeneA"}, Options{})
	if !errors.Is(err, ErrMisalignedExtraction) {
		t.Fatalf("expected ErrMisalignedExtraction, got %v", err)
	}
}

func TestSpatialFeatures_LegendOverrides(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{
		Legend: render.LegendParams{Orientation: render.Horizontal},
	})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	cbs := colorbars(res.Figure)
	if len(cbs) != 1 {
		t.Fatalf("expected one colorbar, got %d", len(cbs))
	}
	if cbs[0].ColorbarOrientation() != render.Horizontal {
		t.Errorf("expected horizontal colorbar, got %s", cbs[0].ColorbarOrientation())
	}
	if cbs[0].XLabel() != "GeneA" {
		t.Errorf("expected default label GeneA, got %q", cbs[0].XLabel())
	}
}

func TestLegendFor(t *testing.T) {
	p := LegendFor(Feature{Name: "GeneA"}, render.LegendParams{Orientation: render.Horizontal})
	if p.Label != "GeneA" || p.Orientation != render.Horizontal || p.Shrink != DefaultColorbarShrink {
		t.Errorf("unexpected continuous params: %+v", p)
	}
	p = LegendFor(Feature{Name: "GeneA"}, render.LegendParams{Label: "expr", Shrink: 0.5})
	if p.Label != "expr" || p.Orientation != render.Vertical || p.Shrink != 0.5 {
		t.Errorf("caller values should win: %+v", p)
	}
	p = LegendFor(Feature{Name: "cluster", Kind: Categorical}, render.LegendParams{Loc: "upper right"})
	if p.Title != "cluster" || p.Loc != "upper right" || p.Shrink != 0 {
		t.Errorf("unexpected categorical params: %+v", p)
	}
}

func TestSpatialFeatures_Categorical(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"cluster", "leiden_num"}, Options{Categorical: []string{"leiden_num"}})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if len(colorbars(res.Figure)) != 0 {
		t.Fatalf("categorical panels should not have colorbars")
	}
	lg := res.Panels[0].Legend()
	if lg == nil || lg.Title != "cluster" || len(lg.Entries) != 2 {
		t.Fatalf("unexpected cluster legend: %+v", lg)
	}
	lg = res.Panels[1].Legend()
	// in-tissue leiden_num values are 0, 1, 2, 0
	if lg == nil || len(lg.Entries) != 3 || lg.Entries[2].Label != "2" {
		t.Fatalf("unexpected leiden_num legend: %+v", lg)
	}
}

func TestSpatialFeatures_FlatColor(t *testing.T) {
	ds := testDataset(t)
	red := color.RGBA{R: 255, A: 255}

	res, err := SpatialFeatures(ds, []string{"GeneA", "cluster"}, Options{Color: red})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if len(colorbars(res.Figure)) != 0 {
		t.Fatalf("flat color should suppress colorbars")
	}
	for i, ax := range res.Panels {
		if ax.Legend() != nil {
			t.Errorf("panel %d should have no legend", i)
		}
		if ax.Layers()[0].Style.Color != red {
			t.Errorf("panel %d not drawn in the flat color", i)
		}
	}
}

func TestSpatialFeatures_UnknownColormap(t *testing.T) {
	ds := testDataset(t)
	if _, err := SpatialFeatures(ds, []string{"GeneA"}, Options{Colormap: "nope"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSpatialFeatures_Annotation(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA", "GeneB"}, Options{AnnotGeom: "tissue"})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	for i, ax := range res.Panels {
		layers := ax.Layers()
		if len(layers) != 2 {
			t.Fatalf("panel %d: expected feature and annotation layers, got %d", i, len(layers))
		}
		if layers[1].Style.Alpha != 0.2 || layers[1].Style.Color != DefaultAnnotationStyle.Color {
			t.Errorf("panel %d: annotation style = %+v", i, layers[1].Style)
		}
	}

	custom := render.Style{Color: color.Black, Alpha: 0.5}
	res, err = SpatialFeatures(ds, []string{"GeneA"}, Options{
		AnnotGeom:  "tissue",
		AnnotStyle: custom,
		Draw:       render.Style{LineWidth: 2},
	})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	layers := res.Panels[0].Layers()
	if s := layers[1].Style; s.Color != color.Black || s.Alpha != 0.5 || s.LineWidth != 2 {
		t.Errorf("custom annotation style not applied: %+v", s)
	}
	if layers[0].Style.LineWidth != 2 {
		t.Errorf("draw style should reach the feature layer too")
	}
}

func TestSpatialFeatures_UnknownAnnotation(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{AnnotGeom: "tissue_boundary"})
	if !errors.Is(err, ErrUnknownAnnotation) {
		t.Fatalf("expected ErrUnknownAnnotation, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no result on error")
	}
}

func TestAnnotate_AfterFeatureDraw(t *testing.T) {
	ds := testDataset(t)
	fig := render.NewFigure(4, 4, 10)
	ax := fig.AddAxes(render.Rect{X0: 0.1, Y0: 0.1, X1: 0.9, Y1: 0.9})
	render.PlotGeometry(ax, orb.Point{0, 0}, render.Style{})

	if err := Annotate(ds, ax, "tissue_boundary", render.Style{}, render.Style{}); !errors.Is(err, ErrUnknownAnnotation) {
		t.Fatalf("expected ErrUnknownAnnotation, got %v", err)
	}
	if len(ax.Layers()) != 1 {
		t.Fatalf("feature layer should remain drawn, got %d layers", len(ax.Layers()))
	}
}

func TestSpatialFeatures_BarcodeGeom(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{BarcodeGeom: spatial.SpotCentroids})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if _, ok := res.Panels[0].Layers()[0].Geometries[0].(orb.Point); !ok {
		t.Fatalf("expected centroid points to be drawn")
	}
	if ds.Obs.ActiveGeometryName() != spatial.SpotPolygons {
		t.Fatalf("caller's active geometry changed to %q", ds.Obs.ActiveGeometryName())
	}

	if _, err := SpatialFeatures(ds, []string{"GeneA"}, Options{BarcodeGeom: "cell_poly"}); !errors.Is(err, ErrMissingGeometry) || !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrMissingGeometry as invalid input, got %v", err)
	}
}

func TestEnsureGeometry(t *testing.T) {
	obs := dataset.NewObsTable([]string{"a", "b"})
	if err := obs.SetNumeric(spatial.DefaultXColumn, []float64{0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := obs.SetNumeric(spatial.DefaultYColumn, []float64{0, 1}); err != nil {
		t.Fatal(err)
	}
	ds, err := dataset.New(obs, dataset.NewFeatureTable([]string{"g"}), dataset.NewDenseMatrix(mat.NewDense(2, 1, nil)))
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}

	if err := EnsureGeometry(ds, nil); !errors.Is(err, ErrMissingGeometry) {
		t.Fatalf("expected ErrMissingGeometry without a resolver, got %v", err)
	}
	if err := EnsureGeometry(ds, spatial.NewSpotResolver(1)); err != nil {
		t.Fatalf("EnsureGeometry: %v", err)
	}
	if ds.Obs.ActiveGeometryName() != spatial.SpotPolygons || ds.Spatial.Geom == nil {
		t.Fatalf("resolver did not populate geometry")
	}
}

func TestSpatialFeatures_SingleAxes(t *testing.T) {
	ds := testDataset(t)
	fig := render.NewFigure(5, 5, 20)
	ax := fig.AddAxes(render.Rect{X0: 0.1, Y0: 0.1, X1: 0.9, Y1: 0.9})

	res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{Axes: ax})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if res.Figure != fig || res.Panels[0] != ax {
		t.Fatalf("expected drawing into the supplied axes")
	}
	if _, err := SpatialFeatures(ds, []string{"GeneA", "GeneB"}, Options{Axes: ax}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for two features on one axes, got %v", err)
	}
}

func TestSpatialFeatures_FigSizeOverride(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{Subplot: SubplotOptions{FigSize: [2]float64{4, 3}, DPI: 50}})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	if w, h := res.Figure.Size(); w != 200 || h != 150 {
		t.Fatalf("expected 200x150 px, got %dx%d", w, h)
	}
}

func TestSpatialFeatures_FigureTooLarge(t *testing.T) {
	ds := testDataset(t)

	tests := []struct {
		name string
		opts SubplotOptions
	}{
		{"huge dpi", SubplotOptions{DPI: 1e9}},
		{"huge figsize", SubplotOptions{FigSize: [2]float64{100, 100}, DPI: 300}},
		{"zero height", SubplotOptions{FigSize: [2]float64{4, 0.001}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{Subplot: tt.opts})
			if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, render.ErrFigureSize) {
				t.Fatalf("expected ErrInvalidInput wrapping ErrFigureSize, got %v", err)
			}
			if res != nil {
				t.Fatalf("expected no result")
			}
		})
	}
}

func TestNormalizeColorbars_Idempotent(t *testing.T) {
	ds := testDataset(t)

	res, err := SpatialFeatures(ds, []string{"GeneA"}, Options{})
	if err != nil {
		t.Fatalf("SpatialFeatures: %v", err)
	}
	NormalizeColorbars(res.Figure)
	cb := colorbars(res.Figure)[0]
	if title, align := cb.Title(); title != "GeneA" || align != render.AlignLeft || cb.YLabel() != "" {
		t.Fatalf("second normalization changed colorbar: title=%q align=%v ylabel=%q", title, align, cb.YLabel())
	}
}
