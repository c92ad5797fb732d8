package cache

import (
	"testing"
	"time"
)

func TestFigureKey(t *testing.T) {
	base := `fig:visium:"GeneA","pct_counts_mt"`

	t.Run("noParams", func(t *testing.T) {
		got := FigureKey("visium", []string{"GeneA", "pct_counts_mt"}, nil)
		if got != base {
			t.Fatalf("expected %q, got %q", base, got)
		}
	})

	t.Run("stableParamOrder", func(t *testing.T) {
		k1 := FigureKey("visium", []string{"GeneA"}, map[string]string{"ncol": "2", "cmap": "viridis"})
		k2 := FigureKey("visium", []string{"GeneA"}, map[string]string{"cmap": "viridis", "ncol": "2"})
		if k1 != k2 {
			t.Fatalf("expected stable key, got %q vs %q", k1, k2)
		}
	})

	t.Run("featureOrderMatters", func(t *testing.T) {
		k1 := FigureKey("visium", []string{"A", "B"}, nil)
		k2 := FigureKey("visium", []string{"B", "A"}, nil)
		if k1 == k2 {
			t.Fatalf("feature order should change the key")
		}
	})

	t.Run("commaInName", func(t *testing.T) {
		k1 := FigureKey("visium", []string{"A,B"}, nil)
		k2 := FigureKey("visium", []string{"A", "B"}, nil)
		if k1 == k2 {
			t.Fatalf("a single feature %q must not share a key with two features", "A,B")
		}
	})

	t.Run("paramsChangeKey", func(t *testing.T) {
		k1 := FigureKey("visium", []string{"A"}, map[string]string{"tissue": "true"})
		k2 := FigureKey("visium", []string{"A"}, map[string]string{"tissue": "false"})
		if k1 == k2 {
			t.Fatalf("different params should produce different keys")
		}
	})
}

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager(Config{FigureCacheSizeMB: 8, FigureTTL: time.Minute, QueryCacheSize: 2})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	if _, ok := m.GetFigure("missing"); ok {
		t.Fatalf("expected miss")
	}
	if err := m.SetFigure("k", []byte("png")); err != nil {
		t.Fatalf("SetFigure: %v", err)
	}
	if got, ok := m.GetFigure("k"); !ok || string(got) != "png" {
		t.Fatalf("unexpected figure: %q %v", got, ok)
	}

	m.SetQuery("a", []byte("1"))
	m.SetQuery("b", []byte("2"))
	m.SetQuery("c", []byte("3"))
	if _, ok := m.GetQuery("a"); ok {
		t.Fatalf("oldest query should be evicted")
	}
	if got, ok := m.GetQuery("c"); !ok || string(got) != "3" {
		t.Fatalf("unexpected query: %q %v", got, ok)
	}
}
