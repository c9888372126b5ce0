package tsne

import (
	"context"
	"math"
	"testing"
)

func requireFinite(t *testing.T, emb [][]float64) {
	t.Helper()
	for i, row := range emb {
		for d, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("embedding[%d][%d] = %v", i, d, v)
			}
		}
	}
}

func TestEdgeCase_EmptyInput(t *testing.T) {
	result, err := Embed(context.Background(), nil, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 0 {
		t.Errorf("expected empty embedding, got %d rows", len(result.Embedding))
	}
	if result.KLDivergence != 0 {
		t.Errorf("expected zero cost, got %v", result.KLDivergence)
	}
}

func TestEdgeCase_SinglePoint(t *testing.T) {
	data := [][]float64{{1.0, 2.0}}
	result, err := Embed(context.Background(), data, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Embedding))
	}
	if result.Embedding[0][0] != 0 || result.Embedding[0][1] != 0 {
		t.Errorf("single point should sit at the origin, got %v", result.Embedding[0])
	}
}

func TestEdgeCase_TwoPoints(t *testing.T) {
	data := [][]float64{{0, 0}, {1, 0}}
	for _, theta := range []float64{0, 0.5} {
		cfg := DefaultConfig()
		cfg.Theta = theta
		cfg.MaxIter = 50
		result, err := Embed(context.Background(), data, cfg)
		if err != nil {
			t.Fatalf("theta=%v: unexpected error: %v", theta, err)
		}
		requireFinite(t, result.Embedding)
	}
}

func TestEdgeCase_AllIdenticalPoints(t *testing.T) {
	data := make([][]float64, 10)
	for i := range data {
		data[i] = []float64{5.0, 5.0}
	}

	for _, algo := range []Algorithm{AlgorithmExact, AlgorithmBarnesHut, AlgorithmBarnesHutThreshold} {
		cfg := DefaultConfig()
		cfg.Algorithm = algo
		cfg.Perplexity = 3
		cfg.MaxIter = 100
		result, err := Embed(context.Background(), data, cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", algo, err)
		}
		requireFinite(t, result.Embedding)
		if math.IsNaN(result.KLDivergence) {
			t.Errorf("%s: NaN cost", algo)
		}
	}
}

func TestEdgeCase_DuplicateGroups(t *testing.T) {
	// Half the points coincide; the rest are spread out.
	data := generateBenchData(60, 3)
	for i := 0; i < 30; i++ {
		data[i] = []float64{1, 2, 3}
	}
	cfg := DefaultConfig()
	cfg.Perplexity = 5
	cfg.MaxIter = 150

	result, err := Embed(context.Background(), data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFinite(t, result.Embedding)
}

func TestEdgeCase_PerplexityLargerThanN(t *testing.T) {
	rec := &recordingReporter{}
	cfg := DefaultConfig()
	cfg.Theta = 0
	cfg.MaxIter = 30
	cfg.Reporter = rec

	result, err := Embed(context.Background(), generateBenchData(8, 2), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFinite(t, result.Embedding)
	if len(rec.diagnostics) != 1 {
		t.Errorf("expected one perplexity diagnostic, got %v", rec.diagnostics)
	}
}

func TestEdgeCase_SingleFeature(t *testing.T) {
	data := make([][]float64, 30)
	for i := range data {
		data[i] = []float64{float64(i % 10)}
	}
	cfg := DefaultConfig()
	cfg.Perplexity = 4
	cfg.MaxIter = 60

	result, err := Embed(context.Background(), data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFinite(t, result.Embedding)
}

func TestEdgeCase_LargeMagnitudes(t *testing.T) {
	data := generateBenchData(40, 4)
	for _, row := range data {
		for d := range row {
			row[d] *= 1e12
		}
	}
	cfg := DefaultConfig()
	cfg.Perplexity = 5
	cfg.MaxIter = 60

	result, err := Embed(context.Background(), data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFinite(t, result.Embedding)
}

func TestEdgeCase_NonEuclideanMetric(t *testing.T) {
	data := generateBenchData(40, 4)
	for _, m := range []DistanceMetric{ManhattanMetric{}, ChebyshevMetric{}, MinkowskiMetric{P: 3}} {
		cfg := DefaultConfig()
		cfg.Metric = m
		cfg.Perplexity = 5
		cfg.MaxIter = 40
		result, err := Embed(context.Background(), data, cfg)
		if err != nil {
			t.Fatalf("%T: unexpected error: %v", m, err)
		}
		requireFinite(t, result.Embedding)
	}
}
