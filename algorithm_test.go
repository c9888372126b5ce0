package tsne

import (
	"errors"
	"testing"
)

func TestSelectAlgorithmAuto(t *testing.T) {
	tests := []struct {
		name     string
		theta    float64
		dims     int
		expected Algorithm
	}{
		{
			name:     "theta=0 → exact",
			theta:    0,
			dims:     2,
			expected: AlgorithmExact,
		},
		{
			name:     "theta=0 3-D → exact",
			theta:    0,
			dims:     3,
			expected: AlgorithmExact,
		},
		{
			name:     "theta=0.5 → barnes_hut",
			theta:    0.5,
			dims:     2,
			expected: AlgorithmBarnesHut,
		},
		{
			name:     "theta=1 → barnes_hut",
			theta:    1,
			dims:     2,
			expected: AlgorithmBarnesHut,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Theta = tc.theta
			cfg.OutputDims = tc.dims
			got, err := selectAlgorithm(cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("selectAlgorithm() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestSelectAlgorithmExplicit(t *testing.T) {
	tests := []struct {
		name    string
		algo    Algorithm
		dims    int
		wantErr bool
	}{
		{"exact 1-D", AlgorithmExact, 1, false},
		{"exact 3-D", AlgorithmExact, 3, false},
		{"barnes_hut 2-D", AlgorithmBarnesHut, 2, false},
		{"barnes_hut 3-D", AlgorithmBarnesHut, 3, true},
		{"barnes_hut_threshold 2-D", AlgorithmBarnesHutThreshold, 2, false},
		{"barnes_hut_threshold 1-D", AlgorithmBarnesHutThreshold, 1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Algorithm = tc.algo
			cfg.OutputDims = tc.dims
			got, err := selectAlgorithm(cfg)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupported) {
					t.Fatalf("expected ErrUnsupported, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.algo {
				t.Errorf("selectAlgorithm() = %q, want %q", got, tc.algo)
			}
		})
	}
}

func TestSelectAlgorithmAuto3DWithTheta(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDims = 3
	cfg.Theta = 0.5

	_, err := selectAlgorithm(cfg)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for auto with theta>0 and 3 output dims, got %v", err)
	}
}

func TestAlgorithmSparse(t *testing.T) {
	for algo, want := range map[Algorithm]bool{
		AlgorithmExact:              false,
		AlgorithmBarnesHut:          true,
		AlgorithmBarnesHutThreshold: true,
	} {
		if got := algo.sparse(); got != want {
			t.Errorf("%q.sparse() = %v, want %v", algo, got, want)
		}
	}
}
