package tsne

import "fmt"

// Algorithm selects how input similarities and gradients are computed.
type Algorithm string

const (
	// AlgorithmAuto picks AlgorithmExact when Theta is 0 and
	// AlgorithmBarnesHut otherwise.
	AlgorithmAuto Algorithm = "auto"

	// AlgorithmExact uses a dense n×n P and the O(n²) gradient. Any output
	// dimensionality is supported.
	AlgorithmExact Algorithm = "exact"

	// AlgorithmBarnesHut builds a sparse P over each point's K nearest
	// neighbors (vantage-point tree) and approximates the gradient with a
	// quadtree. Requires OutputDims == 2.
	AlgorithmBarnesHut Algorithm = "barnes_hut"

	// AlgorithmBarnesHutThreshold builds a sparse P by keeping every
	// calibrated similarity above Threshold/n, found by brute-force scans, and
	// approximates the gradient with a quadtree. Requires OutputDims == 2.
	AlgorithmBarnesHutThreshold Algorithm = "barnes_hut_threshold"
)

// sparse reports whether the algorithm runs on a sparse P and a quadtree.
func (a Algorithm) sparse() bool {
	return a == AlgorithmBarnesHut || a == AlgorithmBarnesHutThreshold
}

// selectAlgorithm resolves AlgorithmAuto into a concrete algorithm and checks
// that the chosen one can serve the requested output dimensionality.
func selectAlgorithm(cfg Config) (Algorithm, error) {
	algo := cfg.Algorithm
	if algo == AlgorithmAuto {
		algo = AlgorithmBarnesHut
		if cfg.Theta == 0 {
			algo = AlgorithmExact
		}
	}

	if algo.sparse() && cfg.OutputDims != qtDims {
		return "", fmt.Errorf("%w: algorithm %q requires OutputDims == %d, got %d",
			ErrUnsupported, algo, qtDims, cfg.OutputDims)
	}
	return algo, nil
}
