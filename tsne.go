package tsne

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config controls a t-SNE run.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// OutputDims is the dimensionality of the embedding. The Barnes-Hut
	// algorithms only support 2. Default: 2.
	OutputDims int

	// Perplexity is the effective number of neighbors each point's input
	// kernel is calibrated to. Must be > 0 and should be well below the
	// number of points. Default: 30.
	Perplexity float64

	// Theta is the Barnes-Hut accuracy trade-off in [0, 1]. 0 selects the
	// exact algorithm under AlgorithmAuto; larger values are faster and less
	// accurate. Zero is kept as given. DefaultConfig sets 0.5.
	Theta float64

	// Algorithm selects the affinity and gradient strategy. Default: "auto".
	Algorithm Algorithm

	// NeighborK is the number of nearest neighbors per point for
	// AlgorithmBarnesHut. 0 means int(3 * Perplexity). Default: 0.
	NeighborK int

	// Threshold keeps, for AlgorithmBarnesHutThreshold, the calibrated
	// similarities above Threshold/n. Must be > 0. Default: 1.
	Threshold float64

	// Metric measures distances in the input space. Built-in:
	// EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric.
	// Default: EuclideanMetric.
	Metric DistanceMetric

	// MaxIter is the number of gradient descent iterations. Default: 1000.
	MaxIter int

	// StopLyingIter is the iteration after which early exaggeration ends.
	// Zero is kept as given. DefaultConfig sets 250.
	StopLyingIter int

	// MomentumSwitchIter is the iteration after which FinalMomentum replaces
	// Momentum. Zero is kept as given. DefaultConfig sets 250.
	MomentumSwitchIter int

	// Momentum and FinalMomentum weight the previous velocity, before and
	// after MomentumSwitchIter. Must be in [0, 1). Zero is kept as given.
	// DefaultConfig sets 0.5 and 0.8.
	Momentum      float64
	FinalMomentum float64

	// LearningRate is the gradient step size (eta). Default: 200.
	LearningRate float64

	// Exaggeration multiplies P until StopLyingIter. Default: 12.
	Exaggeration float64

	// MinGain floors the per-coordinate adaptive gain. Default: 0.01.
	MinGain float64

	// ReportEvery is the interval, in iterations, between KL divergence
	// evaluations sent to Reporter. The final iteration is always reported.
	// Default: 50.
	ReportEvery int

	// Seed makes the run reproducible: it drives the initial embedding and
	// vantage point selection. Default: 0.
	Seed uint64

	// Workers controls the number of goroutines for per-point stages
	// (kernel calibration, forces, gradients). 0 means runtime.NumCPU().
	// Results do not depend on Workers. Default: 0 (auto).
	Workers int

	// Reporter receives progress, phase timings and diagnostics.
	// Default: discard.
	Reporter Reporter
}

// Result contains the output of a t-SNE run.
type Result struct {
	// Embedding holds one OutputDims-dimensional row per input point.
	Embedding [][]float64

	// KLDivergence is the cost of the final embedding. For the Barnes-Hut
	// algorithms it is an estimate over the stored entries of P.
	KLDivergence float64

	// Algorithm is the algorithm that actually ran.
	Algorithm Algorithm
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		OutputDims:         2,
		Perplexity:         30,
		Theta:              0.5,
		Algorithm:          AlgorithmAuto,
		Threshold:          1,
		Metric:             EuclideanMetric{},
		MaxIter:            1000,
		StopLyingIter:      250,
		MomentumSwitchIter: 250,
		Momentum:           0.5,
		FinalMomentum:      0.8,
		LearningRate:       200,
		Exaggeration:       12,
		MinGain:            0.01,
		ReportEvery:        50,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.OutputDims < 1 {
		return fmt.Errorf("tsne: OutputDims must be >= 1, got %d", cfg.OutputDims)
	}
	if cfg.Perplexity <= 0 || math.IsNaN(cfg.Perplexity) {
		return fmt.Errorf("tsne: Perplexity must be > 0, got %f", cfg.Perplexity)
	}
	if cfg.Theta < 0 || cfg.Theta > 1 || math.IsNaN(cfg.Theta) {
		return fmt.Errorf("tsne: Theta must be in [0, 1], got %f", cfg.Theta)
	}
	switch cfg.Algorithm {
	case AlgorithmAuto, AlgorithmExact, AlgorithmBarnesHut, AlgorithmBarnesHutThreshold:
		// valid
	default:
		return fmt.Errorf("tsne: invalid Algorithm %q", cfg.Algorithm)
	}
	if cfg.NeighborK < 0 {
		return fmt.Errorf("tsne: NeighborK must be >= 0 (0 means 3*Perplexity), got %d", cfg.NeighborK)
	}
	if cfg.Threshold <= 0 {
		return fmt.Errorf("tsne: Threshold must be > 0, got %f", cfg.Threshold)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && m.P < 1 {
		return fmt.Errorf("tsne: MinkowskiMetric P must be >= 1, got %f", m.P)
	}
	if cfg.MaxIter < 1 {
		return fmt.Errorf("tsne: MaxIter must be >= 1, got %d", cfg.MaxIter)
	}
	if cfg.StopLyingIter < 0 || cfg.MomentumSwitchIter < 0 {
		return fmt.Errorf("tsne: StopLyingIter and MomentumSwitchIter must be >= 0, got %d and %d",
			cfg.StopLyingIter, cfg.MomentumSwitchIter)
	}
	if cfg.Momentum < 0 || cfg.Momentum >= 1 || cfg.FinalMomentum < 0 || cfg.FinalMomentum >= 1 {
		return fmt.Errorf("tsne: Momentum and FinalMomentum must be in [0, 1), got %f and %f",
			cfg.Momentum, cfg.FinalMomentum)
	}
	if cfg.LearningRate <= 0 {
		return fmt.Errorf("tsne: LearningRate must be > 0, got %f", cfg.LearningRate)
	}
	if cfg.Exaggeration <= 0 {
		return fmt.Errorf("tsne: Exaggeration must be > 0, got %f", cfg.Exaggeration)
	}
	if cfg.MinGain <= 0 {
		return fmt.Errorf("tsne: MinGain must be > 0, got %f", cfg.MinGain)
	}
	if cfg.ReportEvery < 1 {
		return fmt.Errorf("tsne: ReportEvery must be >= 1, got %d", cfg.ReportEvery)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
// Fields whose zero value is meaningful (Theta, Momentum, StopLyingIter, ...)
// are left alone.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.OutputDims == 0 {
		cfg.OutputDims = def.OutputDims
	}
	if cfg.Perplexity == 0 {
		cfg.Perplexity = def.Perplexity
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmAuto
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = def.MaxIter
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Exaggeration == 0 {
		cfg.Exaggeration = def.Exaggeration
	}
	if cfg.MinGain == 0 {
		cfg.MinGain = def.MinGain
	}
	if cfg.ReportEvery == 0 {
		cfg.ReportEvery = def.ReportEvery
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}
}

// neighborK returns the neighborhood size used by AlgorithmBarnesHut.
func (cfg *Config) neighborK() int {
	if cfg.NeighborK > 0 {
		return cfg.NeighborK
	}
	return int(3 * cfg.Perplexity)
}

// prepare applies defaults, validates cfg, resolves the algorithm and checks
// the context, in that order, before any work is done.
func prepare(ctx context.Context, cfg *Config) (Algorithm, error) {
	applyDefaults(cfg)
	if err := validateConfig(cfg); err != nil {
		return "", err
	}
	algo, err := selectAlgorithm(*cfg)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return algo, nil
}

// Embed computes a t-SNE embedding of data. Each element is a point; all
// points must have the same dimensionality. data is not modified.
//
// The context is checked once before any work starts; a run in progress is
// not interrupted.
func Embed(ctx context.Context, data [][]float64, cfg Config) (*Result, error) {
	algo, err := prepare(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	n := len(data)
	if n == 0 {
		return &Result{Embedding: [][]float64{}, Algorithm: algo}, nil
	}

	dims := len(data[0])
	flat := make([]float64, n*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), dims)
		}
		copy(flat[i*dims:], row)
	}
	if dims == 0 {
		return nil, fmt.Errorf("%w: points have no features", ErrDimensionMismatch)
	}

	y := make([]float64, n*cfg.OutputDims)
	cost := run(flat, n, dims, y, &cfg, algo)

	embedding := make([][]float64, n)
	for i := range embedding {
		embedding[i] = y[i*cfg.OutputDims : (i+1)*cfg.OutputDims : (i+1)*cfg.OutputDims]
	}
	return &Result{Embedding: embedding, KLDivergence: cost, Algorithm: algo}, nil
}

// EmbedFlat computes a t-SNE embedding of flat row-major data with n rows and
// dims columns and writes it into y, which must have length
// n*cfg.OutputDims (after defaults). data is not modified. It returns the KL
// divergence of the final embedding.
func EmbedFlat(ctx context.Context, data []float64, n, dims int, y []float64, cfg Config) (float64, error) {
	algo, err := prepare(ctx, &cfg)
	if err != nil {
		return 0, err
	}
	if n < 0 || dims < 1 || len(data) != n*dims {
		return 0, fmt.Errorf("%w: data length %d does not match n*dims = %d (n=%d, dims=%d)",
			ErrDimensionMismatch, len(data), n*dims, n, dims)
	}
	if len(y) != n*cfg.OutputDims {
		return 0, fmt.Errorf("%w: output length %d does not match n*OutputDims = %d",
			ErrDimensionMismatch, len(y), n*cfg.OutputDims)
	}
	if n == 0 {
		return 0, nil
	}

	x := make([]float64, len(data))
	copy(x, data)
	return run(x, n, dims, y, &cfg, algo), nil
}

// run executes the full pipeline on x, which it normalizes in place, and
// writes the embedding into y.
func run(x []float64, n, dims int, y []float64, cfg *Config, algo Algorithm) float64 {
	if n == 1 {
		for i := range y {
			y[i] = 0
		}
		return 0
	}

	var obj objective
	timed(cfg.Reporter, "input similarities", func() {
		normalizeInput(x, n, dims)
		b := &AffinityBuilder{
			Data:       x,
			N:          n,
			Dims:       dims,
			Perplexity: cfg.Perplexity,
			Metric:     cfg.Metric,
			Workers:    cfg.Workers,
			Seed:       cfg.Seed,
			Reporter:   cfg.Reporter,
		}
		obj = newObjective(b, cfg, algo)

		// Early exaggeration, undone at StopLyingIter.
		obj.affinity().Scale(cfg.Exaggeration)
		initEmbedding(y, cfg.Seed)
	})

	opt := newOptimizer(obj, y, n, cfg.OutputDims, cfg)
	timed(cfg.Reporter, "main loop", opt.run)
	return opt.finalCost()
}

func newObjective(b *AffinityBuilder, cfg *Config, algo Algorithm) objective {
	switch algo {
	case AlgorithmBarnesHut:
		return &barnesHutObjective{p: b.KNN(cfg.neighborK()), n: b.N, theta: cfg.Theta, workers: cfg.Workers}
	case AlgorithmBarnesHutThreshold:
		return &barnesHutObjective{p: b.Threshold(cfg.Threshold), n: b.N, theta: cfg.Theta, workers: cfg.Workers}
	default:
		return &exactObjective{p: b.Dense(), n: b.N, dims: cfg.OutputDims, workers: cfg.Workers}
	}
}

// normalizeInput centers every column of x on zero and divides all values by
// the largest absolute coefficient.
func normalizeInput(x []float64, n, dims int) {
	m := mat.NewDense(n, dims, x)
	col := make([]float64, n)
	for j := 0; j < dims; j++ {
		mat.Col(col, j, m)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			x[i*dims+j] -= mean
		}
	}

	if scale := math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x))); scale > 0 {
		floats.Scale(1/scale, x)
	}
}

// initEmbedding fills y with small Gaussian noise so that no two points start
// at the same place.
func initEmbedding(y []float64, seed uint64) {
	dist := distuv.Normal{Mu: 0, Sigma: 1e-4, Src: rand.NewPCG(seed, seed+1)}
	for i := range y {
		y[i] = dist.Rand()
	}
}
