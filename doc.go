// Package tsne implements t-distributed Stochastic Neighbor Embedding (t-SNE)
// with the Barnes-Hut approximation.
//
// t-SNE maps high-dimensional points to a low-dimensional embedding in which
// points that are close in the input stay close. It calibrates a Gaussian
// kernel per point to a target perplexity, builds symmetric input
// similarities P, and minimizes KL(P‖Q) against a Student-t kernel Q over the
// embedding by gradient descent with momentum, adaptive gains and early
// exaggeration.
//
// Basic usage:
//
//	cfg := tsne.DefaultConfig()
//	cfg.Perplexity = 30
//	result, err := tsne.Embed(ctx, data, cfg)
//	// result.Embedding[i] is the 2-D position of point i
//	// result.KLDivergence is the cost of the final embedding
//
// For flat row-major input and a caller-owned output buffer:
//
//	y := make([]float64, n*cfg.OutputDims)
//	cost, err := tsne.EmbedFlat(ctx, flat, n, dims, y, cfg)
//
// # Algorithm selection
//
// By default (Algorithm: "auto"), Theta decides: 0 runs the exact O(n²)
// algorithm, anything larger runs Barnes-Hut-SNE, which builds P from each
// point's 3·perplexity nearest neighbors (found with a vantage-point tree) and
// approximates repulsive forces with a quadtree in O(n log n). Barnes-Hut only
// supports two output dimensions. Set Config.Algorithm to force a strategy:
//
//	cfg.Algorithm = tsne.AlgorithmExact              // dense P, exact gradient
//	cfg.Algorithm = tsne.AlgorithmBarnesHut          // kNN P, quadtree gradient
//	cfg.Algorithm = tsne.AlgorithmBarnesHutThreshold // thresholded P, quadtree gradient
//
// # Progress
//
// Config.Reporter receives the KL divergence every Config.ReportEvery
// iterations, phase timings and non-fatal diagnostics. NewSlogReporter adapts
// a *slog.Logger.
package tsne
