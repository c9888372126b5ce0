package tsne

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DistanceMetric measures the distance between two feature vectors.
// Metrics used for neighbor search must satisfy the triangle inequality,
// otherwise vantage-point pruning can drop true neighbors.
type DistanceMetric interface {
	Distance(a, b []float64) float64
}

// DistanceFunc adapts a plain function into a DistanceMetric.
type DistanceFunc func(a, b []float64) float64

func (f DistanceFunc) Distance(a, b []float64) float64 { return f(a, b) }

// EuclideanMetric computes the Euclidean (L2) distance.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 {
	return math.Sqrt(squaredEuclidean(a, b))
}

func squaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// ManhattanMetric computes the Manhattan (L1 / city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 {
	var maxVal float64
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

// MinkowskiMetric computes the Minkowski distance parameterized by P.
// P must be >= 1. Panics if P < 1.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Distance(a, b []float64) float64 {
	if m.P < 1 {
		panic("MinkowskiMetric: P must be >= 1")
	}
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), m.P)
	}
	return math.Pow(sum, 1.0/m.P)
}

// isEuclidean reports whether m can be served by the dot-product expansion.
func isEuclidean(m DistanceMetric) bool {
	_, ok := m.(EuclideanMetric)
	return ok
}

// ComputePairwiseDistances computes the full n*n distance matrix.
// data is flat row-major with n rows and dims columns.
// Returns flat []float64 of length n*n.
func ComputePairwiseDistances(data []float64, n, dims int, metric DistanceMetric) []float64 {
	result := make([]float64, n*n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := metric.Distance(data[i*dims:(i+1)*dims], data[j*dims:(j+1)*dims])
			result[i*n+j] = d
			result[j*n+i] = d
		}
	}

	return result
}

// SquaredEuclideanDistances returns the flat n*n matrix of squared Euclidean
// distances between the rows of data, computed as ‖a‖² + ‖b‖² − 2·a·b from a
// single Gram matrix product. Negative values produced by cancellation are
// clamped to zero and the diagonal is exactly zero.
func SquaredEuclideanDistances(data []float64, n, dims int) []float64 {
	result := make([]float64, n*n)
	if n == 0 || dims == 0 {
		return result
	}

	x := mat.NewDense(n, dims, data)
	var gram mat.SymDense
	gram.SymOuterK(1, x)

	norms := make([]float64, n)
	for i := range norms {
		norms[i] = gram.At(i, i)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := norms[i] + norms[j] - 2*gram.At(i, j)
			if d < 0 {
				d = 0
			}
			result[i*n+j] = d
			result[j*n+i] = d
		}
	}
	return result
}
