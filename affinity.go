package tsne

import (
	"gonum.org/v1/gonum/floats"
)

// DenseAffinity is an n×n input similarity matrix stored flat in row-major
// order. After construction it is symmetric and sums to 1; diagonal entries
// hold a negligible positive floor rather than zero.
type DenseAffinity struct {
	N int
	P []float64
}

// Sum returns the total weight of the matrix.
func (a *DenseAffinity) Sum() float64 { return floats.Sum(a.P) }

// Scale multiplies every weight by c.
func (a *DenseAffinity) Scale(c float64) { floats.Scale(c, a.P) }

// SparseAffinity is a row-compressed (CSR) input similarity matrix. Row i's
// entries are Cols[RowPtr[i]:RowPtr[i+1]] with weights at the same positions
// in Vals. RowPtr has length N+1 and is non-decreasing.
type SparseAffinity struct {
	RowPtr []int
	Cols   []int
	Vals   []float64
}

// N returns the number of rows.
func (s *SparseAffinity) N() int { return len(s.RowPtr) - 1 }

// NNZ returns the number of stored entries.
func (s *SparseAffinity) NNZ() int { return s.RowPtr[len(s.RowPtr)-1] }

// Sum returns the total stored weight.
func (s *SparseAffinity) Sum() float64 { return floats.Sum(s.Vals) }

// Scale multiplies every stored weight by c.
func (s *SparseAffinity) Scale(c float64) { floats.Scale(c, s.Vals) }

// find returns the position of column col in row, if stored.
func (s *SparseAffinity) find(row, col int) (int, bool) {
	for p := s.RowPtr[row]; p < s.RowPtr[row+1]; p++ {
		if s.Cols[p] == col {
			return p, true
		}
	}
	return 0, false
}

// Symmetrize returns P_sym = (P + Pᵀ) / 2 in CSR form. Entries present in
// both directions are summed; one-directional entries are mirrored. A first
// pass counts the exact degree of every output row so the result arrays are
// allocated once. Total weight is preserved, and an already symmetric
// matrix comes back unchanged.
func (s *SparseAffinity) Symmetrize() *SparseAffinity {
	n := s.N()

	rowCounts := make([]int, n)
	for i := 0; i < n; i++ {
		for p := s.RowPtr[i]; p < s.RowPtr[i+1]; p++ {
			j := s.Cols[p]
			rowCounts[i]++
			if _, ok := s.find(j, i); !ok {
				rowCounts[j]++
			}
		}
	}

	sym := &SparseAffinity{RowPtr: make([]int, n+1)}
	for i := 0; i < n; i++ {
		sym.RowPtr[i+1] = sym.RowPtr[i] + rowCounts[i]
	}
	nnz := sym.RowPtr[n]
	sym.Cols = make([]int, nnz)
	sym.Vals = make([]float64, nnz)

	offset := make([]int, n)
	place := func(row, col int, v float64) {
		at := sym.RowPtr[row] + offset[row]
		sym.Cols[at] = col
		sym.Vals[at] = v
		offset[row]++
	}

	for i := 0; i < n; i++ {
		for p := s.RowPtr[i]; p < s.RowPtr[i+1]; p++ {
			j := s.Cols[p]
			q, present := s.find(j, i)
			switch {
			case !present:
				place(i, j, s.Vals[p])
				place(j, i, s.Vals[p])
			case i <= j:
				// Written once, from the lower-indexed row.
				v := s.Vals[p] + s.Vals[q]
				place(i, j, v)
				if j != i {
					place(j, i, v)
				}
			}
		}
	}

	floats.Scale(0.5, sym.Vals)
	return sym
}

// AffinityBuilder computes input similarities P from raw feature vectors by
// calibrating a Gaussian kernel per point to a target perplexity.
type AffinityBuilder struct {
	// Data is flat row-major with N rows and Dims columns. It is read, never
	// modified.
	Data []float64
	N    int
	Dims int

	Perplexity float64

	// Metric measures distances in the input space; its square feeds the
	// kernel. Nil means EuclideanMetric.
	Metric DistanceMetric

	// Workers is the number of goroutines calibrating rows. <= 1 runs serially.
	Workers int

	// Seed drives vantage point selection in KNN.
	Seed uint64

	// Reporter receives diagnostics. Nil discards them.
	Reporter Reporter
}

func (b *AffinityBuilder) metric() DistanceMetric {
	if b.Metric == nil {
		return EuclideanMetric{}
	}
	return b.Metric
}

func (b *AffinityBuilder) reporter() Reporter {
	if b.Reporter == nil {
		return nopReporter{}
	}
	return b.Reporter
}

func (b *AffinityBuilder) row(i int) []float64 {
	return b.Data[i*b.Dims : (i+1)*b.Dims]
}

// squaredDistancesFrom writes the squared metric distance from point i to
// every point into dst.
func (b *AffinityBuilder) squaredDistancesFrom(i int, dst []float64) {
	m := b.metric()
	xi := b.row(i)
	for j := 0; j < b.N; j++ {
		if isEuclidean(m) {
			dst[j] = squaredEuclidean(xi, b.row(j))
			continue
		}
		d := m.Distance(xi, b.row(j))
		dst[j] = d * d
	}
}

// Dense computes the full n×n affinity matrix: every point's kernel is
// calibrated over all other points, then P = (P + Pᵀ) / ΣP.
func (b *AffinityBuilder) Dense() *DenseAffinity {
	n := b.N
	if n > 1 && b.Perplexity >= float64(n-1) {
		b.reporter().Diagnostic("perplexity %g should be lower than the neighborhood size %d", b.Perplexity, n-1)
	}

	var dist []float64
	if isEuclidean(b.metric()) {
		dist = SquaredEuclideanDistances(b.Data, n, b.Dims)
	} else {
		dist = ComputePairwiseDistancesParallel(b.Data, n, b.Dims, b.metric(), b.Workers)
		for i, d := range dist {
			dist[i] = d * d
		}
	}

	p := make([]float64, n*n)
	parallelRows(n, b.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			calibrateRow(dist[i*n:(i+1)*n], i, b.Perplexity, p[i*n:(i+1)*n])
		}
	})

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := p[i*n+j] + p[j*n+i]
			p[i*n+j] = v
			p[j*n+i] = v
		}
	}
	if sum := floats.Sum(p); sum > 0 {
		floats.Scale(1/sum, p)
	}
	return &DenseAffinity{N: n, P: p}
}

// KNN computes a sparse affinity over each point's k nearest neighbors,
// found with a vantage-point tree. k is clamped to N-1. The result is
// symmetrized and normalized to sum 1.
func (b *AffinityBuilder) KNN(k int) *SparseAffinity {
	tree := NewVPTree(b.Data, b.N, b.Dims, b.metric(), b.Seed)
	return b.knn(tree, k)
}

func (b *AffinityBuilder) knn(idx NeighborIndex, k int) *SparseAffinity {
	n := b.N
	k = max(min(k, n-1), 0)
	if b.Perplexity > float64(k) {
		b.reporter().Diagnostic("perplexity %g should be lower than K=%d", b.Perplexity, k)
	}

	p := &SparseAffinity{
		RowPtr: make([]int, n+1),
		Cols:   make([]int, n*k),
		Vals:   make([]float64, n*k),
	}
	for i := 0; i < n; i++ {
		p.RowPtr[i+1] = p.RowPtr[i] + k
	}

	parallelRows(n, b.Workers, func(start, end int) {
		dist := make([]float64, k)
		for i := start; i < end; i++ {
			indices, distances := neighborsExcluding(idx, b.row(i), i, k)
			for j, d := range distances {
				dist[j] = d * d
			}
			at := p.RowPtr[i]
			calibrateRow(dist[:len(indices)], -1, b.Perplexity, p.Vals[at:at+len(indices)])
			copy(p.Cols[at:], indices)
		}
	})

	return normalized(p.Symmetrize())
}

// Threshold computes a sparse affinity that keeps, for every point, the
// entries of its fully calibrated row with weight above threshold/N. Rows
// are scanned twice: once to size the CSR arrays and once to fill them.
// The result is symmetrized and normalized to sum 1.
func (b *AffinityBuilder) Threshold(threshold float64) *SparseAffinity {
	n := b.N
	if n > 1 && b.Perplexity >= float64(n-1) {
		b.reporter().Diagnostic("perplexity %g should be lower than the neighborhood size %d", b.Perplexity, n-1)
	}
	cut := threshold / float64(n)

	// scan calibrates row i into cur and calls keep for every retained entry.
	scan := func(i int, dist, cur []float64, keep func(j int, v float64)) {
		b.squaredDistancesFrom(i, dist)
		calibrateRow(dist, i, b.Perplexity, cur)
		for j, v := range cur {
			if j != i && v > cut {
				keep(j, v)
			}
		}
	}

	counts := make([]int, n)
	parallelRows(n, b.Workers, func(start, end int) {
		dist := make([]float64, n)
		cur := make([]float64, n)
		for i := start; i < end; i++ {
			scan(i, dist, cur, func(int, float64) { counts[i]++ })
		}
	})

	p := &SparseAffinity{RowPtr: make([]int, n+1)}
	for i := 0; i < n; i++ {
		p.RowPtr[i+1] = p.RowPtr[i] + counts[i]
	}
	p.Cols = make([]int, p.RowPtr[n])
	p.Vals = make([]float64, p.RowPtr[n])

	parallelRows(n, b.Workers, func(start, end int) {
		dist := make([]float64, n)
		cur := make([]float64, n)
		for i := start; i < end; i++ {
			at := p.RowPtr[i]
			scan(i, dist, cur, func(j int, v float64) {
				p.Cols[at] = j
				p.Vals[at] = v
				at++
			})
		}
	})

	return normalized(p.Symmetrize())
}

func normalized(p *SparseAffinity) *SparseAffinity {
	if sum := p.Sum(); sum > 0 {
		p.Scale(1 / sum)
	}
	return p
}
