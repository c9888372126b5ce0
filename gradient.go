package tsne

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// minFloat32 is C's FLT_MIN, the floor used by the approximate cost.
const minFloat32 = 0x1p-126

// objective is the t-SNE cost for one affinity representation: it owns P and
// knows how to differentiate and evaluate KL(P‖Q) for an embedding.
type objective interface {
	// gradient writes ∂C/∂y into dC (same shape as y).
	gradient(y, dC []float64)

	// cost returns the KL divergence of the current embedding.
	cost(y []float64) float64

	// affinity exposes P for exaggeration and inspection.
	affinity() affinityMatrix
}

// affinityMatrix is the part of DenseAffinity and SparseAffinity the
// optimizer needs.
type affinityMatrix interface {
	Sum() float64
	Scale(c float64)
}

// exactObjective evaluates the O(n²) gradient over a dense P.
type exactObjective struct {
	p       *DenseAffinity
	n       int
	dims    int
	workers int
}

func (o *exactObjective) affinity() affinityMatrix { return o.p }

// studentT returns the unnormalized kernel q_ij = (1+‖yi−yj‖²)⁻¹ with a zero
// diagonal, and its sum.
func studentT(y []float64, n, dims int) (q []float64, sumQ float64) {
	q = SquaredEuclideanDistances(y, n, dims)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				q[i*n+j] = 0
				continue
			}
			q[i*n+j] = 1 / (1 + q[i*n+j])
			sumQ += q[i*n+j]
		}
	}
	return q, sumQ
}

// gradient computes dC_i = Σ_j (P_ij − q_ij/Σq) · q_ij · (y_i − y_j).
func (o *exactObjective) gradient(y, dC []float64) {
	n, dims := o.n, o.dims
	q, sumQ := studentT(y, n, dims)
	p := o.p.P

	for i := range dC {
		dC[i] = 0
	}
	parallelRows(n, o.workers, func(start, end int) {
		for i := start; i < end; i++ {
			gi := dC[i*dims : (i+1)*dims]
			yi := y[i*dims : (i+1)*dims]
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				mult := (p[i*n+j] - q[i*n+j]/sumQ) * q[i*n+j]
				yj := y[j*dims : (j+1)*dims]
				for d := range gi {
					gi[d] += (yi[d] - yj[d]) * mult
				}
			}
		}
	})
}

// cost returns Σ P_ij · log((P_ij+ε)/(Q_ij+ε)) with ε = 1e-9 over the full
// normalized Q.
func (o *exactObjective) cost(y []float64) float64 {
	n := o.n
	q, sumQ := studentT(y, n, o.dims)
	sumQ += minNormal

	var c float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			qij := q[i*n+j]
			if i == j {
				qij = minNormal
			}
			qij /= sumQ
			pij := o.p.P[i*n+j]
			c += pij * math.Log((pij+1e-9)/(qij+1e-9))
		}
	}
	return c
}

// barnesHutObjective approximates the gradient in O(n log n) with a
// quadtree over the 2-D embedding and a sparse P.
type barnesHutObjective struct {
	p       *SparseAffinity
	n       int
	theta   float64
	workers int
}

func (o *barnesHutObjective) affinity() affinityMatrix { return o.p }

// forces builds a quadtree over y and returns the attractive and repulsive
// force buffers with the per-point normalization terms reduced in order.
func (o *barnesHutObjective) forces(y []float64, withEdges bool) (posF, negF []float64, sumQ float64) {
	n := o.n
	tree := NewQuadTree(y, n)
	posF = make([]float64, n*qtDims)
	negF = make([]float64, n*qtDims)
	partial := make([]float64, n)

	parallelRows(n, o.workers, func(start, end int) {
		if withEdges {
			tree.edgeForces(o.p, posF, start, end)
		}
		for i := start; i < end; i++ {
			partial[i] = tree.NonEdgeForces(i, o.theta, negF[i*qtDims:(i+1)*qtDims])
		}
	})
	return posF, negF, floats.Sum(partial)
}

// gradient computes dC = posF − negF/Σq.
func (o *barnesHutObjective) gradient(y, dC []float64) {
	posF, negF, sumQ := o.forces(y, true)
	floats.AddScaledTo(dC, posF, -1/sumQ, negF)
}

// cost estimates KL(P‖Q) from the stored entries of P only. Σq comes from
// one tree pass over all points while each q_ij is exact, so the value is
// good for following a single run, not for comparing runs with different
// theta.
func (o *barnesHutObjective) cost(y []float64) float64 {
	_, _, sumQ := o.forces(y, false)

	var c float64
	for i := 0; i < o.n; i++ {
		yi := y[i*qtDims : (i+1)*qtDims]
		for k := o.p.RowPtr[i]; k < o.p.RowPtr[i+1]; k++ {
			yj := y[o.p.Cols[k]*qtDims : (o.p.Cols[k]+1)*qtDims]
			q := 1 / (1 + squaredEuclidean(yi, yj)) / sumQ
			v := o.p.Vals[k]
			c += v * math.Log((v+minFloat32)/(q+minFloat32))
		}
	}
	return c
}
