package tsne

import (
	"container/heap"
	"math"
)

// NeighborIndex answers k-nearest-neighbor queries over a fixed point set.
// Both indexes return neighbors sorted by ascending distance.
type NeighborIndex interface {
	// Search returns up to k nearest points to query and their distances.
	Search(query []float64, k int) (indices []int, distances []float64)

	// Len returns the number of indexed points.
	Len() int
}

var (
	_ NeighborIndex = (*VPTree)(nil)
	_ NeighborIndex = (*BruteForceIndex)(nil)
)

// BruteForceIndex answers neighbor queries with a linear scan. It is the
// reference the tree is checked against and is competitive for tiny inputs.
type BruteForceIndex struct {
	data   []float64
	n      int
	dims   int
	metric DistanceMetric
}

// NewBruteForceIndex wraps flat row-major data without copying it.
func NewBruteForceIndex(data []float64, n, dims int, metric DistanceMetric) *BruteForceIndex {
	if metric == nil {
		metric = EuclideanMetric{}
	}
	return &BruteForceIndex{data: data, n: n, dims: dims, metric: metric}
}

// Len returns the number of indexed points.
func (b *BruteForceIndex) Len() int { return b.n }

// Search returns the k points nearest to query by linear scan, sorted by
// ascending distance.
func (b *BruteForceIndex) Search(query []float64, k int) ([]int, []float64) {
	if b.n == 0 || k <= 0 {
		return []int{}, []float64{}
	}
	k = min(k, b.n)

	h := make(knnHeap, 0, k)
	tau := math.Inf(1)
	for i := 0; i < b.n; i++ {
		d := b.metric.Distance(query, b.data[i*b.dims:(i+1)*b.dims])
		if h.Len() < k {
			heap.Push(&h, knnItem{index: i, dist: d})
		} else if d < tau {
			h[0] = knnItem{index: i, dist: d}
			heap.Fix(&h, 0)
		}
		if h.Len() == k {
			tau = h[0].dist
		}
	}

	indices := make([]int, h.Len())
	distances := make([]float64, h.Len())
	for i := len(indices) - 1; i >= 0; i-- {
		item := heap.Pop(&h).(knnItem)
		indices[i] = item.index
		distances[i] = item.dist
	}
	return indices, distances
}

// neighborsExcluding queries idx for the k nearest neighbors of point self,
// dropping self from the result. Duplicated points can push self out of
// position 0, so it is removed by index rather than by rank.
func neighborsExcluding(idx NeighborIndex, query []float64, self, k int) ([]int, []float64) {
	indices, distances := idx.Search(query, k+1)
	outIdx := make([]int, 0, k)
	outDist := make([]float64, 0, k)
	for j, i := range indices {
		if i == self || len(outIdx) == k {
			continue
		}
		outIdx = append(outIdx, i)
		outDist = append(outDist, distances[j])
	}
	return outIdx, outDist
}
