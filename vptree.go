package tsne

import (
	"container/heap"
	"math"
	"math/rand/v2"
	"sort"
)

// VPTree is a vantage-point tree over a fixed point set. It answers exact
// k-nearest-neighbor queries under any DistanceMetric that satisfies the
// triangle inequality.
//
// Nodes are stored in an arena and refer to their children by index:
//   - each node holds one vantage point and a threshold radius
//   - the inside child holds points with distance <= threshold
//   - the outside child holds points with distance >= threshold
type VPTree struct {
	data   []float64 // flat row-major point data (n * dims)
	n      int
	dims   int
	metric DistanceMetric
	items  []int    // point indices, reordered during the build
	nodes  []vpNode // arena; nodes[root] is the root
	root   int
	rng    *rand.Rand
}

type vpNode struct {
	index     int     // original point index of the vantage point
	threshold float64 // median distance from the vantage point
	inside    int     // child arena index, -1 if none
	outside   int     // child arena index, -1 if none
}

// NewVPTree builds a vantage-point tree over n points of dimensionality dims
// stored flat in data. The data slice is referenced, not copied. seed drives
// vantage point selection.
func NewVPTree(data []float64, n, dims int, metric DistanceMetric, seed uint64) *VPTree {
	if metric == nil {
		metric = EuclideanMetric{}
	}
	t := &VPTree{
		data:   data,
		n:      n,
		dims:   dims,
		metric: metric,
		items:  make([]int, n),
		nodes:  make([]vpNode, 0, n),
		root:   -1,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for i := range t.items {
		t.items[i] = i
	}
	t.root = t.build(0, n)
	return t
}

func (t *VPTree) point(i int) []float64 {
	return t.data[i*t.dims : (i+1)*t.dims]
}

// build constructs the subtree for items[lower:upper] and returns its arena index.
func (t *VPTree) build(lower, upper int) int {
	if upper == lower {
		return -1
	}

	id := len(t.nodes)
	t.nodes = append(t.nodes, vpNode{inside: -1, outside: -1})

	if upper-lower > 1 {
		// Move a random vantage point to the front of the range.
		i := lower + t.rng.IntN(upper-lower)
		t.items[lower], t.items[i] = t.items[i], t.items[lower]
		vp := t.point(t.items[lower])

		// Order the rest by distance to the vantage point and split at the median.
		rest := t.items[lower+1 : upper]
		dist := make([]float64, len(rest))
		for j, idx := range rest {
			dist[j] = t.metric.Distance(vp, t.point(idx))
		}
		sort.Sort(byDistance{items: rest, dist: dist})

		median := (upper + lower) / 2
		threshold := dist[median-lower-1]

		inside := t.build(lower+1, median)
		outside := t.build(median, upper)
		t.nodes[id].threshold = threshold
		t.nodes[id].inside = inside
		t.nodes[id].outside = outside
	}
	t.nodes[id].index = t.items[lower]
	return id
}

// byDistance sorts a slice of point indices by a parallel distance slice.
type byDistance struct {
	items []int
	dist  []float64
}

func (s byDistance) Len() int           { return len(s.items) }
func (s byDistance) Less(i, j int) bool { return s.dist[i] < s.dist[j] }
func (s byDistance) Swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.dist[i], s.dist[j] = s.dist[j], s.dist[i]
}

// Len returns the number of points indexed by the tree.
func (t *VPTree) Len() int { return t.n }

// Search returns the k nearest points to query and their distances, both
// sorted by ascending distance. Fewer than k results are returned when the
// tree holds fewer than k points. Ties are broken arbitrarily.
func (t *VPTree) Search(query []float64, k int) (indices []int, distances []float64) {
	if t.root < 0 || k <= 0 {
		return []int{}, []float64{}
	}
	k = min(k, t.n)

	h := make(knnHeap, 0, k)
	tau := math.Inf(1)
	t.search(t.root, query, k, &h, &tau)

	nResults := h.Len()
	indices = make([]int, nResults)
	distances = make([]float64, nResults)
	for i := nResults - 1; i >= 0; i-- {
		item := heap.Pop(&h).(knnItem)
		indices[i] = item.index
		distances[i] = item.dist
	}
	return indices, distances
}

// search visits node and its subtrees, keeping the k best candidates in h.
// tau is the current k-th best distance (+Inf until h is full).
func (t *VPTree) search(id int, query []float64, k int, h *knnHeap, tau *float64) {
	if id < 0 {
		return
	}
	node := t.nodes[id]

	dist := t.metric.Distance(t.point(node.index), query)
	if dist < *tau {
		if h.Len() == k {
			heap.Pop(h)
		}
		heap.Push(h, knnItem{index: node.index, dist: dist})
		if h.Len() == k {
			*tau = (*h)[0].dist
		}
	}

	if node.inside < 0 && node.outside < 0 {
		return
	}

	// Descend first into the side the query falls on, then into the other
	// side only if the tau-ball crosses the threshold boundary.
	if dist < node.threshold {
		if dist-*tau <= node.threshold {
			t.search(node.inside, query, k, h, tau)
		}
		if dist+*tau >= node.threshold {
			t.search(node.outside, query, k, h, tau)
		}
	} else {
		if dist+*tau >= node.threshold {
			t.search(node.outside, query, k, h, tau)
		}
		if dist-*tau <= node.threshold {
			t.search(node.inside, query, k, h, tau)
		}
	}
}

// --- max-heap for KNN queries ---

type knnItem struct {
	index int
	dist  float64
}

// knnHeap is a max-heap of knnItem (largest distance on top) used as a
// bounded priority queue for KNN queries.
type knnHeap []knnItem

func (h knnHeap) Len() int           { return len(h) }
func (h knnHeap) Less(i, j int) bool { return h[i].dist > h[j].dist } // max-heap
func (h knnHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x any)        { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
