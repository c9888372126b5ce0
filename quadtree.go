package tsne

import "math"

// qtDims is the only embedding dimensionality the quadtree supports.
const qtDims = 2

// QuadTree is a Barnes-Hut space partitioning of a 2-D embedding. Every node
// covers an axis-aligned box and tracks how many points fall inside it and
// their center of mass, so that a distant group of points can be treated as
// one body when computing repulsive forces.
//
// Nodes are stored in an arena:
//   - a node's four children are contiguous, starting at child
//   - a leaf holds at most one distinct point; exact duplicates of that point
//     are folded into its count and center of mass
type QuadTree struct {
	y     []float64 // embedding, flat row-major n*2
	nodes []qtNode
}

type qtNode struct {
	cx, cy float64 // box center
	hw, hh float64 // box half-width and half-height
	count  int
	com    [qtDims]float64
	index  int // stored point, -1 if none
	child  int // first of four children, -1 for a leaf
}

func (nd *qtNode) isLeaf() bool { return nd.child < 0 }

func (nd *qtNode) contains(px, py float64) bool {
	return nd.cx-nd.hw <= px && px <= nd.cx+nd.hw &&
		nd.cy-nd.hh <= py && py <= nd.cy+nd.hh
}

// NewQuadTree builds a tree over the n points of y (flat, two coordinates per
// point). The root box is centered on the mean and padded slightly so that
// every point lies strictly inside it.
func NewQuadTree(y []float64, n int) *QuadTree {
	t := &QuadTree{y: y, nodes: make([]qtNode, 0, 2*n+1)}

	var mean [qtDims]float64
	minY := [qtDims]float64{math.Inf(1), math.Inf(1)}
	maxY := [qtDims]float64{math.Inf(-1), math.Inf(-1)}
	for i := 0; i < n; i++ {
		for d := 0; d < qtDims; d++ {
			v := y[i*qtDims+d]
			mean[d] += v
			minY[d] = min(minY[d], v)
			maxY[d] = max(maxY[d], v)
		}
	}
	for d := range mean {
		if n > 0 {
			mean[d] /= float64(n)
		}
	}

	root := qtNode{cx: mean[0], cy: mean[1], index: -1, child: -1}
	if n > 0 {
		root.hw = max(maxY[0]-mean[0], mean[0]-minY[0]) + 1e-5
		root.hh = max(maxY[1]-mean[1], mean[1]-minY[1]) + 1e-5
	}
	t.nodes = append(t.nodes, root)

	for i := 0; i < n; i++ {
		t.insert(0, i)
	}
	return t
}

// Count returns the number of points accounted for by the root.
func (t *QuadTree) Count() int { return t.nodes[0].count }

// CenterOfMass returns the root's center of mass.
func (t *QuadTree) CenterOfMass() [qtDims]float64 { return t.nodes[0].com }

func (t *QuadTree) point(i int) (float64, float64) {
	return t.y[i*qtDims], t.y[i*qtDims+1]
}

// insert adds point i to the subtree rooted at id. It reports false if the
// point lies outside the node's box.
func (t *QuadTree) insert(id, i int) bool {
	px, py := t.point(i)
	nd := &t.nodes[id]
	if !nd.contains(px, py) {
		return false
	}

	nd.count++
	m1 := float64(nd.count-1) / float64(nd.count)
	m2 := 1 / float64(nd.count)
	nd.com[0] = nd.com[0]*m1 + px*m2
	nd.com[1] = nd.com[1]*m1 + py*m2

	if nd.isLeaf() {
		if nd.index < 0 {
			nd.index = i
			return true
		}
		if sx, sy := t.point(nd.index); sx == px && sy == py {
			return true
		}
		// nd.count already includes point i.
		t.subdivide(id, nd.count-1)
	}

	first := t.nodes[id].child
	for c := 0; c < 4; c++ {
		if t.insert(first+c, i) {
			return true
		}
	}
	return false
}

// subdivide splits a leaf into four quadrants and moves its stored point,
// together with the weight duplicates of it, into the matching child.
func (t *QuadTree) subdivide(id, weight int) {
	nd := t.nodes[id]
	hw, hh := nd.hw/2, nd.hh/2
	first := len(t.nodes)
	for _, off := range [4][2]float64{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		t.nodes = append(t.nodes, qtNode{
			cx:    nd.cx + off[0]*hw,
			cy:    nd.cy + off[1]*hh,
			hw:    hw,
			hh:    hh,
			index: -1,
			child: -1,
		})
	}
	t.nodes[id].child = first
	t.nodes[id].index = -1

	sx, sy := t.point(nd.index)
	for c := 0; c < 4; c++ {
		child := &t.nodes[first+c]
		if child.contains(sx, sy) {
			child.index = nd.index
			child.count = weight
			child.com = [qtDims]float64{sx, sy}
			break
		}
	}
}

// EdgeForces accumulates the attractive force on every point from its stored
// affinities: posF[i] += Σ_j P_ij · (1+‖yi−yj‖²)⁻¹ · (yi−yj). The tree is not
// consulted.
func (t *QuadTree) EdgeForces(p *SparseAffinity, posF []float64) {
	t.edgeForces(p, posF, 0, p.N())
}

func (t *QuadTree) edgeForces(p *SparseAffinity, posF []float64, start, end int) {
	for i := start; i < end; i++ {
		xi, yi := t.point(i)
		for k := p.RowPtr[i]; k < p.RowPtr[i+1]; k++ {
			xj, yj := t.point(p.Cols[k])
			dx, dy := xi-xj, yi-yj
			q := p.Vals[k] / (1 + dx*dx + dy*dy)
			posF[i*qtDims] += q * dx
			posF[i*qtDims+1] += q * dy
		}
	}
}

// NonEdgeForces accumulates the repulsive force on point i into negF (length
// 2) and returns point i's contribution to the normalization Σ q. A node is
// summarized as a single body at its center of mass when it is a leaf or when
// its largest half-extent divided by its distance from point i is below theta.
// theta = 0 never summarizes an internal node and gives the exact force.
func (t *QuadTree) NonEdgeForces(i int, theta float64, negF []float64) float64 {
	var sumQ float64
	t.nonEdgeForces(0, i, theta, negF, &sumQ)
	return sumQ
}

func (t *QuadTree) nonEdgeForces(id, i int, theta float64, negF []float64, sumQ *float64) {
	nd := &t.nodes[id]
	if nd.count == 0 {
		return
	}
	px, py := t.point(i)

	if nd.isLeaf() {
		// Every point in a leaf sits exactly on the stored one.
		sx, sy := t.point(nd.index)
		dx, dy := px-sx, py-sy
		count := float64(nd.count)
		if nd.index == i || (dx == 0 && dy == 0) {
			// Point i itself, plus any exact duplicates at zero distance:
			// they add to Σq but exert no force.
			*sumQ += count - 1
			return
		}
		q := 1 / (1 + dx*dx + dy*dy)
		*sumQ += count * q
		negF[0] += count * q * q * dx
		negF[1] += count * q * q * dy
		return
	}

	dx, dy := px-nd.com[0], py-nd.com[1]
	d2 := dx*dx + dy*dy
	if maxWidth := max(nd.hw, nd.hh); maxWidth/math.Sqrt(d2) < theta {
		q := 1 / (1 + d2)
		mult := float64(nd.count) * q
		*sumQ += mult
		mult *= q
		negF[0] += mult * dx
		negF[1] += mult * dy
		return
	}

	first := nd.child
	for c := 0; c < 4; c++ {
		t.nonEdgeForces(first+c, i, theta, negF, sumQ)
	}
}
