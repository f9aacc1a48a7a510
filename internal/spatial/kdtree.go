// Package spatial implements the KD-tree nearest-node index used to snap a
// query coordinate onto the graph.
//
// No KD-tree package appears anywhere in the retrieved corpus (see
// DESIGN.md); this is the one component built on sort.Slice and plain
// recursion rather than a third-party library.
//
// Determinism: Build is deterministic for a given input order (each subset
// is sorted on the split axis with sort.Slice, which is not itself a stable
// sort, and split at its middle element; ties are broken by node index so
// repeated builds of the same input produce an identical tree).
package spatial

import (
	"math"
	"sort"

	"github.com/taro-routing/taro/internal/topology"
)

type kdNode struct {
	nodeID      int
	point       topology.Coordinate
	axis        int
	left, right int // indices into Index.nodes; -1 if absent
}

// Index is an immutable 2-D KD-tree over a fixed set of (nodeID, coordinate)
// pairs, built once at startup and never mutated.
type Index struct {
	nodes []kdNode
	root  int
}

// Build constructs a KD-tree over coords, where coords[i] is node i's
// coordinate. Nodes without a meaningful coordinate should be excluded by
// the caller before calling Build (spatial has no notion of "no
// coordinate").
func Build(coords []topology.Coordinate) *Index {
	if len(coords) == 0 {
		return &Index{root: -1}
	}
	items := make([]kdNode, len(coords))
	order := make([]int, len(coords))
	for i, c := range coords {
		items[i] = kdNode{nodeID: i, point: c, left: -1, right: -1}
		order[i] = i
	}
	idx := &Index{nodes: make([]kdNode, len(coords))}
	idx.root = idx.build(items, order, 0)
	return idx
}

// build recursively partitions the order slice (indices into items) around
// the median on the current axis, writing the resulting tree into
// idx.nodes, and returns the index of the subtree root (-1 for empty).
func (idx *Index) build(items []kdNode, order []int, depth int) int {
	if len(order) == 0 {
		return -1
	}
	axis := depth % 2
	sort.Slice(order, func(i, j int) bool {
		a, b := items[order[i]], items[order[j]]
		va, vb := axisValue(a.point, axis), axisValue(b.point, axis)
		if va != vb {
			return va < vb
		}
		return a.nodeID < b.nodeID
	})

	mid := len(order) / 2
	medianItem := items[order[mid]]

	pos := len(idx.nodes)
	idx.nodes = append(idx.nodes, kdNode{
		nodeID: medianItem.nodeID,
		point:  medianItem.point,
		axis:   axis,
		left:   -1,
		right:  -1,
	})

	leftIdx := idx.build(items, order[:mid], depth+1)
	rightIdx := idx.build(items, order[mid+1:], depth+1)
	idx.nodes[pos].left = leftIdx
	idx.nodes[pos].right = rightIdx
	return pos
}

func axisValue(c topology.Coordinate, axis int) float64 {
	if axis == 0 {
		return c.X
	}
	return c.Y
}

// Nearest returns the node id whose coordinate has the smallest squared
// Euclidean distance to query, in the coordinate space the tree was built
// over, plus that squared distance. ok
// is false only when the index is empty.
func (idx *Index) Nearest(query topology.Coordinate) (nodeID int, distSq float64, ok bool) {
	if idx.root == -1 {
		return 0, 0, false
	}
	best := -1
	bestDist := math.Inf(1)
	idx.search(idx.root, query, &best, &bestDist)
	return idx.nodes[best].nodeID, bestDist, true
}

func (idx *Index) search(pos int, query topology.Coordinate, best *int, bestDist *float64) {
	if pos == -1 {
		return
	}
	n := &idx.nodes[pos]
	d := squaredEuclidean(n.point, query)
	if d < *bestDist {
		*bestDist = d
		*best = pos
	}

	diff := axisValue(query, n.axis) - axisValue(n.point, n.axis)
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	idx.search(near, query, best, bestDist)
	if diff*diff < *bestDist {
		idx.search(far, query, best, bestDist)
	}
}

func squaredEuclidean(a, b topology.Coordinate) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Empty reports whether the index has no points.
func (idx *Index) Empty() bool { return idx.root == -1 }
