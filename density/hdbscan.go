package density

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minDistance bounds lambda = 1/distance for coincident points.
const minDistance = 1e-12

// Cluster labels the rows of x. Labels are contiguous from 0 in the order the
// clusters appear in the condensed hierarchy; unclustered points get Noise.
func Cluster(x mat.Matrix, p Params) ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if n < 2 {
		return labels, nil
	}

	dist := pairwiseDistances(x)
	core := coreDistances(dist, min(p.MinSamples, n-1))
	tree := singleLinkage(minimumSpanningTree(dist, core), n)
	condensed := condense(tree, n, p.MinClusterSize)
	selected := selectClusters(condensed, n)
	label(condensed, selected, n, labels)
	return labels, nil
}

func pairwiseDistances(x mat.Matrix) [][]float64 {
	n, d := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(make([]float64, d), i, x)
	}
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(rows[i], rows[j], 2)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// coreDistances returns, per point, the distance to its k-th nearest other point.
func coreDistances(dist [][]float64, k int) []float64 {
	core := make([]float64, len(dist))
	others := make([]float64, 0, len(dist))
	for i, row := range dist {
		others = others[:0]
		for j, d := range row {
			if j != i {
				others = append(others, d)
			}
		}
		slices.Sort(others)
		core[i] = others[k-1]
	}
	return core
}

type mstEdge struct {
	a, b   int
	weight float64
}

// minimumSpanningTree runs Prim's algorithm over mutual reachability
// distances, max(core[a], core[b], dist[a][b]). The edges are returned sorted
// by weight, keeping discovery order among equal weights.
func minimumSpanningTree(dist [][]float64, core []float64) []mstEdge {
	n := len(dist)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[0] = true
	for len(edges) < n-1 {
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			mr := math.Max(dist[current][j], math.Max(core[current], core[j]))
			if mr < best[j] {
				best[j] = mr
				from[j] = current
			}
			if next == -1 || best[j] < best[next] {
				next = j
			}
		}
		edges = append(edges, mstEdge{a: from[next], b: next, weight: best[next]})
		inTree[next] = true
		current = next
	}

	slices.SortStableFunc(edges, func(x, y mstEdge) int {
		switch {
		case x.weight < y.weight:
			return -1
		case x.weight > y.weight:
			return 1
		}
		return 0
	})
	return edges
}

// merge is one node of the single-linkage hierarchy. Leaves are 0..n-1 and
// merge i has node id n+i.
type merge struct {
	left, right int
	distance    float64
	size        int
}

type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, 2*n-1), size: make([]int, 2*n-1)}
	for i := range uf.parent {
		uf.parent[i] = i
		if i < n {
			uf.size[i] = 1
		}
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		uf.parent[x], x = root, uf.parent[x]
	}
	return root
}

// singleLinkage converts sorted spanning tree edges into a merge hierarchy.
func singleLinkage(edges []mstEdge, n int) []merge {
	uf := newUnionFind(n)
	tree := make([]merge, len(edges))
	for i, e := range edges {
		ra, rb := uf.find(e.a), uf.find(e.b)
		node := n + i
		size := uf.size[ra] + uf.size[rb]
		tree[i] = merge{left: ra, right: rb, distance: e.weight, size: size}
		uf.parent[ra] = node
		uf.parent[rb] = node
		uf.size[node] = size
	}
	return tree
}

// condensedEdge records a child (point or cluster) leaving parent cluster at lambda.
type condensedEdge struct {
	parent, child int
	lambda        float64
	size          int
}

// condense walks the hierarchy from the root and keeps only splits where both
// sides hold at least minSize points. Cluster ids start at n for the root.
func condense(tree []merge, n, minSize int) []condensedEdge {
	root := 2*n - 2
	nodeSize := func(node int) int {
		if node < n {
			return 1
		}
		return tree[node-n].size
	}
	children := func(node int) (int, int) {
		m := tree[node-n]
		return m.left, m.right
	}
	// subtree lists node and its descendants breadth first.
	subtree := func(node int) []int {
		out := []int{node}
		for i := 0; i < len(out); i++ {
			if out[i] >= n {
				l, r := children(out[i])
				out = append(out, l, r)
			}
		}
		return out
	}

	relabel := make([]int, 2*n-1)
	ignore := make([]bool, 2*n-1)
	relabel[root] = n
	nextLabel := n + 1

	var result []condensedEdge
	for _, node := range subtree(root) {
		if ignore[node] || node < n {
			continue
		}
		left, right := children(node)
		lambda := 1 / math.Max(tree[node-n].distance, minDistance)
		leftSize, rightSize := nodeSize(left), nodeSize(right)

		fallOut := func(side int) {
			for _, sub := range subtree(side) {
				if sub < n {
					result = append(result, condensedEdge{parent: relabel[node], child: sub, lambda: lambda, size: 1})
				}
				ignore[sub] = true
			}
		}

		switch {
		case leftSize >= minSize && rightSize >= minSize:
			relabel[left] = nextLabel
			nextLabel++
			result = append(result, condensedEdge{parent: relabel[node], child: relabel[left], lambda: lambda, size: leftSize})
			relabel[right] = nextLabel
			nextLabel++
			result = append(result, condensedEdge{parent: relabel[node], child: relabel[right], lambda: lambda, size: rightSize})
		case leftSize < minSize && rightSize < minSize:
			fallOut(left)
			fallOut(right)
		case leftSize < minSize:
			relabel[right] = relabel[node]
			fallOut(left)
		default:
			relabel[left] = relabel[node]
			fallOut(right)
		}
	}
	return result
}

// selectClusters picks clusters by excess of mass. The root is never
// selected. Returns the selected cluster ids in ascending order.
func selectClusters(condensed []condensedEdge, n int) []int {
	maxLabel := n
	for _, e := range condensed {
		maxLabel = max(maxLabel, e.parent, e.child)
	}

	birth := make([]float64, maxLabel+1)
	childClusters := make([][]int, maxLabel+1)
	for _, e := range condensed {
		if e.size > 1 {
			birth[e.child] = e.lambda
			childClusters[e.parent] = append(childClusters[e.parent], e.child)
		}
	}

	stability := make([]float64, maxLabel+1)
	for _, e := range condensed {
		stability[e.parent] += (e.lambda - birth[e.parent]) * float64(e.size)
	}

	isCluster := make([]bool, maxLabel+1)
	for c := n + 1; c <= maxLabel; c++ {
		isCluster[c] = true
	}

	// Children always carry larger ids than their parent.
	for c := maxLabel; c > n; c-- {
		var subtree float64
		for _, child := range childClusters[c] {
			subtree += stability[child]
		}
		if subtree > stability[c] {
			isCluster[c] = false
			stability[c] = subtree
			continue
		}
		queue := slices.Clone(childClusters[c])
		for len(queue) > 0 {
			d := queue[0]
			queue = queue[1:]
			isCluster[d] = false
			queue = append(queue, childClusters[d]...)
		}
	}

	var selected []int
	for c := n + 1; c <= maxLabel; c++ {
		if isCluster[c] {
			selected = append(selected, c)
		}
	}
	return selected
}

// label assigns each point the selected cluster it belongs to, found by
// walking from the cluster it fell out of up through its ancestors.
func label(condensed []condensedEdge, selected []int, n int, labels []int) {
	if len(selected) == 0 {
		return
	}
	parentOf := make(map[int]int, len(condensed))
	for _, e := range condensed {
		parentOf[e.child] = e.parent
	}
	final := make(map[int]int, len(selected))
	for i, c := range selected {
		final[c] = i
	}

	for point := 0; point < n; point++ {
		node, ok := parentOf[point]
		for ok {
			if id, hit := final[node]; hit {
				labels[point] = id
				break
			}
			node, ok = parentOf[node]
		}
	}
}
