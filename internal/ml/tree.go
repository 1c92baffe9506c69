// Package ml implements the small set of supervised learning primitives the forecaster
// needs: CART regression trees, a bagged forest, a multinomial gradient boosting
// classifier, feature scaling, label encoding, data splits and evaluation metrics.
package ml

import (
	"errors"
	"sort"
)

// leaf marks a node without children.
const leaf = -1

// Node is one node of a flattened regression tree.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Samples   int     `json:"n"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool { return n.Feature == leaf }

// TreeParams bounds tree growth. MaxDepth <= 0 means unlimited.
type TreeParams struct {
	MaxDepth        int `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int `yaml:"min_samples_leaf" json:"min_samples_leaf"`
}

func (p TreeParams) normalized() TreeParams {
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	return p
}

// Tree is a CART regression tree grown on squared error.
type Tree struct {
	Nodes       []Node    `json:"nodes"`
	NFeatures   int       `json:"n_features"`
	Importances []float64 `json:"importances"`
}

// FitTree grows a tree on the rows of X selected by idx. idx may repeat rows (bootstrap).
func FitTree(X [][]float64, y []float64, idx []int, p TreeParams) (*Tree, error) {
	if len(X) == 0 || len(idx) == 0 {
		return nil, errors.New("fit tree: no samples")
	}
	if len(X) != len(y) {
		return nil, errors.New("fit tree: X and y length differ")
	}
	b := &treeBuilder{
		X:      X,
		y:      y,
		params: p.normalized(),
		tree:   &Tree{NFeatures: len(X[0])},
	}
	b.gain = make([]float64, b.tree.NFeatures)
	rows := make([]int, len(idx))
	copy(rows, idx)
	b.build(rows, 0)

	total := 0.0
	for _, g := range b.gain {
		total += g
	}
	b.tree.Importances = make([]float64, len(b.gain))
	if total > 0 {
		for i, g := range b.gain {
			b.tree.Importances[i] = g / total
		}
	}
	return b.tree, nil
}

type treeBuilder struct {
	X      [][]float64
	y      []float64
	params TreeParams
	tree   *Tree
	gain   []float64
}

type split struct {
	feature   int
	threshold float64
	pos       int
	sse       float64
}

func (b *treeBuilder) build(rows []int, depth int) int {
	sum, sumSq := 0.0, 0.0
	for _, i := range rows {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(rows))
	parentSSE := sumSq - sum*sum/n

	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{
		Feature: leaf,
		Left:    leaf,
		Right:   leaf,
		Value:   sum / n,
		Samples: len(rows),
	})

	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}
	if len(rows) < b.params.MinSamplesSplit || len(rows) < 2*b.params.MinSamplesLeaf || parentSSE <= 1e-12 {
		return id
	}

	best, ok := b.bestSplit(rows, parentSSE)
	if !ok {
		return id
	}

	sorted := b.sortedBy(rows, best.feature)
	left := append([]int(nil), sorted[:best.pos]...)
	right := append([]int(nil), sorted[best.pos:]...)
	b.gain[best.feature] += parentSSE - best.sse

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	node := &b.tree.Nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r
	return id
}

func (b *treeBuilder) sortedBy(rows []int, f int) []int {
	out := make([]int, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return b.X[out[i]][f] < b.X[out[j]][f] })
	return out
}

func (b *treeBuilder) bestSplit(rows []int, parentSSE float64) (split, bool) {
	best := split{sse: parentSSE}
	found := false
	n := len(rows)
	minLeaf := b.params.MinSamplesLeaf

	for f := 0; f < b.tree.NFeatures; f++ {
		sorted := b.sortedBy(rows, f)

		totalSum, totalSq := 0.0, 0.0
		for _, i := range sorted {
			totalSum += b.y[i]
			totalSq += b.y[i] * b.y[i]
		}

		leftSum, leftSq := 0.0, 0.0
		for k := 1; k < n; k++ {
			yi := b.y[sorted[k-1]]
			leftSum += yi
			leftSq += yi * yi
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo >= hi {
				continue
			}
			nl, nr := float64(k), float64(n-k)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < best.sse-1e-12 {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, pos: k, sse: sse}
				found = true
			}
		}
	}
	return best, found
}

// Apply returns the index of the leaf x falls into.
func (t *Tree) Apply(x []float64) int {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return i
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Predict returns the value of the leaf x falls into.
func (t *Tree) Predict(x []float64) float64 {
	return t.Nodes[t.Apply(x)].Value
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return d
		}
		return max(walk(n.Left, d+1), walk(n.Right, d+1))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0, 0)
}
