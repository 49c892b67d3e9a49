package rank

import "sort"

// Tree is one regression tree stored as a flat node array. Non-leaf nodes
// send x[Feature] <= Threshold left, otherwise right.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
}

func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}

	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// treeGrower fits one tree to the current gradients with second-order
// leaf values (Newton step), XGBoost-style gain with L2 regularization.
type treeGrower struct {
	features [][]float64
	grad     []float64
	hess     []float64
	maxDepth int
	minLeaf  int
	lambda   float64
	shrink   float64

	nodes []Node
}

func (g *treeGrower) grow(rows []int) *Tree {
	g.nodes = g.nodes[:0]
	g.build(rows, 0)
	return &Tree{Nodes: append([]Node(nil), g.nodes...)}
}

// build appends the subtree for rows and returns its root index.
func (g *treeGrower) build(rows []int, depth int) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{})

	if depth >= g.maxDepth || len(rows) < 2*g.minLeaf {
		g.nodes[idx] = Node{Leaf: true, Value: g.leafValue(rows)}
		return idx
	}

	feature, threshold, ok := g.bestSplit(rows)
	if !ok {
		g.nodes[idx] = Node{Leaf: true, Value: g.leafValue(rows)}
		return idx
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if g.features[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	leftIdx := g.build(left, depth+1)
	rightIdx := g.build(right, depth+1)
	g.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: leftIdx, Right: rightIdx}
	return idx
}

func (g *treeGrower) leafValue(rows []int) float64 {
	sumG, sumH := 0.0, 0.0
	for _, r := range rows {
		sumG += g.grad[r]
		sumH += g.hess[r]
	}
	return g.shrink * sumG / (sumH + g.lambda)
}

func (g *treeGrower) bestSplit(rows []int) (feature int, threshold float64, ok bool) {
	totalG, totalH := 0.0, 0.0
	for _, r := range rows {
		totalG += g.grad[r]
		totalH += g.hess[r]
	}

	parentGain := totalG * totalG / (totalH + g.lambda)
	bestGain := 1e-12
	numFeatures := len(g.features[rows[0]])

	order := make([]int, len(rows))
	for f := 0; f < numFeatures; f++ {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool {
			return g.features[order[i]][f] < g.features[order[j]][f]
		})

		leftG, leftH := 0.0, 0.0
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			leftG += g.grad[r]
			leftH += g.hess[r]

			// Splits only between distinct values.
			cur := g.features[r][f]
			next := g.features[order[i+1]][f]
			if cur == next {
				continue
			}
			if i+1 < g.minLeaf || len(order)-i-1 < g.minLeaf {
				continue
			}

			rightG := totalG - leftG
			rightH := totalH - leftH
			gain := leftG*leftG/(leftH+g.lambda) +
				rightG*rightG/(rightH+g.lambda) -
				parentGain

			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}

	return feature, threshold, ok
}
