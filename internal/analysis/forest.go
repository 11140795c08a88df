package analysis

import (
	"fmt"
	"math/rand"
	"sort"
)

// ForestConfig tunes the random-forest regressor.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// withDefaults fills unset fields with the defaults used across the app.
func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 10
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 5
	}
	return c
}

// Forest is a fitted random-forest regressor. Feature importances are
// impurity decreases accumulated over all splits of all trees.
type Forest struct {
	trees      []*treeNode
	importance []float64
	names      []string
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// FitForest trains a forest of regression trees on bootstrap samples of
// the input. samples is row-major; names labels the feature columns.
func FitForest(samples [][]float64, target []float64, names []string, cfg ForestConfig) (*Forest, error) {
	if len(samples) != len(target) {
		return nil, fmt.Errorf("fit forest: %d sample rows but %d targets", len(samples), len(target))
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("fit forest: no training rows")
	}
	for i, row := range samples {
		if len(row) != len(names) {
			return nil, fmt.Errorf("fit forest: row %d has %d features, want %d", i, len(row), len(names))
		}
	}

	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	f := &Forest{
		trees:      make([]*treeNode, 0, cfg.Trees),
		importance: make([]float64, len(names)),
		names:      names,
	}

	n := len(samples)
	for t := 0; t < cfg.Trees; t++ {
		boot := make([]int, n)
		for i := range boot {
			boot[i] = rng.Intn(n)
		}
		f.trees = append(f.trees, f.buildTree(samples, target, boot, 0, cfg))
	}
	return f, nil
}

// buildTree grows one regression tree by greedy variance reduction.
func (f *Forest) buildTree(samples [][]float64, target []float64, idx []int, depth int, cfg ForestConfig) *treeNode {
	mean, sse := meanSSE(target, idx)
	if depth >= cfg.MaxDepth || len(idx) < 2*cfg.MinLeaf || sse == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, gain, leftIdx, rightIdx := bestSplit(samples, target, idx, cfg.MinLeaf)
	if gain <= 0 {
		return &treeNode{leaf: true, value: mean}
	}

	f.importance[feature] += gain
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      f.buildTree(samples, target, leftIdx, depth+1, cfg),
		right:     f.buildTree(samples, target, rightIdx, depth+1, cfg),
	}
}

// bestSplit scans every feature for the threshold with the largest
// impurity decrease, honoring the minimum leaf size.
func bestSplit(samples [][]float64, target []float64, idx []int, minLeaf int) (feature int, threshold, gain float64, left, right []int) {
	_, parentSSE := meanSSE(target, idx)
	feature = -1

	order := make([]int, len(idx))
	for fi := 0; fi < len(samples[0]); fi++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return samples[order[a]][fi] < samples[order[b]][fi]
		})

		// Running sums from the left let each candidate split be
		// evaluated in constant time.
		var leftSum, leftSq float64
		var totalSum, totalSq float64
		for _, i := range order {
			totalSum += target[i]
			totalSq += target[i] * target[i]
		}

		n := len(order)
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += target[i]
			leftSq += target[i] * target[i]

			// Can't split between equal feature values
			if samples[order[pos]][fi] == samples[order[pos+1]][fi] {
				continue
			}
			nl, nr := pos+1, n-pos-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			leftSSE := leftSq - leftSum*leftSum/float64(nl)
			rightSum := totalSum - leftSum
			rightSSE := (totalSq - leftSq) - rightSum*rightSum/float64(nr)

			if g := parentSSE - leftSSE - rightSSE; g > gain {
				gain = g
				feature = fi
				threshold = (samples[order[pos]][fi] + samples[order[pos+1]][fi]) / 2
			}
		}
	}

	if feature < 0 {
		return -1, 0, 0, nil, nil
	}
	for _, i := range idx {
		if samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return feature, threshold, gain, left, right
}

func meanSSE(target []float64, idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum, sq float64
	for _, i := range idx {
		sum += target[i]
		sq += target[i] * target[i]
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sq - sum*sum/n
	if sse < 0 {
		sse = 0 // floating-point underflow on constant targets
	}
	return mean, sse
}

// Predict returns the forest's prediction for one feature row.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for _, tree := range f.trees {
		node := tree
		for !node.leaf {
			if row[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		sum += node.value
	}
	return sum / float64(len(f.trees))
}

// Importances returns per-feature importances normalized to sum to one.
// A forest that never split returns all zeros.
func (f *Forest) Importances() []float64 {
	var total float64
	for _, v := range f.importance {
		total += v
	}

	out := make([]float64, len(f.importance))
	if total == 0 {
		return out
	}
	for i, v := range f.importance {
		out[i] = v / total
	}
	return out
}
