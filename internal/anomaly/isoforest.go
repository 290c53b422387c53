package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// IsolationForest is the outlier-forest strategy: an ensemble of randomly
// built binary trees where points isolated in few splits score as outliers.
// The generator is seeded, so identical input yields identical output.
type IsolationForest struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

// NewIsolationForest returns a forest with the standard ensemble shape and
// the fixed seed the engine requires for reproducibility.
func NewIsolationForest(contamination float64) *IsolationForest {
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.1
	}
	return &IsolationForest{
		Trees:         100,
		SampleSize:    256,
		Contamination: contamination,
		Seed:          42,
	}
}

// Name identifies the strategy in logs.
func (f *IsolationForest) Name() string { return "isolation_forest" }

type isoNode struct {
	left, right *isoNode
	splitDim    int
	splitValue  float64
	size        int // leaf only
}

// Detect flags outliers among the feature rows. The flagged count is
// ceil(contamination × n), taken from the highest anomaly scores.
func (f *IsolationForest) Detect(features [][]float64) ([]bool, error) {
	n := len(features)
	if n == 0 {
		return nil, fmt.Errorf("no samples")
	}
	dims := len(features[0])
	for _, row := range features {
		if len(row) != dims {
			return nil, fmt.Errorf("ragged feature matrix")
		}
	}

	rng := rand.New(rand.NewSource(f.Seed))
	sample := f.SampleSize
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))

	pathSums := make([]float64, n)
	for t := 0; t < f.Trees; t++ {
		idx := rng.Perm(n)[:sample]
		rows := make([][]float64, sample)
		for i, j := range idx {
			rows[i] = features[j]
		}
		tree := buildTree(rows, 0, maxDepth, rng)
		for i, row := range features {
			pathSums[i] += pathLength(tree, row, 0)
		}
	}

	// Normalize by the expected path length of an unsuccessful BST search.
	c := avgPathLength(sample)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = math.Pow(2, -(pathSums[i]/float64(f.Trees))/c)
	}

	flagCount := int(math.Ceil(f.Contamination * float64(n)))
	if flagCount >= n {
		flagCount = n - 1
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	flags := make([]bool, n)
	for _, i := range order[:flagCount] {
		flags[i] = true
	}
	return flags, nil
}

func buildTree(rows [][]float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(rows) <= 1 {
		return &isoNode{size: len(rows)}
	}

	dims := len(rows[0])
	dim := rng.Intn(dims)

	lo, hi := rows[0][dim], rows[0][dim]
	for _, row := range rows[1:] {
		if row[dim] < lo {
			lo = row[dim]
		}
		if row[dim] > hi {
			hi = row[dim]
		}
	}
	if lo == hi {
		return &isoNode{size: len(rows)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range rows {
		if row[dim] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &isoNode{
		splitDim:   dim,
		splitValue: split,
		left:       buildTree(left, depth+1, maxDepth, rng),
		right:      buildTree(right, depth+1, maxDepth, rng),
	}
}

func pathLength(node *isoNode, row []float64, depth int) float64 {
	if node.left == nil {
		return float64(depth) + avgPathLength(node.size)
	}
	if row[node.splitDim] < node.splitValue {
		return pathLength(node.left, row, depth+1)
	}
	return pathLength(node.right, row, depth+1)
}

// avgPathLength is c(n), the average unsuccessful BST search depth.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649 // Euler-Mascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}
