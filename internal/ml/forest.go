package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
)

// ForestParams configures a bagged regression forest.
type ForestParams struct {
	NTrees          int   `yaml:"n_trees" json:"n_trees"`
	MaxDepth        int   `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int   `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int   `yaml:"min_samples_leaf" json:"min_samples_leaf"`
	Seed            int64 `yaml:"seed" json:"seed"`
	// Workers bounds parallel tree fitting. <= 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" json:"-"`
}

// DefaultForestParams mirrors a 100-tree, depth-10 forest.
func DefaultForestParams() ForestParams {
	return ForestParams{NTrees: 100, MaxDepth: 10, MinSamplesSplit: 5, MinSamplesLeaf: 1, Seed: 42}
}

// Forest averages bootstrap-trained regression trees.
type Forest struct {
	Trees       []*Tree   `json:"trees"`
	NFeatures   int       `json:"n_features"`
	Importances []float64 `json:"importances"`
}

// FitForest trains p.NTrees trees on bootstrap samples of (X, y).
// Per-tree seeds are drawn before any work starts, so the result does not depend on scheduling.
func FitForest(X [][]float64, y []float64, p ForestParams) (*Forest, error) {
	if len(X) == 0 {
		return nil, errors.New("fit forest: no samples")
	}
	if len(X) != len(y) {
		return nil, errors.New("fit forest: X and y length differ")
	}
	if p.NTrees <= 0 {
		return nil, fmt.Errorf("fit forest: n_trees must be positive, got %d", p.NTrees)
	}

	rng := rand.New(rand.NewSource(p.Seed))
	seeds := make([]int64, p.NTrees)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	tp := TreeParams{MaxDepth: p.MaxDepth, MinSamplesSplit: p.MinSamplesSplit, MinSamplesLeaf: p.MinSamplesLeaf}

	numWorkers := p.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > p.NTrees {
		numWorkers = p.NTrees
	}

	trees := make([]*Tree, p.NTrees)
	errs := make([]error, p.NTrees)
	work := make(chan int, p.NTrees)
	for i := 0; i < p.NTrees; i++ {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for i := range work {
				r := rand.New(rand.NewSource(seeds[i]))
				idx := make([]int, len(X))
				for j := range idx {
					idx[j] = r.Intn(len(X))
				}
				trees[i], errs[i] = FitTree(X, y, idx, tp)
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fit forest tree %d: %w", i, err)
		}
	}

	f := &Forest{Trees: trees, NFeatures: len(X[0])}
	f.Importances = averageImportances(trees, f.NFeatures)
	return f, nil
}

// Predict averages the tree predictions for x.
func (f *Forest) Predict(x []float64) float64 {
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// PredictAll predicts every row of X.
func (f *Forest) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = f.Predict(x)
	}
	return out
}

func averageImportances(trees []*Tree, n int) []float64 {
	out := make([]float64, n)
	for _, t := range trees {
		for i, v := range t.Importances {
			out[i] += v
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
