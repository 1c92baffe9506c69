package ml

import (
	"errors"
	"fmt"
	"math"
)

// BoostingParams configures the gradient boosting classifier.
type BoostingParams struct {
	NStages         int     `yaml:"n_stages" json:"n_stages"`
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate"`
	MaxDepth        int     `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf" json:"min_samples_leaf"`
}

// DefaultBoostingParams mirrors a 100-stage, depth-6 ensemble with a 0.1 learning rate.
func DefaultBoostingParams() BoostingParams {
	return BoostingParams{NStages: 100, LearningRate: 0.1, MaxDepth: 6, MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

// GradientBoosting is a multinomial-deviance boosted tree classifier.
// Stages[m][k] is the tree fit to the class-k residual at stage m.
type GradientBoosting struct {
	NClasses     int       `json:"n_classes"`
	NFeatures    int       `json:"n_features"`
	LearningRate float64   `json:"learning_rate"`
	Init         []float64 `json:"init"`
	Stages       [][]*Tree `json:"stages"`
	Importances  []float64 `json:"importances"`
}

// FitBoosting trains a classifier on integer labels in [0, nClasses).
func FitBoosting(X [][]float64, y []int, nClasses int, p BoostingParams) (*GradientBoosting, error) {
	n := len(X)
	if n == 0 {
		return nil, errors.New("fit boosting: no samples")
	}
	if n != len(y) {
		return nil, errors.New("fit boosting: X and y length differ")
	}
	if nClasses < 2 {
		return nil, fmt.Errorf("fit boosting: need at least 2 classes, got %d", nClasses)
	}
	if p.NStages <= 0 || p.LearningRate <= 0 {
		return nil, fmt.Errorf("fit boosting: invalid params %+v", p)
	}

	counts := make([]int, nClasses)
	for _, c := range y {
		if c < 0 || c >= nClasses {
			return nil, fmt.Errorf("fit boosting: label %d out of range", c)
		}
		counts[c]++
	}
	gb := &GradientBoosting{
		NClasses:     nClasses,
		NFeatures:    len(X[0]),
		LearningRate: p.LearningRate,
		Init:         make([]float64, nClasses),
	}
	for k, c := range counts {
		if c == 0 {
			return nil, fmt.Errorf("fit boosting: class %d has no samples", k)
		}
		gb.Init[k] = math.Log(float64(c) / float64(n))
	}

	raw := make([][]float64, n)
	for i := range raw {
		raw[i] = append([]float64(nil), gb.Init...)
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	tp := TreeParams{MaxDepth: p.MaxDepth, MinSamplesSplit: p.MinSamplesSplit, MinSamplesLeaf: p.MinSamplesLeaf}
	k := float64(nClasses)
	residual := make([]float64, n)
	probs := make([][]float64, n)

	for m := 0; m < p.NStages; m++ {
		for i := range raw {
			probs[i] = softmax(raw[i])
		}
		stage := make([]*Tree, nClasses)
		for c := 0; c < nClasses; c++ {
			for i := 0; i < n; i++ {
				target := 0.0
				if y[i] == c {
					target = 1
				}
				residual[i] = target - probs[i][c]
			}
			tree, err := FitTree(X, residual, all, tp)
			if err != nil {
				return nil, fmt.Errorf("fit boosting stage %d class %d: %w", m, c, err)
			}

			// Newton step per leaf.
			num := make(map[int]float64)
			den := make(map[int]float64)
			leaves := make([]int, n)
			for i := 0; i < n; i++ {
				l := tree.Apply(X[i])
				leaves[i] = l
				r := residual[i]
				num[l] += r
				den[l] += math.Abs(r) * (1 - math.Abs(r))
			}
			for l := range num {
				v := 0.0
				if den[l] > 1e-150 {
					v = (k - 1) / k * num[l] / den[l]
				}
				tree.Nodes[l].Value = v
			}
			for i := 0; i < n; i++ {
				raw[i][c] += p.LearningRate * tree.Nodes[leaves[i]].Value
			}
			stage[c] = tree
		}
		gb.Stages = append(gb.Stages, stage)
	}

	var trees []*Tree
	for _, st := range gb.Stages {
		trees = append(trees, st...)
	}
	gb.Importances = averageImportances(trees, gb.NFeatures)
	return gb, nil
}

// Raw returns the additive per-class scores for x.
func (gb *GradientBoosting) Raw(x []float64) []float64 {
	raw := append([]float64(nil), gb.Init...)
	for _, st := range gb.Stages {
		for c, t := range st {
			raw[c] += gb.LearningRate * t.Predict(x)
		}
	}
	return raw
}

// PredictProba returns the class probability vector for x.
func (gb *GradientBoosting) PredictProba(x []float64) []float64 {
	return softmax(gb.Raw(x))
}

// Predict returns the most probable class for x.
func (gb *GradientBoosting) Predict(x []float64) int {
	return Argmax(gb.PredictProba(x))
}

// PredictAll returns the most probable class for every row of X.
func (gb *GradientBoosting) PredictAll(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		out[i] = gb.Predict(x)
	}
	return out
}

func softmax(raw []float64) []float64 {
	hi := math.Inf(-1)
	for _, v := range raw {
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(raw))
	sum := 0.0
	for i, v := range raw {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the largest value; the first wins ties.
func Argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
