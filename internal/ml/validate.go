package ml

import (
	"errors"
	"fmt"
)

// Validate checks that t can be walked for any input of nFeatures values.
// Children always follow their parent, which rules out cycles.
func (t *Tree) Validate(nFeatures int) error {
	if t == nil || len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	if t.NFeatures != nFeatures {
		return fmt.Errorf("tree fit on %d features, want %d", t.NFeatures, nFeatures)
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range [0, %d)", i, n.Feature, nFeatures)
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: children %d/%d out of range (%d, %d)", i, n.Left, n.Right, i, len(t.Nodes))
		}
	}
	return nil
}

// Validate checks the scaler holds one mean and one scale per column.
func (s *StandardScaler) Validate(nFeatures int) error {
	if s == nil {
		return errors.New("scaler is missing")
	}
	if len(s.Mean) != nFeatures || len(s.Scale) != nFeatures {
		return fmt.Errorf("scaler has %d means and %d scales, want %d", len(s.Mean), len(s.Scale), nFeatures)
	}
	return nil
}

// Validate checks every tree of the forest.
func (f *Forest) Validate(nFeatures int) error {
	if f == nil || len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if f.NFeatures != nFeatures {
		return fmt.Errorf("forest fit on %d features, want %d", f.NFeatures, nFeatures)
	}
	for i, t := range f.Trees {
		if err := t.Validate(nFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks the classifier's shape against nFeatures inputs and nClasses outputs.
func (gb *GradientBoosting) Validate(nFeatures, nClasses int) error {
	if gb == nil {
		return errors.New("classifier is missing")
	}
	if gb.NFeatures != nFeatures {
		return fmt.Errorf("classifier fit on %d features, want %d", gb.NFeatures, nFeatures)
	}
	if gb.NClasses != nClasses || len(gb.Init) != nClasses {
		return fmt.Errorf("classifier has %d classes and %d initial scores, want %d", gb.NClasses, len(gb.Init), nClasses)
	}
	for m, st := range gb.Stages {
		if len(st) != nClasses {
			return fmt.Errorf("stage %d has %d trees, want %d", m, len(st), nClasses)
		}
		for k, t := range st {
			if err := t.Validate(nFeatures); err != nil {
				return fmt.Errorf("stage %d class %d: %w", m, k, err)
			}
		}
	}
	return nil
}
