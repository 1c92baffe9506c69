package ml

import (
	"math"
	"math/rand"
	"testing"
)

func linearData(n int, seed int64) ([][]float64, []float64) {
	r := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a, b := r.Float64()*10, r.Float64()*10
		X[i] = []float64{a, b}
		y[i] = 3*a + 0.5*b
	}
	return X, y
}

func TestFitTree_PerfectSplit(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []float64{5, 5, 5, 20, 20, 20}
	tree, err := FitTree(X, y, []int{0, 1, 2, 3, 4, 5}, TreeParams{MaxDepth: 3})
	if err != nil {
		t.Fatalf("FitTree: %v", err)
	}
	if got := tree.Predict([]float64{2.5}); got != 5 {
		t.Errorf("Predict(2.5) = %v, want 5", got)
	}
	if got := tree.Predict([]float64{9}); got != 20 {
		t.Errorf("Predict(9) = %v, want 20", got)
	}
	if tree.Nodes[0].Threshold != 6.5 {
		t.Errorf("root threshold = %v, want 6.5", tree.Nodes[0].Threshold)
	}
	if tree.Importances[0] != 1 {
		t.Errorf("importance = %v, want 1", tree.Importances[0])
	}
}

func TestFitTree_RespectsMaxDepth(t *testing.T) {
	X, y := linearData(200, 1)
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	tree, err := FitTree(X, y, idx, TreeParams{MaxDepth: 4, MinSamplesSplit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if d := tree.Depth(); d > 4 {
		t.Fatalf("depth = %d, want <= 4", d)
	}
}

func TestTreeValidate(t *testing.T) {
	fit := func() *Tree {
		X := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
		y := []float64{5, 5, 5, 20, 20, 20}
		tree, err := FitTree(X, y, []int{0, 1, 2, 3, 4, 5}, TreeParams{MaxDepth: 3})
		if err != nil {
			t.Fatalf("FitTree: %v", err)
		}
		return tree
	}
	if err := fit().Validate(1); err != nil {
		t.Fatalf("fitted tree: %v", err)
	}

	cases := map[string]func(*Tree){
		"no nodes":         func(tr *Tree) { tr.Nodes = nil },
		"self loop":        func(tr *Tree) { tr.Nodes[0].Left = 0 },
		"child past end":   func(tr *Tree) { tr.Nodes[0].Right = len(tr.Nodes) },
		"unknown feature":  func(tr *Tree) { tr.Nodes[0].Feature = 1 },
		"negative feature": func(tr *Tree) { tr.Nodes[0].Feature = -7 },
		"width mismatch":   func(tr *Tree) { tr.NFeatures = 4 },
	}
	for name, corrupt := range cases {
		tr := fit()
		corrupt(tr)
		if err := tr.Validate(1); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestFitForest_DeterministicAndAccurate(t *testing.T) {
	X, y := linearData(300, 7)
	p := DefaultForestParams()
	p.NTrees = 20

	f1, err := FitForest(X, y, p)
	if err != nil {
		t.Fatalf("FitForest: %v", err)
	}
	p.Workers = 1
	f2, err := FitForest(X, y, p)
	if err != nil {
		t.Fatalf("FitForest: %v", err)
	}

	probe := []float64{4, 6}
	if f1.Predict(probe) != f2.Predict(probe) {
		t.Fatalf("forest not deterministic across worker counts: %v vs %v", f1.Predict(probe), f2.Predict(probe))
	}
	if mae := MeanAbsoluteError(y, f1.PredictAll(X)); mae > 2 {
		t.Errorf("training MAE = %.3f, want < 2", mae)
	}
	if f1.Importances[0] <= f1.Importances[1] {
		t.Errorf("expected feature 0 to dominate, got %v", f1.Importances)
	}
}

func TestFitBoosting_SeparatesClasses(t *testing.T) {
	var X [][]float64
	var y []int
	for i := 0; i < 90; i++ {
		c := i % 3
		X = append(X, []float64{float64(c)*10 + float64(i%5), float64(i % 7)})
		y = append(y, c)
	}
	p := DefaultBoostingParams()
	p.NStages = 20
	gb, err := FitBoosting(X, y, 3, p)
	if err != nil {
		t.Fatalf("FitBoosting: %v", err)
	}
	for i, x := range X {
		probs := gb.PredictProba(x)
		sum := 0.0
		for _, v := range probs {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d: probabilities sum to %v", i, sum)
		}
		if Argmax(probs) != y[i] {
			t.Fatalf("row %d: predicted %d, want %d", i, Argmax(probs), y[i])
		}
	}
}

func TestFitBoosting_RejectsSingleClass(t *testing.T) {
	X := [][]float64{{1}, {2}}
	if _, err := FitBoosting(X, []int{0, 0}, 1, DefaultBoostingParams()); err == nil {
		t.Fatal("expected error for single class")
	}
}

func TestScaler(t *testing.T) {
	s, err := FitScaler([][]float64{{1, 5}, {3, 5}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Transform([]float64{3, 5})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("Transform = %v, want [1 0]", got)
	}
	if _, err := s.Transform([]float64{1}); err == nil {
		t.Error("expected width mismatch error")
	}
}

func TestLabelEncoder(t *testing.T) {
	e := FitLabelEncoder([]string{"medium", "low", "high", "low"})
	want := []string{"high", "low", "medium"}
	for i, c := range want {
		if e.Classes[i] != c {
			t.Fatalf("Classes = %v, want %v", e.Classes, want)
		}
	}
	codes, err := e.Transform([]string{"low", "medium"})
	if err != nil || codes[0] != 1 || codes[1] != 2 {
		t.Fatalf("Transform = %v, %v", codes, err)
	}
	if _, err := e.Transform([]string{"extreme"}); err == nil {
		t.Error("expected unseen label error")
	}
}

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(51, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(test) != 11 || len(train) != 40 {
		t.Fatalf("split sizes = %d/%d, want 40/11", len(train), len(test))
	}
	seen := make(map[int]bool)
	for _, i := range append(train, test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
}

func TestStratifiedSplit_KeepsEveryClass(t *testing.T) {
	labels := make([]int, 0, 100)
	for i := 0; i < 70; i++ {
		labels = append(labels, 0)
	}
	for i := 0; i < 25; i++ {
		labels = append(labels, 1)
	}
	for i := 0; i < 5; i++ {
		labels = append(labels, 2)
	}
	train, test, err := StratifiedSplit(labels, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(train)+len(test) != 100 {
		t.Fatalf("lost rows: %d + %d", len(train), len(test))
	}
	counts := map[int]int{}
	for _, i := range test {
		counts[labels[i]]++
	}
	if counts[0] != 14 || counts[1] != 5 || counts[2] != 1 {
		t.Errorf("test class counts = %v, want map[0:14 1:5 2:1]", counts)
	}
}

func TestClassificationReport(t *testing.T) {
	rep := Classification([]int{0, 0, 1, 1}, []int{0, 1, 1, 1}, []string{"a", "b"})
	if rep.Accuracy != 0.75 {
		t.Errorf("Accuracy = %v, want 0.75", rep.Accuracy)
	}
	a := rep.Classes["a"]
	if a.Precision != 1 || a.Recall != 0.5 {
		t.Errorf("class a = %+v", a)
	}
	b := rep.Classes["b"]
	if math.Abs(b.Precision-2.0/3.0) > 1e-12 || b.Recall != 1 {
		t.Errorf("class b = %+v", b)
	}
}
