package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// TrainTestSplit shuffles row indices and holds out ceil(n*testSize) of them.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("split: %d rows cannot be split with test size %.2f", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// StratifiedSplit holds out a per-class share of rows so both sides keep the class balance.
// Every class needs at least two members.
func StratifiedSplit(labels []int, testSize float64, seed int64) (train, test []int, err error) {
	n := len(labels)
	byClass := make(map[int][]int)
	for i, c := range labels {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c, members := range byClass {
		if len(members) < 2 {
			return nil, nil, fmt.Errorf("split: class %d has only %d member, need at least 2", c, len(members))
		}
		classes = append(classes, c)
	}
	sort.Ints(classes)

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < len(classes) || n-nTest < len(classes) {
		return nil, nil, fmt.Errorf("split: %d rows cannot hold %d classes on both sides", n, len(classes))
	}

	// Largest-remainder allocation of test rows.
	alloc := make(map[int]int, len(classes))
	type rem struct {
		class int
		frac  float64
	}
	rems := make([]rem, 0, len(classes))
	assigned := 0
	for _, c := range classes {
		exact := float64(nTest) * float64(len(byClass[c])) / float64(n)
		alloc[c] = int(math.Floor(exact))
		assigned += alloc[c]
		rems = append(rems, rem{class: c, frac: exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < nTest; i++ {
		alloc[rems[i%len(rems)].class]++
		assigned++
	}

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		members := byClass[c]
		k := min(max(alloc[c], 1), len(members)-1)
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		test = append(test, members[:k]...)
		train = append(train, members[k:]...)
	}
	return train, test, nil
}

// Rows selects rows of X by index.
func Rows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

// Floats selects values by index.
func Floats(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

// Ints selects values by index.
func Ints(v []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}
