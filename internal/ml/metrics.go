package ml

import (
	"math"

	"FinSight/internal/model"
)

// MeanAbsoluteError averages |yTrue-yPred|.
func MeanAbsoluteError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	sum := 0.0
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue))
}

// Classification builds a per-class precision/recall/F1 report. Undefined ratios are 0.
func Classification(yTrue, yPred []int, classes []string) *model.ClassificationReport {
	k := len(classes)
	tp := make([]int, k)
	fp := make([]int, k)
	fn := make([]int, k)
	support := make([]int, k)
	correct := 0
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		support[t]++
		if t == p {
			tp[t]++
			correct++
		} else {
			fp[p]++
			fn[t]++
		}
	}

	rep := &model.ClassificationReport{Classes: make(map[string]model.ClassMetrics, k)}
	total := len(yTrue)
	for c := 0; c < k; c++ {
		m := model.ClassMetrics{
			Precision: ratio(tp[c], tp[c]+fp[c]),
			Recall:    ratio(tp[c], tp[c]+fn[c]),
			Support:   support[c],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		rep.Classes[classes[c]] = m

		rep.MacroAvg.Precision += m.Precision / float64(k)
		rep.MacroAvg.Recall += m.Recall / float64(k)
		rep.MacroAvg.F1 += m.F1 / float64(k)
		if total > 0 {
			w := float64(m.Support) / float64(total)
			rep.WeightedAvg.Precision += m.Precision * w
			rep.WeightedAvg.Recall += m.Recall * w
			rep.WeightedAvg.F1 += m.F1 * w
		}
	}
	rep.MacroAvg.Support = total
	rep.WeightedAvg.Support = total
	rep.Accuracy = ratio(correct, total)
	return rep
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
