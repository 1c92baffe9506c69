// Package risk assigns cohort-relative low/medium/high labels to users from the
// volatility and activity of their transactions.
package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"FinSight/internal/model"
)

// MinLabeledRows is the fewest labelled rows the risk classifier trains on.
const MinLabeledRows = 100

// Labels is the outcome of labelling one cohort.
type Labels struct {
	// Table holds only the rows of scored users.
	Table  model.Table
	Scores map[string]float64
	Levels map[string]model.RiskLevel
	// Edges are the four bin boundaries; bin i covers (Edges[i], Edges[i+1]].
	Edges [4]float64
}

// Level returns the label of a user and whether the user was scored.
func (l *Labels) Level(userID string) (model.RiskLevel, bool) {
	lvl, ok := l.Levels[userID]
	return lvl, ok
}

// Score computes (std/max(mean,1)) * ln(count+1) over the present amounts.
// ok is false when fewer than two amounts are present.
func Score(amounts []float64) (score float64, ok bool) {
	vals := make([]float64, 0, len(amounts))
	for _, a := range amounts {
		if !math.IsNaN(a) {
			vals = append(vals, a)
		}
	}
	if len(vals) < 2 {
		return 0, false
	}
	mean, std := stat.MeanStdDev(vals, nil)
	score = std / math.Max(mean, 1) * math.Log(float64(len(vals))+1)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	return score, true
}

// Label scores every user in tbl, cuts the scores into three equal-width bins and
// keeps the rows of scored users. Fewer than MinLabeledRows kept rows is an
// *model.InsufficientDataError.
func Label(tbl model.Table) (*Labels, error) {
	byUser := make(map[string][]float64)
	for _, tx := range tbl.Rows {
		byUser[tx.UserID] = append(byUser[tx.UserID], tx.Amount)
	}

	users := make([]string, 0, len(byUser))
	scores := make(map[string]float64, len(byUser))
	for user, amounts := range byUser {
		if s, ok := Score(amounts); ok {
			scores[user] = s
			users = append(users, user)
		}
	}
	sort.Strings(users)

	out := &Labels{
		Table:  model.Table{Columns: tbl.Columns},
		Scores: scores,
		Levels: make(map[string]model.RiskLevel, len(users)),
	}
	if len(users) > 0 {
		vals := make([]float64, len(users))
		for i, u := range users {
			vals[i] = scores[u]
		}
		out.Edges = Edges(vals)
		for _, u := range users {
			out.Levels[u] = model.RiskLevels[bin(out.Edges, scores[u])]
		}
	}

	for _, tx := range tbl.Rows {
		if _, ok := out.Levels[tx.UserID]; ok {
			out.Table.Rows = append(out.Table.Rows, tx)
		}
	}
	if n := out.Table.Len(); n < MinLabeledRows {
		return nil, &model.InsufficientDataError{Model: model.SubModelRisk, Have: n, Need: MinLabeledRows}
	}
	return out, nil
}

// Edges returns the boundaries of three equal-width bins spanning scores. The
// lowest edge is lowered by 0.1% of the range so the minimum falls inside the
// first bin; a zero range is widened by 0.1% on each side.
func Edges(scores []float64) [4]float64 {
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	var e [4]float64
	if lo == hi {
		pad := 0.001 * math.Abs(lo)
		if lo == 0 {
			pad = 0.001
		}
		lo, hi = lo-pad, hi+pad
		for i := range e {
			e[i] = lo + (hi-lo)*float64(i)/3
		}
		return e
	}
	for i := range e {
		e[i] = lo + (hi-lo)*float64(i)/3
	}
	e[0] -= (hi - lo) * 0.001
	return e
}

// bin returns the index of the right-closed bin holding s.
func bin(e [4]float64, s float64) int {
	switch {
	case s <= e[1]:
		return 0
	case s <= e[2]:
		return 1
	default:
		return 2
	}
}
