// Package features turns a transaction table into model-ready rows: calendar
// fields, trailing amount statistics, category codes and per-user aggregates.
package features

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"FinSight/internal/ml"
	"FinSight/internal/model"
)

// Row is a transaction enriched with every derived column. Amount is 0 when the
// source value was missing.
type Row struct {
	model.Transaction

	Month     int
	DayOfWeek int
	Quarter   int
	IsWeekend int

	Amount7dAvg  float64
	Amount30dAvg float64
	Amount7dStd  float64

	CategoryEncoded int

	UserAvgAmount        float64
	UserStdAmount        float64
	UserTransactionCount int
	UserCategoryCount    int
}

// Value returns the named feature.
func (r Row) Value(name string) (float64, bool) {
	switch name {
	case Amount:
		return r.Amount, true
	case Month:
		return float64(r.Month), true
	case DayOfWeek:
		return float64(r.DayOfWeek), true
	case Quarter:
		return float64(r.Quarter), true
	case IsWeekend:
		return float64(r.IsWeekend), true
	case CategoryEncoded:
		return float64(r.CategoryEncoded), true
	case Amount7dAvg:
		return r.Amount7dAvg, true
	case Amount30dAvg:
		return r.Amount30dAvg, true
	case Amount7dStd:
		return r.Amount7dStd, true
	case UserAvgAmount:
		return r.UserAvgAmount, true
	case UserStdAmount:
		return r.UserStdAmount, true
	case UserTransactionCount:
		return float64(r.UserTransactionCount), true
	case UserCategoryCount:
		return float64(r.UserCategoryCount), true
	}
	return 0, false
}

// CalendarFields holds the date-derived features. DayOfWeek is 0 for Monday.
type CalendarFields struct {
	Month     int
	DayOfWeek int
	Quarter   int
	IsWeekend int
}

// Calendar derives the calendar features of t.
func Calendar(t time.Time) CalendarFields {
	month := int(t.Month())
	dow := (int(t.Weekday()) + 6) % 7
	c := CalendarFields{
		Month:     month,
		DayOfWeek: dow,
		Quarter:   (month-1)/3 + 1,
	}
	if dow >= 5 {
		c.IsWeekend = 1
	}
	return c
}

// Prepare derives features for every row of tbl. Rows come back sorted by date
// (ties by user, amount, category). The category encoder fit during the call is
// returned with them; it is nil when the table has no category column.
func Prepare(tbl model.Table) ([]Row, *ml.LabelEncoder, error) {
	var missing []string
	for _, col := range []string{model.ColDate, model.ColAmount, model.ColUserID} {
		if !tbl.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &model.FeaturePreparationError{Missing: missing}
	}
	if tbl.Len() == 0 {
		return nil, nil, &model.FeaturePreparationError{Reason: "empty transaction table"}
	}

	txs := append([]model.Transaction(nil), tbl.Rows...)
	SortTransactions(txs)

	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount
	}
	avg7 := RollingMean(amounts, ShortWindow)
	avg30 := RollingMean(amounts, LongWindow)
	std7 := RollingStd(amounts, ShortWindow)

	hasCategory := tbl.HasColumn(model.ColCategory)
	var enc *ml.LabelEncoder
	if hasCategory {
		cats := make([]string, len(txs))
		for i, tx := range txs {
			cats[i] = tx.Category
		}
		enc = ml.FitLabelEncoder(cats)
	}

	users := aggregateUsers(txs, hasCategory)

	rows := make([]Row, len(txs))
	for i, tx := range txs {
		cal := Calendar(tx.Date)
		r := Row{
			Transaction:  tx,
			Month:        cal.Month,
			DayOfWeek:    cal.DayOfWeek,
			Quarter:      cal.Quarter,
			IsWeekend:    cal.IsWeekend,
			Amount7dAvg:  zeroNaN(avg7[i]),
			Amount30dAvg: zeroNaN(avg30[i]),
			Amount7dStd:  zeroNaN(std7[i]),
		}
		r.Amount = zeroNaN(tx.Amount)
		if enc != nil {
			r.CategoryEncoded, _ = enc.Lookup(tx.Category)
		}
		u := users[tx.UserID]
		r.UserAvgAmount = u.avg
		r.UserStdAmount = u.std
		r.UserTransactionCount = u.count
		r.UserCategoryCount = u.categories
		rows[i] = r
	}
	return rows, enc, nil
}

// SortTransactions orders transactions by date, then user, amount and category.
func SortTransactions(txs []model.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.Amount != b.Amount {
			// NaN sorts last.
			if math.IsNaN(a.Amount) {
				return false
			}
			if math.IsNaN(b.Amount) {
				return true
			}
			return a.Amount < b.Amount
		}
		return a.Category < b.Category
	})
}

type userStats struct {
	avg        float64
	std        float64
	count      int
	categories int
}

func aggregateUsers(txs []model.Transaction, hasCategory bool) map[string]userStats {
	amounts := make(map[string][]float64)
	cats := make(map[string]map[string]struct{})
	for _, tx := range txs {
		if _, ok := amounts[tx.UserID]; !ok {
			amounts[tx.UserID] = nil
			cats[tx.UserID] = make(map[string]struct{})
		}
		if tx.HasAmount() {
			amounts[tx.UserID] = append(amounts[tx.UserID], tx.Amount)
		}
		if hasCategory && tx.Category != "" {
			cats[tx.UserID][tx.Category] = struct{}{}
		}
	}

	out := make(map[string]userStats, len(amounts))
	for user, vals := range amounts {
		s := userStats{count: len(vals), categories: len(cats[user])}
		if len(vals) > 0 {
			s.avg = Round2(stat.Mean(vals, nil))
		}
		if len(vals) > 1 {
			s.std = Round2(stat.StdDev(vals, nil))
		}
		out[user] = s
	}
	return out
}
