package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"FinSight/internal/features"
	"FinSight/internal/model"
)

// StaticFetcher serves a fixed in-memory table, for development and testing.
type StaticFetcher struct {
	Table model.Table
	Err   error
}

func (s *StaticFetcher) Name() string { return "static" }

func (s *StaticFetcher) FetchTransactions(_ context.Context, userID string, start, end time.Time) (model.Table, error) {
	if s.Err != nil {
		return model.Table{}, s.Err
	}
	return filter(s.Table, userID, start, end), nil
}

// Collector loads a trailing window of transactions from a Fetcher.
type Collector struct {
	Fetcher      Fetcher
	LookbackDays int
	Now          func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackDays int) *Collector {
	return &Collector{Fetcher: fetcher, LookbackDays: lookbackDays, Now: time.Now}
}

// Collect fetches the user's transactions over the lookback window ending now.
// LookbackDays <= 0 fetches the full history.
func (c *Collector) Collect(ctx context.Context, userID string) (model.Table, error) {
	var start time.Time
	end := c.Now().AddDate(0, 0, 1)
	if c.LookbackDays > 0 {
		start = end.AddDate(0, 0, -c.LookbackDays-1)
	}
	tbl, err := c.Fetcher.FetchTransactions(ctx, userID, start, end)
	if err != nil {
		return model.Table{}, fmt.Errorf("%s fetch for %q: %w", c.Fetcher.Name(), userID, err)
	}
	return tbl, nil
}

// BuildSnapshot computes the aggregate statistics prediction needs for one user.
// Trailing averages are taken at the user's latest transaction of each kind.
func BuildSnapshot(tbl model.Table, userID string) model.Snapshot {
	var txs []model.Transaction
	for _, tx := range tbl.Rows {
		if tx.UserID == userID {
			txs = append(txs, tx)
		}
	}
	features.SortTransactions(txs)

	snap := model.Snapshot{UserID: userID}
	var income, expense, all []float64
	for _, tx := range txs {
		if !tx.HasAmount() {
			continue
		}
		all = append(all, tx.Amount)
		switch tx.Type {
		case model.TypeIncome:
			income = append(income, tx.Amount)
		case model.TypeExpense:
			expense = append(expense, tx.Amount)
		}
	}

	s := seriesStats(income)
	snap.AvgIncome7d, snap.AvgIncome30d, snap.StdIncome7d, snap.UserAvgIncome, snap.UserStdIncome = s.avg7, s.avg30, s.std7, s.mean, s.std
	s = seriesStats(expense)
	snap.AvgExpense7d, snap.AvgExpense30d, snap.StdExpense7d, snap.UserAvgExpense, snap.UserStdExpense = s.avg7, s.avg30, s.std7, s.mean, s.std
	s = seriesStats(all)
	snap.AvgAmount7d, snap.AvgAmount30d, snap.StdAmount7d, snap.UserAvgAmount, snap.UserStdAmount = s.avg7, s.avg30, s.std7, s.mean, s.std

	snap.UserTransactionCount = len(all)
	if len(all) > 0 {
		snap.RecentTransactionAmount = all[len(all)-1]
	}

	months := distinctMonths(txs)
	if months > 0 {
		snap.AvgMonthlyIncome = features.Round2(floats.Sum(income) / float64(months))
		snap.AvgMonthlyExpense = features.Round2(floats.Sum(expense) / float64(months))
	}
	if len(txs) > 0 {
		days := txs[len(txs)-1].Date.Sub(txs[0].Date).Hours()/24 + 1
		snap.TransactionFrequency = features.Round2(float64(len(txs)) / days)
	}

	snap.PrimaryCategory, snap.TopCategories = expenseCategories(txs, 3)
	return snap
}

type stats struct {
	avg7, avg30, std7, mean, std float64
}

func seriesStats(v []float64) stats {
	if len(v) == 0 {
		return stats{}
	}
	s := stats{
		avg7:  features.Last(features.RollingMean(v, features.ShortWindow)),
		avg30: features.Last(features.RollingMean(v, features.LongWindow)),
		std7:  features.Last(features.RollingStd(v, features.ShortWindow)),
		mean:  features.Round2(stat.Mean(v, nil)),
	}
	if len(v) > 1 {
		s.std = features.Round2(stat.StdDev(v, nil))
	}
	return s
}

func distinctMonths(txs []model.Transaction) int {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		seen[tx.Date.Format("2006-01")] = struct{}{}
	}
	return len(seen)
}

// expenseCategories returns the most frequent expense category and the top n
// categories by total spend. Ties break alphabetically.
func expenseCategories(txs []model.Transaction, n int) (string, []string) {
	count := make(map[string]int)
	spend := make(map[string]float64)
	for _, tx := range txs {
		if tx.Type != model.TypeExpense || tx.Category == "" {
			continue
		}
		count[tx.Category]++
		if tx.HasAmount() {
			spend[tx.Category] += tx.Amount
		}
	}
	if len(count) == 0 {
		return "", nil
	}
	cats := make([]string, 0, len(count))
	for c := range count {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	primary := cats[0]
	for _, c := range cats[1:] {
		if count[c] > count[primary] {
			primary = c
		}
	}

	sort.SliceStable(cats, func(i, j int) bool { return spend[cats[i]] > spend[cats[j]] })
	if len(cats) > n {
		cats = cats[:n]
	}
	return primary, cats
}
