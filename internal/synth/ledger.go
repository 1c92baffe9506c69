// Package synth generates deterministic transaction ledgers for demos and tests.
package synth

import (
	"fmt"
	"time"

	"FinSight/internal/model"
)

// TypeTransfer marks rows that are neither income nor expense.
const TypeTransfer model.TransactionType = "transfer"

var expenseCategories = []string{"food", "rent", "transport", "entertainment"}

// Options shapes a generated ledger. Row counts are per user.
type Options struct {
	Users           int
	IncomePerUser   int
	ExpensePerUser  int
	TransferPerUser int
	Base            float64
	Start           time.Time
}

// Ledger builds a table in which user k's amounts swing around Base by a factor
// that grows linearly with k, so volatility-based risk scores spread evenly
// across the cohort. Users are named user-0, user-1, ...
func Ledger(o Options) model.Table {
	if o.Base == 0 {
		o.Base = 100
	}
	if o.Start.IsZero() {
		o.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	var rows []model.Transaction
	for k := 0; k < o.Users; k++ {
		vol := 0.1
		if o.Users > 1 {
			vol += 0.8 * float64(k) / float64(o.Users-1)
		}
		user := fmt.Sprintf("user-%d", k)

		var types []model.TransactionType
		for i := 0; i < o.IncomePerUser; i++ {
			types = append(types, model.TypeIncome)
		}
		for i := 0; i < o.ExpensePerUser; i++ {
			types = append(types, model.TypeExpense)
		}
		for i := 0; i < o.TransferPerUser; i++ {
			types = append(types, TypeTransfer)
		}

		for j, typ := range interleave(types) {
			sign := 1.0
			if j%2 == 1 {
				sign = -1
			}
			tx := model.Transaction{
				UserID: user,
				Date:   o.Start.AddDate(0, 0, j),
				Amount: o.Base * (1 + sign*vol),
				Type:   typ,
			}
			switch typ {
			case model.TypeIncome:
				tx.Category = "salary"
			case model.TypeExpense:
				tx.Category = expenseCategories[j%len(expenseCategories)]
			default:
				tx.Category = "transfer"
			}
			rows = append(rows, tx)
		}
	}
	return model.NewTable(rows)
}

// interleave spreads each type evenly through the sequence.
func interleave(types []model.TransactionType) []model.TransactionType {
	byType := make(map[model.TransactionType][]model.TransactionType)
	var order []model.TransactionType
	for _, t := range types {
		if _, ok := byType[t]; !ok {
			order = append(order, t)
		}
		byType[t] = append(byType[t], t)
	}
	out := make([]model.TransactionType, 0, len(types))
	for len(out) < len(types) {
		for _, t := range order {
			if len(byType[t]) > 0 {
				out = append(out, t)
				byType[t] = byType[t][1:]
			}
		}
	}
	return out
}
