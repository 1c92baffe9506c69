package collector

import (
	"context"
	"time"

	"FinSight/internal/model"
)

// Fetcher retrieves a user's transactions in [start, end). An empty userID
// returns every user's transactions.
type Fetcher interface {
	FetchTransactions(ctx context.Context, userID string, start, end time.Time) (model.Table, error)
	Name() string
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && !t.Before(end) {
		return false
	}
	return true
}

func filter(tbl model.Table, userID string, start, end time.Time) model.Table {
	out := model.Table{Columns: tbl.Columns}
	for _, tx := range tbl.Rows {
		if userID != "" && tx.UserID != userID {
			continue
		}
		if !inRange(tx.Date, start, end) {
			continue
		}
		out.Rows = append(out.Rows, tx)
	}
	return out
}
