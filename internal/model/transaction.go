package model

import (
	"math"
	"time"
)

// TransactionType tells income and expense rows apart.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Column names recognised in a transaction table.
const (
	ColUserID   = "user_id"
	ColDate     = "date"
	ColAmount   = "amount"
	ColType     = "type"
	ColCategory = "category"
)

// Transaction is a single ledger entry. Amount is NaN when the source left it blank.
type Transaction struct {
	UserID   string
	Date     time.Time
	Amount   float64
	Type     TransactionType
	Category string
}

// Table is a tabular transaction dataset together with the columns its source supplied.
type Table struct {
	Columns []string
	Rows    []Transaction
}

// NewTable builds a table that carries every known column.
func NewTable(rows []Transaction) Table {
	return Table{
		Columns: []string{ColUserID, ColDate, ColAmount, ColType, ColCategory},
		Rows:    rows,
	}
}

// HasColumn reports whether the table supplied the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// FilterType returns a table holding only rows of the given type.
func (t Table) FilterType(typ TransactionType) Table {
	out := Table{Columns: t.Columns}
	for _, r := range t.Rows {
		if r.Type == typ {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// CountType counts rows of the given type.
func (t Table) CountType(typ TransactionType) int {
	n := 0
	for _, r := range t.Rows {
		if r.Type == typ {
			n++
		}
	}
	return n
}

// HasAmount reports whether the amount is present.
func (tx Transaction) HasAmount() bool { return !math.IsNaN(tx.Amount) }
