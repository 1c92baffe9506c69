package features

import (
	"fmt"
	"sort"

	"FinSight/internal/model"
)

// Feature column names.
const (
	Amount               = "amount"
	Month                = "month"
	DayOfWeek            = "day_of_week"
	Quarter              = "quarter"
	IsWeekend            = "is_weekend"
	CategoryEncoded      = "category_encoded"
	Amount7dAvg          = "amount_7d_avg"
	Amount30dAvg         = "amount_30d_avg"
	Amount7dStd          = "amount_7d_std"
	UserAvgAmount        = "user_avg_amount"
	UserStdAmount        = "user_std_amount"
	UserTransactionCount = "user_transaction_count"
	UserCategoryCount    = "user_category_count"
)

// Schema is the ordered list of features a model consumes.
type Schema []string

// IncomeSchema is the income regressor's feature order.
func IncomeSchema() Schema {
	return Schema{
		Month, DayOfWeek, Quarter, IsWeekend,
		Amount7dAvg, Amount30dAvg, Amount7dStd,
		UserAvgAmount, UserStdAmount, UserTransactionCount,
	}
}

// ExpenseSchema is the expense regressor's feature order.
func ExpenseSchema() Schema {
	return Schema{
		Month, DayOfWeek, Quarter, IsWeekend, CategoryEncoded,
		Amount7dAvg, Amount30dAvg, Amount7dStd,
		UserAvgAmount, UserStdAmount, UserTransactionCount,
	}
}

// RiskSchema is the risk classifier's feature order.
func RiskSchema() Schema {
	return Schema{
		Amount, Month, DayOfWeek, Quarter,
		Amount7dAvg, Amount30dAvg, Amount7dStd,
		UserAvgAmount, UserStdAmount, UserTransactionCount,
	}
}

// Equal reports whether two schemas name the same features in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Matrix extracts the schema's columns from rows.
func (s Schema) Matrix(rows []Row) [][]float64 {
	X := make([][]float64, len(rows))
	for i, r := range rows {
		x := make([]float64, len(s))
		for j, name := range s {
			x[j], _ = r.Value(name)
		}
		X[i] = x
	}
	return X
}

// Vector orders named values by the schema. Every schema feature must be present
// and no unknown feature may be supplied.
func (s Schema) Vector(modelName string, values map[string]float64) ([]float64, error) {
	x := make([]float64, len(s))
	for j, name := range s {
		v, ok := values[name]
		if !ok {
			return nil, s.mismatch(modelName, values)
		}
		x[j] = v
	}
	if len(values) != len(s) {
		return nil, s.mismatch(modelName, values)
	}
	return x, nil
}

func (s Schema) mismatch(modelName string, values map[string]float64) error {
	got := make([]string, 0, len(values))
	for _, name := range s {
		if _, ok := values[name]; ok {
			got = append(got, name)
		}
	}
	var extra []string
	for name := range values {
		if !contains(s, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	got = append(got, extra...)
	return &model.SchemaMismatchError{Model: modelName, Expected: append([]string(nil), s...), Got: got}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Validate checks a stored schema against the expected one.
func (s Schema) Validate(modelName string, expected Schema) error {
	if !s.Equal(expected) {
		return &model.SchemaMismatchError{Model: modelName, Expected: expected, Got: s}
	}
	return nil
}

// String implements fmt.Stringer.
func (s Schema) String() string { return fmt.Sprint([]string(s)) }
