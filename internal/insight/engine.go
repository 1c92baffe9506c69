// Package insight turns forecasts, a risk assessment and summary statistics into a
// prioritised list of recommendations. Thresholds are fixed policy.
package insight

import (
	"time"

	"FinSight/internal/model"
)

// Input is everything a report is derived from. Nil forecasts or risk mean the
// corresponding sub-model was unavailable.
type Input struct {
	Summary model.Summary
	Income  *model.PredictionResult
	Expense *model.PredictionResult
	Risk    *model.RiskAssessment
	At      time.Time
}

// Rule inspects the input and returns a recommendation, or nil when it does not apply.
type Rule func(in Input) *model.Recommendation

// Rules are evaluated in order; their output order is the report order.
var Rules = []Rule{
	savingsRule,
	cashFlowRule,
	riskRule,
}

// Summarize builds the summary block from a snapshot.
func Summarize(snap model.Snapshot) model.Summary {
	top := snap.TopCategories
	if top == nil {
		top = []string{}
	}
	return model.Summary{
		AvgMonthlyIncome:     snap.AvgMonthlyIncome,
		AvgMonthlyExpense:    snap.AvgMonthlyExpense,
		SavingsRate:          SavingsRate(snap.AvgMonthlyIncome, snap.AvgMonthlyExpense),
		TransactionFrequency: snap.TransactionFrequency,
		TopExpenseCategories: top,
	}
}

// SavingsRate is max(0, (income-expense)/income), or 0 when income is not positive.
func SavingsRate(income, expense float64) float64 {
	if income <= 0 {
		return 0
	}
	r := (income - expense) / income
	if r < 0 {
		return 0
	}
	return r
}

// CashFlow combines an income and an expense forecast. It returns nil unless both exist.
func CashFlow(income, expense *model.PredictionResult) *model.CashFlowForecast {
	if income == nil || expense == nil {
		return nil
	}
	return &model.CashFlowForecast{
		Income:      income.Total,
		Expense:     expense.Total,
		NetCashFlow: income.Total - expense.Total,
		HorizonDays: income.PeriodDays,
	}
}

// Generate evaluates every rule and assembles the report.
func Generate(in Input) *model.InsightReport {
	report := &model.InsightReport{
		Summary:         in.Summary,
		Predictions:     CashFlow(in.Income, in.Expense),
		Risk:            in.Risk,
		Recommendations: []model.Recommendation{},
		GeneratedAt:     in.At,
	}
	for _, rule := range Rules {
		if rec := rule(in); rec != nil {
			report.Recommendations = append(report.Recommendations, *rec)
		}
	}
	return report
}
