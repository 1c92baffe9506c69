package model

import "time"

// Priority of a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Summary holds the basic statistics an insight report starts from.
type Summary struct {
	AvgMonthlyIncome     float64  `json:"avg_monthly_income"`
	AvgMonthlyExpense    float64  `json:"avg_monthly_expense"`
	SavingsRate          float64  `json:"savings_rate"`
	TransactionFrequency float64  `json:"transaction_frequency"`
	TopExpenseCategories []string `json:"top_expense_categories"`
}

// CashFlowForecast condenses the income and expense forecasts of an insight report.
type CashFlowForecast struct {
	Income      float64 `json:"next_30_days_income"`
	Expense     float64 `json:"next_30_days_expense"`
	NetCashFlow float64 `json:"predicted_net_cash_flow"`
	HorizonDays int     `json:"horizon_days"`
}

// Recommendation is one prioritised action.
type Recommendation struct {
	Type        string   `json:"type"`
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ActionItems []string `json:"action_items"`
}

// InsightReport is built fresh per request and never persisted by the core.
type InsightReport struct {
	Summary         Summary           `json:"summary"`
	Predictions     *CashFlowForecast `json:"predictions,omitempty"`
	Risk            *RiskAssessment   `json:"risk_assessment,omitempty"`
	Recommendations []Recommendation  `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generated_at"`
}
