package model

// Snapshot holds a user's current aggregate statistics. Prediction reuses these values
// unchanged for every day of a horizon.
type Snapshot struct {
	UserID string `json:"user_id"`

	AvgIncome7d   float64 `json:"avg_income_7d"`
	AvgIncome30d  float64 `json:"avg_income_30d"`
	StdIncome7d   float64 `json:"std_income_7d"`
	UserAvgIncome float64 `json:"user_avg_income"`
	UserStdIncome float64 `json:"user_std_income"`

	AvgExpense7d   float64 `json:"avg_expense_7d"`
	AvgExpense30d  float64 `json:"avg_expense_30d"`
	StdExpense7d   float64 `json:"std_expense_7d"`
	UserAvgExpense float64 `json:"user_avg_expense"`
	UserStdExpense float64 `json:"user_std_expense"`

	RecentTransactionAmount float64 `json:"recent_transaction_amount"`
	AvgAmount7d             float64 `json:"avg_amount_7d"`
	AvgAmount30d            float64 `json:"avg_amount_30d"`
	StdAmount7d             float64 `json:"std_amount_7d"`
	UserAvgAmount           float64 `json:"user_avg_amount"`
	UserStdAmount           float64 `json:"user_std_amount"`

	UserTransactionCount int `json:"user_transaction_count"`

	// PrimaryCategory is resolved through the bundle's category encoder when known;
	// PrimaryCategoryEncoded is used otherwise.
	PrimaryCategory        string `json:"primary_category,omitempty"`
	PrimaryCategoryEncoded int    `json:"primary_category_encoded"`

	AvgMonthlyIncome     float64  `json:"avg_monthly_income"`
	AvgMonthlyExpense    float64  `json:"avg_monthly_expense"`
	TransactionFrequency float64  `json:"transaction_frequency"`
	TopCategories        []string `json:"top_categories,omitempty"`
}
