package predictor

import "FinSight/internal/model"

// Expense-to-income ratios that add a personalised line to the advice.
const (
	HighExpenseRatio = 0.8
	LowExpenseRatio  = 0.5
)

var levelAdvice = map[model.RiskLevel][]string{
	model.RiskHigh: {
		"Your financial risk is high; take action now",
		"Consider cutting unnecessary spending",
		"Build an emergency fund",
		"Seek advice from a professional financial planner",
	},
	model.RiskMedium: {
		"Your financial position is moderate with room to improve",
		"Draw up a detailed budget",
		"Increase the share of income you save",
		"Review and rebalance your portfolio regularly",
	},
	model.RiskLow: {
		"Your financial risk is low; keep up the good habits",
		"You could consider suitable investment opportunities",
		"Keep managing your finances steadily",
		"Think about long-term financial planning",
	},
}

// RiskAdvice returns the advice lines for a risk level, followed by a line on the
// user's expense-to-income ratio when it is notably high or low. Unknown levels get
// the low-risk advice.
func RiskAdvice(level model.RiskLevel, snap model.Snapshot) []string {
	lines, ok := levelAdvice[level]
	if !ok {
		lines = levelAdvice[model.RiskLow]
	}
	advice := append([]string(nil), lines...)

	if snap.UserAvgIncome > 0 {
		ratio := snap.UserAvgExpense / snap.UserAvgIncome
		switch {
		case ratio > HighExpenseRatio:
			advice = append(advice, "Spending is a high share of income; keep expenses under control")
		case ratio < LowExpenseRatio:
			advice = append(advice, "Your savings ratio is good; consider investing to grow it")
		}
	}
	return advice
}
