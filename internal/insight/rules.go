package insight

import "FinSight/internal/model"

// Savings-rate policy thresholds.
const (
	LowSavingsRate  = 0.1
	HighSavingsRate = 0.3
)

// Recommendation types.
const (
	TypeSavings        = "savings"
	TypeInvestment     = "investment"
	TypeCashFlow       = "cash_flow"
	TypeRiskManagement = "risk_management"
)

// savingsRule asks for more saving below LowSavingsRate and suggests investing above HighSavingsRate.
func savingsRule(in Input) *model.Recommendation {
	rate := in.Summary.SavingsRate
	switch {
	case rate < LowSavingsRate:
		return &model.Recommendation{
			Type:        TypeSavings,
			Priority:    model.PriorityHigh,
			Title:       "Increase your savings rate",
			Description: "Your savings rate is low. Aim to put at least 10% of monthly income into savings.",
			ActionItems: []string{
				"Draw up a detailed monthly budget",
				"Cut non-essential spending",
				"Set up an automatic savings plan",
			},
		}
	case rate > HighSavingsRate:
		return &model.Recommendation{
			Type:        TypeInvestment,
			Priority:    model.PriorityMedium,
			Title:       "Consider investing",
			Description: "Your savings rate is healthy. Investing part of it could earn a better return.",
			ActionItems: []string{
				"Look into low-risk investment products",
				"Diversify to reduce risk",
				"Review investment performance regularly",
			},
		}
	}
	return nil
}

// cashFlowRule warns when the forecast horizon ends with a net outflow.
func cashFlowRule(in Input) *model.Recommendation {
	cf := CashFlow(in.Income, in.Expense)
	if cf == nil || cf.NetCashFlow >= 0 {
		return nil
	}
	return &model.Recommendation{
		Type:        TypeCashFlow,
		Priority:    model.PriorityHigh,
		Title:       "Cash flow warning",
		Description: "Forecast cash flow for the coming period is negative. Act now.",
		ActionItems: []string{
			"Check upcoming large expenses",
			"Look for additional income sources",
			"Postpone non-urgent spending",
		},
	}
}

// riskRule escalates a high risk assessment, carrying its advice verbatim.
func riskRule(in Input) *model.Recommendation {
	if in.Risk == nil || in.Risk.RiskLevel != model.RiskHigh {
		return nil
	}
	return &model.Recommendation{
		Type:        TypeRiskManagement,
		Priority:    model.PriorityHigh,
		Title:       "Financial risk management",
		Description: "Your financial risk is high. Restructure your finances promptly.",
		ActionItems: append([]string(nil), in.Risk.Advice...),
	}
}
