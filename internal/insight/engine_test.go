package insight

import (
	"testing"
	"time"

	"FinSight/internal/model"
)

func forecast(total float64) *model.PredictionResult {
	return &model.PredictionResult{Total: total, PeriodDays: 30}
}

func types(recs []model.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Type
	}
	return out
}

func TestGenerate_LowSavings(t *testing.T) {
	report := Generate(Input{Summary: model.Summary{SavingsRate: 0.05}})
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %v", types(report.Recommendations))
	}
	rec := report.Recommendations[0]
	if rec.Type != TypeSavings || rec.Priority != model.PriorityHigh {
		t.Errorf("got %s/%s, want savings/high", rec.Type, rec.Priority)
	}
}

func TestGenerate_HighSavings(t *testing.T) {
	report := Generate(Input{Summary: model.Summary{SavingsRate: 0.35}})
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %v", types(report.Recommendations))
	}
	rec := report.Recommendations[0]
	if rec.Type != TypeInvestment || rec.Priority != model.PriorityMedium {
		t.Errorf("got %s/%s, want investment/medium", rec.Type, rec.Priority)
	}
}

func TestGenerate_ModerateSavings(t *testing.T) {
	report := Generate(Input{Summary: model.Summary{SavingsRate: 0.2}, Income: forecast(500), Expense: forecast(400)})
	if len(report.Recommendations) != 0 {
		t.Errorf("unexpected recommendations: %v", types(report.Recommendations))
	}
	if report.Predictions == nil || report.Predictions.NetCashFlow != 100 {
		t.Errorf("Predictions = %+v", report.Predictions)
	}
}

func TestGenerate_NegativeCashFlow(t *testing.T) {
	report := Generate(Input{Summary: model.Summary{SavingsRate: 0.2}, Income: forecast(300), Expense: forecast(450)})
	got := types(report.Recommendations)
	if len(got) != 1 || got[0] != TypeCashFlow {
		t.Fatalf("got %v, want [cash_flow]", got)
	}
	if report.Recommendations[0].Priority != model.PriorityHigh {
		t.Error("cash flow warning should be high priority")
	}
}

func TestGenerate_CashFlowNeedsBothForecasts(t *testing.T) {
	report := Generate(Input{Summary: model.Summary{SavingsRate: 0.2}, Expense: forecast(450)})
	if report.Predictions != nil || len(report.Recommendations) != 0 {
		t.Errorf("expected no cash flow section, got %+v / %v", report.Predictions, types(report.Recommendations))
	}
}

func TestGenerate_HighRiskCarriesAdvice(t *testing.T) {
	advice := []string{"a", "b", "c"}
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report := Generate(Input{
		Summary: model.Summary{SavingsRate: 0.05},
		Income:  forecast(100),
		Expense: forecast(200),
		Risk:    &model.RiskAssessment{RiskLevel: model.RiskHigh, Advice: advice},
		At:      at,
	})
	got := types(report.Recommendations)
	want := []string{TypeSavings, TypeCashFlow, TypeRiskManagement}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	items := report.Recommendations[2].ActionItems
	if len(items) != 3 || items[0] != "a" || items[2] != "c" {
		t.Errorf("ActionItems = %v, want %v", items, advice)
	}
	if !report.GeneratedAt.Equal(at) {
		t.Errorf("GeneratedAt = %v", report.GeneratedAt)
	}
}

func TestGenerate_LowRiskAddsNothing(t *testing.T) {
	report := Generate(Input{
		Summary: model.Summary{SavingsRate: 0.2},
		Risk:    &model.RiskAssessment{RiskLevel: model.RiskLow, Advice: []string{"keep going"}},
	})
	if len(report.Recommendations) != 0 {
		t.Errorf("unexpected recommendations: %v", types(report.Recommendations))
	}
}

func TestSavingsRate(t *testing.T) {
	tests := []struct {
		income, expense, want float64
	}{
		{1000, 950, 0.05},
		{1000, 650, 0.35},
		{1000, 1200, 0},
		{0, 100, 0},
		{-10, 0, 0},
	}
	for _, tt := range tests {
		got := SavingsRate(tt.income, tt.expense)
		if d := got - tt.want; d > 1e-12 || d < -1e-12 {
			t.Errorf("SavingsRate(%v, %v) = %v, want %v", tt.income, tt.expense, got, tt.want)
		}
	}
}
