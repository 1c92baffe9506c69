package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"FinSight/internal/model"
)

var subModelOrder = []string{model.SubModelIncome, model.SubModelExpense, model.SubModelRisk}

// FormatTrainingSummary formats a completed training run into a Telegram message.
func FormatTrainingSummary(userID string, s *model.TrainingSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>Training complete</b> | %s\n\n", html.EscapeString(userID)))
	if s == nil {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Models trained: %s\n", strings.Join(s.ModelsTrained, ", ")))
	writeReports(&b, s)
	if !s.Timestamp.IsZero() {
		b.WriteString(fmt.Sprintf("\nFinished: %s\n", s.Timestamp.Format("2006-01-02 15:04")))
	}
	return b.String()
}

func writeReports(b *strings.Builder, s *model.TrainingSummary) {
	for _, name := range subModelOrder {
		if rep, ok := s.Reports[name]; ok && rep != nil {
			if rep.Classification != nil {
				b.WriteString(fmt.Sprintf("  %s: accuracy %.1f%% (train %d / test %d)\n",
					name, rep.Classification.Accuracy*100, rep.TrainSamples, rep.TestSamples))
			} else {
				b.WriteString(fmt.Sprintf("  %s: MAE %.2f (train %d / test %d)\n",
					name, rep.MAE, rep.TrainSamples, rep.TestSamples))
			}
			continue
		}
		if reason, ok := s.Skipped[name]; ok {
			b.WriteString(fmt.Sprintf("  %s: skipped (%s)\n", name, html.EscapeString(reason)))
		}
	}
}

// FormatTrainingFailed formats a failed training run.
func FormatTrainingFailed(userID string, err error) string {
	return fmt.Sprintf("❌ <b>Training failed</b> | %s\n\n%s\n",
		html.EscapeString(userID), html.EscapeString(err.Error()))
}

// FormatInsights formats an insight report for display.
func FormatInsights(userID string, r *model.InsightReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Financial insights</b> | %s | %s\n\n",
		html.EscapeString(userID), r.GeneratedAt.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Avg monthly income: %.2f\n", r.Summary.AvgMonthlyIncome))
	b.WriteString(fmt.Sprintf("Avg monthly expense: %.2f\n", r.Summary.AvgMonthlyExpense))
	b.WriteString(fmt.Sprintf("Savings rate: %.1f%%\n", r.Summary.SavingsRate*100))
	if len(r.Summary.TopExpenseCategories) > 0 {
		b.WriteString(fmt.Sprintf("Top categories: %s\n", html.EscapeString(strings.Join(r.Summary.TopExpenseCategories, ", "))))
	}

	if p := r.Predictions; p != nil {
		b.WriteString(fmt.Sprintf("\n💰 <b>Next %d days</b>\n", p.HorizonDays))
		b.WriteString(fmt.Sprintf("  income %.2f | expense %.2f | net %+.2f\n", p.Income, p.Expense, p.NetCashFlow))
	}
	if r.Risk != nil {
		b.WriteString(fmt.Sprintf("\n⚠️ <b>Risk:</b> %s (score %.2f)\n", r.Risk.RiskLevel, r.Risk.RiskScore))
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\n📌 <b>Recommendations</b>\n")
		for _, rec := range r.Recommendations {
			b.WriteString(fmt.Sprintf("  [%s] %s\n", rec.Priority, rec.Title))
			for _, item := range rec.ActionItems {
				b.WriteString(fmt.Sprintf("    • %s\n", item))
			}
		}
	}
	return b.String()
}

// FormatRisk formats a risk assessment with its advice.
func FormatRisk(userID string, a *model.RiskAssessment) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚠️ <b>Risk assessment</b> | %s\n\n", html.EscapeString(userID)))
	b.WriteString(fmt.Sprintf("Level: %s (score %.2f)\n", a.RiskLevel, a.RiskScore))

	levels := make([]string, 0, len(a.Probabilities))
	for lvl := range a.Probabilities {
		levels = append(levels, string(lvl))
	}
	sort.Strings(levels)
	for _, lvl := range levels {
		b.WriteString(fmt.Sprintf("  %s: %.1f%%\n", lvl, a.Probabilities[model.RiskLevel(lvl)]*100))
	}
	for _, advice := range a.Advice {
		b.WriteString(fmt.Sprintf("• %s\n", advice))
	}
	return b.String()
}

// FormatStatus formats the model readiness of a user and the last training result, if any.
func FormatStatus(userID string, ready bool, last *model.TrainingSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Model status</b> | %s\n\n", html.EscapeString(userID)))
	if ready {
		b.WriteString("Models: ready\n")
	} else {
		b.WriteString("Models: not trained\n")
	}
	if last == nil {
		b.WriteString("No recent training result\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Last training: %s\n", last.Timestamp.Format("2006-01-02 15:04")))
	writeReports(&b, last)
	return b.String()
}

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "")

// PlainText turns a formatted Telegram message into plain text.
func PlainText(s string) string {
	return html.UnescapeString(tagStripper.Replace(s))
}
