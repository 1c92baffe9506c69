// Package predictor serves forecasts, risk assessments and insight reports from a
// trained bundle and a user snapshot.
package predictor

import (
	"math"
	"time"

	"FinSight/internal/bundle"
	"FinSight/internal/features"
	"FinSight/internal/insight"
	"FinSight/internal/model"
)

// Horizon bounds, in days.
const (
	MinHorizon     = 1
	MaxHorizon     = 365
	DefaultHorizon = 30
)

// Predictor evaluates bundles. Now is the clock forecasts start from.
type Predictor struct {
	Now func() time.Time
}

// New returns a Predictor on the wall clock.
func New() *Predictor {
	return &Predictor{Now: time.Now}
}

// ValidateHorizon rejects horizons outside MinHorizon..MaxHorizon.
func ValidateHorizon(days int) error {
	if days < MinHorizon || days > MaxHorizon {
		return &model.InvalidHorizonError{Days: days, Min: MinHorizon, Max: MaxHorizon}
	}
	return nil
}

// PredictIncome forecasts daily income for the next days days.
func (p *Predictor) PredictIncome(b *bundle.Bundle, snap model.Snapshot, days int) (*model.PredictionResult, error) {
	if b == nil || b.Income == nil {
		return nil, &model.ModelNotTrainedError{Model: model.SubModelIncome}
	}
	static := map[string]float64{
		features.Amount7dAvg:          snap.AvgIncome7d,
		features.Amount30dAvg:         snap.AvgIncome30d,
		features.Amount7dStd:          snap.StdIncome7d,
		features.UserAvgAmount:        snap.UserAvgIncome,
		features.UserStdAmount:        snap.UserStdIncome,
		features.UserTransactionCount: float64(snap.UserTransactionCount),
	}
	return p.forecast(model.ForecastIncome, model.SubModelIncome, b.Income, static, days)
}

// PredictExpense forecasts daily expense for the next days days.
func (p *Predictor) PredictExpense(b *bundle.Bundle, snap model.Snapshot, days int) (*model.PredictionResult, error) {
	if b == nil || b.Expense == nil {
		return nil, &model.ModelNotTrainedError{Model: model.SubModelExpense}
	}
	static := map[string]float64{
		features.CategoryEncoded:      float64(primaryCategory(b.Expense, snap)),
		features.Amount7dAvg:          snap.AvgExpense7d,
		features.Amount30dAvg:         snap.AvgExpense30d,
		features.Amount7dStd:          snap.StdExpense7d,
		features.UserAvgAmount:        snap.UserAvgExpense,
		features.UserStdAmount:        snap.UserStdExpense,
		features.UserTransactionCount: float64(snap.UserTransactionCount),
	}
	return p.forecast(model.ForecastExpense, model.SubModelExpense, b.Expense, static, days)
}

func primaryCategory(reg *bundle.Regressor, snap model.Snapshot) int {
	if reg.Categories != nil && snap.PrimaryCategory != "" {
		if code, ok := reg.Categories.Lookup(snap.PrimaryCategory); ok {
			return code
		}
	}
	return snap.PrimaryCategoryEncoded
}

// forecast runs the regressor once per day, reusing the static snapshot fields
// for every day and varying only the calendar fields.
func (p *Predictor) forecast(kind model.ForecastKind, name string, reg *bundle.Regressor, static map[string]float64, days int) (*model.PredictionResult, error) {
	if err := ValidateHorizon(days); err != nil {
		return nil, err
	}
	now := p.Now()
	base := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	res := &model.PredictionResult{
		Kind:             kind,
		DailyPredictions: make([]model.DailyPrediction, 0, days),
		PeriodDays:       days,
		GeneratedAt:      now,
	}
	for i := 0; i < days; i++ {
		date := base.AddDate(0, 0, i)
		values := calendarValues(date, reg.Schema)
		for k, v := range static {
			values[k] = v
		}
		v, err := reg.Predict(name, values)
		if err != nil {
			return nil, err
		}
		v = math.Max(0, v)
		res.DailyPredictions = append(res.DailyPredictions, model.DailyPrediction{
			Date:           date,
			PredictedValue: v,
			Confidence:     model.ConfidenceMedium,
		})
		res.Total += v
	}
	return res, nil
}

// calendarValues returns the calendar fields of date. is_weekend is only set
// when the schema consumes it.
func calendarValues(date time.Time, schema features.Schema) map[string]float64 {
	cal := features.Calendar(date)
	values := map[string]float64{
		features.Month:     float64(cal.Month),
		features.DayOfWeek: float64(cal.DayOfWeek),
		features.Quarter:   float64(cal.Quarter),
	}
	for _, name := range schema {
		if name == features.IsWeekend {
			values[features.IsWeekend] = float64(cal.IsWeekend)
		}
	}
	return values
}

// AssessRisk classifies the snapshot and attaches advice for the resulting level.
func (p *Predictor) AssessRisk(b *bundle.Bundle, snap model.Snapshot) (*model.RiskAssessment, error) {
	if b == nil || b.Risk == nil {
		return nil, &model.ModelNotTrainedError{Model: model.SubModelRisk}
	}
	now := p.Now()
	values := calendarValues(now, b.Risk.Schema)
	values[features.Amount] = snap.RecentTransactionAmount
	values[features.Amount7dAvg] = snap.AvgAmount7d
	values[features.Amount30dAvg] = snap.AvgAmount30d
	values[features.Amount7dStd] = snap.StdAmount7d
	values[features.UserAvgAmount] = snap.UserAvgAmount
	values[features.UserStdAmount] = snap.UserStdAmount
	values[features.UserTransactionCount] = float64(snap.UserTransactionCount)

	probs, err := b.Risk.Probabilities(values)
	if err != nil {
		return nil, err
	}

	// Ties resolve in encoder order, matching the classifier's own arg-max.
	var level model.RiskLevel
	best := -1.0
	for _, c := range b.Risk.Labels.Classes {
		if pr := probs[model.RiskLevel(c)]; pr > best {
			best = pr
			level = model.RiskLevel(c)
		}
	}
	return &model.RiskAssessment{
		RiskLevel:     level,
		Probabilities: probs,
		RiskScore:     best,
		Advice:        RiskAdvice(level, snap),
		AssessedAt:    now,
	}, nil
}

// GenerateInsights builds a full report. Forecasts are included only when both
// regressors exist and the risk block only when the classifier exists.
func (p *Predictor) GenerateInsights(b *bundle.Bundle, snap model.Snapshot) (*model.InsightReport, error) {
	in := insight.Input{
		Summary: insight.Summarize(snap),
		At:      p.Now(),
	}
	if b != nil && b.Income != nil && b.Expense != nil {
		income, err := p.PredictIncome(b, snap, DefaultHorizon)
		if err != nil {
			return nil, err
		}
		expense, err := p.PredictExpense(b, snap, DefaultHorizon)
		if err != nil {
			return nil, err
		}
		in.Income, in.Expense = income, expense
	}
	if b != nil && b.Risk != nil {
		r, err := p.AssessRisk(b, snap)
		if err != nil {
			return nil, err
		}
		in.Risk = r
	}
	return insight.Generate(in), nil
}
