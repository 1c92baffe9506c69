package model

import "time"

// ForecastKind names what a PredictionResult forecasts.
type ForecastKind string

const (
	ForecastIncome  ForecastKind = "income"
	ForecastExpense ForecastKind = "expense"
)

// ConfidenceMedium is the fixed qualitative confidence attached to every daily forecast.
const ConfidenceMedium = "medium"

// DailyPrediction is one day of a forecast horizon.
type DailyPrediction struct {
	Date           time.Time `json:"date"`
	PredictedValue float64   `json:"predicted_value"`
	Confidence     string    `json:"confidence"`
}

// PredictionResult is a day-by-day income or expense forecast.
type PredictionResult struct {
	Kind             ForecastKind      `json:"kind"`
	DailyPredictions []DailyPrediction `json:"daily_predictions"`
	Total            float64           `json:"total"`
	PeriodDays       int               `json:"prediction_period_days"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// RiskLevel is the cohort-relative risk label.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevels lists the labels from lowest to highest.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// RiskAssessment is the classifier output for one snapshot.
type RiskAssessment struct {
	RiskLevel     RiskLevel             `json:"risk_level"`
	Probabilities map[RiskLevel]float64 `json:"risk_probability"`
	RiskScore     float64               `json:"risk_score"`
	Advice        []string              `json:"advice"`
	AssessedAt    time.Time             `json:"assessed_at"`
}
