package model

import "time"

// Sub-model names used as keys of a TrainingSummary.
const (
	SubModelIncome  = "income"
	SubModelExpense = "expense"
	SubModelRisk    = "risk"
)

// ClassMetrics is one row of a classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// ClassificationReport breaks classifier quality down per class.
type ClassificationReport struct {
	Classes     map[string]ClassMetrics `json:"classes"`
	Accuracy    float64                 `json:"accuracy"`
	MacroAvg    ClassMetrics            `json:"macro_avg"`
	WeightedAvg ClassMetrics            `json:"weighted_avg"`
}

// TrainingReport describes one fitted sub-model.
type TrainingReport struct {
	ModelType         string                `json:"model_type"`
	MAE               float64               `json:"mae,omitempty"`
	Classification    *ClassificationReport `json:"classification_report,omitempty"`
	FeatureImportance map[string]float64    `json:"feature_importance"`
	TrainSamples      int                   `json:"train_samples"`
	TestSamples       int                   `json:"test_samples"`
	RiskClasses       []string              `json:"risk_classes,omitempty"`
}

// TrainingSummary is the result of training every sub-model.
type TrainingSummary struct {
	ModelsTrained []string                   `json:"models_trained"`
	Reports       map[string]*TrainingReport `json:"training_results"`
	Skipped       map[string]string          `json:"skipped,omitempty"`
	Timestamp     time.Time                  `json:"timestamp"`
}
