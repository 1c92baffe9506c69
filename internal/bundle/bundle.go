// Package bundle holds the fitted artifacts of one training pass and persists
// them as a single JSON document.
package bundle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"FinSight/internal/features"
	"FinSight/internal/ml"
	"FinSight/internal/model"
)

// Regressor is a fitted amount regressor with the schema and scaler it was trained with.
type Regressor struct {
	Schema     features.Schema       `json:"schema"`
	Scaler     *ml.StandardScaler    `json:"scaler"`
	Forest     *ml.Forest            `json:"forest"`
	Categories *ml.LabelEncoder      `json:"categories,omitempty"`
	Report     *model.TrainingReport `json:"report,omitempty"`
}

// Predict validates values against the schema, scales them and runs the forest.
func (r *Regressor) Predict(name string, values map[string]float64) (float64, error) {
	x, err := r.vector(name, values)
	if err != nil {
		return 0, err
	}
	return r.Forest.Predict(x), nil
}

func (r *Regressor) vector(name string, values map[string]float64) ([]float64, error) {
	x, err := r.Schema.Vector(name, values)
	if err != nil {
		return nil, err
	}
	return r.Scaler.Transform(x)
}

// Classifier is a fitted risk classifier with its schema, scaler and label encoder.
type Classifier struct {
	Schema features.Schema       `json:"schema"`
	Scaler *ml.StandardScaler    `json:"scaler"`
	Model  *ml.GradientBoosting  `json:"model"`
	Labels *ml.LabelEncoder      `json:"labels"`
	Report *model.TrainingReport `json:"report,omitempty"`
}

// Probabilities returns the probability of every risk level. Levels absent
// from training get 0.
func (c *Classifier) Probabilities(values map[string]float64) (map[model.RiskLevel]float64, error) {
	x, err := c.Schema.Vector(model.SubModelRisk, values)
	if err != nil {
		return nil, err
	}
	xs, err := c.Scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	proba := c.Model.PredictProba(xs)
	if len(proba) != len(c.Labels.Classes) {
		return nil, fmt.Errorf("risk classifier has %d outputs for %d classes", len(proba), len(c.Labels.Classes))
	}
	out := make(map[model.RiskLevel]float64, len(model.RiskLevels))
	for _, lvl := range model.RiskLevels {
		out[lvl] = 0
	}
	for i, p := range proba {
		out[model.RiskLevel(c.Labels.Classes[i])] = p
	}
	return out, nil
}

// Bundle is every artifact needed to serve predictions for one training pass.
// A nil sub-model was not trained.
type Bundle struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id,omitempty"`
	Income    *Regressor  `json:"income,omitempty"`
	Expense   *Regressor  `json:"expense,omitempty"`
	Risk      *Classifier `json:"risk,omitempty"`
	Trained   bool        `json:"trained"`
	TrainedAt time.Time   `json:"trained_at"`
	SavedAt   time.Time   `json:"saved_at,omitempty"`
}

// New returns an empty bundle with a fresh ID.
func New() *Bundle {
	return &Bundle{ID: uuid.NewString()}
}

// Models lists the names of the trained sub-models.
func (b *Bundle) Models() []string {
	var out []string
	if b.Income != nil {
		out = append(out, model.SubModelIncome)
	}
	if b.Expense != nil {
		out = append(out, model.SubModelExpense)
	}
	if b.Risk != nil {
		out = append(out, model.SubModelRisk)
	}
	return out
}
