// Package trainer fits the income and expense regressors and the risk classifier
// from a transaction table and assembles them into a bundle.
package trainer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"FinSight/internal/bundle"
	"FinSight/internal/features"
	"FinSight/internal/ml"
	"FinSight/internal/model"
	"FinSight/internal/risk"
)

// MinRegressionRows is the fewest rows of a type the income or expense regressor trains on.
const MinRegressionRows = 50

// Report model types.
const (
	TypeIncomePrediction  = "income_prediction"
	TypeExpensePrediction = "expense_prediction"
	TypeRiskAssessment    = "risk_assessment"
)

// Params holds the fitting hyper-parameters.
type Params struct {
	Forest    ml.ForestParams   `yaml:"forest"`
	Boosting  ml.BoostingParams `yaml:"boosting"`
	TestSize  float64           `yaml:"test_size"`
	SplitSeed int64             `yaml:"split_seed"`
}

// DefaultParams returns the standard training configuration.
func DefaultParams() Params {
	return Params{
		Forest:    ml.DefaultForestParams(),
		Boosting:  ml.DefaultBoostingParams(),
		TestSize:  0.2,
		SplitSeed: 42,
	}
}

// Trainer runs the training passes. It holds no state between calls.
type Trainer struct {
	Params Params
	Log    *logrus.Logger
	Now    func() time.Time
}

// New creates a Trainer. A nil logger discards output.
func New(p Params, log *logrus.Logger) *Trainer {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Trainer{Params: p, Log: log, Now: time.Now}
}

// TrainIncome fits the income regressor on the income rows of tbl.
func (t *Trainer) TrainIncome(tbl model.Table) (*bundle.Regressor, error) {
	return t.trainRegressor(model.SubModelIncome, TypeIncomePrediction, model.TypeIncome, features.IncomeSchema(), tbl)
}

// TrainExpense fits the expense regressor on the expense rows of tbl.
func (t *Trainer) TrainExpense(tbl model.Table) (*bundle.Regressor, error) {
	return t.trainRegressor(model.SubModelExpense, TypeExpensePrediction, model.TypeExpense, features.ExpenseSchema(), tbl)
}

func (t *Trainer) trainRegressor(name, modelType string, typ model.TransactionType, schema features.Schema, tbl model.Table) (*bundle.Regressor, error) {
	sub := tbl.FilterType(typ)
	if sub.Len() < MinRegressionRows {
		return nil, &model.InsufficientDataError{Model: name, Have: sub.Len(), Need: MinRegressionRows}
	}
	t.Log.Infof("training %s model on %d rows", name, sub.Len())

	rows, categories, err := features.Prepare(sub)
	if err != nil {
		return nil, err
	}
	X := schema.Matrix(rows)
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.Amount
	}

	scaler, err := ml.FitScaler(X)
	if err != nil {
		return nil, fmt.Errorf("%s scaler: %w", name, err)
	}
	Xs, err := scaler.TransformAll(X)
	if err != nil {
		return nil, fmt.Errorf("%s scaler: %w", name, err)
	}
	train, test, err := ml.TrainTestSplit(len(rows), t.Params.TestSize, t.Params.SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	forest, err := ml.FitForest(ml.Rows(Xs, train), ml.Floats(y, train), t.Params.Forest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	mae := ml.MeanAbsoluteError(ml.Floats(y, test), forest.PredictAll(ml.Rows(Xs, test)))
	t.Log.Infof("%s model trained, MAE: %.2f", name, mae)

	reg := &bundle.Regressor{
		Schema: schema,
		Scaler: scaler,
		Forest: forest,
		Report: &model.TrainingReport{
			ModelType:         modelType,
			MAE:               mae,
			FeatureImportance: importanceMap(schema, forest.Importances),
			TrainSamples:      len(train),
			TestSamples:       len(test),
		},
	}
	if typ == model.TypeExpense {
		reg.Categories = categories
	}
	return reg, nil
}

// TrainRisk labels users by volatility and fits the risk classifier on their rows.
func (t *Trainer) TrainRisk(tbl model.Table) (*bundle.Classifier, error) {
	labels, err := risk.Label(tbl)
	if err != nil {
		return nil, err
	}
	t.Log.Infof("training risk model on %d labelled rows from %d users", labels.Table.Len(), len(labels.Levels))

	rows, _, err := features.Prepare(labels.Table)
	if err != nil {
		return nil, err
	}
	levels := make([]string, len(rows))
	for i, r := range rows {
		lvl, _ := labels.Level(r.UserID)
		levels[i] = string(lvl)
	}
	enc := ml.FitLabelEncoder(levels)
	codes, err := enc.Transform(levels)
	if err != nil {
		return nil, fmt.Errorf("risk labels: %w", err)
	}

	schema := features.RiskSchema()
	X := schema.Matrix(rows)
	scaler, err := ml.FitScaler(X)
	if err != nil {
		return nil, fmt.Errorf("risk scaler: %w", err)
	}
	Xs, err := scaler.TransformAll(X)
	if err != nil {
		return nil, fmt.Errorf("risk scaler: %w", err)
	}
	train, test, err := ml.StratifiedSplit(codes, t.Params.TestSize, t.Params.SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}

	gb, err := ml.FitBoosting(ml.Rows(Xs, train), ml.Ints(codes, train), len(enc.Classes), t.Params.Boosting)
	if err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}
	rep := ml.Classification(ml.Ints(codes, test), gb.PredictAll(ml.Rows(Xs, test)), enc.Classes)
	t.Log.Infof("risk model trained, accuracy: %.2f", rep.Accuracy)

	return &bundle.Classifier{
		Schema: schema,
		Scaler: scaler,
		Model:  gb,
		Labels: enc,
		Report: &model.TrainingReport{
			ModelType:         TypeRiskAssessment,
			Classification:    rep,
			FeatureImportance: importanceMap(schema, gb.Importances),
			TrainSamples:      len(train),
			TestSamples:       len(test),
			RiskClasses:       append([]string(nil), enc.Classes...),
		},
	}, nil
}

// TrainAll fits every sub-model independently. A sub-model without enough data
// is skipped with a warning; any other failure aborts only that sub-model. The
// bundle is returned only when at least one sub-model was trained. Otherwise the
// error is the first *model.InsufficientDataError if every skip was for lack of
// data, else the first fit error.
func (t *Trainer) TrainAll(tbl model.Table) (*bundle.Bundle, *model.TrainingSummary, error) {
	t.Log.Infof("training all models on %d rows", tbl.Len())
	summary := &model.TrainingSummary{
		Reports: make(map[string]*model.TrainingReport),
		Skipped: make(map[string]string),
	}

	var firstData, firstFit error
	skip := func(name string, err error) {
		summary.Skipped[name] = err.Error()
		var ide *model.InsufficientDataError
		if errors.As(err, &ide) {
			t.Log.Warnf("skipping %s model: %v", name, err)
			if firstData == nil {
				firstData = err
			}
			return
		}
		t.Log.Errorf("%s model training failed: %v", name, err)
		if firstFit == nil {
			firstFit = err
		}
	}

	income, err := t.TrainIncome(tbl)
	if err != nil {
		skip(model.SubModelIncome, err)
	}
	expense, err := t.TrainExpense(tbl)
	if err != nil {
		skip(model.SubModelExpense, err)
	}
	riskModel, err := t.TrainRisk(tbl)
	if err != nil {
		skip(model.SubModelRisk, err)
	}

	b := bundle.New()
	if income != nil {
		b.Income = income
		summary.Reports[model.SubModelIncome] = income.Report
	}
	if expense != nil {
		b.Expense = expense
		summary.Reports[model.SubModelExpense] = expense.Report
	}
	if riskModel != nil {
		b.Risk = riskModel
		summary.Reports[model.SubModelRisk] = riskModel.Report
	}
	summary.ModelsTrained = b.Models()
	summary.Timestamp = t.Now()

	if len(summary.ModelsTrained) == 0 {
		if firstFit != nil {
			return nil, summary, firstFit
		}
		return nil, summary, firstData
	}
	b.Trained = true
	b.TrainedAt = summary.Timestamp
	t.Log.Infof("training finished, models: %v", summary.ModelsTrained)
	return b, summary, nil
}

func importanceMap(schema features.Schema, imp []float64) map[string]float64 {
	out := make(map[string]float64, len(schema))
	for i, name := range schema {
		if i < len(imp) {
			out[name] = imp[i]
		}
	}
	return out
}
