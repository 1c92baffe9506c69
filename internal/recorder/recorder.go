package recorder

import (
	"time"

	"FinSight/internal/model"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// TrainingRun is one training attempt for a user.
type TrainingRun struct {
	ID         string
	UserID     string
	BundleID   string
	Status     string
	Rows       int
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
	Summary    *model.TrainingSummary
}

// Duration is how long the run took.
func (r *TrainingRun) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ModelRun is the stored outcome of one sub-model within a run.
type ModelRun struct {
	Model        string
	ModelType    string
	MAE          float64
	Accuracy     float64
	TrainSamples int
	TestSamples  int
	Skipped      string
}

// Recorder persists training history for analysis.
type Recorder interface {
	RecordTrainingRun(run *TrainingRun) error
	RecentRuns(userID string, limit int) ([]TrainingRun, error)
	Close() error
}

// modelRuns flattens a summary into per-sub-model rows.
func modelRuns(s *model.TrainingSummary) []ModelRun {
	if s == nil {
		return nil
	}
	var out []ModelRun
	for _, name := range []string{model.SubModelIncome, model.SubModelExpense, model.SubModelRisk} {
		if rep, ok := s.Reports[name]; ok && rep != nil {
			mr := ModelRun{
				Model:        name,
				ModelType:    rep.ModelType,
				MAE:          rep.MAE,
				TrainSamples: rep.TrainSamples,
				TestSamples:  rep.TestSamples,
			}
			if rep.Classification != nil {
				mr.Accuracy = rep.Classification.Accuracy
			}
			out = append(out, mr)
			continue
		}
		if reason, ok := s.Skipped[name]; ok {
			out = append(out, ModelRun{Model: name, Skipped: reason})
		}
	}
	return out
}
