// Package registry owns the trained bundles of every user and serialises their training.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"FinSight/internal/bundle"
	"FinSight/internal/cache"
	"FinSight/internal/collector"
	"FinSight/internal/model"
	"FinSight/internal/notifier"
	"FinSight/internal/recorder"
	"FinSight/internal/trainer"
)

// CohortKey names the bundle trained on every user's transactions. Risk levels are
// relative to a cohort, so only this bundle can carry a risk classifier in practice.
// It is the empty user ID, which fetchers already read as "every user".
const CohortKey = ""

// DisplayName is how key appears in logs and messages.
func DisplayName(key string) string {
	if key == CohortKey {
		return "cohort"
	}
	return key
}

var (
	// ErrTrainingInProgress is returned when a fit for the same key is already running.
	ErrTrainingInProgress = errors.New("training already in progress")
	// ErrNoBundle is returned when neither the key nor the cohort has a saved bundle.
	ErrNoBundle = errors.New("no trained models")
)

// Registry caches loaded bundles and runs at most one fit per key.
type Registry struct {
	Dir       string
	MinRows   int
	Collector *collector.Collector
	Trainer   *trainer.Trainer
	Recorder  recorder.Recorder
	Cache     cache.Cache
	Notifier  notifier.Notifier
	Log       *logrus.Logger
	Now       func() time.Time

	mu      sync.RWMutex
	bundles map[string]*bundle.Bundle

	trainMu  sync.Mutex
	training map[string]bool
	wg       sync.WaitGroup
}

// New creates a Registry with no-op history, cache and notification sinks.
func New(dir string, minRows int, col *collector.Collector, tr *trainer.Trainer, log *logrus.Logger) *Registry {
	return &Registry{
		Dir:       dir,
		MinRows:   minRows,
		Collector: col,
		Trainer:   tr,
		Recorder:  recorder.NewNoopRecorder(),
		Cache:     cache.NewMemory(cache.DefaultTTL),
		Notifier:  notifier.Noop{},
		Log:       log,
		Now:       time.Now,
		bundles:   make(map[string]*bundle.Bundle),
		training:  make(map[string]bool),
	}
}

// Ready reports whether a bundle for key is loaded or saved on disk.
func (r *Registry) Ready(key string) bool {
	r.mu.RLock()
	_, ok := r.bundles[key]
	r.mu.RUnlock()
	return ok || bundle.Exists(bundle.UserPath(r.Dir, key))
}

// Get returns the bundle for key, loading it from disk on first use.
func (r *Registry) Get(key string) (*bundle.Bundle, error) {
	r.mu.RLock()
	b, ok := r.bundles[key]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	path := bundle.UserPath(r.Dir, key)
	if !bundle.Exists(path) {
		return nil, fmt.Errorf("%w for %s", ErrNoBundle, DisplayName(key))
	}
	b, err := bundle.Load(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.bundles[key]; ok {
		return cur, nil
	}
	r.bundles[key] = b
	r.Log.Infof("loaded bundle %s for %s", b.ID, DisplayName(key))
	return b, nil
}

// Resolve returns the user's own bundle, falling back to the cohort bundle.
func (r *Registry) Resolve(userID string) (*bundle.Bundle, error) {
	b, err := r.Get(userID)
	if errors.Is(err, ErrNoBundle) && userID != CohortKey {
		return r.Get(CohortKey)
	}
	return b, err
}

// LastResult returns the cached summary of the most recent successful fit for key.
func (r *Registry) LastResult(ctx context.Context, key string) (*model.TrainingSummary, bool, error) {
	return r.Cache.GetTrainingResult(ctx, key)
}

func (r *Registry) begin(key string) error {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()
	if r.training[key] {
		return fmt.Errorf("%w for %s", ErrTrainingInProgress, DisplayName(key))
	}
	r.training[key] = true
	return nil
}

func (r *Registry) end(key string) {
	r.trainMu.Lock()
	delete(r.training, key)
	r.trainMu.Unlock()
}

// Train collects transactions for key, fits every sub-model and saves the bundle.
func (r *Registry) Train(ctx context.Context, key string) (*model.TrainingSummary, error) {
	if err := r.begin(key); err != nil {
		return nil, err
	}
	defer r.end(key)
	return r.train(ctx, key)
}

// TrainInBackground starts a fit and returns once it is admitted. The outcome is
// delivered to the notifier, the recorder and the cache.
func (r *Registry) TrainInBackground(ctx context.Context, key string) error {
	if err := r.begin(key); err != nil {
		return err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.end(key)
		if _, err := r.train(ctx, key); err != nil {
			r.Log.Errorf("background training for %s: %v", DisplayName(key), err)
		}
	}()
	return nil
}

// Wait blocks until every background fit has finished.
func (r *Registry) Wait() { r.wg.Wait() }

func (r *Registry) train(ctx context.Context, key string) (*model.TrainingSummary, error) {
	run := &recorder.TrainingRun{ID: uuid.NewString(), UserID: key, StartedAt: r.Now()}
	r.Log.Infof("training started for %s (run %s)", DisplayName(key), run.ID)

	summary, err := r.fit(ctx, key, run)
	run.FinishedAt = r.Now()
	run.Summary = summary
	if err != nil {
		run.Status = recorder.StatusFailed
		run.Error = err.Error()
		r.record(run)
		if nerr := r.Notifier.NotifyTrainingFailed(ctx, DisplayName(key), err); nerr != nil {
			r.Log.Errorf("notify training failure: %v", nerr)
		}
		return summary, err
	}

	run.Status = recorder.StatusSuccess
	r.record(run)
	if cerr := r.Cache.SetTrainingResult(ctx, key, summary); cerr != nil {
		r.Log.Errorf("cache training result: %v", cerr)
	}
	if nerr := r.Notifier.NotifyTrainingComplete(ctx, DisplayName(key), summary); nerr != nil {
		r.Log.Errorf("notify training complete: %v", nerr)
	}
	r.Log.Infof("training finished for %s in %v", DisplayName(key), run.Duration())
	return summary, nil
}

func (r *Registry) fit(ctx context.Context, key string, run *recorder.TrainingRun) (*model.TrainingSummary, error) {
	tbl, err := r.Collector.Collect(ctx, key)
	if err != nil {
		return nil, err
	}
	run.Rows = tbl.Len()
	if tbl.Len() < r.MinRows {
		return nil, &model.InsufficientDataError{Model: "training", Have: tbl.Len(), Need: r.MinRows}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, summary, err := r.Trainer.TrainAll(tbl)
	if err != nil {
		return summary, err
	}
	b.UserID = key
	if err := bundle.Save(bundle.UserPath(r.Dir, key), b); err != nil {
		return summary, err
	}
	run.BundleID = b.ID

	r.mu.Lock()
	r.bundles[key] = b
	r.mu.Unlock()
	return summary, nil
}

func (r *Registry) record(run *recorder.TrainingRun) {
	if err := r.Recorder.RecordTrainingRun(run); err != nil {
		r.Log.Errorf("record training run: %v", err)
	}
}
