package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"FinSight/internal/bundle"
	"FinSight/internal/collector"
	"FinSight/internal/model"
	"FinSight/internal/notifier"
	"FinSight/internal/predictor"
	"FinSight/internal/registry"
)

// Scheduler runs periodic retraining and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Registry  *registry.Registry
	Predictor *predictor.Predictor
	Users     []string
	Log       *logrus.Logger
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. The cohort bundle is always retrained
// before the listed users.
func NewScheduler(ctx context.Context, reg *registry.Registry, users []string, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Registry:  reg,
		Predictor: predictor.New(),
		Users:     users,
		Log:       log,
		Ctx:       ctx,
	}
}

// RegisterAll registers the retraining task.
func (s *Scheduler) RegisterAll(retrainCron string) error {
	if _, err := s.Cron.AddFunc(retrainCron, func() { s.retrainTask() }); err != nil {
		return fmt.Errorf("register retrain task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs and background fits.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Registry.Wait()
	s.Log.Info("scheduler stopped")
}

// RunRetrainNow executes the retraining task immediately (for RUN_ON_START).
func (s *Scheduler) RunRetrainNow() {
	s.retrainTask()
}

// retrainCounts tallies one pass of the retrain task. Busy keys were already
// being trained by someone else and are not failures.
type retrainCounts struct {
	trained, failed, busy int
}

func (s *Scheduler) keys() []string {
	keys := []string{registry.CohortKey}
	for _, u := range s.Users {
		if u != registry.CohortKey {
			keys = append(keys, u)
		}
	}
	return keys
}

func (s *Scheduler) retrainTask() retrainCounts {
	s.Log.Info("running retrain task")
	var c retrainCounts
	for _, key := range s.keys() {
		if err := s.Ctx.Err(); err != nil {
			s.Log.Warnf("retrain task cancelled: %v", err)
			return c
		}
		name := registry.DisplayName(key)
		if _, err := s.Registry.Train(s.Ctx, key); err != nil {
			if errors.Is(err, registry.ErrTrainingInProgress) {
				c.busy++
				s.Log.Warnf("retrain %s: %v", name, err)
				continue
			}
			c.failed++
			s.Log.Errorf("retrain %s: %v", name, err)
			continue
		}
		c.trained++
	}
	s.Log.Infof("retrain task done: %d trained, %d failed, %d already in progress", c.trained, c.failed, c.busy)
	return c
}

const helpText = "Available commands:\n" +
	"• /train &lt;user&gt;\n" +
	"• /status &lt;user&gt;\n" +
	"• /risk &lt;user&gt;\n" +
	"• /insights &lt;user&gt;"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	user := registry.CohortKey
	if len(fields) > 1 {
		user = fields[1]
	}

	switch fields[0] {
	case "/train":
		if err := s.Registry.TrainInBackground(s.Ctx, user); err != nil {
			return failure(err)
		}
		return fmt.Sprintf("⏳ training started for %s", html.EscapeString(registry.DisplayName(user)))
	case "/status":
		last, _, err := s.Registry.LastResult(ctx, user)
		if err != nil {
			s.Log.Warnf("read cached result for %s: %v", registry.DisplayName(user), err)
		}
		return notifier.FormatStatus(registry.DisplayName(user), s.Registry.Ready(user), last)
	case "/risk":
		if len(fields) < 2 {
			return "usage: /risk &lt;user&gt;"
		}
		b, snap, err := s.load(ctx, user)
		if err != nil {
			return failure(err)
		}
		a, err := s.Predictor.AssessRisk(b, snap)
		if err != nil {
			return failure(err)
		}
		return notifier.FormatRisk(user, a)
	case "/insights":
		if len(fields) < 2 {
			return "usage: /insights &lt;user&gt;"
		}
		b, snap, err := s.load(ctx, user)
		if err != nil {
			return failure(err)
		}
		report, err := s.Predictor.GenerateInsights(b, snap)
		if err != nil {
			return failure(err)
		}
		return notifier.FormatInsights(user, report)
	default:
		return helpText
	}
}

func failure(err error) string {
	return "❌ " + html.EscapeString(err.Error())
}

// load resolves the bundle serving user and builds the user's current snapshot.
func (s *Scheduler) load(ctx context.Context, user string) (*bundle.Bundle, model.Snapshot, error) {
	b, err := s.Registry.Resolve(user)
	if err != nil {
		return nil, model.Snapshot{}, err
	}
	tbl, err := s.Registry.Collector.Collect(ctx, user)
	if err != nil {
		return nil, model.Snapshot{}, err
	}
	return b, collector.BuildSnapshot(tbl, user), nil
}
