package notifier

import (
	"context"
	"errors"

	"FinSight/internal/model"
)

// Notifier reports the outcome of background training.
type Notifier interface {
	NotifyTrainingComplete(ctx context.Context, userID string, summary *model.TrainingSummary) error
	NotifyTrainingFailed(ctx context.Context, userID string, err error) error
}

// Multi fans a notification out to every configured channel. All channels are
// tried; their errors are joined.
type Multi []Notifier

func (m Multi) NotifyTrainingComplete(ctx context.Context, userID string, summary *model.TrainingSummary) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyTrainingComplete(ctx, userID, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyTrainingFailed(ctx context.Context, userID string, cause error) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyTrainingFailed(ctx, userID, cause); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) NotifyTrainingComplete(context.Context, string, *model.TrainingSummary) error { return nil }

func (Noop) NotifyTrainingFailed(context.Context, string, error) error { return nil }
