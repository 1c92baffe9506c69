package model

import (
	"fmt"
	"strings"
)

// FeaturePreparationError reports a transaction table the feature pipeline cannot use.
type FeaturePreparationError struct {
	Missing []string
	Reason  string
}

func (e *FeaturePreparationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("feature preparation: missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return "feature preparation: " + e.Reason
}

// InsufficientDataError reports that a sub-model's row threshold was not met.
type InsufficientDataError struct {
	Model string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s model: have %d rows, need at least %d", e.Model, e.Have, e.Need)
}

// ModelNotTrainedError reports a prediction attempted before the sub-model exists.
type ModelNotTrainedError struct {
	Model string
}

func (e *ModelNotTrainedError) Error() string {
	return fmt.Sprintf("%s model is not trained", e.Model)
}

// ArtifactIOError reports a failed bundle save or load.
type ArtifactIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *ArtifactIOError) Error() string {
	return fmt.Sprintf("%s model artifact %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArtifactIOError) Unwrap() error { return e.Err }

// InvalidHorizonError reports a forecast horizon outside the accepted range.
type InvalidHorizonError struct {
	Days     int
	Min, Max int
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("horizon must be between %d and %d days, got %d", e.Min, e.Max, e.Days)
}

// SchemaMismatchError reports a feature vector that does not match the schema its scaler was fit on.
type SchemaMismatchError struct {
	Model    string
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s feature schema mismatch: expected [%s], got [%s]",
		e.Model, strings.Join(e.Expected, ","), strings.Join(e.Got, ","))
}
