package bundle

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"FinSight/internal/features"
	"FinSight/internal/model"
)

// UserPath names the artifact of one user's bundle inside dir. The ID is
// base64url-encoded so distinct IDs never share a file. An empty userID names
// the cohort bundle, which no user ID can map to.
func UserPath(dir, userID string) string {
	if userID == "" {
		return filepath.Join(dir, "cohort_model.json")
	}
	return filepath.Join(dir, fmt.Sprintf("user_%s_model.json", base64.RawURLEncoding.EncodeToString([]byte(userID))))
}

// Exists reports whether an artifact is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Save writes b to path through a temp file in the same directory that is
// synced and renamed over the target, so readers see the old or the new artifact.
func Save(path string, b *Bundle) error {
	if b == nil || !b.Trained {
		return &model.ArtifactIOError{Op: "save", Path: path, Err: errors.New("bundle is not trained")}
	}
	fail := func(err error) error { return &model.ArtifactIOError{Op: "save", Path: path, Err: err} }

	saved := *b
	saved.SavedAt = time.Now().UTC()
	data, err := json.Marshal(&saved)
	if err != nil {
		return fail(err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*.tmp")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fail(err)
	}
	b.SavedAt = saved.SavedAt
	return nil
}

// Load reads a bundle from path. Any failure is an *model.ArtifactIOError.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ArtifactIOError{Op: "load", Path: path, Err: err}
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &model.ArtifactIOError{Op: "load", Path: path, Err: err}
	}
	if err := b.validate(); err != nil {
		return nil, &model.ArtifactIOError{Op: "load", Path: path, Err: err}
	}
	return &b, nil
}

func (b *Bundle) validate() error {
	if b.Income == nil && b.Expense == nil && b.Risk == nil {
		return errors.New("bundle has no trained sub-model")
	}
	if err := b.Income.validate(model.SubModelIncome, features.IncomeSchema()); err != nil {
		return err
	}
	if err := b.Expense.validate(model.SubModelExpense, features.ExpenseSchema()); err != nil {
		return err
	}
	return b.Risk.validate()
}

func (r *Regressor) validate(name string, expected features.Schema) error {
	if r == nil {
		return nil
	}
	if err := r.Schema.Validate(name, expected); err != nil {
		return err
	}
	if err := r.Scaler.Validate(len(r.Schema)); err != nil {
		return fmt.Errorf("%s artifact: %w", name, err)
	}
	if err := r.Forest.Validate(len(r.Schema)); err != nil {
		return fmt.Errorf("%s artifact: %w", name, err)
	}
	return nil
}

func (c *Classifier) validate() error {
	if c == nil {
		return nil
	}
	if err := c.Schema.Validate(model.SubModelRisk, features.RiskSchema()); err != nil {
		return err
	}
	if c.Labels == nil || len(c.Labels.Classes) < 2 {
		return errors.New("risk artifact: label encoder needs at least 2 classes")
	}
	if err := c.Scaler.Validate(len(c.Schema)); err != nil {
		return fmt.Errorf("risk artifact: %w", err)
	}
	if err := c.Model.Validate(len(c.Schema), len(c.Labels.Classes)); err != nil {
		return fmt.Errorf("risk artifact: %w", err)
	}
	return nil
}
