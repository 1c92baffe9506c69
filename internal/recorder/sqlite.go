package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"FinSight/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS training_runs (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	bundle_id      TEXT,
	status         TEXT NOT NULL,
	row_count      INTEGER,
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL,
	models_trained TEXT,
	error          TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_user_ts ON training_runs(user_id, started_at);

CREATE TABLE IF NOT EXISTS run_models (
	run_id        TEXT NOT NULL REFERENCES training_runs(id) ON DELETE CASCADE,
	model         TEXT NOT NULL,
	model_type    TEXT,
	mae           REAL,
	accuracy      REAL,
	train_samples INTEGER,
	test_samples  INTEGER,
	skipped       TEXT,
	PRIMARY KEY (run_id, model)
);
`

// SQLiteRecorder persists training history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and creates the schema.
func NewSQLiteRecorder(dbPath string, log *logrus.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return &SQLiteRecorder{db: db, log: log}, nil
}

// RecordTrainingRun stores a run and its per-model outcomes. A missing ID is generated.
func (r *SQLiteRecorder) RecordTrainingRun(run *TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	var trained []string
	if run.Summary != nil {
		trained = run.Summary.ModelsTrained
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO training_runs
		(id, user_id, bundle_id, status, row_count, started_at, finished_at, models_trained, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.UserID, run.BundleID, run.Status, run.Rows,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		strings.Join(trained, ","), run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, mr := range modelRuns(run.Summary) {
		_, err = tx.Exec(`INSERT INTO run_models
			(run_id, model, model_type, mae, accuracy, train_samples, test_samples, skipped)
			VALUES (?,?,?,?,?,?,?,?)`,
			run.ID, mr.Model, mr.ModelType, mr.MAE, mr.Accuracy, mr.TrainSamples, mr.TestSamples, mr.Skipped,
		)
		if err != nil {
			return fmt.Errorf("insert %s model: %w", mr.Model, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs for userID, newest first. Summaries are
// rebuilt from the stored per-model rows.
func (r *SQLiteRecorder) RecentRuns(userID string, limit int) ([]TrainingRun, error) {
	rows, err := r.db.Query(`SELECT id, user_id, bundle_id, status, row_count, started_at, finished_at, models_trained, error
		FROM training_runs WHERE user_id = ? ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []TrainingRun
	for rows.Next() {
		var (
			run              TrainingRun
			started, ended   int64
			trained, errText sql.NullString
			bundleID         sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.UserID, &bundleID, &run.Status, &run.Rows, &started, &ended, &trained, &errText); err != nil {
			return nil, err
		}
		run.BundleID = bundleID.String
		run.StartedAt = time.UnixMilli(started).UTC()
		run.FinishedAt = time.UnixMilli(ended).UTC()
		run.Error = errText.String
		run.Summary = &model.TrainingSummary{
			Reports:   make(map[string]*model.TrainingReport),
			Skipped:   make(map[string]string),
			Timestamp: run.FinishedAt,
		}
		if trained.String != "" {
			run.Summary.ModelsTrained = strings.Split(trained.String, ",")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := r.loadModels(&runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (r *SQLiteRecorder) loadModels(run *TrainingRun) error {
	rows, err := r.db.Query(`SELECT model, model_type, mae, accuracy, train_samples, test_samples, skipped
		FROM run_models WHERE run_id = ?`, run.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var mr ModelRun
		var modelType, skipped sql.NullString
		if err := rows.Scan(&mr.Model, &modelType, &mr.MAE, &mr.Accuracy, &mr.TrainSamples, &mr.TestSamples, &skipped); err != nil {
			return err
		}
		if skipped.String != "" {
			run.Summary.Skipped[mr.Model] = skipped.String
			continue
		}
		rep := &model.TrainingReport{
			ModelType:    modelType.String,
			MAE:          mr.MAE,
			TrainSamples: mr.TrainSamples,
			TestSamples:  mr.TestSamples,
		}
		if mr.Model == model.SubModelRisk {
			rep.Classification = &model.ClassificationReport{Accuracy: mr.Accuracy}
		}
		run.Summary.Reports[mr.Model] = rep
	}
	return rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
