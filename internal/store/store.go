// Package store keeps a history of batch runs in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/shs"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeLayout sorts lexically in time order for UTC values.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored batch run.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Language   string    `json:"language"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	FileErrors int       `json:"file_errors"`
	MeanScore  *float64  `json:"mean_score,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// Evaluation is one stored outcome of a run. Record is nil for failures.
type Evaluation struct {
	RunID       string      `json:"run_id"`
	Seq         int         `json:"seq"`
	Source      string      `json:"source"`
	RecordIndex int         `json:"record_index"`
	Band        string      `json:"band,omitempty"`
	Record      *shs.Record `json:"record,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Store wraps the database handle.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path, applies pragmas
// and runs migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	logger.Debug("opened run history", zap.String("path", path))
	return s, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			created_at  TEXT    NOT NULL,
			language    TEXT    NOT NULL,
			total       INTEGER NOT NULL,
			succeeded   INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			file_errors INTEGER NOT NULL DEFAULT 0,
			mean_score  REAL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS evaluations (
			run_id              TEXT    NOT NULL,
			seq                 INTEGER NOT NULL,
			source              TEXT    NOT NULL,
			record_index        INTEGER NOT NULL,
			overall_score       REAL,
			overall_consistency REAL,
			band                TEXT,
			record_json         TEXT,
			error               TEXT,
			PRIMARY KEY (run_id, seq),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a batch summary and all of its outcomes in one transaction.
func (s *Store) SaveRun(ctx context.Context, summary *batch.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var mean *float64
	if results := summary.Results(); len(results) > 0 {
		m := batch.ComputeStatistics(results).OverallScore.Mean
		mean = &m
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, language, total, succeeded, failed, file_errors, mean_score, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.StartTime.UTC().Format(timeLayout),
		string(summary.Language),
		summary.Total,
		summary.Succeeded,
		summary.Failed,
		len(summary.FileErrors),
		mean,
		summary.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("store: insert run %s: %w", summary.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO evaluations (run_id, seq, source, record_index, overall_score, overall_consistency, band, record_json, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for seq, o := range summary.Outcomes {
		var (
			score, consistency *float64
			band, recordJSON   *string
			errText            *string
		)
		if o.OK() {
			rec := shs.ToSerializable(*o.Result)
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("store: marshal record %d: %w", seq, err)
			}
			js := string(data)
			score, consistency = &rec.OverallScore, &rec.OverallConsistency
			band, recordJSON = &rec.OverallBand, &js
		} else if o.Err != nil {
			msg := o.Err.Error()
			errText = &msg
		}

		if _, err := stmt.ExecContext(ctx, summary.RunID, seq, o.Item.Source, o.Item.Index,
			score, consistency, band, recordJSON, errText); err != nil {
			return fmt.Errorf("store: insert evaluation %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	s.logger.Info("saved run", zap.String("run_id", summary.RunID), zap.Int("evaluations", len(summary.Outcomes)))
	return nil
}

// RecentRuns returns the newest runs first. A limit of zero or less means 10.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, language, total, succeeded, failed, file_errors, mean_score, duration_ms
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			createdAt string
			mean      sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &createdAt, &r.Language, &r.Total, &r.Succeeded, &r.Failed,
			&r.FileErrors, &mean, &r.DurationMS); err != nil {
			return nil, err
		}
		r.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("store: run %s: bad created_at %q: %w", r.ID, createdAt, err)
		}
		if mean.Valid {
			m := mean.Float64
			r.MeanScore = &m
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEvaluations returns the outcomes of a run in their original order.
func (s *Store) RunEvaluations(ctx context.Context, runID string) ([]Evaluation, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("store: query run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, source, record_index, band, record_json, error
		FROM evaluations
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: query evaluations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var evals []Evaluation
	for rows.Next() {
		var (
			e                  = Evaluation{RunID: runID}
			band, rec, errText sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.Source, &e.RecordIndex, &band, &rec, &errText); err != nil {
			return nil, err
		}
		e.Band = band.String
		e.Error = errText.String
		if rec.Valid {
			var r shs.Record
			if err := json.Unmarshal([]byte(rec.String), &r); err != nil {
				return nil, fmt.Errorf("store: decode record %d of run %s: %w", e.Seq, runID, err)
			}
			e.Record = &r
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}
