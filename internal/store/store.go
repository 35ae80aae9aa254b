package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/epiwatch/outbreak-extractor/internal/batch"
)

// Store persists runs and their row results to an embedded SQLite database
// so past extraction runs stay queryable after the workbook is shipped off.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	model_name     TEXT NOT NULL,
	workers        INTEGER NOT NULL,
	retries        INTEGER NOT NULL,
	rows_total     INTEGER NOT NULL,
	rows_failed    INTEGER NOT NULL,
	total_seconds  REAL NOT NULL,
	incomplete     INTEGER NOT NULL,
	started_at     TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS row_results (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	row_id          INTEGER NOT NULL,
	source_url      TEXT NOT NULL,
	status          TEXT NOT NULL,
	error           TEXT NOT NULL,
	attempts        INTEGER NOT NULL,
	process_seconds REAL NOT NULL,
	full_text_chars INTEGER NOT NULL,
	fields_json     TEXT,
	PRIMARY KEY (run_id, row_id)
);
`

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply results schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// SaveRun writes the run row and all row results in one transaction and
// returns the generated run ID.
func (s *Store) SaveRun(ctx context.Context, summary batch.Summary, results []batch.Result, startedAt time.Time) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, model_name, workers, retries, rows_total, rows_failed, total_seconds, incomplete, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, summary.ModelName, summary.Workers, summary.Retries,
		summary.RowsTotal, summary.RowsFailed, summary.TotalSeconds,
		summary.Incomplete, startedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO row_results (run_id, row_id, source_url, status, error, attempts, process_seconds, full_text_chars, fields_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare result insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, res := range results {
		var fieldsJSON []byte
		if res.Fields != nil {
			fieldsJSON, err = json.Marshal(res.Fields)
			if err != nil {
				return "", fmt.Errorf("marshal fields row %d: %w", res.RowID, err)
			}
		}
		_, err = stmt.ExecContext(ctx,
			runID, res.RowID, res.SourceURL, string(res.Status), res.Error,
			res.Attempts, res.Seconds, res.TextChars, string(fieldsJSON))
		if err != nil {
			return "", fmt.Errorf("insert result row %d: %w", res.RowID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	s.logger.Info("store.run.saved", "run_id", runID, "rows", len(results))
	return runID, nil
}

// RunResult is a stored row result joined back by run.
type RunResult struct {
	RunID          string  `db:"run_id"`
	RowID          int     `db:"row_id"`
	SourceURL      string  `db:"source_url"`
	Status         string  `db:"status"`
	Error          string  `db:"error"`
	Attempts       int     `db:"attempts"`
	ProcessSeconds float64 `db:"process_seconds"`
	FullTextChars  int     `db:"full_text_chars"`
	FieldsJSON     string  `db:"fields_json"`
}

// ListResults returns all row results for runID ordered by row_id.
func (s *Store) ListResults(ctx context.Context, runID string) ([]RunResult, error) {
	var out []RunResult
	err := s.db.SelectContext(ctx, &out,
		`SELECT run_id, row_id, source_url, status, error, attempts, process_seconds, full_text_chars, COALESCE(fields_json, '') AS fields_json
		 FROM row_results WHERE run_id = ? ORDER BY row_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
