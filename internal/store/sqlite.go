package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tradelab/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ TraderStore = (*SQLiteStore)(nil)

// SQLiteStore implements TraderStore backed by a SQLite database. Weight
// vectors and formula representations are stored as JSON payload columns;
// the store never interprets them beyond round-tripping.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	symbol       TEXT NOT NULL,
	generations  INTEGER NOT NULL,
	population   INTEGER NOT NULL,
	best_score   REAL NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS traders (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	generation  INTEGER NOT NULL,
	score       REAL NOT NULL,
	max_lag     INTEGER NOT NULL,
	weights     TEXT NOT NULL,
	formulas    TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_traders_run_score ON traders(run_id, score DESC);
`

// NewSQLiteStore opens (or creates) the database at dbPath and applies the
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts or updates a run summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, symbol, generations, population, best_score, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Symbol, run.Generations, run.Population, run.BestScore,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// LatestRun returns the most recently started run, or nil when empty.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, generations, population, best_score, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT 1`)

	var (
		run                 domain.Run
		startedMs, finishMs int64
	)
	err := row.Scan(&run.ID, &run.Symbol, &run.Generations, &run.Population, &run.BestScore, &startedMs, &finishMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	run.StartedAt = time.UnixMilli(startedMs).UTC()
	run.FinishedAt = time.UnixMilli(finishMs).UTC()
	return &run, nil
}

// SaveTraders persists a batch of trader records in one transaction.
func (s *SQLiteStore) SaveTraders(ctx context.Context, records []domain.TraderRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO traders (id, run_id, generation, score, max_lag, weights, formulas, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		weights, err := json.Marshal(r.Weights)
		if err != nil {
			return fmt.Errorf("encoding weights for %s: %w", r.ID, err)
		}
		formulas, err := json.Marshal(r.Formulas)
		if err != nil {
			return fmt.Errorf("encoding formulas for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.RunID, r.Generation, r.Score, r.MaxLag,
			string(weights), string(formulas), r.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("inserting trader %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// TopTraders returns up to limit traders for a run, best score first.
func (s *SQLiteStore) TopTraders(ctx context.Context, runID string, limit int) ([]domain.TraderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, generation, score, max_lag, weights, formulas, created_at
		FROM traders WHERE run_id = ? ORDER BY score DESC LIMIT ?`,
		runID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying traders for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []domain.TraderRecord
	for rows.Next() {
		r, err := scanTrader(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// GetTrader retrieves a single trader by ID, or nil when absent.
func (s *SQLiteStore) GetTrader(ctx context.Context, id string) (*domain.TraderRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, generation, score, max_lag, weights, formulas, created_at
		FROM traders WHERE id = ?`, id)

	r, err := scanTrader(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// scanTrader decodes one trader row from either *sql.Row or *sql.Rows.
func scanTrader(scan func(dest ...any) error) (*domain.TraderRecord, error) {
	var (
		r                 domain.TraderRecord
		weights, formulas string
		createdMs         int64
	)
	if err := scan(&r.ID, &r.RunID, &r.Generation, &r.Score, &r.MaxLag, &weights, &formulas, &createdMs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(weights), &r.Weights); err != nil {
		return nil, fmt.Errorf("decoding weights for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(formulas), &r.Formulas); err != nil {
		return nil, fmt.Errorf("decoding formulas for %s: %w", r.ID, err)
	}
	r.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &r, nil
}
