// Package journal persists sort operations for the operator-facing
// history and status commands.
//
// The journal is observability, not state: the ordering engine works
// with a nil journal and every write is best-effort from the caller's
// point of view. SQLite in WAL mode keeps concurrent CLI invocations
// from tripping over each other.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tabherd/tabherd/pkg/model"

	_ "modernc.org/sqlite"
)

// Journal manages the SQLite operation log.
type Journal struct {
	db *sql.DB
}

// New opens (or creates) the journal database and initializes the
// schema.
func New(path string) (*Journal, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error { return j.db.Close() }

// retryOnContention wraps retryOp from retry.go with the default
// config. All journal writes go through it.
func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id          TEXT PRIMARY KEY,
		mode        TEXT NOT NULL,
		tabs        INTEGER NOT NULL,
		moved       INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		degraded    INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_operations_started ON operations(started_at);

	CREATE TABLE IF NOT EXISTS moves (
		op_id   TEXT NOT NULL REFERENCES operations(id),
		tab_id  TEXT NOT NULL,
		target  INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		reason  TEXT,
		PRIMARY KEY (op_id, tab_id)
	);

	CREATE INDEX IF NOT EXISTS idx_moves_op ON moves(op_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record persists one finished operation with its per-tab results.
func (j *Journal) Record(op *model.Operation, results []model.MoveResult) error {
	return retryOnContention(func() error {
		tx, err := j.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(
			`INSERT INTO operations (id, mode, tabs, moved, failed, degraded, status, started_at, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			op.ID, string(op.Mode), op.Tabs, op.Moved, op.Failed, boolInt(op.Degraded),
			string(op.Status),
			op.StartedAt.UTC().Format(time.RFC3339Nano),
			op.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		for _, res := range results {
			_, err = tx.Exec(
				`INSERT INTO moves (op_id, tab_id, target, outcome, reason) VALUES (?, ?, ?, ?, ?)`,
				op.ID, res.TabID, res.Target, string(res.Outcome), res.Reason,
			)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// List returns the most recent operations, newest first.
func (j *Journal) List(limit int) ([]model.Operation, error) {
	rows, err := j.db.Query(
		`SELECT id, mode, tabs, moved, failed, degraded, status, started_at, finished_at
		 FROM operations ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []model.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	return ops, rows.Err()
}

// Get retrieves one operation and its per-tab move results.
func (j *Journal) Get(id string) (*model.Operation, []model.MoveResult, error) {
	row := j.db.QueryRow(
		`SELECT id, mode, tabs, moved, failed, degraded, status, started_at, finished_at
		 FROM operations WHERE id = ?`, id,
	)
	op, err := scanOperation(row)
	if err != nil {
		return nil, nil, err
	}

	rows, err := j.db.Query(
		`SELECT tab_id, target, outcome, reason FROM moves WHERE op_id = ? ORDER BY target`, id,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var results []model.MoveResult
	for rows.Next() {
		var res model.MoveResult
		var outcome string
		var reason sql.NullString
		if err := rows.Scan(&res.TabID, &res.Target, &outcome, &reason); err != nil {
			return nil, nil, err
		}
		res.Outcome = model.MoveOutcome(outcome)
		res.Reason = reason.String
		results = append(results, res)
	}
	return op, results, rows.Err()
}

// Last returns the most recent operation, or nil when the journal is
// empty.
func (j *Journal) Last() (*model.Operation, error) {
	ops, err := j.List(1)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, nil
	}
	return &ops[0], nil
}

// Count returns the total number of journaled operations.
func (j *Journal) Count() int64 {
	var n int64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM operations`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(row scanner) (*model.Operation, error) {
	var op model.Operation
	var mode, status, startStr, finishStr string
	var degraded int
	if err := row.Scan(&op.ID, &mode, &op.Tabs, &op.Moved, &op.Failed, &degraded,
		&status, &startStr, &finishStr); err != nil {
		return nil, err
	}
	op.Mode = model.SortMode(mode)
	op.Status = model.OperationStatus(status)
	op.Degraded = degraded != 0

	var parseErr error
	op.StartedAt, parseErr = time.Parse(time.RFC3339Nano, startStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parse started_at for operation %s: %w", op.ID, parseErr)
	}
	op.FinishedAt, parseErr = time.Parse(time.RFC3339Nano, finishStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parse finished_at for operation %s: %w", op.ID, parseErr)
	}
	return &op, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
