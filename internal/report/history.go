package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/hwbench/station/pkg/api"
)

// History records completed runs in a local database. The full record is
// stored as JSON alongside indexed summary columns
type History struct {
	db *sql.DB
}

var ErrRunNotFound = errors.New("run not found")

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	station TEXT,
	verdict TEXT NOT NULL,
	stop TEXT NOT NULL,
	error TEXT,
	started_at TEXT NOT NULL,
	ended_at TEXT NOT NULL,
	record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// NewHistory opens or creates the run history database at path
func NewHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &History{db: db}, nil
}

// Save records a completed run. Saving the same run twice replaces the
// earlier record
func (h *History) Save(ctx context.Context, res *api.RunResult) error {
	record, err := json.Marshal(res)
	if err != nil {
		return err
	}

	const query = `
		INSERT OR REPLACE INTO runs
			(id, station, verdict, stop, error, started_at, ended_at, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = h.db.ExecContext(ctx, query,
		string(res.ID), res.Station, string(res.Verdict), string(res.Stop),
		res.Error,
		res.StartedAt.UTC().Format(time.RFC3339Nano),
		res.EndedAt.UTC().Format(time.RFC3339Nano),
		string(record))
	return err
}

// Get retrieves the full record of one run
func (h *History) Get(
	ctx context.Context, id api.RunID,
) (*api.RunResult, error) {
	const query = `SELECT record FROM runs WHERE id = ?`
	var record string
	err := h.db.QueryRowContext(ctx, query, string(id)).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var res api.RunResult
	if err := json.Unmarshal([]byte(record), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns summaries of the most recent runs, newest first
func (h *History) List(
	ctx context.Context, limit int,
) ([]*api.RunDigest, error) {
	const query = `
		SELECT id, verdict, stop, error, started_at, ended_at
		FROM runs ORDER BY started_at DESC LIMIT ?`
	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var digests []*api.RunDigest
	for rows.Next() {
		d, err := scanDigest(rows)
		if err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

// Close releases the underlying database
func (h *History) Close() error {
	return h.db.Close()
}

func scanDigest(rows *sql.Rows) (*api.RunDigest, error) {
	var d api.RunDigest
	var started, ended string
	err := rows.Scan(&d.ID, &d.Verdict, &d.Stop, &d.Error, &started, &ended)
	if err != nil {
		return nil, err
	}
	if d.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, err
	}
	if d.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
		return nil, err
	}
	return &d, nil
}
