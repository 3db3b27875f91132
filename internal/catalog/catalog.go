// Package catalog records pipeline runs and the outputs they wrote in a
// SQLite database, so a later run can check whether outputs drifted.
package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/timeutil"
	"github.com/wetwoodland/webmap/internal/version"
)

// ErrRunNotFound is returned when a run id is not in the catalog.
var ErrRunNotFound = errors.New("run not found")

// Run status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// DB is the run catalog. It embeds the *sql.DB so callers can query the
// schema directly.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// Run is one invocation of a pipeline tool.
type Run struct {
	ID         string
	Tool       string
	Version    string
	Params     map[string]string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Error      string
	ItemCount  int
	Outputs    []Output
}

// Output is a file written by a run.
type Output struct {
	Path   string
	SHA256 string
	Size   int64
}

// Drift describes an output whose content no longer matches the catalog.
type Drift struct {
	Path    string
	Want    string
	Got     string
	Missing bool
}

func (d Drift) String() string {
	if d.Missing {
		return fmt.Sprintf("%s: missing", d.Path)
	}
	return fmt.Sprintf("%s: sha256 %s, want %s", d.Path, d.Got, d.Want)
}

// Open opens (creating if needed) the catalog at path and migrates it to
// the latest schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps the pragmas in force for every statement.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configure catalog: %w", err)
	}

	db := &DB{DB: sqlDB, clock: timeutil.RealClock{}}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SetClock replaces the clock used for run timestamps.
func (db *DB) SetClock(c timeutil.Clock) {
	db.clock = c
}

// StartRun inserts a new run in the running state.
func (db *DB) StartRun(tool string, params map[string]string) (*Run, error) {
	if params == nil {
		params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	run := &Run{
		ID:        uuid.New().String(),
		Tool:      tool,
		Version:   version.String(),
		Params:    params,
		StartedAt: db.clock.Now().UTC(),
		Status:    StatusRunning,
	}
	_, err = db.Exec(`
		INSERT INTO runs (run_id, tool, version, params_json, started_unix_ns, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Tool, run.Version, string(paramsJSON), run.StartedAt.UnixNano(), run.Status)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordOutputs hashes each path through fsys and stores it against the
// run. Recording a path twice keeps the latest hash.
func (db *DB) RecordOutputs(fsys fsutil.FileSystem, runID string, paths ...string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_outputs (run_id, path, sha256, size_bytes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, path) DO UPDATE SET
			sha256 = excluded.sha256,
			size_bytes = excluded.size_bytes`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range paths {
		sum, size, err := fsutil.HashFile(fsys, p)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(runID, p, sum, size); err != nil {
			return fmt.Errorf("record output %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// Finish marks a run as succeeded with the number of items it produced.
func (db *DB) Finish(runID string, itemCount int) error {
	return db.finish(runID, StatusSucceeded, "", itemCount)
}

// Fail marks a run as failed with the error text.
func (db *DB) Fail(runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return db.finish(runID, StatusFailed, msg, 0)
}

func (db *DB) finish(runID, status, msg string, itemCount int) error {
	res, err := db.Exec(`
		UPDATE runs SET finished_unix_ns = ?, status = ?, error = ?, item_count = ?
		WHERE run_id = ?`,
		db.clock.Now().UTC().UnixNano(), status, msg, itemCount, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Get returns a run and its outputs.
func (db *DB) Get(runID string) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, tool, version, params_json, started_unix_ns, finished_unix_ns,
		       status, error, item_count
		FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT path, sha256, size_bytes FROM run_outputs
		WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Path, &o.SHA256, &o.Size); err != nil {
			return nil, err
		}
		run.Outputs = append(run.Outputs, o)
	}
	return run, rows.Err()
}

// List returns the most recent runs first, without outputs. A limit of
// zero or less returns every run.
func (db *DB) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT run_id, tool, version, params_json, started_unix_ns, finished_unix_ns,
		       status, error, item_count
		FROM runs ORDER BY started_unix_ns DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Verify re-hashes every output of a run and reports the ones that no
// longer match.
func (db *DB) Verify(fsys fsutil.FileSystem, runID string) ([]Drift, error) {
	run, err := db.Get(runID)
	if err != nil {
		return nil, err
	}

	var drift []Drift
	for _, o := range run.Outputs {
		if !fsys.Exists(o.Path) {
			drift = append(drift, Drift{Path: o.Path, Want: o.SHA256, Missing: true})
			continue
		}
		sum, _, err := fsutil.HashFile(fsys, o.Path)
		if err != nil {
			return nil, err
		}
		if sum != o.SHA256 {
			drift = append(drift, Drift{Path: o.Path, Want: o.SHA256, Got: sum})
		}
	}
	return drift, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run        Run
		paramsJSON string
		started    int64
		finished   sql.NullInt64
	)
	err := s.Scan(&run.ID, &run.Tool, &run.Version, &paramsJSON, &started, &finished,
		&run.Status, &run.Error, &run.ItemCount)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, fmt.Errorf("decode params of run %s: %w", run.ID, err)
	}
	run.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		run.FinishedAt = &t
	}
	return &run, nil
}
