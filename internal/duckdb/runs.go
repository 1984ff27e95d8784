package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-bench/internal/eval"
	"github.com/inodb/vibe-bench/internal/variant"
)

// Input is one file read by a run, tagged with its role (truth, pred,
// known_fp, reference).
type Input struct {
	Role string
	FileFingerprint
}

// Run describes one benchmark invocation.
type Run struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Label     string
	Settings  string // free-form summary of the evaluation options
	Inputs    []Input
}

// RecordRun stores run and its per-type stats. A zero ID is replaced with a
// fresh random one, which is returned. On failure no rows of the run are
// left behind.
func (s *Store) RecordRun(ctx context.Context, run Run, st *eval.Stats) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	id := run.ID.String()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx,
		"INSERT INTO runs (run_id, created_at, label, settings) VALUES (?, ?, ?, ?)",
		id, run.CreatedAt.UTC(), run.Label, run.Settings); err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}
	if err := appendRunRows(conn, id, run.Inputs, st); err != nil {
		if derr := discardRun(context.WithoutCancel(ctx), conn, id); derr != nil {
			return uuid.Nil, fmt.Errorf("%w (cleanup: %v)", err, derr)
		}
		return uuid.Nil, err
	}
	return run.ID, nil
}

func appendRunRows(conn *sql.Conn, id string, inputs []Input, st *eval.Stats) error {
	err := withAppender(conn.Raw, "run_inputs", func(a *goduckdb.Appender) error {
		for _, in := range inputs {
			if err := a.AppendRow(id, in.Role, in.Path, in.Size, in.ModTime.UTC()); err != nil {
				return fmt.Errorf("append run input: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return withAppender(conn.Raw, "run_stats", func(a *goduckdb.Appender) error {
		for _, t := range variant.Types {
			ts := st.Get(t)
			conc, err := json.Marshal(ts.Concordance)
			if err != nil {
				return fmt.Errorf("encode concordance: %w", err)
			}
			if err := a.AppendRow(
				id, t.String(),
				int64(ts.NumTrue), int64(ts.NumPred),
				int64(ts.TruePositives), int64(ts.FalsePositives), int64(ts.FalseNegatives),
				int64(ts.AlleleMismatch), int64(ts.KnownFP), int64(ts.KnownFPCalls),
				int64(ts.Rescued), string(conc),
			); err != nil {
				return fmt.Errorf("append run stats: %w", err)
			}
		}
		return nil
	})
}

// discardRun deletes every row of a partially stored run.
func discardRun(ctx context.Context, conn *sql.Conn, id string) error {
	for _, table := range []string{"run_stats", "run_inputs", "runs"} {
		if _, err := conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

// withAppender runs fill against a DuckDB appender on table and flushes it.
func withAppender(raw func(func(any) error) error, table string, fill func(*goduckdb.Appender) error) error {
	var appender *goduckdb.Appender
	if err := raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender for %s: %w", table, err)
	}
	defer appender.Close()

	if err := fill(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// ListRuns returns the most recent runs first, at most limit of them
// (all when limit <= 0), with their inputs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := "SELECT run_id, created_at, label, settings FROM runs ORDER BY created_at DESC, run_id"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r  Run
			id string
		)
		if err := rows.Scan(&id, &r.CreatedAt, &r.Label, &r.Settings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		if runs[i].Inputs, err = s.runInputs(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) runInputs(ctx context.Context, id uuid.UUID) ([]Input, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, path, size, mod_time FROM run_inputs WHERE run_id = ? ORDER BY role", id.String())
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()

	var inputs []Input
	for rows.Next() {
		var in Input
		if err := rows.Scan(&in.Role, &in.Path, &in.Size, &in.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}

// RunStats loads the stats recorded for id. It returns an error when the
// run has no stats.
func (s *Store) RunStats(ctx context.Context, id uuid.UUID) (*eval.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		variant_type, num_true, num_pred,
		true_positives, false_positives, false_negatives,
		allele_mismatch, known_fp, known_fp_calls, rescued, concordance
		FROM run_stats WHERE run_id = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query run stats: %w", err)
	}
	defer rows.Close()

	st := &eval.Stats{}
	found := 0
	for rows.Next() {
		var (
			name, conc string
			ts         eval.TypeStats
		)
		if err := rows.Scan(&name, &ts.NumTrue, &ts.NumPred,
			&ts.TruePositives, &ts.FalsePositives, &ts.FalseNegatives,
			&ts.AlleleMismatch, &ts.KnownFP, &ts.KnownFPCalls, &ts.Rescued, &conc); err != nil {
			return nil, fmt.Errorf("scan run stats: %w", err)
		}
		t, ok := variant.ParseType(name)
		if !ok {
			return nil, fmt.Errorf("run %s: unknown variant type %q", id, name)
		}
		if err := json.Unmarshal([]byte(conc), &ts.Concordance); err != nil {
			return nil, fmt.Errorf("decode concordance: %w", err)
		}
		*st.Get(t) = ts
		found++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run stats: %w", err)
	}
	if found == 0 {
		return nil, fmt.Errorf("no stats recorded for run %s", id)
	}
	return st, nil
}
