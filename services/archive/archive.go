package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qareplay/lib/qaclient"
	"qareplay/services/archive/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/archive")

// Store keeps a local record of every comparison run so results survive
// the process and can be reviewed later.
type Store struct {
	db *sql.DB
}

// Open connects to the archive database and applies the schema. `path`
// is a file path for the embedded sqlite driver, or a libsql URL for a
// hosted archive shared between machines.
func Open(path string) (*Store, error) {
	var database *sql.DB
	var err error
	if strings.HasPrefix(path, "libsql://") || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		database, err = sql.Open("libsql", path)
	} else {
		if path != ":memory:" {
			os.MkdirAll(filepath.Dir(path), 0777)
		}
		database, err = sql.Open("sqlite", path)
		if err == nil {
			// see https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
			database.SetMaxOpenConns(1)
			_, err = database.Exec("PRAGMA journal_mode=WAL")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	_, err = database.Exec(db.Schema)
	if err != nil {
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type Run struct {
	Id                int64
	CreatedAt         time.Time
	Assignment        string
	PreviousSession   string
	PreviousCompleted string
	NewSession        string
	NewCompleted      string
}

type RunResult struct {
	Test          string
	PreviousValue string
	NewValue      string
	Equal         bool
}

// RecordComparison stores one replayed session and its per-test rows.
func (s *Store) RecordComparison(ctx context.Context, assignment string, comparison qaclient.Comparison) (int64, error) {
	ctx, span := tracer.Start(ctx, "RecordComparison")
	defer span.End()
	span.SetAttributes(attribute.String("assignment", assignment))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (created_at, assignment, previous_session, previous_completed, new_session, new_completed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(),
		assignment,
		comparison.PreviousSession.Url,
		comparison.PreviousSession.WorkCompleted,
		comparison.NewSession.Url,
		comparison.NewSession.WorkCompleted,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	runId, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	for _, row := range comparison.Rows {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO run_results (run_id, test, previous_value, new_value, equal)
			 VALUES (?, ?, ?, ?, ?)`,
			runId,
			row.Test,
			formatValue(row.Previous),
			formatValue(row.New),
			row.Equal,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return runId, nil
}

// ListRuns returns all recorded runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	ctx, span := tracer.Start(ctx, "ListRuns")
	defer span.End()

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, created_at, assignment, previous_session, previous_completed, new_session, new_completed
		 FROM runs ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt int64
		err = rows.Scan(
			&run.Id, &createdAt, &run.Assignment,
			&run.PreviousSession, &run.PreviousCompleted,
			&run.NewSession, &run.NewCompleted,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		run.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunResults returns the per-test rows of one recorded run.
func (s *Store) RunResults(ctx context.Context, runId int64) ([]RunResult, error) {
	ctx, span := tracer.Start(ctx, "RunResults")
	defer span.End()
	span.SetAttributes(attribute.Int64("run_id", runId))

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT test, previous_value, new_value, equal FROM run_results WHERE run_id = ?`,
		runId,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var results []RunResult
	for rows.Next() {
		var result RunResult
		err = rows.Scan(&result.Test, &result.PreviousValue, &result.NewValue, &result.Equal)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
