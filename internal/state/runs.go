package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/goalie/pkg/models"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is a row of the run list.
type RunSummary struct {
	ID         string
	Objective  string
	Status     models.RunStatus
	Completed  int
	Abandoned  int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RecordRun stores or replaces a run and its tasks. It implements
// orchestrator.Recorder.
func (db *DB) RecordRun(ctx context.Context, run *models.Run) error {
	if run == nil || run.ID == "" {
		return errors.New("record run: missing run id")
	}

	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, objective, status, answer, error, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				objective = excluded.objective,
				status = excluded.status,
				answer = excluded.answer,
				error = excluded.error,
				started_at = excluded.started_at,
				finished_at = excluded.finished_at
		`, run.ID, run.Objective, string(run.Status), run.Answer, run.Error,
			formatTime(run.StartedAt), nullableTime(run.FinishedAt))
		if err != nil {
			return fmt.Errorf("upsert run %s: %w", run.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM run_tasks WHERE run_id = ?`, run.ID); err != nil {
			return fmt.Errorf("clear tasks of run %s: %w", run.ID, err)
		}

		tasks := make([]models.Task, 0, len(run.Completed)+len(run.Abandoned))
		tasks = append(tasks, run.Completed...)
		tasks = append(tasks, run.Abandoned...)

		for seq, t := range tasks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO run_tasks (run_id, seq, task_id, description, result, attempts, status, last_error, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, run.ID, seq, t.ID, t.Description, t.Result, t.Attempts, string(t.Status), t.LastError, nullableTime(t.CompletedAt))
			if err != nil {
				return fmt.Errorf("insert task %s of run %s: %w", t.ID, run.ID, err)
			}
		}
		return nil
	})
}

// GetRun loads a run with its tasks.
func (db *DB) GetRun(id string) (*models.Run, error) {
	var run models.Run
	var status, startedAt string
	var answer, errMsg, finishedAt sql.NullString

	row := db.QueryRow(`
		SELECT id, objective, status, answer, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	if err := row.Scan(&run.ID, &run.Objective, &status, &answer, &errMsg, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	run.Status = models.RunStatus(status)
	run.Answer = answer.String
	run.Error = errMsg.String
	run.FinishedAt = parseNullableTime(finishedAt)
	started, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at of run %s: %w", id, err)
	}
	run.StartedAt = started

	rows, err := db.Query(`
		SELECT task_id, description, result, attempts, status, last_error, completed_at
		FROM run_tasks WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list tasks of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Task
		var taskStatus string
		var result, lastError, completedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.Description, &result, &t.Attempts, &taskStatus, &lastError, &completedAt); err != nil {
			return nil, fmt.Errorf("scan task of run %s: %w", id, err)
		}
		t.Result = result.String
		t.HasResult = result.Valid && result.String != ""
		t.Status = models.TaskStatus(taskStatus)
		t.LastError = lastError.String
		t.CompletedAt = parseNullableTime(completedAt)

		if t.Status == models.TaskStatusAbandoned {
			run.Abandoned = append(run.Abandoned, t)
		} else {
			run.Completed = append(run.Completed, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means 20.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT r.id, r.objective, r.status, r.started_at, r.finished_at,
			(SELECT COUNT(*) FROM run_tasks t WHERE t.run_id = r.id AND t.status != 'abandoned'),
			(SELECT COUNT(*) FROM run_tasks t WHERE t.run_id = r.id AND t.status = 'abandoned')
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var status, startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&s.ID, &s.Objective, &status, &startedAt, &finishedAt, &s.Completed, &s.Abandoned); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Status = models.RunStatus(status)
		s.FinishedAt = parseNullableTime(finishedAt)
		if t, err := parseTime(startedAt); err == nil {
			s.StartedAt = t
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// PurgeOldRuns deletes runs started before now minus olderThan.
// Returns the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	var count int64
	err := db.Transaction(func(tx *sql.Tx) error {
		// foreign_keys is per connection, so tasks are removed explicitly.
		if _, err := tx.Exec(`DELETE FROM run_tasks WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff); err != nil {
			return fmt.Errorf("purge tasks of old runs: %w", err)
		}
		result, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("purge old runs: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
