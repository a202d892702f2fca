package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kosarica/catalog-service/internal/database"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunTracker records import executions so operators can audit what was
// imported, when, and with what outcome.
type RunTracker struct {
	db database.Querier
}

// NewRunTracker creates a run tracker backed by the given querier.
func NewRunTracker(db database.Querier) *RunTracker {
	return &RunTracker{db: db}
}

// Start registers a new import run and returns its id.
func (t *RunTracker) Start(ctx context.Context, source string, totalRecords int) (string, error) {
	id := uuid.NewString()
	_, err := t.db.Exec(ctx, `
		INSERT INTO import_runs (id, source, status, total_records, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, source, RunStatusRunning, totalRecords, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to register import run: %w", err)
	}
	return id, nil
}

// Finish records the outcome of a run.
func (t *RunTracker) Finish(ctx context.Context, id string, result *Result) error {
	status := RunStatusCompleted
	written, failed := 0, 0
	var messages []string
	if result != nil {
		written = result.Written
		failed = result.Failed
		messages = result.Messages
	} else {
		status = RunStatusFailed
	}

	_, err := t.db.Exec(ctx, `
		UPDATE import_runs
		SET status = $2, written = $3, failed = $4, messages = $5, completed_at = $6
		WHERE id = $1
	`, id, status, written, failed, messages, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to finish import run %s: %w", id, err)
	}
	return nil
}

// Get loads one import run.
func (t *RunTracker) Get(ctx context.Context, id string) (*database.ImportRun, error) {
	var run database.ImportRun
	err := t.db.QueryRow(ctx, `
		SELECT id, source, status, total_records, written, failed, COALESCE(messages, '{}'), started_at, completed_at
		FROM import_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Source, &run.Status, &run.TotalRecords,
		&run.Written, &run.Failed, &run.Messages, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load import run %s: %w", id, err)
	}
	return &run, nil
}
