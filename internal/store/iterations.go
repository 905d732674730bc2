// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// IterationRecord is a persisted iteration with its start/complete
// timestamps and final metrics. Metrics is nil for an iteration that was
// started but never completed (e.g. interrupted by a crash).
type IterationRecord struct {
	ID              string
	ProjectID       string
	IterationNumber int
	StartedAt       time.Time
	CompletedAt     time.Time
	Metrics         *types.IterationMetrics
}

// StartIteration records the start of an iteration and returns its id.
// Idempotent: re-requesting an existing iteration number returns the
// existing id, so a rerun after a crash reuses the interrupted record.
func (s *Store) StartIteration(ctx context.Context, projectID string, number int) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO iterations (id, project_id, iteration_number, started_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id, iteration_number) DO NOTHING`,
		id, projectID, number, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("starting iteration %d: %w", number, err)
	}

	var existing string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM iterations WHERE project_id = ? AND iteration_number = ?`,
		projectID, number).Scan(&existing)
	if err != nil {
		return "", fmt.Errorf("fetching iteration %d: %w", number, err)
	}
	return existing, nil
}

// CompleteIteration stores the final metrics and completion timestamp for
// an iteration.
func (s *Store) CompleteIteration(ctx context.Context, iterationID string, metrics types.IterationMetrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE iterations SET completed_at = ?, metrics = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), string(metricsJSON), iterationID)
	if err != nil {
		return fmt.Errorf("completing iteration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("iteration %s: not found", iterationID)
	}
	return nil
}

// ListIterations returns the project's iteration records in order.
func (s *Store) ListIterations(ctx context.Context, projectID string) ([]IterationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, iteration_number, started_at, completed_at, metrics
		 FROM iterations WHERE project_id = ? ORDER BY iteration_number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing iterations: %w", err)
	}
	defer rows.Close()

	var records []IterationRecord
	for rows.Next() {
		var (
			r           IterationRecord
			started     string
			completed   sql.NullString
			metricsJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.IterationNumber, &started, &completed, &metricsJSON); err != nil {
			return nil, fmt.Errorf("scanning iteration: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if completed.Valid {
			r.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed.String)
		}
		if metricsJSON.Valid && metricsJSON.String != "" {
			var m types.IterationMetrics
			if jsonErr := json.Unmarshal([]byte(metricsJSON.String), &m); jsonErr == nil {
				r.Metrics = &m
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LastCompletedIteration returns the highest-numbered completed iteration,
// or sql.ErrNoRows wrapped when none exists.
func (s *Store) LastCompletedIteration(ctx context.Context, projectID string) (IterationRecord, error) {
	records, err := s.ListIterations(ctx, projectID)
	if err != nil {
		return IterationRecord{}, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Metrics != nil {
			return records[i], nil
		}
	}
	return IterationRecord{}, fmt.Errorf("project %s: no completed iterations: %w", projectID, sql.ErrNoRows)
}
