// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// ErrProjectNotFound is returned when no project matches the given id or name.
var ErrProjectNotFound = errors.New("project not found")

// CreateProject inserts a new project with the given name and configuration.
func (s *Store) CreateProject(ctx context.Context, name string, cfg types.ProjectConfig) (types.Project, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return types.Project{}, fmt.Errorf("marshaling config: %w", err)
	}

	now := time.Now().UTC()
	p := types.Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Config:    cfg,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at, updated_at, config, current_iteration, is_complete)
		 VALUES (?, ?, ?, ?, ?, 0, 0)`,
		p.ID, p.Name, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), string(cfgJSON),
	)
	if err != nil {
		return types.Project{}, fmt.Errorf("inserting project: %w", err)
	}
	return p, nil
}

// GetProjectByName returns the project with the given name, or
// ErrProjectNotFound.
func (s *Store) GetProjectByName(ctx context.Context, name string) (types.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at, config, current_iteration, is_complete
		 FROM projects WHERE name = ?`, name)
	return scanProject(row)
}

// GetProject returns the project with the given id, or ErrProjectNotFound.
func (s *Store) GetProject(ctx context.Context, id string) (types.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at, config, current_iteration, is_complete
		 FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListProjects returns all projects, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at, config, current_iteration, is_complete
		 FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject persists the project's config, iteration counter, and
// completion flag, bumping updated_at.
func (s *Store) UpdateProject(ctx context.Context, p types.Project) error {
	cfgJSON, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects
		 SET name = ?, updated_at = ?, config = ?, current_iteration = ?, is_complete = ?
		 WHERE id = ?`,
		p.Name, time.Now().UTC().Format(time.RFC3339Nano), string(cfgJSON),
		p.CurrentIteration, boolToInt(p.IsComplete), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (types.Project, error) {
	var (
		p          types.Project
		created    string
		updated    string
		cfgJSON    string
		isComplete int
	)
	err := row.Scan(&p.ID, &p.Name, &created, &updated, &cfgJSON, &p.CurrentIteration, &isComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return types.Project{}, fmt.Errorf("scanning project: %w", err)
	}

	if err := json.Unmarshal([]byte(cfgJSON), &p.Config); err != nil {
		return types.Project{}, fmt.Errorf("parsing project config: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	p.IsComplete = isComplete != 0
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
