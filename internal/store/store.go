// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists projects, papers, and iteration records in a
// per-project SQLite database. It owns durability and uniqueness: paper
// inserts are idempotent by (project, OpenAlex ID), so reruns after a
// crash never duplicate rows.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "snowball.db"

// Store manages the project SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the snowball database inside dataDir, creating the
// directory and schema as needed.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	// Expired cache rows are otherwise only removed when their key is
	// read again.
	if _, err := s.CachePurge(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			config TEXT NOT NULL,
			current_iteration INTEGER NOT NULL DEFAULT 0,
			is_complete INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			openalex_id TEXT NOT NULL,
			doi TEXT,
			title TEXT,
			authors TEXT,
			publication_year INTEGER,
			type TEXT,
			language TEXT,
			abstract TEXT,
			cited_by_count INTEGER NOT NULL DEFAULT 0,
			counts_by_year TEXT,
			referenced_works TEXT,
			score REAL NOT NULL DEFAULT 0,
			score_components TEXT,
			discovery_method TEXT NOT NULL DEFAULT 'seed',
			discovered_from TEXT,
			iteration_added INTEGER NOT NULL DEFAULT 0,
			download_status TEXT NOT NULL DEFAULT 'pending',
			local_path TEXT,
			oa_url TEXT,
			created_at TEXT NOT NULL,
			UNIQUE(project_id, openalex_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_project ON papers(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_method ON papers(project_id, discovery_method)`,
		`CREATE TABLE IF NOT EXISTS iterations (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			iteration_number INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			metrics TEXT,
			UNIQUE(project_id, iteration_number)
		)`,
		`CREATE TABLE IF NOT EXISTS api_cache (
			key TEXT PRIMARY KEY,
			response BLOB NOT NULL,
			expires_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
