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

// CreateOrGetPaper inserts paper into the project, or returns the existing
// record when the OpenAlex ID is already present. The uniqueness constraint
// on (project_id, openalex_id) makes this safe under concurrent calls: the
// insert either wins or conflicts, and a conflicting insert falls through
// to the existing row. The created flag reports whether a row was inserted.
func (s *Store) CreateOrGetPaper(ctx context.Context, projectID string, paper types.Paper) (types.Paper, bool, error) {
	if paper.ID == "" {
		paper.ID = uuid.New().String()
	}
	if paper.CreatedAt.IsZero() {
		paper.CreatedAt = time.Now().UTC()
	}
	if paper.DownloadStatus == "" {
		paper.DownloadStatus = types.DownloadPending
	}

	authorsJSON, _ := json.Marshal(paper.Authors)
	countsJSON, _ := json.Marshal(paper.CountsByYear)
	refsJSON, _ := json.Marshal(paper.ReferencedWorks)
	fromJSON, _ := json.Marshal(paper.DiscoveredFrom)

	var componentsJSON any
	if paper.ScoreComponents != nil {
		b, _ := json.Marshal(paper.ScoreComponents)
		componentsJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (
			id, project_id, openalex_id, doi, title, authors,
			publication_year, type, language, abstract,
			cited_by_count, counts_by_year, referenced_works,
			score, score_components, discovery_method, discovered_from, iteration_added,
			download_status, local_path, oa_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, openalex_id) DO NOTHING`,
		paper.ID, projectID, paper.OpenAlexID, paper.DOI, paper.Title, string(authorsJSON),
		nullableInt(paper.PublicationYear), paper.Type, paper.Language, paper.Abstract,
		paper.CitedByCount, string(countsJSON), string(refsJSON),
		paper.Score, componentsJSON, string(paper.DiscoveryMethod), string(fromJSON), paper.IterationAdded,
		string(paper.DownloadStatus), paper.LocalPath, paper.OpenAccessURL,
		paper.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.Paper{}, false, fmt.Errorf("inserting paper %s: %w", paper.OpenAlexID, err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		return paper, true, nil
	}

	existing, err := s.getPaperByOpenAlexID(ctx, projectID, paper.OpenAlexID)
	if err != nil {
		return types.Paper{}, false, err
	}
	return existing, false, nil
}

func (s *Store) getPaperByOpenAlexID(ctx context.Context, projectID, openalexID string) (types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		paperSelect+` WHERE project_id = ? AND openalex_id = ?`, projectID, openalexID)
	if err != nil {
		return types.Paper{}, fmt.Errorf("fetching paper %s: %w", openalexID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return types.Paper{}, fmt.Errorf("paper %s: not found after conflicting insert", openalexID)
	}
	return scanPaper(rows)
}

// ListSeeds returns the project's seed papers in insertion order.
func (s *Store) ListSeeds(ctx context.Context, projectID string) ([]types.Paper, error) {
	return s.queryPapers(ctx,
		paperSelect+` WHERE project_id = ? AND discovery_method = 'seed' ORDER BY created_at`, projectID)
}

// ListByProject returns all papers in the project ordered by score descending.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]types.Paper, error) {
	return s.queryPapers(ctx,
		paperSelect+` WHERE project_id = ? ORDER BY score DESC, created_at`, projectID)
}

// AllOpenAlexIDs returns the set of OpenAlex IDs already collected for the
// project.
func (s *Store) AllOpenAlexIDs(ctx context.Context, projectID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT openalex_id FROM papers WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing paper ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning paper id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// CountPapers returns the number of papers collected for the project.
func (s *Store) CountPapers(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM papers WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// UpdateDownload records the download outcome for a paper.
func (s *Store) UpdateDownload(ctx context.Context, paperID string, status types.DownloadStatus, localPath string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE papers SET download_status = ?, local_path = ? WHERE id = ?`,
		string(status), localPath, paperID)
	if err != nil {
		return fmt.Errorf("updating download status: %w", err)
	}
	return nil
}

const paperSelect = `SELECT
	id, openalex_id, doi, title, authors,
	publication_year, type, language, abstract,
	cited_by_count, counts_by_year, referenced_works,
	score, score_components, discovery_method, discovered_from, iteration_added,
	download_status, local_path, oa_url, created_at
FROM papers`

func (s *Store) queryPapers(ctx context.Context, query string, args ...any) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func scanPaper(row scanner) (types.Paper, error) {
	var (
		p          types.Paper
		authors    string
		counts     string
		refs       string
		components sql.NullString
		from       string
		year       sql.NullInt64
		method     string
		status     string
		localPath  sql.NullString
		oaURL      sql.NullString
		doi        sql.NullString
		lang       sql.NullString
		docType    sql.NullString
		abstract   sql.NullString
		created    string
	)
	err := row.Scan(
		&p.ID, &p.OpenAlexID, &doi, &p.Title, &authors,
		&year, &docType, &lang, &abstract,
		&p.CitedByCount, &counts, &refs,
		&p.Score, &components, &method, &from, &p.IterationAdded,
		&status, &localPath, &oaURL, &created,
	)
	if err != nil {
		return types.Paper{}, fmt.Errorf("scanning paper: %w", err)
	}

	json.Unmarshal([]byte(authors), &p.Authors)
	json.Unmarshal([]byte(counts), &p.CountsByYear)
	json.Unmarshal([]byte(refs), &p.ReferencedWorks)
	json.Unmarshal([]byte(from), &p.DiscoveredFrom)
	if components.Valid && components.String != "" {
		var sb types.ScoreBreakdown
		if json.Unmarshal([]byte(components.String), &sb) == nil {
			p.ScoreComponents = &sb
		}
	}

	p.DOI = doi.String
	p.Type = docType.String
	p.Language = lang.String
	p.Abstract = abstract.String
	p.LocalPath = localPath.String
	p.OpenAccessURL = oaURL.String
	if year.Valid {
		p.PublicationYear = int(year.Int64)
	}
	p.DiscoveryMethod = types.DiscoveryMethod(method)
	p.DownloadStatus = types.DownloadStatus(status)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return p, nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
