// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bootstrap folds the companion reference-frequency report into a
// run's initial seeds. The report is produced by analyzing the seed PDFs'
// in-text citations; works the seeds cite heavily are worth expanding from
// the start.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// minSeedPapersCiting admits a reference cited by this many distinct
	// seed papers.
	minSeedPapersCiting = 2

	// minMentionsInOnePaper admits a reference mentioned this many times
	// within a single seed paper.
	minMentionsInOnePaper = 3
)

// report mirrors the reference-frequency report JSON. Fields the seeder
// does not consult are left out.
type report struct {
	SourceOpenAlexIDs   []string             `json:"source_openalex_ids"`
	AggregateReferences []aggregateReference `json:"aggregate_references"`
}

type aggregateReference struct {
	OpenAlexID               string `json:"openalex_id"`
	CitedByNSeedPapers       int    `json:"cited_by_n_seed_papers"`
	MaxMentionsInSinglePaper int    `json:"max_mentions_in_single_paper"`
}

// ReportSeeder reads a reference-frequency report and supplies the seed ids
// plus frequently co-referenced work ids.
type ReportSeeder struct {
	Path string
}

// SeedIDs returns the report's source work ids followed by every aggregate
// reference cited by at least 2 seed papers or mentioned at least 3 times
// in one. Unresolved references (no OpenAlex id) are skipped.
func (s *ReportSeeder) SeedIDs(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading reference report: %w", err)
	}

	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parsing reference report %s: %w", s.Path, err)
	}

	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		id = strings.TrimPrefix(id, "https://openalex.org/")
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, id := range rep.SourceOpenAlexIDs {
		add(id)
	}
	for _, ref := range rep.AggregateReferences {
		if ref.OpenAlexID == "" {
			continue
		}
		if ref.CitedByNSeedPapers >= minSeedPapersCiting ||
			ref.MaxMentionsInSinglePaper >= minMentionsInOnePaper {
			add(ref.OpenAlexID)
		}
	}
	return ids, nil
}
