// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IterationMetrics summarizes one snowball iteration. Created once per
// iteration and immutable thereafter.
//
// GrowthRate is new_papers/papers_before and NoveltyRate is
// new_papers/candidates_considered; both are 0 exactly when their
// denominators are 0.
type IterationMetrics struct {
	IterationNumber int       `json:"iteration_number" yaml:"iteration_number"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`

	PapersBefore int `json:"papers_before" yaml:"papers_before"`
	PapersAfter  int `json:"papers_after" yaml:"papers_after"`
	NewPapers    int `json:"new_papers" yaml:"new_papers"`

	CandidatesConsidered int `json:"candidates_considered" yaml:"candidates_considered"`

	GrowthRate  float64 `json:"growth_rate" yaml:"growth_rate"`
	NoveltyRate float64 `json:"novelty_rate" yaml:"novelty_rate"`

	// Papers found per discovery channel before filtering.
	ForwardFound  int `json:"forward_found" yaml:"forward_found"`
	BackwardFound int `json:"backward_found" yaml:"backward_found"`
	AuthorFound   int `json:"author_found" yaml:"author_found"`
	RelatedFound  int `json:"related_found" yaml:"related_found"`
}

// NewIterationMetrics computes the derived rates from raw counts.
func NewIterationMetrics(iteration, papersBefore, newPapers, candidates int) IterationMetrics {
	m := IterationMetrics{
		IterationNumber:      iteration,
		Timestamp:            time.Now().UTC(),
		PapersBefore:         papersBefore,
		PapersAfter:          papersBefore + newPapers,
		NewPapers:            newPapers,
		CandidatesConsidered: candidates,
	}
	if papersBefore > 0 {
		m.GrowthRate = float64(newPapers) / float64(papersBefore)
	}
	if candidates > 0 {
		m.NoveltyRate = float64(newPapers) / float64(candidates)
	}
	return m
}
