// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"github.com/pdiddy/citation-snowball/pkg/types"
)

const (
	// velocityCeiling normalizes citation velocity: 100 citations/year
	// scores 1.0.
	velocityCeiling = 100.0

	// recentCeiling normalizes the citation sum over the last 3 calendar
	// years.
	recentCeiling = 100.0

	// recencyDecayYears is the age at which the recency bonus reaches 0.
	recencyDecayYears = 10.0
)

// ScoringContext holds the seed-derived signals a candidate is scored
// against. Built once per run from the seed papers.
type ScoringContext struct {
	seedCount     int
	seedAuthorIDs map[string]struct{}
	// seedRefCounts maps a work id to the number of seeds referencing it.
	seedRefCounts map[string]int
	currentYear   int
	weights       types.ScoringWeights
}

// NewScoringContext derives the scoring context from the seed papers: the
// union of seed author ids and, per referenced work, how many seeds
// reference it.
func NewScoringContext(seeds []types.Paper, currentYear int, weights types.ScoringWeights) *ScoringContext {
	ctx := &ScoringContext{
		seedCount:     len(seeds),
		seedAuthorIDs: make(map[string]struct{}),
		seedRefCounts: make(map[string]int),
		currentYear:   currentYear,
		weights:       weights,
	}
	for _, s := range seeds {
		for _, a := range s.Authors {
			if a.ID != "" {
				ctx.seedAuthorIDs[a.ID] = struct{}{}
			}
		}
		seen := make(map[string]struct{}, len(s.ReferencedWorks))
		for _, ref := range s.ReferencedWorks {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			ctx.seedRefCounts[ref]++
		}
	}
	return ctx
}

// Score computes the composite relevance score for a candidate. Each
// component is normalized to roughly [0,1]; the total is their weighted sum
// and is a relative rank only.
func (c *ScoringContext) Score(w types.Work) types.ScoreBreakdown {
	b := types.ScoreBreakdown{
		CitationVelocity: c.citationVelocity(w),
		RecentCitations:  c.recentCitations(w),
		Foundational:     c.foundational(w),
		AuthorOverlap:    c.authorOverlap(w),
		RecencyBonus:     c.recencyBonus(w),
	}
	b.Total = c.weights.CitationVelocity*b.CitationVelocity +
		c.weights.RecentCitations*b.RecentCitations +
		c.weights.Foundational*b.Foundational +
		c.weights.AuthorOverlap*b.AuthorOverlap +
		c.weights.Recency*b.RecencyBonus
	return b
}

// citationVelocity is citations per year of age against the ceiling.
// Unpublished works and works published in or after the current year score 0.
func (c *ScoringContext) citationVelocity(w types.Work) float64 {
	if w.PublicationYear == 0 || w.PublicationYear >= c.currentYear {
		return 0
	}
	age := float64(c.currentYear - w.PublicationYear)
	velocity := float64(w.CitedByCount) / age
	return clamp01(velocity / velocityCeiling)
}

// recentCitations sums the citations received in the last 3 calendar years
// (current year and the two before it, not before publication), against the
// ceiling. A paper whose citation activity ended earlier scores 0.
func (c *ScoringContext) recentCitations(w types.Work) float64 {
	sum := 0
	for _, yc := range w.CountsByYear {
		if yc.Year > c.currentYear || yc.Year < c.currentYear-2 {
			continue
		}
		if yc.Year < w.PublicationYear {
			continue
		}
		sum += yc.CitedBy
	}
	return clamp01(float64(sum) / recentCeiling)
}

// foundational is the fraction of seeds whose reference list contains the
// work.
func (c *ScoringContext) foundational(w types.Work) float64 {
	if c.seedCount == 0 {
		return 0
	}
	return float64(c.seedRefCounts[w.ID]) / float64(c.seedCount)
}

// authorOverlap is the fraction of the work's authors who also authored a
// seed.
func (c *ScoringContext) authorOverlap(w types.Work) float64 {
	if len(w.Authors) == 0 || len(c.seedAuthorIDs) == 0 {
		return 0
	}
	overlap := 0
	for _, a := range w.Authors {
		if _, ok := c.seedAuthorIDs[a.ID]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(w.Authors))
}

// recencyBonus decays linearly from 1 at age 0 to 0 at recencyDecayYears.
func (c *ScoringContext) recencyBonus(w types.Work) float64 {
	if w.PublicationYear == 0 {
		return 0
	}
	age := float64(c.currentYear - w.PublicationYear)
	if age < 0 {
		age = 0
	}
	bonus := 1 - age/recencyDecayYears
	if bonus < 0 {
		return 0
	}
	return bonus
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
