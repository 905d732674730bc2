// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"sort"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// provenanceThreshold is the minimum count of distinct working-set members
// that must reach a candidate on one citation channel for the
// provenance-count strategy to admit it.
const provenanceThreshold = 2

// candidate is a filtered work with its score attached, awaiting selection.
type candidate struct {
	work  types.Work
	score types.ScoreBreakdown

	// method overrides the tracker's discovery method when the selection
	// strategy determines one (provenance-count marks dual-channel
	// candidates related). Empty means use the tracker.
	method types.DiscoveryMethod
}

// selectTopK returns up to limit candidates with the highest total score.
// The sort is stable, so equal scores keep discovery order.
func selectTopK(cands []candidate, limit int) []candidate {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score.Total > sorted[j].score.Total
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// selectByProvenance admits a candidate only when at least two distinct
// working-set members reach it on a citation channel: its references
// (backward) or its citers (forward). A candidate over threshold on both
// channels is marked related; over threshold on one, it carries that
// channel's method. The result is score-ordered and bounded by limit.
func selectByProvenance(cands []candidate, result *collectResult, limit int) []candidate {
	var admitted []candidate
	for _, cand := range cands {
		backward := len(result.backwardSources[cand.work.ID])
		forward := len(result.forwardSources[cand.work.ID])

		switch {
		case backward >= provenanceThreshold && forward >= provenanceThreshold:
			cand.method = types.DiscoveryRelated
		case backward >= provenanceThreshold:
			cand.method = types.DiscoveryBackward
		case forward >= provenanceThreshold:
			cand.method = types.DiscoveryForward
		default:
			continue
		}
		admitted = append(admitted, cand)
	}
	return selectTopK(admitted, limit)
}
