// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"context"
	"io"
	"testing"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

func TestCollectCountsDistinctCandidatesPerChannel(t *testing.T) {
	// W1, W2, and W3 are each reached from both working-set papers on one
	// channel; the per-channel counts are distinct candidates, not
	// emissions.
	cfg := types.DefaultProjectConfig()
	source := &fakeSource{
		citing: map[string][]types.Work{
			"S1": {citingWork("W1", 2021)},
			"S2": {citingWork("W1", 2021)},
		},
		references: map[string][]types.Work{
			"S1": {citingWork("W2", 2019)},
			"S2": {citingWork("W2", 2019)},
		},
		byAuthor: map[string][]types.Work{
			"A1": {citingWork("W3", 2022)},
			"A2": {citingWork("W3", 2022)},
		},
	}
	s1 := seedPaper("S1")
	s1.Authors = []types.Author{{ID: "A1", DisplayName: "First Author"}}
	s2 := seedPaper("S2")
	s2.Authors = []types.Author{{ID: "A2", DisplayName: "Second Author"}}

	coll := &collector{source: source, cfg: cfg}
	result := coll.collect(context.Background(), []types.Paper{s1, s2}, map[string]struct{}{}, io.Discard)

	if result.forwardFound != 1 {
		t.Errorf("forwardFound = %d, want 1 (W1 counted once)", result.forwardFound)
	}
	if result.backwardFound != 1 {
		t.Errorf("backwardFound = %d, want 1 (W2 counted once)", result.backwardFound)
	}
	if result.authorFound != 1 {
		t.Errorf("authorFound = %d, want 1 (W3 counted once)", result.authorFound)
	}
	if len(result.order) != 3 {
		t.Errorf("candidates = %d, want 3", len(result.order))
	}
	if got := len(result.forwardSources["W1"]); got != 2 {
		t.Errorf("forward sources for W1 = %d, want both working-set papers", got)
	}
}
