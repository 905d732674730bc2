// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

const (
	// citingPerSource bounds forward-citation results per working-set paper.
	citingPerSource = 50

	// referencesPerSource bounds how many of a paper's references are
	// resolved to full records.
	referencesPerSource = 50

	// maxAuthorsPerPaper bounds the author channel to the first authors of
	// each working-set paper.
	maxAuthorsPerPaper = 5

	// worksPerAuthor bounds results per author query.
	worksPerAuthor = 20

	// authorWorksFloorYear is the earliest from-year for author queries
	// when the project sets no tighter minimum.
	authorWorksFloorYear = 2000

	// collectConcurrency bounds in-flight channel queries across the
	// working set.
	collectConcurrency = 8
)

// collectResult is the merged outcome of one collection cycle: the deduped
// candidate works in discovery order, their provenance, per-channel source
// sets for the provenance selection strategy, and raw per-channel counts.
type collectResult struct {
	order   []string
	works   map[string]types.Work
	tracker *DiscoveryTracker

	// forwardSources and backwardSources map a candidate id to the
	// distinct working-set members it was reached from on that channel.
	forwardSources  map[string]map[string]struct{}
	backwardSources map[string]map[string]struct{}
	authorSeen      map[string]struct{}

	// Distinct candidates per channel; a work reached from several
	// working-set members on one channel counts once.
	forwardFound  int
	backwardFound int
	authorFound   int
}

func (r *collectResult) candidates() []types.Work {
	works := make([]types.Work, 0, len(r.order))
	for _, id := range r.order {
		works = append(works, r.works[id])
	}
	return works
}

// channelBatch is one channel query's outcome for one source paper.
type channelBatch struct {
	works  []types.Work
	method types.DiscoveryMethod
	source string
	err    error
}

// collector fans candidate collection out across the working set and the
// three discovery channels, then merges the batches back sequentially. A
// failed channel query is reported as a warning and contributes zero
// candidates.
type collector struct {
	source WorkSource
	cfg    types.ProjectConfig
}

// collect queries forward citations, backward references, and (when
// enabled) author works for every paper in the working set. Works already
// in the corpus are dropped during the merge; everything else is recorded
// into the discovery tracker before filtering.
func (c *collector) collect(ctx context.Context, workingSet []types.Paper, existing map[string]struct{}, w io.Writer) *collectResult {
	sem := semaphore.NewWeighted(collectConcurrency)
	ch := make(chan channelBatch, len(workingSet)*3)
	var wg sync.WaitGroup

	launch := func(method types.DiscoveryMethod, sourceID string, fetch func(context.Context) ([]types.Work, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				ch <- channelBatch{method: method, source: sourceID, err: err}
				return
			}
			defer sem.Release(1)
			works, err := fetch(ctx)
			ch <- channelBatch{works: works, method: method, source: sourceID, err: err}
		}()
	}

	authorFromYear := authorWorksFloorYear
	if c.cfg.MinYear > authorFromYear {
		authorFromYear = c.cfg.MinYear
	}

	for _, paper := range workingSet {
		id := paper.OpenAlexID

		launch(types.DiscoveryForward, id, func(ctx context.Context) ([]types.Work, error) {
			return c.source.GetCitingWorks(ctx, id, citingPerSource)
		})
		launch(types.DiscoveryBackward, id, func(ctx context.Context) ([]types.Work, error) {
			return c.source.GetReferences(ctx, id, referencesPerSource)
		})

		if !c.cfg.CollectAuthorWorks {
			continue
		}
		authors := paper.Authors
		if len(authors) > maxAuthorsPerPaper {
			authors = authors[:maxAuthorsPerPaper]
		}
		for _, author := range authors {
			if author.ID == "" {
				continue
			}
			authorID := author.ID
			launch(types.DiscoveryAuthor, id, func(ctx context.Context) ([]types.Work, error) {
				return c.source.GetAuthorWorks(ctx, authorID, authorFromYear, worksPerAuthor)
			})
		}
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	result := &collectResult{
		works:           make(map[string]types.Work),
		tracker:         NewDiscoveryTracker(),
		forwardSources:  make(map[string]map[string]struct{}),
		backwardSources: make(map[string]map[string]struct{}),
		authorSeen:      make(map[string]struct{}),
	}

	for batch := range ch {
		if batch.err != nil {
			fmt.Fprintf(w, "warning: %s collection for %s failed: %v\n",
				batch.method, batch.source, batch.err)
			continue
		}
		for _, work := range batch.works {
			result.merge(work, batch.method, batch.source, existing)
		}
	}
	return result
}

func (r *collectResult) merge(work types.Work, method types.DiscoveryMethod, sourceID string, existing map[string]struct{}) {
	if work.ID == "" || work.ID == sourceID {
		return
	}
	if _, ok := existing[work.ID]; ok {
		return
	}

	switch method {
	case types.DiscoveryForward:
		if _, seen := r.forwardSources[work.ID]; !seen {
			r.forwardFound++
		}
		addSource(r.forwardSources, work.ID, sourceID)
	case types.DiscoveryBackward:
		if _, seen := r.backwardSources[work.ID]; !seen {
			r.backwardFound++
		}
		addSource(r.backwardSources, work.ID, sourceID)
	case types.DiscoveryAuthor:
		if _, seen := r.authorSeen[work.ID]; !seen {
			r.authorFound++
			r.authorSeen[work.ID] = struct{}{}
		}
	}

	r.tracker.Record(work.ID, method, sourceID)
	if _, seen := r.works[work.ID]; !seen {
		r.works[work.ID] = work
		r.order = append(r.order, work.ID)
	}
}

func addSource(m map[string]map[string]struct{}, workID, sourceID string) {
	set, ok := m[workID]
	if !ok {
		set = make(map[string]struct{})
		m[workID] = set
	}
	set[sourceID] = struct{}{}
}
