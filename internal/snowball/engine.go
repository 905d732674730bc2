// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snowball implements the citation snowball expansion engine: from
// a set of seed papers, it repeatedly collects forward/backward/author
// candidates, filters and scores them, admits a bounded selection into the
// corpus with discovery provenance, and stops when the collection
// saturates.
package snowball

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// ErrNoSeeds is returned when a run is started for a project with no seed
// papers. Seeds must be imported first.
var ErrNoSeeds = errors.New("no seed papers found")

// WorkSource is the bibliographic provider the engine collects candidates
// from. Implementations own rate limiting and retry; the engine treats any
// call failure as an empty result for that channel and source.
type WorkSource interface {
	GetCitingWorks(ctx context.Context, workID string, limit int) ([]types.Work, error)
	GetReferences(ctx context.Context, workID string, limit int) ([]types.Work, error)
	GetAuthorWorks(ctx context.Context, authorID string, fromYear, limit int) ([]types.Work, error)
	GetWorksBatch(ctx context.Context, workIDs []string) ([]types.Work, error)
}

// PaperStore is the durable paper collection. CreateOrGetPaper must be
// idempotent by (project, openalex id): re-inserting a known id returns the
// existing record and reports created=false.
type PaperStore interface {
	ListSeeds(ctx context.Context, projectID string) ([]types.Paper, error)
	ListByProject(ctx context.Context, projectID string) ([]types.Paper, error)
	AllOpenAlexIDs(ctx context.Context, projectID string) (map[string]struct{}, error)
	CountPapers(ctx context.Context, projectID string) (int, error)
	CreateOrGetPaper(ctx context.Context, projectID string, paper types.Paper) (types.Paper, bool, error)
	UpdateProject(ctx context.Context, p types.Project) error
}

// IterationLog records iteration start/completion. StartIteration is
// idempotent by (project, iteration number).
type IterationLog interface {
	StartIteration(ctx context.Context, projectID string, number int) (string, error)
	CompleteIteration(ctx context.Context, iterationID string, metrics types.IterationMetrics) error
}

// Bootstrapper optionally supplies recursive seed identifiers (works
// frequently co-referenced by the seed PDFs) folded into iteration 0. Its
// failure is non-fatal.
type Bootstrapper interface {
	SeedIDs(ctx context.Context) ([]string, error)
}

// Engine runs the snowball expansion for one project. A single run
// executes its iterations strictly sequentially; cancellation via ctx is
// cooperative and takes effect only at iteration boundaries, so every
// started iteration persists completely.
type Engine struct {
	Source    WorkSource
	Store     PaperStore
	Log       IterationLog
	Bootstrap Bootstrapper // optional

	// BootstrapRounds is the recursion depth of the seed bootstrap. Round
	// 1 resolves the Bootstrapper's ids; each later round admits works
	// referenced by at least two of the seeds added in the previous
	// round. Values below 2 run the first round only.
	BootstrapRounds int

	// Progress receives human-readable run output; nil discards it.
	Progress io.Writer
}

// Run executes iterations until saturation, the iteration budget, or a
// cooperative stop. It returns the final iteration's metrics. A project
// with no seeds fails with ErrNoSeeds.
func (e *Engine) Run(ctx context.Context, project types.Project) (types.IterationMetrics, error) {
	w := e.Progress
	if w == nil {
		w = io.Discard
	}
	cfg := project.Config

	seeds, err := e.Store.ListSeeds(ctx, project.ID)
	if err != nil {
		return types.IterationMetrics{}, fmt.Errorf("loading seeds: %w", err)
	}
	if len(seeds) == 0 {
		return types.IterationMetrics{}, fmt.Errorf("project %q: %w", project.Name, ErrNoSeeds)
	}

	existing, err := e.Store.AllOpenAlexIDs(ctx, project.ID)
	if err != nil {
		return types.IterationMetrics{}, fmt.Errorf("loading collected ids: %w", err)
	}

	if e.Bootstrap != nil {
		added, err := e.bootstrapSeeds(ctx, project.ID, existing, w)
		if err != nil {
			fmt.Fprintf(w, "warning: seed bootstrap failed: %v\n", err)
		}
		seeds = append(seeds, added...)
	}

	// A resumed run expands the full corpus; a fresh run starts from the
	// seeds.
	workingSet := seeds
	if project.CurrentIteration > 0 {
		workingSet, err = e.Store.ListByProject(ctx, project.ID)
		if err != nil {
			return types.IterationMetrics{}, fmt.Errorf("loading working set: %w", err)
		}
	}

	corpusCount, err := e.Store.CountPapers(ctx, project.ID)
	if err != nil {
		return types.IterationMetrics{}, fmt.Errorf("counting papers: %w", err)
	}

	detector := SaturationDetector{
		MaxIterations:    cfg.MaxIterations,
		GrowthThreshold:  cfg.GrowthThreshold,
		NoveltyThreshold: cfg.NoveltyThreshold,
	}
	if cfg.IterationMode == types.ModeFixed {
		// Fixed mode runs the full iteration budget; only zero-new-papers
		// stops it early.
		detector.GrowthThreshold = 0
		detector.NoveltyThreshold = 0
	}
	satTracker := NewSaturationTracker(detector)

	filter := NewFilter(cfg)
	scoring := NewScoringContext(seeds, time.Now().Year(), cfg.Weights)
	coll := &collector{source: e.Source, cfg: cfg}

	fmt.Fprintf(w, "starting run for %q: %d seeds, %d papers collected\n",
		project.Name, len(seeds), corpusCount)

	var last types.IterationMetrics
	for iteration := project.CurrentIteration + 1; ; iteration++ {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "stop requested; not starting iteration %d\n", iteration)
			return last, nil
		}

		// A started iteration runs to completion and persists in full; a
		// stop arriving mid-iteration must not abort in-flight fetches or
		// leave a started-but-never-completed iteration record.
		iterCtx := context.WithoutCancel(ctx)

		iterID, err := e.Log.StartIteration(iterCtx, project.ID, iteration)
		if err != nil {
			return last, fmt.Errorf("starting iteration %d: %w", iteration, err)
		}

		result := coll.collect(iterCtx, workingSet, existing, w)

		cands := make([]candidate, 0, len(result.order))
		for _, work := range result.candidates() {
			if excluded, _ := filter.ShouldExclude(work, existing); excluded {
				continue
			}
			if !filter.ShouldInclude(work) {
				continue
			}
			cands = append(cands, candidate{work: work, score: scoring.Score(work)})
		}

		budget := cfg.PapersPerIteration
		if cfg.MaxPapers > 0 && cfg.MaxPapers-corpusCount < budget {
			budget = cfg.MaxPapers - corpusCount
			if budget < 0 {
				budget = 0
			}
		}

		var selected []candidate
		switch cfg.Selection {
		case types.SelectProvenance:
			selected = selectByProvenance(cands, result, budget)
		default:
			selected = selectTopK(cands, budget)
		}

		papersBefore := corpusCount
		newPapers := 0
		relatedAdmitted := 0
		for _, cand := range selected {
			paper := types.FromWork(cand.work)
			method := cand.method
			if method == "" {
				method = result.tracker.Method(cand.work.ID)
			}
			paper.DiscoveryMethod = method
			paper.DiscoveredFrom = result.tracker.Sources(cand.work.ID)
			paper.IterationAdded = iteration
			paper.Score = cand.score.Total
			score := cand.score
			paper.ScoreComponents = &score

			stored, created, err := e.Store.CreateOrGetPaper(iterCtx, project.ID, paper)
			if err != nil {
				return last, fmt.Errorf("persisting %s: %w", paper.OpenAlexID, err)
			}
			if !created {
				continue
			}
			newPapers++
			if method == types.DiscoveryRelated {
				relatedAdmitted++
			}
			existing[stored.OpenAlexID] = struct{}{}
			workingSet = append(workingSet, stored)
		}
		corpusCount += newPapers

		metrics := types.NewIterationMetrics(iteration, papersBefore, newPapers, len(result.order))
		metrics.ForwardFound = result.forwardFound
		metrics.BackwardFound = result.backwardFound
		metrics.AuthorFound = result.authorFound
		metrics.RelatedFound = relatedAdmitted
		last = metrics

		if err := e.Log.CompleteIteration(iterCtx, iterID, metrics); err != nil {
			return last, fmt.Errorf("completing iteration %d: %w", iteration, err)
		}

		fmt.Fprintf(w, "iteration %d: %d candidates, %d new papers, corpus %d (growth %.3f, novelty %.3f)\n",
			iteration, metrics.CandidatesConsidered, metrics.NewPapers,
			corpusCount, metrics.GrowthRate, metrics.NoveltyRate)

		project.CurrentIteration = iteration
		res := satTracker.Check(metrics)
		project.IsComplete = res.IsSaturated
		if err := e.Store.UpdateProject(iterCtx, project); err != nil {
			return last, fmt.Errorf("updating project: %w", err)
		}

		if res.IsSaturated {
			fmt.Fprintf(w, "saturated: %s (confidence %.2f)\n", res.Reason, res.Confidence)
			return last, nil
		}
		if res.Reason != "" {
			fmt.Fprintf(w, "note: %s\n", res.Reason)
		}
	}
}

// bootstrapSeeds resolves recursive seed ids into works and inserts them as
// iteration-0 seeds, returning the papers actually added.
func (e *Engine) bootstrapSeeds(ctx context.Context, projectID string, existing map[string]struct{}, w io.Writer) ([]types.Paper, error) {
	ids, err := e.Bootstrap.SeedIDs(ctx)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	works, err := e.Source.GetWorksBatch(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("resolving bootstrap seeds: %w", err)
	}

	var added []types.Paper
	for _, work := range works {
		if work.ID == "" || work.Title == "" {
			continue
		}
		stored, created, err := e.addSeed(ctx, projectID, work, existing)
		if err != nil {
			return added, err
		}
		if created {
			added = append(added, stored)
		}
	}
	if len(added) > 0 {
		fmt.Fprintf(w, "bootstrap added %d recursive seeds\n", len(added))
	}

	frontier := added
	for round := 2; round <= e.BootstrapRounds && len(frontier) > 0; round++ {
		next, err := e.bootstrapRound(ctx, projectID, frontier, existing, w)
		if err != nil {
			return added, err
		}
		if len(next) > 0 {
			fmt.Fprintf(w, "bootstrap round %d added %d co-referenced seeds\n", round, len(next))
		}
		added = append(added, next...)
		frontier = next
	}
	return added, nil
}

// bootstrapCorefThreshold is the minimum count of frontier seeds that must
// reference a work for a recursion round to admit it.
const bootstrapCorefThreshold = 2

// bootstrapRound admits works referenced by at least two of the frontier
// seeds. A failed reference fetch warns and contributes nothing.
func (e *Engine) bootstrapRound(ctx context.Context, projectID string, frontier []types.Paper, existing map[string]struct{}, w io.Writer) ([]types.Paper, error) {
	counts := make(map[string]int)
	works := make(map[string]types.Work)
	var order []string

	for _, p := range frontier {
		refs, err := e.Source.GetReferences(ctx, p.OpenAlexID, referencesPerSource)
		if err != nil {
			fmt.Fprintf(w, "warning: reference fetch for %s failed: %v\n", p.OpenAlexID, err)
			continue
		}
		seen := make(map[string]struct{})
		for _, work := range refs {
			if work.ID == "" || work.ID == p.OpenAlexID || work.Title == "" {
				continue
			}
			if _, ok := existing[work.ID]; ok {
				continue
			}
			if _, dup := seen[work.ID]; dup {
				continue
			}
			seen[work.ID] = struct{}{}
			counts[work.ID]++
			if _, ok := works[work.ID]; !ok {
				works[work.ID] = work
				order = append(order, work.ID)
			}
		}
	}

	var added []types.Paper
	for _, id := range order {
		if counts[id] < bootstrapCorefThreshold {
			continue
		}
		stored, created, err := e.addSeed(ctx, projectID, works[id], existing)
		if err != nil {
			return added, err
		}
		if created {
			added = append(added, stored)
		}
	}
	return added, nil
}

// addSeed inserts a work as an iteration-0 seed paper.
func (e *Engine) addSeed(ctx context.Context, projectID string, work types.Work, existing map[string]struct{}) (types.Paper, bool, error) {
	paper := types.FromWork(work)
	stored, created, err := e.Store.CreateOrGetPaper(ctx, projectID, paper)
	if err != nil {
		return types.Paper{}, false, fmt.Errorf("persisting bootstrap seed %s: %w", paper.OpenAlexID, err)
	}
	if created {
		existing[stored.OpenAlexID] = struct{}{}
	}
	return stored, created, nil
}
