// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// fakeSource serves canned channel results keyed by work/author id. When
// fail is set, every call errors.
type fakeSource struct {
	citing     map[string][]types.Work
	references map[string][]types.Work
	byAuthor   map[string][]types.Work
	fail       bool
}

func (f *fakeSource) GetCitingWorks(_ context.Context, workID string, _ int) ([]types.Work, error) {
	if f.fail {
		return nil, errors.New("source unavailable")
	}
	return f.citing[workID], nil
}

func (f *fakeSource) GetReferences(_ context.Context, workID string, _ int) ([]types.Work, error) {
	if f.fail {
		return nil, errors.New("source unavailable")
	}
	return f.references[workID], nil
}

func (f *fakeSource) GetAuthorWorks(_ context.Context, authorID string, _, _ int) ([]types.Work, error) {
	if f.fail {
		return nil, errors.New("source unavailable")
	}
	return f.byAuthor[authorID], nil
}

func (f *fakeSource) GetWorksBatch(_ context.Context, workIDs []string) ([]types.Work, error) {
	if f.fail {
		return nil, errors.New("source unavailable")
	}
	var works []types.Work
	for _, id := range workIDs {
		works = append(works, types.Work{ID: id, Title: "Bootstrap " + id, Type: "journal-article"})
	}
	return works, nil
}

// memStore is an in-memory PaperStore and IterationLog.
type memStore struct {
	mu        sync.Mutex
	papers    []types.Paper
	byKey     map[string]int
	project   types.Project
	started   map[int]string
	completed map[string]types.IterationMetrics
}

func newMemStore(project types.Project, seeds ...types.Paper) *memStore {
	s := &memStore{
		byKey:     make(map[string]int),
		project:   project,
		started:   make(map[int]string),
		completed: make(map[string]types.IterationMetrics),
	}
	for _, seed := range seeds {
		seed.DiscoveryMethod = types.DiscoverySeed
		s.papers = append(s.papers, seed)
		s.byKey[seed.OpenAlexID] = len(s.papers) - 1
	}
	return s
}

func (s *memStore) ListSeeds(_ context.Context, _ string) ([]types.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var seeds []types.Paper
	for _, p := range s.papers {
		if p.DiscoveryMethod == types.DiscoverySeed {
			seeds = append(seeds, p)
		}
	}
	return seeds, nil
}

func (s *memStore) ListByProject(_ context.Context, _ string) ([]types.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Paper(nil), s.papers...), nil
}

func (s *memStore) AllOpenAlexIDs(_ context.Context, _ string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(s.papers))
	for _, p := range s.papers {
		ids[p.OpenAlexID] = struct{}{}
	}
	return ids, nil
}

func (s *memStore) CountPapers(_ context.Context, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.papers), nil
}

func (s *memStore) CreateOrGetPaper(_ context.Context, _ string, paper types.Paper) (types.Paper, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byKey[paper.OpenAlexID]; ok {
		return s.papers[i], false, nil
	}
	paper.ID = fmt.Sprintf("p%d", len(s.papers)+1)
	paper.CreatedAt = time.Now().UTC()
	s.papers = append(s.papers, paper)
	s.byKey[paper.OpenAlexID] = len(s.papers) - 1
	return paper, true, nil
}

func (s *memStore) UpdateProject(_ context.Context, p types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p
	return nil
}

func (s *memStore) StartIteration(_ context.Context, _ string, number int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.started[number]; ok {
		return id, nil
	}
	id := fmt.Sprintf("iter%d", number)
	s.started[number] = id
	return id, nil
}

func (s *memStore) CompleteIteration(_ context.Context, iterationID string, metrics types.IterationMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[iterationID] = metrics
	return nil
}

func (s *memStore) paper(t *testing.T, openalexID string) types.Paper {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byKey[openalexID]
	if !ok {
		t.Fatalf("paper %s not in store", openalexID)
	}
	return s.papers[i]
}

func testProject(cfg types.ProjectConfig) types.Project {
	return types.Project{ID: "proj1", Name: "test", Config: cfg}
}

func seedPaper(id string) types.Paper {
	return types.Paper{
		ID:              "seed-" + id,
		OpenAlexID:      id,
		Title:           "Seed " + id,
		Type:            "journal-article",
		PublicationYear: 2020,
		DiscoveryMethod: types.DiscoverySeed,
	}
}

func citingWork(id string, year int) types.Work {
	return types.Work{
		ID:              id,
		Title:           "Work " + id,
		Type:            "journal-article",
		PublicationYear: year,
		CitedByCount:    20,
	}
}

func TestRunNoSeeds(t *testing.T) {
	cfg := types.DefaultProjectConfig()
	store := newMemStore(testProject(cfg))
	engine := &Engine{Source: &fakeSource{}, Store: store, Log: store}

	_, err := engine.Run(context.Background(), testProject(cfg))
	if !errors.Is(err, ErrNoSeeds) {
		t.Errorf("err = %v, want ErrNoSeeds", err)
	}
}

func TestRunAllChannelsFail(t *testing.T) {
	cfg := types.DefaultProjectConfig()
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	var out bytes.Buffer
	engine := &Engine{Source: &fakeSource{fail: true}, Store: store, Log: store, Progress: &out}

	metrics, err := engine.Run(context.Background(), testProject(cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.CandidatesConsidered != 0 || metrics.NewPapers != 0 {
		t.Errorf("metrics = %+v, want zero candidates and zero new papers", metrics)
	}
	if !strings.Contains(out.String(), "No new papers") {
		t.Errorf("output %q, want no-new-papers saturation reason", out.String())
	}
	if !store.project.IsComplete {
		t.Error("project not marked complete")
	}
	if !strings.Contains(out.String(), "warning:") {
		t.Errorf("output %q, want channel failure warnings", out.String())
	}
}

func TestRunExpandsFromNewlyAdmitted(t *testing.T) {
	// S1's citers include W1; W1's citers include W2. The second iteration
	// must expand W1 (working set is the union), discovering W2.
	cfg := types.DefaultProjectConfig()
	cfg.CollectAuthorWorks = false
	source := &fakeSource{
		citing: map[string][]types.Work{
			"S1": {citingWork("W1", 2021)},
			"W1": {citingWork("W2", 2022)},
		},
	}
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	var out bytes.Buffer
	engine := &Engine{Source: source, Store: store, Log: store, Progress: &out}

	metrics, err := engine.Run(context.Background(), testProject(cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	w1 := store.paper(t, "W1")
	if w1.DiscoveryMethod != types.DiscoveryForward {
		t.Errorf("W1 method = %q, want forward", w1.DiscoveryMethod)
	}
	if len(w1.DiscoveredFrom) != 1 || w1.DiscoveredFrom[0] != "S1" {
		t.Errorf("W1 sources = %v, want [S1]", w1.DiscoveredFrom)
	}
	if w1.IterationAdded != 1 {
		t.Errorf("W1 iteration = %d, want 1", w1.IterationAdded)
	}

	w2 := store.paper(t, "W2")
	if len(w2.DiscoveredFrom) != 1 || w2.DiscoveredFrom[0] != "W1" {
		t.Errorf("W2 sources = %v, want [W1]", w2.DiscoveredFrom)
	}
	if w2.IterationAdded != 2 {
		t.Errorf("W2 iteration = %d, want 2", w2.IterationAdded)
	}

	// The final iteration finds nothing new.
	if metrics.NewPapers != 0 {
		t.Errorf("final NewPapers = %d, want 0", metrics.NewPapers)
	}
	if len(store.papers) != 3 {
		t.Errorf("papers = %d, want 3 (S1, W1, W2)", len(store.papers))
	}
}

func TestRunIdempotentAcrossReruns(t *testing.T) {
	cfg := types.DefaultProjectConfig()
	cfg.CollectAuthorWorks = false
	source := &fakeSource{
		citing: map[string][]types.Work{"S1": {citingWork("W1", 2021)}},
	}
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	engine := &Engine{Source: source, Store: store, Log: store}

	if _, err := engine.Run(context.Background(), testProject(cfg)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	count := len(store.papers)

	// A rerun over the same corpus never duplicates a paper.
	if _, err := engine.Run(context.Background(), store.project); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(store.papers) != count {
		t.Errorf("papers after rerun = %d, want %d", len(store.papers), count)
	}
}

func TestRunProvenanceMerging(t *testing.T) {
	// W1 is both cited by S1 and referenced by S2: one paper, merged
	// sources, forward method (higher priority than backward).
	cfg := types.DefaultProjectConfig()
	cfg.CollectAuthorWorks = false
	source := &fakeSource{
		citing:     map[string][]types.Work{"S1": {citingWork("W1", 2021)}},
		references: map[string][]types.Work{"S2": {citingWork("W1", 2021)}},
	}
	store := newMemStore(testProject(cfg), seedPaper("S1"), seedPaper("S2"))
	engine := &Engine{Source: source, Store: store, Log: store}

	if _, err := engine.Run(context.Background(), testProject(cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	w1 := store.paper(t, "W1")
	if w1.DiscoveryMethod != types.DiscoveryForward {
		t.Errorf("method = %q, want forward over backward", w1.DiscoveryMethod)
	}
	if len(w1.DiscoveredFrom) != 2 {
		t.Errorf("sources = %v, want S1 and S2", w1.DiscoveredFrom)
	}
}

func TestRunRespectsMaxPapers(t *testing.T) {
	cfg := types.DefaultProjectConfig()
	cfg.CollectAuthorWorks = false
	cfg.MaxPapers = 2 // one seed + one more
	source := &fakeSource{
		citing: map[string][]types.Work{
			"S1": {citingWork("W1", 2021), citingWork("W2", 2022), citingWork("W3", 2023)},
		},
	}
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	engine := &Engine{Source: source, Store: store, Log: store}

	if _, err := engine.Run(context.Background(), testProject(cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.papers) != 2 {
		t.Errorf("papers = %d, want 2 (max papers budget)", len(store.papers))
	}
}

func TestRunCooperativeStop(t *testing.T) {
	cfg := types.DefaultProjectConfig()
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	engine := &Engine{Source: &fakeSource{}, Store: store, Log: store}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	metrics, err := engine.Run(ctx, testProject(cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.IterationNumber != 0 {
		t.Errorf("iteration = %d, want 0 (no iteration started)", metrics.IterationNumber)
	}
	if len(store.started) != 0 {
		t.Errorf("started iterations = %d, want 0", len(store.started))
	}
}

// stoppingSource cancels the run during its first forward fetch and, like a
// real HTTP client, fails any call whose context has been canceled.
type stoppingSource struct {
	fakeSource
	cancel context.CancelFunc
	once   sync.Once
}

func (s *stoppingSource) GetCitingWorks(ctx context.Context, workID string, limit int) ([]types.Work, error) {
	s.once.Do(s.cancel)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fakeSource.GetCitingWorks(ctx, workID, limit)
}

func (s *stoppingSource) GetReferences(ctx context.Context, workID string, limit int) ([]types.Work, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fakeSource.GetReferences(ctx, workID, limit)
}

func TestRunStopMidIterationCompletesIteration(t *testing.T) {
	// A stop arriving while iteration 1 is collecting must not abort its
	// fetches or persistence; the iteration finishes and only iteration 2
	// is skipped.
	cfg := types.DefaultProjectConfig()
	cfg.CollectAuthorWorks = false
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &stoppingSource{
		fakeSource: fakeSource{
			citing: map[string][]types.Work{"S1": {citingWork("W1", 2021)}},
		},
		cancel: cancel,
	}
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	var out bytes.Buffer
	engine := &Engine{Source: source, Store: store, Log: store, Progress: &out}

	metrics, err := engine.Run(ctx, testProject(cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.IterationNumber != 1 || metrics.NewPapers != 1 {
		t.Errorf("metrics = %+v, want iteration 1 with 1 new paper", metrics)
	}
	store.paper(t, "W1")
	if _, ok := store.completed["iter1"]; !ok {
		t.Error("iteration 1 started but never completed")
	}
	if _, ok := store.started[2]; ok {
		t.Error("iteration 2 started after stop")
	}
	if !strings.Contains(out.String(), "stop requested") {
		t.Errorf("output %q, want stop notice", out.String())
	}
}

func TestRunBootstrapSeeds(t *testing.T) {
	cfg := types.DefaultProjectConfig()
	cfg.CollectAuthorWorks = false
	source := &fakeSource{
		citing: map[string][]types.Work{"B1": {citingWork("W1", 2021)}},
	}
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	engine := &Engine{
		Source:    source,
		Store:     store,
		Log:       store,
		Bootstrap: bootstrapFunc(func(context.Context) ([]string, error) { return []string{"B1", "S1"}, nil }),
	}

	if _, err := engine.Run(context.Background(), testProject(cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b1 := store.paper(t, "B1")
	if b1.DiscoveryMethod != types.DiscoverySeed {
		t.Errorf("B1 method = %q, want seed", b1.DiscoveryMethod)
	}
	if b1.IterationAdded != 0 {
		t.Errorf("B1 iteration = %d, want 0", b1.IterationAdded)
	}
	// The bootstrap seed joins the initial working set: its citers are found.
	if _, ok := store.byKey["W1"]; !ok {
		t.Error("W1 not collected; bootstrap seed was not expanded")
	}
}

func TestRunBootstrapFailureIsNonFatal(t *testing.T) {
	cfg := types.DefaultProjectConfig()
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	var out bytes.Buffer
	engine := &Engine{
		Source:    &fakeSource{},
		Store:     store,
		Log:       store,
		Progress:  &out,
		Bootstrap: bootstrapFunc(func(context.Context) ([]string, error) { return nil, errors.New("report missing") }),
	}

	if _, err := engine.Run(context.Background(), testProject(cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "warning: seed bootstrap failed") {
		t.Errorf("output %q, want bootstrap warning", out.String())
	}
}

func TestRunBootstrapRecursionRounds(t *testing.T) {
	// Round 2 walks the references of the report-resolved seeds B1 and B2:
	// R1 is referenced by both (admitted); R2 by B1 only (not admitted).
	cfg := types.DefaultProjectConfig()
	cfg.CollectAuthorWorks = false
	source := &fakeSource{
		references: map[string][]types.Work{
			"B1": {citingWork("R1", 2018), citingWork("R2", 2017)},
			"B2": {citingWork("R1", 2018)},
		},
	}
	store := newMemStore(testProject(cfg), seedPaper("S1"))
	engine := &Engine{
		Source:          source,
		Store:           store,
		Log:             store,
		Bootstrap:       bootstrapFunc(func(context.Context) ([]string, error) { return []string{"B1", "B2"}, nil }),
		BootstrapRounds: 2,
	}

	if _, err := engine.Run(context.Background(), testProject(cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r1 := store.paper(t, "R1")
	if r1.DiscoveryMethod != types.DiscoverySeed || r1.IterationAdded != 0 {
		t.Errorf("R1 = method %q iteration %d, want seed at iteration 0", r1.DiscoveryMethod, r1.IterationAdded)
	}
	// R2 still enters later through the ordinary backward channel, but the
	// bootstrap must not have made it a seed.
	r2 := store.paper(t, "R2")
	if r2.DiscoveryMethod == types.DiscoverySeed || r2.IterationAdded == 0 {
		t.Errorf("R2 = method %q iteration %d; only works co-referenced by two previous-round seeds become seeds",
			r2.DiscoveryMethod, r2.IterationAdded)
	}
}

type bootstrapFunc func(ctx context.Context) ([]string, error)

func (f bootstrapFunc) SeedIDs(ctx context.Context) ([]string, error) { return f(ctx) }
