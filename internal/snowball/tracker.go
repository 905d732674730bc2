// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"sort"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

type discoveryEntry struct {
	method  types.DiscoveryMethod
	sources map[string]struct{}
}

// DiscoveryTracker records, per candidate work ID, the strongest discovery
// method seen and the set of source papers that led to it. Its state is
// scoped to one collection cycle: the engine reads it during persistence and
// discards it.
type DiscoveryTracker struct {
	entries map[string]*discoveryEntry
}

func NewDiscoveryTracker() *DiscoveryTracker {
	return &DiscoveryTracker{entries: make(map[string]*discoveryEntry)}
}

// Record notes that workID was discovered via method from the given source
// papers. A higher-priority method replaces the recorded one; an equal or
// lower priority only merges the sources. A recorded seed method is never
// overridden.
func (t *DiscoveryTracker) Record(workID string, method types.DiscoveryMethod, sourceIDs ...string) {
	e, ok := t.entries[workID]
	if !ok {
		e = &discoveryEntry{method: method, sources: make(map[string]struct{})}
		t.entries[workID] = e
	} else if e.method != types.DiscoverySeed && method.Priority() > e.method.Priority() {
		e.method = method
	}
	for _, id := range sourceIDs {
		e.sources[id] = struct{}{}
	}
}

// Method returns the recorded discovery method for workID, defaulting to
// seed for untracked ids.
func (t *DiscoveryTracker) Method(workID string) types.DiscoveryMethod {
	if e, ok := t.entries[workID]; ok {
		return e.method
	}
	return types.DiscoverySeed
}

// Sources returns the sorted source paper ids recorded for workID.
func (t *DiscoveryTracker) Sources(workID string) []string {
	e, ok := t.entries[workID]
	if !ok || len(e.sources) == 0 {
		return nil
	}
	ids := make([]string, 0, len(e.sources))
	for id := range e.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
