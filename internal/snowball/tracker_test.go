// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"reflect"
	"testing"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

func TestDiscoveryTrackerPriority(t *testing.T) {
	tests := []struct {
		name  string
		first types.DiscoveryMethod
		then  types.DiscoveryMethod
		want  types.DiscoveryMethod
	}{
		{"backward then author upgrades", types.DiscoveryBackward, types.DiscoveryAuthor, types.DiscoveryAuthor},
		{"author then backward keeps author", types.DiscoveryAuthor, types.DiscoveryBackward, types.DiscoveryAuthor},
		{"backward then forward upgrades", types.DiscoveryBackward, types.DiscoveryForward, types.DiscoveryForward},
		{"forward then backward keeps forward", types.DiscoveryForward, types.DiscoveryBackward, types.DiscoveryForward},
		{"backward then related keeps backward", types.DiscoveryBackward, types.DiscoveryRelated, types.DiscoveryBackward},
		{"seed never overridden", types.DiscoverySeed, types.DiscoveryAuthor, types.DiscoverySeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewDiscoveryTracker()
			tr.Record("W1", tt.first, "S1")
			tr.Record("W1", tt.then, "S2")

			if got := tr.Method("W1"); got != tt.want {
				t.Errorf("Method(W1) = %q, want %q", got, tt.want)
			}
			// Sources merge regardless of which method wins.
			if got := tr.Sources("W1"); !reflect.DeepEqual(got, []string{"S1", "S2"}) {
				t.Errorf("Sources(W1) = %v, want [S1 S2]", got)
			}
		})
	}
}

func TestDiscoveryTrackerUntrackedDefaultsToSeed(t *testing.T) {
	tr := NewDiscoveryTracker()
	if got := tr.Method("W-unknown"); got != types.DiscoverySeed {
		t.Errorf("Method(untracked) = %q, want seed", got)
	}
	if got := tr.Sources("W-unknown"); got != nil {
		t.Errorf("Sources(untracked) = %v, want nil", got)
	}
}

func TestDiscoveryTrackerMergesDuplicateSources(t *testing.T) {
	tr := NewDiscoveryTracker()
	tr.Record("W1", types.DiscoveryForward, "S1")
	tr.Record("W1", types.DiscoveryForward, "S1", "S2")

	if got := tr.Sources("W1"); !reflect.DeepEqual(got, []string{"S1", "S2"}) {
		t.Errorf("Sources(W1) = %v, want [S1 S2]", got)
	}
}
