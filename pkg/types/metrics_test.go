// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestNewIterationMetrics(t *testing.T) {
	tests := []struct {
		name         string
		papersBefore int
		newPapers    int
		cands        int
		wantGrowth   float64
		wantNovelty  float64
	}{
		{"normal rates", 100, 10, 50, 0.1, 0.2},
		{"zero papers before", 0, 10, 50, 0, 0.2},
		{"zero candidates", 100, 0, 0, 0, 0},
		{"all zero", 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewIterationMetrics(3, tt.papersBefore, tt.newPapers, tt.cands)

			if m.IterationNumber != 3 {
				t.Errorf("IterationNumber = %d, want 3", m.IterationNumber)
			}
			if m.PapersAfter != tt.papersBefore+tt.newPapers {
				t.Errorf("PapersAfter = %d, want %d", m.PapersAfter, tt.papersBefore+tt.newPapers)
			}
			if m.GrowthRate != tt.wantGrowth {
				t.Errorf("GrowthRate = %v, want %v", m.GrowthRate, tt.wantGrowth)
			}
			if m.NoveltyRate != tt.wantNovelty {
				t.Errorf("NoveltyRate = %v, want %v", m.NoveltyRate, tt.wantNovelty)
			}
			if m.GrowthRate < 0 || m.NoveltyRate < 0 {
				t.Error("rates must never be negative")
			}
			if m.Timestamp.IsZero() {
				t.Error("Timestamp not set")
			}
		})
	}
}

func TestDiscoveryMethodPriority(t *testing.T) {
	order := []DiscoveryMethod{DiscoverySeed, DiscoveryBackward, DiscoveryForward, DiscoveryAuthor}
	for i := 1; i < len(order); i++ {
		if order[i].Priority() <= order[i-1].Priority() {
			t.Errorf("Priority(%s) = %d, want greater than Priority(%s) = %d",
				order[i], order[i].Priority(), order[i-1], order[i-1].Priority())
		}
	}
	if DiscoveryRelated.Priority() != DiscoveryBackward.Priority() {
		t.Error("related and backward must share a priority")
	}
}
