// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"math"
	"strings"
	"testing"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

func detectorConfig() SaturationDetector {
	return SaturationDetector{
		MaxIterations:    5,
		GrowthThreshold:  0.05,
		NoveltyThreshold: 0.10,
	}
}

func TestCheckNoNewPapers(t *testing.T) {
	d := detectorConfig()
	res := d.Check(types.IterationMetrics{IterationNumber: 2, NewPapers: 0})

	if !res.IsSaturated {
		t.Fatal("IsSaturated = false, want true")
	}
	if !strings.Contains(res.Reason, "No new papers") {
		t.Errorf("Reason = %q, want mention of no new papers", res.Reason)
	}
	if res.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", res.Confidence)
	}
}

// Zero new papers wins even when growth and novelty also breach their
// thresholds.
func TestCheckNoNewPapersTakesPrecedence(t *testing.T) {
	d := detectorConfig()
	res := d.Check(types.IterationMetrics{
		IterationNumber: 2,
		NewPapers:       0,
		GrowthRate:      0.01,
		NoveltyRate:     0.01,
	})

	if !strings.Contains(res.Reason, "No new papers") {
		t.Errorf("Reason = %q, want no-new-papers to win the check order", res.Reason)
	}
}

func TestCheckMaxIterations(t *testing.T) {
	d := SaturationDetector{MaxIterations: 3, GrowthThreshold: 0.05, NoveltyThreshold: 0.10}
	res := d.Check(types.IterationMetrics{
		IterationNumber: 3,
		NewPapers:       20,
		GrowthRate:      0.5,
		NoveltyRate:     0.5,
	})

	if !res.IsSaturated {
		t.Fatal("IsSaturated = false, want true at the iteration budget")
	}
	if !strings.Contains(res.Reason, "maximum iterations") {
		t.Errorf("Reason = %q, want mention of maximum iterations", res.Reason)
	}
	if res.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", res.Confidence)
	}
}

func TestCheckGrowthBelowThreshold(t *testing.T) {
	d := detectorConfig()
	res := d.Check(types.IterationMetrics{
		IterationNumber: 2,
		NewPapers:       2,
		GrowthRate:      0.02,
		NoveltyRate:     0.5,
	})

	if !res.IsSaturated {
		t.Fatal("IsSaturated = false, want true for growth 0.02 < 0.05")
	}
	if !strings.Contains(res.Reason, "Growth rate") {
		t.Errorf("Reason = %q, want mention of growth rate", res.Reason)
	}
	// confidence = 0.8 + (1 - 0.02/0.05) * 0.2 = 0.92
	if math.Abs(res.Confidence-0.92) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.92", res.Confidence)
	}
}

func TestCheckNoveltyBelowThreshold(t *testing.T) {
	d := detectorConfig()
	res := d.Check(types.IterationMetrics{
		IterationNumber: 2,
		NewPapers:       5,
		GrowthRate:      0.5,
		NoveltyRate:     0.05,
	})

	if !res.IsSaturated {
		t.Fatal("IsSaturated = false, want true for novelty 0.05 < 0.10")
	}
	if !strings.Contains(res.Reason, "Novelty rate") {
		t.Errorf("Reason = %q, want mention of novelty rate", res.Reason)
	}
	if res.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", res.Confidence)
	}
}

func TestCheckNotSaturated(t *testing.T) {
	d := detectorConfig()
	res := d.Check(types.IterationMetrics{
		IterationNumber: 2,
		NewPapers:       20,
		GrowthRate:      0.5,
		NoveltyRate:     0.5,
	})

	if res.IsSaturated {
		t.Errorf("IsSaturated = true, want false; reason %q", res.Reason)
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
}

func TestCheckDisabledThresholds(t *testing.T) {
	// Zeroed thresholds (fixed iteration mode) disable the rate checks.
	d := SaturationDetector{MaxIterations: 10}
	res := d.Check(types.IterationMetrics{
		IterationNumber: 2,
		NewPapers:       1,
		GrowthRate:      0.001,
		NoveltyRate:     0.001,
	})

	if res.IsSaturated {
		t.Errorf("IsSaturated = true with thresholds disabled; reason %q", res.Reason)
	}
}

func trendMetrics(growth, novelty float64) types.IterationMetrics {
	return types.IterationMetrics{NewPapers: 10, GrowthRate: growth, NoveltyRate: novelty}
}

func TestTrackerDecliningTrend(t *testing.T) {
	tests := []struct {
		name    string
		history []types.IterationMetrics
		want    bool
	}{
		{
			"fewer than three iterations",
			[]types.IterationMetrics{trendMetrics(0.5, 0.5), trendMetrics(0.4, 0.4)},
			false,
		},
		{
			"growth monotonically non-increasing",
			[]types.IterationMetrics{trendMetrics(0.5, 0.2), trendMetrics(0.4, 0.5), trendMetrics(0.4, 0.3)},
			true,
		},
		{
			"novelty monotonically non-increasing",
			[]types.IterationMetrics{trendMetrics(0.2, 0.5), trendMetrics(0.5, 0.4), trendMetrics(0.3, 0.4)},
			true,
		},
		{
			"both rising",
			[]types.IterationMetrics{trendMetrics(0.2, 0.2), trendMetrics(0.3, 0.3), trendMetrics(0.4, 0.4)},
			false,
		},
		{
			"only last three considered",
			[]types.IterationMetrics{trendMetrics(0.1, 0.1), trendMetrics(0.9, 0.9), trendMetrics(0.8, 0.8), trendMetrics(0.7, 0.7)},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewSaturationTracker(SaturationDetector{MaxIterations: 100, GrowthThreshold: 0.001, NoveltyThreshold: 0.001})
			tr.history = tt.history

			if got := tr.DecliningTrend(); got != tt.want {
				t.Errorf("DecliningTrend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrackerCheckReportsTrendInformationally(t *testing.T) {
	tr := NewSaturationTracker(SaturationDetector{MaxIterations: 100, GrowthThreshold: 0.001, NoveltyThreshold: 0.001})

	tr.Check(trendMetrics(0.5, 0.5))
	tr.Check(trendMetrics(0.4, 0.4))
	res := tr.Check(trendMetrics(0.3, 0.3))

	if res.IsSaturated {
		t.Fatal("trend report must not force a stop")
	}
	if !strings.Contains(res.Reason, "trending downward") {
		t.Errorf("Reason = %q, want trend note", res.Reason)
	}
	if res.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want 0.6", res.Confidence)
	}
	if len(tr.History()) != 3 {
		t.Errorf("len(History()) = %d, want 3", len(tr.History()))
	}
}
