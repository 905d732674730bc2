// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"fmt"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// SaturationResult is the stop decision for one iteration.
type SaturationResult struct {
	IsSaturated bool
	Reason      string
	Confidence  float64
}

// SaturationDetector evaluates a single iteration's metrics against the
// stop criteria, in a fixed order: no new papers, maximum iterations,
// growth rate, novelty rate. The first matching criterion wins, so a
// zero-new-papers iteration always reports that reason even when the rate
// thresholds are also breached.
type SaturationDetector struct {
	MaxIterations    int
	GrowthThreshold  float64
	NoveltyThreshold float64
}

func (d SaturationDetector) Check(m types.IterationMetrics) SaturationResult {
	if m.NewPapers == 0 {
		return SaturationResult{
			IsSaturated: true,
			Reason:      "No new papers added this iteration",
			Confidence:  1.0,
		}
	}
	if d.MaxIterations > 0 && m.IterationNumber >= d.MaxIterations {
		return SaturationResult{
			IsSaturated: true,
			Reason:      fmt.Sprintf("Reached maximum iterations (%d)", d.MaxIterations),
			Confidence:  1.0,
		}
	}
	if d.GrowthThreshold > 0 && m.GrowthRate < d.GrowthThreshold {
		return SaturationResult{
			IsSaturated: true,
			Reason: fmt.Sprintf("Growth rate %.3f below threshold %.3f",
				m.GrowthRate, d.GrowthThreshold),
			Confidence: 0.8 + (1-m.GrowthRate/d.GrowthThreshold)*0.2,
		}
	}
	if d.NoveltyThreshold > 0 && m.NoveltyRate < d.NoveltyThreshold {
		return SaturationResult{
			IsSaturated: true,
			Reason: fmt.Sprintf("Novelty rate %.3f below threshold %.3f",
				m.NoveltyRate, d.NoveltyThreshold),
			Confidence: 0.9,
		}
	}
	return SaturationResult{}
}

// SaturationTracker wraps the detector with iteration history. Once three
// or more iterations have been recorded, a monotonically non-increasing
// growth or novelty trend over the last three is reported as an
// informational result; it never forces a stop on its own.
type SaturationTracker struct {
	detector SaturationDetector
	history  []types.IterationMetrics
}

func NewSaturationTracker(d SaturationDetector) *SaturationTracker {
	return &SaturationTracker{detector: d}
}

// Check records the metrics and evaluates the stop criteria.
func (t *SaturationTracker) Check(m types.IterationMetrics) SaturationResult {
	t.history = append(t.history, m)

	res := t.detector.Check(m)
	if res.IsSaturated {
		return res
	}
	if t.DecliningTrend() {
		return SaturationResult{
			Reason:     "Growth and novelty rates are trending downward",
			Confidence: 0.6,
		}
	}
	return res
}

// History returns the recorded iteration metrics in order.
func (t *SaturationTracker) History() []types.IterationMetrics {
	return t.history
}

// DecliningTrend reports whether the growth or novelty rate has been
// monotonically non-increasing over the last three recorded iterations.
func (t *SaturationTracker) DecliningTrend() bool {
	if len(t.history) < 3 {
		return false
	}
	last := t.history[len(t.history)-3:]

	growthDeclining := last[1].GrowthRate <= last[0].GrowthRate &&
		last[2].GrowthRate <= last[1].GrowthRate
	noveltyDeclining := last[1].NoveltyRate <= last[0].NoveltyRate &&
		last[2].NoveltyRate <= last[1].NoveltyRate

	return growthDeclining || noveltyDeclining
}
