// Package scoring converts raw per-region measurements into a bounded quality
// score. Score is pure and deterministic, and is re-run on every read so that
// rubric changes apply to results already in the store.
package scoring

import (
	"fmt"
	"math"

	"github.com/chivescore/api/internal/model"
)

const (
	// Std dev at which thickness consistency bottoms out at 0.
	stdDevFloorMm = 1.5
	// Chives thicker than this are not chives; treat as a bad model response.
	maxPlausibleThicknessMm = 5.0

	consistencyWeight = 0.6
	qualityWeight     = 0.4

	genericNotes = "Scored on thickness consistency and cut cleanliness across the 3x3 grid."
)

// Score derives ScoredMetrics from RawMetrics. Guards suppress scoring when
// the input is insufficient or implausible:
//
//	grid: regions must cover each of the 9 cells exactly once
//	A: no active regions (nothing but no_chives cells)
//	B: a single active region (not enough coverage to judge consistency)
//	C: averageThicknessMm outside (0, 5] mm
func Score(raw *model.RawMetrics) model.ScoredMetrics {
	if !hasFullGrid(raw.Regions) {
		return model.ScoredMetrics{Notes: "Analysis did not report the full 3x3 region grid; response rejected."}
	}

	active := raw.ActiveRegions()

	if len(active) == 0 {
		return model.ScoredMetrics{Notes: "No chives detected in any grid region; nothing to score."}
	}

	if len(active) == 1 {
		return model.ScoredMetrics{Notes: "Only one grid region contains chives; not enough coverage to score consistency."}
	}

	if raw.AverageThicknessMm != nil {
		avg := *raw.AverageThicknessMm
		if math.IsNaN(avg) || avg <= 0 || avg > maxPlausibleThicknessMm {
			return model.ScoredMetrics{
				Notes: fmt.Sprintf("Average thickness %.2fmm is outside the plausible range (0, %.0f]mm; measurement rejected.", avg, maxPlausibleThicknessMm),
			}
		}
	}

	var consistency *float64
	if raw.ThicknessStdDevMm != nil {
		std := *raw.ThicknessStdDevMm
		if !math.IsNaN(std) && !math.IsInf(std, 0) {
			v := round2(clamp01(1 - std/stdDevFloorMm))
			consistency = &v
		}
	}

	quality := cutQualityScore(raw.CutQualityLabel)

	c := 0.5
	if consistency != nil {
		c = *consistency
	}
	overall := int(math.Round((c*consistencyWeight + quality*qualityWeight) * 100))
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	notes := raw.RawNotes
	if notes == "" {
		notes = genericNotes
	}

	return model.ScoredMetrics{
		ThicknessConsistencyScore: consistency,
		CutQualityScore:           &quality,
		OverallScore:              &overall,
		Notes:                     notes,
	}
}

// hasFullGrid reports whether regions holds each of the 9 grid cells exactly once.
func hasFullGrid(regions []model.RegionMetrics) bool {
	if len(regions) != len(model.RegionIDs) {
		return false
	}
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		seen[r.ID] = true
	}
	for _, id := range model.RegionIDs {
		if !seen[id] {
			return false
		}
	}
	return true
}

func cutQualityScore(label model.CutQualityLabel) float64 {
	switch label {
	case model.CutQualityClean:
		return 1.0
	case model.CutQualityMixed:
		return 0.7
	case model.CutQualityRagged:
		return 0.35
	default:
		return 0.5
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
