package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chivescore/api/internal/model"
)

func f64(v float64) *float64 { return &v }

// rawWithActive builds RawMetrics with the given number of active regions;
// the rest of the 9 grid cells are labeled no_chives.
func rawWithActive(active int, label model.CutQualityLabel, avg, std *float64) *model.RawMetrics {
	regions := make([]model.RegionMetrics, 0, len(model.RegionIDs))
	for i, id := range model.RegionIDs {
		regionLabel := model.CutQualityNoChives
		if i < active {
			regionLabel = model.CutQualityClean
		}
		regions = append(regions, model.RegionMetrics{
			ID:              id,
			CutQualityLabel: regionLabel,
		})
	}
	return &model.RawMetrics{
		AverageThicknessMm: avg,
		ThicknessStdDevMm:  std,
		CutQualityLabel:    label,
		Regions:            regions,
	}
}

func TestScore_RejectsIncompleteGrid(t *testing.T) {
	raw := &model.RawMetrics{
		AverageThicknessMm: f64(1.0),
		ThicknessStdDevMm:  f64(0.2),
		CutQualityLabel:    model.CutQualityClean,
		Regions: []model.RegionMetrics{
			{ID: "r1c1", CutQualityLabel: model.CutQualityClean},
			{ID: "r1c1", CutQualityLabel: model.CutQualityClean},
		},
	}

	scored := Score(raw)

	assert.Nil(t, scored.ThicknessConsistencyScore)
	assert.Nil(t, scored.CutQualityScore)
	assert.Nil(t, scored.OverallScore)
	assert.Contains(t, scored.Notes, "3x3 region grid")
}

func TestScore_RejectsDuplicateRegionIDs(t *testing.T) {
	// 9 entries, but r1c1 twice and r3c3 missing.
	raw := rawWithActive(9, model.CutQualityClean, f64(1.0), f64(0.2))
	raw.Regions[8].ID = "r1c1"

	scored := Score(raw)

	assert.Nil(t, scored.OverallScore)
	assert.Contains(t, scored.Notes, "3x3 region grid")
}

func TestScore_RejectsExtraRegions(t *testing.T) {
	raw := rawWithActive(9, model.CutQualityClean, f64(1.0), f64(0.2))
	raw.Regions = append(raw.Regions, model.RegionMetrics{ID: "r4c1", CutQualityLabel: model.CutQualityClean})

	scored := Score(raw)

	assert.Nil(t, scored.OverallScore)
	assert.Contains(t, scored.Notes, "3x3 region grid")
}

func TestScore_GuardA_NoActiveRegions(t *testing.T) {
	raw := rawWithActive(0, model.CutQualityClean, f64(1.0), f64(0.2))

	scored := Score(raw)

	assert.Nil(t, scored.ThicknessConsistencyScore)
	assert.Nil(t, scored.CutQualityScore)
	assert.Nil(t, scored.OverallScore)
	assert.Contains(t, scored.Notes, "No chives detected")
}

func TestScore_GuardB_SingleActiveRegion(t *testing.T) {
	raw := rawWithActive(1, model.CutQualityClean, f64(1.0), f64(0.2))

	scored := Score(raw)

	assert.Nil(t, scored.ThicknessConsistencyScore)
	assert.Nil(t, scored.CutQualityScore)
	assert.Nil(t, scored.OverallScore)
	assert.Contains(t, scored.Notes, "one grid region")
}

func TestScore_GuardC_ImplausibleThickness(t *testing.T) {
	cases := []float64{-1, 0, 5.01, 42}
	for _, avg := range cases {
		t.Run(fmt.Sprintf("avg=%v", avg), func(t *testing.T) {
			raw := rawWithActive(5, model.CutQualityClean, f64(avg), f64(0.2))

			scored := Score(raw)

			assert.Nil(t, scored.ThicknessConsistencyScore)
			assert.Nil(t, scored.CutQualityScore)
			assert.Nil(t, scored.OverallScore)
			assert.Contains(t, scored.Notes, "plausible range")
		})
	}
}

func TestScore_BoundaryThicknessIsPlausible(t *testing.T) {
	// 5.0 is inside (0, 5]
	raw := rawWithActive(3, model.CutQualityClean, f64(5.0), f64(0.2))
	scored := Score(raw)
	require.NotNil(t, scored.OverallScore)
}

func TestScore_ConsistencyEndpoints(t *testing.T) {
	zero := rawWithActive(3, model.CutQualityClean, f64(1.0), f64(0))
	scored := Score(zero)
	require.NotNil(t, scored.ThicknessConsistencyScore)
	assert.Equal(t, 1.0, *scored.ThicknessConsistencyScore)

	floor := rawWithActive(3, model.CutQualityClean, f64(1.0), f64(1.5))
	scored = Score(floor)
	require.NotNil(t, scored.ThicknessConsistencyScore)
	assert.Equal(t, 0.0, *scored.ThicknessConsistencyScore)

	beyond := rawWithActive(3, model.CutQualityClean, f64(1.0), f64(3.0))
	scored = Score(beyond)
	require.NotNil(t, scored.ThicknessConsistencyScore)
	assert.Equal(t, 0.0, *scored.ThicknessConsistencyScore)
}

func TestScore_RubricExample(t *testing.T) {
	// stdDev 0.75 -> consistency 0.5; clean -> quality 1.0;
	// overall = round((0.5*0.6 + 1.0*0.4) * 100) = 70
	raw := rawWithActive(4, model.CutQualityClean, f64(1.5), f64(0.75))

	scored := Score(raw)

	require.NotNil(t, scored.ThicknessConsistencyScore)
	require.NotNil(t, scored.CutQualityScore)
	require.NotNil(t, scored.OverallScore)
	assert.Equal(t, 0.5, *scored.ThicknessConsistencyScore)
	assert.Equal(t, 1.0, *scored.CutQualityScore)
	assert.Equal(t, 70, *scored.OverallScore)
}

func TestScore_CutQualityLabels(t *testing.T) {
	cases := map[model.CutQualityLabel]float64{
		model.CutQualityClean:   1.0,
		model.CutQualityMixed:   0.7,
		model.CutQualityRagged:  0.35,
		model.CutQualityUnknown: 0.5,
		"garbled":               0.5,
	}

	for label, want := range cases {
		t.Run(string(label), func(t *testing.T) {
			raw := rawWithActive(3, label, f64(1.0), f64(0.5))

			scored := Score(raw)

			require.NotNil(t, scored.CutQualityScore)
			assert.Equal(t, want, *scored.CutQualityScore)
		})
	}
}

func TestScore_MissingStdDevFallsBackToNeutral(t *testing.T) {
	raw := rawWithActive(3, model.CutQualityClean, f64(1.0), nil)

	scored := Score(raw)

	assert.Nil(t, scored.ThicknessConsistencyScore)
	require.NotNil(t, scored.OverallScore)
	// consistency defaults to 0.5: round((0.5*0.6 + 1.0*0.4) * 100) = 70
	assert.Equal(t, 70, *scored.OverallScore)
}

func TestScore_MissingAverageSkipsGuardC(t *testing.T) {
	raw := rawWithActive(3, model.CutQualityMixed, nil, f64(0.3))

	scored := Score(raw)

	require.NotNil(t, scored.OverallScore)
}

func TestScore_OverallBounds(t *testing.T) {
	stds := []float64{0, 0.1, 0.5, 1.0, 1.5, 2.5}
	labels := []model.CutQualityLabel{
		model.CutQualityClean, model.CutQualityMixed, model.CutQualityRagged, model.CutQualityUnknown,
	}

	for _, std := range stds {
		for _, label := range labels {
			raw := rawWithActive(9, label, f64(2.0), f64(std))
			scored := Score(raw)

			require.NotNil(t, scored.ThicknessConsistencyScore)
			require.NotNil(t, scored.OverallScore)
			assert.GreaterOrEqual(t, *scored.ThicknessConsistencyScore, 0.0)
			assert.LessOrEqual(t, *scored.ThicknessConsistencyScore, 1.0)
			assert.GreaterOrEqual(t, *scored.OverallScore, 0)
			assert.LessOrEqual(t, *scored.OverallScore, 100)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	raw := rawWithActive(6, model.CutQualityMixed, f64(1.8), f64(0.6))

	first := Score(raw)
	second := Score(raw)

	assert.Equal(t, first, second)
}

func TestScore_NotesPreferModelExplanation(t *testing.T) {
	raw := rawWithActive(3, model.CutQualityClean, f64(1.0), f64(0.2))
	raw.RawNotes = "Very even cut across the board."

	scored := Score(raw)
	assert.Equal(t, "Very even cut across the board.", scored.Notes)

	raw.RawNotes = ""
	scored = Score(raw)
	assert.Equal(t, genericNotes, scored.Notes)
}
