package model

// RegionMetrics holds the per-grid-cell measurements reported by the vision
// model. ID is one of the 9 fixed labels in RegionIDs.
type RegionMetrics struct {
	ID                 string          `json:"id"`
	AverageThicknessMm *float64        `json:"regionAverageThicknessMm,omitempty"`
	ThicknessStdDevMm  *float64        `json:"regionThicknessStdDevMm,omitempty"`
	CutQualityLabel    CutQualityLabel `json:"regionCutQualityLabel"`
}

// RawMetrics is the parsed vision-model output for one image. It is stored
// verbatim with the Result and never mutated after the worker writes it.
type RawMetrics struct {
	AverageThicknessMm *float64        `json:"averageThicknessMm,omitempty"`
	ThicknessStdDevMm  *float64        `json:"thicknessStdDevMm,omitempty"`
	CutQualityLabel    CutQualityLabel `json:"cutQualityLabel"`
	RawNotes           string          `json:"rawNotes"`
	Regions            []RegionMetrics `json:"regions"`
}

// ActiveRegions returns the regions whose label is not no_chives.
func (m *RawMetrics) ActiveRegions() []RegionMetrics {
	var active []RegionMetrics
	for _, r := range m.Regions {
		if r.CutQualityLabel != CutQualityNoChives {
			active = append(active, r)
		}
	}
	return active
}

// ScoredMetrics is derived from RawMetrics by the scoring engine. It is never
// persisted: scores are recomputed on every read so rubric changes apply
// retroactively to stored raw results.
type ScoredMetrics struct {
	ThicknessConsistencyScore *float64 `json:"thicknessConsistencyScore"`
	CutQualityScore           *float64 `json:"cutQualityScore"`
	OverallScore              *int     `json:"overallScore"`
	Notes                     string   `json:"notes"`
}
