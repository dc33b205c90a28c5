package worker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chivescore/api/internal/model"
)

// ParseRawMetrics extracts the metrics object from the vision model's raw
// response. Models wrap the payload in explanatory prose often enough that
// we scan for the first well-formed JSON object substring instead of
// unmarshaling the whole response.
func ParseRawMetrics(text string) (*model.RawMetrics, error) {
	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var raw model.RawMetrics
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("invalid metrics JSON: %w", err)
	}

	if raw.Regions == nil {
		return nil, fmt.Errorf("metrics JSON has no regions")
	}

	normalizeLabels(&raw)
	return &raw, nil
}

// extractJSONObject returns the first well-formed JSON object substring.
func extractJSONObject(s string) (string, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var probe map[string]json.RawMessage
		if err := dec.Decode(&probe); err == nil {
			return s[i : i+int(dec.InputOffset())], nil
		}
	}
	return "", fmt.Errorf("no JSON object in response")
}

func normalizeLabels(raw *model.RawMetrics) {
	raw.CutQualityLabel = model.CutQualityLabel(strings.ToLower(strings.TrimSpace(string(raw.CutQualityLabel))))
	if raw.CutQualityLabel == "" {
		raw.CutQualityLabel = model.CutQualityUnknown
	}
	for i := range raw.Regions {
		raw.Regions[i].CutQualityLabel = model.CutQualityLabel(
			strings.ToLower(strings.TrimSpace(string(raw.Regions[i].CutQualityLabel))))
	}
}
