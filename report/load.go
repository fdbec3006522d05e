package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrReportMissing is returned when the traceability report does not exist.
var ErrReportMissing = errors.New("traceability report missing")

// ErrReportMalformed is returned when the report cannot be decoded.
var ErrReportMalformed = errors.New("traceability report malformed")

// storedMetric is the subset of a metric entry policy checks read.
type storedMetric struct {
	CoveragePct *float64 `json:"coverage_pct"`
}

// LoadMetrics reads traceability.json and returns every metric's coverage
// percentage keyed by metric name. Entries without coverage_pct are skipped.
func LoadMetrics(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrReportMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var doc struct {
		Metrics map[string]json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportMalformed, err)
	}
	if doc.Metrics == nil {
		return nil, fmt.Errorf("%w: no metrics block", ErrReportMalformed)
	}

	out := make(map[string]float64, len(doc.Metrics))
	for name, raw := range doc.Metrics {
		var m storedMetric
		if err := json.Unmarshal(raw, &m); err != nil || m.CoveragePct == nil {
			continue
		}
		out[name] = *m.CoveragePct
	}
	return out, nil
}
