package coverage

import "fmt"

// Exit codes returned by the coverage gate.
const (
	ExitOK            = 0
	ExitReportMissing = 1
	ExitRequirement   = 2
	ExitDecision      = 3
	ExitScenario      = 4
	ExitTest          = 5
)

const requirementMetric = "requirement"

// Threshold is the minimum coverage for one metric.
type Threshold struct {
	// Metric is a metric key such as "requirement" or "requirement_to_ADR".
	Metric string `yaml:"metric"`

	// Aliases are alternative keys accepted for the same metric.
	Aliases []string `yaml:"aliases,omitempty"`

	// Min is the minimum coverage percentage.
	Min float64 `yaml:"min"`

	// ExitCode is returned when the metric is below Min.
	ExitCode int `yaml:"exit_code"`

	// Required makes a missing metric fail with ExitReportMissing instead
	// of a warning.
	Required bool `yaml:"required,omitempty"`
}

// DefaultThresholds returns the standard gate: overall requirement coverage
// plus decision, scenario and test linkage.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Metric: requirementMetric, Aliases: []string{"REQ", "REQ-"}, Min: 80, ExitCode: ExitRequirement, Required: true},
		{Metric: "requirement_to_ADR", Aliases: []string{"req_to_adr"}, Min: 70, ExitCode: ExitDecision},
		{Metric: "requirement_to_scenario", Aliases: []string{"req_to_scenario"}, Min: 60, ExitCode: ExitScenario},
		{Metric: "requirement_to_test", Aliases: []string{"req_to_test"}, Min: 40, ExitCode: ExitTest},
	}
}

// GateResult is the verdict for one threshold.
type GateResult struct {
	Threshold Threshold
	Actual    float64
	Missing   bool
	Passed    bool
}

func (r GateResult) String() string {
	switch {
	case r.Missing:
		return fmt.Sprintf("no %s metric present", r.Threshold.Metric)
	case r.Passed:
		return fmt.Sprintf("%s coverage %.2f%% >= %.2f%%", r.Threshold.Metric, r.Actual, r.Threshold.Min)
	default:
		return fmt.Sprintf("%s coverage %.2f%% < %.2f%%", r.Threshold.Metric, r.Actual, r.Threshold.Min)
	}
}

// Evaluate compares metrics against thresholds. The returned exit code is
// the highest code among failing thresholds, ExitReportMissing when a
// required metric is absent, or ExitOK.
func Evaluate(metrics map[string]float64, thresholds []Threshold) ([]GateResult, int) {
	results := make([]GateResult, 0, len(thresholds))
	code := ExitOK
	for _, th := range thresholds {
		res := GateResult{Threshold: th}
		val, ok := lookup(metrics, th)
		switch {
		case !ok:
			res.Missing = true
			if th.Required {
				return append(results, res), ExitReportMissing
			}
		case val < th.Min:
			res.Actual = val
			code = max(code, th.ExitCode)
		default:
			res.Actual = val
			res.Passed = true
		}
		results = append(results, res)
	}
	return results, code
}

func lookup(metrics map[string]float64, th Threshold) (float64, bool) {
	if v, ok := metrics[th.Metric]; ok {
		return v, true
	}
	for _, alias := range th.Aliases {
		if v, ok := metrics[alias]; ok {
			return v, true
		}
	}
	return 0, false
}
