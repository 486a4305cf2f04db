package model

// Severity represents the priority label attached to an indicator.
// It is a coarse, display-oriented tag assigned by a static rule,
// not a computed risk model.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityUnknown is the zero value. It only appears on indicators
	// that have not passed through enrichment yet.
	SeverityUnknown Severity = iota

	// SeverityLow indicates indicators with minimal interest, such as
	// private or loopback addresses that never left the local network.
	SeverityLow

	// SeverityMedium is the default label for indicators with no
	// blocklist match. They warrant review but carry no known history.
	SeverityMedium

	// SeverityHigh indicates indicators present on the configured
	// blocklist. These are listed first in every report format.
	SeverityHigh
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// severityScores maps (severity, indicator type) to a display score.
// The scores exist for report ordering and have no threat-intelligence
// meaning; they are derived deterministically from the assigned label so
// that repeated runs over the same input produce identical reports.
var severityScores = map[Severity]map[IndicatorType]int{
	SeverityHigh: {
		IndicatorTypeIP:     95,
		IndicatorTypeDomain: 90,
		IndicatorTypeURL:    85,
	},
	SeverityMedium: {
		IndicatorTypeIP:     60,
		IndicatorTypeDomain: 55,
		IndicatorTypeURL:    50,
	},
	SeverityLow: {
		IndicatorTypeIP:     30,
		IndicatorTypeDomain: 25,
		IndicatorTypeURL:    20,
	},
}

// Score returns the display score for an indicator of the given type
// carrying this severity. Unknown combinations score zero.
func (s Severity) Score(t IndicatorType) int {
	if scores, ok := severityScores[s]; ok {
		return scores[t]
	}
	return 0
}
