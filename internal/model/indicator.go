package model

// IndicatorType identifies the category of an extracted indicator.
type IndicatorType string

const (
	// IndicatorTypeIP is an IPv4 or IPv6 address.
	IndicatorTypeIP IndicatorType = "ip"

	// IndicatorTypeDomain is a DNS name (query name, HTTP host, or a
	// bare hostname matched in log text).
	IndicatorTypeDomain IndicatorType = "domain"

	// IndicatorTypeURL is a full http(s) URL.
	IndicatorTypeURL IndicatorType = "url"
)

// Indicator is a discrete artifact extracted from a capture or log:
// an address, domain, or URL that may be a sign of network activity.
//
// Indicators are created during extraction, deduplicated by (Type, Value)
// equality, and read-only thereafter. They are not persisted beyond the
// rendered report except as rows in the optional history database.
type Indicator struct {
	// Type is the indicator category.
	Type IndicatorType `json:"type"`

	// Value is the raw matched string, normalized during enrichment
	// (domains are lowercased and converted to ASCII form).
	Value string `json:"value"`

	// Severity is the coarse priority label assigned by enrichment.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity, filled alongside
	// Severity for JSON consumers.
	SeverityText string `json:"severity_text,omitempty"`

	// Score is a display score derived from the severity rule.
	Score int `json:"score,omitempty"`

	// Details describes why the severity was assigned.
	Details string `json:"details,omitempty"`
}

// Key returns the deduplication key for the indicator.
func (i Indicator) Key() string {
	return string(i.Type) + ":" + i.Value
}

// DedupIndicators removes exact duplicates by (Type, Value) in a single
// linear pass, preserving first-seen order. The operation is idempotent:
// applying it twice yields the same result as applying it once.
func DedupIndicators(indicators []Indicator) []Indicator {
	seen := make(map[string]bool, len(indicators))
	result := make([]Indicator, 0, len(indicators))

	for _, ind := range indicators {
		key := ind.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, ind)
	}

	return result
}
