package model

import "time"

// InputKind identifies how an input file is processed.
type InputKind string

const (
	// KindCapture routes the file to the tshark-based capture extractor.
	KindCapture InputKind = "capture"

	// KindLog routes the file to the regex-based log extractor.
	KindLog InputKind = "log"
)

// Report is the accumulated result of analyzing a single input file.
// It is populated step by step as the pipeline executes: classification
// sets Kind and Digest, extraction fills Summary and Indicators, enrichment
// labels them, and the optional model call attaches Analysis.
//
// Design decision: A single mutable report passed through the pipeline
// mirrors how each stage builds on the previous one, and gives error
// handling one place to record what went wrong and how far we got.
type Report struct {
	// InputFile is the path of the analyzed file.
	InputFile string `json:"input_file"`

	// Kind is the classification result (capture or log).
	Kind InputKind `json:"kind,omitempty"`

	// SizeBytes is the input file size checked during classification.
	SizeBytes int64 `json:"size_bytes"`

	// Digest is the SHA3-256 digest of the input file, hex encoded.
	// It identifies the exact input in the history database.
	Digest string `json:"digest,omitempty"`

	// DateAnalyzed is when the analysis was performed.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// Summary is the bounded textual summary produced by extraction:
	// per-frame lines for captures, the raw text for logs.
	Summary string `json:"summary,omitempty"`

	// Indicators is the deduplicated, severity-labeled indicator list.
	Indicators []Indicator `json:"indicators,omitempty"`

	// Analysis holds the model response, if an analysis was requested.
	Analysis *Analysis `json:"analysis,omitempty"`

	// PerformedSteps lists pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error holds the first error that halted the pipeline, if any.
	// It is excluded from JSON; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the human-readable form of Error.
	ErrorMessage string `json:"error,omitempty"`
}

// Analysis is the free-text result of the model call. No structure is
// imposed on the prose beyond section labels used for report layout.
type Analysis struct {
	// Provider is the model endpoint kind ("anthropic" or "ollama").
	Provider string `json:"provider"`

	// Model is the model identifier the response came from.
	Model string `json:"model"`

	// Raw is the full response text, consumed as-is.
	Raw string `json:"raw"`

	// Sections is the response split into labeled blocks for layout.
	// When no known headings are found, a single "Analysis" section
	// holds the whole response.
	Sections []AnalysisSection `json:"sections,omitempty"`
}

// AnalysisSection is one labeled block of the model response.
type AnalysisSection struct {
	// Label is the section heading (e.g. "Executive Summary").
	Label string `json:"label"`

	// Body is the section text.
	Body string `json:"body"`
}

// NewReport creates a Report for the given input file with the
// analysis timestamp set.
func NewReport(inputFile string) *Report {
	return &Report{
		InputFile:    inputFile,
		DateAnalyzed: time.Now(),
	}
}

// AddIndicators appends indicator candidates to the report.
func (r *Report) AddIndicators(indicators ...Indicator) {
	r.Indicators = append(r.Indicators, indicators...)
}

// CountBySeverity returns the number of indicators carrying the
// given severity label.
func (r *Report) CountBySeverity(s Severity) int {
	count := 0
	for _, ind := range r.Indicators {
		if ind.Severity == s {
			count++
		}
	}
	return count
}

// IndicatorsBySeverity returns indicators filtered by severity,
// preserving their order in the report.
func (r *Report) IndicatorsBySeverity(s Severity) []Indicator {
	var result []Indicator
	for _, ind := range r.Indicators {
		if ind.Severity == s {
			result = append(result, ind)
		}
	}
	return result
}

// HasIndicators returns true if any indicators were extracted.
func (r *Report) HasIndicators() bool {
	return len(r.Indicators) > 0
}
