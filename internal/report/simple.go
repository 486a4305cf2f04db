package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pcaplens/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no indicators are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeIndicators(&sb, report)
	w.writeAnalysis(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with input file information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PCAPLENS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Input File:     %s\n", report.InputFile))
	sb.WriteString(fmt.Sprintf("File Type:      %s\n", report.Kind))
	sb.WriteString(fmt.Sprintf("File Size:      %d bytes\n", report.SizeBytes))
	if report.Digest != "" {
		sb.WriteString(fmt.Sprintf("SHA3-256:       %s\n", report.Digest))
	}
	sb.WriteString(fmt.Sprintf("Analyzed At:    %s\n", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")))

	if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.ErrorMessage))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", report.CountBySeverity(model.SeverityHigh)))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", report.CountBySeverity(model.SeverityMedium)))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", report.CountBySeverity(model.SeverityLow)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:    %d indicators\n", len(report.Indicators)))
	sb.WriteString("\n")
}

// writeIndicators writes all indicators grouped by severity.
func (w *SimpleWriter) writeIndicators(sb *strings.Builder, report *model.Report) {
	if !report.HasIndicators() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("INDICATORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, severity := range severityOrder {
		indicators := report.IndicatorsBySeverity(severity)
		if len(indicators) == 0 && !w.showEmpty {
			continue
		}

		w.writeIndicatorsForSeverity(sb, severity, indicators)
	}
}

// writeIndicatorsForSeverity writes indicators of a specific severity level.
func (w *SimpleWriter) writeIndicatorsForSeverity(sb *strings.Builder, severity model.Severity, indicators []model.Indicator) {
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(indicators) == 0 {
		sb.WriteString("  No indicators\n\n")
		return
	}

	for _, ind := range indicators {
		sb.WriteString(fmt.Sprintf("  * %s: %s (score %d)\n", ind.Type, ind.Value, ind.Score))
		if w.verbose && ind.Details != "" {
			sb.WriteString(fmt.Sprintf("    Details: %s\n", ind.Details))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	default:
		return "?"
	}
}

// writeAnalysis writes the AI analysis sections.
func (w *SimpleWriter) writeAnalysis(sb *strings.Builder, report *model.Report) {
	if report.Analysis == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("AI ANALYSIS (%s / %s)\n", report.Analysis.Provider, report.Analysis.Model))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, section := range report.Analysis.Sections {
		sb.WriteString(strings.ToUpper(section.Label))
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(section.Body))
		sb.WriteString("\n\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pcaplens\n")
	sb.WriteString("https://github.com/nao1215/pcaplens\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
