package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pcaplens/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeIndicators(md, report)
	w.writeAnalysis(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with input file information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("pcaplens Report")
	md.PlainText("")

	rows := [][]string{
		{"Input File", "`" + report.InputFile + "`"},
		{"File Type", string(report.Kind)},
		{"File Size", strconv.FormatInt(report.SizeBytes, 10) + " bytes"},
		{"Analyzed At", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
		{"Status", w.getStatusText(report)},
	}
	if report.Digest != "" {
		rows = append(rows, []string{"SHA3-256", "`" + report.Digest + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.Report) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Severity Summary")
	md.PlainText("")

	high := report.CountBySeverity(model.SeverityHigh)
	medium := report.CountBySeverity(model.SeverityMedium)
	low := report.CountBySeverity(model.SeverityLow)

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 High", strconv.Itoa(high)},
			{"🟠 Medium", strconv.Itoa(medium)},
			{"🟢 Low", strconv.Itoa(low)},
			{"**Total**", "**" + strconv.Itoa(len(report.Indicators)) + "**"},
		},
	})
	md.PlainText("")

	if report.HasIndicators() {
		w.writePieChart(md, high, medium, low)
	}

	w.writeAlert(md, high, medium, len(report.Indicators))
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, high, medium, low int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Indicator Severity Distribution"),
		piechart.WithShowData(true),
	)

	if high > 0 {
		chart.LabelAndIntValue("High", uint64(high))
	}
	if medium > 0 {
		chart.LabelAndIntValue("Medium", uint64(medium))
	}
	if low > 0 {
		chart.LabelAndIntValue("Low", uint64(low))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, high, medium, total int) {
	switch {
	case high > 0:
		md.Cautionf(
			"High severity indicators detected! %d indicator(s) require immediate attention.",
			high,
		)
	case medium > 0:
		md.Warningf(
			"Medium severity indicators detected. %d indicator(s) should be reviewed.",
			medium,
		)
	case total > 0:
		md.Note("Only low severity indicators detected.")
	default:
		md.Tip("No indicators of compromise detected.")
	}
	md.PlainText("")
}

// writeIndicators writes all indicators grouped by severity.
func (w *MarkdownWriter) writeIndicators(md *markdown.Markdown, report *model.Report) {
	md.H2("Indicators")
	md.PlainText("")

	if !report.HasIndicators() {
		md.PlainText("No indicators of compromise detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityHigh, "### 🔴 High"},
		{model.SeverityMedium, "### 🟠 Medium"},
		{model.SeverityLow, "### 🟢 Low"},
	}

	for _, sev := range severities {
		indicators := report.IndicatorsBySeverity(sev.level)
		if len(indicators) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeIndicatorsTable(md, indicators)
	}
}

// writeIndicatorsTable writes a table of indicators with details.
func (w *MarkdownWriter) writeIndicatorsTable(md *markdown.Markdown, indicators []model.Indicator) {
	headers := []string{"Type", "Value", "Score", "Details"}

	rows := make([][]string, len(indicators))
	for i, ind := range indicators {
		details := ind.Details
		if details == "" {
			details = "-"
		}

		rows[i] = []string{
			string(ind.Type),
			"`" + truncateString(ind.Value, 60) + "`",
			strconv.Itoa(ind.Score),
			truncateString(details, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAnalysis writes the AI analysis sections.
func (w *MarkdownWriter) writeAnalysis(md *markdown.Markdown, report *model.Report) {
	if report.Analysis == nil {
		return
	}

	md.H2("AI Analysis")
	md.PlainText("")
	md.PlainTextf("*Provider: %s, Model: %s*", report.Analysis.Provider, report.Analysis.Model)
	md.PlainText("")

	for _, section := range report.Analysis.Sections {
		md.H3(section.Label)
		md.PlainText("")
		md.PlainText(section.Body)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pcaplens](https://github.com/nao1215/pcaplens)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
