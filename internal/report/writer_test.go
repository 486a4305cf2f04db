package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pcaplens/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	report := model.NewReport("/tmp/suspicious.pcap")
	report.Kind = model.KindCapture
	report.SizeBytes = 2048
	report.Digest = "ab12cd34"
	report.DateAnalyzed = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	report.AddIndicators(
		model.Indicator{
			Type:         model.IndicatorTypeIP,
			Value:        "203.0.113.7",
			Severity:     model.SeverityHigh,
			SeverityText: model.SeverityHigh.String(),
			Score:        95,
			Details:      "listed on blocklist",
		},
		model.Indicator{
			Type:         model.IndicatorTypeDomain,
			Value:        "evil-domain.test",
			Severity:     model.SeverityMedium,
			SeverityText: model.SeverityMedium.String(),
			Score:        55,
		},
		model.Indicator{
			Type:         model.IndicatorTypeIP,
			Value:        "192.168.1.5",
			Severity:     model.SeverityLow,
			SeverityText: model.SeverityLow.String(),
			Score:        30,
			Details:      "private address",
		},
	)

	report.Analysis = &model.Analysis{
		Provider: "ollama",
		Model:    "llama3",
		Raw:      "Executive Summary\nTraffic to a known bad host was observed.",
		Sections: []model.AnalysisSection{
			{Label: "Executive Summary", Body: "Traffic to a known bad host was observed."},
			{Label: "Recommendations", Body: "- Block 203.0.113.7 at the firewall"},
		},
	}

	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PCAPLENS REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "/tmp/suspicious.pcap") {
			t.Error("expected output to contain input file path")
		}
		if !strings.Contains(output, "ab12cd34") {
			t.Error("expected output to contain digest")
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SEVERITY SUMMARY") {
			t.Error("expected output to contain severity summary")
		}
		if !strings.Contains(output, "HIGH:     1") {
			t.Error("expected output to contain high count")
		}
		if !strings.Contains(output, "TOTAL:    3 indicators") {
			t.Error("expected output to contain indicator total")
		}
	})

	t.Run("writes indicators grouped by severity", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "203.0.113.7") {
			t.Error("expected output to contain high severity indicator")
		}
		if !strings.Contains(output, "evil-domain.test") {
			t.Error("expected output to contain medium severity indicator")
		}
		highPos := strings.Index(output, "203.0.113.7")
		lowPos := strings.Index(output, "192.168.1.5")
		if highPos > lowPos {
			t.Error("expected high severity indicators before low severity ones")
		}
	})

	t.Run("writes analysis sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "EXECUTIVE SUMMARY") {
			t.Error("expected output to contain executive summary section")
		}
		if !strings.Contains(output, "known bad host") {
			t.Error("expected output to contain analysis text")
		}
	})

	t.Run("verbose shows indicator details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "listed on blocklist") {
			t.Error("expected verbose output to contain indicator details")
		}
	})

	t.Run("skips analysis section when absent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()
		report.Analysis = nil

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "AI ANALYSIS") {
			t.Error("expected no analysis section without analysis data")
		}
	})

	t.Run("reports error status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()
		report.ErrorMessage = "tshark is not installed"

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "ERROR - tshark is not installed") {
			t.Error("expected output to contain error status")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		report := createTestReport()

		n, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes written, buffer has %d", n, buf.Len())
		}

		var decoded model.Report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.InputFile != report.InputFile {
			t.Errorf("got input file %q, want %q", decoded.InputFile, report.InputFile)
		}
		if len(decoded.Indicators) != len(report.Indicators) {
			t.Errorf("got %d indicators, want %d", len(decoded.Indicators), len(report.Indicators))
		}
	})

	t.Run("pretty print adds indentation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("full writer wraps report with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.2.3")

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded VersionedReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Version != "1.2.3" {
			t.Errorf("got version %q, want %q", decoded.Version, "1.2.3")
		}
		if decoded.Report == nil || decoded.Report.InputFile != "/tmp/suspicious.pcap" {
			t.Error("expected wrapped report with input file")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# pcaplens Report") {
			t.Error("expected markdown H1 header")
		}
		if !strings.Contains(output, "## Severity Summary") {
			t.Error("expected severity summary section")
		}
		if !strings.Contains(output, "`203.0.113.7`") {
			t.Error("expected indicator value in table")
		}
	})

	t.Run("writes caution alert for high severity", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Error("expected caution alert for high severity indicators")
		}
	})

	t.Run("writes tip when no indicators", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := model.NewReport("/tmp/clean.log")
		report.Kind = model.KindLog

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip alert when nothing was found")
		}
		if !strings.Contains(output, "No indicators of compromise detected.") {
			t.Error("expected empty indicator notice")
		}
	})

	t.Run("writes analysis sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## AI Analysis") {
			t.Error("expected AI analysis section")
		}
		if !strings.Contains(output, "### Executive Summary") {
			t.Error("expected executive summary heading")
		}
	})
}

// TestPDFWriter tests the PDF report writer.
func TestPDFWriter(t *testing.T) {
	t.Parallel()

	t.Run("produces a PDF document", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewPDFWriter(&buf)

		n, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Fatal("expected bytes to be written")
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
			t.Error("expected output to start with PDF magic bytes")
		}
	})

	t.Run("handles empty indicator list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewPDFWriter(&buf)
		report := model.NewReport("/tmp/clean.log")
		report.Kind = model.KindLog

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
			t.Error("expected output to start with PDF magic bytes")
		}
	})

	t.Run("handles non latin characters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewPDFWriter(&buf)
		report := createTestReport()
		report.Analysis.Sections[0].Body = "Traffic to ünknown host 日本 was observed."

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// TestSanitizeLatin1 tests character sanitization for PDF rendering.
func TestSanitizeLatin1(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ascii passthrough", input: "plain text", want: "plain text"},
		{name: "latin1 preserved", input: "café", want: "café"},
		{name: "cjk replaced", input: "日本語", want: "???"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := sanitizeLatin1(tt.input); got != tt.want {
				t.Errorf("sanitizeLatin1(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestTruncateString tests string truncation for table cells.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "abc", maxLen: 10, want: "abc"},
		{name: "long string truncated", input: "abcdefghij", maxLen: 8, want: "abcde..."},
		{name: "exact length unchanged", input: "abcdefgh", maxLen: 8, want: "abcdefgh"},
		{name: "tiny max", input: "abcdef", maxLen: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
