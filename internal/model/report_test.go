package model

import (
	"testing"
	"time"
)

// TestNewReport tests the Report constructor.
func TestNewReport(t *testing.T) {
	t.Parallel()

	report := NewReport("capture.pcap")

	t.Run("sets input file", func(t *testing.T) {
		t.Parallel()
		if report.InputFile != "capture.pcap" {
			t.Errorf("got %q, expected %q", report.InputFile, "capture.pcap")
		}
	})

	t.Run("sets analysis timestamp", func(t *testing.T) {
		t.Parallel()
		if report.DateAnalyzed.IsZero() {
			t.Error("expected DateAnalyzed to be set")
		}
		if time.Since(report.DateAnalyzed) > time.Second {
			t.Error("DateAnalyzed is too old")
		}
	})
}

// TestReportCountBySeverity tests severity counting.
func TestReportCountBySeverity(t *testing.T) {
	t.Parallel()

	report := NewReport("access.log")
	report.AddIndicators(
		Indicator{Type: IndicatorTypeIP, Value: "203.0.113.9", Severity: SeverityHigh},
		Indicator{Type: IndicatorTypeIP, Value: "192.168.1.5", Severity: SeverityLow},
		Indicator{Type: IndicatorTypeDomain, Value: "example.test", Severity: SeverityMedium},
		Indicator{Type: IndicatorTypeURL, Value: "http://example.test/", Severity: SeverityMedium},
	)

	tests := []struct {
		name     string
		severity Severity
		want     int
	}{
		{"high", SeverityHigh, 1},
		{"medium", SeverityMedium, 2},
		{"low", SeverityLow, 1},
		{"unknown", SeverityUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := report.CountBySeverity(tt.severity); got != tt.want {
				t.Errorf("got %d, expected %d", got, tt.want)
			}
		})
	}
}

// TestReportIndicatorsBySeverity tests severity filtering.
func TestReportIndicatorsBySeverity(t *testing.T) {
	t.Parallel()

	report := NewReport("access.log")
	report.AddIndicators(
		Indicator{Type: IndicatorTypeDomain, Value: "a.test", Severity: SeverityMedium},
		Indicator{Type: IndicatorTypeDomain, Value: "b.test", Severity: SeverityHigh},
		Indicator{Type: IndicatorTypeDomain, Value: "c.test", Severity: SeverityMedium},
	)

	got := report.IndicatorsBySeverity(SeverityMedium)
	if len(got) != 2 {
		t.Fatalf("got %d indicators, expected 2", len(got))
	}
	if got[0].Value != "a.test" || got[1].Value != "c.test" {
		t.Errorf("filter did not preserve order: %v", got)
	}
}

// TestReportHasIndicators tests the indicator presence check.
func TestReportHasIndicators(t *testing.T) {
	t.Parallel()

	report := NewReport("empty.log")
	if report.HasIndicators() {
		t.Error("expected no indicators on a fresh report")
	}

	report.AddIndicators(Indicator{Type: IndicatorTypeIP, Value: "10.0.0.1"})
	if !report.HasIndicators() {
		t.Error("expected indicators after AddIndicators")
	}
}
