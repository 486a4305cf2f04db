package model

import "testing"

// TestSeverityString tests human-readable severity output.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityUnknown, "UNKNOWN"},
		{Severity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

// TestSeverityScore tests that scores are deterministic per (severity, type).
func TestSeverityScore(t *testing.T) {
	t.Parallel()

	t.Run("high severity scores order by type", func(t *testing.T) {
		t.Parallel()
		if SeverityHigh.Score(IndicatorTypeIP) != 95 {
			t.Errorf("got %d, expected 95", SeverityHigh.Score(IndicatorTypeIP))
		}
		if SeverityHigh.Score(IndicatorTypeURL) != 85 {
			t.Errorf("got %d, expected 85", SeverityHigh.Score(IndicatorTypeURL))
		}
	})

	t.Run("unknown severity scores zero", func(t *testing.T) {
		t.Parallel()
		if got := SeverityUnknown.Score(IndicatorTypeIP); got != 0 {
			t.Errorf("got %d, expected 0", got)
		}
	})

	t.Run("score is stable across calls", func(t *testing.T) {
		t.Parallel()
		first := SeverityMedium.Score(IndicatorTypeDomain)
		for range 10 {
			if got := SeverityMedium.Score(IndicatorTypeDomain); got != first {
				t.Fatalf("score changed between calls: %d != %d", got, first)
			}
		}
	})
}
