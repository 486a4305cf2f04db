package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/pcaplens/internal/model"
)

// setupTestDB creates a HistoryDB in a temporary directory.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = hdb.Close()
	})
	return hdb
}

// sampleReport builds a report with indicators for storage tests.
func sampleReport(file, digest string) *model.Report {
	report := model.NewReport(file)
	report.Kind = model.KindCapture
	report.SizeBytes = 1024
	report.Digest = digest
	report.DateAnalyzed = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report.Summary = "Frame 1 (tcp) at 0.0 | IP: 10.0.0.1 -> 203.0.113.7"
	report.AddIndicators(
		model.Indicator{
			Type:         model.IndicatorTypeIP,
			Value:        "203.0.113.7",
			Severity:     model.SeverityHigh,
			SeverityText: "HIGH",
			Score:        95,
		},
		model.Indicator{
			Type:         model.IndicatorTypeDomain,
			Value:        "evil-domain.test",
			Severity:     model.SeverityMedium,
			SeverityText: "MEDIUM",
			Score:        55,
		},
	)
	return report
}

// TestOpen tests database creation and opening.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database with default options", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		hdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer hdb.Close()

		if hdb.dbPath != filepath.Join(dir, "pcaplens.db") {
			t.Errorf("unexpected database path: %s", hdb.dbPath)
		}
	})

	t.Run("fails when database missing and creation disabled", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		hdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := hdb.SaveReport(context.Background(), sampleReport("/tmp/a.pcap", "aa")); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		if err := hdb.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer reopened.Close()

		analyses, err := reopened.ListAnalyses(context.Background())
		if err != nil {
			t.Fatalf("failed to list analyses: %v", err)
		}
		if len(analyses) != 1 {
			t.Errorf("got %d analyses, want 1", len(analyses))
		}
	})
}

// TestDefaultOptions tests the default option values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to default to true")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to default to true")
	}
}

// TestSaveAndGetAnalysis tests round-tripping reports through storage.
func TestSaveAndGetAnalysis(t *testing.T) {
	t.Parallel()

	t.Run("round trips a report", func(t *testing.T) {
		t.Parallel()

		hdb := setupTestDB(t)
		ctx := context.Background()

		id, err := hdb.SaveReport(ctx, sampleReport("/tmp/traffic.pcap", "deadbeef"))
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		if id == 0 {
			t.Fatal("expected non-zero analysis ID")
		}

		got, err := hdb.GetAnalysis(ctx, id)
		if err != nil {
			t.Fatalf("failed to get analysis: %v", err)
		}
		if got == nil {
			t.Fatal("expected stored report")
		}
		if got.InputFile != "/tmp/traffic.pcap" {
			t.Errorf("got input file %q", got.InputFile)
		}
		if got.Digest != "deadbeef" {
			t.Errorf("got digest %q", got.Digest)
		}
		if len(got.Indicators) != 2 {
			t.Errorf("got %d indicators, want 2", len(got.Indicators))
		}
		if got.Indicators[0].Severity != model.SeverityHigh {
			t.Errorf("got severity %v, want high", got.Indicators[0].Severity)
		}
	})

	t.Run("unknown ID returns nil without error", func(t *testing.T) {
		t.Parallel()

		hdb := setupTestDB(t)

		got, err := hdb.GetAnalysis(context.Background(), 9999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("expected nil report for unknown ID")
		}
	})
}

// TestListAnalyses tests history listing.
func TestListAnalyses(t *testing.T) {
	t.Parallel()

	t.Run("lists newest first with severity summary", func(t *testing.T) {
		t.Parallel()

		hdb := setupTestDB(t)
		ctx := context.Background()

		older := sampleReport("/tmp/old.pcap", "aa")
		older.DateAnalyzed = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := sampleReport("/tmp/new.pcap", "bb")
		newer.DateAnalyzed = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		if _, err := hdb.SaveReport(ctx, older); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if _, err := hdb.SaveReport(ctx, newer); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		analyses, err := hdb.ListAnalyses(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}

		if len(analyses) != 2 {
			t.Fatalf("got %d analyses, want 2", len(analyses))
		}
		if analyses[0].InputFile != "/tmp/new.pcap" {
			t.Errorf("expected newest first, got %q", analyses[0].InputFile)
		}
		if analyses[0].SeveritySummary["high"] != 1 {
			t.Errorf("got high count %d, want 1", analyses[0].SeveritySummary["high"])
		}
		if analyses[0].Kind != "capture" {
			t.Errorf("got kind %q, want capture", analyses[0].Kind)
		}
	})

	t.Run("empty database lists nothing", func(t *testing.T) {
		t.Parallel()

		hdb := setupTestDB(t)

		analyses, err := hdb.ListAnalyses(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(analyses) != 0 {
			t.Errorf("got %d analyses, want 0", len(analyses))
		}
	})
}

// TestGetAnalysesByDigest tests correlation by content digest.
func TestGetAnalysesByDigest(t *testing.T) {
	t.Parallel()

	hdb := setupTestDB(t)
	ctx := context.Background()

	if _, err := hdb.SaveReport(ctx, sampleReport("/tmp/copy1.pcap", "samedigest")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if _, err := hdb.SaveReport(ctx, sampleReport("/tmp/copy2.pcap", "samedigest")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if _, err := hdb.SaveReport(ctx, sampleReport("/tmp/other.pcap", "otherdigest")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	reports, err := hdb.GetAnalysesByDigest(ctx, "samedigest")
	if err != nil {
		t.Fatalf("failed to query by digest: %v", err)
	}
	if len(reports) != 2 {
		t.Errorf("got %d reports, want 2", len(reports))
	}
}

// TestRecurringIndicators tests cross-analysis indicator queries.
func TestRecurringIndicators(t *testing.T) {
	t.Parallel()

	hdb := setupTestDB(t)
	ctx := context.Background()

	// 203.0.113.7 and evil-domain.test appear in both reports
	if _, err := hdb.SaveReport(ctx, sampleReport("/tmp/a.pcap", "aa")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if _, err := hdb.SaveReport(ctx, sampleReport("/tmp/b.pcap", "bb")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	unique := model.NewReport("/tmp/c.log")
	unique.Kind = model.KindLog
	unique.AddIndicators(model.Indicator{
		Type:     model.IndicatorTypeIP,
		Value:    "198.51.100.1",
		Severity: model.SeverityMedium,
		Score:    60,
	})
	if _, err := hdb.SaveReport(ctx, unique); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	recurring, err := hdb.RecurringIndicators(ctx, 2)
	if err != nil {
		t.Fatalf("failed to query recurring indicators: %v", err)
	}

	if len(recurring) != 2 {
		t.Fatalf("got %d recurring indicators, want 2", len(recurring))
	}
	for _, ri := range recurring {
		if ri.Occurrences != 2 {
			t.Errorf("%s: got %d occurrences, want 2", ri.Value, ri.Occurrences)
		}
		if ri.Value == "198.51.100.1" {
			t.Error("unique indicator should not be reported as recurring")
		}
	}
}
