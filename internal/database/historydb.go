package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pcaplens/internal/model"
)

// FileName is the name of the SQLite database file inside the data
// directory.
const FileName = "pcaplens.db"

// HistoryDB provides SQLite-based storage for analysis reports.
// It manages connection pooling and provides methods for saving and
// querying past analyses.
//
// Design decision: We store the full report as JSON but also break the
// indicators out into their own table. The JSON column preserves every
// detail for redisplay, while the indicator table makes cross-analysis
// queries (e.g., recurring addresses) possible with plain SQL.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Analyses store completed reports as JSON plus queryable metadata
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input_file TEXT NOT NULL,
		kind TEXT NOT NULL,
		digest TEXT,
		size_bytes INTEGER DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		severity_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_file ON analyses(input_file);
	CREATE INDEX IF NOT EXISTS idx_analyses_digest ON analyses(digest);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);

	-- Indicators are broken out for cross-analysis queries
	CREATE TABLE IF NOT EXISTS indicators (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id INTEGER NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		severity TEXT NOT NULL,
		score INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_indicators_analysis ON indicators(analysis_id);
	CREATE INDEX IF NOT EXISTS idx_indicators_value ON indicators(value);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport persists a completed report and its indicators.
// Returns the database ID of the stored analysis.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := map[string]int{
		"high":   report.CountBySeverity(model.SeverityHigh),
		"medium": report.CountBySeverity(model.SeverityMedium),
		"low":    report.CountBySeverity(model.SeverityLow),
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize severity summary: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO analyses (input_file, kind, digest, size_bytes, timestamp, report_json, severity_summary)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.InputFile,
		string(report.Kind),
		report.Digest,
		report.SizeBytes,
		report.DateAnalyzed.UTC().Format("2006-01-02 15:04:05"),
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get analysis ID: %w", err)
	}

	for _, ind := range report.Indicators {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO indicators (analysis_id, type, value, severity, score)
		VALUES (?, ?, ?, ?, ?)
		`, id, string(ind.Type), ind.Value, ind.Severity.String(), ind.Score)
		if err != nil {
			return 0, fmt.Errorf("failed to insert indicator: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit analysis: %w", err)
	}

	return id, nil
}

// AnalysisMetadata contains summary information about a stored analysis.
// This is used for displaying history without loading the full report.
type AnalysisMetadata struct {
	// ID is the unique identifier of the analysis in the database.
	ID int64

	// InputFile is the path of the analyzed file.
	InputFile string

	// Kind is the classification the file received.
	Kind string

	// Digest is the SHA3-256 digest of the input, hex encoded.
	Digest string

	// Timestamp is when the analysis was performed.
	Timestamp time.Time

	// SeveritySummary contains counts of indicators by severity level.
	SeveritySummary map[string]int
}

// ListAnalyses retrieves metadata for all stored analyses, newest first.
func (hdb *HistoryDB) ListAnalyses(ctx context.Context) ([]AnalysisMetadata, error) {
	query := `
	SELECT id, input_file, kind, digest, timestamp, severity_summary
	FROM analyses
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var results []AnalysisMetadata
	for rows.Next() {
		var meta AnalysisMetadata
		var digest sql.NullString
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.InputFile, &meta.Kind, &digest, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Digest = digest.String
		meta.Timestamp = parseTimestamp(timestamp)

		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.SeveritySummary); err != nil {
				meta.SeveritySummary = make(map[string]int)
			}
		} else {
			meta.SeveritySummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetAnalysis retrieves a stored report by its database ID.
// Returns nil without error when no analysis with that ID exists.
func (hdb *HistoryDB) GetAnalysis(ctx context.Context, id int64) (*model.Report, error) {
	query := `
	SELECT report_json FROM analyses
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetAnalysesByDigest retrieves all stored reports for the exact same
// input content, newest first. This correlates repeated analyses of one
// file even when it was analyzed under different paths.
func (hdb *HistoryDB) GetAnalysesByDigest(ctx context.Context, digest string) ([]*model.Report, error) {
	query := `
	SELECT report_json FROM analyses
	WHERE digest = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to get analyses by digest: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.Report
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// RecurringIndicator is an indicator value observed across multiple analyses.
type RecurringIndicator struct {
	// Type is the indicator type (ip, domain, url).
	Type string

	// Value is the indicator value.
	Value string

	// Occurrences is the number of distinct analyses it appeared in.
	Occurrences int
}

// RecurringIndicators returns indicator values that appeared in at least
// minAnalyses distinct analyses, most frequent first. Recurring values
// across unrelated captures are often the most interesting leads.
func (hdb *HistoryDB) RecurringIndicators(ctx context.Context, minAnalyses int) ([]RecurringIndicator, error) {
	if minAnalyses < 2 {
		minAnalyses = 2
	}

	query := `
	SELECT type, value, COUNT(DISTINCT analysis_id) AS occurrences
	FROM indicators
	GROUP BY type, value
	HAVING occurrences >= ?
	ORDER BY occurrences DESC, value ASC
	`

	rows, err := hdb.db.QueryContext(ctx, query, minAnalyses)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring indicators: %w", err)
	}
	defer rows.Close()

	var results []RecurringIndicator
	for rows.Next() {
		var ri RecurringIndicator
		if err := rows.Scan(&ri.Type, &ri.Value, &ri.Occurrences); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		results = append(results, ri)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
