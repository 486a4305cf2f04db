package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/nao1215/pcaplens/internal/llm"
)

// Default configuration values.
const (
	// DefaultMaxFileSize is the input size ceiling. Captures above this
	// produce unwieldy dissection output and prompt material, so the
	// classifier rejects them before any extraction.
	DefaultMaxFileSize = 15 * 1024 * 1024 // 15MiB

	// DefaultSummaryBudget bounds the extraction summary embedded in
	// the model prompt.
	DefaultSummaryBudget = llm.DefaultSummaryBudget

	// DefaultProvider is the model endpoint used when none is
	// configured. Ollama requires no credentials, which keeps the
	// out-of-the-box path free of account setup.
	DefaultProvider = llm.ProviderOllama

	// DefaultBatchSize is the number of files analyzed concurrently
	// when multiple inputs are given. Dissection is tshark-bound and
	// analysis is endpoint-bound, so modest parallelism suffices.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "pcaplens"
)

// Config holds all configuration options for pcaplens.
// It is populated from CLI flags and the optional config file, then
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Targets is the list of input files to analyze.
	Targets []string

	// MaxFileSize is the input size ceiling in bytes. Zero disables
	// the check.
	MaxFileSize int64

	// TsharkPath overrides the dissection tool executable. Empty means
	// resolve "tshark" from PATH.
	TsharkPath string

	// Provider selects the model endpoint: "anthropic" or "ollama".
	Provider string

	// Model is the model identifier. Empty selects the provider default.
	Model string

	// APIKey authenticates against the Anthropic API. The
	// ANTHROPIC_API_KEY environment variable takes precedence.
	APIKey string

	// SummaryBudget bounds the extraction summary characters embedded
	// in the model prompt.
	SummaryBudget int

	// Blocklist holds indicator values (addresses, domains) labeled
	// HIGH during enrichment. Domain entries also match subdomains.
	Blocklist []string

	// SkipAnalysis disables the model call; the report then carries
	// only the extraction summary and indicator table.
	SkipAnalysis bool

	// BatchSize is the number of inputs analyzed concurrently.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .pcaplens in the current directory and
	// then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport and PDFReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport and PDFReport.
	MarkdownReport bool

	// PDFReport enables PDF report output. Requires ReportFile since
	// a PDF byte stream is not meaningful on a terminal.
	PDFReport bool

	// ReportFile is the output file path for the report. When empty,
	// the report is written to stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to record analyses in the history
	// database.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero
// values because several defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxFileSize:   DefaultMaxFileSize,
		Provider:      DefaultProvider,
		SummaryBudget: DefaultSummaryBudget,
		BatchSize:     DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for pcaplens.
// On Linux: ~/.local/share/pcaplens
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pcaplens.
// On Linux: ~/.config/pcaplens
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid, returning a specific
// error describing the first problem found. It is called once after CLI
// parsing, before any file is touched.
func (c *Config) Validate() error {
	if c.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.SummaryBudget < 0 {
		return ErrInvalidSummaryBudget
	}

	if c.Provider != llm.ProviderAnthropic && c.Provider != llm.ProviderOllama {
		return ErrInvalidProvider
	}

	formats := 0
	for _, enabled := range []bool{c.JSONReport, c.MarkdownReport, c.PDFReport} {
		if enabled {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}
	if c.PDFReport && c.ReportFile == "" {
		return ErrPDFRequiresOutputFile
	}

	return nil
}
