package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no input file is specified.
	ErrNoTarget = errors.New("no input specified: provide one or more capture or log files")

	// ErrInvalidMaxFileSize is returned when the size ceiling is
	// negative. Use 0 to disable the check.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidSummaryBudget is returned when the summary budget is
	// negative. Use 0 for the default budget.
	ErrInvalidSummaryBudget = errors.New("invalid summary budget: must be non-negative")

	// ErrInvalidProvider is returned for provider names other than
	// "anthropic" or "ollama".
	ErrInvalidProvider = errors.New("invalid provider: must be \"anthropic\" or \"ollama\"")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown, and --pdf is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json, --markdown, and --pdf are mutually exclusive")

	// ErrPDFRequiresOutputFile is returned when --pdf is requested
	// without --output. PDF bytes are not meaningful on a terminal.
	ErrPDFRequiresOutputFile = errors.New("pdf report requires an output file: use --output")
)
