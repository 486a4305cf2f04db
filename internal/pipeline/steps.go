package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/pcaplens/internal/capture"
	"github.com/nao1215/pcaplens/internal/classify"
	"github.com/nao1215/pcaplens/internal/config"
	"github.com/nao1215/pcaplens/internal/enrich"
	"github.com/nao1215/pcaplens/internal/llm"
	"github.com/nao1215/pcaplens/internal/logscan"
	"github.com/nao1215/pcaplens/internal/model"
	"golang.org/x/crypto/sha3"
)

// ErrNoContent is returned by the analysis step when extraction produced
// neither indicators nor a traffic summary worth sending to the model.
var ErrNoContent = errors.New("no indicators or traffic summary to analyze")

// ClassifyStep determines how the input file should be processed.
// It checks the file size against the configured limit and maps the
// file extension to a processing kind.
//
// Design decision: Classification is a separate step rather than part of
// extraction because it is the gate that rejects oversized or unsupported
// files before any expensive work happens.
type ClassifyStep struct {
	// classifier validates and categorizes input files.
	classifier *classify.Classifier

	// logger for structured logging.
	logger *slog.Logger
}

// ClassifyStepOption configures a ClassifyStep.
type ClassifyStepOption func(*ClassifyStep)

// WithClassifyLogger sets a custom logger for the classify step.
func WithClassifyLogger(logger *slog.Logger) ClassifyStepOption {
	return func(s *ClassifyStep) {
		s.logger = logger
	}
}

// NewClassifyStep creates a classification step with the given size limit.
// A limit of zero disables the size check.
func NewClassifyStep(maxSize int64, opts ...ClassifyStepOption) *ClassifyStep {
	s := &ClassifyStep{
		classifier: classify.NewClassifier(maxSize),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do executes the classification step.
func (s *ClassifyStep) Do(_ context.Context, report *model.Report) error {
	info, err := os.Stat(report.InputFile)
	if err != nil {
		return fmt.Errorf("failed to stat input file: %w", err)
	}

	kind, err := s.classifier.Classify(report.InputFile, info.Size())
	if err != nil {
		return err
	}

	report.Kind = kind
	report.SizeBytes = info.Size()

	s.logger.Debug("classified input file",
		"file", report.InputFile,
		"kind", kind,
		"size", info.Size(),
	)

	return nil
}

// DigestStep computes the SHA3-256 digest of the input file.
// The digest identifies the exact input in the history database, so
// repeated analyses of the same file can be correlated.
type DigestStep struct {
	logger *slog.Logger
}

// NewDigestStep creates a digest step.
func NewDigestStep(logger *slog.Logger) *DigestStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DigestStep{logger: logger}
}

// Name returns the step name.
func (s *DigestStep) Name() string {
	return "digest"
}

// Do executes the digest step.
func (s *DigestStep) Do(_ context.Context, report *model.Report) error {
	data, err := os.ReadFile(report.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	sum := sha3.Sum256(data)
	report.Digest = hex.EncodeToString(sum[:])

	s.logger.Debug("computed file digest",
		"file", report.InputFile,
		"digest", report.Digest,
	)

	return nil
}

// ExtractStep pulls indicator candidates and a bounded text summary out
// of the classified input file. Capture files are dissected with tshark,
// log files are scanned with pattern matching.
type ExtractStep struct {
	// runner invokes tshark for capture files.
	runner *capture.Runner

	// extractor scans text logs for indicator candidates.
	extractor *logscan.Extractor

	// summaryBudget caps the summary length in characters.
	summaryBudget int

	// logger for structured logging.
	logger *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithRunner sets the tshark runner used for capture files.
func WithRunner(runner *capture.Runner) ExtractStepOption {
	return func(s *ExtractStep) {
		s.runner = runner
	}
}

// WithSummaryBudget caps the extracted summary length in characters.
func WithSummaryBudget(budget int) ExtractStepOption {
	return func(s *ExtractStep) {
		s.summaryBudget = budget
	}
}

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates an extraction step.
func NewExtractStep(opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		extractor:     logscan.NewExtractor(),
		summaryBudget: config.DefaultSummaryBudget,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.runner == nil {
		s.runner = capture.NewRunner()
	}

	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extraction step.
func (s *ExtractStep) Do(ctx context.Context, report *model.Report) error {
	switch report.Kind {
	case model.KindCapture:
		return s.extractCapture(ctx, report)
	case model.KindLog:
		return s.extractLog(report)
	default:
		return fmt.Errorf("%w: %q", classify.ErrUnsupportedFileType, report.Kind)
	}
}

// extractCapture dissects the capture with tshark and reduces the packet
// list to a summary and indicator candidates.
func (s *ExtractStep) extractCapture(ctx context.Context, report *model.Report) error {
	if !s.runner.Available() {
		return capture.ErrToolUnavailable
	}

	packets, err := s.runner.Run(ctx, report.InputFile)
	if err != nil {
		return err
	}

	summary, candidates := capture.Reduce(packets)
	report.Summary = summary.Text(s.summaryBudget)
	report.AddIndicators(candidates...)

	s.logger.Debug("extracted capture",
		"file", report.InputFile,
		"packets", len(packets),
		"candidates", len(candidates),
	)

	return nil
}

// extractLog decodes the log text and scans it for indicator candidates.
func (s *ExtractStep) extractLog(report *model.Report) error {
	data, err := os.ReadFile(report.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	text := logscan.DecodeText(data)
	candidates := s.extractor.Extract(text)

	if len(text) > s.summaryBudget && s.summaryBudget > 0 {
		text = text[:s.summaryBudget]
	}
	report.Summary = text
	report.AddIndicators(candidates...)

	s.logger.Debug("extracted log",
		"file", report.InputFile,
		"candidates", len(candidates),
	)

	return nil
}

// EnrichStep normalizes, deduplicates, and severity-labels the raw
// indicator candidates collected during extraction.
type EnrichStep struct {
	// enricher labels indicators against the configured blocklist.
	enricher *enrich.Enricher

	// logger for structured logging.
	logger *slog.Logger
}

// NewEnrichStep creates an enrichment step with the given blocklist.
func NewEnrichStep(blocklist []string, logger *slog.Logger) *EnrichStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichStep{
		enricher: enrich.NewEnricher(blocklist),
		logger:   logger,
	}
}

// Name returns the step name.
func (s *EnrichStep) Name() string {
	return "enrich"
}

// Do executes the enrichment step.
func (s *EnrichStep) Do(_ context.Context, report *model.Report) error {
	before := len(report.Indicators)
	report.Indicators = s.enricher.Normalize(report.Indicators)

	s.logger.Debug("enriched indicators",
		"file", report.InputFile,
		"candidates", before,
		"indicators", len(report.Indicators),
	)

	return nil
}

// AnalyzeStep sends the extracted summary and indicators to the
// configured model endpoint and attaches the parsed response.
//
// Design decision: The step holds an llm.Client interface rather than a
// provider name so the pipeline never needs to know which backend is in
// use, and tests can inject a stub client.
type AnalyzeStep struct {
	// client is the model endpoint to query.
	client llm.Client

	// logger for structured logging.
	logger *slog.Logger
}

// AnalyzeStepOption configures an AnalyzeStep.
type AnalyzeStepOption func(*AnalyzeStep)

// WithAnalyzeLogger sets a custom logger for the analyze step.
func WithAnalyzeLogger(logger *slog.Logger) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.logger = logger
	}
}

// NewAnalyzeStep creates an analysis step backed by the given client.
func NewAnalyzeStep(client llm.Client, opts ...AnalyzeStepOption) *AnalyzeStep {
	s := &AnalyzeStep{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analysis step.
func (s *AnalyzeStep) Do(ctx context.Context, report *model.Report) error {
	if !report.HasIndicators() && report.Summary == "" {
		return ErrNoContent
	}

	raw, err := s.client.Analyze(ctx, llm.Request{
		Summary:    report.Summary,
		Indicators: report.Indicators,
	})
	if err != nil {
		return err
	}

	report.Analysis = &model.Analysis{
		Provider: s.client.Name(),
		Model:    s.client.Model(),
		Raw:      raw,
		Sections: llm.ParseSections(raw),
	}

	s.logger.Debug("analysis complete",
		"file", report.InputFile,
		"provider", s.client.Name(),
		"sections", len(report.Analysis.Sections),
	)

	return nil
}
