package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/pcaplens/internal/capture"
	"github.com/nao1215/pcaplens/internal/config"
	"github.com/nao1215/pcaplens/internal/database"
	"github.com/nao1215/pcaplens/internal/llm"
	"github.com/nao1215/pcaplens/internal/log"
	"github.com/nao1215/pcaplens/internal/model"
	"github.com/nao1215/pcaplens/internal/pipeline"
	"github.com/nao1215/pcaplens/internal/report"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Analyze capture or log files for indicators of compromise",
		Long: `Analyze extracts indicators of compromise from packet captures and logs.

Capture files (.pcap, .pcapng) are dissected with tshark; text logs
(.log, .txt) are scanned with pattern matching. Extracted IP addresses,
domains, and URLs are deduplicated and labeled by severity, then a
bounded traffic summary is sent to the configured AI model for an
expert assessment.

Examples:
  # Analyze a single capture with the local Ollama model
  pcaplens analyze traffic.pcap

  # Analyze multiple files concurrently
  pcaplens analyze web.log dns.pcap mail.log

  # Use the Anthropic API (reads ANTHROPIC_API_KEY)
  pcaplens analyze --provider anthropic traffic.pcap

  # Skip the AI analysis and only extract indicators
  pcaplens analyze --no-analysis traffic.pcap

  # Write a PDF report
  pcaplens analyze --pdf -o report.pdf traffic.pcap

  # Use a custom configuration file
  pcaplens analyze -c myconfig.yaml traffic.pcap`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Model flags
	cmd.Flags().StringP("provider", "P", "",
		"Model provider: anthropic or ollama (default from config file, then ollama)")
	cmd.Flags().StringP("model", "M", "",
		"Model identifier (default depends on provider)")
	cmd.Flags().BoolP("no-analysis", "n", false,
		"Skip the AI analysis and report extracted indicators only")

	// Extraction flags
	cmd.Flags().Int64P("max-size", "s", config.DefaultMaxFileSize,
		"Maximum input file size in bytes (0 disables the check)")
	cmd.Flags().String("tshark", "",
		"Path to the tshark executable (default: tshark from PATH)")
	cmd.Flags().Int("summary-budget", config.DefaultSummaryBudget,
		"Maximum characters of the traffic summary sent to the model")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent analyses")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pcaplens in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --pdf)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --pdf)")
	cmd.Flags().Bool("pdf", false,
		"Output PDF report (requires --output)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnalyze(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// File values are applied first, then flags the user changed override them.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load settings from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	// Flags override file values only when explicitly set.
	if cmd.Flags().Changed("provider") {
		cfg.Provider, err = cmd.Flags().GetString("provider")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("model") {
		cfg.Model, err = cmd.Flags().GetString("model")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-size") {
		cfg.MaxFileSize, err = cmd.Flags().GetInt64("max-size")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("tshark") {
		cfg.TsharkPath, err = cmd.Flags().GetString("tshark")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("summary-budget") {
		cfg.SummaryBudget, err = cmd.Flags().GetInt("summary-budget")
		if err != nil {
			return nil, err
		}
	}

	cfg.SkipAnalysis, err = cmd.Flags().GetBool("no-analysis")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.PDFReport, err = cmd.Flags().GetBool("pdf")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (input files)
	cfg.Targets = args

	return cfg, nil
}

// runAnalyze executes the analysis.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return config.ErrNoTarget
	}

	logger.Info("starting analysis",
		"targets", cfg.Targets,
		"provider", cfg.Provider,
		"batchSize", cfg.BatchSize,
		"skipAnalysis", cfg.SkipAnalysis,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	// Create the model client once; it is shared across analyses.
	var client llm.Client
	if !cfg.SkipAnalysis {
		var err error
		client, err = llm.NewClient(cfg.Provider, cfg.Model, cfg.APIKey)
		if err != nil {
			return err
		}
		logger.Info("model client ready", "provider", client.Name(), "model", client.Model())
	}

	// Use batch processor for parallel analysis if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAnalyze(ctx, cfg, client, db, logger)
	}

	return runSequentialAnalyze(ctx, cfg, client, db, logger)
}

// createPipeline assembles the analysis pipeline from the configuration.
func createPipeline(cfg *config.Config, client llm.Client, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(logger))

	runnerOpts := []capture.RunnerOption{capture.WithRunnerLogger(logger)}
	if cfg.TsharkPath != "" {
		runnerOpts = append(runnerOpts, capture.WithBinary(cfg.TsharkPath))
	}

	p.AddSteps(
		pipeline.NewClassifyStep(cfg.MaxFileSize, pipeline.WithClassifyLogger(logger)),
		pipeline.NewDigestStep(logger),
		pipeline.NewExtractStep(
			pipeline.WithRunner(capture.NewRunner(runnerOpts...)),
			pipeline.WithSummaryBudget(cfg.SummaryBudget),
			pipeline.WithExtractLogger(logger),
		),
		pipeline.NewEnrichStep(cfg.Blocklist, logger),
	)

	if client != nil {
		p.AddStep(pipeline.NewAnalyzeStep(client, pipeline.WithAnalyzeLogger(logger)))
	}

	return p
}

// runSequentialAnalyze analyzes targets one at a time.
func runSequentialAnalyze(ctx context.Context, cfg *config.Config, client llm.Client, db *database.HistoryDB, logger *slog.Logger) error {
	var firstErr error

	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := createPipeline(cfg, client, logger)
		analysisReport := model.NewReport(target)

		fmt.Fprintf(os.Stderr, "Analyzing %s...\n", target)
		startTime := time.Now()

		if err := p.Execute(ctx, analysisReport); err != nil {
			logger.Error("analysis failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Analysis error for %s: %v\n", target, err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			elapsed := time.Since(startTime)
			fmt.Fprintf(os.Stderr, "Analysis completed in %s\n\n", elapsed.Round(time.Millisecond))
		}

		// Output whatever was collected, even for failed analyses;
		// the report carries the error status.
		if err := outputReport(cfg, analysisReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}

		if err := saveReport(ctx, db, analysisReport, logger); err != nil {
			logger.Error("failed to save report", "target", target, "error", err)
		}
	}

	return firstErr
}

// runBatchAnalyze analyzes multiple targets concurrently using BatchProcessor.
func runBatchAnalyze(ctx context.Context, cfg *config.Config, client llm.Client, db *database.HistoryDB, logger *slog.Logger) error {
	fmt.Fprintf(os.Stderr, "Starting batch analysis of %d files (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipeline(cfg, client, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(analysisReport *model.Report, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(os.Stderr, "[%d/%d] Analysis completed: %s\n", index+1, len(cfg.Targets), analysisReport.InputFile)

		if err := outputReport(cfg, analysisReport); err != nil {
			logger.Error("report failed", "target", analysisReport.InputFile, "error", err)
		}

		if err := saveReport(ctx, db, analysisReport, logger); err != nil {
			logger.Error("failed to save report", "target", analysisReport.InputFile, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nBatch analysis completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport outputs the analysis report in the requested format.
func outputReport(cfg *config.Config, analysisReport *model.Report) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Reports may contain sensitive information that should only be readable by the owner
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	case cfg.PDFReport:
		writer = report.NewPDFWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(analysisReport)
	return err
}

// saveReport saves the analysis report to the history database.
// If db is nil, this function is a no-op. Reports that failed before
// classification carry no useful content and are skipped.
func saveReport(ctx context.Context, db *database.HistoryDB, analysisReport *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	if analysisReport.Kind == "" {
		return nil
	}

	id, err := db.SaveReport(ctx, analysisReport)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	logger.Info("analysis saved to history", "target", analysisReport.InputFile, "id", id)
	return nil
}
