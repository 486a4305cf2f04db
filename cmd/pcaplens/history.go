package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/nao1215/pcaplens/internal/config"
	"github.com/nao1215/pcaplens/internal/database"
	"github.com/nao1215/pcaplens/internal/log"
	"github.com/nao1215/pcaplens/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command with its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past analyses stored in the local database",
		Long: `History lists and inspects analyses recorded in the local SQLite
database. Every analyze run is saved automatically; this command lets
you review them later, re-render a report, or spot indicators that keep
showing up across different inputs.

Examples:
  # List all stored analyses
  pcaplens history

  # Show the full report for analysis 3
  pcaplens history show 3

  # Show indicators seen in two or more analyses
  pcaplens history recurring`,
		RunE: runHistoryListCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the list as JSON")
	cmd.Flags().String("digest", "", "Only list analyses of the input with this SHA3-256 digest")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryRecurringCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full report for a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Output the report as JSON")
	return cmd
}

func newHistoryRecurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "List indicators observed across multiple analyses",
		Long: `Recurring lists indicators that appeared in at least --min separate
analyses. An address or domain that keeps reappearing across unrelated
captures is a stronger signal than a single sighting.`,
		Args: cobra.NoArgs,
		RunE: runHistoryRecurringCmd,
	}
	cmd.Flags().Int("min", 2, "Minimum number of analyses an indicator must appear in")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

// openHistoryDB opens the history database in the XDG data directory.
// The database is not created here; a missing database simply means no
// analyses have been run yet.
func openHistoryDB(cmd *cobra.Command) (*database.HistoryDB, error) {
	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	dbDir := config.XDGDataDir()
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("no analysis history found in %s (run 'pcaplens analyze' first): %w",
			filepath.Join(dbDir, database.FileName), err)
	}
	return db, nil
}

// runHistoryListCmd lists stored analyses as a table or JSON.
func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	digest, err := cmd.Flags().GetString("digest")
	if err != nil {
		return err
	}
	if digest != "" {
		return listByDigest(cmd, db, digest)
	}

	analyses, err := db.ListAnalyses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(analyses)
	}

	if len(analyses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No analyses recorded yet. Run 'pcaplens analyze <file>' first.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tANALYZED AT\tKIND\tHIGH\tMEDIUM\tLOW\tFILE")
	for _, a := range analyses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			a.ID,
			a.Timestamp.Format("2006-01-02 15:04:05"),
			a.Kind,
			a.SeveritySummary["high"],
			a.SeveritySummary["medium"],
			a.SeveritySummary["low"],
			a.InputFile,
		)
	}
	return w.Flush()
}

// listByDigest prints every stored report for the input with the given digest.
func listByDigest(cmd *cobra.Command, db *database.HistoryDB, digest string) error {
	reports, err := db.GetAnalysesByDigest(cmd.Context(), digest)
	if err != nil {
		return fmt.Errorf("failed to query analyses by digest: %w", err)
	}
	if len(reports) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No analyses found for digest %s\n", digest)
		return nil
	}

	writer := report.NewSimpleWriter(cmd.OutOrStdout())
	for _, r := range reports {
		if _, err := writer.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// runHistoryShowCmd re-renders the report of a single stored analysis.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid analysis ID %q: %w", args[0], err)
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	analysisReport, err := db.GetAnalysis(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load analysis: %w", err)
	}
	if analysisReport == nil {
		return fmt.Errorf("analysis %d not found", id)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	var writer report.Writer
	if asJSON {
		writer = report.NewFullJSONWriter(cmd.OutOrStdout(), getVersion(), report.WithPrettyPrint())
	} else {
		writer = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(getVerboseFlag(cmd)))
	}
	_, err = writer.Write(analysisReport)
	return err
}

// runHistoryRecurringCmd lists indicators seen in multiple analyses.
func runHistoryRecurringCmd(cmd *cobra.Command, _ []string) error {
	min, err := cmd.Flags().GetInt("min")
	if err != nil {
		return err
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	indicators, err := db.RecurringIndicators(cmd.Context(), min)
	if err != nil {
		return fmt.Errorf("failed to query recurring indicators: %w", err)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(indicators)
	}

	if len(indicators) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recurring indicators found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tVALUE\tANALYSES")
	for _, ind := range indicators {
		fmt.Fprintf(w, "%s\t%s\t%d\n", ind.Type, ind.Value, ind.Occurrences)
	}
	return w.Flush()
}
