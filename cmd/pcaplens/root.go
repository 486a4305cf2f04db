// Package main provides the entry point for the pcaplens CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pcaplens.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pcaplens",
		Short: "AI-assisted triage for packet captures and logs",
		Long: `pcaplens analyzes packet capture files (.pcap, .pcapng) and text logs
(.log, .txt) for indicators of compromise. It extracts IP addresses,
domains, and URLs, labels them by severity, and optionally sends a
bounded traffic summary to an AI model for an expert assessment.

Capture files require the tshark dissector to be installed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
