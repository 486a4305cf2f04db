// Package main provides the entry point for the pcaplens CLI.
//
// pcaplens analyzes packet captures and text logs for indicators of
// compromise. It extracts network indicators, labels them by severity,
// and optionally asks an AI model for an expert assessment.
//
// Usage:
//
//	pcaplens analyze <file.pcap>
//	pcaplens analyze --pdf -o report.pdf <file.log>
//
// See --help for all available options.
package main

// main is the entry point for pcaplens.
func main() {
	Execute()
}
