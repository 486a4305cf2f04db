// Package model defines the core data types shared across pcaplens:
// indicators extracted from captures and logs, severity levels, and the
// analysis report assembled by the pipeline.
package model
