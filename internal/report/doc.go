// Package report renders analysis results in PDF, Markdown, JSON, and
// plain-text formats. All writers share the same Writer interface and
// consume the report assembled by the pipeline.
package report
