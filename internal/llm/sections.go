package llm

import (
	"strings"

	"github.com/nao1215/pcaplens/internal/model"
)

// sectionLabels are the headings ParseSections recognizes, matched
// case-insensitively against heading-like lines in the response.
var sectionLabels = []string{
	"Executive Summary",
	"Key Findings",
	"Recommendations",
}

// ParseSections splits a model response into labeled blocks for report
// layout. Lines that look like headings (markdown heading or bold text
// containing a known label) start a new section; text before the first
// recognized heading, or the whole response when no heading is found,
// becomes a single "Analysis" section.
//
// The split is purely presentational: no meaning is imposed on the
// prose, and the raw text is always preserved alongside the sections.
func ParseSections(raw string) []model.AnalysisSection {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var sections []model.AnalysisSection
	current := model.AnalysisSection{Label: "Analysis"}
	var body strings.Builder

	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if text == "" {
			return
		}
		current.Body = text
		sections = append(sections, current)
	}

	for line := range strings.Lines(raw) {
		if label, ok := headingLabel(line); ok {
			flush()
			current = model.AnalysisSection{Label: label}
			continue
		}
		body.WriteString(line)
	}
	flush()

	return sections
}

// headingLabel reports whether the line is a heading for one of the
// known section labels, returning the canonical label.
func headingLabel(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "#*-1234567890. ")
	trimmed = strings.Trim(trimmed, "*: ")
	if trimmed == "" {
		return "", false
	}

	for _, label := range sectionLabels {
		if strings.EqualFold(trimmed, label) {
			return label, true
		}
	}
	return "", false
}
