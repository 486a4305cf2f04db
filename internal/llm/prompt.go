package llm

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultSummaryBudget bounds how many characters of the extraction
// summary are embedded in the prompt. Matches the model context headroom
// left after the instruction preamble and indicator table.
const DefaultSummaryBudget = 3500

// analysisPromptTemplate is the instruction sent with every request.
// The three requested section headings are the labels ParseSections
// recognizes when splitting the response for report layout.
const analysisPromptTemplate = `As a senior network security analyst, review the following traffic data and extracted indicators. Provide a concise, expert-level assessment.

**Input Data:**
A summary of network packets or log entries follows.
` + "```" + `
{{.Summary}}
` + "```" + `

**Extracted Indicators:**
{{.IndicatorList}}

**Your Analysis:**
Produce a brief report with exactly these sections:
1. **Executive Summary:** A short overview of the observed activity and potential threat.
2. **Key Findings:** Bullet points for the most suspicious items (unusual DNS queries, connections to flagged addresses, unexpected protocols).
3. **Recommendations:** Actionable mitigation steps (addresses to block, domains to investigate, hosts to isolate).

Respond directly and professionally.`

var promptTemplate = template.Must(template.New("analysis").Parse(analysisPromptTemplate))

// promptData is the template input for BuildPrompt.
type promptData struct {
	Summary       string
	IndicatorList string
}

// BuildPrompt renders the analysis prompt from the request. The summary
// is truncated to summaryBudget characters (DefaultSummaryBudget when
// zero); the indicator list is rendered one line per indicator with its
// severity label and score.
func BuildPrompt(req Request, summaryBudget int) (string, error) {
	if summaryBudget <= 0 {
		summaryBudget = DefaultSummaryBudget
	}

	summary := req.Summary
	if len(summary) > summaryBudget {
		summary = summary[:summaryBudget]
	}

	var list strings.Builder
	if len(req.Indicators) == 0 {
		list.WriteString("None found")
	}
	for _, ind := range req.Indicators {
		fmt.Fprintf(&list, "- %s: %s (severity: %s, score: %d)\n",
			strings.ToUpper(string(ind.Type)), ind.Value, ind.Severity, ind.Score)
	}

	var sb strings.Builder
	err := promptTemplate.Execute(&sb, promptData{
		Summary:       summary,
		IndicatorList: strings.TrimRight(list.String(), "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render analysis prompt: %w", err)
	}

	return sb.String(), nil
}
