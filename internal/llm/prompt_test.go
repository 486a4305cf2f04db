package llm

import (
	"strings"
	"testing"

	"github.com/nao1215/pcaplens/internal/model"
)

// TestBuildPrompt tests prompt rendering.
func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	t.Run("embeds summary and indicators", func(t *testing.T) {
		t.Parallel()

		req := Request{
			Summary: "Frame 1 (eth:ethertype:ip:udp:dns) | IP: 192.168.1.5 -> 8.8.8.8",
			Indicators: []model.Indicator{
				{Type: model.IndicatorTypeDomain, Value: "evil-domain.test", Severity: model.SeverityHigh, Score: 90},
			},
		}

		prompt, err := BuildPrompt(req, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(prompt, req.Summary) {
			t.Error("prompt missing summary text")
		}
		if !strings.Contains(prompt, "DOMAIN: evil-domain.test (severity: HIGH, score: 90)") {
			t.Errorf("prompt missing indicator line:\n%s", prompt)
		}
		if !strings.Contains(prompt, "Executive Summary") {
			t.Error("prompt missing requested section headings")
		}
	})

	t.Run("truncates summary to the budget", func(t *testing.T) {
		t.Parallel()

		req := Request{Summary: strings.Repeat("x", 200)}
		prompt, err := BuildPrompt(req, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(prompt, strings.Repeat("x", 101)) {
			t.Error("summary not truncated to budget")
		}
		if !strings.Contains(prompt, strings.Repeat("x", 100)) {
			t.Error("truncated summary missing from prompt")
		}
	})

	t.Run("empty indicator list renders placeholder", func(t *testing.T) {
		t.Parallel()

		prompt, err := BuildPrompt(Request{Summary: "quiet"}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(prompt, "None found") {
			t.Error("prompt missing empty-indicator placeholder")
		}
	})
}
