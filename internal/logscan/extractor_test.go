package logscan

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nao1215/pcaplens/internal/model"
)

// countByType tallies candidates per indicator type.
func countByType(candidates []model.Indicator) map[model.IndicatorType]int {
	counts := make(map[model.IndicatorType]int)
	for _, c := range candidates {
		counts[c.Type]++
	}
	return counts
}

// TestExtractorExtract tests the fixed matcher set against log text.
func TestExtractorExtract(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	t.Run("extracts one of each category", func(t *testing.T) {
		t.Parallel()

		text := "192.168.1.5 connected to evil-domain.test via http://evil-domain.test/payload"
		candidates := e.Extract(text)
		counts := countByType(candidates)

		if counts[model.IndicatorTypeIP] != 1 {
			t.Errorf("got %d ip candidates, expected 1", counts[model.IndicatorTypeIP])
		}
		if counts[model.IndicatorTypeDomain] != 1 {
			t.Errorf("got %d domain candidates, expected 1", counts[model.IndicatorTypeDomain])
		}
		if counts[model.IndicatorTypeURL] != 1 {
			t.Errorf("got %d url candidates, expected 1", counts[model.IndicatorTypeURL])
		}
	})

	t.Run("domains inside matched URLs are not re-reported", func(t *testing.T) {
		t.Parallel()

		candidates := e.Extract("fetch https://cdn.example.test/lib.js now")
		counts := countByType(candidates)

		if counts[model.IndicatorTypeURL] != 1 {
			t.Errorf("got %d url candidates, expected 1", counts[model.IndicatorTypeURL])
		}
		if counts[model.IndicatorTypeDomain] != 0 {
			t.Errorf("got %d domain candidates, expected 0", counts[model.IndicatorTypeDomain])
		}
	})

	t.Run("IP-shaped strings are never domains", func(t *testing.T) {
		t.Parallel()

		for _, c := range e.Extract("peer 10.20.30.40 resolved") {
			if c.Type == model.IndicatorTypeDomain {
				t.Errorf("IP reported as domain: %q", c.Value)
			}
		}
	})

	t.Run("out-of-range octets are rejected", func(t *testing.T) {
		t.Parallel()

		for _, c := range e.Extract("bad address 999.1.1.1 seen") {
			if c.Type == model.IndicatorTypeIP {
				t.Errorf("invalid address reported: %q", c.Value)
			}
		}
	})

	t.Run("extracts IPv6 addresses", func(t *testing.T) {
		t.Parallel()

		candidates := e.Extract("neighbor 2001:db8::1 advertised route")
		counts := countByType(candidates)
		if counts[model.IndicatorTypeIP] != 1 {
			t.Errorf("got %d ip candidates, expected 1", counts[model.IndicatorTypeIP])
		}
	})

	t.Run("no match yields empty result", func(t *testing.T) {
		t.Parallel()

		if got := e.Extract("nothing interesting here"); len(got) != 0 {
			t.Errorf("got %d candidates, expected 0", len(got))
		}
	})

	t.Run("repeated values produce repeated candidates", func(t *testing.T) {
		t.Parallel()

		// Dedup is enrichment's job; extraction reports every match.
		candidates := e.Extract("10.0.0.1 then 10.0.0.1 again")
		counts := countByType(candidates)
		if counts[model.IndicatorTypeIP] != 2 {
			t.Errorf("got %d ip candidates, expected 2", counts[model.IndicatorTypeIP])
		}
	})
}

// TestDecodeText tests tolerant log decoding.
func TestDecodeText(t *testing.T) {
	t.Parallel()

	t.Run("valid UTF-8 passes through", func(t *testing.T) {
		t.Parallel()
		in := "plain ascii and ünïcode"
		if got := DecodeText([]byte(in)); got != in {
			t.Errorf("got %q, expected %q", got, in)
		}
	})

	t.Run("latin-1 bytes decode without loss", func(t *testing.T) {
		t.Parallel()
		// 0xE9 is é in Latin-1 and invalid as a standalone UTF-8 byte.
		got := DecodeText([]byte{'c', 'a', 'f', 0xE9, ' ', '1', '0', '.', '0', '.', '0', '.', '1'})
		if !utf8.ValidString(got) {
			t.Fatal("decoded text is not valid UTF-8")
		}
		if !strings.Contains(got, "café") {
			t.Errorf("got %q, expected café", got)
		}
		if !strings.Contains(got, "10.0.0.1") {
			t.Errorf("address lost in decoding: %q", got)
		}
	})
}
