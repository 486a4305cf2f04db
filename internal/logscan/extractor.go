// Package logscan extracts indicator candidates from text logs by
// applying a fixed, ordered set of pattern matchers. There is no stateful
// parsing and no line-oriented grammar: the whole text is scanned, and
// "no match" is the only failure mode.
package logscan

import (
	"net/netip"
	"regexp"

	"github.com/nao1215/pcaplens/internal/model"
)

// Matcher patterns, applied in the fixed order IPv4, IPv6, URL, domain.
// URL spans are recorded so that domains and addresses embedded in an
// already-matched URL are not reported a second time; standalone
// occurrences of the same value still produce their own candidate.
var (
	ipv4Pattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

	// Conservative IPv6 shape; candidates are validated with
	// netip.ParseAddr before they become indicators.
	ipv6Pattern = regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){2,7}[0-9a-fA-F:]+\b`)

	urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

	domainPattern = regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,6}\b`)
)

// Extractor collects indicator candidates from raw log text.
type Extractor struct{}

// NewExtractor creates a log text Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// span is a half-open [start, end) byte range of a match.
type span struct {
	start, end int
}

// overlaps reports whether the range intersects any recorded span.
func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// Extract returns all non-overlapping matches in the text as indicator
// candidates. It is a pure function of the text; candidates are not
// deduplicated here (enrichment owns dedup and labeling).
func (e *Extractor) Extract(text string) []model.Indicator {
	var candidates []model.Indicator

	// URLs are located first because their spans suppress the domain
	// and address matchers inside them.
	urlSpans := make([]span, 0)
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		urlSpans = append(urlSpans, span{loc[0], loc[1]})
	}

	for _, loc := range ipv4Pattern.FindAllStringIndex(text, -1) {
		if overlaps(urlSpans, loc[0], loc[1]) {
			continue
		}
		value := text[loc[0]:loc[1]]
		// The shape pattern admits octets above 255; validate before
		// reporting so "999.1.1.1" never becomes an indicator.
		if addr, err := netip.ParseAddr(value); err == nil && addr.Is4() {
			candidates = append(candidates, model.Indicator{Type: model.IndicatorTypeIP, Value: value})
		}
	}

	for _, loc := range ipv6Pattern.FindAllStringIndex(text, -1) {
		if overlaps(urlSpans, loc[0], loc[1]) {
			continue
		}
		value := text[loc[0]:loc[1]]
		if addr, err := netip.ParseAddr(value); err == nil && addr.Is6() {
			candidates = append(candidates, model.Indicator{Type: model.IndicatorTypeIP, Value: value})
		}
	}

	for _, s := range urlSpans {
		candidates = append(candidates, model.Indicator{Type: model.IndicatorTypeURL, Value: text[s.start:s.end]})
	}

	for _, loc := range domainPattern.FindAllStringIndex(text, -1) {
		if overlaps(urlSpans, loc[0], loc[1]) {
			continue
		}
		value := text[loc[0]:loc[1]]
		// IP-shaped strings match the domain pattern too; they belong
		// to the address matchers above.
		if _, err := netip.ParseAddr(value); err == nil {
			continue
		}
		candidates = append(candidates, model.Indicator{Type: model.IndicatorTypeDomain, Value: value})
	}

	return candidates
}
