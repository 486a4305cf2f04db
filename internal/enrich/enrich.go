// Package enrich normalizes, deduplicates, and severity-labels indicator
// candidates collected by the extractors. This is the one designed
// algorithm in pcaplens: a single linear pass with a set-based dedup key,
// preserving first-seen order.
package enrich

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/nao1215/pcaplens/internal/model"
	"golang.org/x/net/idna"
)

// Enricher applies the static severity policy to indicator candidates.
//
// The policy is a placeholder, not a threat-intelligence classifier:
// blocklist membership yields HIGH, private and loopback address space
// yields LOW, and everything else falls through to MEDIUM. Every
// indicator receives exactly one label, and the same input always
// produces the same output.
type Enricher struct {
	// blocklist holds lowercased entries. A domain entry also matches
	// its subdomains; an address entry matches exactly.
	blocklist map[string]bool
}

// NewEnricher creates an Enricher with the given blocklist entries.
func NewEnricher(blocklist []string) *Enricher {
	set := make(map[string]bool, len(blocklist))
	for _, entry := range blocklist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			set[entry] = true
		}
	}
	return &Enricher{blocklist: set}
}

// Normalize merges candidates into an ordered, deduplicated, labeled
// indicator list. Values are canonicalized first (domains lowercased and
// converted to ASCII form) so visually identical values collapse, then
// duplicates are removed by (type, value), then each survivor receives
// its severity label, score, and rationale.
//
// The operation is idempotent: normalizing an already-normalized list
// yields the same list.
func (e *Enricher) Normalize(candidates []model.Indicator) []model.Indicator {
	seen := make(map[string]bool, len(candidates))
	result := make([]model.Indicator, 0, len(candidates))

	for _, candidate := range candidates {
		candidate.Value = canonicalValue(candidate.Type, candidate.Value)
		if candidate.Value == "" {
			continue
		}

		key := candidate.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		candidate.Severity, candidate.Details = e.label(candidate)
		candidate.SeverityText = candidate.Severity.String()
		candidate.Score = candidate.Severity.Score(candidate.Type)

		result = append(result, candidate)
	}

	return result
}

// label assigns the severity and rationale for a single indicator.
func (e *Enricher) label(ind model.Indicator) (model.Severity, string) {
	switch ind.Type {
	case model.IndicatorTypeIP:
		if e.blocklist[ind.Value] {
			return model.SeverityHigh, "address matches a blocklist entry"
		}
		if addr, err := netip.ParseAddr(ind.Value); err == nil {
			if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() {
				return model.SeverityLow, "address is in private or loopback range"
			}
		}
		return model.SeverityMedium, "public address with no blocklist match"

	case model.IndicatorTypeDomain:
		if e.domainBlocked(ind.Value) {
			return model.SeverityHigh, "domain matches a blocklist entry"
		}
		return model.SeverityMedium, "domain with no blocklist match"

	case model.IndicatorTypeURL:
		if host := urlHost(ind.Value); host != "" {
			if e.blocklist[host] || e.domainBlocked(host) {
				return model.SeverityHigh, "URL host matches a blocklist entry"
			}
		}
		return model.SeverityMedium, "URL with no blocklist match"
	}

	return model.SeverityMedium, "unrecognized indicator type"
}

// domainBlocked reports whether the domain or any parent domain is on
// the blocklist, so "a.evil.test" matches the entry "evil.test".
func (e *Enricher) domainBlocked(domain string) bool {
	if e.blocklist[domain] {
		return true
	}
	for i := strings.Index(domain, "."); i > 0; i = strings.Index(domain, ".") {
		domain = domain[i+1:]
		if e.blocklist[domain] {
			return true
		}
	}
	return false
}

// canonicalValue normalizes an indicator value for deduplication.
// Domains are lowercased and converted to punycode ASCII so Unicode
// lookalikes collapse with their ASCII form; addresses and URLs are
// kept as matched.
func canonicalValue(t model.IndicatorType, value string) string {
	value = strings.TrimSpace(value)
	if t != model.IndicatorTypeDomain {
		return value
	}

	value = strings.ToLower(strings.TrimSuffix(value, "."))
	ascii, err := idna.Lookup.ToASCII(value)
	if err != nil {
		// Keep the lowercased original; a value the IDNA profile
		// rejects is still worth reporting as seen.
		return value
	}
	return ascii
}

// urlHost extracts the lowercased hostname from a URL value.
func urlHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
