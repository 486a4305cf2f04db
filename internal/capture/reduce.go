package capture

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"github.com/nao1215/pcaplens/internal/model"
)

// topTalkerLimit caps how many source addresses the summary head lists.
const topTalkerLimit = 5

// Summary is the bounded textual reduction of a dissected capture.
type Summary struct {
	// Lines holds one summary line per processable packet.
	Lines []string

	// ProtocolCounts maps the highest dissected protocol of each frame
	// to the number of frames that carried it.
	ProtocolCounts map[string]int

	// TopTalkers lists the most frequent source addresses in
	// descending order of packet count.
	TopTalkers []Talker
}

// Talker is a source address and its packet count.
type Talker struct {
	Address string
	Packets int
}

// Text renders the summary as bounded prose for the model prompt and
// report body. The head carries protocol counts and top talkers; frame
// lines follow until maxChars is reached. A maxChars of zero means
// unbounded. An empty capture renders a fixed "no processable packets"
// sentence rather than an empty string.
func (s *Summary) Text(maxChars int) string {
	if len(s.Lines) == 0 {
		return "No processable packets with IP layers were found in the capture."
	}

	var sb strings.Builder

	if len(s.ProtocolCounts) > 0 {
		names := make([]string, 0, len(s.ProtocolCounts))
		for name := range s.ProtocolCounts {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, s.ProtocolCounts[name]))
		}
		sb.WriteString("Protocol counts: ")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}

	if len(s.TopTalkers) > 0 {
		parts := make([]string, 0, len(s.TopTalkers))
		for _, talker := range s.TopTalkers {
			parts = append(parts, fmt.Sprintf("%s (%d packets)", talker.Address, talker.Packets))
		}
		sb.WriteString("Top talkers: ")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n\n")
	}

	for _, line := range s.Lines {
		if maxChars > 0 && sb.Len()+len(line)+1 > maxChars {
			break
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Reduce collapses dissected packets into a Summary and a list of
// indicator candidates. It is a pure function of the packet records:
// no subprocess, no network, no file access. Candidates are not yet
// deduplicated or labeled; that happens during enrichment.
//
// Indicators come from known fields only: ip.src/ip.dst (and the IPv6
// equivalents), dns.qry.name, and http.host. HTTP hosts that are
// IP-shaped are reported as addresses, not domains.
func Reduce(packets []Packet) (*Summary, []model.Indicator) {
	summary := &Summary{
		ProtocolCounts: make(map[string]int),
	}

	var candidates []model.Indicator
	talkers := make(map[string]int)

	for _, packet := range packets {
		layers := packet.Source.Layers

		var parts []string

		frameNum := layers.Frame.Field("frame.number")
		protocols := layers.Frame.Field("frame.protocols")
		timestamp := layers.Frame.Field("frame.time")
		if timestamp == "" {
			timestamp = "no timestamp"
		}
		parts = append(parts, fmt.Sprintf("Frame %s (%s) at %s", frameNum, protocols, timestamp))

		if top := topProtocol(protocols); top != "" {
			summary.ProtocolCounts[top]++
		}

		src, dst := packetEndpoints(layers)
		if src != "" && dst != "" {
			talkers[src]++
			candidates = append(candidates,
				model.Indicator{Type: model.IndicatorTypeIP, Value: src},
				model.Indicator{Type: model.IndicatorTypeIP, Value: dst},
			)
			parts = append(parts, fmt.Sprintf("IP: %s -> %s", src, dst))
		}

		if query := layers.DNS.Field("dns.qry.name"); query != "" {
			candidates = append(candidates, domainOrIP(query))
			parts = append(parts, "DNS Query: "+query)
		}
		for _, answer := range layers.DNS.FieldAll("dns.a") {
			candidates = append(candidates, model.Indicator{Type: model.IndicatorTypeIP, Value: answer})
			parts = append(parts, "DNS Answer: "+answer)
		}

		if host := layers.HTTP.Field("http.host"); host != "" {
			candidates = append(candidates, domainOrIP(host))
			parts = append(parts, "HTTP Host: "+host)
		}
		if uri := layers.HTTP.Field("http.request.uri"); uri != "" {
			parts = append(parts, "HTTP URI: "+uri)
		}

		// Frames without an IP layer or application data carry no
		// indicator value; skip their summary line to keep the text
		// focused on addressable traffic.
		if len(parts) == 1 && src == "" {
			continue
		}

		summary.Lines = append(summary.Lines, strings.Join(parts, " | "))
	}

	summary.TopTalkers = rankTalkers(talkers, topTalkerLimit)

	return summary, candidates
}

// packetEndpoints returns the source and destination address of the
// packet's network layer, preferring IPv4 over IPv6 when both decode.
func packetEndpoints(layers Layers) (src, dst string) {
	if src = layers.IP.Field("ip.src"); src != "" {
		return src, layers.IP.Field("ip.dst")
	}
	if src = layers.IPv6.Field("ipv6.src"); src != "" {
		return src, layers.IPv6.Field("ipv6.dst")
	}
	return "", ""
}

// domainOrIP classifies a host field value: IP-shaped values become
// address indicators, everything else a domain indicator.
func domainOrIP(value string) model.Indicator {
	host := value
	// HTTP hosts may carry a port suffix.
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.Contains(host, "]") {
		if _, err := netip.ParseAddr(host[:i]); err == nil {
			host = host[:i]
		}
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return model.Indicator{Type: model.IndicatorTypeIP, Value: host}
	}
	return model.Indicator{Type: model.IndicatorTypeDomain, Value: value}
}

// topProtocol returns the last element of a frame.protocols chain,
// e.g. "eth:ethertype:ip:tcp:http" yields "http".
func topProtocol(protocols string) string {
	if protocols == "" {
		return ""
	}
	parts := strings.Split(protocols, ":")
	return parts[len(parts)-1]
}

// rankTalkers sorts source addresses by packet count descending,
// breaking ties by address for deterministic output.
func rankTalkers(counts map[string]int, limit int) []Talker {
	ranked := make([]Talker, 0, len(counts))
	for addr, n := range counts {
		ranked = append(ranked, Talker{Address: addr, Packets: n})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Packets != ranked[j].Packets {
			return ranked[i].Packets > ranked[j].Packets
		}
		return ranked[i].Address < ranked[j].Address
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
