package clientip

import (
	"fmt"
	"net/netip"
	"strings"
)

// Resolution describes the outcome of a client IP resolution.
type Resolution struct {
	// IP is the resolved address literal exactly as it appeared in the header
	// or fallback. It is empty when nothing could be resolved.
	IP string

	// Source names where IP came from: a header source name such as
	// "x_forwarded_for", or SourceFallback.
	Source string

	// Deferred reports that IP is a reserved-range candidate, returned only
	// because no header carried a public address.
	Deferred bool
}

// OK reports whether an address was resolved.
func (r Resolution) OK() bool {
	return r.IP != ""
}

// Addr parses IP. It returns an invalid netip.Addr when IP is empty or is a
// fallback value that is not an address literal.
func (r Resolution) Addr() netip.Addr {
	ip, _ := parseLiteral(r.IP)
	return ip
}

// ParseCIDRs parses CIDR strings for use with ExcludeProxyPrefixes.
func ParseCIDRs(cidrs ...string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}

// NormalizeSourceName converts a header name to the source name reported in
// Resolution.Source and metrics labels, e.g. "X-Forwarded-For" becomes
// "x_forwarded_for".
func NormalizeSourceName(headerName string) string {
	return strings.ToLower(strings.ReplaceAll(headerName, "-", "_"))
}
