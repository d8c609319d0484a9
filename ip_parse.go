package clientip

import (
	"net"
	"net/netip"
	"strings"
)

const (
	unspecifiedIPv4 = "0.0.0.0"
	unspecifiedIPv6 = "::"
)

// IsValidIPv4 reports whether s is a dotted-quad IPv4 literal usable as a
// client address.
//
// s must contain exactly three dots and every octet must be in 0-255 with no
// leading zeros. CIDR suffixes, ports and surrounding whitespace are
// rejected. The unspecified address "0.0.0.0" is syntactically valid but is
// reported as invalid here.
func IsValidIPv4(s string) bool {
	if strings.Count(s, ".") != 3 || s == unspecifiedIPv4 {
		return false
	}

	ip, ok := parseLiteral(s)
	return ok && ip.Is4()
}

// IsValidIPv6 reports whether s is an IPv6 literal usable as a client
// address.
//
// s must contain at least one colon. Zones, CIDR suffixes and brackets are
// rejected. The unspecified address "::" is reported as invalid.
func IsValidIPv6(s string) bool {
	if !strings.Contains(s, ":") || s == unspecifiedIPv6 {
		return false
	}

	ip, ok := parseLiteral(s)
	return ok && ip.Is6()
}

// IsValidIP dispatches to IsValidIPv6 when s contains a colon and to
// IsValidIPv4 otherwise.
func IsValidIP(s string) bool {
	if strings.Contains(s, ":") {
		return IsValidIPv6(s)
	}
	return IsValidIPv4(s)
}

// parseLiteral parses a bare address literal. Unlike netip.ParseAddr it
// rejects zoned IPv6 addresses ("fe80::1%eth0"), which are not valid in
// forwarding headers.
func parseLiteral(s string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(s)
	if err != nil || ip.Zone() != "" {
		return netip.Addr{}, false
	}
	return ip, true
}

func normalizeIP(ip netip.Addr) netip.Addr {
	if ip.Is4In6() {
		return ip.Unmap()
	}
	return ip
}

// remoteAddrHost strips the port from a transport peer address such as
// http.Request.RemoteAddr. Values without a port are returned unchanged,
// apart from IPv6 brackets.
func remoteAddrHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}

	return trimMatchedPair(remoteAddr, '[', ']')
}

// trimMatchedPair removes one leading and trailing delimiter when both match.
func trimMatchedPair(s string, start, end byte) string {
	if len(s) < 2 {
		return s
	}

	if s[0] != start || s[len(s)-1] != end {
		return s
	}

	return s[1 : len(s)-1]
}
