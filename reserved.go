package clientip

import (
	"fmt"
	"net/netip"
)

// alwaysReservedLiterals short-circuits classification for the most common
// non-routable literals, including the unspecified addresses that IsValidIP
// rejects.
var alwaysReservedLiterals = map[string]struct{}{
	"127.0.0.1":       {},
	"::1":             {},
	"255.255.255.255": {},
	"0.0.0.0":         {},
	"::":              {},
}

var (
	documentationIPv4Prefixes = []netip.Prefix{
		mustParsePrefix("192.0.0.0/24"),
		mustParsePrefix("192.0.2.0/24"),
		mustParsePrefix("198.51.100.0/24"),
		mustParsePrefix("203.0.113.0/24"),
	}

	specialPurposeIPv4Prefixes = []netip.Prefix{
		mustParsePrefix("0.0.0.0/8"),
		mustParsePrefix("10.0.0.0/8"),
		mustParsePrefix("100.64.0.0/10"),
		mustParsePrefix("127.0.0.0/8"),
		mustParsePrefix("169.254.0.0/16"),
		mustParsePrefix("172.16.0.0/12"),
		mustParsePrefix("192.168.0.0/16"),
		mustParsePrefix("198.18.0.0/15"),
		mustParsePrefix("224.0.0.0/4"),
		mustParsePrefix("240.0.0.0/4"),
	}

	specialPurposeIPv6Prefixes = []netip.Prefix{
		mustParsePrefix("::/128"),
		mustParsePrefix("::1/128"),
		mustParsePrefix("fe80::/10"),
		mustParsePrefix("fc00::/7"),
		mustParsePrefix("ff00::/8"),
		mustParsePrefix("2001:db8::/32"),
	}

	reservedRanges = newPrefixSet(
		documentationIPv4Prefixes,
		specialPurposeIPv4Prefixes,
		specialPurposeIPv6Prefixes,
	)
)

func mustParsePrefix(cidr string) netip.Prefix {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in CIDR %q: %v", cidr, err))
	}
	return prefix
}

// IsReservedIP reports whether s is an address literal that is not usable
// as a public Internet endpoint: private-use, loopback, link-local,
// documentation, multicast, unspecified or otherwise special-purpose.
//
// Strings that are not address literals are not reserved; IsReservedIP
// returns false for them rather than treating "unknown" as reserved.
func IsReservedIP(s string) bool {
	if _, ok := alwaysReservedLiterals[s]; ok {
		return true
	}

	ip, ok := parseLiteral(s)
	if !ok {
		return false
	}

	return isReservedAddr(ip)
}

// isReservedAddr classifies a parsed address. IPv4-mapped IPv6 addresses
// are classified by the IPv4 address they carry.
func isReservedAddr(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}

	return reservedRanges.contains(normalizeIP(ip))
}
