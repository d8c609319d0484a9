package clientip

import (
	"net"
	"net/netip"

	"github.com/yl2chen/cidranger"
)

// proxyExclusions decides whether a header token belongs to a trusted
// intermediary and must be skipped.
//
// Addresses match by exact, case-sensitive string comparison against the raw
// token. Prefixes are opt-in and only consulted for tokens that parse as
// address literals.
type proxyExclusions struct {
	addrs  map[string]struct{}
	ranger cidranger.Ranger
}

func buildProxyExclusions(addrs []string, prefixes []netip.Prefix) (proxyExclusions, error) {
	exclusions := proxyExclusions{}

	if len(addrs) > 0 {
		exclusions.addrs = make(map[string]struct{}, len(addrs))
		for _, addr := range addrs {
			exclusions.addrs[addr] = struct{}{}
		}
	}

	if len(prefixes) > 0 {
		exclusions.ranger = cidranger.NewPCTrieRanger()
		for _, prefix := range prefixes {
			if err := exclusions.ranger.Insert(cidranger.NewBasicRangerEntry(prefixToIPNet(prefix))); err != nil {
				return proxyExclusions{}, err
			}
		}
	}

	return exclusions, nil
}

func (p proxyExclusions) excludes(token string) bool {
	if _, ok := p.addrs[token]; ok {
		return true
	}

	if p.ranger == nil {
		return false
	}

	ip, ok := parseLiteral(token)
	if !ok {
		return false
	}

	contains, err := p.ranger.Contains(net.IP(normalizeIP(ip).AsSlice()))
	return err == nil && contains
}

func prefixToIPNet(prefix netip.Prefix) net.IPNet {
	prefix = prefix.Masked()
	addr := prefix.Addr()

	return net.IPNet{
		IP:   net.IP(addr.AsSlice()),
		Mask: net.CIDRMask(prefix.Bits(), addr.BitLen()),
	}
}

// exactExclusions adapts a plain exclusion list for the package-level
// ResolveClientIP helper. Lists are typically a handful of entries, so a
// linear scan beats building a map per call.
type exactExclusions []string

func (e exactExclusions) excludes(token string) bool {
	for _, addr := range e {
		if addr == token {
			return true
		}
	}
	return false
}
