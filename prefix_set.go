package clientip

import "net/netip"

// prefixSet answers containment queries against a fixed list of prefixes
// using one binary trie per address family.
type prefixSet struct {
	ipv4Root *prefixTrieNode
	ipv6Root *prefixTrieNode
}

type prefixTrieNode struct {
	children [2]*prefixTrieNode
	terminal bool
}

func newPrefixSet(groups ...[]netip.Prefix) prefixSet {
	var set prefixSet

	for _, prefixes := range groups {
		for _, prefix := range prefixes {
			set.insert(prefix)
		}
	}

	return set
}

func (s *prefixSet) insert(prefix netip.Prefix) {
	if !prefix.IsValid() {
		return
	}

	prefix = prefix.Masked()
	addr := prefix.Addr()

	if addr.Is4() {
		if s.ipv4Root == nil {
			s.ipv4Root = &prefixTrieNode{}
		}
		bytes := addr.As4()
		insertBits(s.ipv4Root, bytes[:], prefix.Bits())
		return
	}

	if s.ipv6Root == nil {
		s.ipv6Root = &prefixTrieNode{}
	}
	bytes := addr.As16()
	insertBits(s.ipv6Root, bytes[:], prefix.Bits())
}

func insertBits(root *prefixTrieNode, addr []byte, bits int) {
	node := root
	for bitIndex := range bits {
		bit := addrBit(addr, bitIndex)
		if node.children[bit] == nil {
			node.children[bit] = &prefixTrieNode{}
		}
		node = node.children[bit]
	}

	node.terminal = true
}

// contains reports whether ip falls in any inserted prefix of its own
// family. Callers unmap IPv4-mapped addresses first.
func (s prefixSet) contains(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}

	if ip.Is4() {
		bytes := ip.As4()
		return trieContains(s.ipv4Root, bytes[:])
	}

	bytes := ip.As16()
	return trieContains(s.ipv6Root, bytes[:])
}

func trieContains(root *prefixTrieNode, addr []byte) bool {
	node := root
	for bitIndex := 0; node != nil; bitIndex++ {
		if node.terminal {
			return true
		}
		if bitIndex == len(addr)*8 {
			return false
		}
		node = node.children[addrBit(addr, bitIndex)]
	}

	return false
}

func addrBit(addr []byte, bitIndex int) int {
	return int(addr[bitIndex/8]>>(7-uint(bitIndex%8))) & 1
}
