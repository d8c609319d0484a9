package clientip

import (
	"net/textproto"
	"sort"
	"strings"
)

const (
	// HeaderXClusterClientIP is set by some load-balancer clusters (e.g.
	// Rackspace, Riverbed) to the original client address.
	HeaderXClusterClientIP = "X-Cluster-Client-IP"
	// HeaderXForwardedFor carries a comma-separated proxy chain.
	HeaderXForwardedFor = "X-Forwarded-For"
	// HeaderClientIP is a legacy single-address header.
	HeaderClientIP = "Client-IP"
	// HeaderXClientIP is a legacy single-address header.
	HeaderXClientIP = "X-Client-IP"
)

const (
	// SourceXClusterClientIP resolves from the X-Cluster-Client-IP header.
	SourceXClusterClientIP = "x_cluster_client_ip"
	// SourceXForwardedFor resolves from the X-Forwarded-For header.
	SourceXForwardedFor = "x_forwarded_for"
	// SourceClientIP resolves from the Client-IP header.
	SourceClientIP = "client_ip"
	// SourceXClientIP resolves from the X-Client-IP header.
	SourceXClientIP = "x_client_ip"
	// SourceFallback resolves from the direct peer address.
	SourceFallback = "fallback"
)

var defaultHeaderPriority = []string{
	HeaderXClusterClientIP,
	HeaderXForwardedFor,
	HeaderClientIP,
	HeaderXClientIP,
}

// DefaultHeaderPriority returns the headers consulted by default, highest
// priority first.
func DefaultHeaderPriority() []string {
	return cloneStrings(defaultHeaderPriority)
}

// headerSource is one entry of the scan order: the canonical key used for
// lookups and the source name reported to callers.
type headerSource struct {
	key  string
	name string
}

func newHeaderSources(headers []string) []headerSource {
	sources := make([]headerSource, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		sources[i] = headerSource{
			key:  textproto.CanonicalMIMEHeaderKey(header),
			name: NormalizeSourceName(header),
		}
	}
	return sources
}

// HeaderMap is a single-valued header mapping, as produced by frameworks or
// CGI-style environments. Lookups are case-insensitive.
type HeaderMap map[string]string

// Values implements HeaderValues.
//
// An exact key match wins. Otherwise all keys equal to name under Unicode
// case folding are returned in sorted key order, so the result does not
// depend on map iteration order.
func (m HeaderMap) Values(name string) []string {
	if value, ok := m[name]; ok {
		return []string{value}
	}

	var keys []string
	for key := range m {
		if strings.EqualFold(key, name) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	sort.Strings(keys)
	values := make([]string, len(keys))
	for i, key := range keys {
		values[i] = m[key]
	}
	return values
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	cloned := make([]string, len(values))
	copy(cloned, values)
	return cloned
}
