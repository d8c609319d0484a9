// Package clientip validates and classifies IP address literals and resolves
// the most plausible client address from proxy forwarding headers.
//
// # Features
//
//   - Strict IPv4/IPv6 literal validation that rejects the unspecified
//     addresses, CIDR suffixes and zones
//   - Reserved-range classification (private-use, loopback, link-local,
//     documentation, multicast, unspecified) for IPv4 and IPv6
//   - Client IP resolution over a fixed, configurable header priority with
//     deferred fallback to reserved candidates
//   - Trusted proxy exclusion by exact address (optionally by prefix)
//   - Optional observability with context-aware logging and pluggable metrics
//
// # Basic Usage
//
// The package-level helpers need no configuration:
//
//	clientip.IsValidIP("192.168.1.1")    // true
//	clientip.IsValidIPv4("0.0.0.0")      // false
//	clientip.IsReservedIP("192.0.2.1")   // true
//
//	ip, ok := clientip.ResolveClientIP(r.Header, []string{"10.0.0.5"}, "203.0.113.9")
//
// Headers are consulted in the order X-Cluster-Client-IP, X-Forwarded-For,
// Client-IP, X-Client-IP. Each header value is split on "," and scanned in
// order. The first valid, non-reserved address wins. If none is found, the
// first valid reserved address seen is returned, and failing that the
// fallback.
//
// # Resolver
//
// For repeated use, build a Resolver once and share it:
//
//	resolver, err := clientip.New(
//	    clientip.ExcludeProxies("10.0.0.5", "10.0.0.6"),
//	    clientip.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := resolver.ResolveRequest(req)
//	fmt.Printf("Client IP: %s from %s\n", res.IP, res.Source)
//
// Resolver.Middleware stores the resolution in the request context, where
// FromContext retrieves it.
//
// # Observability
//
// The logger receives the request context, allowing trace/span IDs to flow
// through. Skipped header tokens are logged at debug level; falling back to a
// reserved candidate is logged as a warning.
// (Prometheus adapter package: github.com/allenjb/clientip/prometheus)
//
//	import clientipprom "github.com/allenjb/clientip/prometheus"
//
//	resolver, err := clientip.New(
//	    clientip.WithLogger(slog.Default()),
//	    clientipprom.WithRegisterer(registry),
//	)
//
// # Security Considerations
//
// Forwarding headers are supplied by the client or by intermediaries and can
// be forged. A resolved address is a best guess suitable for logging,
// analytics and coarse rate limiting, not for access control. Proxy
// exclusion only removes known intermediaries from the candidates; it does
// not authenticate them.
//
// # Thread Safety
//
// All package functions are pure. Resolver instances are immutable after
// construction and safe for concurrent use.
package clientip
