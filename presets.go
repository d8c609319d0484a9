package clientip

// PresetDefaultHeaders restores the default header priority:
// X-Cluster-Client-IP, X-Forwarded-For, Client-IP, X-Client-IP.
func PresetDefaultHeaders() Option {
	return HeaderPriority(defaultHeaderPriority...)
}

// PresetDirectConnection configures resolution for clients that connect
// without intermediaries.
//
// No headers are consulted; the fallback address is always returned.
func PresetDirectConnection() Option {
	return HeaderPriority()
}

// PresetForwardedFor configures resolution for a single conventional
// reverse proxy that only sets X-Forwarded-For.
//
// The proxy's own addresses still need ExcludeProxies or
// ExcludeProxyPrefixes when it appends itself to the chain.
func PresetForwardedFor() Option {
	return HeaderPriority(HeaderXForwardedFor)
}
