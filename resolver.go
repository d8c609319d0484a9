package clientip

import (
	"context"
	"fmt"
	"net/http"
)

// Resolver resolves client IP addresses from forwarding headers with a fixed
// configuration.
//
// Resolver instances are safe for concurrent reuse.
type Resolver struct {
	config *config
}

// packageResolver backs ResolveClientIP: default headers, no hooks.
var packageResolver = func() *Resolver {
	cfg := defaultConfig()
	cfg.headerSources = newHeaderSources(cfg.headerPriority)
	return &Resolver{config: cfg}
}()

// New creates a Resolver from one or more Option builders.
func New(opts ...Option) (*Resolver, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Resolver{config: cfg}, nil
}

// ResolveClientIP returns the most plausible client address found in
// headers, scanning X-Cluster-Client-IP, X-Forwarded-For, Client-IP and
// X-Client-IP in that order.
//
// Tokens equal to an entry of exclusions are skipped, as are tokens that
// are not valid addresses. The first valid non-reserved token is returned.
// Otherwise the first valid reserved token is returned, and failing that
// fallback. ok is false only when the result is empty.
//
// headers may be nil. http.Header and HeaderMap both satisfy HeaderValues.
func ResolveClientIP(headers HeaderValues, exclusions []string, fallback string) (ip string, ok bool) {
	res := packageResolver.resolve(context.Background(), headers, fallback, exactExclusions(exclusions), requestMeta{remoteAddr: fallback})
	return res.IP, res.OK()
}

// Resolve resolves the client address from headers, returning fallback when
// no header yields a candidate.
func (r *Resolver) Resolve(headers HeaderValues, fallback string) Resolution {
	return r.ResolveContext(context.Background(), headers, fallback)
}

// ResolveContext is Resolve with a context that is handed to the Logger.
func (r *Resolver) ResolveContext(ctx context.Context, headers HeaderValues, fallback string) Resolution {
	if ctx == nil {
		ctx = context.Background()
	}

	return r.resolve(ctx, headers, fallback, r.config.exclusions, requestMeta{remoteAddr: fallback})
}

// ResolveRequest resolves the client address of an HTTP request. The
// request's RemoteAddr, without its port, is the fallback.
func (r *Resolver) ResolveRequest(req *http.Request) Resolution {
	if req == nil {
		return r.resolve(context.Background(), nil, "", r.config.exclusions, requestMeta{})
	}

	meta := requestMeta{path: requestPath(req), remoteAddr: req.RemoteAddr}
	return r.resolve(req.Context(), req.Header, remoteAddrHost(req.RemoteAddr), r.config.exclusions, meta)
}

// ResolveFrom resolves the client address from framework-agnostic request
// input. RemoteAddr, without its port, is the fallback.
func (r *Resolver) ResolveFrom(input RequestInput) Resolution {
	meta := requestMeta{path: input.Path, remoteAddr: input.RemoteAddr}
	return r.resolve(requestInputContext(input), input.Headers, remoteAddrHost(input.RemoteAddr), r.config.exclusions, meta)
}

// HeaderPriority returns the headers this resolver consults, highest
// priority first.
func (r *Resolver) HeaderPriority() []string {
	return cloneStrings(r.config.headerPriority)
}

func requestPath(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Path
}
