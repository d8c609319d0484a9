package clientip

import (
	"context"
	"strings"
)

type tokenExcluder interface {
	excludes(token string) bool
}

// requestMeta carries request attributes attached to log events.
type requestMeta struct {
	path       string
	remoteAddr string
}

// resolve is the single scan loop behind every public entry point.
//
// Header sources are consulted in priority order and each value is split on
// "," without trimming. Scanning stops at the first valid non-reserved
// token. Reserved tokens are remembered in scan order and the earliest one
// is returned when no public token exists.
func (r *Resolver) resolve(ctx context.Context, headers HeaderValues, fallback string, exclusions tokenExcluder, meta requestMeta) Resolution {
	var deferred Resolution

	if !isNilInterface(headers) {
		for _, source := range r.config.headerSources {
			for _, value := range headers.Values(source.key) {
				for token := range strings.SplitSeq(value, ",") {
					switch {
					case exclusions.excludes(token):
						r.skipToken(ctx, meta, source, token, skipReasonExcluded)
					case !IsValidIP(token):
						r.skipToken(ctx, meta, source, token, skipReasonInvalid)
					case IsReservedIP(token):
						r.skipToken(ctx, meta, source, token, skipReasonReserved)
						if !deferred.OK() {
							deferred = Resolution{IP: token, Source: source.name, Deferred: true}
						}
					default:
						r.config.metrics.RecordResolution(source.name, resultPublic)
						return Resolution{IP: token, Source: source.name}
					}
				}
			}
		}
	}

	if deferred.OK() {
		r.config.logger.WarnContext(ctx, "no public address in forwarding headers, using reserved candidate",
			"event", resultDeferred,
			"source", deferred.Source,
			"ip", deferred.IP,
			"path", meta.path,
			"remote_addr", meta.remoteAddr,
		)
		r.config.metrics.RecordResolution(deferred.Source, resultDeferred)
		return deferred
	}

	if fallback != "" {
		r.config.metrics.RecordResolution(SourceFallback, resultFallback)
		return Resolution{IP: fallback, Source: SourceFallback}
	}

	r.config.metrics.RecordResolution("", resultUnresolved)
	return Resolution{}
}

func (r *Resolver) skipToken(ctx context.Context, meta requestMeta, source headerSource, token, reason string) {
	r.config.metrics.RecordSkippedToken(source.name, reason)
	r.config.logger.DebugContext(ctx, "skipped forwarding header token",
		"source", source.name,
		"token", token,
		"reason", reason,
		"path", meta.path,
		"remote_addr", meta.remoteAddr,
	)
}
