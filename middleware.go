package clientip

import (
	"context"
	"net/http"
)

type resolutionContextKey struct{}

// NewContext returns a copy of ctx carrying res.
func NewContext(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, res)
}

// FromContext returns the Resolution stored by Middleware or NewContext.
func FromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(resolutionContextKey{}).(Resolution)
	return res, ok
}

// Middleware resolves the client address of every request and stores it in
// the request context before calling next.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		res := r.ResolveRequest(req)
		next.ServeHTTP(w, req.WithContext(NewContext(req.Context(), res)))
	})
}
