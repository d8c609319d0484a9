// Package server exposes a Resolver over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/allenjb/clientip"
	"github.com/allenjb/clientip/jsonutil"
	"github.com/allenjb/clientip/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 30 * time.Second

// Config holds the dependencies of the HTTP handler.
type Config struct {
	Resolver *clientip.Resolver
	Logger   *logging.Logger
	// Registry receives the request metrics and is served on /metrics.
	Registry *prom.Registry
}

// addressResponse is the body of GET /ip.
type addressResponse struct {
	IP       string `json:"ip"`
	Source   string `json:"source"`
	Deferred bool   `json:"deferred"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the handler serving GET /ip, GET /healthz and
// GET /metrics.
func NewRouter(cfg Config) (http.Handler, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("server: resolver cannot be nil")
	}
	if cfg.Registry == nil {
		return nil, errors.New("server: registry cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	metrics, err := newRequestMetrics(cfg.Registry)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(metrics.middleware)
	r.Use(accessLog(cfg.Logger))

	r.With(cfg.Resolver.Middleware).Get("/ip", handleIP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	return r, nil
}

func handleIP(w http.ResponseWriter, r *http.Request) {
	res, ok := clientip.FromContext(r.Context())
	if !ok || !res.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "client address could not be resolved"})
		return
	}

	writeJSON(w, http.StatusOK, addressResponse{
		IP:       res.IP,
		Source:   res.Source,
		Deferred: res.Deferred,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := jsonutil.Encode(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

func accessLog(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.DebugContext(r.Context(), "http request",
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", statusCode(ww),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

func statusCode(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
