package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	httpRequestsTotalName   = "clientip_http_requests_total"
	httpDurationSecondsName = "clientip_http_duration_seconds"
	unmatchedRoute          = "other"
)

type requestMetrics struct {
	requestsTotal   *prom.CounterVec
	durationSeconds *prom.HistogramVec
}

func newRequestMetrics(reg prom.Registerer) (*requestMetrics, error) {
	m := &requestMetrics{
		requestsTotal: prom.NewCounterVec(
			prom.CounterOpts{
				Name: httpRequestsTotalName,
				Help: "Total number of HTTP requests.",
			},
			[]string{"route", "method", "code"},
		),
		durationSeconds: prom.NewHistogramVec(
			prom.HistogramOpts{
				Name:    httpDurationSecondsName,
				Help:    "HTTP request duration in seconds.",
				Buckets: prom.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	for _, c := range []prom.Collector{m.requestsTotal, m.durationSeconds} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register http metrics: %w", err)
		}
	}

	return m, nil
}

// middleware records request count and duration per matched route. The
// route pattern keeps label cardinality bounded; unmatched paths collapse
// to "other".
func (m *requestMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(statusCode(ww))).Inc()
		m.durationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
