package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/daybook/server/internal/platform/logging"
	"github.com/daybook/server/internal/platform/metrics"
	"github.com/go-chi/chi/v5/middleware"
)

type httpMetrics struct {
	requests *metrics.CounterVec
	duration *metrics.HistogramVec
}

var (
	registered   = map[*metrics.Registry]*httpMetrics{}
	registeredMu sync.Mutex
)

// newHTTPMetrics registers the request collectors once per registry so
// several routers can share one.
func newHTTPMetrics(reg *metrics.Registry) *httpMetrics {
	if reg == nil {
		return nil
	}
	registeredMu.Lock()
	defer registeredMu.Unlock()
	if m, ok := registered[reg]; ok {
		return m
	}
	m := &httpMetrics{
		requests: metrics.NewCounterVec(metrics.Opts{
			Name: "daybook_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: metrics.NewHistogramVec(metrics.Opts{
			Name: "daybook_http_request_duration_seconds",
			Help: "HTTP request latency in seconds.",
		}, []string{"method", "route"}, metrics.DefaultBuckets),
	}
	reg.MustRegister(m.requests, m.duration)
	registered[reg] = m
	return m
}

func (m *httpMetrics) middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := logging.RoutePattern(r)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.Observe(time.Since(start).Seconds(), r.Method, route)
	})
}
