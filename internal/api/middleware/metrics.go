package middleware

import (
	"net/http"
	"sync/atomic"
)

// Counters are the process-wide request tallies reported by /metrics.
type Counters struct {
	Requests     atomic.Int64
	ClientErrors atomic.Int64
	ServerErrors atomic.Int64

	// Conflicts counts requests rejected for session state, such as feedback
	// on a finished session or before any sample.
	Conflicts atomic.Int64
}

// Snapshot returns the current tallies keyed the way /metrics reports them.
func (c *Counters) Snapshot() map[string]int64 {
	client, server := c.ClientErrors.Load(), c.ServerErrors.Load()
	return map[string]int64{
		"request_count":      c.Requests.Load(),
		"error_count":        client + server,
		"client_error_count": client,
		"server_error_count": server,
		"conflict_count":     c.Conflicts.Load(),
	}
}

type MetricsCollector struct {
	counters *Counters
}

func NewMetricsCollector(counters *Counters) *MetricsCollector {
	return &MetricsCollector{counters: counters}
}

func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.counters.Requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode >= 500:
			mc.counters.ServerErrors.Add(1)
		case rw.statusCode == http.StatusConflict:
			mc.counters.Conflicts.Add(1)
			mc.counters.ClientErrors.Add(1)
		case rw.statusCode >= 400:
			mc.counters.ClientErrors.Add(1)
		}
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}
