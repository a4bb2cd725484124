package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// pollRoutes are polled by orchestrators and logged at debug level.
var pollRoutes = map[string]bool{"/health": true, "/metrics": true, "/version": true}

// Logging logs one line per request. Study routes are logged by route
// pattern, with the project id when the route carries one.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			level := zapcore.InfoLevel
			switch {
			case rw.statusCode >= 500:
				level = zapcore.ErrorLevel
			case rw.statusCode >= 400:
				level = zapcore.WarnLevel
			case pollRoutes[r.URL.Path]:
				level = zapcore.DebugLevel
			}
			ce := logger.Check(level, "http request")
			if ce == nil {
				return
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", path),
				zap.Int("status", rw.statusCode),
				zap.Int64("bytes", rw.written),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if id := chi.URLParam(r, "id"); id != "" {
				fields = append(fields, zap.String("project_id", id))
			}
			ce.Write(fields...)
		})
	}
}
