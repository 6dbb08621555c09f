package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/remindly/remind-api/internal/logger"
	"github.com/remindly/remind-api/internal/request"
	"go.uber.org/zap"
)

// Logging logs one line per request. Runs inside the auth middleware so the
// owner resolved from the token (or dev header) is on the line; anonymous
// requests log without it.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap ResponseWriter to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("client_ip", request.ClientIP(r)),
			}
			if owner := request.OwnerFromContext(r); owner != "" {
				fields = append(fields, zap.String("owner_id", logpkg.SanitizeOwnerID(owner)))
			}
			logger.Info("http_request", fields...)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
