package middleware

import (
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func wrap(w http.ResponseWriter) *responseWriter {
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

// LoggingMiddleware puts a request-scoped logger into the context and logs
// every request when it completes.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := clog.FromContext(r.Context()).With("method", r.Method).With("path", r.URL.Path)
		ctx := clog.WithLogger(r.Context(), log)

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		log.With("status", wrapped.statusCode).
			With("duration", time.Since(start).String()).
			With("bytes", wrapped.written).
			With("ip", r.RemoteAddr).
			With("user_agent", r.UserAgent()).
			Info("request")
	})
}
