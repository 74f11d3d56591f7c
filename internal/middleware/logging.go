package middleware

import (
	"log"
	"net/http"
	"time"
)

// LoggingMiddleware provides request logging with security context
type LoggingMiddleware struct {
	logger *log.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *log.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingMiddleware{
		logger: logger,
	}
}

// LogRequests logs incoming requests with the client IP and, when
// authenticated, the acting user.
func (lm *LoggingMiddleware) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		clientIP := ClientIP(r.Context())
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}
		user := "-"
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			user = claims.Email
		}

		lm.logger.Printf("[%s] %s %s %d %v - IP: %s, User: %s, User-Agent: %s",
			r.Method,
			r.RequestURI,
			r.Proto,
			wrapped.statusCode,
			time.Since(start),
			clientIP,
			user,
			r.UserAgent(),
		)

		switch wrapped.statusCode {
		case http.StatusTooManyRequests:
			lm.logger.Printf("SECURITY: Rate limit exceeded for IP: %s", clientIP)
		case http.StatusRequestTimeout:
			lm.logger.Printf("SECURITY: Request timeout for IP: %s", clientIP)
		case http.StatusForbidden:
			lm.logger.Printf("SECURITY: Forbidden %s %s for user %s", r.Method, r.URL.Path, user)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
